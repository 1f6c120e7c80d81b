package zmachine

// Quit is sent down the output channel when the story executes quit or its
// run loop otherwise terminates.
type Quit bool

// EraseWindowRequest asks the host to clear a window (-1: unsplit and
// clear; -2: clear both without unsplitting; 0/1: clear that window).
type EraseWindowRequest int

// StateChangeRequest tells the host what kind of input the interpreter is
// now blocked on.
type StateChangeRequest int

const (
	WaitForInput StateChangeRequest = iota
	WaitForCharacter
	Running
)

// StatusBar is pushed to the host whenever V1-3's status line needs
// refreshing (at every sread, before input is requested, and on show_status).
type StatusBar struct {
	PlaceName   string
	Score       int
	Moves       int
	IsTimeBased bool
}

// MemoryStreamData tracks one nested activation of output stream 3 (a
// memory-table destination), which the standard requires to stack.
type MemoryStreamData struct {
	baseAddress uint32
	ptr         uint32
}

// Streams is the current fan-out configuration of the print family: which
// of the four output streams are active.
type Streams struct {
	Screen           bool
	Transcript       bool
	Memory           bool
	MemoryStreamData []MemoryStreamData
	CommandScript    bool
}

// SaveRequest/RestoreRequest/their responses model the host-mediated
// persistence boundary: the interpreter never touches a filesystem
// directly, it asks the host to store or retrieve opaque save bytes.
type SaveRequest struct {
	Data []byte
}

type SaveResponse struct {
	Success bool
}

type RestoreRequest struct{}

type RestoreResponse struct {
	Success bool
	Data    []byte
}
