// Package zmachine implements the Z-machine instruction set: the call
// stack, unified variable access, instruction decoder, opcode executor, and
// the run loop tying them together.
package zmachine

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/halvorsen-dev/zterp/dictionary"
	"github.com/halvorsen-dev/zterp/zcore"
	"github.com/halvorsen-dev/zterp/zobject"
	"github.com/halvorsen-dev/zterp/zstring"
)

// ZMachine is one running story: its memory, call stack, dictionary,
// alphabets, screen state, output streams, and the channels it uses to
// talk to a host.
type ZMachine struct {
	callStack     CallStack
	Core          zcore.Core
	dictionary    *dictionary.Dictionary
	screenModel   ScreenModel
	streams       Streams
	rng           *rand.Rand
	Alphabets     *zstring.Alphabets
	outputChannel chan<- interface{}
	inputChannel  <-chan interface{}
	undoStates    []undoState

	warned map[string]bool
}

// undoState is an in-process save_undo/restore_undo snapshot; unlike a real
// save it never leaves the interpreter, so it can hold the live call stack
// directly rather than round-tripping through Quetzal.
type undoState struct {
	dynamicMemory []byte
	callStack     CallStack
	streams       Streams
}

// warn records a recoverable anomaly as a zmachine.Warning on the output
// channel, once per distinct code per run (a malformed story can otherwise
// flood the host with the same complaint every turn).
func (z *ZMachine) warn(code string, format string, args ...any) {
	if z.warned == nil {
		z.warned = make(map[string]bool)
	}
	if z.warned[code] {
		return
	}
	z.warned[code] = true
	if z.outputChannel != nil {
		msg := format
		if len(args) > 0 {
			msg = fmt.Sprintf(format, args...)
		}
		z.outputChannel <- Warning{Code: code, Message: msg}
	}
}

func (z *ZMachine) readByteIncPC(frame *CallStackFrame) uint8 {
	v := z.Core.MustReadByte(frame.pc)
	frame.pc++
	return v
}

func (z *ZMachine) readWordIncPC(frame *CallStackFrame) uint16 {
	v := z.Core.MustReadWord(frame.pc)
	frame.pc += 2
	return v
}

// LoadRom parses a story file and sets up its initial call frame, dictionary
// and alphabets, ready to Run.
func LoadRom(storyFile []uint8, inputChannel <-chan interface{}, outputChannel chan<- interface{}) *ZMachine {
	core := zcore.LoadCore(storyFile)
	machine := &ZMachine{
		Core:          *core,
		inputChannel:  inputChannel,
		outputChannel: outputChannel,
		streams:       Streams{Screen: true},
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	machine.Alphabets = zstring.LoadAlphabets(&machine.Core)
	machine.dictionary = dictionary.Parse(&machine.Core, machine.Alphabets, uint32(machine.Core.DictionaryBase))

	machine.Core.SetDefaultBackgroundColorNumber(uint8(ColorBlack))
	machine.Core.SetDefaultForegroundColorNumber(uint8(ColorWhite))
	machine.screenModel = newScreenModel(Color{255, 255, 255}, Color{0, 0, 0})

	if machine.Core.Version == 6 {
		packed := machine.Core.UnpackAddress(uint32(machine.Core.FirstInstruction), false)
		machine.callStack.push(CallStackFrame{
			pc:     packed + 1,
			locals: make([]uint16, machine.Core.MustReadByte(packed)),
		})
	} else {
		machine.callStack.push(CallStackFrame{
			pc:     uint32(machine.Core.FirstInstruction),
			locals: make([]uint16, 0),
		})
	}

	return machine
}

// call implements the common body of call/call_1s/call_2s/call_vs/call_vn/
// etc: resolving the packed routine address, reading default locals, and
// pushing a new call frame. routineType controls whether the eventual
// return stores a value.
func (z *ZMachine) call(instr *Instruction, routineType RoutineType) {
	frame := z.callStack.peek()
	routineAddress := z.Core.UnpackAddress(uint32(instr.operands[0].Value(z)), false)

	if routineAddress == 0 {
		if routineType == function {
			z.writeVariable(z.readByteIncPC(frame), 0, false)
		}
		return
	}

	localCount := z.Core.MustReadByte(routineAddress)
	routineAddress++
	locals := make([]uint16, localCount)

	for i := 0; i < int(localCount); i++ {
		if i+1 < len(instr.operands) {
			locals[i] = instr.operands[i+1].Value(z)
		} else if z.Core.Version < 5 {
			locals[i] = z.Core.MustReadWord(routineAddress)
		}
		if z.Core.Version < 5 {
			routineAddress += 2
		}
	}

	z.callStack.push(CallStackFrame{
		pc:              routineAddress,
		locals:          locals,
		routineType:     routineType,
		numValuesPassed: len(instr.operands) - 1,
		framePointer:    z.callStack.getFramePointer(),
	})
}

func (z *ZMachine) handleBranch(frame *CallStackFrame, result bool) {
	branchByte := z.readByteIncPC(frame)

	branchOnTrue := branchByte&0x80 != 0
	singleByte := branchByte&0x40 != 0
	offset := int32(branchByte & 0b0011_1111)

	if !singleByte {
		low := z.readByteIncPC(frame)
		offset = int32(int16(uint16(branchByte&0b0011_1111)<<8|uint16(low)) << 2 >> 2)
	}

	if result != branchOnTrue {
		return
	}

	switch offset {
	case 0:
		z.returnValue(0)
	case 1:
		z.returnValue(1)
	default:
		frame.pc = uint32(int32(frame.pc) + offset - 2)
	}
}

func (z *ZMachine) returnValue(val uint16) {
	oldFrame, err := z.callStack.pop()
	if err != nil {
		z.warn("return_underflow", "%s", err.Error())
		return
	}
	newFrame := z.callStack.peek()
	if newFrame == nil {
		return
	}
	if oldFrame.routineType == function {
		dest := z.readByteIncPC(newFrame)
		z.writeVariable(dest, val, false)
	}
}

// appendText routes decoded/printed text through whichever output stream(s)
// are currently active; output stream 3 (memory) suppresses every other
// stream while selected.
func (z *ZMachine) appendText(s string) {
	if z.streams.Memory {
		top := &z.streams.MemoryStreamData[len(z.streams.MemoryStreamData)-1]
		for _, r := range s {
			z.Core.WriteByte(top.ptr, uint8(r))
			top.ptr++
		}
		return
	}

	if z.streams.Screen {
		z.outputChannel <- s
		if !z.screenModel.LowerWindowActive {
			lines := strings.Split(s, "\n")
			z.screenModel.UpperWindowCursorY += len(lines) - 1
			z.screenModel.UpperWindowCursorX += len(lines[len(lines)-1])
			z.outputChannel <- z.screenModel
		}
	}

	if z.streams.Transcript {
		z.outputChannel <- s
	}
}

// readLine implements sread/aread: blocks for a line of input, lowercases
// and writes it into the text buffer, and (unless no parse buffer was
// given) tokenizes it against the active dictionary.
func (z *ZMachine) readLine(instr *Instruction) {
	frame := z.callStack.peek()

	if z.Core.Version <= 3 {
		location, err := zobject.GetObject(&z.Core, z.Alphabets, z.readVariable(16, false))
		placeName := ""
		if err == nil {
			placeName = location.Name
		}
		z.outputChannel <- StatusBar{
			PlaceName:   placeName,
			Score:       int(int16(z.readVariable(17, false))),
			Moves:       int(z.readVariable(18, false)),
			IsTimeBased: z.Core.StatusBarTimeBased,
		}
	}

	z.outputChannel <- WaitForInput
	rawText, _ := (<-z.inputChannel).(string)

	textBufferAddr := instr.operands[0].Value(z)
	parseBufferAddr := uint16(0)
	if len(instr.operands) > 1 {
		parseBufferAddr = instr.operands[1].Value(z)
	}

	rawBytes := []byte(strings.ToLower(rawText))
	bufferSize := z.Core.MustReadByte(uint32(textBufferAddr))
	writePtr := uint32(textBufferAddr) + 1

	if z.Core.Version >= 5 {
		existing := z.Core.MustReadByte(writePtr)
		writePtr += 1 + uint32(existing)
	}

	ix := 0
	for ix < int(bufferSize) && ix < len(rawBytes) {
		chr := rawBytes[ix]
		if (chr >= 32 && chr <= 126) || (chr >= 155 && chr <= 251) {
			z.Core.WriteByte(writePtr+uint32(ix), chr)
		} else {
			z.Core.WriteByte(writePtr+uint32(ix), ' ')
		}
		ix++
	}
	z.Core.WriteByte(writePtr+uint32(ix), 0)

	if z.Core.Version >= 5 {
		z.Core.WriteByte(uint32(textBufferAddr)+1, uint8(ix))
	}

	if parseBufferAddr != 0 {
		dictionary.Tokenize(&z.Core, z.Alphabets, z.dictionary, uint32(textBufferAddr), uint32(parseBufferAddr), false)
	}

	if z.Core.Version >= 5 {
		z.writeVariable(z.readByteIncPC(frame), 13, false)
	}
}

// Run drives the fetch-decode-execute loop until the story quits or a fault
// escapes the dispatch.
func (z *ZMachine) Run() {
	z.outputChannel <- z.screenModel

	for {
		cont, err := z.Step()
		if err != nil {
			z.outputChannel <- RuntimeError{Fault: err, PC: z.callStack.peek().pc}
			break
		}
		if !cont {
			break
		}
	}

	z.outputChannel <- Quit(true)
}

// Step decodes and executes one instruction, returning false when the
// story has quit and a non-nil fault if an unrecoverable error occurred.
func (z *ZMachine) Step() (bool, *RuntimeFault) {
	instr := DecodeInstruction(z)
	return z.execute(&instr)
}
