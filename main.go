package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/halvorsen-dev/zterp/selectstoryui"
	"github.com/halvorsen-dev/zterp/zmachine"
	"github.com/muesli/reflow/wordwrap"
)

var (
	romFilePath  string
	baseAppStyle lipgloss.Style
)

type textUpdateMessage string
type eraseWindowRequest zmachine.EraseWindowRequest
type statusBarMessage zmachine.StatusBar
type screenModelMessage zmachine.ScreenModel
type saveRequestMessage zmachine.SaveRequest
type restoreRequestMessage zmachine.RestoreRequest
type runtimeErrorMessage zmachine.RuntimeError
type warningMessage zmachine.Warning
type stateChangeMessage zmachine.StateChangeRequest

// keyToZChar maps Bubble Tea key messages to Z-machine character codes, per
// the Z-machine Standards Document's input character set.
func keyToZChar(msg tea.KeyMsg) uint8 {
	switch msg.Type {
	case tea.KeyUp:
		return 129
	case tea.KeyDown:
		return 130
	case tea.KeyLeft:
		return 131
	case tea.KeyRight:
		return 132
	case tea.KeyF1:
		return 133
	case tea.KeyF2:
		return 134
	case tea.KeyF3:
		return 135
	case tea.KeyF4:
		return 136
	case tea.KeyF5:
		return 137
	case tea.KeyF6:
		return 138
	case tea.KeyF7:
		return 139
	case tea.KeyF8:
		return 140
	case tea.KeyF9:
		return 141
	case tea.KeyF10:
		return 142
	case tea.KeyF11:
		return 143
	case tea.KeyF12:
		return 144
	case tea.KeyEscape:
		return 27
	case tea.KeyEnter:
		return 13
	case tea.KeyDelete:
		return 8
	default:
		return 0
	}
}

type runningStoryState int

const (
	appRunning runningStoryState = iota
	appWaitingForInput
	appWaitingForCharacter
)

type runStoryModel struct {
	outputChannel            <-chan interface{}
	sendChannel              chan<- interface{}
	zMachine                 *zmachine.ZMachine
	romBytes                 []byte
	romFilePath              string
	statusBar                zmachine.StatusBar
	screenModel              zmachine.ScreenModel
	lowerWindowTextPreStyled string
	lowerWindowText          string
	upperWindowText          []string
	upperWindowStyle         [][]lipgloss.Style
	appState                 runningStoryState
	inputBox                 textinput.Model
	width                    int
	height                   int
	backgroundStyle          lipgloss.Style
	statusBarStyle           lipgloss.Style
	upperWindowStyleCurrent  lipgloss.Style
	lowerWindowStyle         lipgloss.Style
	runtimeError             string
}

func (m runStoryModel) Init() tea.Cmd {
	return tea.Batch(
		waitForInterpreter(m.outputChannel),
		runInterpreter(m.zMachine),
		tea.Sequence(
			tea.SetWindowTitle(romFilePath),
			tea.WindowSize(),
		),
	)
}

func runInterpreter(z *zmachine.ZMachine) tea.Cmd {
	return func() tea.Msg {
		z.Run()
		return nil
	}
}

func (m runStoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		if m.height < len(m.upperWindowText) {
			m.upperWindowText = m.upperWindowText[:m.height]
			m.upperWindowStyle = m.upperWindowStyle[:m.height]
		} else {
			for range int(math.Min(float64(m.height-len(m.upperWindowText)), float64(m.screenModel.UpperWindowHeight))) {
				m.upperWindowText = append(m.upperWindowText, strings.Repeat(" ", m.width))
				m.upperWindowStyle = append(m.upperWindowStyle, slices.Repeat([]lipgloss.Style{baseAppStyle}, m.width))
			}
		}

		for ix, row := range m.upperWindowText {
			if m.width < len(row) {
				m.upperWindowText[ix] = row[:m.width]
				m.upperWindowStyle[ix] = m.upperWindowStyle[ix][:m.width]
			} else if m.width > len(row) {
				for ii := len(row); ii < m.width; ii++ {
					m.upperWindowText[ix] = m.upperWindowText[ix] + " "
					m.upperWindowStyle[ix] = append(m.upperWindowStyle[ix], baseAppStyle)
				}
			}
		}

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			os.Exit(0)
		}

		switch m.appState {
		case appWaitingForCharacter:
			m.appState = appRunning
			if len(msg.Runes) > 0 {
				m.sendChannel <- string(msg.Runes[0])
			} else {
				m.sendChannel <- string(rune(keyToZChar(msg)))
			}
		case appWaitingForInput:
			if msg.Type == tea.KeyEnter {
				m.appState = appRunning
				m.lowerWindowText += m.inputBox.Value() + "\n"
				m.sendChannel <- m.inputBox.Value()
				m.inputBox.SetValue("")
			}
		}

	case textUpdateMessage:
		if m.screenModel.LowerWindowActive {
			m.lowerWindowText += string(msg)
		} else {
			text := string(msg)
			segments := strings.Split(text, "\n")
			cursorX := m.screenModel.UpperWindowCursorX
			cursorY := m.screenModel.UpperWindowCursorY

			for segIdx, segment := range segments {
				if cursorY >= 0 && cursorY < len(m.upperWindowText) {
					row := m.upperWindowText[cursorY]

					if cursorY < len(m.upperWindowStyle) {
						for i := 0; i < len(segment) && cursorX+i < len(m.upperWindowStyle[cursorY]); i++ {
							m.upperWindowStyle[cursorY][cursorX+i] = m.upperWindowStyleCurrent
						}
					}

					if cursorX < len(row) {
						before := row[:cursorX]
						afterStart := cursorX + len(segment)
						after := ""
						if afterStart < len(row) {
							after = row[afterStart:]
						}
						fullText := before + segment + after
						if len(fullText) > m.width {
							fullText = fullText[:m.width]
						}
						m.upperWindowText[cursorY] = fullText
					}
				}

				if segIdx < len(segments)-1 {
					cursorY++
					cursorX = 0
				}
			}
		}

		return m, waitForInterpreter(m.outputChannel)

	case saveRequestMessage:
		filename := m.defaultSaveFilename()
		err := os.WriteFile(filename, msg.Data, 0644)
		m.sendChannel <- zmachine.SaveResponse{Success: err == nil}
		return m, waitForInterpreter(m.outputChannel)

	case restoreRequestMessage:
		filename := m.defaultSaveFilename()
		data, err := os.ReadFile(filename)
		if err != nil {
			m.sendChannel <- zmachine.RestoreResponse{Success: false}
		} else {
			m.sendChannel <- zmachine.RestoreResponse{Success: true, Data: data}
		}
		return m, waitForInterpreter(m.outputChannel)

	case stateChangeMessage:
		switch zmachine.StateChangeRequest(msg) {
		case zmachine.WaitForInput:
			m.appState = appWaitingForInput
		case zmachine.WaitForCharacter:
			m.appState = appWaitingForCharacter
		case zmachine.Running:
			m.appState = appRunning
		}
		return m, waitForInterpreter(m.outputChannel)

	case statusBarMessage:
		m.statusBar = zmachine.StatusBar(msg)
		return m, waitForInterpreter(m.outputChannel)

	case screenModelMessage:
		m.screenModel = zmachine.ScreenModel(msg)
		if len(m.upperWindowText) != m.screenModel.UpperWindowHeight {
			if m.zMachine.Core.Version == 3 {
				for row := range m.screenModel.UpperWindowHeight {
					m.upperWindowText[row] = strings.Repeat(" ", m.width)
					m.upperWindowStyle[row] = slices.Repeat([]lipgloss.Style{baseAppStyle}, m.width)
				}
			} else if len(m.upperWindowText) > m.screenModel.UpperWindowHeight {
				m.upperWindowText = m.upperWindowText[:m.screenModel.UpperWindowHeight]
				m.upperWindowStyle = m.upperWindowStyle[:m.screenModel.UpperWindowHeight]
			} else {
				for range m.screenModel.UpperWindowHeight - len(m.upperWindowText) {
					m.upperWindowText = append(m.upperWindowText, strings.Repeat(" ", m.width))
					m.upperWindowStyle = append(m.upperWindowStyle, slices.Repeat([]lipgloss.Style{baseAppStyle}, m.width))
				}
			}
		}

		prerenderLowerWindowText(&m)

		m.lowerWindowStyle = m.lowerWindowStyle.
			Background(lipgloss.Color(m.screenModel.LowerWindowBackground.ToHex())).
			Foreground(lipgloss.Color(m.screenModel.LowerWindowForeground.ToHex())).
			Bold(m.screenModel.LowerWindowTextStyle&zmachine.Bold == zmachine.Bold).
			Italic(m.screenModel.LowerWindowTextStyle&zmachine.Italic == zmachine.Italic).
			Reverse(m.screenModel.LowerWindowTextStyle&zmachine.ReverseVideo == zmachine.ReverseVideo).
			Inline(true)
		m.upperWindowStyleCurrent = m.upperWindowStyleCurrent.
			Background(lipgloss.Color(m.screenModel.UpperWindowBackground.ToHex())).
			Foreground(lipgloss.Color(m.screenModel.UpperWindowForeground.ToHex())).
			Bold(m.screenModel.UpperWindowTextStyle&zmachine.Bold == zmachine.Bold).
			Italic(m.screenModel.UpperWindowTextStyle&zmachine.Italic == zmachine.Italic).
			Reverse(m.screenModel.UpperWindowTextStyle&zmachine.ReverseVideo == zmachine.ReverseVideo)
		m.statusBarStyle = m.lowerWindowStyle.Reverse(true)
		m.backgroundStyle = m.backgroundStyle.
			Background(lipgloss.Color(m.screenModel.DefaultLowerWindowBackground.ToHex())).
			Foreground(lipgloss.Color(m.screenModel.DefaultLowerWindowForeground.ToHex()))

		return m, waitForInterpreter(m.outputChannel)

	case eraseWindowRequest:
		switch int(msg) {
		case -2:
			m.lowerWindowText = ""
			m.lowerWindowTextPreStyled = ""
			for row := range m.screenModel.UpperWindowHeight {
				m.upperWindowText[row] = strings.Repeat(" ", m.width)
				m.upperWindowStyle[row] = slices.Repeat([]lipgloss.Style{baseAppStyle}, m.width)
			}
		case -1:
			m.lowerWindowText = ""
			m.lowerWindowTextPreStyled = ""
			for row := range len(m.upperWindowText) {
				m.upperWindowText[row] = strings.Repeat(" ", m.width)
				m.upperWindowStyle[row] = slices.Repeat([]lipgloss.Style{baseAppStyle}, m.width)
			}
		case 0:
			m.lowerWindowText = ""
			m.lowerWindowTextPreStyled = ""
		case 1:
			for row := range m.screenModel.UpperWindowHeight {
				m.upperWindowText[row] = strings.Repeat(" ", m.width)
				m.upperWindowStyle[row] = slices.Repeat([]lipgloss.Style{baseAppStyle}, m.width)
			}
		default:
			m.runtimeError = fmt.Sprintf("Unexpected erase_window value: %d", int(msg))
			return m, tea.Quit
		}

		return m, waitForInterpreter(m.outputChannel)

	case runtimeErrorMessage:
		if msg.Fault != nil {
			m.runtimeError = fmt.Sprintf("%s (pc 0x%x)", msg.Fault.Error(), msg.PC)
		} else {
			m.runtimeError = fmt.Sprintf("runtime fault at pc 0x%x", msg.PC)
		}
		return m, tea.Quit

	case warningMessage:
		fmt.Fprintf(os.Stderr, "%s: %s\n", msg.Code, msg.Message)
		return m, waitForInterpreter(m.outputChannel)
	}

	if m.appState == appWaitingForInput {
		m.inputBox, cmd = m.inputBox.Update(msg)
	}

	return m, cmd
}

func prerenderLowerWindowText(m *runStoryModel) {
	if m.lowerWindowText != "" {
		lines := strings.Split(m.lowerWindowText, "\n")
		for ix, line := range lines {
			lines[ix] = m.lowerWindowStyle.Render(line)
		}
		m.lowerWindowTextPreStyled += strings.Join(lines, "\n")
		m.lowerWindowText = ""
	}
}

// defaultSaveFilename derives a save filename from the ROM file path,
// e.g. "zork1.z1" -> "zork1.sav".
func (m runStoryModel) defaultSaveFilename() string {
	if m.romFilePath == "" {
		return "game.sav"
	}
	base := filepath.Base(m.romFilePath)
	ext := filepath.Ext(base)
	if len(ext) >= 2 && (ext[1] == 'z' || ext[1] == 'Z') {
		base = base[:len(base)-len(ext)]
	}
	return base + ".sav"
}

func createStatusLine(width int, placeName string, scoreOrHours int, movesOrMinutes int, isTimeBasedGame bool) string {
	rightHandSide := fmt.Sprintf("Score: %d    Moves %d", scoreOrHours, movesOrMinutes)

	if isTimeBasedGame {
		rightHandSide = fmt.Sprintf("Time: %d:%d", scoreOrHours, movesOrMinutes)
	}

	if len(rightHandSide) >= width {
		return rightHandSide[:width]
	}

	if len(placeName)+len(rightHandSide)+1 >= width {
		return fmt.Sprintf("%s %s", placeName[:width-len(rightHandSide)-1], rightHandSide)
	}

	numberSpaces := width - len(placeName) - len(rightHandSide)

	return fmt.Sprintf("%s%s%s", placeName, strings.Repeat(" ", numberSpaces), rightHandSide)
}

func (m runStoryModel) View() string {
	if m.runtimeError != "" {
		errorStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)
		return fmt.Sprintf("\n%s\n\n%s\n", errorStyle.Render("Z-Machine Error:"), m.runtimeError)
	}

	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	s := strings.Builder{}
	lowerWindowHeight := m.height

	if m.statusBar.PlaceName != "" {
		s.WriteString(m.statusBarStyle.Render(createStatusLine(m.width, m.statusBar.PlaceName, m.statusBar.Score, m.statusBar.Moves, m.statusBar.IsTimeBased)))
		s.WriteString(m.lowerWindowStyle.Render("\n"))
		lowerWindowHeight -= 2
	} else {
		lowerWindowHeight -= m.screenModel.UpperWindowHeight

		var text strings.Builder
		var currentText strings.Builder
		var currentStyle lipgloss.Style
		for row, styleRow := range m.upperWindowStyle {
			for col, chrStyle := range styleRow {
				if chrStyle.GetBackground() != currentStyle.GetBackground() ||
					chrStyle.GetForeground() != currentStyle.GetForeground() ||
					chrStyle.GetBlink() != currentStyle.GetBlink() ||
					chrStyle.GetBold() != currentStyle.GetBold() ||
					chrStyle.GetItalic() != currentStyle.GetItalic() ||
					chrStyle.GetReverse() != currentStyle.GetReverse() {
					if currentText.Len() > 0 {
						text.WriteString(currentStyle.Render(currentText.String()))
					}
					currentStyle = chrStyle
					currentText.Reset()
				}
				currentText.WriteRune([]rune(m.upperWindowText[row])[col])
			}
			currentText.WriteByte('\n')
		}
		if currentText.Len() > 0 {
			text.WriteString(currentStyle.Render(currentText.String()))
		}
		s.WriteString(text.String())
	}

	prerenderLowerWindowText(&m)
	fullLowerWindowText := m.lowerWindowTextPreStyled

	wordWrappedBody := wordwrap.String(fullLowerWindowText, m.width)

	lines := strings.Split(wordWrappedBody, "\n")

	if len(lines) > lowerWindowHeight-2 {
		lines = lines[len(lines)-lowerWindowHeight+2:]
	}
	s.WriteString(strings.Join(lines, "\n"))

	if m.appState == appWaitingForInput {
		s.WriteString(m.lowerWindowStyle.Render("\n" + m.inputBox.View()))
	}

	return m.backgroundStyle.
		Width(m.width).
		Height(m.height).
		Render(s.String())
}

func waitForInterpreter(sub <-chan interface{}) tea.Cmd {
	return func() tea.Msg {
		msg := <-sub
		switch msg := msg.(type) {
		case zmachine.StateChangeRequest:
			return stateChangeMessage(msg)
		case zmachine.SaveRequest:
			return saveRequestMessage(msg)
		case zmachine.RestoreRequest:
			return restoreRequestMessage(msg)
		case zmachine.EraseWindowRequest:
			return eraseWindowRequest(msg)
		case zmachine.StatusBar:
			return statusBarMessage(msg)
		case zmachine.ScreenModel:
			return screenModelMessage(msg)
		case string:
			return textUpdateMessage(msg)
		case zmachine.Quit:
			return tea.Quit()
		case zmachine.RuntimeError:
			return runtimeErrorMessage(msg)
		case zmachine.Warning:
			return warningMessage(msg)
		default:
			return runtimeErrorMessage(zmachine.RuntimeError{})
		}
	}
}

func init() {
	flag.StringVar(&romFilePath, "rom", "", "The path of a z-machine rom")
	flag.Parse()
}

func newApplicationModel(zMachine *zmachine.ZMachine, inputChannel chan<- interface{}, outputChannel <-chan interface{}, romBytes []byte, romPath string) tea.Model {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 156
	ti.Width = 20
	ti.Prompt = ""

	return runStoryModel{
		outputChannel:           outputChannel,
		sendChannel:             inputChannel,
		zMachine:                zMachine,
		romBytes:                romBytes,
		romFilePath:             romPath,
		appState:                appRunning,
		inputBox:                ti,
		upperWindowStyleCurrent: lipgloss.NewStyle(),
		lowerWindowStyle:        lipgloss.NewStyle(),
		statusBarStyle:          lipgloss.NewStyle(),
		backgroundStyle:         lipgloss.NewStyle(),
	}
}

func main() {
	var model tea.Model

	if romFilePath != "" {
		romFileBytes, err := os.ReadFile(romFilePath)
		if err != nil {
			panic(err)
		}
		zMachineOutputChannel := make(chan interface{})
		zMachineInputChannel := make(chan interface{})
		zMachine := zmachine.LoadRom(romFileBytes, zMachineInputChannel, zMachineOutputChannel)

		model = newApplicationModel(zMachine, zMachineInputChannel, zMachineOutputChannel, romFileBytes, romFilePath)
	} else {
		cacheDir, err := os.UserCacheDir()
		if err != nil {
			cacheDir = ""
		} else {
			cacheDir = filepath.Join(cacheDir, "zterp")
		}
		model = selectstoryui.NewUIModel(newApplicationModel, cacheDir)
	}

	tui := tea.NewProgram(model)

	if _, err := tui.Run(); err != nil {
		fmt.Println("Error running program:", err)
		os.Exit(1)
	}
}
