package zmachine

import "fmt"

type TextStyle int

const (
	Roman        TextStyle = 0b0000_0001
	Bold         TextStyle = 0b0000_0010
	Italic       TextStyle = 0b0000_0100
	ReverseVideo TextStyle = 0b0000_1000
	FixedPitch   TextStyle = 0b0001_0000
)

// Z-machine standard color numbers; used as the header default
// foreground/background and as set_colour/set_true_colour arguments.
const (
	ColorBlack     uint16 = 2
	ColorRed       uint16 = 3
	ColorGreen     uint16 = 4
	ColorYellow    uint16 = 5
	ColorBlue      uint16 = 6
	ColorMagenta   uint16 = 7
	ColorCyan      uint16 = 8
	ColorWhite     uint16 = 9
	ColorLightGrey uint16 = 10
	ColorMedGrey   uint16 = 11
	ColorDarkGrey  uint16 = 12
)

type Color struct {
	r, g, b int
}

func (c Color) ToHex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.r, c.g, c.b)
}

type Font uint16

const (
	FontNormal     Font = 1
	FontPicture    Font = 2
	FontCharGraphs Font = 3
	FontFixedPitch Font = 4
)

// ScreenModel is a text-only (non-V6) screen: an upper status/graphics
// window and a scrolling lower window, sent down the output channel
// whenever a windowing or styling opcode changes it.
type ScreenModel struct {
	LowerWindowActive bool
	CurrentFont       Font

	UpperWindowHeight            int
	UpperWindowForeground        Color
	UpperWindowBackground        Color
	DefaultUpperWindowForeground Color
	DefaultUpperWindowBackground Color
	UpperWindowCursorX           int
	UpperWindowCursorY           int
	UpperWindowTextStyle         TextStyle

	DefaultLowerWindowForeground Color
	DefaultLowerWindowBackground Color
	LowerWindowForeground        Color
	LowerWindowBackground        Color
	LowerWindowTextStyle         TextStyle
}

func (m *ScreenModel) NewZMachineColor(i uint16, isForeground bool) Color {
	switch i {
	case 0: // current
		if isForeground {
			return m.LowerWindowForeground
		}
		return m.LowerWindowBackground
	case 1: // default
		if isForeground {
			if m.LowerWindowActive {
				return m.DefaultLowerWindowForeground
			}
			return m.DefaultUpperWindowForeground
		}
		if m.LowerWindowActive {
			return m.DefaultLowerWindowBackground
		}
		return m.DefaultUpperWindowBackground
	case ColorBlack:
		return Color{0, 0, 0}
	case ColorRed:
		return Color{255, 0, 0}
	case ColorGreen:
		return Color{0, 255, 0}
	case ColorYellow:
		return Color{255, 255, 0}
	case ColorBlue:
		return Color{0, 0, 255}
	case ColorMagenta:
		return Color{255, 0, 255}
	case ColorCyan:
		return Color{0, 255, 255}
	case ColorWhite:
		return Color{255, 255, 255}
	case ColorLightGrey:
		return Color{192, 192, 192}
	case ColorMedGrey:
		return Color{128, 128, 128}
	case ColorDarkGrey:
		return Color{64, 64, 64}
	default:
		return Color{0, 0, 0}
	}
}

func newScreenModel(foreground, background Color) ScreenModel {
	return ScreenModel{
		LowerWindowActive:            true,
		CurrentFont:                  FontNormal,
		UpperWindowHeight:            0,
		DefaultUpperWindowForeground: foreground,
		DefaultUpperWindowBackground: background,
		UpperWindowForeground:        foreground,
		UpperWindowBackground:        background,
		UpperWindowCursorX:           1,
		UpperWindowCursorY:           1,
		UpperWindowTextStyle:         Roman,
		DefaultLowerWindowForeground: background,
		DefaultLowerWindowBackground: foreground,
		LowerWindowForeground:        background,
		LowerWindowBackground:        foreground,
		LowerWindowTextStyle:         Roman,
	}
}
