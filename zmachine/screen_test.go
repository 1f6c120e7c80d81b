package zmachine

import "testing"

func TestColorToHex(t *testing.T) {
	c := Color{r: 255, g: 16, b: 0}
	if got := c.ToHex(); got != "#ff1000" {
		t.Fatalf("ToHex() = %q, want #ff1000", got)
	}
}

func TestNewZMachineColorStandardNumbers(t *testing.T) {
	m := newScreenModel(Color{255, 255, 255}, Color{0, 0, 0})

	if got := m.NewZMachineColor(ColorRed, true); got != (Color{255, 0, 0}) {
		t.Fatalf("red = %+v, want {255 0 0}", got)
	}
	if got := m.NewZMachineColor(ColorBlack, false); got != (Color{0, 0, 0}) {
		t.Fatalf("black = %+v, want {0 0 0}", got)
	}
	if got := m.NewZMachineColor(255, true); got != (Color{0, 0, 0}) {
		t.Fatalf("unrecognized color = %+v, want fallback black", got)
	}
}

func TestNewZMachineColorCurrentAndDefault(t *testing.T) {
	m := newScreenModel(Color{255, 255, 255}, Color{0, 0, 0})
	m.LowerWindowActive = true

	if got := m.NewZMachineColor(0, true); got != m.LowerWindowForeground {
		t.Fatalf("current foreground = %+v, want %+v", got, m.LowerWindowForeground)
	}
	if got := m.NewZMachineColor(1, true); got != m.DefaultLowerWindowForeground {
		t.Fatalf("default foreground (lower active) = %+v, want %+v", got, m.DefaultLowerWindowForeground)
	}

	m.LowerWindowActive = false
	if got := m.NewZMachineColor(1, true); got != m.DefaultUpperWindowForeground {
		t.Fatalf("default foreground (upper active) = %+v, want %+v", got, m.DefaultUpperWindowForeground)
	}
}

func TestNewScreenModelDefaults(t *testing.T) {
	m := newScreenModel(Color{1, 2, 3}, Color{4, 5, 6})

	if !m.LowerWindowActive {
		t.Fatal("expected lower window active by default")
	}
	if m.UpperWindowHeight != 0 {
		t.Fatalf("UpperWindowHeight = %d, want 0", m.UpperWindowHeight)
	}
	if m.CurrentFont != FontNormal {
		t.Fatalf("CurrentFont = %v, want FontNormal", m.CurrentFont)
	}
	if m.LowerWindowForeground != (Color{4, 5, 6}) {
		t.Fatalf("lower foreground = %+v, want the background color (swapped convention)", m.LowerWindowForeground)
	}
}
