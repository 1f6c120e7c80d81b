package zcore

import "testing"

// minimalStory builds a synthetic V3 story image: header, dynamic memory,
// then static memory starting at a declared static_base.
func minimalStory() []uint8 {
	b := make([]uint8, 0x200)
	b[0x00] = 3               // version
	b[0x0e] = 0x01             // static memory base = 0x0100
	b[0x0f] = 0x00
	putWord(b, 0x1a, uint16(len(b)/2)) // file length (v<=3 divisor 2)
	putWord(b, 0x02, 0x0007)           // release number
	copy(b[0x12:0x18], []byte("123456"))
	return b
}

func putWord(b []uint8, addr uint32, v uint16) {
	b[addr] = uint8(v >> 8)
	b[addr+1] = uint8(v)
}

func TestLoadCoreParsesHeader(t *testing.T) {
	story := minimalStory()
	c := LoadCore(story)

	if c.Version != 3 {
		t.Fatalf("Version = %d, want 3", c.Version)
	}
	if c.StaticMemoryBase != 0x0100 {
		t.Fatalf("StaticMemoryBase = 0x%x, want 0x0100", c.StaticMemoryBase)
	}
	if c.ReleaseNumber != 7 {
		t.Fatalf("ReleaseNumber = %d, want 7", c.ReleaseNumber)
	}
	if string(c.SerialNumber[:]) != "123456" {
		t.Fatalf("SerialNumber = %q, want 123456", c.SerialNumber)
	}
	if c.FileLength() != uint32(len(story)) {
		t.Fatalf("FileLength() = %d, want %d", c.FileLength(), len(story))
	}
}

func TestReadWriteRoundtrip(t *testing.T) {
	c := LoadCore(minimalStory())

	if f := c.WriteByte(0x40, 0x7f); f != nil {
		t.Fatalf("WriteByte: %v", f)
	}
	got, f := c.ReadByte(0x40)
	if f != nil {
		t.Fatalf("ReadByte: %v", f)
	}
	if got != 0x7f {
		t.Fatalf("ReadByte = 0x%x, want 0x7f", got)
	}

	if f := c.WriteWord(0x42, 0xbeef); f != nil {
		t.Fatalf("WriteWord: %v", f)
	}
	gotWord, f := c.ReadWord(0x42)
	if f != nil {
		t.Fatalf("ReadWord: %v", f)
	}
	if gotWord != 0xbeef {
		t.Fatalf("ReadWord = 0x%x, want 0xbeef", gotWord)
	}
}

func TestWriteStaticMemoryFaults(t *testing.T) {
	c := LoadCore(minimalStory())

	if f := c.WriteByte(uint32(c.StaticMemoryBase), 0x01); f == nil {
		t.Fatal("expected fault writing to static memory, got nil")
	}
	if f := c.WriteWord(uint32(c.StaticMemoryBase)-1, 0xffff); f == nil {
		t.Fatal("expected fault for word write crossing static boundary")
	}
}

func TestOutOfBoundsReadFaults(t *testing.T) {
	c := LoadCore(minimalStory())

	if _, f := c.ReadByte(c.MemoryLength()); f == nil {
		t.Fatal("expected fault reading past end of memory")
	}
}

func TestRestartResetsDynamicMemoryOnly(t *testing.T) {
	story := minimalStory()
	c := LoadCore(story)

	if f := c.WriteByte(0x40, 0xff); f != nil {
		t.Fatalf("WriteByte: %v", f)
	}
	c.Restart()

	got, _ := c.ReadByte(0x40)
	if got != 0x00 {
		t.Fatalf("after Restart, byte = 0x%x, want 0x00", got)
	}
}

func TestSetColorsWriteDistinctOffsets(t *testing.T) {
	c := LoadCore(minimalStory())

	c.SetDefaultBackgroundColorNumber(2)
	c.SetDefaultForegroundColorNumber(9)

	bg, _ := c.ReadByte(0x2c)
	fg, _ := c.ReadByte(0x2d)
	if bg != 2 {
		t.Fatalf("background byte at 0x2c = %d, want 2", bg)
	}
	if fg != 9 {
		t.Fatalf("foreground byte at 0x2d = %d, want 9", fg)
	}
}

func TestUnpackAddressVersions(t *testing.T) {
	story := minimalStory()
	c := LoadCore(story)

	c.Version = 3
	if got := c.UnpackAddress(0x10, false); got != 0x20 {
		t.Fatalf("V3 unpack = 0x%x, want 0x20", got)
	}

	c.Version = 5
	if got := c.UnpackAddress(0x10, false); got != 0x40 {
		t.Fatalf("V5 unpack = 0x%x, want 0x40", got)
	}

	c.Version = 7
	c.RoutinesOffset = 0x0010
	if got := c.UnpackAddress(0x10, false); got != 4*0x10+8*0x10 {
		t.Fatalf("V7 routine unpack = 0x%x, want 0x%x", got, 4*0x10+8*0x10)
	}
}
