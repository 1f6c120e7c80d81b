// Package zcore implements the Z-machine memory image and header: the
// byte-addressable story-file bytes, the dynamic/static/high memory regions,
// and the fixed-offset header fields every other component reads.
package zcore

import (
	"encoding/binary"
	"fmt"
)

// Fault is a memory-access error returned as a value, never panicked for
// story-driven conditions (out-of-bounds reads/writes, static-memory writes).
type Fault struct {
	Message string
}

func (f *Fault) Error() string { return f.Message }

func memoryFault(format string, args ...any) *Fault {
	return &Fault{Message: fmt.Sprintf(format, args...)}
}

// Core owns the story-file bytes: the mutable working copy plus the
// original image retained for restart and Quetzal CMem compression.
type Core struct {
	bytes    []uint8
	original []uint8

	Version                          uint8
	FlagByte1                        uint8
	StatusBarTimeBased               bool
	ReleaseNumber                    uint16
	HighMemoryBase                   uint16
	FirstInstruction                 uint16
	DictionaryBase                   uint16
	ObjectTableBase                  uint16
	GlobalVariableBase               uint16
	StaticMemoryBase                 uint16
	AbbreviationTableBase            uint16
	FileChecksumHeader               uint16
	InterpreterNumber                uint8
	InterpreterVersion               uint8
	ScreenHeightLines                uint8
	ScreenWidthChars                 uint8
	ScreenWidthUnits                 uint16
	ScreenHeightUnits                uint16
	FontHeight                       uint8
	FontWidth                        uint8
	RoutinesOffset                   uint16
	StringOffset                     uint16
	DefaultBackgroundColorNumber     uint8
	DefaultForegroundColorNumber     uint8
	TerminatingCharTableBase         uint16
	OutputStream3Width               uint16
	StandardRevisionNumber           uint16
	AlternativeCharSetBaseAddress    uint16
	ExtensionTableBaseAddress        uint16
	PlayerLoginName                  []uint8
	UnicodeExtensionTableBaseAddress uint16
	SerialNumber                     [6]byte
}

// LoadCore parses the header out of a story file and retains a pristine
// copy of the bytes for restart/Quetzal use. It mutates a handful of header
// bytes to advertise interpreter capabilities, as real interpreters do.
func LoadCore(storyBytes []uint8) *Core {
	original := make([]uint8, len(storyBytes))
	copy(original, storyBytes)

	storyBytes[0x1e] = 0x6 // Interpreter number - IBM PC chosen as closest match
	storyBytes[0x1f] = 0x1 // Interpreter version - nobody cares

	// Screen dimensions - 80x25 characters, 1 unit per char (text-only terminal)
	storyBytes[0x20] = 25
	storyBytes[0x21] = 80
	storyBytes[0x22] = 0
	storyBytes[0x23] = 80
	storyBytes[0x24] = 0
	storyBytes[0x25] = 25
	storyBytes[0x26] = 1
	storyBytes[0x27] = 1

	// Claim v1.2 of the standard
	storyBytes[0x32] = 0x1
	storyBytes[0x33] = 0x2

	if storyBytes[0] <= 3 {
		storyBytes[1] |= 0b0010_0000 // split screen available
	} else {
		// colors (0x01), bold (0x04), italic (0x08), split screen (0x20)
		storyBytes[1] |= 0b0010_1101
	}

	extensionTableBaseAddress := binary.BigEndian.Uint16(storyBytes[0x36:0x38])
	unicodeExtensionTableBaseAddress := uint16(0)
	if extensionTableBaseAddress != 0 && int(extensionTableBaseAddress)+8 <= len(storyBytes) {
		unicodeExtensionTableBaseAddress = binary.BigEndian.Uint16(storyBytes[extensionTableBaseAddress+6 : extensionTableBaseAddress+8])
	}

	var serial [6]byte
	copy(serial[:], storyBytes[0x12:0x18])

	return &Core{
		bytes:                            storyBytes,
		original:                         original,
		Version:                          storyBytes[0x00],
		FlagByte1:                        storyBytes[0x01],
		StatusBarTimeBased:               storyBytes[0x01]&0b0000_0010 == 0b0000_0010,
		ReleaseNumber:                    binary.BigEndian.Uint16(storyBytes[0x02:0x04]),
		HighMemoryBase:                   binary.BigEndian.Uint16(storyBytes[0x04:0x06]),
		FirstInstruction:                 binary.BigEndian.Uint16(storyBytes[0x06:0x08]),
		DictionaryBase:                   binary.BigEndian.Uint16(storyBytes[0x08:0x0a]),
		ObjectTableBase:                  binary.BigEndian.Uint16(storyBytes[0x0a:0x0c]),
		GlobalVariableBase:               binary.BigEndian.Uint16(storyBytes[0x0c:0x0e]),
		StaticMemoryBase:                 binary.BigEndian.Uint16(storyBytes[0x0e:0x10]),
		AbbreviationTableBase:            binary.BigEndian.Uint16(storyBytes[0x18:0x1a]),
		FileChecksumHeader:               binary.BigEndian.Uint16(storyBytes[0x1c:0x1e]),
		InterpreterNumber:                storyBytes[0x1e],
		InterpreterVersion:               storyBytes[0x1f],
		ScreenHeightLines:                storyBytes[0x20],
		ScreenWidthChars:                 storyBytes[0x21],
		ScreenWidthUnits:                 binary.BigEndian.Uint16(storyBytes[0x22:0x24]),
		ScreenHeightUnits:                binary.BigEndian.Uint16(storyBytes[0x24:0x26]),
		FontHeight:                       storyBytes[0x26],
		FontWidth:                        storyBytes[0x27],
		RoutinesOffset:                   binary.BigEndian.Uint16(storyBytes[0x28:0x2a]),
		StringOffset:                     binary.BigEndian.Uint16(storyBytes[0x2a:0x2c]),
		DefaultBackgroundColorNumber:     storyBytes[0x2c],
		DefaultForegroundColorNumber:     storyBytes[0x2d],
		TerminatingCharTableBase:         binary.BigEndian.Uint16(storyBytes[0x2e:0x30]),
		OutputStream3Width:               binary.BigEndian.Uint16(storyBytes[0x30:0x32]),
		StandardRevisionNumber:           binary.BigEndian.Uint16(storyBytes[0x32:0x34]),
		AlternativeCharSetBaseAddress:    binary.BigEndian.Uint16(storyBytes[0x34:0x36]),
		ExtensionTableBaseAddress:        extensionTableBaseAddress,
		PlayerLoginName:                  storyBytes[0x38:0x40],
		UnicodeExtensionTableBaseAddress: unicodeExtensionTableBaseAddress,
		SerialNumber:                     serial,
	}
}

// FileLength returns the story's declared length in bytes, using the
// version-specific multiplier (the header stores length/divisor).
func (c *Core) FileLength() uint32 {
	var divisor uint32
	switch {
	case c.Version <= 3:
		divisor = 2
	case c.Version <= 5:
		divisor = 4
	default:
		divisor = 8
	}
	return uint32(binary.BigEndian.Uint16(c.bytes[0x1a:0x1c])) * divisor
}

// FileChecksum is the header-declared checksum; verify compares it against
// a recomputed sum of bytes [0x40, file_length).
func (c *Core) FileChecksum() uint16 { return c.FileChecksumHeader }

func (c *Core) SetDefaultBackgroundColorNumber(color uint8) {
	c.bytes[0x2c] = color
	c.DefaultBackgroundColorNumber = color
}

func (c *Core) SetDefaultForegroundColorNumber(color uint8) {
	c.bytes[0x2d] = color
	c.DefaultForegroundColorNumber = color
}

// SetInterpreterInfo lets a V4+ host advertise interpreter number/version.
func (c *Core) SetInterpreterInfo(number, version uint8) {
	c.bytes[0x1e] = number
	c.bytes[0x1f] = version
	c.InterpreterNumber = number
	c.InterpreterVersion = version
}

// SetScreenSize sets screen dimensions in characters (V4+) and, on V5+,
// the unit-based fields too (one unit per character, text-only host).
func (c *Core) SetScreenSize(widthChars, heightLines uint8) {
	if c.Version < 4 {
		return
	}
	c.bytes[0x20] = heightLines
	c.bytes[0x21] = widthChars
	c.ScreenHeightLines = heightLines
	c.ScreenWidthChars = widthChars
	if c.Version >= 5 {
		binary.BigEndian.PutUint16(c.bytes[0x22:0x24], uint16(widthChars))
		binary.BigEndian.PutUint16(c.bytes[0x24:0x26], uint16(heightLines))
		c.ScreenWidthUnits = uint16(widthChars)
		c.ScreenHeightUnits = uint16(heightLines)
	}
}

func (c *Core) MemoryLength() uint32 {
	return uint32(len(c.bytes))
}

func (c *Core) boundsCheck(addr uint32, size uint32) *Fault {
	if addr+size > uint32(len(c.bytes)) || addr+size < addr {
		return memoryFault("memory access out of bounds: addr=0x%x size=%d length=%d", addr, size, len(c.bytes))
	}
	return nil
}

// ReadByte reads one byte, bounds-checked.
func (c *Core) ReadByte(addr uint32) (uint8, *Fault) {
	if f := c.boundsCheck(addr, 1); f != nil {
		return 0, f
	}
	return c.bytes[addr], nil
}

// MustReadByte is ReadByte without the Fault return, for call sites that
// have already range-checked against the story length (e.g. the decoder
// fetching at the program counter).
func (c *Core) MustReadByte(addr uint32) uint8 {
	return c.bytes[addr]
}

func (c *Core) ReadWord(addr uint32) (uint16, *Fault) {
	if f := c.boundsCheck(addr, 2); f != nil {
		return 0, f
	}
	return binary.BigEndian.Uint16(c.bytes[addr : addr+2]), nil
}

func (c *Core) MustReadWord(addr uint32) uint16 {
	return binary.BigEndian.Uint16(c.bytes[addr : addr+2])
}

// ReadBytes returns a read-only view of [addr, addr+length).
func (c *Core) ReadBytes(addr uint32, length uint32) ([]uint8, *Fault) {
	if f := c.boundsCheck(addr, length); f != nil {
		return nil, f
	}
	return c.bytes[addr : addr+length], nil
}

// ReadSlice returns the [start, end) byte range, clamped to the image
// length, for callers iterating without a pre-validated length (tokenizer,
// text decoder).
func (c *Core) ReadSlice(start, end uint32) []uint8 {
	if end > uint32(len(c.bytes)) {
		end = uint32(len(c.bytes))
	}
	if start > end {
		return nil
	}
	return c.bytes[start:end]
}

// WriteByte writes into dynamic memory. Writes at or beyond static_base are
// memory-faults.
func (c *Core) WriteByte(addr uint32, value uint8) *Fault {
	if addr >= uint32(c.StaticMemoryBase) {
		return memoryFault("write to static/high memory at 0x%x (static_base=0x%x)", addr, c.StaticMemoryBase)
	}
	if f := c.boundsCheck(addr, 1); f != nil {
		return f
	}
	c.bytes[addr] = value
	return nil
}

// WriteWord writes a big-endian word into dynamic memory. A word whose
// second byte crosses into static memory is rejected whole.
func (c *Core) WriteWord(addr uint32, value uint16) *Fault {
	if addr+1 >= uint32(c.StaticMemoryBase) {
		return memoryFault("write to static/high memory at 0x%x (static_base=0x%x)", addr, c.StaticMemoryBase)
	}
	if f := c.boundsCheck(addr, 2); f != nil {
		return f
	}
	binary.BigEndian.PutUint16(c.bytes[addr:addr+2], value)
	return nil
}

// WriteRawByte bypasses the static-memory write check. Its caller is the
// object table's V1-3 parent/sibling/child link writes.
func (c *Core) WriteRawByte(addr uint32, value uint8) {
	c.bytes[addr] = value
}

// DynamicMemory returns the mutable [0, static_base) region.
func (c *Core) DynamicMemory() []uint8 {
	return c.bytes[:c.StaticMemoryBase]
}

// OriginalDynamicMemory returns the story's pristine dynamic region, used
// for restart and Quetzal CMem compression.
func (c *Core) OriginalDynamicMemory() []uint8 {
	return c.original[:c.StaticMemoryBase]
}

// Restart resets dynamic memory to the original story bytes; static and
// high memory are untouched.
func (c *Core) Restart() {
	copy(c.bytes[:c.StaticMemoryBase], c.original[:c.StaticMemoryBase])
}

// SetDynamicMemory overwrites [0, static_base) wholesale (used by restore).
func (c *Core) SetDynamicMemory(data []uint8) *Fault {
	if uint16(len(data)) != c.StaticMemoryBase {
		return memoryFault("dynamic memory size mismatch: got %d want %d", len(data), c.StaticMemoryBase)
	}
	copy(c.bytes[:c.StaticMemoryBase], data)
	return nil
}

// PackedAddressMultiplier is the version-dependent packed-address scale
// factor (not meaningful for V6/7, which also add an offset).
func (c *Core) PackedAddressMultiplier() uint32 {
	switch {
	case c.Version < 4:
		return 2
	case c.Version < 6:
		return 4
	default:
		return 8
	}
}

// UnpackAddress resolves a packed address to a byte address.
func (c *Core) UnpackAddress(packed uint32, isString bool) uint32 {
	switch {
	case c.Version < 4:
		return 2 * packed
	case c.Version < 6:
		return 4 * packed
	case c.Version < 8:
		offset := uint32(c.RoutinesOffset)
		if isString {
			offset = uint32(c.StringOffset)
		}
		return 4*packed + 8*offset
	default: // V8
		return 8 * packed
	}
}
