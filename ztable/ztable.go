// Package ztable implements the table-manipulation opcodes that don't
// belong to the object or dictionary subsystems: print_table, scan_table,
// and copy_table.
package ztable

import (
	"strings"

	"github.com/halvorsen-dev/zterp/zcore"
)

// PrintTable renders a text table: numBytes bytes wide into a grid of
// `width` columns, `height` rows (0 meaning unbounded), skipping `skip`
// bytes at the start of every subsequent row beyond width.
func PrintTable(core *zcore.Core, baddr uint32, width uint16, height uint16, skip uint16) string {
	numBytes := core.MustReadByte(baddr)
	var s strings.Builder

	for i := uint16(0); i < uint16(numBytes); i++ {
		row := i / width
		col := i % width

		if col == 0 && row != 0 {
			s.WriteByte('\n')
			if row == height {
				break
			}
		}

		s.WriteByte(core.MustReadByte(baddr + uint32(i) + uint32(skip)*uint32(row)))
	}

	return s.String()
}

// ScanTable searches a table of `length` fixed-size fields for the value
// `test`, returning the address of the first match or 0. form's low 7 bits
// are the field size in bytes; bit 7 selects word comparison over byte.
func ScanTable(core *zcore.Core, test uint16, baddr uint32, length uint16, form uint16) uint32 {
	fieldSize := form & 0b0111_1111
	checkWord := form&0b1000_0000 != 0
	if fieldSize == 0 {
		return 0
	}

	ptr := baddr
	for i := uint16(0); i < length; i++ {
		if checkWord {
			if core.MustReadWord(ptr) == test {
				return ptr
			}
		} else if uint16(core.MustReadByte(ptr)) == test {
			return ptr
		}
		ptr += uint32(fieldSize)
	}

	return 0
}

// CopyTable copies sizeAbs(size) bytes from first to second. A positive
// size snapshots the source before writing, so overlapping ranges behave
// as an atomic copy; a negative size permits the in-place/overlapping copy
// to corrupt as it goes (matching the Z-machine standard's copy_table).
// second == 0 is the documented special case: zero-fill first instead.
func CopyTable(core *zcore.Core, first uint16, second uint16, size int16) {
	sizeAbs := uint16(size)
	if size < 0 {
		sizeAbs = uint16(-size)
	}

	switch {
	case second == 0:
		for i := uint16(0); i < sizeAbs; i++ {
			core.WriteByte(uint32(first)+uint32(i), 0)
		}
	case size >= 0:
		tmp := make([]uint8, sizeAbs)
		for i := uint16(0); i < sizeAbs; i++ {
			tmp[i] = core.MustReadByte(uint32(first) + uint32(i))
		}
		for i := uint16(0); i < sizeAbs; i++ {
			core.WriteByte(uint32(second)+uint32(i), tmp[i])
		}
	default:
		for i := uint16(0); i < sizeAbs; i++ {
			core.WriteByte(uint32(second)+uint32(i), core.MustReadByte(uint32(first)+uint32(i)))
		}
	}
}
