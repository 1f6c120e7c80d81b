// Package zstring implements the Z-character text codec: packing three
// 5-bit z-characters per 16-bit word, the three-alphabet shift/shift-lock
// state machine, ZSCII escapes, and one-level-deep abbreviation expansion.
package zstring

import (
	"encoding/binary"

	"github.com/halvorsen-dev/zterp/zcore"
)

type alphabet int

const (
	alphaA0 alphabet = iota
	alphaA1
	alphaA2
)

// Decode reads a packed Z-string starting at addr and returns the decoded
// text plus the number of bytes consumed (always a multiple of 2, ending at
// the word with its high bit set). isAbbreviation must be false for
// top-level calls; Decode passes true when expanding an abbreviation
// reference itself, since abbreviation strings may not reference further
// abbreviations (the standard forbids abbreviation strings from nesting).
func Decode(core *zcore.Core, addr uint32, alphabets *Alphabets, isAbbreviation bool) (string, uint32) {
	version := core.Version
	var zchrStream []uint8
	bytesRead := uint32(0)
	ptr := addr

	for {
		word := core.MustReadWord(ptr)
		bytesRead += 2
		ptr += 2
		last := word&0x8000 != 0

		zchrStream = append(zchrStream, uint8((word>>10)&0b11111), uint8((word>>5)&0b11111), uint8(word&0b11111))

		if last {
			break
		}
	}

	var out []rune
	base := alphaA0
	current := alphaA0
	next := alphaA0

	for i := 0; i < len(zchrStream); i++ {
		zchr := zchrStream[i]
		current = next
		next = base

		switch zchr {
		case 0:
			out = append(out, ' ')
			continue
		case 1:
			if version == 1 {
				out = append(out, '\n')
				continue
			}
			if !isAbbreviation && i+1 < len(zchrStream) {
				i++
				out = append(out, []rune(expandAbbreviation(core, alphabets, 1, zchrStream[i]))...)
			}
			continue
		case 2:
			if version <= 2 {
				next = alphabet((int(next) + 1) % 3)
				continue
			}
			if !isAbbreviation && i+1 < len(zchrStream) {
				i++
				out = append(out, []rune(expandAbbreviation(core, alphabets, 2, zchrStream[i]))...)
			}
			continue
		case 3:
			if version <= 2 {
				next = alphabet((int(next) + 2) % 3)
				continue
			}
			if !isAbbreviation && i+1 < len(zchrStream) {
				i++
				out = append(out, []rune(expandAbbreviation(core, alphabets, 3, zchrStream[i]))...)
			}
			continue
		case 4:
			if version >= 3 {
				next = alphabet((int(next) + 1) % 3)
			} else {
				base = alphabet((int(base) + 1) % 3)
				next = base
			}
			continue
		case 5:
			if version >= 3 {
				next = alphabet((int(next) + 2) % 3)
			} else {
				base = alphabet((int(base) + 2) % 3)
				next = base
			}
			continue
		}

		if current == alphaA2 && zchr == 6 && i+2 < len(zchrStream) {
			zscii := zchrStream[i+1]<<5 | zchrStream[i+2]
			i += 2
			if r, ok := ZsciiToUnicode(zscii, core); ok {
				out = append(out, r)
			} else {
				out = append(out, rune(zscii))
			}
			continue
		}

		switch current {
		case alphaA0:
			out = append(out, rune(alphabets.A0[zchr-6]))
		case alphaA1:
			out = append(out, rune(alphabets.A1[zchr-6]))
		case alphaA2:
			out = append(out, rune(alphabets.A2[zchr-6]))
		}
	}

	return string(out), bytesRead
}

// expandAbbreviation resolves abbreviation z (1, 2 or 3) / x into a packed
// string address via the abbreviation table and decodes it, one level deep.
func expandAbbreviation(core *zcore.Core, alphabets *Alphabets, z uint8, x uint8) string {
	index := 32*(z-1) + x
	entryAddr := uint32(core.AbbreviationTableBase) + 2*uint32(index)
	wordAddr := core.MustReadWord(entryAddr)
	str, _ := Decode(core, 2*uint32(wordAddr), alphabets, true)
	return str
}

// wordLength is the number of 16-bit words a dictionary/tokenizer word
// occupies: 2 words (V1-3) or 3 words (V4+).
func wordLength(version uint8) int {
	if version <= 3 {
		return 2
	}
	return 3
}

// Encode packs runes into Z-characters for dictionary matching: truncated
// or padded (with the pad z-char 5) to the version's fixed word count, as
// the dictionary lookup opcodes require.
func Encode(runes []rune, core *zcore.Core, alphabets *Alphabets) []uint8 {
	maxChars := wordLength(core.Version) * 3

	var zchrs []uint8
	for _, r := range runes {
		if len(zchrs) >= maxChars {
			break
		}
		zchrs = append(zchrs, encodeRune(r, core, alphabets)...)
	}

	for len(zchrs) < maxChars {
		zchrs = append(zchrs, 5)
	}
	zchrs = zchrs[:maxChars]

	out := make([]uint8, wordLength(core.Version)*2)
	for i := 0; i < wordLength(core.Version); i++ {
		word := uint16(zchrs[i*3])<<10 | uint16(zchrs[i*3+1])<<5 | uint16(zchrs[i*3+2])
		if i == wordLength(core.Version)-1 {
			word |= 0x8000
		}
		binary.BigEndian.PutUint16(out[i*2:i*2+2], word)
	}
	return out
}

func encodeRune(r rune, core *zcore.Core, alphabets *Alphabets) []uint8 {
	if r == ' ' {
		return []uint8{0}
	}
	for i, c := range alphabets.A0 {
		if rune(c) == r {
			return []uint8{uint8(i + 6)}
		}
	}
	for i, c := range alphabets.A1 {
		if rune(c) == r {
			return []uint8{4, uint8(i + 6)}
		}
	}
	for i, c := range alphabets.A2 {
		if c != 0 && rune(c) == r {
			return []uint8{5, uint8(i + 6)}
		}
	}
	if zchr, ok := UnicodeToZscii(r, core); ok {
		return []uint8{5, 6, zchr >> 5, zchr & 0b11111}
	}
	if r >= 32 && r < 127 {
		zchr := uint8(r)
		return []uint8{5, 6, zchr >> 5, zchr & 0b11111}
	}
	return []uint8{0}
}
