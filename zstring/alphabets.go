package zstring

import "github.com/halvorsen-dev/zterp/zcore"

// Alphabets holds the three 26-entry Z-character tables (A0 lowercase, A1
// uppercase, A2 punctuation/digits) used to translate z-characters 6-31 into
// ZSCII. V1 has its own A2 table; V5+ stories may replace all
// three via the header's alternative character set address.
type Alphabets struct {
	A0 [26]uint8
	A1 [26]uint8
	A2 [26]uint8
}

var a0Default = [26]uint8{'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h', 'i', 'j', 'k', 'l', 'm', 'n', 'o', 'p', 'q', 'r', 's', 't', 'u', 'v', 'w', 'x', 'y', 'z'}
var a1Default = [26]uint8{'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H', 'I', 'J', 'K', 'L', 'M', 'N', 'O', 'P', 'Q', 'R', 'S', 'T', 'U', 'V', 'W', 'X', 'Y', 'Z'}
var a2V1 = [26]uint8{0, '0', '1', '2', '3', '4', '5', '6', '7', '8', '9', '.', ',', '!', '?', '_', '#', '\'', '"', '/', '\\', '<', '-', ':', '(', ')'}
var a2Default = [26]uint8{0, '\n', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9', '.', ',', '!', '?', '_', '#', '\'', '"', '/', '\\', '-', ':', '(', ')'}

// defaultAlphabetsV1 is the fixed table used by V1 stories (which have no
// A2-newline-for-A2-zero convention and no custom-table header field).
var defaultAlphabetsV1 = Alphabets{A0: a0Default, A1: a1Default, A2: a2V1}

// LoadAlphabets builds the alphabet set a story should decode/encode with:
// the version-appropriate defaults, or a custom table when the header's
// alternative character set address (V5+) is non-zero.
func LoadAlphabets(core *zcore.Core) *Alphabets {
	if core.Version == 1 {
		return &defaultAlphabetsV1
	}

	alphabets := &Alphabets{A0: a0Default, A1: a1Default, A2: a2Default}

	if core.Version >= 5 && core.AlternativeCharSetBaseAddress != 0 {
		base := uint32(core.AlternativeCharSetBaseAddress)
		table := core.ReadSlice(base, base+78)
		if len(table) == 78 {
			copy(alphabets.A0[:], table[0:26])
			copy(alphabets.A1[:], table[26:52])
			copy(alphabets.A2[:], table[52:78])
		}
	}

	return alphabets
}
