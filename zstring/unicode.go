package zstring

import "github.com/halvorsen-dev/zterp/zcore"

// DefaultUnicodeTranslationTable is the standard ZSCII extension block
// (codes 155-223) defined by the Z-machine standard for accented Latin
// characters, used when a story doesn't supply its own (V5+ header
// extension table).
var DefaultUnicodeTranslationTable = map[rune]uint8{
	'ä': 155, 'ö': 156, 'ü': 157, 'Ä': 158, 'Ö': 159, 'Ü': 160, 'ß': 161,
	'»': 162, '«': 163, 'ë': 164, 'ï': 165, 'ÿ': 166, 'Ë': 167, 'Ï': 168,
	'á': 169, 'é': 170, 'í': 171, 'ó': 172, 'ú': 173, 'ý': 174, 'Á': 175,
	'É': 176, 'Í': 177, 'Ó': 178, 'Ú': 179, 'Ý': 180, 'à': 181, 'è': 182,
	'ì': 183, 'ò': 184, 'ù': 185, 'À': 186, 'È': 187, 'Ì': 188, 'Ò': 189,
	'Ù': 190, 'â': 191, 'ê': 192, 'î': 193, 'ô': 194, 'û': 195, 'Â': 196,
	'Ê': 197, 'Î': 198, 'Ô': 199, 'Û': 200, 'å': 201, 'Å': 202, 'ø': 203,
	'Ø': 204, 'ã': 205, 'ñ': 206, 'õ': 207, 'Ã': 208, 'Ñ': 209, 'Õ': 210,
	'æ': 211, 'Æ': 212, 'ç': 213, 'Ç': 214, 'þ': 215, 'ð': 216, 'Þ': 217,
	'Ð': 218, '£': 219, 'œ': 220, 'Œ': 221, '¡': 222, '¿': 223,
}

func unicodeTable(core *zcore.Core) map[rune]uint8 {
	if core.UnicodeExtensionTableBaseAddress != 0 {
		return parseUnicodeTranslationTable(core)
	}
	return DefaultUnicodeTranslationTable
}

// UnicodeToZscii translates a rune to its extension-table ZSCII code, used
// by Encode for characters outside the three standard alphabets.
func UnicodeToZscii(r rune, core *zcore.Core) (uint8, bool) {
	zchr, ok := unicodeTable(core)[r]
	return zchr, ok
}

// ZsciiToUnicode is the inverse lookup, used by Decode to expand a
// ZSCII-escape character (z-char 6 on A2) back to a printable rune.
func ZsciiToUnicode(zchr uint8, core *zcore.Core) (rune, bool) {
	for r, ix := range unicodeTable(core) {
		if ix == zchr {
			return r, true
		}
	}
	return 0, false
}

// parseUnicodeTranslationTable reads a V5+ story's own extension table: a
// length byte followed by that many 16-bit Unicode code points, assigned
// codes 155, 156, ... in order.
func parseUnicodeTranslationTable(core *zcore.Core) map[rune]uint8 {
	result := make(map[rune]uint8)

	count := core.MustReadByte(uint32(core.UnicodeExtensionTableBaseAddress))
	start := uint32(core.UnicodeExtensionTableBaseAddress) + 1
	for i := 0; i < int(count); i++ {
		result[rune(core.MustReadWord(start+uint32(i)*2))] = uint8(i + 155)
	}

	return result
}
