package dictionary

import (
	"github.com/halvorsen-dev/zterp/zcore"
	"github.com/halvorsen-dev/zterp/zstring"
)

// Token is one parsed command word: its source text, the memory address it
// started at inside the text buffer, and the dictionary address it resolved to
// (0 if unrecognized).
type Token struct {
	Text              []uint8
	StartOffset       uint32
	DictionaryAddress uint16
}

func tokenizeWord(core *zcore.Core, alphabets *zstring.Alphabets, d *Dictionary, text []uint8, startOffset uint32) Token {
	encoded := zstring.Encode([]rune(string(text)), core, alphabets)
	return Token{
		Text:              text,
		StartOffset:       startOffset,
		DictionaryAddress: d.Find(encoded),
	}
}

// Tokenize splits the text at textBuffer into words on spaces and the
// dictionary's own separator set (each separator is itself emitted as a
// one-character word), encodes and looks each one up, and writes
// the result into the parse buffer at parseBuffer. leaveWordsBlank leaves
// words not found in the dictionary out of the parse buffer (used by
// tokenise when called with a non-zero flag argument).
func Tokenize(core *zcore.Core, alphabets *zstring.Alphabets, d *Dictionary, textBuffer uint32, parseBuffer uint32, leaveWordsBlank bool) {
	textStart := textBuffer + 1
	charCount := uint32(0)
	if core.Version >= 5 {
		charCount = uint32(core.MustReadByte(textStart))
		textStart++
	}

	var tokens []Token
	wordStart := textStart
	pos := textStart

	flush := func(end uint32) {
		if end > wordStart {
			tokens = append(tokens, tokenizeWord(core, alphabets, d, core.ReadSlice(wordStart, end), wordStart))
		}
	}

	for {
		atEnd := false
		var chr uint8
		if core.Version < 5 {
			chr = core.MustReadByte(pos)
			atEnd = chr == 0
		} else {
			atEnd = pos-textStart >= charCount
			if !atEnd {
				chr = core.MustReadByte(pos)
			}
		}

		if atEnd {
			flush(pos)
			break
		}

		if chr == ' ' {
			flush(pos)
			wordStart = pos + 1
		} else if d.Header.IsWordSeparator(chr) {
			flush(pos)
			tokens = append(tokens, tokenizeWord(core, alphabets, d, []uint8{chr}, pos))
			wordStart = pos + 1
		}

		pos++
	}

	if leaveWordsBlank {
		known := tokens[:0]
		for _, tok := range tokens {
			if tok.DictionaryAddress != 0 {
				known = append(known, tok)
			}
		}
		tokens = known
	}

	maxWords := core.MustReadByte(parseBuffer)
	if int(maxWords) < len(tokens) {
		tokens = tokens[:maxWords]
	}

	core.WriteByte(parseBuffer+1, uint8(len(tokens)))
	ptr := parseBuffer + 2
	for _, tok := range tokens {
		core.WriteWord(ptr, tok.DictionaryAddress)
		core.WriteByte(ptr+2, uint8(len(tok.Text)))
		core.WriteByte(ptr+3, uint8(tok.StartOffset-textBuffer))
		ptr += 4
	}
}
