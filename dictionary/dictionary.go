// Package dictionary parses a story's dictionary table and implements word
// lookup by binary search, plus the command-line tokenizer.
package dictionary

import (
	"bytes"
	"sort"

	"github.com/halvorsen-dev/zterp/zcore"
	"github.com/halvorsen-dev/zterp/zstring"
)

// Header describes the dictionary's word-separator set and entry layout.
type Header struct {
	InputCodes  []uint8
	EntryLength uint8
	EntryCount  int16
}

// Entry is one dictionary word: its encoded z-chars (the key used for
// lookup), the decoded text, and any interpreter-defined data bytes that
// follow the encoded word in the entry.
type Entry struct {
	Address     uint16
	EncodedWord []uint8
	DecodedWord string
	Data        []uint8
}

// Dictionary is a story's parsed dictionary table. Entries are assumed
// sorted by encoded word (the standard requires this so a real interpreter
// may binary search).
type Dictionary struct {
	Header  Header
	Entries []Entry
}

// Parse reads the dictionary table at baseAddress out of core.
func Parse(core *zcore.Core, alphabets *zstring.Alphabets, baseAddress uint32) *Dictionary {
	numInputCodes := core.MustReadByte(baseAddress)
	header := Header{
		InputCodes:  core.ReadSlice(baseAddress+1, baseAddress+1+uint32(numInputCodes)),
		EntryLength: core.MustReadByte(baseAddress + 1 + uint32(numInputCodes)),
		EntryCount:  int16(core.MustReadWord(baseAddress + 2 + uint32(numInputCodes))),
	}

	encodedWordLength := 4
	if core.Version > 3 {
		encodedWordLength = 6
	}

	entryPtr := baseAddress + 4 + uint32(numInputCodes)
	entries := make([]Entry, header.EntryCount)
	for i := 0; i < int(header.EntryCount); i++ {
		encodedWord := core.ReadSlice(entryPtr, entryPtr+uint32(encodedWordLength))
		decodedWord, _ := zstring.Decode(core, entryPtr, alphabets, false)
		entries[i] = Entry{
			Address:     uint16(entryPtr),
			EncodedWord: append([]uint8(nil), encodedWord...),
			DecodedWord: decodedWord,
			Data:        core.ReadSlice(entryPtr+uint32(encodedWordLength), entryPtr+uint32(header.EntryLength)),
		}
		entryPtr += uint32(header.EntryLength)
	}

	return &Dictionary{Header: header, Entries: entries}
}

// Find looks up an encoded word by binary search over the (assumed sorted)
// entry table, returning its byte address, or 0 if the word isn't found.
func (d *Dictionary) Find(encodedWord []uint8) uint16 {
	i := sort.Search(len(d.Entries), func(i int) bool {
		return bytes.Compare(d.Entries[i].EncodedWord, encodedWord) >= 0
	})
	if i < len(d.Entries) && bytes.Equal(d.Entries[i].EncodedWord, encodedWord) {
		return d.Entries[i].Address
	}
	return 0
}

// IsWordSeparator reports whether chr is one of the dictionary's declared
// input codes (word separators that are themselves tokenized as words).
func (h *Header) IsWordSeparator(chr uint8) bool {
	for _, c := range h.InputCodes {
		if c == chr {
			return true
		}
	}
	return false
}
