package dictionary_test

import (
	"testing"

	"github.com/halvorsen-dev/zterp/dictionary"
	"github.com/halvorsen-dev/zterp/zcore"
	"github.com/halvorsen-dev/zterp/zstring"
)

func putWord(b []uint8, addr int, v uint16) {
	b[addr] = uint8(v >> 8)
	b[addr+1] = uint8(v)
}

// v3StoryWithDictionary builds a synthetic V3 story with a 2-entry
// dictionary, sorted by encoded word, at a fixed base address.
func v3StoryWithDictionary() (*zcore.Core, *zstring.Alphabets, *dictionary.Dictionary) {
	b := make([]uint8, 0x200)
	b[0x00] = 3
	dictBase := uint32(0x40)
	putWord(b, 0x08, uint16(dictBase))
	b[0x0e] = 0x01
	putWord(b, 0x1a, uint16(len(b)/2))

	b[dictBase] = 1    // 1 input code (separator)
	b[dictBase+1] = '.' // separator: '.'
	b[dictBase+2] = 7   // entry length: 4 bytes encoded word + 3 data bytes
	putWord(b, int(dictBase+3), 2) // 2 entries

	entry0 := dictBase + 5
	// "go" would be z-chars g=12, o=20, then pad; these entry words are
	// placeholders, not that encoding
	putWord(b, int(entry0), 0x1AB5)   // arbitrary but must sort before entry1
	putWord(b, int(entry0+2), 0x8000)
	entry1 := entry0 + 7
	putWord(b, int(entry1), 0x1AC0)
	putWord(b, int(entry1+2), 0x8000)

	core := zcore.LoadCore(b)
	alphabets := zstring.LoadAlphabets(core)
	d := dictionary.Parse(core, alphabets, dictBase)
	return core, alphabets, d
}

func TestFindExactMatch(t *testing.T) {
	_, _, d := v3StoryWithDictionary()

	addr := d.Find(d.Entries[1].EncodedWord)
	if addr != d.Entries[1].Address {
		t.Fatalf("Find returned 0x%x, want 0x%x", addr, d.Entries[1].Address)
	}
}

func TestFindMissingWordReturnsZero(t *testing.T) {
	_, _, d := v3StoryWithDictionary()

	if addr := d.Find([]uint8{0xff, 0xff, 0xff, 0xff}); addr != 0 {
		t.Fatalf("Find(unmatched) = 0x%x, want 0", addr)
	}
}

func TestIsWordSeparator(t *testing.T) {
	_, _, d := v3StoryWithDictionary()

	if !d.Header.IsWordSeparator('.') {
		t.Fatal("expected '.' to be a registered separator")
	}
	if d.Header.IsWordSeparator(',') {
		t.Fatal("',' should not be a registered separator")
	}
}

func TestTokenizeSplitsOnSpacesAndSeparators(t *testing.T) {
	core, alphabets, d := v3StoryWithDictionary()

	textBuffer := uint32(0x80)
	text := []byte("go.\x00")
	core.WriteByte(textBuffer, uint8(len(text)))
	for i, c := range text {
		core.WriteByte(textBuffer+1+uint32(i), c)
	}

	parseBuffer := uint32(0xa0)
	core.WriteByte(parseBuffer, 4) // max 4 words

	dictionary.Tokenize(core, alphabets, d, textBuffer, parseBuffer, false)

	count, _ := core.ReadByte(parseBuffer + 1)
	if count != 2 {
		t.Fatalf("word count = %d, want 2 (\"go\" and \".\")", count)
	}
}
