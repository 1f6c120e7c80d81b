package zobject_test

import (
	"testing"

	"github.com/halvorsen-dev/zterp/zcore"
	"github.com/halvorsen-dev/zterp/zobject"
	"github.com/halvorsen-dev/zterp/zstring"
)

// v3StoryWithObjects builds a synthetic V3 story with a 2-entry object
// table (31 default property words, then 9-byte object entries) so tests
// don't depend on a copyrighted story file.
func v3StoryWithObjects() (*zcore.Core, *zstring.Alphabets) {
	b := make([]uint8, 0x200)
	b[0x00] = 3
	objectTableBase := uint16(0x40)
	putWord(b, 0x0a, objectTableBase)
	b[0x0e] = 0x01 // static memory base 0x0100
	putWord(b, 0x1a, uint16(len(b)/2))

	// property table for object 1: name length 0, terminator
	propAddr := uint16(0x90)
	entry1 := objectTableBase + 31*2
	b[propAddr] = 0 // name length 0 (no name)
	b[propAddr+1] = 0 // terminator, no properties

	b[entry1+4] = 0 // parent
	b[entry1+5] = 0 // sibling
	b[entry1+6] = 0 // child
	putWord(b, int(entry1+7), propAddr)

	// object 2 has object 1 as its child
	entry2 := entry1 + 9
	propAddr2 := uint16(0xA0)
	b[propAddr2] = 0
	b[propAddr2+1] = 0
	b[entry2+4] = 0
	b[entry2+5] = 0
	b[entry2+6] = 1 // child = object 1
	putWord(b, int(entry2+7), propAddr2)
	b[entry1+4] = 2 // object 1's parent = object 2

	// attribute 2 set on object 1 (byte 0, bit 2 from MSB => mask 0x20)
	b[entry1] = 0b0010_0000

	core := zcore.LoadCore(b)
	alphabets := zstring.LoadAlphabets(core)
	return core, alphabets
}

func putWord(b []uint8, addr int, v uint16) {
	b[addr] = uint8(v >> 8)
	b[addr+1] = uint8(v)
}

func TestGetObjectZeroErrors(t *testing.T) {
	core, alphabets := v3StoryWithObjects()
	if _, err := zobject.GetObject(core, alphabets, 0); err == nil {
		t.Fatal("expected error retrieving object 0")
	}
}

func TestGetObjectTreeLinks(t *testing.T) {
	core, alphabets := v3StoryWithObjects()

	obj2, err := zobject.GetObject(core, alphabets, 2)
	if err != nil {
		t.Fatalf("GetObject(2): %v", err)
	}
	if obj2.Child != 1 {
		t.Fatalf("obj2.Child = %d, want 1", obj2.Child)
	}

	obj1, err := zobject.GetObject(core, alphabets, 1)
	if err != nil {
		t.Fatalf("GetObject(1): %v", err)
	}
	if obj1.Parent != 2 {
		t.Fatalf("obj1.Parent = %d, want 2", obj1.Parent)
	}
}

func TestAttributeSetClear(t *testing.T) {
	core, alphabets := v3StoryWithObjects()
	obj1, _ := zobject.GetObject(core, alphabets, 1)

	if !obj1.TestAttribute(2) {
		t.Fatal("expected attribute 2 to be set on object 1")
	}
	if obj1.TestAttribute(3) {
		t.Fatal("expected attribute 3 to be clear on object 1")
	}

	if err := obj1.SetAttribute(core, 10); err != nil {
		t.Fatalf("SetAttribute: %v", err)
	}
	if !obj1.TestAttribute(10) {
		t.Fatal("SetAttribute(10) did not take effect")
	}

	// re-read from memory to confirm persistence
	reread, _ := zobject.GetObject(core, alphabets, 1)
	if !reread.TestAttribute(10) {
		t.Fatal("attribute 10 not persisted to memory")
	}

	if err := obj1.ClearAttribute(core, 10); err != nil {
		t.Fatalf("ClearAttribute: %v", err)
	}
	if obj1.TestAttribute(10) {
		t.Fatal("ClearAttribute(10) did not take effect")
	}
}

func TestInsertAndRemove(t *testing.T) {
	core, alphabets := v3StoryWithObjects()

	if err := zobject.Remove(core, alphabets, 1); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	obj2, _ := zobject.GetObject(core, alphabets, 2)
	if obj2.Child != 0 {
		t.Fatalf("obj2.Child after Remove = %d, want 0", obj2.Child)
	}

	if err := zobject.Insert(core, alphabets, 1, 2); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	obj2, _ = zobject.GetObject(core, alphabets, 2)
	if obj2.Child != 1 {
		t.Fatalf("obj2.Child after Insert = %d, want 1", obj2.Child)
	}
	obj1, _ := zobject.GetObject(core, alphabets, 1)
	if obj1.Parent != 2 {
		t.Fatalf("obj1.Parent after Insert = %d, want 2", obj1.Parent)
	}
}
