// Package zobject implements the Z-machine object tree: objects with
// attributes, a parent/sibling/child tree, and variable-length property
// tables.
package zobject

import (
	"encoding/binary"
	"fmt"

	"github.com/halvorsen-dev/zterp/zcore"
	"github.com/halvorsen-dev/zterp/zstring"
)

// Object is a decoded view over one entry of the object table. Mutating
// methods write straight back through to memory via the owning *zcore.Core.
type Object struct {
	BaseAddress     uint32
	Id              uint16
	Name            string
	Attributes      uint64 // bits 0-31 valid in all versions, 32-47 V4+ only (stored MSB-first)
	Parent          uint16 // byte-sized on V1-3
	Sibling         uint16
	Child           uint16
	PropertyPointer uint16
}

// attributeCount is the number of flag bits a version's object supports:
// 32 on V1-3, 48 on V4+.
func attributeCount(version uint8) int {
	if version >= 4 {
		return 48
	}
	return 32
}

func objectEntrySize(version uint8) uint32 {
	if version >= 4 {
		return 14
	}
	return 9
}

func objectBase(core *zcore.Core, objId uint16) uint32 {
	if core.Version >= 4 {
		return uint32(core.ObjectTableBase) + 63*2 + uint32(objId-1)*14
	}
	return uint32(core.ObjectTableBase) + 31*2 + uint32(objId-1)*9
}

// GetObject decodes object objId out of the object table. Object 0 is not a
// valid object (it represents "no object" in parent/sibling/child fields)
// and is reported as an error rather than panicking.
func GetObject(core *zcore.Core, alphabets *zstring.Alphabets, objId uint16) (*Object, error) {
	if objId == 0 {
		return nil, fmt.Errorf("object 0 does not exist")
	}

	base := objectBase(core, objId)
	var attrs uint64
	var parent, sibling, child, propPtr uint16

	if core.Version >= 4 {
		attrs = (binary.BigEndian.Uint64(core.ReadSlice(base, base+8)) >> 16) << 16
		parent = core.MustReadWord(base + 6)
		sibling = core.MustReadWord(base + 8)
		child = core.MustReadWord(base + 10)
		propPtr = core.MustReadWord(base + 12)
	} else {
		attrs = (binary.BigEndian.Uint64(core.ReadSlice(base, base+8)) >> 32) << 32
		parent = uint16(core.MustReadByte(base + 4))
		sibling = uint16(core.MustReadByte(base + 5))
		child = uint16(core.MustReadByte(base + 6))
		propPtr = core.MustReadWord(base + 7)
	}

	nameLength := core.MustReadByte(uint32(propPtr))
	name := ""
	if nameLength > 0 {
		name, _ = zstring.Decode(core, uint32(propPtr)+1, alphabets, false)
	}

	return &Object{
		BaseAddress:     base,
		Id:              objId,
		Name:            name,
		Attributes:      attrs,
		Parent:          parent,
		Sibling:         sibling,
		Child:           child,
		PropertyPointer: propPtr,
	}, nil
}

// TestAttribute reports whether the given attribute flag is set. Attribute
// numbering is MSB-first: attribute 0 is the top bit of the first byte.
func (o *Object) TestAttribute(attribute uint16) bool {
	mask := uint64(1) << (63 - attribute)
	return o.Attributes&mask == mask
}

func (o *Object) setAttributeBit(core *zcore.Core, attribute uint16, value bool) error {
	if int(attribute) >= attributeCount(core.Version) {
		return fmt.Errorf("attribute %d out of range for version %d", attribute, core.Version)
	}

	mask := uint64(1) << (63 - attribute)
	if value {
		o.Attributes |= mask
	} else {
		o.Attributes &^= mask
	}

	if f := core.WriteWord(o.BaseAddress, uint16(o.Attributes>>48)); f != nil {
		return f
	}
	if f := core.WriteWord(o.BaseAddress+2, uint16(o.Attributes>>32)); f != nil {
		return f
	}
	if core.Version >= 4 {
		if f := core.WriteWord(o.BaseAddress+4, uint16(o.Attributes>>16)); f != nil {
			return f
		}
	}
	return nil
}

func (o *Object) SetAttribute(core *zcore.Core, attribute uint16) error {
	return o.setAttributeBit(core, attribute, true)
}

func (o *Object) ClearAttribute(core *zcore.Core, attribute uint16) error {
	return o.setAttributeBit(core, attribute, false)
}

func (o *Object) setLink(core *zcore.Core, offsetV4, offsetV3 uint32, value uint16) {
	if core.Version >= 4 {
		core.WriteWord(o.BaseAddress+offsetV4, value)
	} else {
		core.WriteRawByte(o.BaseAddress+offsetV3, uint8(value))
	}
}

func (o *Object) SetParent(core *zcore.Core, parent uint16) {
	o.setLink(core, 6, 4, parent)
	o.Parent = parent
}

func (o *Object) SetSibling(core *zcore.Core, sibling uint16) {
	o.setLink(core, 8, 5, sibling)
	o.Sibling = sibling
}

func (o *Object) SetChild(core *zcore.Core, child uint16) {
	o.setLink(core, 10, 6, child)
	o.Child = child
}

// Remove detaches objId from its parent's child chain, matching the
// remove_obj opcode's semantics: a no-op if the object has no parent.
func Remove(core *zcore.Core, alphabets *zstring.Alphabets, objId uint16) error {
	obj, err := GetObject(core, alphabets, objId)
	if err != nil {
		return err
	}
	if obj.Parent == 0 {
		return nil
	}

	parent, err := GetObject(core, alphabets, obj.Parent)
	if err != nil {
		return err
	}

	if parent.Child == objId {
		parent.SetChild(core, obj.Sibling)
	} else {
		currId := parent.Child
		for currId != 0 {
			curr, err := GetObject(core, alphabets, currId)
			if err != nil {
				return err
			}
			if curr.Sibling == objId {
				curr.SetSibling(core, obj.Sibling)
				break
			}
			currId = curr.Sibling
		}
	}

	obj.SetParent(core, 0)
	obj.SetSibling(core, 0)
	return nil
}

// Insert detaches objId (if it has a parent) and makes it the first child
// of destId, matching the insert_obj opcode's semantics.
func Insert(core *zcore.Core, alphabets *zstring.Alphabets, objId uint16, destId uint16) error {
	if err := Remove(core, alphabets, objId); err != nil {
		return err
	}

	obj, err := GetObject(core, alphabets, objId)
	if err != nil {
		return err
	}
	dest, err := GetObject(core, alphabets, destId)
	if err != nil {
		return err
	}

	obj.SetSibling(core, dest.Child)
	obj.SetParent(core, destId)
	dest.SetChild(core, objId)
	return nil
}
