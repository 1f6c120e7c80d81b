package zobject

import (
	"fmt"

	"github.com/halvorsen-dev/zterp/zcore"
)

// Property is a decoded entry from an object's property table.
type Property struct {
	Id                   uint8
	Length               uint8
	Data                 []uint8
	PropertyHeaderLength uint8
	Address              uint32
	DataAddress          uint32
}

// GetPropertyLength recovers a property's length from the size byte(s)
// immediately preceding the given data address, per the get_prop_len opcode.
// Address 0 is the documented special case meaning "no such property".
func GetPropertyLength(core *zcore.Core, addr uint32) uint16 {
	if addr == 0 {
		return 0
	}

	prevByte := core.MustReadByte(addr - 1)
	if core.Version <= 3 {
		return uint16(prevByte>>5) + 1
	}
	if prevByte&0b1000_0000 != 0 {
		if prevByte&0b11_1111 == 0 {
			return 64
		}
		return uint16(prevByte & 0b11_1111)
	}
	return uint16((prevByte>>6)&1) + 1
}

// getPropertyByAddress decodes the property header at propertyAddr.
func getPropertyByAddress(core *zcore.Core, propertyAddr uint32) Property {
	sizeByte := core.MustReadByte(propertyAddr)
	length := (sizeByte >> 5) + 1
	id := sizeByte & 0b1_1111
	headerLength := uint8(1)

	if core.Version >= 4 {
		if sizeByte>>7 == 1 {
			length = core.MustReadByte(propertyAddr+1) & 0b11_1111
			if length == 0 {
				length = 64
			}
			id = sizeByte & 0b11_1111
			headerLength = 2
		} else {
			length = ((sizeByte >> 6) & 1) + 1
			id = sizeByte & 0b11_1111
		}
	}

	dataAddr := propertyAddr + uint32(headerLength)
	return Property{
		Id:                   id,
		Length:               length,
		Data:                 core.ReadSlice(dataAddr, dataAddr+uint32(length)),
		PropertyHeaderLength: headerLength,
		Address:              propertyAddr,
		DataAddress:          dataAddr,
	}
}

func (o *Object) firstPropertyAddr(core *zcore.Core) uint32 {
	nameLength := core.MustReadByte(uint32(o.PropertyPointer))
	return uint32(o.PropertyPointer) + 1 + uint32(nameLength)*2
}

// GetProperty returns objId's property propertyId, or the table's global
// default value (a 2-byte entry, DataAddress left 0) if the object doesn't
// override it.
func (o *Object) GetProperty(core *zcore.Core, objectTableBase uint16, propertyId uint8) Property {
	ptr := o.firstPropertyAddr(core)

	for core.MustReadByte(ptr) != 0 {
		property := getPropertyByAddress(core, ptr)
		if property.Id == propertyId {
			return property
		}
		ptr += uint32(property.Length) + uint32(property.PropertyHeaderLength)
	}

	defaultAddr := uint32(objectTableBase) + 2*uint32(propertyId-1)
	return Property{
		Id:   propertyId,
		Data: core.ReadSlice(defaultAddr, defaultAddr+2),
	}
}

// SetProperty overwrites an existing 1- or 2-byte property in place, per
// put_prop. Properties longer than 2 bytes, or missing from the object,
// are returned as errors (the Z-machine standard calls this a game-file
// error, not a recoverable condition).
func (o *Object) SetProperty(core *zcore.Core, propertyId uint8, value uint16) error {
	ptr := o.firstPropertyAddr(core)

	for core.MustReadByte(ptr) != 0 {
		property := getPropertyByAddress(core, ptr)
		if property.Id == propertyId {
			switch property.Length {
			case 1:
				return core.WriteByte(property.DataAddress, uint8(value))
			case 2:
				return core.WriteWord(property.DataAddress, value)
			default:
				return fmt.Errorf("property %d has length %d, put_prop requires length 1 or 2", propertyId, property.Length)
			}
		}
		ptr += uint32(property.Length) + uint32(property.PropertyHeaderLength)
	}

	return fmt.Errorf("object %d has no property %d", o.Id, propertyId)
}

// GetNextProperty implements get_next_prop: propertyId 0 asks for the first
// property on the object; otherwise it returns the id following propertyId.
// Returns 0 when there is no next property.
func (o *Object) GetNextProperty(core *zcore.Core, propertyId uint8) (uint8, error) {
	if propertyId == 0 {
		ptr := o.firstPropertyAddr(core)
		if core.MustReadByte(ptr) == 0 {
			return 0, nil
		}
		return getPropertyByAddress(core, ptr).Id, nil
	}

	ptr := o.firstPropertyAddr(core)
	for core.MustReadByte(ptr) != 0 {
		property := getPropertyByAddress(core, ptr)
		if property.Id == propertyId {
			next := property.DataAddress + uint32(property.Length)
			if core.MustReadByte(next) == 0 {
				return 0, nil
			}
			return getPropertyByAddress(core, next).Id, nil
		}
		ptr += uint32(property.Length) + uint32(property.PropertyHeaderLength)
	}

	return 0, fmt.Errorf("object %d has no property %d", o.Id, propertyId)
}
