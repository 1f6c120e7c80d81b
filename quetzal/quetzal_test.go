package quetzal_test

import (
	"bytes"
	"testing"

	"github.com/halvorsen-dev/zterp/quetzal"
)

func TestWriteReadRoundTrip(t *testing.T) {
	original := make([]byte, 64)
	for i := range original {
		original[i] = byte(i)
	}
	current := append([]byte(nil), original...)
	current[10] = 0xff
	current[11] = 0xee

	state := quetzal.SaveState{
		Release:               7,
		Serial:                [6]byte{'2', '6', '0', '7', '3', '1'},
		Checksum:               0x1234,
		InitialPC:              0x4567,
		OriginalDynamicMemory:  original,
		DynamicMemory:          current,
		Frames: []quetzal.Frame{
			{ReturnPC: 0x100, Locals: []uint16{1, 2, 3}, Stack: []uint16{9, 8}, StoreVar: 5, ArgCount: 2},
			{ReturnPC: 0, Locals: nil, Stack: nil, Discard: true},
		},
	}

	data, err := quetzal.Write(state)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("FORM")) {
		t.Fatal("expected FORM container header")
	}

	got, err := quetzal.Read(data, original)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if got.Release != state.Release || got.Serial != state.Serial || got.Checksum != state.Checksum {
		t.Fatalf("identity mismatch: got %+v", got)
	}
	if !bytes.Equal(got.DynamicMemory, current) {
		t.Fatalf("DynamicMemory round-trip mismatch: got %v want %v", got.DynamicMemory, current)
	}
	if len(got.Frames) != 2 {
		t.Fatalf("len(Frames) = %d, want 2", len(got.Frames))
	}
	if got.Frames[0].ReturnPC != 0x100 || len(got.Frames[0].Locals) != 3 {
		t.Fatalf("frame 0 mismatch: %+v", got.Frames[0])
	}
	if !got.Frames[1].Discard {
		t.Fatal("frame 1 should have Discard set")
	}
}

func TestCompatibleChecksChecksumAndSerial(t *testing.T) {
	state := quetzal.SaveState{Release: 3, Serial: [6]byte{'8', '8', '0', '9', '0', '1'}, Checksum: 0xabcd}

	if !state.Compatible(3, [6]byte{'8', '8', '0', '9', '0', '1'}, 0xabcd) {
		t.Fatal("expected matching identity to be compatible")
	}
	if state.Compatible(4, [6]byte{'8', '8', '0', '9', '0', '1'}, 0xabcd) {
		t.Fatal("expected mismatched release to be incompatible")
	}
	if state.Compatible(3, [6]byte{'0', '0', '0', '0', '0', '0'}, 0xabcd) {
		t.Fatal("expected mismatched serial to be incompatible")
	}
	if state.Compatible(3, [6]byte{'8', '8', '0', '9', '0', '1'}, 0x1111) {
		t.Fatal("expected mismatched checksum to be incompatible")
	}
}

func TestIdenticalMemoryCompressesToEmpty(t *testing.T) {
	original := bytes.Repeat([]byte{0x42}, 32)

	state := quetzal.SaveState{
		Serial:                [6]byte{'1', '1', '1', '1', '1', '1'},
		OriginalDynamicMemory: original,
		DynamicMemory:         append([]byte(nil), original...),
	}

	data, err := quetzal.Write(state)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := quetzal.Read(data, original)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got.DynamicMemory, original) {
		t.Fatal("expected unchanged memory to round-trip exactly")
	}
}
