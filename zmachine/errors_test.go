package zmachine

import "testing"

func TestFaultKindString(t *testing.T) {
	cases := map[FaultKind]string{
		FaultMemory:     "memory",
		FaultStack:      "stack",
		FaultVariable:   "variable",
		FaultDecode:     "decode",
		FaultOpcode:     "opcode",
		FaultObject:     "object",
		FaultDictionary: "dictionary",
		FaultSave:       "save",
		FaultKind(99):   "unknown",
	}

	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", kind, got, want)
		}
	}
}

func TestFaultError(t *testing.T) {
	f := fault(FaultObject, "object %d has no parent", 7)

	want := "object fault: object 7 has no parent"
	if got := f.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if f.Kind != FaultObject {
		t.Errorf("Kind = %v, want FaultObject", f.Kind)
	}
}
