package zmachine

import "testing"

func TestDecodeLongForm2OP(t *testing.T) {
	story := v3Story(0x200)
	// add (opcode 20) with two small-constant operands: long form, both bits
	// clear selects small-constant for each operand.
	story[0x50] = 0b00_10100 // form=long, opcodeNumber=20
	story[0x51] = 5
	story[0x52] = 7

	z, _, _ := newTestMachine(story)
	frame := z.callStack.peek()
	frame.pc = 0x50

	instr := DecodeInstruction(z)

	if instr.opcodeForm != longForm {
		t.Fatalf("form = %v, want longForm", instr.opcodeForm)
	}
	if instr.operandCount != OP2 {
		t.Fatalf("operandCount = %v, want OP2", instr.operandCount)
	}
	if instr.opcodeNumber != 20 {
		t.Fatalf("opcodeNumber = %d, want 20", instr.opcodeNumber)
	}
	if len(instr.operands) != 2 || instr.operands[0].value != 5 || instr.operands[1].value != 7 {
		t.Fatalf("operands = %+v, want [5 7]", instr.operands)
	}
	if frame.pc != 0x53 {
		t.Fatalf("pc = 0x%x, want 0x53", frame.pc)
	}
}

func TestDecodeLongFormVariableOperands(t *testing.T) {
	story := v3Story(0x200)
	// je (opcode 1): first operand variable, second small constant.
	story[0x50] = 0b0100_0001 // bit6=1 (op1 variable), bit5=0 (op2 small), number=1
	story[0x51] = 16         // global variable 0
	story[0x52] = 3

	z, _, _ := newTestMachine(story)
	frame := z.callStack.peek()
	frame.pc = 0x50

	instr := DecodeInstruction(z)

	if instr.operands[0].operandType != variableOperand {
		t.Fatalf("operand 0 type = %v, want variableOperand", instr.operands[0].operandType)
	}
	if instr.operands[1].operandType != smallConstant {
		t.Fatalf("operand 1 type = %v, want smallConstant", instr.operands[1].operandType)
	}
}

func TestDecodeShortForm1OPLargeConstant(t *testing.T) {
	story := v3Story(0x200)
	story[0x50] = 0b10_00_0001 // short form, large constant, opcodeNumber 1
	story[0x51] = 0x01
	story[0x52] = 0x23

	z, _, _ := newTestMachine(story)
	frame := z.callStack.peek()
	frame.pc = 0x50

	instr := DecodeInstruction(z)

	if instr.operandCount != OP1 {
		t.Fatalf("operandCount = %v, want OP1", instr.operandCount)
	}
	if len(instr.operands) != 1 || instr.operands[0].value != 0x0123 {
		t.Fatalf("operands = %+v, want [0x0123]", instr.operands)
	}
	if frame.pc != 0x53 {
		t.Fatalf("pc = 0x%x, want 0x53", frame.pc)
	}
}

func TestDecodeShortForm0OP(t *testing.T) {
	story := v3Story(0x200)
	story[0x50] = 0b10_11_0000 // short form, omitted operand -> 0OP, opcodeNumber 0

	z, _, _ := newTestMachine(story)
	frame := z.callStack.peek()
	frame.pc = 0x50

	instr := DecodeInstruction(z)

	if instr.operandCount != OP0 {
		t.Fatalf("operandCount = %v, want OP0", instr.operandCount)
	}
	if len(instr.operands) != 0 {
		t.Fatalf("operands = %+v, want none", instr.operands)
	}
	if frame.pc != 0x51 {
		t.Fatalf("pc = 0x%x, want 0x51", frame.pc)
	}
}

func TestDecodeVarFormOP2(t *testing.T) {
	story := v3Story(0x200)
	// je encoded in variable form with bit5 clear -> OP2, two small constants.
	story[0x50] = 0b11_0_00001
	story[0x51] = 0b01_01_11_11 // two small constants, rest omitted
	story[0x52] = 9
	story[0x53] = 10

	z, _, _ := newTestMachine(story)
	frame := z.callStack.peek()
	frame.pc = 0x50

	instr := DecodeInstruction(z)

	if instr.operandCount != OP2 {
		t.Fatalf("operandCount = %v, want OP2", instr.operandCount)
	}
	if len(instr.operands) != 2 || instr.operands[0].value != 9 || instr.operands[1].value != 10 {
		t.Fatalf("operands = %+v, want [9 10]", instr.operands)
	}
}

func TestDecodeVarFormVariadic(t *testing.T) {
	story := v3Story(0x200)
	// call_vs (opcode 0), VAR count, three small-constant operands.
	story[0x50] = 0b11_1_00000
	story[0x51] = 0b01_01_01_11 // three small constants then omitted
	story[0x52] = 1
	story[0x53] = 2
	story[0x54] = 3

	z, _, _ := newTestMachine(story)
	frame := z.callStack.peek()
	frame.pc = 0x50

	instr := DecodeInstruction(z)

	if instr.operandCount != VAR {
		t.Fatalf("operandCount = %v, want VAR", instr.operandCount)
	}
	if len(instr.operands) != 3 {
		t.Fatalf("operands = %+v, want 3 operands", instr.operands)
	}
	if frame.pc != 0x55 {
		t.Fatalf("pc = 0x%x, want 0x55", frame.pc)
	}
}

func TestDecodeVarFormDoubleOperandByteExtension(t *testing.T) {
	story := v3Story(0x200)
	// call_vs2 (opcode 12) can take up to 8 operands, spelled with two
	// operand-type bytes.
	story[0x50] = 0b11_1_01100 // VAR form, opcodeNumber 12
	story[0x51] = 0b01_01_01_01 // four small constants in the first byte
	story[0x52] = 0b01_11_11_11 // one more small constant, rest omitted
	story[0x53] = 1
	story[0x54] = 2
	story[0x55] = 3
	story[0x56] = 4
	story[0x57] = 5

	z, _, _ := newTestMachine(story)
	frame := z.callStack.peek()
	frame.pc = 0x50

	instr := DecodeInstruction(z)

	if instr.opcodeNumber != 12 {
		t.Fatalf("opcodeNumber = %d, want 12", instr.opcodeNumber)
	}
	if len(instr.operands) != 5 {
		t.Fatalf("operands = %+v, want 5 operands", instr.operands)
	}
	if frame.pc != 0x58 {
		t.Fatalf("pc = 0x%x, want 0x58", frame.pc)
	}
}

func TestDecodeExtendedFormRequiresV5(t *testing.T) {
	story := v3Story(0x200)
	story[0x50] = 0xbe
	story[0x51] = 9 // save_undo, as an extended opcode number
	story[0x52] = 0xff

	z, _, _ := newTestMachine(story)
	frame := z.callStack.peek()
	frame.pc = 0x50

	instr := DecodeInstruction(z)

	// Version 3 never takes the extended-form escape: 0xbe decodes as an
	// ordinary short-form instruction instead.
	if instr.opcodeForm == extForm {
		t.Fatal("version 3 story should not decode 0xbe as an extended opcode")
	}
}

func TestDecodeExtendedForm(t *testing.T) {
	story := v3Story(0x200)
	story[0x00] = 5 // bump to version 5 so the extended-form escape applies
	story[0x50] = 0xbe
	story[0x51] = 9    // opcode number within the extended table
	story[0x52] = 0xff // all operands omitted

	z, _, _ := newTestMachine(story)
	frame := z.callStack.peek()
	frame.pc = 0x50

	instr := DecodeInstruction(z)

	if instr.opcodeForm != extForm {
		t.Fatalf("form = %v, want extForm", instr.opcodeForm)
	}
	if instr.opcodeNumber != 9 {
		t.Fatalf("opcodeNumber = %d, want 9", instr.opcodeNumber)
	}
	if instr.operandCount != VAR {
		t.Fatalf("operandCount = %v, want VAR", instr.operandCount)
	}
	if len(instr.operands) != 0 {
		t.Fatalf("operands = %+v, want none", instr.operands)
	}
}
