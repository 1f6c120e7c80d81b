package zmachine

// OperandType, OpcodeForm and OperandCount are the instruction-encoding
// categories the standard defines: how an operand's bytes are interpreted,
// which of the four opcode forms was used, and how many operands the form
// implies.
type OperandType int
type OpcodeForm int
type OperandCount int

const (
	largeConstant OperandType = 0b00
	smallConstant OperandType = 0b01
	variableOperand OperandType = 0b10
	omitted       OperandType = 0b11
)

const (
	longForm  OpcodeForm = 0b00
	extForm   OpcodeForm = 0b01
	shortForm OpcodeForm = 0b10
	varForm   OpcodeForm = 0b11
)

const (
	OP0 OperandCount = iota
	OP1
	OP2
	VAR
)

// Operand is one decoded instruction operand: either a literal constant or
// a reference to a variable (resolved lazily via Value, since reading a
// variable can pop the stack - it must happen exactly once, at use time).
type Operand struct {
	operandType OperandType
	value       uint16
}

// Value resolves this operand against the running machine. Variable
// operands read-and-consume (stack reads pop), matching direct
// (non-indirect) variable access semantics.
func (operand *Operand) Value(z *ZMachine) uint16 {
	switch operand.operandType {
	case largeConstant, smallConstant:
		return operand.value
	case variableOperand:
		return z.readVariable(uint8(operand.value), false)
	default:
		return 0
	}
}

// Instruction is one fully decoded opcode: its form, operand count,
// opcode number within that count's table, and its operands.
type Instruction struct {
	opcodeByte   uint8
	operandCount OperandCount
	opcodeForm   OpcodeForm
	opcodeNumber uint8
	operands     []Operand
}

func parseVariableOperands(z *ZMachine, frame *CallStackFrame, instr *Instruction) {
	operandTypeByte := z.readByteIncPC(frame)
	var operandTypeByteExt uint8
	maxOperands := 4

	if instr.operandCount == VAR && instr.opcodeForm != extForm && (instr.opcodeNumber == 12 || instr.opcodeNumber == 26) {
		operandTypeByteExt = z.readByteIncPC(frame)
		maxOperands = 8
	}

	for i := 0; i < maxOperands; i++ {
		var operandType OperandType
		if i < 4 {
			operandType = OperandType((operandTypeByte >> (2 * (3 - i))) & 0b11)
		} else {
			operandType = OperandType((operandTypeByteExt >> (2 * (7 - i))) & 0b11)
		}

		if operandType == omitted {
			break
		}

		switch operandType {
		case smallConstant, variableOperand:
			instr.operands = append(instr.operands, Operand{operandType: operandType, value: uint16(z.readByteIncPC(frame))})
		case largeConstant:
			instr.operands = append(instr.operands, Operand{operandType: operandType, value: z.readWordIncPC(frame)})
		}
	}
}

// DecodeInstruction reads one instruction at the current frame's program
// counter, advancing it past the opcode and its operands (but not its
// store/branch/text trailers, which the executor reads as it interprets
// the opcode).
func DecodeInstruction(z *ZMachine) Instruction {
	frame := z.callStack.peek()
	opcodeByte := z.readByteIncPC(frame)
	instr := Instruction{
		opcodeForm: OpcodeForm(opcodeByte >> 6),
		opcodeByte: opcodeByte,
	}

	if opcodeByte == 0xbe && z.Core.Version >= 5 {
		instr.opcodeByte = z.readByteIncPC(frame)
		instr.opcodeNumber = instr.opcodeByte
		instr.opcodeForm = extForm
		instr.operandCount = VAR
		parseVariableOperands(z, frame, &instr)
		return instr
	}

	switch instr.opcodeForm {
	case varForm:
		instr.opcodeNumber = opcodeByte & 0b1_1111
		instr.operandCount = VAR
		if (opcodeByte>>5)&1 == 0 {
			instr.operandCount = OP2
		}
		parseVariableOperands(z, frame, &instr)

	case shortForm:
		instr.opcodeNumber = opcodeByte & 0b1111
		operandType := OperandType((opcodeByte >> 4) & 0b11)

		switch operandType {
		case largeConstant:
			instr.operands = append(instr.operands, Operand{operandType: operandType, value: z.readWordIncPC(frame)})
			instr.operandCount = OP1
		case smallConstant, variableOperand:
			instr.operands = append(instr.operands, Operand{operandType: operandType, value: uint16(z.readByteIncPC(frame))})
			instr.operandCount = OP1
		case omitted:
			instr.operandCount = OP0
		}

	default: // longForm
		instr.opcodeNumber = opcodeByte & 0b1_1111
		instr.opcodeForm = longForm
		instr.operandCount = OP2

		op1Type, op2Type := smallConstant, smallConstant
		if (opcodeByte>>6)&1 == 1 {
			op1Type = variableOperand
		}
		if (opcodeByte>>5)&1 == 1 {
			op2Type = variableOperand
		}
		for _, t := range []OperandType{op1Type, op2Type} {
			instr.operands = append(instr.operands, Operand{operandType: t, value: uint16(z.readByteIncPC(frame))})
		}
	}

	return instr
}
