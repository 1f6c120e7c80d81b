package zmachine

import (
	"encoding/binary"
	"strconv"
	"time"

	"github.com/halvorsen-dev/zterp/dictionary"
	"github.com/halvorsen-dev/zterp/zobject"
	"github.com/halvorsen-dev/zterp/zstring"
	"github.com/halvorsen-dev/zterp/ztable"
)

func (z *ZMachine) decodeStringAt(addr uint32) (string, uint32) {
	return zstring.Decode(&z.Core, addr, z.Alphabets, false)
}

// execute dispatches one decoded instruction. It returns false when the
// story has quit; a non-nil fault means the instruction could not complete
// and the run loop should stop.
func (z *ZMachine) execute(instr *Instruction) (bool, *RuntimeFault) {
	frame := z.callStack.peek()

	switch instr.operandCount {
	case OP0:
		return z.executeOP0(instr, frame)
	case OP1:
		return z.executeOP1(instr, frame)
	case OP2:
		return z.executeOP2(instr, frame)
	default: // VAR, including the extended form
		if instr.opcodeForm == extForm {
			return z.executeEXT(instr, frame)
		}
		return z.executeVAR(instr, frame)
	}
}

func (z *ZMachine) executeOP0(instr *Instruction, frame *CallStackFrame) (bool, *RuntimeFault) {
	switch instr.opcodeNumber {
	case 0: // rtrue
		z.returnValue(1)

	case 1: // rfalse
		z.returnValue(0)

	case 2: // print
		text, bytesRead := z.decodeStringAt(frame.pc)
		frame.pc += bytesRead
		z.appendText(text)

	case 3: // print_ret
		text, bytesRead := z.decodeStringAt(frame.pc)
		frame.pc += bytesRead
		z.appendText(text)
		z.appendText("\n")
		z.returnValue(1)

	case 4: // nop

	case 5: // save (V1-4; V5+ uses the extended form)
		if z.Core.Version < 4 {
			z.handleBranch(frame, true)
		} else {
			z.writeVariable(z.readByteIncPC(frame), 1, false)
		}
		z.performSave()

	case 6: // restore (V1-4)
		ok, err := z.performRestore()
		if err != nil {
			return false, err
		}
		if !ok {
			if z.Core.Version < 4 {
				z.handleBranch(frame, false)
			} else {
				z.writeVariable(z.readByteIncPC(frame), 0, false)
			}
		}

	case 7: // restart
		z.Core.Restart()
		z.streams = Streams{Screen: true}
		z.undoStates = nil
		if z.Core.Version == 6 {
			packed := z.Core.UnpackAddress(uint32(z.Core.FirstInstruction), false)
			z.callStack = CallStack{}
			z.callStack.push(CallStackFrame{pc: packed + 1, locals: make([]uint16, z.Core.MustReadByte(packed))})
		} else {
			z.callStack = CallStack{}
			z.callStack.push(CallStackFrame{pc: uint32(z.Core.FirstInstruction)})
		}

	case 8: // ret_popped
		v := frame.pop(z.warn)
		z.returnValue(v)

	case 9: // pop (V1-4) / catch (V5+)
		if z.Core.Version < 5 {
			frame.pop(z.warn)
		} else {
			dest := z.readByteIncPC(frame)
			frame.lastCatchVar = dest
			z.writeVariable(dest, uint16(z.callStack.getFramePointer()), false)
		}

	case 10: // quit
		return false, nil

	case 11: // new_line
		z.appendText("\n")

	case 12: // show_status (V3 only; harmless no-op otherwise)
		if z.Core.Version <= 3 {
			z.pushStatusBar()
		}

	case 13: // verify
		actual := uint16(0)
		for ix := uint32(0x40); ix < z.Core.FileLength(); ix++ {
			actual += uint16(z.Core.MustReadByte(ix))
		}
		z.handleBranch(frame, actual == z.Core.FileChecksum())

	case 15: // piracy
		z.handleBranch(frame, true) // interpreters are asked to be gullible

	default:
		return false, fault(FaultOpcode, "unimplemented 0OP opcode %d at 0x%x", instr.opcodeNumber, frame.pc)
	}

	return true, nil
}

func (z *ZMachine) executeOP1(instr *Instruction, frame *CallStackFrame) (bool, *RuntimeFault) {
	op := func(i int) uint16 { return instr.operands[i].Value(z) }

	switch instr.opcodeNumber {
	case 0: // jz
		z.handleBranch(frame, op(0) == 0)

	case 1: // get_sibling
		obj, err := zobject.GetObject(&z.Core, z.Alphabets, op(0))
		if err != nil {
			return false, fault(FaultObject, "%s", err.Error())
		}
		z.writeVariable(z.readByteIncPC(frame), obj.Sibling, false)
		z.handleBranch(frame, obj.Sibling != 0)

	case 2: // get_child
		obj, err := zobject.GetObject(&z.Core, z.Alphabets, op(0))
		if err != nil {
			return false, fault(FaultObject, "%s", err.Error())
		}
		z.writeVariable(z.readByteIncPC(frame), obj.Child, false)
		z.handleBranch(frame, obj.Child != 0)

	case 3: // get_parent
		obj, err := zobject.GetObject(&z.Core, z.Alphabets, op(0))
		if err != nil {
			return false, fault(FaultObject, "%s", err.Error())
		}
		z.writeVariable(z.readByteIncPC(frame), obj.Parent, false)

	case 4: // get_prop_len
		z.writeVariable(z.readByteIncPC(frame), zobject.GetPropertyLength(&z.Core, uint32(op(0))), false)

	case 5: // inc
		variable := uint8(op(0))
		z.writeVariable(variable, z.readVariable(variable, true)+1, true)

	case 6: // dec
		variable := uint8(op(0))
		z.writeVariable(variable, z.readVariable(variable, true)-1, true)

	case 7: // print_addr
		str, _ := z.decodeStringAt(uint32(op(0)))
		z.appendText(str)

	case 8: // call_1s
		z.call(instr, function)

	case 9: // remove_obj
		if err := zobject.Remove(&z.Core, z.Alphabets, op(0)); err != nil {
			return false, fault(FaultObject, "%s", err.Error())
		}

	case 10: // print_obj
		obj, err := zobject.GetObject(&z.Core, z.Alphabets, op(0))
		if err != nil {
			return false, fault(FaultObject, "%s", err.Error())
		}
		z.appendText(obj.Name)

	case 11: // ret
		z.returnValue(op(0))

	case 12: // jump
		offset := int16(op(0))
		frame.pc = uint32(int32(frame.pc) + int32(offset) - 2)

	case 13: // print_paddr
		addr := z.Core.UnpackAddress(uint32(op(0)), true)
		text, _ := z.decodeStringAt(addr)
		z.appendText(text)

	case 14: // load
		z.writeVariable(z.readByteIncPC(frame), z.readVariable(uint8(op(0)), true), false)

	case 15: // not (V1-4) / call_1n (V5+)
		if z.Core.Version < 5 {
			z.writeVariable(z.readByteIncPC(frame), ^op(0), false)
		} else {
			z.call(instr, procedure)
		}

	default:
		return false, fault(FaultOpcode, "unimplemented 1OP opcode %d at 0x%x", instr.opcodeNumber, frame.pc)
	}

	return true, nil
}

func (z *ZMachine) executeOP2(instr *Instruction, frame *CallStackFrame) (bool, *RuntimeFault) {
	op := func(i int) uint16 { return instr.operands[i].Value(z) }

	switch instr.opcodeNumber {
	case 1: // je
		a := op(0)
		branch := false
		for i := 1; i < len(instr.operands); i++ {
			if a == op(i) {
				branch = true
			}
		}
		z.handleBranch(frame, branch)

	case 2: // jl
		z.handleBranch(frame, int16(op(0)) < int16(op(1)))

	case 3: // jg
		z.handleBranch(frame, int16(op(0)) > int16(op(1)))

	case 4: // dec_chk
		variable := uint8(op(0))
		newValue := int16(z.readVariable(variable, true)) - 1
		z.writeVariable(variable, uint16(newValue), true)
		z.handleBranch(frame, newValue < int16(op(1)))

	case 5: // inc_chk
		variable := uint8(op(0))
		newValue := int16(z.readVariable(variable, true)) + 1
		z.writeVariable(variable, uint16(newValue), true)
		z.handleBranch(frame, newValue > int16(op(1)))

	case 6: // jin
		obj, err := zobject.GetObject(&z.Core, z.Alphabets, op(0))
		if err != nil {
			return false, fault(FaultObject, "%s", err.Error())
		}
		z.handleBranch(frame, obj.Parent == op(1))

	case 7: // test
		bitmap, flags := op(0), op(1)
		z.handleBranch(frame, bitmap&flags == flags)

	case 8: // or
		z.writeVariable(z.readByteIncPC(frame), op(0)|op(1), false)

	case 9: // and
		z.writeVariable(z.readByteIncPC(frame), op(0)&op(1), false)

	case 10: // test_attr
		obj, err := zobject.GetObject(&z.Core, z.Alphabets, op(0))
		if err != nil {
			return false, fault(FaultObject, "%s", err.Error())
		}
		z.handleBranch(frame, obj.TestAttribute(op(1)))

	case 11: // set_attr
		obj, err := zobject.GetObject(&z.Core, z.Alphabets, op(0))
		if err != nil {
			return false, fault(FaultObject, "%s", err.Error())
		}
		if err := obj.SetAttribute(&z.Core, op(1)); err != nil {
			return false, fault(FaultObject, "%s", err.Error())
		}

	case 12: // clear_attr
		obj, err := zobject.GetObject(&z.Core, z.Alphabets, op(0))
		if err != nil {
			return false, fault(FaultObject, "%s", err.Error())
		}
		if err := obj.ClearAttribute(&z.Core, op(1)); err != nil {
			return false, fault(FaultObject, "%s", err.Error())
		}

	case 13: // store
		z.writeVariable(uint8(op(0)), op(1), true)

	case 14: // insert_obj
		if err := zobject.Insert(&z.Core, z.Alphabets, op(0), op(1)); err != nil {
			return false, fault(FaultObject, "%s", err.Error())
		}

	case 15: // loadw
		word, memErr := z.Core.ReadWord(uint32(op(0) + 2*op(1)))
		if memErr != nil {
			return false, fault(FaultMemory, "%s", memErr.Error())
		}
		z.writeVariable(z.readByteIncPC(frame), word, false)

	case 16: // loadb
		b, memErr := z.Core.ReadByte(uint32(op(0) + op(1)))
		if memErr != nil {
			return false, fault(FaultMemory, "%s", memErr.Error())
		}
		z.writeVariable(z.readByteIncPC(frame), uint16(b), false)

	case 17: // get_prop
		obj, err := zobject.GetObject(&z.Core, z.Alphabets, op(0))
		if err != nil {
			return false, fault(FaultObject, "%s", err.Error())
		}
		prop := obj.GetProperty(&z.Core, z.Core.ObjectTableBase, uint8(op(1)))
		var value uint16
		switch len(prop.Data) {
		case 1:
			value = uint16(prop.Data[0])
		case 2:
			value = binary.BigEndian.Uint16(prop.Data)
		default:
			// A property longer than 2 bytes is undefined for get_prop; the
			// common convention (and the one this interpreter follows) is to
			// return the first word rather than fault.
			value = binary.BigEndian.Uint16(prop.Data[:2])
		}
		z.writeVariable(z.readByteIncPC(frame), value, false)

	case 18: // get_prop_addr
		obj, err := zobject.GetObject(&z.Core, z.Alphabets, op(0))
		if err != nil {
			return false, fault(FaultObject, "%s", err.Error())
		}
		prop := obj.GetProperty(&z.Core, z.Core.ObjectTableBase, uint8(op(1)))
		z.writeVariable(z.readByteIncPC(frame), uint16(prop.DataAddress), false)

	case 19: // get_next_prop
		obj, err := zobject.GetObject(&z.Core, z.Alphabets, op(0))
		if err != nil {
			return false, fault(FaultObject, "%s", err.Error())
		}
		next, err := obj.GetNextProperty(&z.Core, uint8(op(1)))
		if err != nil {
			return false, fault(FaultObject, "%s", err.Error())
		}
		z.writeVariable(z.readByteIncPC(frame), uint16(next), false)

	case 20: // add
		z.writeVariable(z.readByteIncPC(frame), op(0)+op(1), false)

	case 21: // sub
		z.writeVariable(z.readByteIncPC(frame), op(0)-op(1), false)

	case 22: // mul
		z.writeVariable(z.readByteIncPC(frame), op(0)*op(1), false)

	case 23: // div
		numerator, denominator := int16(op(0)), int16(op(1))
		if denominator == 0 {
			return false, fault(FaultOpcode, "division by zero")
		}
		z.writeVariable(z.readByteIncPC(frame), uint16(numerator/denominator), false)

	case 24: // mod
		numerator, denominator := int16(op(0)), int16(op(1))
		if denominator == 0 {
			return false, fault(FaultOpcode, "modulo by zero")
		}
		z.writeVariable(z.readByteIncPC(frame), uint16(numerator%denominator), false)

	case 25: // call_2s
		if z.Core.Version < 4 {
			return false, fault(FaultOpcode, "call_2s requires V4+")
		}
		z.call(instr, function)

	case 26: // call_2n
		if z.Core.Version < 5 {
			return false, fault(FaultOpcode, "call_2n requires V5+")
		}
		z.call(instr, procedure)

	case 27: // set_colour
		if z.Core.Version < 5 {
			return false, fault(FaultOpcode, "set_colour requires V5+")
		}
		z.setColor(op(0), op(1))

	case 28: // throw
		if z.Core.Version < 5 {
			return false, fault(FaultOpcode, "throw requires V5+")
		}
		value, framePointer := op(0), op(1)
		if err := z.callStack.unwindTo(uint32(framePointer)); err != nil {
			return false, fault(FaultStack, "%s", err.Error())
		}
		target := z.callStack.peek()
		if target == nil {
			return false, fault(FaultStack, "throw: no frame to resume")
		}
		z.writeVariable(target.lastCatchVar, value, false)

	default:
		return false, fault(FaultOpcode, "unimplemented 2OP opcode %d at 0x%x", instr.opcodeNumber, frame.pc)
	}

	return true, nil
}

func (z *ZMachine) executeVAR(instr *Instruction, frame *CallStackFrame) (bool, *RuntimeFault) {
	op := func(i int) uint16 { return instr.operands[i].Value(z) }

	switch instr.opcodeNumber {
	case 0: // call / call_vs
		z.call(instr, function)

	case 1: // storew
		if memErr := z.Core.WriteWord(uint32(op(0)+2*op(1)), op(2)); memErr != nil {
			return false, fault(FaultMemory, "%s", memErr.Error())
		}

	case 2: // storeb
		if memErr := z.Core.WriteByte(uint32(op(0)+op(1)), uint8(op(2))); memErr != nil {
			return false, fault(FaultMemory, "%s", memErr.Error())
		}

	case 3: // put_prop
		obj, err := zobject.GetObject(&z.Core, z.Alphabets, op(0))
		if err != nil {
			return false, fault(FaultObject, "%s", err.Error())
		}
		if err := obj.SetProperty(&z.Core, uint8(op(1)), op(2)); err != nil {
			return false, fault(FaultObject, "%s", err.Error())
		}

	case 4: // sread / aread
		z.readLine(instr)

	case 5: // print_char
		chr := uint8(op(0))
		if chr != 0 {
			z.appendText(string(rune(chr)))
		}

	case 6: // print_num
		z.appendText(strconv.Itoa(int(int16(op(0)))))

	case 7: // random
		n := int16(op(0))
		var result uint16
		switch {
		case n < 0:
			z.rng.Seed(int64(n))
		case n == 0:
			z.rng.Seed(time.Now().UnixNano())
		default:
			result = uint16(z.rng.Int31n(int32(n))) + 1
		}
		z.writeVariable(z.readByteIncPC(frame), result, false)

	case 8: // push
		frame.push(op(0))

	case 9: // pull
		z.writeVariable(uint8(op(0)), frame.pop(z.warn), true)

	case 10: // split_window
		if z.Core.Version < 3 {
			return false, fault(FaultOpcode, "split_window requires V3+")
		}
		z.screenModel.UpperWindowHeight = int(op(0))
		z.outputChannel <- z.screenModel

	case 11: // set_window
		if z.Core.Version < 3 {
			return false, fault(FaultOpcode, "set_window requires V3+")
		}
		z.screenModel.LowerWindowActive = op(0) == 0
		z.outputChannel <- z.screenModel

	case 12: // call_vs2
		z.call(instr, function)

	case 13: // erase_window
		window := int16(op(0))
		if window == -1 {
			z.screenModel.LowerWindowActive = true
			z.screenModel.UpperWindowHeight = 0
			z.outputChannel <- z.screenModel
		}
		z.outputChannel <- EraseWindowRequest(window)

	case 14: // erase_line
		// text-only host: nothing on the current line to erase beyond what a
		// redraw already handles.

	case 15: // set_cursor
		line, col := op(0), op(1)
		if z.Core.Version == 6 {
			z.warn("v6_cursor", "set_cursor with window argument is not supported outside the lower window")
			return true, nil
		}
		if !z.screenModel.LowerWindowActive {
			z.screenModel.UpperWindowCursorX = int(col)
			z.screenModel.UpperWindowCursorY = int(line)
			z.outputChannel <- z.screenModel
		}

	case 17: // set_text_style
		if z.Core.Version < 4 {
			return false, fault(FaultOpcode, "set_text_style requires V4+")
		}
		mask := TextStyle(op(0))
		if z.screenModel.LowerWindowActive {
			z.screenModel.LowerWindowTextStyle = mask
		} else {
			z.screenModel.UpperWindowTextStyle = mask
		}
		z.outputChannel <- z.screenModel

	case 18: // buffer_mode
		// unbuffered text-only host: no line-wrapping mode to toggle.

	case 19: // output_stream
		z.setOutputStream(int16(op(0)), instr)

	case 20: // input_stream
		// only keyboard input is supported; selecting another source is a no-op.

	case 21: // sound_effect
		// no audio device to drive; acknowledged and dropped.

	case 22: // read_char
		z.outputChannel <- WaitForCharacter
		rawText, _ := (<-z.inputChannel).(string)
		var chr uint16
		if len(rawText) > 0 {
			chr = uint16(rawText[0])
		}
		z.writeVariable(z.readByteIncPC(frame), chr, false)

	case 23: // scan_table
		form := uint16(0x82)
		if len(instr.operands) == 4 {
			form = op(3)
		}
		result := ztable.ScanTable(&z.Core, op(0), uint32(op(1)), op(2), form)
		z.writeVariable(z.readByteIncPC(frame), uint16(result), false)
		z.handleBranch(frame, result != 0)

	case 24: // not
		z.writeVariable(z.readByteIncPC(frame), ^op(0), false)

	case 25: // call_vn
		z.call(instr, procedure)

	case 26: // call_vn2
		z.call(instr, procedure)

	case 27: // tokenise
		dictToUse := z.dictionary
		leaveBlank := false
		if len(instr.operands) > 2 {
			dictToUse = dictionary.Parse(&z.Core, z.Alphabets, uint32(op(2)))
			if len(instr.operands) == 4 {
				leaveBlank = op(3) != 0
			}
		}
		dictionary.Tokenize(&z.Core, z.Alphabets, dictToUse, uint32(op(0)), uint32(op(1)), leaveBlank)

	case 28: // encode_text
		textBuf, length, from, codedBuf := uint32(op(0)), op(1), op(2), uint32(op(3))
		runes := make([]rune, 0, length)
		for i := uint16(0); i < length; i++ {
			chr, memErr := z.Core.ReadByte(textBuf + uint32(from) + uint32(i))
			if memErr != nil {
				return false, fault(FaultMemory, "%s", memErr.Error())
			}
			runes = append(runes, rune(chr))
		}
		encoded := zstring.Encode(runes, &z.Core, z.Alphabets)
		for i, b := range encoded {
			if memErr := z.Core.WriteByte(codedBuf+uint32(i), b); memErr != nil {
				return false, fault(FaultMemory, "%s", memErr.Error())
			}
		}

	case 29: // copy_table
		ztable.CopyTable(&z.Core, op(0), op(1), int16(op(2)))

	case 30: // print_table
		width := op(1)
		height, skip := uint16(1), uint16(0)
		if len(instr.operands) > 2 {
			height = op(2)
			if len(instr.operands) > 3 {
				skip = op(3)
			}
		}
		z.appendText(ztable.PrintTable(&z.Core, uint32(op(0)), width, height, skip))

	case 31: // check_arg_count
		z.handleBranch(frame, op(0) <= uint16(frame.numValuesPassed))

	default:
		return false, fault(FaultOpcode, "unimplemented VAR opcode %d at 0x%x", instr.opcodeNumber, frame.pc)
	}

	return true, nil
}

func (z *ZMachine) executeEXT(instr *Instruction, frame *CallStackFrame) (bool, *RuntimeFault) {
	op := func(i int) uint16 { return instr.operands[i].Value(z) }

	switch instr.opcodeByte {
	case 0x00: // save
		z.writeVariable(z.readByteIncPC(frame), 1, false)
		z.performSave()

	case 0x01: // restore
		ok, err := z.performRestore()
		if err != nil {
			return false, err
		}
		if !ok {
			z.writeVariable(z.readByteIncPC(frame), 0, false)
		}

	case 0x02: // log_shift
		num, places := op(0), int16(op(1))
		var result uint16
		if places >= 0 {
			result = num << uint16(places)
		} else {
			result = num >> uint16(-places)
		}
		z.writeVariable(z.readByteIncPC(frame), result, false)

	case 0x03: // art_shift
		num, places := int16(op(0)), int16(op(1))
		var result uint16
		if places >= 0 {
			result = uint16(num << uint16(places))
		} else {
			result = uint16(num >> uint16(-places))
		}
		z.writeVariable(z.readByteIncPC(frame), result, false)

	case 0x04: // set_font
		// only font 1 (normal) is supported on a text-only host.
		supported := uint16(0)
		if Font(op(0)) == FontNormal {
			supported = uint16(z.screenModel.CurrentFont)
			z.screenModel.CurrentFont = FontNormal
		}
		z.writeVariable(z.readByteIncPC(frame), supported, false)

	case 0x09: // save_undo
		z.writeVariable(z.readByteIncPC(frame), 1, false)
		z.performSaveUndo()

	case 0x0a: // restore_undo
		dest := z.readByteIncPC(frame)
		if !z.performRestoreUndo() {
			z.writeVariable(dest, 0, false)
		}

	case 0x0b: // print_unicode
		z.appendText(string(rune(op(0))))

	case 0x0c: // check_unicode
		chr := rune(op(0))
		supported := uint16(0)
		if chr >= 32 && chr < 127 {
			supported = 0b11
		} else if _, ok := zstring.UnicodeToZscii(chr, &z.Core); ok {
			supported = 0b11
		}
		z.writeVariable(z.readByteIncPC(frame), supported, false)

	case 0x0d: // set_true_colour
		fg := decodeTrueColor(int16(op(0)), z.screenModel, true)
		bg := decodeTrueColor(int16(op(1)), z.screenModel, false)
		z.applyColor(fg, bg)

	case 0x10, 0x11, 0x12, 0x13, 0x14, 0x17, 0x19, 0x1a, 0x1b: // V6 window/menu family
		z.warn("v6_opcode", "extended opcode 0x%x is a V6 windowing feature this host does not implement", instr.opcodeByte)

	case 0x15: // pop_stack (V6)
		items := op(0)
		for i := uint16(0); i < items; i++ {
			frame.pop(z.warn)
		}

	case 0x16: // read_mouse (V6)
		z.warn("v6_opcode", "read_mouse is a V6 pointing-device feature this host does not implement")

	case 0x18: // push_stack (V6)
		z.handleBranch(frame, true)

	case 0x1c: // picture_data (V6): report no picture file present
		z.handleBranch(frame, false)

	default:
		return false, fault(FaultOpcode, "unimplemented extended opcode 0x%x at 0x%x", instr.opcodeByte, frame.pc)
	}

	return true, nil
}

func (z *ZMachine) pushStatusBar() {
	location, err := zobject.GetObject(&z.Core, z.Alphabets, z.readVariable(16, false))
	placeName := ""
	if err == nil {
		placeName = location.Name
	}
	z.outputChannel <- StatusBar{
		PlaceName:   placeName,
		Score:       int(int16(z.readVariable(17, false))),
		Moves:       int(z.readVariable(18, false)),
		IsTimeBased: z.Core.StatusBarTimeBased,
	}
}

func (z *ZMachine) setColor(foreground, background uint16) {
	fg := z.screenModel.NewZMachineColor(foreground, true)
	bg := z.screenModel.NewZMachineColor(background, false)
	z.applyColor(fg, bg)
}

func (z *ZMachine) applyColor(fg, bg Color) {
	if z.screenModel.LowerWindowActive {
		z.screenModel.LowerWindowForeground = fg
		z.screenModel.LowerWindowBackground = bg
	} else {
		z.screenModel.UpperWindowForeground = fg
		z.screenModel.UpperWindowBackground = bg
	}
	z.outputChannel <- z.screenModel
}

// decodeTrueColor unpacks set_true_colour's 5-bits-per-channel BGR word (or
// its -1 "default"/-2 "current" special values) into a display Color.
func decodeTrueColor(v int16, sm ScreenModel, isForeground bool) Color {
	switch v {
	case -1:
		if isForeground {
			if sm.LowerWindowActive {
				return sm.DefaultLowerWindowForeground
			}
			return sm.DefaultUpperWindowForeground
		}
		if sm.LowerWindowActive {
			return sm.DefaultLowerWindowBackground
		}
		return sm.DefaultUpperWindowBackground
	case -2:
		if isForeground {
			return sm.LowerWindowForeground
		}
		return sm.LowerWindowBackground
	default:
		u := uint16(v)
		blue := u & 0x1f
		green := (u >> 5) & 0x1f
		red := (u >> 10) & 0x1f
		scale := func(c uint16) int { return int(c) * 255 / 31 }
		return Color{scale(red), scale(green), scale(blue)}
	}
}

func (z *ZMachine) setOutputStream(stream int16, instr *Instruction) {
	switch stream {
	case 1, -1:
		z.streams.Screen = stream > 0
	case 2, -2:
		z.streams.Transcript = stream > 0
	case 3:
		tableAddr := instr.operands[1].Value(z)
		z.streams.Memory = true
		z.streams.MemoryStreamData = append(z.streams.MemoryStreamData, MemoryStreamData{
			baseAddress: uint32(tableAddr),
			ptr:         uint32(tableAddr) + 2,
		})
	case -3:
		if z.streams.Memory {
			top := z.streams.MemoryStreamData[len(z.streams.MemoryStreamData)-1]
			z.Core.WriteWord(top.baseAddress, uint16(top.ptr-top.baseAddress-2))
			z.streams.MemoryStreamData = z.streams.MemoryStreamData[:len(z.streams.MemoryStreamData)-1]
			if len(z.streams.MemoryStreamData) == 0 {
				z.streams.Memory = false
			}
		}
	case 4, -4:
		z.streams.CommandScript = stream > 0
	default:
		z.warn("unsupported_output_stream", "output_stream %d is not a supported stream", stream)
	}
}
