package zmachine

import "github.com/halvorsen-dev/zterp/quetzal"

// performSave builds a Quetzal save file of the machine's complete current
// state and asks the host to persist it. Must be called after
// the save opcode's own result has already been written or branched, so the
// captured program counter resumes exactly where a successful save left off.
// A host-reported failure is surfaced as a warning rather than changing the
// story-visible result, matching this environment's documented save_undo
// behaviour of always reporting success to the game.
func (z *ZMachine) performSave() {
	state := quetzal.SaveState{
		Release:               z.Core.ReleaseNumber,
		Serial:                z.Core.SerialNumber,
		Checksum:              z.Core.FileChecksum(),
		InitialPC:             z.callStack.peek().pc,
		OriginalDynamicMemory: z.Core.OriginalDynamicMemory(),
		DynamicMemory:         z.Core.DynamicMemory(),
		Frames:                z.encodeFrames(),
	}

	data, err := quetzal.Write(state)
	if err != nil {
		z.warn("save_encode_failed", "%s", err.Error())
		return
	}

	z.outputChannel <- SaveRequest{Data: data}
	resp, _ := (<-z.inputChannel).(SaveResponse)
	if !resp.Success {
		z.warn("save_rejected", "the host reported this save as unsuccessful")
	}
}

// performRestore asks the host for a previously saved file and, if present
// and compatible with the running story, reinstates it wholesale: dynamic
// memory, the call stack, and the program counter. Restore never "returns"
// to its own call site on success - control resumes from the PC recorded at
// save time.
func (z *ZMachine) performRestore() (bool, *RuntimeFault) {
	z.outputChannel <- RestoreRequest{}
	resp, _ := (<-z.inputChannel).(RestoreResponse)
	if !resp.Success {
		return false, nil
	}

	state, err := quetzal.Read(resp.Data, z.Core.OriginalDynamicMemory())
	if err != nil {
		z.warn("restore_failed", "%s", err.Error())
		return false, nil
	}
	if !state.Compatible(z.Core.ReleaseNumber, z.Core.SerialNumber, z.Core.FileChecksum()) {
		z.warn("restore_failed", "save file does not match the running story")
		return false, nil
	}
	if f := z.Core.SetDynamicMemory(state.DynamicMemory); f != nil {
		z.warn("restore_failed", "%s", f.Error())
		return false, nil
	}

	z.callStack = CallStack{frames: z.decodeFrames(state.Frames)}
	z.callStack.peek().pc = state.InitialPC
	return true, nil
}

func (z *ZMachine) encodeFrames() []quetzal.Frame {
	frames := z.callStack.frames
	out := make([]quetzal.Frame, len(frames))
	for i, f := range frames {
		discard := i == 0 || f.routineType != function
		var storeVar uint8
		var returnPC uint32
		if i > 0 {
			returnPC = frames[i-1].pc
			if !discard {
				storeVar = z.Core.MustReadByte(returnPC)
			}
		}
		out[i] = quetzal.Frame{
			ReturnPC: returnPC,
			Locals:   append([]uint16(nil), f.locals...),
			Stack:    append([]uint16(nil), f.routineStack...),
			StoreVar: storeVar,
			Discard:  discard,
			ArgCount: uint8(f.numValuesPassed),
		}
	}
	return out
}

func (z *ZMachine) decodeFrames(frames []quetzal.Frame) []CallStackFrame {
	out := make([]CallStackFrame, len(frames))
	for i, f := range frames {
		routineType := function
		if f.Discard {
			routineType = procedure
		}
		out[i] = CallStackFrame{
			locals:          append([]uint16(nil), f.Locals...),
			routineStack:    append([]uint16(nil), f.Stack...),
			routineType:     routineType,
			numValuesPassed: int(f.ArgCount),
		}
		if i > 0 {
			out[i-1].pc = f.ReturnPC
		}
	}
	return out
}

// performSaveUndo/performRestoreUndo implement save_undo/restore_undo: a
// single-slot, in-process snapshot that never touches the host.
// Unlike file save/restore this can hold the live call stack directly.
func (z *ZMachine) performSaveUndo() {
	z.undoStates = append(z.undoStates[:0], undoState{
		dynamicMemory: append([]byte(nil), z.Core.DynamicMemory()...),
		callStack:     z.callStack.copy(),
		streams:       z.streams,
	})
}

func (z *ZMachine) performRestoreUndo() bool {
	if len(z.undoStates) == 0 {
		return false
	}
	snap := z.undoStates[len(z.undoStates)-1]
	z.Core.SetDynamicMemory(snap.dynamicMemory)
	z.callStack = snap.callStack.copy()
	z.streams = snap.streams
	return true
}
