package task

import "github.com/viant/procos/abi"

// TrapContext is the saved user context of a thread.
type TrapContext struct {
	X [32]uint64
	// PC is where the thread resumes in user mode.
	PC abi.Program
	// Entry is the program counter staged by abi.CPU.SetEntry.
	Entry abi.Program
}

// NewTrapContext returns a context starting at entry with the given stack pointer.
func NewTrapContext(entry abi.Program, sp uint64) TrapContext {
	ret := TrapContext{PC: entry}
	ret.X[abi.RegSP] = sp
	return ret
}
