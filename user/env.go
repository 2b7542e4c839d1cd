// Package user is the library user programs link against: thin wrappers
// that marshal arguments into registers and user memory before trapping.
package user

import (
	"encoding/binary"

	"github.com/viant/procos/abi"
)

// scratchGap keeps scratch buffers clear of the live part of the stack.
const scratchGap = 256

// Env wraps the CPU a program runs on.
type Env struct {
	cpu abi.CPU
}

// New creates an Env for cpu.
func New(cpu abi.CPU) *Env { return &Env{cpu: cpu} }

// CPU returns the underlying CPU.
func (e *Env) CPU() abi.CPU { return e.cpu }

// Arg returns the argument a thread was created with, or the fork return
// value in a forked child, as long as no syscall was made yet.
func (e *Env) Arg() uint64 { return e.cpu.Reg(abi.RegA0) }

func (e *Env) syscall(id uint64, args ...uint64) int64 {
	var a [3]uint64
	copy(a[:], args)
	return e.cpu.Syscall(id, a[0], a[1], a[2])
}

// scratch returns a user address with room for n bytes below the stack pointer.
func (e *Env) scratch(n int) uint64 {
	return (e.cpu.Reg(abi.RegSP) - scratchGap - uint64(n)) &^ 7
}

func (e *Env) cstring(s string) uint64 {
	va := e.scratch(len(s) + 1)
	e.cpu.Store(va, append([]byte(s), 0))
	return va
}

// Exit terminates the calling thread, and the process when called from the
// main thread.
func (e *Env) Exit(code int) {
	e.syscall(abi.SysExit, uint64(int64(code)))
}

func (e *Env) Yield() int64 { return e.syscall(abi.SysYield) }

func (e *Env) GetPid() int64 { return e.syscall(abi.SysGetPid) }

// Fork duplicates the process. The child runs child with Arg() == 0; the
// parent gets the child pid.
func (e *Env) Fork(child abi.Program) int64 {
	e.cpu.SetEntry(child)
	return e.syscall(abi.SysFork)
}

// Exec replaces the running image. It returns only on failure.
func (e *Env) Exec(name string) int64 {
	return e.syscall(abi.SysExec, e.cstring(name))
}

func (e *Env) Spawn(name string) int64 {
	return e.syscall(abi.SysSpawn, e.cstring(name))
}

// TryWaitPid reaps a zombie child matching pid (-1 for any) without waiting.
// The exit code is stored in code when the call succeeds.
func (e *Env) TryWaitPid(pid int, code *int) int64 {
	va := e.scratch(abi.ExitCodeSize)
	ret := e.syscall(abi.SysWaitPid, uint64(int64(pid)), va)
	if ret >= 0 && code != nil {
		buf := make([]byte, abi.ExitCodeSize)
		e.cpu.Load(va, buf)
		*code = abi.DecodeExitCode(buf)
	}
	return ret
}

// WaitPid yields until a child matching pid exits or none is left.
func (e *Env) WaitPid(pid int, code *int) int64 {
	for {
		ret := e.TryWaitPid(pid, code)
		if ret != abi.RetStillRunning {
			return ret
		}
		e.Yield()
	}
}

// Wait reaps any child.
func (e *Env) Wait(code *int) int64 { return e.WaitPid(-1, code) }

func (e *Env) GetTime() (abi.TimeVal, int64) {
	va := e.scratch(abi.TimeValSize)
	ret := e.syscall(abi.SysGetTime, va)
	buf := make([]byte, abi.TimeValSize)
	e.cpu.Load(va, buf)
	tv, _ := abi.DecodeTimeVal(buf)
	return tv, ret
}

// Millis returns the current time in milliseconds.
func (e *Env) Millis() uint64 {
	tv, _ := e.GetTime()
	return tv.Millis()
}

func (e *Env) TaskInfo() (*abi.TaskInfo, int64) {
	va := e.scratch(abi.TaskInfoSize)
	ret := e.syscall(abi.SysTaskInfo, va)
	buf := make([]byte, abi.TaskInfoSize)
	e.cpu.Load(va, buf)
	info, _ := abi.DecodeTaskInfo(buf)
	return info, ret
}

func (e *Env) SetPriority(priority int64) int64 {
	return e.syscall(abi.SysSetPriority, uint64(priority))
}

func (e *Env) Sleep(ms int64) int64 { return e.syscall(abi.SysSleep, uint64(ms)) }

func (e *Env) Sbrk(delta int64) int64 { return e.syscall(abi.SysSbrk, uint64(delta)) }

func (e *Env) Mmap(start, length uint64, port uint64) int64 {
	return e.syscall(abi.SysMmap, start, length, port)
}

func (e *Env) Munmap(start, length uint64) int64 {
	return e.syscall(abi.SysMunmap, start, length)
}

func (e *Env) EnableDeadlockDetect(enabled bool) int64 {
	var flag uint64
	if enabled {
		flag = 1
	}
	return e.syscall(abi.SysEnableDeadlockDetect, flag)
}

// ThreadCreate starts entry in a new thread of this process with arg.
func (e *Env) ThreadCreate(entry abi.Program, arg uint64) int64 {
	e.cpu.SetEntry(entry)
	return e.syscall(abi.SysThreadCreate, arg)
}

func (e *Env) GetTid() int64 { return e.syscall(abi.SysGetTid) }

// TryWaitTid returns the exit code of thread tid, or a negative sentinel.
func (e *Env) TryWaitTid(tid int64) int64 { return e.syscall(abi.SysWaitTid, uint64(tid)) }

// WaitTid yields until thread tid exits.
func (e *Env) WaitTid(tid int64) int64 {
	for {
		ret := e.TryWaitTid(tid)
		if ret != abi.RetStillRunning {
			return ret
		}
		e.Yield()
	}
}

func (e *Env) MutexCreate(blocking bool) int64 {
	var flag uint64
	if blocking {
		flag = 1
	}
	return e.syscall(abi.SysMutexCreate, flag)
}

func (e *Env) MutexLock(id int64) int64 { return e.syscall(abi.SysMutexLock, uint64(id)) }

func (e *Env) MutexUnlock(id int64) int64 { return e.syscall(abi.SysMutexUnlock, uint64(id)) }

func (e *Env) SemaphoreCreate(count int64) int64 {
	return e.syscall(abi.SysSemaphoreCreate, uint64(count))
}

func (e *Env) SemaphoreUp(id int64) int64 { return e.syscall(abi.SysSemaphoreUp, uint64(id)) }

func (e *Env) SemaphoreDown(id int64) int64 { return e.syscall(abi.SysSemaphoreDown, uint64(id)) }

func (e *Env) CondvarCreate() int64 { return e.syscall(abi.SysCondvarCreate) }

func (e *Env) CondvarSignal(id int64) int64 { return e.syscall(abi.SysCondvarSignal, uint64(id)) }

func (e *Env) CondvarWait(id, mutexID int64) int64 {
	return e.syscall(abi.SysCondvarWait, uint64(id), uint64(mutexID))
}

// LoadU64 reads a little-endian word of user memory.
func (e *Env) LoadU64(va uint64) uint64 {
	buf := make([]byte, 8)
	e.cpu.Load(va, buf)
	return binary.LittleEndian.Uint64(buf)
}

// StoreU64 writes a little-endian word of user memory.
func (e *Env) StoreU64(va, v uint64) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, v)
	e.cpu.Store(va, buf)
}
