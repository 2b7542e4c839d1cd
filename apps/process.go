package apps

import (
	"github.com/viant/procos/abi"
	"github.com/viant/procos/mm"
	"github.com/viant/procos/user"
)

// Exit7 exits with 7.
func Exit7(cpu abi.CPU) int {
	user.New(cpu).Exit(7)
	return 0
}

// Fault writes to an unmapped address and is killed with abi.ExitFault.
func Fault(cpu abi.CPU) int {
	cpu.Store(0, []byte{1})
	return 0
}

// ForkTest forks children exiting with distinct codes and checks that each
// is reaped once with the code it exited with.
func ForkTest(cpu abi.CPU) int {
	const children = 8
	env := user.New(cpu)
	pids := map[int64]int{}
	for i := 1; i <= children; i++ {
		code := i
		pid := env.Fork(func(cpu abi.CPU) int {
			if user.New(cpu).Arg() != 0 {
				return 100
			}
			return code
		})
		if pid <= 0 {
			return 1
		}
		pids[pid] = code
	}
	for range pids {
		code := 0
		pid := env.Wait(&code)
		expect, ok := pids[pid]
		if !ok || code != expect {
			return 2
		}
		delete(pids, pid)
	}
	if env.Wait(nil) != abi.RetError {
		return 3
	}
	return 0
}

// Sleep checks that sleep(100) lasts at least 100ms.
func Sleep(cpu abi.CPU) int {
	env := user.New(cpu)
	start := env.Millis()
	if env.Sleep(100) != 0 {
		return 1
	}
	if env.Millis()-start < 100 {
		return 2
	}
	return 0
}

// Mmap exercises mmap and munmap argument checking.
func Mmap(cpu abi.CPU) int {
	env := user.New(cpu)
	rw := uint64(abi.PermR | abi.PermW)
	checks := []struct {
		ret    int64
		expect int64
	}{
		{env.Mmap(ScratchBase, 2*mm.PageSize, rw), 0},
		{env.Mmap(ScratchBase+mm.PageSize, mm.PageSize, rw), abi.RetError},
		{env.Mmap(ScratchBase+3*mm.PageSize+1, mm.PageSize, rw), abi.RetError},
		{env.Mmap(ScratchBase+4*mm.PageSize, mm.PageSize, 0), abi.RetError},
		{env.Mmap(ScratchBase+4*mm.PageSize, mm.PageSize, 8), abi.RetError},
		{env.Mmap(ScratchBase+4*mm.PageSize, 0, rw), 0},
	}
	for i, check := range checks {
		if check.ret != check.expect {
			return 1 + i
		}
	}
	env.StoreU64(ScratchBase+mm.PageSize+8, 0xfeed)
	if env.LoadU64(ScratchBase+mm.PageSize+8) != 0xfeed {
		return 10
	}
	if env.Munmap(ScratchBase, 2*mm.PageSize) != 0 {
		return 11
	}
	if env.Munmap(ScratchBase, 2*mm.PageSize) != abi.RetError {
		return 12
	}
	return 0
}

// Sbrk grows and shrinks the heap.
func Sbrk(cpu abi.CPU) int {
	env := user.New(cpu)
	old := env.Sbrk(0)
	if old <= 0 {
		return 1
	}
	if env.Sbrk(mm.PageSize) != old {
		return 2
	}
	env.StoreU64(uint64(old), 42)
	if env.LoadU64(uint64(old)) != 42 {
		return 3
	}
	if env.Sbrk(-mm.PageSize) != old+mm.PageSize {
		return 4
	}
	if env.Sbrk(-(old + mm.PageSize)) != abi.RetError {
		return 5
	}
	if env.Sbrk(0) != old {
		return 6
	}
	return 0
}

// Priority checks set_priority bounds and task_info accounting.
func Priority(cpu abi.CPU) int {
	env := user.New(cpu)
	if env.SetPriority(1) != abi.RetError {
		return 1
	}
	if env.SetPriority(5) != 5 {
		return 2
	}
	info, ret := env.TaskInfo()
	if ret != 0 || info == nil {
		return 3
	}
	if info.Status != 2 || info.SyscallTimes[abi.SysSetPriority] != 2 || info.SyscallTimes[abi.SysTaskInfo] != 1 {
		return 4
	}
	return 0
}
