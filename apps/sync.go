package apps

import (
	"github.com/viant/procos/abi"
	"github.com/viant/procos/mm"
	"github.com/viant/procos/user"
)

func mapScratch(env *user.Env) bool {
	return env.Mmap(ScratchBase, mm.PageSize, abi.PermR|abi.PermW) == 0
}

// word returns the address of the i-th scratch word.
func word(i int) uint64 { return ScratchBase + uint64(i)*8 }

// Threads creates threads that exit with their argument plus their tid and
// collects the codes with waittid.
func Threads(cpu abi.CPU) int {
	env := user.New(cpu)
	if env.GetTid() != 0 {
		return 1
	}
	if env.TryWaitTid(0) != abi.RetError || env.TryWaitTid(9) != abi.RetError {
		return 2
	}
	worker := func(cpu abi.CPU) int {
		env := user.New(cpu)
		arg := env.Arg()
		return int(arg) + int(env.GetTid())
	}
	var tids []int64
	for _, arg := range []uint64{10, 20, 30} {
		tid := env.ThreadCreate(worker, arg)
		if tid <= 0 {
			return 3
		}
		tids = append(tids, tid)
	}
	for i, tid := range tids {
		if env.WaitTid(tid) != int64((i+1)*10)+tid {
			return 4
		}
	}
	if env.TryWaitTid(tids[0]) != abi.RetError {
		return 5
	}
	return 0
}

// MutexCounter has two threads increment a shared word under a blocking
// mutex, yielding inside the critical section.
func MutexCounter(cpu abi.CPU) int { return counter(cpu, true) }

// SpinCounter is MutexCounter with a spin mutex.
func SpinCounter(cpu abi.CPU) int { return counter(cpu, false) }

func counter(cpu abi.CPU, blocking bool) int {
	env := user.New(cpu)
	if !mapScratch(env) {
		return 1
	}
	id := env.MutexCreate(blocking)
	worker := func(cpu abi.CPU) int {
		env := user.New(cpu)
		for i := 0; i < Iterations; i++ {
			if env.MutexLock(id) != 0 {
				return 1
			}
			v := env.LoadU64(word(0))
			env.Yield()
			env.StoreU64(word(0), v+1)
			env.MutexUnlock(id)
		}
		return 0
	}
	a := env.ThreadCreate(worker, 0)
	b := env.ThreadCreate(worker, 0)
	if env.WaitTid(a) != 0 || env.WaitTid(b) != 0 {
		return 2
	}
	if env.LoadU64(word(0)) != 2*Iterations {
		return 3
	}
	return 0
}

// Semaphore checks that waiters are woken in the order they blocked.
func Semaphore(cpu abi.CPU) int {
	const waiters = 3
	env := user.New(cpu)
	if !mapScratch(env) {
		return 1
	}
	sem := env.SemaphoreCreate(0)
	worker := func(cpu abi.CPU) int {
		env := user.New(cpu)
		tid := env.GetTid()
		env.StoreU64(word(0), env.LoadU64(word(0))+1)
		if env.SemaphoreDown(sem) != 0 {
			return 1
		}
		n := env.LoadU64(word(1))
		env.StoreU64(word(2+int(n)), uint64(tid))
		env.StoreU64(word(1), n+1)
		return 0
	}
	var tids []int64
	for i := 0; i < waiters; i++ {
		tids = append(tids, env.ThreadCreate(worker, 0))
	}
	for env.LoadU64(word(0)) < waiters {
		env.Yield()
	}
	for i := 0; i < waiters; i++ {
		env.SemaphoreUp(sem)
	}
	for _, tid := range tids {
		if env.WaitTid(tid) != 0 {
			return 2
		}
	}
	for i, tid := range tids {
		if env.LoadU64(word(2+i)) != uint64(tid) {
			return 3
		}
	}
	return 0
}

// Condvar has a thread wait for a flag under a mutex.
func Condvar(cpu abi.CPU) int {
	env := user.New(cpu)
	if !mapScratch(env) {
		return 1
	}
	m := env.MutexCreate(true)
	c := env.CondvarCreate()
	if env.CondvarSignal(c) != 0 {
		return 2
	}
	waiter := func(cpu abi.CPU) int {
		env := user.New(cpu)
		env.MutexLock(m)
		for env.LoadU64(word(0)) == 0 {
			env.StoreU64(word(1), 1)
			env.CondvarWait(c, m)
			env.MutexLock(m)
		}
		env.MutexUnlock(m)
		return 0
	}
	tid := env.ThreadCreate(waiter, 0)
	for env.LoadU64(word(1)) == 0 {
		env.Yield()
	}
	env.MutexLock(m)
	env.StoreU64(word(0), 1)
	env.CondvarSignal(c)
	env.MutexUnlock(m)
	if env.WaitTid(tid) != 0 {
		return 3
	}
	if env.CondvarWait(c+1, m) != abi.RetError {
		return 4
	}
	return 0
}

// Deadlock checks both detectors. The mutex check refuses any locked mutex;
// the semaphore check refuses the request that closes a hold-and-wait cycle.
func Deadlock(cpu abi.CPU) int {
	env := user.New(cpu)
	if !mapScratch(env) {
		return 1
	}
	env.EnableDeadlockDetect(true)

	m := env.MutexCreate(true)
	env.MutexLock(m)
	locker := func(cpu abi.CPU) int {
		return int(-user.New(cpu).MutexLock(m))
	}
	if tid := env.ThreadCreate(locker, 0); env.WaitTid(tid) != -abi.RetDeadlock {
		return 2
	}
	env.MutexUnlock(m)

	env.SemaphoreCreate(1)
	s1 := env.SemaphoreCreate(1)
	s2 := env.SemaphoreCreate(1)
	// word 0: a holds s1, word 1: b holds s2, word 2: result of b's request
	a := func(cpu abi.CPU) int {
		env := user.New(cpu)
		env.SemaphoreDown(s1)
		env.StoreU64(word(0), 1)
		for env.LoadU64(word(1)) == 0 {
			env.Yield()
		}
		ret := env.SemaphoreDown(s2)
		env.SemaphoreUp(s2)
		env.SemaphoreUp(s1)
		return int(-ret)
	}
	b := func(cpu abi.CPU) int {
		env := user.New(cpu)
		env.SemaphoreDown(s2)
		env.StoreU64(word(1), 1)
		for env.LoadU64(word(0)) == 0 {
			env.Yield()
		}
		// a is now blocked on s2 while holding s1
		for env.LoadU64(word(3)) == 0 {
			env.StoreU64(word(3), 1)
			env.Yield()
		}
		ret := env.SemaphoreDown(s1)
		env.StoreU64(word(2), uint64(-ret))
		env.SemaphoreUp(s2)
		return 0
	}
	ta := env.ThreadCreate(a, 0)
	tb := env.ThreadCreate(b, 0)
	if env.WaitTid(ta) != 0 || env.WaitTid(tb) != 0 {
		return 3
	}
	if int64(env.LoadU64(word(2))) != -abi.RetDeadlock {
		return 4
	}
	env.EnableDeadlockDetect(false)
	if env.MutexLock(m) != 0 {
		return 5
	}
	return 0
}

// Stride runs two threads with priorities 5 and 10 until they made
// 3000 turns together and checks the CPU share follows the weights.
func Stride(cpu abi.CPU) int {
	const turns = 3000
	env := user.New(cpu)
	if !mapScratch(env) {
		return 1
	}
	spinner := func(cpu abi.CPU) int {
		env := user.New(cpu)
		slot := int(env.Arg())
		env.SetPriority(int64(5 * (slot + 1)))
		for env.LoadU64(word(0))+env.LoadU64(word(1)) < turns {
			env.StoreU64(word(slot), env.LoadU64(word(slot))+1)
			env.Yield()
		}
		return 0
	}
	low := env.ThreadCreate(spinner, 0)
	high := env.ThreadCreate(spinner, 1)
	env.SetPriority(2)
	if env.WaitTid(low) != 0 || env.WaitTid(high) != 0 {
		return 2
	}
	lo, hi := env.LoadU64(word(0)), env.LoadU64(word(1))
	if lo == 0 || hi*10 < lo*17 || hi*10 > lo*23 {
		return 3
	}
	return 0
}
