package kernel

import (
	"fmt"

	"github.com/viant/procos/deadlock"
	"github.com/viant/procos/internal/debug"
	"github.com/viant/procos/internal/slot"
	"github.com/viant/procos/progress"
	"github.com/viant/procos/synch"
	"github.com/viant/procos/task"
)

func lookup[T any](table *slot.Table[T], kind string, id int) (T, error) {
	v, err := table.Lookup(id)
	if err != nil {
		return v, fmt.Errorf("%v %d: %w", kind, id, ErrInvalidArgument)
	}
	return v, nil
}

func (k *Kernel) refuse(p *task.Process, t *task.Thread, resource int) error {
	k.update(progress.Delta{Refusals: 1})
	k.publish(Lifecycle{Type: EventDeadlock, PID: p.PID, TID: t.TID(), ParentPID: parentPID(p), Resource: resource})
	debug.DPrintf(debug.DEADLOCK, "refused %v resource %d", t, resource)
	return deadlock.ErrDeadlock
}

// EnableDeadlockDetect toggles deadlock detection for t's process.
func (k *Kernel) EnableDeadlockDetect(t *task.Thread, enabled bool) {
	p := t.Process()
	p.Lock()
	p.DeadlockDetect = enabled
	p.Unlock()
}

// MutexCreate adds a mutex to t's process and returns its id.
func (k *Kernel) MutexCreate(t *task.Thread, blocking bool) int {
	var m task.Mutex
	if blocking {
		m = synch.NewMutexBlocking(k.hart)
	} else {
		m = synch.NewMutexSpin(k.hart)
	}
	p := t.Process()
	p.Lock()
	defer p.Unlock()
	return p.Mutexes.Insert(m)
}

// MutexLock acquires mutex id. With detection enabled a held mutex is
// refused with deadlock.ErrDeadlock instead of waiting.
func (k *Kernel) MutexLock(t *task.Thread, id int) error {
	p := t.Process()
	p.Lock()
	m, err := lookup(&p.Mutexes, "mutex", id)
	if err != nil {
		p.Unlock()
		return err
	}
	if err = deadlock.CheckMutex(p.DeadlockDetect, m.Locked()); err != nil {
		p.Unlock()
		return k.refuse(p, t, id)
	}
	p.Unlock()
	m.Lock(t)
	return nil
}

// MutexUnlock releases mutex id.
func (k *Kernel) MutexUnlock(t *task.Thread, id int) error {
	p := t.Process()
	p.Lock()
	m, err := lookup(&p.Mutexes, "mutex", id)
	p.Unlock()
	if err != nil {
		return err
	}
	m.Unlock(t)
	return nil
}

// MutexFree empties slot id so the next create may reuse it.
func (k *Kernel) MutexFree(t *task.Thread, id int) error {
	p := t.Process()
	p.Lock()
	defer p.Unlock()
	if _, ok := p.Mutexes.Remove(id); !ok {
		return fmt.Errorf("mutex %d: %w", id, ErrInvalidArgument)
	}
	return nil
}

// SemaphoreCreate adds a semaphore holding count units and returns its id.
func (k *Kernel) SemaphoreCreate(t *task.Thread, count int) int {
	s := synch.NewSemaphore(k.hart, count)
	p := t.Process()
	p.Lock()
	defer p.Unlock()
	return p.Semaphores.Insert(s)
}

// SemaphoreUp releases one unit of semaphore id.
func (k *Kernel) SemaphoreUp(t *task.Thread, id int) error {
	p := t.Process()
	p.Lock()
	s, err := lookup(&p.Semaphores, "semaphore", id)
	if err != nil {
		p.Unlock()
		return err
	}
	if id != 0 {
		t.AddHeld(id, -1)
	}
	p.Unlock()
	s.Up(t)
	return nil
}

// SemaphoreDown acquires one unit of semaphore id. With detection enabled and
// id != 0 the request is refused with deadlock.ErrDeadlock unless the
// process stays in a safe state.
func (k *Kernel) SemaphoreDown(t *task.Thread, id int) error {
	p := t.Process()
	p.Lock()
	s, err := lookup(&p.Semaphores, "semaphore", id)
	if err != nil {
		p.Unlock()
		return err
	}
	if id != 0 {
		t.SetNeed(id)
		if p.DeadlockDetect {
			if err = deadlock.CheckSemaphore(available(p), demands(p)); err != nil {
				t.SetNeed(0)
				p.Unlock()
				return k.refuse(p, t, id)
			}
		}
	}
	p.Unlock()
	s.Down(t)
	if id != 0 {
		p.Lock()
		t.SetNeed(0)
		t.AddHeld(id, 1)
		p.Unlock()
	}
	return nil
}

// SemaphoreFree empties slot id so the next create may reuse it.
func (k *Kernel) SemaphoreFree(t *task.Thread, id int) error {
	p := t.Process()
	p.Lock()
	defer p.Unlock()
	if _, ok := p.Semaphores.Remove(id); !ok {
		return fmt.Errorf("semaphore %d: %w", id, ErrInvalidArgument)
	}
	return nil
}

// available snapshots semaphore counts indexed by id. Caller holds p.
func available(p *task.Process) []int {
	ret := make([]int, p.Semaphores.Cap())
	p.Semaphores.Range(func(id int, s task.Semaphore) bool {
		ret[id] = s.Count()
		return true
	})
	return ret
}

// demands snapshots every thread's need and held units. Caller holds p.
func demands(p *task.Process) []deadlock.Demand {
	ret := make([]deadlock.Demand, 0, p.Threads.Len())
	p.Threads.Range(func(_ int, t *task.Thread) bool {
		ret = append(ret, deadlock.Demand{Need: t.Need(), Held: t.HeldVector()})
		return true
	})
	return ret
}

// CondvarCreate adds a condition variable and returns its id.
func (k *Kernel) CondvarCreate(t *task.Thread) int {
	c := synch.NewCondvar(k.hart)
	p := t.Process()
	p.Lock()
	defer p.Unlock()
	return p.Condvars.Insert(c)
}

// CondvarSignal wakes one waiter of condvar id.
func (k *Kernel) CondvarSignal(t *task.Thread, id int) error {
	p := t.Process()
	p.Lock()
	c, err := lookup(&p.Condvars, "condvar", id)
	p.Unlock()
	if err != nil {
		return err
	}
	c.Signal()
	return nil
}

// CondvarWait releases mutex mutexID and waits on condvar id. The mutex is
// not reacquired.
func (k *Kernel) CondvarWait(t *task.Thread, id, mutexID int) error {
	p := t.Process()
	p.Lock()
	c, err := lookup(&p.Condvars, "condvar", id)
	if err != nil {
		p.Unlock()
		return err
	}
	m, err := lookup(&p.Mutexes, "mutex", mutexID)
	p.Unlock()
	if err != nil {
		return err
	}
	c.Wait(t, m)
	return nil
}
