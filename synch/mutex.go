package synch

import (
	"github.com/viant/procos/internal/debug"
	"github.com/viant/procos/task"
)

// MutexSpin yields until the mutex is free. Waiters are not ordered.
type MutexSpin struct {
	sched  Scheduler
	locked bool
	owner  *task.Thread
}

// NewMutexSpin creates an unlocked spinning mutex.
func NewMutexSpin(sched Scheduler) *MutexSpin {
	return &MutexSpin{sched: sched}
}

func (m *MutexSpin) Lock(t *task.Thread) {
	for m.locked {
		m.sched.Yield(t)
	}
	m.locked = true
	m.owner = t
}

func (m *MutexSpin) Unlock(t *task.Thread) {
	m.locked = false
	m.owner = nil
}

func (m *MutexSpin) Locked() bool { return m.locked }

// Owner returns the holding thread, nil when unlocked.
func (m *MutexSpin) Owner() *task.Thread { return m.owner }

// MutexBlocking queues contending threads in FIFO order. Unlock hands the
// mutex directly to the head waiter.
type MutexBlocking struct {
	sched   Scheduler
	locked  bool
	owner   *task.Thread
	waiters WaitQueue
}

// NewMutexBlocking creates an unlocked blocking mutex.
func NewMutexBlocking(sched Scheduler) *MutexBlocking {
	return &MutexBlocking{sched: sched}
}

func (m *MutexBlocking) Lock(t *task.Thread) {
	if m.locked {
		m.waiters.Push(t)
		debug.DPrintf(debug.SYNC, "mutex: %v waits behind %v", t, m.owner)
		m.sched.Block(t)
		return
	}
	m.locked = true
	m.owner = t
}

func (m *MutexBlocking) Unlock(t *task.Thread) {
	if next := m.waiters.Pop(); next != nil {
		m.owner = next
		debug.DPrintf(debug.SYNC, "mutex: %v hands off to %v", t, next)
		m.sched.Wake(next)
		return
	}
	m.locked = false
	m.owner = nil
}

func (m *MutexBlocking) Locked() bool { return m.locked }

// Owner returns the holding thread, nil when unlocked.
func (m *MutexBlocking) Owner() *task.Thread { return m.owner }

// Waiting returns the number of queued threads.
func (m *MutexBlocking) Waiting() int { return m.waiters.Len() }

var (
	_ task.Mutex = (*MutexSpin)(nil)
	_ task.Mutex = (*MutexBlocking)(nil)
)
