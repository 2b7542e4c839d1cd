package synch

import "github.com/viant/procos/task"

// Condvar is a wait queue used together with a caller supplied mutex.
type Condvar struct {
	sched   Scheduler
	waiters WaitQueue
}

// NewCondvar creates a condition variable.
func NewCondvar(sched Scheduler) *Condvar {
	return &Condvar{sched: sched}
}

// Signal wakes the longest waiter; without waiters it does nothing.
func (c *Condvar) Signal() {
	if next := c.waiters.Pop(); next != nil {
		c.sched.Wake(next)
	}
}

// Wait releases m and blocks t. The mutex is not reacquired on wake.
func (c *Condvar) Wait(t *task.Thread, m task.Mutex) {
	m.Unlock(t)
	c.waiters.Push(t)
	c.sched.Block(t)
}

// Waiting returns the number of queued threads.
func (c *Condvar) Waiting() int { return c.waiters.Len() }

var _ task.Condvar = (*Condvar)(nil)
