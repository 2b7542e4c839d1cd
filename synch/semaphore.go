package synch

import "github.com/viant/procos/task"

// Semaphore is a non-negative counter with a FIFO wait queue. Up hands its
// unit directly to the longest waiter instead of incrementing the count.
type Semaphore struct {
	sched   Scheduler
	count   int
	waiters WaitQueue
}

// NewSemaphore creates a semaphore holding count units.
func NewSemaphore(sched Scheduler, count int) *Semaphore {
	if count < 0 {
		count = 0
	}
	return &Semaphore{sched: sched, count: count}
}

func (s *Semaphore) Up(t *task.Thread) {
	if next := s.waiters.Pop(); next != nil {
		s.sched.Wake(next)
		return
	}
	s.count++
}

func (s *Semaphore) Down(t *task.Thread) {
	if s.count > 0 {
		s.count--
		return
	}
	s.waiters.Push(t)
	s.sched.Block(t)
}

func (s *Semaphore) Count() int { return s.count }

// Waiting returns the number of queued threads.
func (s *Semaphore) Waiting() int { return s.waiters.Len() }

var _ task.Semaphore = (*Semaphore)(nil)
