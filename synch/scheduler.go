package synch

import "github.com/viant/procos/task"

// Scheduler is the part of the hart the primitives depend on.
type Scheduler interface {
	// Block suspends t, the running thread, until Wake(t).
	Block(t *task.Thread)
	// Wake makes a blocked thread ready.
	Wake(t *task.Thread)
	// Yield lets other ready threads run before t continues.
	Yield(t *task.Thread)
}

// WaitQueue is a FIFO of blocked threads.
type WaitQueue struct {
	threads []*task.Thread
}

// Push appends t.
func (q *WaitQueue) Push(t *task.Thread) {
	q.threads = append(q.threads, t)
}

// Pop removes the longest waiting live thread, skipping zombies.
func (q *WaitQueue) Pop() *task.Thread {
	for len(q.threads) > 0 {
		t := q.threads[0]
		q.threads[0] = nil
		q.threads = q.threads[1:]
		if t.Status() != task.Zombie {
			return t
		}
	}
	return nil
}

// Len returns the number of queued threads, zombies included.
func (q *WaitQueue) Len() int { return len(q.threads) }
