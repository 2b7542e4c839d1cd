// Package sched implements the ready queue as a stride scheduler: each
// runnable entity carries a pass value, the entity with the smallest pass
// runs next and its pass then advances by BigStride/priority. Higher priority
// therefore means a larger CPU share without strict preemption.
package sched

import "container/heap"

// DefaultBigStride is the stride numerator.
const DefaultBigStride = 1 << 20

// Entity is a schedulable unit.
type Entity interface {
	comparable
	Priority() int64
	Pass() uint64
	SetPass(pass uint64)
}

type item[T Entity] struct {
	entity T
	seq    uint64
	index  int
}

type readyHeap[T Entity] []*item[T]

func (h readyHeap[T]) Len() int { return len(h) }

func (h readyHeap[T]) Less(i, j int) bool {
	pi, pj := h[i].entity.Pass(), h[j].entity.Pass()
	if pi != pj {
		return pi < pj
	}
	return h[i].seq < h[j].seq
}

func (h readyHeap[T]) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *readyHeap[T]) Push(x any) {
	it := x.(*item[T])
	it.index = len(*h)
	*h = append(*h, it)
}

func (h *readyHeap[T]) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	*h = old[:n-1]
	return it
}

// Scheduler is a single ready queue. It is not safe for concurrent use; the
// hart owning it serializes access.
type Scheduler[T Entity] struct {
	queue     readyHeap[T]
	items     map[T]*item[T]
	seq       uint64
	floor     uint64
	bigStride uint64
}

// New creates an empty scheduler; bigStride <= 0 selects DefaultBigStride.
func New[T Entity](bigStride uint64) *Scheduler[T] {
	if bigStride == 0 {
		bigStride = DefaultBigStride
	}
	return &Scheduler[T]{items: make(map[T]*item[T]), bigStride: bigStride}
}

// Add enqueues e. Entities behind the current pass floor are lifted to it so
// that sleeping or new entities do not bank CPU credit. Adding a queued entity
// is a no-op.
func (s *Scheduler[T]) Add(e T) {
	if _, ok := s.items[e]; ok {
		return
	}
	if e.Pass() < s.floor {
		e.SetPass(s.floor)
	}
	s.seq++
	it := &item[T]{entity: e, seq: s.seq}
	s.items[e] = it
	heap.Push(&s.queue, it)
}

// Fetch removes and returns the entity with the smallest pass, ties broken by
// insertion order, and advances its pass.
func (s *Scheduler[T]) Fetch() (T, bool) {
	var zero T
	if len(s.queue) == 0 {
		return zero, false
	}
	it := heap.Pop(&s.queue).(*item[T])
	delete(s.items, it.entity)
	s.floor = it.entity.Pass()
	it.entity.SetPass(s.floor + s.Stride(it.entity.Priority()))
	return it.entity, true
}

// Stride returns the pass increment for priority.
func (s *Scheduler[T]) Stride(priority int64) uint64 {
	if priority <= 0 {
		priority = 1
	}
	return s.bigStride / uint64(priority)
}

// Remove drops e from the queue and reports whether it was queued.
func (s *Scheduler[T]) Remove(e T) bool {
	it, ok := s.items[e]
	if !ok {
		return false
	}
	heap.Remove(&s.queue, it.index)
	delete(s.items, e)
	return true
}

// Contains reports whether e is queued.
func (s *Scheduler[T]) Contains(e T) bool {
	_, ok := s.items[e]
	return ok
}

// Len returns the number of queued entities.
func (s *Scheduler[T]) Len() int { return len(s.queue) }
