// Package timer keeps sleeping entities ordered by deadline.
package timer

import "container/heap"

type entry[T comparable] struct {
	deadline int64
	seq      uint64
	value    T
}

type deadlineHeap[T comparable] []*entry[T]

func (h deadlineHeap[T]) Len() int { return len(h) }

func (h deadlineHeap[T]) Less(i, j int) bool {
	if h[i].deadline != h[j].deadline {
		return h[i].deadline < h[j].deadline
	}
	return h[i].seq < h[j].seq
}

func (h deadlineHeap[T]) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *deadlineHeap[T]) Push(x any) { *h = append(*h, x.(*entry[T])) }

func (h *deadlineHeap[T]) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// Queue is a min-heap of deadlines in milliseconds. It is not safe for
// concurrent use.
type Queue[T comparable] struct {
	heap deadlineHeap[T]
	seq  uint64
}

// New creates an empty queue.
func New[T comparable]() *Queue[T] {
	return &Queue[T]{}
}

// Add registers v to expire at deadline.
func (q *Queue[T]) Add(deadline int64, v T) {
	q.seq++
	heap.Push(&q.heap, &entry[T]{deadline: deadline, seq: q.seq, value: v})
}

// Expire removes and returns entries with deadline <= now, earliest first.
func (q *Queue[T]) Expire(now int64) []T {
	var ret []T
	for len(q.heap) > 0 && q.heap[0].deadline <= now {
		ret = append(ret, heap.Pop(&q.heap).(*entry[T]).value)
	}
	return ret
}

// Next returns the earliest deadline.
func (q *Queue[T]) Next() (int64, bool) {
	if len(q.heap) == 0 {
		return 0, false
	}
	return q.heap[0].deadline, true
}

// Remove drops every entry holding v and returns how many were dropped.
func (q *Queue[T]) Remove(v T) int {
	kept := q.heap[:0]
	removed := 0
	for _, e := range q.heap {
		if e.value == v {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	for i := len(kept); i < len(q.heap); i++ {
		q.heap[i] = nil
	}
	q.heap = kept
	heap.Init(&q.heap)
	return removed
}

// Len returns the number of entries.
func (q *Queue[T]) Len() int { return len(q.heap) }
