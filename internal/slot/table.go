// Package slot implements a sparse, index-addressed table of optional
// entries. Freed indices are reused, lowest first, before the table grows.
package slot

import "errors"

// ErrNotFound is returned when an index does not refer to an occupied slot.
var ErrNotFound = errors.New("slot: not found")

// Table is a growable array of optional entries. The zero value is ready to use.
// Table is not safe for concurrent use; callers guard it with the owning lock.
type Table[T any] struct {
	items []T
	used  []bool
	count int
}

// Next returns the index the next Insert will use.
func (t *Table[T]) Next() int {
	for i, ok := range t.used {
		if !ok {
			return i
		}
	}
	return len(t.items)
}

// Insert stores v in the lowest empty slot, growing the table when none is free.
func (t *Table[T]) Insert(v T) int {
	id := t.Next()
	if id == len(t.items) {
		t.items = append(t.items, v)
		t.used = append(t.used, true)
	} else {
		t.items[id] = v
		t.used[id] = true
	}
	t.count++
	return id
}

// Get returns the entry stored at id.
func (t *Table[T]) Get(id int) (T, bool) {
	var zero T
	if id < 0 || id >= len(t.items) || !t.used[id] {
		return zero, false
	}
	return t.items[id], true
}

// Lookup is Get reporting a missing entry as ErrNotFound.
func (t *Table[T]) Lookup(id int) (T, error) {
	v, ok := t.Get(id)
	if !ok {
		return v, ErrNotFound
	}
	return v, nil
}

// Remove empties the slot at id and returns its previous entry.
func (t *Table[T]) Remove(id int) (T, bool) {
	v, ok := t.Get(id)
	if !ok {
		return v, false
	}
	var zero T
	t.items[id] = zero
	t.used[id] = false
	t.count--
	return v, true
}

// Len returns the number of occupied slots.
func (t *Table[T]) Len() int { return t.count }

// Cap returns the number of slots, occupied or empty.
func (t *Table[T]) Cap() int { return len(t.items) }

// Range calls fn for every occupied slot in index order until fn returns false.
func (t *Table[T]) Range(fn func(id int, v T) bool) {
	for i, ok := range t.used {
		if !ok {
			continue
		}
		if !fn(i, t.items[i]) {
			return
		}
	}
}

// Values returns occupied entries in index order.
func (t *Table[T]) Values() []T {
	out := make([]T, 0, t.count)
	t.Range(func(_ int, v T) bool {
		out = append(out, v)
		return true
	})
	return out
}

// Clear empties every slot.
func (t *Table[T]) Clear() {
	t.items = nil
	t.used = nil
	t.count = 0
}

// Clone returns a table holding the same entries at the same indices.
// Entries are copied by value, so pointer entries end up shared.
func (t *Table[T]) Clone() Table[T] {
	return Table[T]{
		items: append([]T(nil), t.items...),
		used:  append([]bool(nil), t.used...),
		count: t.count,
	}
}
