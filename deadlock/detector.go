// Package deadlock implements the advisory deadlock checks run before a
// thread blocks on a mutex or a semaphore.
//
// The two checks are deliberately different. The mutex check refuses any
// contended lock. The semaphore check is a Banker's style safety simulation
// over the requesting process's threads. Resource id 0 takes no part in
// semaphore accounting; callers skip the check for it. Requests are judged
// one at a time, so of two threads crossing down calls the first is found
// safe and blocks, and only the second is refused.
package deadlock

import "errors"

// ErrDeadlock is returned when a request is refused.
var ErrDeadlock = errors.New("deadlock: request refused")

// Demand is one thread's position in a safety check.
type Demand struct {
	// Need is the resource the thread waits for, 0 when none.
	Need int
	// Held counts units held per resource id.
	Held []int
}

// CheckMutex refuses a lock attempt on a held mutex while detection is enabled.
func CheckMutex(enabled, locked bool) error {
	if enabled && locked {
		return ErrDeadlock
	}
	return nil
}

// CheckSemaphore refuses the request unless the state described by available
// and demands is safe. The requester's demand must already carry its need.
func CheckSemaphore(available []int, demands []Demand) error {
	if _, safe := Simulate(available, demands); !safe {
		return ErrDeadlock
	}
	return nil
}

// Simulate repeatedly finishes the first thread whose need is absent or
// currently available, releasing its held units, and restarts the scan after
// every finish. It returns the finishing order and whether every thread
// finished.
func Simulate(available []int, demands []Demand) ([]int, bool) {
	work := append([]int(nil), available...)
	finished := make([]bool, len(demands))
	order := make([]int, 0, len(demands))
	for {
		progressed := false
		for i, d := range demands {
			if finished[i] {
				continue
			}
			if d.Need != 0 && (d.Need >= len(work) || work[d.Need] <= 0) {
				continue
			}
			finished[i] = true
			order = append(order, i)
			for j := 1; j < len(d.Held); j++ {
				for len(work) <= j {
					work = append(work, 0)
				}
				work[j] += d.Held[j]
			}
			progressed = true
			break
		}
		if !progressed {
			break
		}
	}
	return order, len(order) == len(demands)
}
