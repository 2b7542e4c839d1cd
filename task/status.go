package task

import "fmt"

// Status is the scheduling state of a thread.
type Status int

const (
	Ready Status = iota + 1
	Running
	Blocked
	Zombie
)

func (s Status) String() string {
	switch s {
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Blocked:
		return "blocked"
	case Zombie:
		return "zombie"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// validTransitions lists the states reachable from each state.
var validTransitions = map[Status][]Status{
	Ready:   {Running, Zombie},
	Running: {Ready, Blocked, Zombie},
	Blocked: {Ready, Zombie},
	Zombie:  {},
}

// CanTransition reports whether a thread may move from s to next.
func (s Status) CanTransition(next Status) bool {
	for _, candidate := range validTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}
