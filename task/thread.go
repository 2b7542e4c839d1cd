package task

import (
	"fmt"
	"weak"
)

// DefaultPriority is the priority of threads that never called set_priority.
const DefaultPriority = 16

// MinPriority is the lowest accepted priority.
const MinPriority = 2

// Thread is a thread control block. Its fields are only touched by code
// holding the hart; held and need are additionally guarded by the process lock.
type Thread struct {
	tid      int
	process  weak.Pointer[Process]
	status   Status
	trap     TrapContext
	priority int64
	pass     uint64
	exitCode int
	stackTop uint64

	held []int
	need int

	resume  chan bool
	started bool
	restart bool
}

// NewThread creates a Ready thread of process p.
func NewThread(p *Process, tid int, trap TrapContext, priority int64) *Thread {
	if priority < MinPriority {
		priority = DefaultPriority
	}
	return &Thread{
		tid:      tid,
		process:  weak.Make(p),
		status:   Ready,
		trap:     trap,
		priority: priority,
		stackTop: trap.X[2],
		resume:   make(chan bool),
	}
}

func (t *Thread) String() string {
	if p := t.Process(); p != nil {
		return fmt.Sprintf("%d:%d", p.PID, t.tid)
	}
	return fmt.Sprintf("?:%d", t.tid)
}

// TID returns the thread id within its process.
func (t *Thread) TID() int { return t.tid }

// Process returns the owning process, or nil once it has been reaped.
func (t *Thread) Process() *Process { return t.process.Value() }

// Status returns the scheduling state.
func (t *Thread) Status() Status { return t.status }

// SetStatus moves the thread to next and reports whether the move is legal.
// Illegal moves leave the status unchanged.
func (t *Thread) SetStatus(next Status) bool {
	if t.status == next {
		return true
	}
	if !t.status.CanTransition(next) {
		return false
	}
	t.status = next
	return true
}

// Trap returns the saved user context.
func (t *Thread) Trap() *TrapContext { return &t.trap }

// Priority returns the scheduling weight.
func (t *Thread) Priority() int64 { return t.priority }

// SetPriority updates the scheduling weight.
func (t *Thread) SetPriority(p int64) { t.priority = p }

// Pass returns the stride scheduler pass value.
func (t *Thread) Pass() uint64 { return t.pass }

// SetPass updates the stride scheduler pass value.
func (t *Thread) SetPass(pass uint64) { t.pass = pass }

// ExitCode returns the code recorded on exit.
func (t *Thread) ExitCode() int { return t.exitCode }

// SetExitCode records the exit code.
func (t *Thread) SetExitCode(code int) { t.exitCode = code }

// StackTop returns the top of the user stack.
func (t *Thread) StackTop() uint64 { return t.stackTop }

// Held returns the number of units of resource id the thread holds.
func (t *Thread) Held(id int) int {
	if id < 0 || id >= len(t.held) {
		return 0
	}
	return t.held[id]
}

// AddHeld adjusts the units of resource id held by delta.
func (t *Thread) AddHeld(id, delta int) {
	if id < 0 {
		return
	}
	for len(t.held) <= id {
		t.held = append(t.held, 0)
	}
	t.held[id] += delta
}

// HeldVector returns a copy of the held counts indexed by resource id.
func (t *Thread) HeldVector() []int { return append([]int(nil), t.held...) }

// Need returns the resource the thread is waiting for, 0 when none.
func (t *Thread) Need() int { return t.need }

// SetNeed records the resource the thread is waiting for, 0 for none.
func (t *Thread) SetNeed(id int) { t.need = id }

// Started reports whether the thread has been dispatched at least once.
func (t *Thread) Started() bool { return t.started }

// MarkStarted records the first dispatch.
func (t *Thread) MarkStarted() { t.started = true }

// Park suspends the calling goroutine until the hart resumes or kills the
// thread. It returns false when killed.
func (t *Thread) Park() bool { return <-t.resume }

// Resume wakes a parked thread.
func (t *Thread) Resume() { t.resume <- true }

// Kill wakes a parked thread so that it unwinds.
func (t *Thread) Kill() { t.resume <- false }

// SetRestart flags that the thread restarts from its trap context once its
// goroutine unwinds.
func (t *Thread) SetRestart(restart bool) { t.restart = restart }

// Restart reports whether the thread restarts after unwinding.
func (t *Thread) Restart() bool { return t.restart }
