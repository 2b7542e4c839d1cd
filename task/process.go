package task

import (
	"time"
	"weak"

	"github.com/sasha-s/go-deadlock"
	"github.com/viant/procos/internal/slot"
	"github.com/viant/procos/mm"
)

// Process is a process control block. PID is immutable; every other field is
// guarded by the embedded mutex, which must be released before blocking.
type Process struct {
	deadlock.Mutex

	PID    int
	Name   string
	parent weak.Pointer[Process]

	Children       []*Process
	Memory         *mm.MemorySet
	Zombie         bool
	ExitCode       int
	Threads        slot.Table[*Thread]
	Mutexes        slot.Table[Mutex]
	Semaphores     slot.Table[Semaphore]
	Condvars       slot.Table[Condvar]
	DeadlockDetect bool
	Syscalls       map[uint64]uint32
	StartedAt      time.Time
}

// NewProcess creates a process owning memory.
func NewProcess(pid int, name string, memory *mm.MemorySet) *Process {
	return &Process{
		PID:      pid,
		Name:     name,
		Memory:   memory,
		Syscalls: make(map[uint64]uint32),
	}
}

// Parent returns the parent process, or nil for a root or orphan.
func (p *Process) Parent() *Process { return p.parent.Value() }

// SetParent links p under parent without touching parent's children.
func (p *Process) SetParent(parent *Process) {
	if parent == nil {
		p.parent = weak.Pointer[Process]{}
		return
	}
	p.parent = weak.Make(parent)
}

// AddChild appends child to the children list. Caller holds p.
func (p *Process) AddChild(child *Process) {
	p.Children = append(p.Children, child)
}

// RemoveChild drops child from the children list. Caller holds p.
func (p *Process) RemoveChild(child *Process) bool {
	for i, c := range p.Children {
		if c == child {
			p.Children = append(p.Children[:i], p.Children[i+1:]...)
			return true
		}
	}
	return false
}

// MainThread returns thread 0 when it still exists. Caller holds p.
func (p *Process) MainThread() *Thread {
	t, _ := p.Threads.Get(0)
	return t
}

// LiveThreads counts threads that have not exited. Caller holds p.
func (p *Process) LiveThreads() int {
	ret := 0
	p.Threads.Range(func(_ int, t *Thread) bool {
		if t.Status() != Zombie {
			ret++
		}
		return true
	})
	return ret
}

// DropExited removes exited threads that were never joined. Caller holds p.
func (p *Process) DropExited() {
	var ids []int
	p.Threads.Range(func(id int, t *Thread) bool {
		if t.Status() == Zombie {
			ids = append(ids, id)
		}
		return true
	})
	for _, id := range ids {
		p.Threads.Remove(id)
	}
}

// CountSyscall increments the counter of syscall id. Caller holds p.
func (p *Process) CountSyscall(id uint64) {
	p.Syscalls[id]++
}
