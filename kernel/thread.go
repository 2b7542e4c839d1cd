package kernel

import (
	"fmt"
	"math"

	"github.com/viant/procos/abi"
	"github.com/viant/procos/internal/clock"
	"github.com/viant/procos/internal/debug"
	"github.com/viant/procos/task"
)

// ThreadCreate starts a thread of t's process at entry with arg in a0 and
// returns its tid.
func (k *Kernel) ThreadCreate(t *task.Thread, entry abi.Program, arg uint64) (int, error) {
	if entry == nil {
		return 0, fmt.Errorf("thread without entry: %w", ErrInvalidArgument)
	}
	p := t.Process()
	p.Lock()
	tid := p.Threads.Next()
	top, err := p.Memory.MapStack(tid, k.config.StackPages)
	if err != nil {
		p.Unlock()
		return 0, err
	}
	trap := task.NewTrapContext(entry, top)
	trap.X[abi.RegA0] = arg
	th := task.NewThread(p, tid, trap, k.config.DefaultPriority)
	p.Threads.Insert(th)
	p.Unlock()
	k.hart.ready.Add(th)
	debug.DPrintf(debug.PROC, "thread_create %v", th)
	return tid, nil
}

// GetTid returns t's thread id.
func (k *Kernel) GetTid(t *task.Thread) int { return t.TID() }

// WaitTid reclaims exited thread tid of t's process and returns its exit code.
func (k *Kernel) WaitTid(t *task.Thread, tid int) (int, error) {
	if tid == t.TID() {
		return 0, ErrInvalidArgument
	}
	p := t.Process()
	p.Lock()
	defer p.Unlock()
	th, ok := p.Threads.Get(tid)
	if !ok {
		return 0, ErrInvalidArgument
	}
	if th.Status() != task.Zombie {
		return 0, ErrStillRunning
	}
	p.Threads.Remove(tid)
	return th.ExitCode(), nil
}

// Yield lets other ready threads run before t continues.
func (k *Kernel) Yield(t *task.Thread) {
	k.hart.Yield(t)
}

// Sleep blocks t for at least ms milliseconds.
func (k *Kernel) Sleep(t *task.Thread, ms int64) {
	k.hart.sleepUntil(t, deadline(clock.Millis(), ms))
}

// deadline returns now+ms, clamping negative durations to now and sums past
// math.MaxInt64 to math.MaxInt64.
func deadline(now, ms int64) int64 {
	if ms < 0 {
		return now
	}
	if ms > math.MaxInt64-now {
		return math.MaxInt64
	}
	return now + ms
}
