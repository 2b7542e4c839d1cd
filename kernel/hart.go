package kernel

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"strings"
	"time"

	"github.com/viant/procos/internal/clock"
	"github.com/viant/procos/internal/debug"
	"github.com/viant/procos/progress"
	"github.com/viant/procos/sched"
	"github.com/viant/procos/task"
	"github.com/viant/procos/timer"
)

// Hart is the single processor. Each user thread runs on its own goroutine,
// but only the goroutine holding the hart executes; control returns to the
// hart loop through the switched channel whenever the running thread yields,
// blocks, exits or is unwound.
type Hart struct {
	k        *Kernel
	ready    *sched.Scheduler[*task.Thread]
	sleepers *timer.Queue[*task.Thread]
	current  *task.Thread
	switched chan struct{}
	dying    []*task.Thread
	halted   bool
}

func newHart(k *Kernel) *Hart {
	return &Hart{
		k:        k,
		ready:    sched.New[*task.Thread](k.config.BigStride),
		sleepers: timer.New[*task.Thread](),
		switched: make(chan struct{}),
	}
}

// Current returns the running thread, nil between dispatches.
func (h *Hart) Current() *task.Thread { return h.current }

func (h *Hart) run(ctx context.Context) error {
	if h.halted {
		return ErrHalted
	}
	defer h.halt()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, t := range h.sleepers.Expire(clock.Millis()) {
			h.Wake(t)
		}
		t, ok := h.ready.Fetch()
		if !ok {
			if deadline, ok := h.sleepers.Next(); ok {
				if err := h.idle(ctx, deadline); err != nil {
					return err
				}
				continue
			}
			if blocked := h.blocked(); len(blocked) > 0 {
				return fmt.Errorf("%w: %v", ErrStalled, strings.Join(blocked, ","))
			}
			return nil
		}
		if t.Status() != task.Ready {
			continue
		}
		h.dispatch(t)
		h.unwind()
	}
}

func (h *Hart) idle(ctx context.Context, deadline int64) error {
	wait := time.Duration(deadline-clock.Millis()) * time.Millisecond
	if wait > h.k.config.IdleTick {
		wait = h.k.config.IdleTick
	}
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// blocked lists live threads that can never run again.
func (h *Hart) blocked() []string {
	var ret []string
	for _, p := range h.k.processes() {
		p.Lock()
		p.Threads.Range(func(_ int, t *task.Thread) bool {
			if t.Status() == task.Blocked {
				ret = append(ret, t.String())
			}
			return true
		})
		p.Unlock()
	}
	return ret
}

func (h *Hart) dispatch(t *task.Thread) {
	t.SetStatus(task.Running)
	h.current = t
	if p := t.Process(); p != nil {
		p.Lock()
		if p.StartedAt.IsZero() {
			p.StartedAt = clock.Now()
		}
		p.Unlock()
	}
	h.k.update(progress.Delta{Switches: 1})
	debug.DPrintf(debug.SCHED, "dispatch %v pass=%d prio=%d", t, t.Pass(), t.Priority())
	if !t.Started() {
		t.MarkStarted()
		go h.enter(t)
	} else {
		t.Resume()
	}
	<-h.switched
	h.current = nil
}

// enter runs t's user program on the calling goroutine.
func (h *Hart) enter(t *task.Thread) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("thread %v: panic: %v", t, r)
			h.k.terminate(t, -1)
		}
		if t.Restart() {
			t.SetRestart(false)
			go h.enter(t)
			return
		}
		h.switched <- struct{}{}
	}()
	code := t.Trap().PC(&cpu{k: h.k, t: t})
	h.k.Exit(t, code)
}

// switchOut hands the hart back and parks the calling thread until resumed.
// A killed thread unwinds instead of returning.
func (h *Hart) switchOut(t *task.Thread) {
	h.switched <- struct{}{}
	if !t.Park() {
		runtime.Goexit()
	}
}

// Yield requeues the running thread t and switches away.
func (h *Hart) Yield(t *task.Thread) {
	t.SetStatus(task.Ready)
	h.ready.Add(t)
	h.switchOut(t)
}

// Block suspends the running thread t until Wake.
func (h *Hart) Block(t *task.Thread) {
	t.SetStatus(task.Blocked)
	h.switchOut(t)
}

// Wake makes a blocked thread ready. Other states are left alone.
func (h *Hart) Wake(t *task.Thread) {
	if t.Status() != task.Blocked {
		return
	}
	t.SetStatus(task.Ready)
	h.ready.Add(t)
}

// sleepUntil blocks the running thread t until deadline (ms since epoch).
func (h *Hart) sleepUntil(t *task.Thread, deadline int64) {
	h.sleepers.Add(deadline, t)
	h.Block(t)
}

// discard removes a thread of a dying process from every queue the hart
// owns. Wait queues skip it lazily. Its goroutine, if any, is unwound after
// the current dispatch.
func (h *Hart) discard(t *task.Thread) {
	h.ready.Remove(t)
	h.sleepers.Remove(t)
	t.SetStatus(task.Zombie)
	if t.Started() && t != h.current {
		h.dying = append(h.dying, t)
	}
}

// unwind terminates the goroutines of discarded threads one at a time.
func (h *Hart) unwind() {
	for len(h.dying) > 0 {
		t := h.dying[0]
		h.dying = h.dying[1:]
		t.Kill()
		<-h.switched
	}
}

// halt unwinds every thread still parked so no goroutine outlives Run.
func (h *Hart) halt() {
	h.halted = true
	for _, p := range h.k.processes() {
		p.Lock()
		p.Threads.Range(func(_ int, t *task.Thread) bool {
			if t.Status() != task.Zombie {
				h.discard(t)
			}
			return true
		})
		p.Unlock()
		h.unwind()
	}
}
