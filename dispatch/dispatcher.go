// Package dispatch is the syscall boundary: it decodes register arguments,
// translates user pointers and turns kernel errors into ABI sentinels.
package dispatch

import (
	"context"
	"errors"

	"github.com/viant/procos/abi"
	"github.com/viant/procos/deadlock"
	"github.com/viant/procos/internal/debug"
	"github.com/viant/procos/kernel"
	"github.com/viant/procos/progress"
	"github.com/viant/procos/task"
	"github.com/viant/procos/tracing"
)

// Dispatcher implements kernel.TrapHandler.
type Dispatcher struct {
	k      *kernel.Kernel
	ctx    context.Context
	traced bool
}

// Option configures a Dispatcher.
type Option func(d *Dispatcher)

// WithTracing opens one span per syscall.
func WithTracing(enabled bool) Option {
	return func(d *Dispatcher) { d.traced = enabled }
}

// WithContext sets the parent context of syscall spans.
func WithContext(ctx context.Context) Option {
	return func(d *Dispatcher) { d.ctx = ctx }
}

// New creates a dispatcher for k and installs it as k's trap handler.
func New(k *kernel.Kernel, options ...Option) *Dispatcher {
	ret := &Dispatcher{k: k, ctx: context.Background()}
	for _, opt := range options {
		opt(ret)
	}
	k.SetTrapHandler(ret)
	return ret
}

var _ kernel.TrapHandler = (*Dispatcher)(nil)

// Handle services syscall id for t.
func (d *Dispatcher) Handle(t *task.Thread, id uint64, args [3]uint64) (ret int64) {
	p := t.Process()
	p.Lock()
	p.CountSyscall(id)
	p.Unlock()
	d.k.Progress().Update(progress.Delta{Syscalls: 1})

	var span *tracing.Span
	var err error
	if d.traced {
		_, span = tracing.StartSpan(d.ctx, "syscall."+abi.SyscallName(id), "")
		span.WithInt("pid", int64(p.PID)).WithInt("tid", int64(t.TID()))
	}
	// exit, exec and faults unwind through here without returning
	defer func() {
		if span != nil {
			span.WithInt("ret", ret)
			tracing.EndSpan(span, err)
		}
	}()
	ret, err = d.call(t, id, args)
	if err != nil {
		debug.DPrintf(debug.SYSCALL, "%v %v: %v", t, abi.SyscallName(id), err)
		ret = Errno(err)
	}
	return ret
}

// Errno maps a kernel error to its ABI sentinel.
func Errno(err error) int64 {
	switch {
	case errors.Is(err, kernel.ErrStillRunning):
		return abi.RetStillRunning
	case errors.Is(err, deadlock.ErrDeadlock):
		return abi.RetDeadlock
	}
	return abi.RetError
}

func signed(v uint64) int64 { return int64(v) }

func (d *Dispatcher) call(t *task.Thread, id uint64, args [3]uint64) (int64, error) {
	k := d.k
	switch id {
	case abi.SysExit:
		k.Exit(t, int(int32(args[0])))
		return 0, nil
	case abi.SysYield:
		k.Yield(t)
		return 0, nil
	case abi.SysGetPid:
		return int64(k.GetPid(t)), nil
	case abi.SysFork:
		pid, err := k.Fork(t)
		return int64(pid), err
	case abi.SysExec:
		name, err := k.ReadString(t, args[0])
		if err != nil {
			return 0, err
		}
		return 0, k.Exec(t, name)
	case abi.SysSpawn:
		name, err := k.ReadString(t, args[0])
		if err != nil {
			return 0, err
		}
		pid, err := k.Spawn(t, name)
		return int64(pid), err
	case abi.SysWaitPid:
		pid, _, err := k.WaitPid(t, int(int32(args[0])), args[1])
		return int64(pid), err
	case abi.SysGetTime:
		return 0, k.WriteUser(t, args[0], k.Time().Encode())
	case abi.SysTaskInfo:
		return 0, k.WriteUser(t, args[0], k.TaskInfo(t).Encode())
	case abi.SysSetPriority:
		return k.SetPriority(t, signed(args[0]))
	case abi.SysSleep:
		k.Sleep(t, signed(args[0]))
		return 0, nil
	case abi.SysSbrk:
		old, err := k.Sbrk(t, signed(args[0]))
		return int64(old), err
	case abi.SysMmap:
		return 0, k.Mmap(t, args[0], args[1], args[2])
	case abi.SysMunmap:
		return 0, k.Munmap(t, args[0], args[1])
	case abi.SysEnableDeadlockDetect:
		switch args[0] {
		case 0, 1:
			k.EnableDeadlockDetect(t, args[0] == 1)
			return 0, nil
		}
		return 0, kernel.ErrInvalidArgument
	case abi.SysThreadCreate:
		entry := t.Trap().Entry
		t.Trap().Entry = nil
		tid, err := k.ThreadCreate(t, entry, args[0])
		return int64(tid), err
	case abi.SysGetTid:
		return int64(k.GetTid(t)), nil
	case abi.SysWaitTid:
		code, err := k.WaitTid(t, int(int32(args[0])))
		return int64(code), err
	case abi.SysMutexCreate:
		return int64(k.MutexCreate(t, args[0] != 0)), nil
	case abi.SysMutexLock:
		return 0, k.MutexLock(t, int(args[0]))
	case abi.SysMutexUnlock:
		return 0, k.MutexUnlock(t, int(args[0]))
	case abi.SysSemaphoreCreate:
		return int64(k.SemaphoreCreate(t, int(signed(args[0])))), nil
	case abi.SysSemaphoreUp:
		return 0, k.SemaphoreUp(t, int(args[0]))
	case abi.SysSemaphoreDown:
		return 0, k.SemaphoreDown(t, int(args[0]))
	case abi.SysCondvarCreate:
		return int64(k.CondvarCreate(t)), nil
	case abi.SysCondvarSignal:
		return 0, k.CondvarSignal(t, int(args[0]))
	case abi.SysCondvarWait:
		return 0, k.CondvarWait(t, int(args[0]), int(args[1]))
	}
	return 0, kernel.ErrUnsupported
}
