// Package kernel ties the process/thread core together: the process table,
// the lifecycle operations, memory and synchronization syscalls and the hart
// that runs user threads one at a time.
//
// Every operation takes the calling thread explicitly. Operations that may
// suspend the caller (yield, sleep, mutex lock, semaphore down, condvar wait)
// must run on that thread's own goroutine, which is always the case when they
// are reached through abi.CPU.Syscall.
package kernel

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/viant/procos/abi"
	"github.com/viant/procos/internal/debug"
	"github.com/viant/procos/internal/idgen"
	"github.com/viant/procos/internal/slot"
	"github.com/viant/procos/loader"
	"github.com/viant/procos/mm"
	"github.com/viant/procos/model/acct"
	"github.com/viant/procos/progress"
	"github.com/viant/procos/service/dao"
	"github.com/viant/procos/service/event"
	"github.com/viant/procos/task"
)

// TrapHandler services syscalls raised by user threads.
type TrapHandler interface {
	Handle(t *task.Thread, id uint64, args [3]uint64) int64
}

// Kernel owns the process table and the hart.
type Kernel struct {
	config     Config
	loader     loader.Loader
	frames     mm.FrameAllocator
	handler    TrapHandler
	publisher  *event.Publisher[Lifecycle]
	accounting dao.Service[int, acct.Record]
	progress   *progress.Progress
	bootID     string

	mu      sync.Mutex
	procs   slot.Table[*task.Process]
	init    *task.Process
	reapSeq int

	hart *Hart
}

// Option configures a Kernel.
type Option func(k *Kernel)

// WithConfig sets kernel tunables.
func WithConfig(config Config) Option {
	return func(k *Kernel) { k.config = config }
}

// WithLoader sets the image loader.
func WithLoader(l loader.Loader) Option {
	return func(k *Kernel) { k.loader = l }
}

// WithFrames sets the physical frame allocator.
func WithFrames(frames mm.FrameAllocator) Option {
	return func(k *Kernel) { k.frames = frames }
}

// WithTrapHandler sets the syscall handler.
func WithTrapHandler(handler TrapHandler) Option {
	return func(k *Kernel) { k.handler = handler }
}

// WithPublisher sets the lifecycle event publisher.
func WithPublisher(publisher *event.Publisher[Lifecycle]) Option {
	return func(k *Kernel) { k.publisher = publisher }
}

// WithAccountingDAO sets the store receiving one record per reaped process.
func WithAccountingDAO(accounting dao.Service[int, acct.Record]) Option {
	return func(k *Kernel) { k.accounting = accounting }
}

// WithProgress sets the counter tracker.
func WithProgress(p *progress.Progress) Option {
	return func(k *Kernel) { k.progress = p }
}

// WithBootID sets the id tagging this kernel's events and logs.
func WithBootID(id string) Option {
	return func(k *Kernel) { k.bootID = id }
}

// New creates a kernel. A loader is required.
func New(options ...Option) (*Kernel, error) {
	ret := &Kernel{config: DefaultConfig(), bootID: idgen.Short()}
	for _, opt := range options {
		opt(ret)
	}
	if ret.loader == nil {
		return nil, fmt.Errorf("loader was nil")
	}
	if err := ret.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid kernel config: %w", err)
	}
	if ret.frames == nil {
		ret.frames = mm.NewPool(0)
	}
	ret.hart = newHart(ret)
	return ret, nil
}

// SetTrapHandler replaces the syscall handler. Call before Run.
func (k *Kernel) SetTrapHandler(handler TrapHandler) { k.handler = handler }

// BootID identifies this kernel instance in logs and events.
func (k *Kernel) BootID() string { return k.bootID }

// Config returns the kernel tunables.
func (k *Kernel) Config() Config { return k.config }

// Progress returns the counter tracker, nil when none was configured.
func (k *Kernel) Progress() *progress.Progress { return k.progress }

// Boot creates the init process from the named image. Orphans are
// reparented to it.
func (k *Kernel) Boot(name string) (*task.Process, error) {
	p, err := k.spawn(nil, name)
	if err != nil {
		return nil, fmt.Errorf("failed to boot %v: %w", name, err)
	}
	k.mu.Lock()
	if k.init == nil {
		k.init = p
	}
	k.mu.Unlock()
	return p, nil
}

// Run executes threads until every process has exited, ctx is done, or only
// blocked threads remain (ErrStalled). Threads still parked when Run returns
// are unwound; a kernel runs once.
func (k *Kernel) Run(ctx context.Context) error {
	return k.hart.run(ctx)
}

// Process returns the live or zombie process with pid.
func (k *Kernel) Process(pid int) (*task.Process, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.procs.Get(pid)
}

// Init returns the init process.
func (k *Kernel) Init() *task.Process {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.init
}

func (k *Kernel) processes() []*task.Process {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.procs.Values()
}

// register allocates the lowest free pid and inserts the process built for it.
func (k *Kernel) register(create func(pid int) *task.Process) *task.Process {
	k.mu.Lock()
	defer k.mu.Unlock()
	p := create(k.procs.Next())
	k.procs.Insert(p)
	return p
}

func (k *Kernel) unregister(p *task.Process) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if current, ok := k.procs.Get(p.PID); ok && current == p {
		k.procs.Remove(p.PID)
	}
}

// trap forwards a syscall to the handler and leaves the result in a0.
func (k *Kernel) trap(t *task.Thread, id uint64, args [3]uint64) int64 {
	if t.Status() == task.Zombie {
		return abi.RetError
	}
	if k.handler == nil {
		log.Printf("kernel %v: no trap handler for syscall %v", k.bootID, abi.SyscallName(id))
		return abi.RetError
	}
	debug.DPrintf(debug.SYSCALL, "%v %v(%#x, %#x, %#x)", t, abi.SyscallName(id), args[0], args[1], args[2])
	ret := k.handler.Handle(t, id, args)
	t.Trap().X[abi.RegA0] = uint64(ret)
	return ret
}

func (k *Kernel) update(d progress.Delta) {
	k.progress.Update(d)
}
