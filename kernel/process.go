package kernel

import (
	"context"
	"fmt"
	"log"
	"runtime"

	"github.com/viant/procos/abi"
	"github.com/viant/procos/internal/clock"
	"github.com/viant/procos/internal/debug"
	"github.com/viant/procos/loader"
	"github.com/viant/procos/mm"
	"github.com/viant/procos/model/acct"
	"github.com/viant/procos/progress"
	"github.com/viant/procos/task"
)

// load builds a fresh memory set for image with the main thread stack mapped.
func (k *Kernel) load(image *loader.Image) (*mm.MemorySet, uint64, error) {
	memory := mm.NewMemorySet(k.frames)
	if err := memory.Load(image.Segments); err != nil {
		memory.Release()
		return nil, 0, err
	}
	top, err := memory.MapStack(0, k.config.StackPages)
	if err != nil {
		memory.Release()
		return nil, 0, err
	}
	return memory, top, nil
}

func (k *Kernel) spawn(parent *task.Process, name string) (*task.Process, error) {
	image, err := k.loader.Resolve(name)
	if err != nil {
		return nil, err
	}
	memory, top, err := k.load(image)
	if err != nil {
		return nil, err
	}
	p := k.register(func(pid int) *task.Process {
		return task.NewProcess(pid, image.Name, memory)
	})
	t := task.NewThread(p, 0, task.NewTrapContext(image.Entry, top), k.config.DefaultPriority)
	p.Lock()
	p.Threads.Insert(t)
	p.Unlock()
	if parent != nil {
		p.SetParent(parent)
		parent.Lock()
		parent.AddChild(p)
		parent.Unlock()
	}
	k.hart.ready.Add(t)
	k.update(progress.Delta{Spawned: 1})
	k.publish(Lifecycle{Type: EventSpawn, PID: p.PID, ParentPID: parentPID(p), Image: image.Name})
	debug.DPrintf(debug.PROC, "spawn %v pid=%d", image.Name, p.PID)
	return p, nil
}

// Spawn creates a child of t's process running the named image.
func (k *Kernel) Spawn(t *task.Thread, name string) (int, error) {
	p, err := k.spawn(t.Process(), name)
	if err != nil {
		return 0, err
	}
	return p.PID, nil
}

// Fork duplicates t's process. The child resumes at the entry staged with
// abi.CPU.SetEntry and sees 0 in a0. Memory is copied, resource tables are
// shared by handle. Only processes without other live threads may fork.
func (k *Kernel) Fork(t *task.Thread) (int, error) {
	parent := t.Process()
	trap := *t.Trap()
	if trap.Entry == nil {
		return 0, fmt.Errorf("fork without staged entry: %w", ErrInvalidArgument)
	}
	trap.PC = trap.Entry
	trap.Entry = nil
	trap.X[abi.RegA0] = 0
	t.Trap().Entry = nil

	parent.Lock()
	if parent.LiveThreads() != 1 {
		parent.Unlock()
		return 0, fmt.Errorf("fork of multi-threaded process %d: %w", parent.PID, ErrInvalidArgument)
	}
	memory, err := parent.Memory.Clone()
	if err != nil {
		parent.Unlock()
		return 0, err
	}
	child := k.register(func(pid int) *task.Process {
		ret := task.NewProcess(pid, parent.Name, memory)
		ret.Mutexes = parent.Mutexes.Clone()
		ret.Semaphores = parent.Semaphores.Clone()
		ret.Condvars = parent.Condvars.Clone()
		ret.DeadlockDetect = parent.DeadlockDetect
		return ret
	})
	child.SetParent(parent)
	parent.AddChild(child)
	parent.Unlock()

	ct := task.NewThread(child, 0, trap, t.Priority())
	child.Lock()
	child.Threads.Insert(ct)
	child.Unlock()
	k.hart.ready.Add(ct)
	k.update(progress.Delta{Spawned: 1})
	k.publish(Lifecycle{Type: EventFork, PID: child.PID, ParentPID: parent.PID, Image: child.Name})
	debug.DPrintf(debug.PROC, "fork %d -> %d", parent.PID, child.PID)
	return child.PID, nil
}

// Exec replaces the image of t's process. On success it does not return: t
// restarts at the new entry. On failure nothing changes.
func (k *Kernel) Exec(t *task.Thread, name string) error {
	image, err := k.loader.Resolve(name)
	if err != nil {
		return err
	}
	p := t.Process()
	p.Lock()
	if p.LiveThreads() != 1 {
		p.Unlock()
		return fmt.Errorf("exec in multi-threaded process %d: %w", p.PID, ErrInvalidArgument)
	}
	p.Unlock()
	memory, top, err := k.load(image)
	if err != nil {
		return err
	}
	p.Lock()
	old := p.Memory
	p.Memory = memory
	p.Name = image.Name
	p.DropExited()
	p.Unlock()
	old.Release()

	*t.Trap() = task.NewTrapContext(image.Entry, top)
	k.publish(Lifecycle{Type: EventExec, PID: p.PID, TID: t.TID(), ParentPID: parentPID(p), Image: image.Name})
	debug.DPrintf(debug.PROC, "exec %d %v", p.PID, image.Name)
	t.SetRestart(true)
	runtime.Goexit()
	return nil
}

// Exit terminates t with code and never returns. The main thread takes its
// whole process down; other threads exit alone.
func (k *Kernel) Exit(t *task.Thread, code int) {
	if t.TID() == 0 {
		k.terminate(t, code)
	} else {
		k.exitThread(t, code)
	}
	runtime.Goexit()
}

func (k *Kernel) exitThread(t *task.Thread, code int) {
	p := t.Process()
	p.Lock()
	t.SetExitCode(code)
	k.hart.discard(t)
	if err := p.Memory.UnmapStack(t.TID(), k.config.StackPages); err != nil {
		log.Printf("process %d: thread %d stack: %v", p.PID, t.TID(), err)
	}
	p.Unlock()
	k.publish(Lifecycle{Type: EventThreadExit, PID: p.PID, TID: t.TID(), ParentPID: parentPID(p), Code: code})
}

// terminate turns t's process into a zombie with code: every thread is
// discarded, memory and resource tables are released and children move to
// init. It does not unwind the caller.
func (k *Kernel) terminate(t *task.Thread, code int) {
	p := t.Process()
	p.Lock()
	if p.Zombie {
		p.Unlock()
		return
	}
	p.Zombie = true
	p.ExitCode = code
	t.SetExitCode(code)
	p.Threads.Range(func(_ int, th *task.Thread) bool {
		k.hart.discard(th)
		return true
	})
	p.Threads.Clear()
	p.Mutexes.Clear()
	p.Semaphores.Clear()
	p.Condvars.Clear()
	p.Memory.Release()
	children := p.Children
	p.Children = nil
	p.Unlock()

	k.reparent(p, children)
	k.update(progress.Delta{Exited: 1})
	k.publish(Lifecycle{Type: EventExit, PID: p.PID, TID: t.TID(), ParentPID: parentPID(p), Image: p.Name, Code: code})
	debug.DPrintf(debug.PROC, "exit %d code=%d", p.PID, code)
}

// reparent hands children of a dying process to init. Without a live init
// they are detached and never reaped.
func (k *Kernel) reparent(p *task.Process, children []*task.Process) {
	root := k.Init()
	if root == p {
		root = nil
	}
	if root != nil {
		root.Lock()
		dead := root.Zombie
		root.Unlock()
		if dead {
			root = nil
		}
	}
	for _, child := range children {
		child.Lock()
		child.SetParent(root)
		child.Unlock()
		if root != nil {
			root.Lock()
			root.AddChild(child)
			root.Unlock()
		}
	}
}

// WaitPid reaps one zombie child of t's process matching pid (-1 for any)
// and returns its pid and exit code. A non-zero status receives the exit
// code; when it is not writable nothing is reaped.
func (k *Kernel) WaitPid(t *task.Thread, pid int, status uint64) (int, int, error) {
	p := t.Process()
	p.Lock()
	found := false
	var zombie *task.Process
	for _, child := range p.Children {
		if pid != -1 && child.PID != pid {
			continue
		}
		found = true
		child.Lock()
		isZombie := child.Zombie
		child.Unlock()
		if isZombie {
			zombie = child
			break
		}
	}
	if !found {
		p.Unlock()
		return 0, 0, ErrNoChild
	}
	if zombie == nil {
		p.Unlock()
		return 0, 0, ErrStillRunning
	}
	zombie.Lock()
	held := zombie.Threads.Len()
	zombie.Unlock()
	if held != 0 {
		p.Unlock()
		log.Printf("process %d: child %d zombie still holds %d threads", p.PID, zombie.PID, held)
		return 0, 0, fmt.Errorf("reap %d: %w", zombie.PID, ErrInvariant)
	}
	if status != 0 {
		ranges, err := p.Memory.Translate(status, abi.ExitCodeSize)
		if err != nil {
			p.Unlock()
			return 0, 0, fmt.Errorf("waitpid status %#x: %v: %w", status, err, ErrInvalidArgument)
		}
		data := abi.EncodeExitCode(zombie.ExitCode)
		for _, r := range ranges {
			data = data[copy(r, data):]
		}
	}
	p.RemoveChild(zombie)
	p.Unlock()

	k.unregister(zombie)
	k.record(p, zombie)
	k.update(progress.Delta{Reaped: 1})
	k.publish(Lifecycle{Type: EventReap, PID: zombie.PID, ParentPID: p.PID, Image: zombie.Name, Code: zombie.ExitCode})
	debug.DPrintf(debug.PROC, "reap %d code=%d by %d", zombie.PID, zombie.ExitCode, p.PID)
	return zombie.PID, zombie.ExitCode, nil
}

func (k *Kernel) record(parent, zombie *task.Process) {
	if k.accounting == nil {
		return
	}
	k.mu.Lock()
	k.reapSeq++
	seq := k.reapSeq
	k.mu.Unlock()
	zombie.Lock()
	syscalls := make(map[string]uint32, len(zombie.Syscalls))
	for id, count := range zombie.Syscalls {
		syscalls[abi.SyscallName(id)] += count
	}
	record := &acct.Record{
		ID:        seq,
		PID:       zombie.PID,
		ParentPID: parent.PID,
		Image:     zombie.Name,
		ExitCode:  zombie.ExitCode,
		Syscalls:  syscalls,
		RunningMs: clock.Since(zombie.StartedAt),
		ReapedAt:  clock.Now(),
	}
	zombie.Unlock()
	if err := k.accounting.Save(context.Background(), record); err != nil {
		log.Printf("failed to save accounting of %d: %v", zombie.PID, err)
	}
}

// SetPriority sets t's scheduling weight. Values below task.MinPriority are rejected.
func (k *Kernel) SetPriority(t *task.Thread, priority int64) (int64, error) {
	if priority < task.MinPriority {
		return 0, ErrInvalidArgument
	}
	t.SetPriority(priority)
	return priority, nil
}

// Sbrk moves the program break of t's process and returns the old break.
func (k *Kernel) Sbrk(t *task.Thread, delta int64) (uint64, error) {
	p := t.Process()
	p.Lock()
	defer p.Unlock()
	return p.Memory.Sbrk(delta)
}

// Mmap maps [start, start+length) in t's process with port permission bits.
func (k *Kernel) Mmap(t *task.Thread, start, length, port uint64) error {
	p := t.Process()
	p.Lock()
	defer p.Unlock()
	err := p.Memory.Mmap(start, length, port)
	debug.DPrintf(debug.MM, "mmap %d [%#x, +%#x) port=%#x: %v", p.PID, start, length, port, err)
	return err
}

// Munmap unmaps [start, start+length) in t's process.
func (k *Kernel) Munmap(t *task.Thread, start, length uint64) error {
	p := t.Process()
	p.Lock()
	defer p.Unlock()
	err := p.Memory.Munmap(start, length)
	debug.DPrintf(debug.MM, "munmap %d [%#x, +%#x): %v", p.PID, start, length, err)
	return err
}

// GetPid returns the pid of t's process.
func (k *Kernel) GetPid(t *task.Thread) int { return t.Process().PID }

// TaskInfo reports t's process syscall counts and running time.
func (k *Kernel) TaskInfo(t *task.Thread) *abi.TaskInfo {
	p := t.Process()
	p.Lock()
	defer p.Unlock()
	ret := &abi.TaskInfo{Status: uint32(task.Running), Time: uint64(clock.Since(p.StartedAt))}
	for id, count := range p.Syscalls {
		if id < abi.MaxSyscallNum {
			ret.SyscallTimes[id] = count
		}
	}
	return ret
}

// Time returns the current wall clock time.
func (k *Kernel) Time() abi.TimeVal {
	us := clock.Now().UnixMicro()
	return abi.TimeVal{Sec: uint64(us / 1_000_000), Usec: uint64(us % 1_000_000)}
}
