package kernel

import (
	"errors"
	"log"
	"runtime"

	"github.com/viant/procos/abi"
	"github.com/viant/procos/mm"
	"github.com/viant/procos/task"
)

// cpu is the abi.CPU handed to the program of one thread.
type cpu struct {
	k *Kernel
	t *task.Thread
}

func (c *cpu) Syscall(id uint64, a0, a1, a2 uint64) int64 {
	return c.k.trap(c.t, id, [3]uint64{a0, a1, a2})
}

func (c *cpu) Reg(i int) uint64 {
	if i <= 0 || i >= len(c.t.Trap().X) {
		return 0
	}
	return c.t.Trap().X[i]
}

func (c *cpu) SetEntry(p abi.Program) {
	c.t.Trap().Entry = p
}

func (c *cpu) Load(va uint64, buf []byte) {
	c.k.userAccess(c.t, va, len(buf), mm.PermR, func(ranges [][]byte) {
		for _, r := range ranges {
			buf = buf[copy(buf, r):]
		}
	})
}

func (c *cpu) Store(va uint64, data []byte) {
	c.k.userAccess(c.t, va, len(data), mm.PermW, func(ranges [][]byte) {
		for _, r := range ranges {
			data = data[copy(r, data):]
		}
	})
}

// userAccess applies fn to the user memory backing [va, va+n) with user
// permissions. A fault terminates the process and unwinds the caller.
func (k *Kernel) userAccess(t *task.Thread, va uint64, n int, want mm.Perm, fn func([][]byte)) {
	if t.Status() == task.Zombie {
		return
	}
	p := t.Process()
	p.Lock()
	ranges, err := p.Memory.Access(va, n, want)
	if err == nil {
		fn(ranges)
	}
	p.Unlock()
	if err == nil {
		return
	}
	code := abi.ExitFault
	if errors.Is(err, mm.ErrOutOfFrames) {
		code = abi.ExitOutOfMemory
	}
	log.Printf("process %d killed: %v", p.PID, err)
	k.terminate(t, code)
	runtime.Goexit()
}

// ReadUser copies n bytes of t's memory at va, ignoring page permissions.
func (k *Kernel) ReadUser(t *task.Thread, va uint64, n int) ([]byte, error) {
	p := t.Process()
	p.Lock()
	defer p.Unlock()
	buf := make([]byte, n)
	if err := p.Memory.Read(va, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteUser copies data into t's memory at va, ignoring page permissions.
func (k *Kernel) WriteUser(t *task.Thread, va uint64, data []byte) error {
	p := t.Process()
	p.Lock()
	defer p.Unlock()
	return p.Memory.Write(va, data)
}

// MaxStringLen bounds strings read from user memory.
const MaxStringLen = mm.PageSize

// ReadString reads a NUL terminated string from t's memory at va.
func (k *Kernel) ReadString(t *task.Thread, va uint64) (string, error) {
	p := t.Process()
	p.Lock()
	defer p.Unlock()
	var ret []byte
	b := make([]byte, 1)
	for len(ret) < MaxStringLen {
		if err := p.Memory.Read(va, b); err != nil {
			return "", err
		}
		if b[0] == 0 {
			return string(ret), nil
		}
		ret = append(ret, b[0])
		va++
	}
	return "", ErrInvalidArgument
}
