package mm

import (
	"errors"
	"fmt"
)

var (
	ErrUnaligned   = errors.New("mm: address not page aligned")
	ErrPermission  = errors.New("mm: invalid permission bits")
	ErrOverlap     = errors.New("mm: range overlaps an existing mapping")
	ErrNotMapped   = errors.New("mm: range not mapped")
	ErrOutOfRange  = errors.New("mm: range outside user space")
	ErrOutOfFrames = errors.New("mm: out of physical frames")
	ErrHeap        = errors.New("mm: heap break out of bounds")
)

// Fault describes a failed access to user memory.
type Fault struct {
	Addr   uint64
	Access Perm
	Err    error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("mm: fault at %#x (%v): %v", f.Addr, f.Access, f.Err)
}

func (f *Fault) Unwrap() error { return f.Err }
