package mm

import "sync"

// Frame is one page of physical memory.
type Frame = [PageSize]byte

// FrameAllocator hands out zeroed physical frames.
type FrameAllocator interface {
	Alloc() (*Frame, error)
	Free(f *Frame)
}

// Pool is a FrameAllocator bounded by a frame budget. Freed frames are kept
// on a free list and zeroed before reuse.
type Pool struct {
	mu    sync.Mutex
	free  []*Frame
	limit int
	inUse int
}

// NewPool creates a pool of at most limit frames; limit <= 0 means unbounded.
func NewPool(limit int) *Pool {
	return &Pool{limit: limit}
}

// Alloc returns a zeroed frame or ErrOutOfFrames when the budget is spent.
func (p *Pool) Alloc() (*Frame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.limit > 0 && p.inUse >= p.limit {
		return nil, ErrOutOfFrames
	}
	p.inUse++
	if n := len(p.free); n > 0 {
		f := p.free[n-1]
		p.free = p.free[:n-1]
		*f = Frame{}
		return f, nil
	}
	return new(Frame), nil
}

// Free returns f to the pool.
func (p *Pool) Free(f *Frame) {
	if f == nil {
		return
	}
	p.mu.Lock()
	p.inUse--
	p.free = append(p.free, f)
	p.mu.Unlock()
}

// InUse returns the number of frames currently allocated.
func (p *Pool) InUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inUse
}

// Limit returns the frame budget, 0 when unbounded.
func (p *Pool) Limit() int { return p.limit }
