package mm

import "fmt"

// Segment is one loadable piece of an executable image.
type Segment struct {
	// Addr is the absolute start address, page aligned.
	Addr uint64
	// Size is the in-memory size; bytes past len(Data) are zero.
	Size uint64
	Perm Perm
	Data []byte
}

// MemorySet is the layout of one process: image segments, a heap grown with
// sbrk, per-thread stacks and anonymous mmap regions, all backed by one Space.
// It is guarded by the owning process lock.
type MemorySet struct {
	*Space
	heapBottom uint64
	brk        uint64
}

// NewMemorySet creates an empty memory set.
func NewMemorySet(frames FrameAllocator) *MemorySet {
	return &MemorySet{Space: NewSpace(frames)}
}

// Load maps and fills segments, then places the heap one guard page above
// the highest segment.
func (m *MemorySet) Load(segments []Segment) error {
	end := uint64(ImageBase)
	for _, seg := range segments {
		if !Aligned(seg.Addr) {
			return fmt.Errorf("segment %#x: %w", seg.Addr, ErrUnaligned)
		}
		if seg.Perm&^permMask != 0 || seg.Perm == 0 {
			return fmt.Errorf("segment %#x: %w", seg.Addr, ErrPermission)
		}
		size := seg.Size
		if size < uint64(len(seg.Data)) {
			size = uint64(len(seg.Data))
		}
		if size == 0 {
			continue
		}
		if err := m.Map(seg.Addr, size, seg.Perm); err != nil {
			return fmt.Errorf("segment %#x: %w", seg.Addr, err)
		}
		if len(seg.Data) > 0 {
			if err := m.Write(seg.Addr, seg.Data); err != nil {
				return fmt.Errorf("segment %#x: %w", seg.Addr, err)
			}
		}
		if top := PageCeil(seg.Addr+size) << PageShift; top > end {
			end = top
		}
	}
	m.heapBottom = end + PageSize
	m.brk = m.heapBottom
	return nil
}

// HeapBottom returns the lowest heap address.
func (m *MemorySet) HeapBottom() uint64 { return m.heapBottom }

// Brk returns the current program break.
func (m *MemorySet) Brk() uint64 { return m.brk }

// Sbrk moves the break by delta and returns the previous break.
func (m *MemorySet) Sbrk(delta int64) (uint64, error) {
	old := m.brk
	next := int64(old) + delta
	if next < int64(m.heapBottom) || uint64(next) > StackBase {
		return 0, ErrHeap
	}
	oldTop := PageCeil(old) << PageShift
	newTop := PageCeil(uint64(next)) << PageShift
	switch {
	case newTop > oldTop:
		if err := m.Map(oldTop, newTop-oldTop, PermR|PermW); err != nil {
			return 0, err
		}
	case newTop < oldTop:
		if err := m.Unmap(newTop, oldTop-newTop); err != nil {
			return 0, err
		}
	}
	m.brk = uint64(next)
	return old, nil
}

// CheckPort validates mmap permission bits: at least one of r/w/x, nothing else.
func CheckPort(port uint64) (Perm, error) {
	if port&uint64(permMask) == 0 || port&^uint64(permMask) != 0 {
		return 0, ErrPermission
	}
	return Perm(port), nil
}

// Mmap maps an anonymous region. Zero length succeeds without effect.
func (m *MemorySet) Mmap(start, length, port uint64) error {
	perm, err := CheckPort(port)
	if err != nil {
		return err
	}
	if !Aligned(start) {
		return ErrUnaligned
	}
	if length == 0 {
		return nil
	}
	return m.Map(start, length, perm)
}

// Munmap removes a region. Zero length succeeds without effect.
func (m *MemorySet) Munmap(start, length uint64) error {
	if !Aligned(start) {
		return ErrUnaligned
	}
	if length == 0 {
		return nil
	}
	return m.Unmap(start, length)
}

// MapStack maps the user stack of slot tid and returns its top.
func (m *MemorySet) MapStack(tid, pages int) (uint64, error) {
	bottom, top := StackRegion(tid, pages)
	if err := m.Map(bottom, top-bottom, PermR|PermW); err != nil {
		return 0, fmt.Errorf("stack %d: %w", tid, err)
	}
	return top, nil
}

// UnmapStack removes the user stack of slot tid.
func (m *MemorySet) UnmapStack(tid, pages int) error {
	bottom, top := StackRegion(tid, pages)
	return m.Unmap(bottom, top-bottom)
}

// Clone returns a copy of m with copied frames.
func (m *MemorySet) Clone() (*MemorySet, error) {
	space, err := m.Space.Clone()
	if err != nil {
		return nil, err
	}
	return &MemorySet{Space: space, heapBottom: m.heapBottom, brk: m.brk}, nil
}
