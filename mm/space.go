package mm

import "sort"

// AddressSpace is the capability the kernel uses to manage a user address space.
type AddressSpace interface {
	// Map installs pages covering [start, start+length) with perm.
	Map(start, length uint64, perm Perm) error
	// Unmap removes pages covering [start, start+length).
	Unmap(start, length uint64) error
	// Translate returns the byte ranges backing [va, va+n) without permission checks.
	Translate(va uint64, n int) ([][]byte, error)
	// Access is Translate restricted to pages granting want.
	Access(va uint64, n int, want Perm) ([][]byte, error)
}

type pte struct {
	perm  Perm
	frame *Frame
}

// Space is a page table mapping page numbers to lazily allocated frames.
type Space struct {
	frames FrameAllocator
	pages  map[uint64]*pte
}

// NewSpace creates an empty address space drawing frames from frames.
func NewSpace(frames FrameAllocator) *Space {
	return &Space{frames: frames, pages: make(map[uint64]*pte)}
}

func span(start, length uint64) (first, last uint64, err error) {
	end := start + length
	if end < start || end > UserTop {
		return 0, 0, ErrOutOfRange
	}
	return PageFloor(start), PageCeil(end), nil
}

// Map implements AddressSpace. The range must not overlap any mapped page.
func (s *Space) Map(start, length uint64, perm Perm) error {
	if length == 0 {
		return nil
	}
	first, last, err := span(start, length)
	if err != nil {
		return err
	}
	for vpn := first; vpn < last; vpn++ {
		if _, ok := s.pages[vpn]; ok {
			return ErrOverlap
		}
	}
	for vpn := first; vpn < last; vpn++ {
		s.pages[vpn] = &pte{perm: perm}
	}
	return nil
}

// Unmap implements AddressSpace. Every page of the range must be mapped.
func (s *Space) Unmap(start, length uint64) error {
	if length == 0 {
		return nil
	}
	first, last, err := span(start, length)
	if err != nil {
		return err
	}
	for vpn := first; vpn < last; vpn++ {
		if _, ok := s.pages[vpn]; !ok {
			return ErrNotMapped
		}
	}
	for vpn := first; vpn < last; vpn++ {
		s.frames.Free(s.pages[vpn].frame)
		delete(s.pages, vpn)
	}
	return nil
}

// Mapped reports whether the page containing va is mapped.
func (s *Space) Mapped(va uint64) bool {
	_, ok := s.pages[PageFloor(va)]
	return ok
}

// PermOf returns the permission of the page containing va.
func (s *Space) PermOf(va uint64) (Perm, bool) {
	e, ok := s.pages[PageFloor(va)]
	if !ok {
		return 0, false
	}
	return e.perm, true
}

// Translate implements AddressSpace.
func (s *Space) Translate(va uint64, n int) ([][]byte, error) {
	return s.walk(va, n, 0)
}

// Access implements AddressSpace.
func (s *Space) Access(va uint64, n int, want Perm) ([][]byte, error) {
	return s.walk(va, n, want)
}

func (s *Space) walk(va uint64, n int, want Perm) ([][]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	if va+uint64(n) < va || va+uint64(n) > UserTop {
		return nil, &Fault{Addr: va, Access: want, Err: ErrOutOfRange}
	}
	var ranges [][]byte
	for n > 0 {
		e, ok := s.pages[PageFloor(va)]
		if !ok {
			return nil, &Fault{Addr: va, Access: want, Err: ErrNotMapped}
		}
		if !e.perm.Has(want) {
			return nil, &Fault{Addr: va, Access: want, Err: ErrPermission}
		}
		if e.frame == nil {
			frame, err := s.frames.Alloc()
			if err != nil {
				return nil, &Fault{Addr: va, Access: want, Err: err}
			}
			e.frame = frame
		}
		offset := int(va & (PageSize - 1))
		size := PageSize - offset
		if size > n {
			size = n
		}
		ranges = append(ranges, e.frame[offset:offset+size])
		va += uint64(size)
		n -= size
	}
	return ranges, nil
}

// Read copies len(buf) bytes at va into buf, ignoring permissions.
func (s *Space) Read(va uint64, buf []byte) error {
	ranges, err := s.Translate(va, len(buf))
	if err != nil {
		return err
	}
	for _, r := range ranges {
		buf = buf[copy(buf, r):]
	}
	return nil
}

// Write copies data to va, ignoring permissions.
func (s *Space) Write(va uint64, data []byte) error {
	ranges, err := s.Translate(va, len(data))
	if err != nil {
		return err
	}
	for _, r := range ranges {
		data = data[copy(r, data):]
	}
	return nil
}

// Clone returns a copy of s. Resident frames are copied, lazy pages stay lazy.
func (s *Space) Clone() (*Space, error) {
	ret := NewSpace(s.frames)
	for vpn, e := range s.pages {
		copied := &pte{perm: e.perm}
		if e.frame != nil {
			frame, err := s.frames.Alloc()
			if err != nil {
				ret.Release()
				return nil, err
			}
			*frame = *e.frame
			copied.frame = frame
		}
		ret.pages[vpn] = copied
	}
	return ret, nil
}

// Release unmaps every page and returns resident frames to the allocator.
func (s *Space) Release() {
	for vpn, e := range s.pages {
		s.frames.Free(e.frame)
		delete(s.pages, vpn)
	}
}

// Pages returns the number of mapped pages.
func (s *Space) Pages() int { return len(s.pages) }

// Resident returns the number of mapped pages backed by a frame.
func (s *Space) Resident() int {
	count := 0
	for _, e := range s.pages {
		if e.frame != nil {
			count++
		}
	}
	return count
}

// Region is a run of contiguous pages sharing one permission.
type Region struct {
	Start uint64
	End   uint64
	Perm  Perm
}

// Regions returns mapped pages coalesced into regions in address order.
func (s *Space) Regions() []Region {
	vpns := make([]uint64, 0, len(s.pages))
	for vpn := range s.pages {
		vpns = append(vpns, vpn)
	}
	sort.Slice(vpns, func(i, j int) bool { return vpns[i] < vpns[j] })
	var ret []Region
	for _, vpn := range vpns {
		perm := s.pages[vpn].perm
		start := vpn << PageShift
		if n := len(ret); n > 0 && ret[n-1].End == start && ret[n-1].Perm == perm {
			ret[n-1].End += PageSize
			continue
		}
		ret = append(ret, Region{Start: start, End: start + PageSize, Perm: perm})
	}
	return ret
}
