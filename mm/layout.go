package mm

import "strings"

const (
	// PageShift is log2 of PageSize.
	PageShift = 12
	// PageSize is the size of a page and of a physical frame.
	PageSize = 1 << PageShift
	// ImageBase is where image segments start.
	ImageBase = 0x10000
	// StackBase is the bottom of the per-thread user stack region.
	StackBase = 0x4000_0000
	// UserTop is the first address above user space.
	UserTop = 1 << 38
)

// Perm is a set of page permission bits.
type Perm uint8

const (
	PermR Perm = 1 << 0
	PermW Perm = 1 << 1
	PermX Perm = 1 << 2

	permMask = PermR | PermW | PermX
)

// Has reports whether every bit of want is set in p.
func (p Perm) Has(want Perm) bool { return p&want == want }

func (p Perm) String() string {
	b := strings.Builder{}
	for _, c := range []struct {
		bit  Perm
		flag byte
	}{{PermR, 'r'}, {PermW, 'w'}, {PermX, 'x'}} {
		if p&c.bit != 0 {
			b.WriteByte(c.flag)
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

// ParsePerm parses "rwx" style permission strings.
func ParsePerm(s string) (Perm, error) {
	var p Perm
	for _, c := range strings.ToLower(s) {
		switch c {
		case 'r':
			p |= PermR
		case 'w':
			p |= PermW
		case 'x':
			p |= PermX
		case '-':
		default:
			return 0, ErrPermission
		}
	}
	if p == 0 {
		return 0, ErrPermission
	}
	return p, nil
}

// PageFloor returns the page number containing va.
func PageFloor(va uint64) uint64 { return va >> PageShift }

// PageCeil returns the number of the first page at or above va.
func PageCeil(va uint64) uint64 { return (va + PageSize - 1) >> PageShift }

// Aligned reports whether va is on a page boundary.
func Aligned(va uint64) bool { return va&(PageSize-1) == 0 }

// StackRegion returns the [bottom, top) range of the user stack of slot tid.
// Stacks are separated by one guard page.
func StackRegion(tid int, pages int) (bottom, top uint64) {
	bottom = StackBase + uint64(tid)*uint64(pages+1)*PageSize
	return bottom, bottom + uint64(pages)*PageSize
}
