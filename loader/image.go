package loader

import (
	"errors"
	"fmt"

	"github.com/viant/procos/abi"
	"github.com/viant/procos/mm"
)

// ErrNotFound is returned when no program is registered under a name.
var ErrNotFound = errors.New("loader: image not found")

// Loader resolves images by name.
type Loader interface {
	Resolve(name string) (*Image, error)
}

// Image is a resolved executable. Segment data is shared and must not be modified.
type Image struct {
	Name     string
	Entry    abi.Program
	Segments []mm.Segment
}

// Manifest lists image layouts.
type Manifest struct {
	Images []*Layout `yaml:"images" json:"images"`
}

// Layout describes the segments of one image, placed back to back from mm.ImageBase.
type Layout struct {
	Name     string          `yaml:"name" json:"name"`
	Segments []SegmentLayout `yaml:"segments" json:"segments"`
}

// SegmentLayout describes one segment.
type SegmentLayout struct {
	Pages int    `yaml:"pages" json:"pages"`
	Perm  string `yaml:"perm" json:"perm"`
	Data  string `yaml:"data,omitempty" json:"data,omitempty"`
}

// DefaultLayout returns the layout used for images without a manifest entry:
// one text page holding the image name and one data page.
func DefaultLayout(name string) *Layout {
	return &Layout{
		Name: name,
		Segments: []SegmentLayout{
			{Pages: 1, Perm: "rx", Data: name},
			{Pages: 1, Perm: "rw"},
		},
	}
}

// Validate checks page counts and permissions.
func (l *Layout) Validate() error {
	if l.Name == "" {
		return fmt.Errorf("layout: name was empty")
	}
	for i, seg := range l.Segments {
		if seg.Pages <= 0 {
			return fmt.Errorf("layout %v: segment %d: pages must be > 0", l.Name, i)
		}
		if len(seg.Data) > seg.Pages*mm.PageSize {
			return fmt.Errorf("layout %v: segment %d: data exceeds %d pages", l.Name, i, seg.Pages)
		}
		if _, err := mm.ParsePerm(seg.Perm); err != nil {
			return fmt.Errorf("layout %v: segment %d: %w", l.Name, i, err)
		}
	}
	return nil
}

// segments converts l into address-space segments.
func (l *Layout) segments() ([]mm.Segment, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	addr := uint64(mm.ImageBase)
	ret := make([]mm.Segment, 0, len(l.Segments))
	for _, seg := range l.Segments {
		perm, _ := mm.ParsePerm(seg.Perm)
		size := uint64(seg.Pages) * mm.PageSize
		ret = append(ret, mm.Segment{Addr: addr, Size: size, Perm: perm, Data: []byte(seg.Data)})
		addr += size
	}
	return ret, nil
}
