package mm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySet_Mmap(t *testing.T) {
	var testCases = []struct {
		description string
		start       uint64
		length      uint64
		port        uint64
		expectErr   error
	}{
		{description: "read write", start: 0x1000_0000, length: 2 * PageSize, port: 3},
		{description: "partial page rounds up", start: 0x1000_0000, length: 10, port: 1},
		{description: "zero length", start: 0x1000_0000, length: 0, port: 7},
		{description: "unaligned", start: 0x1000_0001, length: PageSize, port: 3, expectErr: ErrUnaligned},
		{description: "no permission", start: 0x1000_0000, length: PageSize, port: 0, expectErr: ErrPermission},
		{description: "extra bits", start: 0x1000_0000, length: PageSize, port: 0x9, expectErr: ErrPermission},
		{description: "zero length bad perm", start: 0x1000_0000, length: 0, port: 0, expectErr: ErrPermission},
		{description: "past user top", start: UserTop - PageSize, length: 2 * PageSize, port: 3, expectErr: ErrOutOfRange},
	}

	for _, testCase := range testCases {
		set := NewMemorySet(NewPool(0))
		err := set.Mmap(testCase.start, testCase.length, testCase.port)
		if testCase.expectErr != nil {
			assert.ErrorIs(t, err, testCase.expectErr, testCase.description)
			assert.Equal(t, 0, set.Pages(), testCase.description)
			continue
		}
		assert.NoError(t, err, testCase.description)
		assert.EqualValues(t, PageCeil(testCase.length), set.Pages(), testCase.description)
	}
}

func TestMemorySet_MapReadWriteUnmap(t *testing.T) {
	set := NewMemorySet(NewPool(0))
	start := uint64(0x2000_0000)
	require.NoError(t, set.Mmap(start, 2*PageSize, uint64(PermR|PermW)))
	assert.Equal(t, 0, set.Resident(), "frames are allocated on first touch")

	ranges, err := set.Access(start+PageSize-2, 4, PermW)
	require.NoError(t, err)
	require.Len(t, ranges, 2)
	copy(ranges[0], []byte{1, 2})
	copy(ranges[1], []byte{3, 4})
	assert.Equal(t, 2, set.Resident())

	buf := make([]byte, 4)
	require.NoError(t, set.Read(start+PageSize-2, buf))
	assert.Equal(t, []byte{1, 2, 3, 4}, buf)

	assert.ErrorIs(t, set.Mmap(start+PageSize, PageSize, 1), ErrOverlap)
	require.NoError(t, set.Munmap(start, 2*PageSize))
	assert.ErrorIs(t, set.Munmap(start, 2*PageSize), ErrNotMapped)
	assert.NoError(t, set.Munmap(start, 0))
	assert.ErrorIs(t, set.Munmap(start+1, PageSize), ErrUnaligned)
}

func TestMemorySet_AccessFault(t *testing.T) {
	set := NewMemorySet(NewPool(0))
	start := uint64(0x3000_0000)
	require.NoError(t, set.Mmap(start, PageSize, uint64(PermR)))

	_, err := set.Access(start, 8, PermR)
	assert.NoError(t, err)

	_, err = set.Access(start, 8, PermW)
	fault := &Fault{}
	require.True(t, errors.As(err, &fault))
	assert.ErrorIs(t, err, ErrPermission)
	assert.Equal(t, start, fault.Addr)

	_, err = set.Access(start+PageSize, 1, PermR)
	assert.ErrorIs(t, err, ErrNotMapped)

	assert.NoError(t, set.Write(start, []byte("kernel ignores permissions")))
}

func TestMemorySet_Load(t *testing.T) {
	set := NewMemorySet(NewPool(0))
	err := set.Load([]Segment{
		{Addr: ImageBase, Size: PageSize, Perm: PermR | PermX, Data: []byte("text")},
		{Addr: ImageBase + PageSize, Size: PageSize + 10, Perm: PermR | PermW},
	})
	require.NoError(t, err)
	assert.EqualValues(t, ImageBase+4*PageSize, set.HeapBottom(), "image end plus guard page")
	assert.Equal(t, set.HeapBottom(), set.Brk())

	buf := make([]byte, 4)
	require.NoError(t, set.Read(ImageBase, buf))
	assert.Equal(t, "text", string(buf))

	assert.ErrorIs(t, set.Load([]Segment{{Addr: ImageBase + 1, Size: 1, Perm: PermR}}), ErrUnaligned)
	assert.ErrorIs(t, set.Load([]Segment{{Addr: 0x100000, Size: 1, Perm: 8}}), ErrPermission)
}

func TestMemorySet_Sbrk(t *testing.T) {
	set := NewMemorySet(NewPool(0))
	require.NoError(t, set.Load(nil))
	bottom := set.HeapBottom()

	old, err := set.Sbrk(100)
	require.NoError(t, err)
	assert.Equal(t, bottom, old)
	assert.Equal(t, 1, set.Pages())

	old, err = set.Sbrk(PageSize)
	require.NoError(t, err)
	assert.Equal(t, bottom+100, old)
	assert.Equal(t, 2, set.Pages())
	require.NoError(t, set.Write(bottom+PageSize, []byte{1}))

	_, err = set.Sbrk(-int64(PageSize) - 200)
	assert.ErrorIs(t, err, ErrHeap)
	assert.Equal(t, bottom+100+PageSize, set.Brk(), "failed sbrk leaves the break unchanged")

	old, err = set.Sbrk(-int64(PageSize) - 100)
	require.NoError(t, err)
	assert.Equal(t, bottom+100+PageSize, old)
	assert.Equal(t, bottom, set.Brk())
	assert.Equal(t, 0, set.Pages())

	require.NoError(t, set.Mmap(bottom, PageSize, 3))
	_, err = set.Sbrk(10)
	assert.ErrorIs(t, err, ErrOverlap)
}

func TestMemorySet_Clone(t *testing.T) {
	pool := NewPool(0)
	set := NewMemorySet(pool)
	start := uint64(0x1000_0000)
	require.NoError(t, set.Mmap(start, 2*PageSize, 3))
	require.NoError(t, set.Write(start, []byte("parent")))

	clone, err := set.Clone()
	require.NoError(t, err)
	assert.Equal(t, 2, clone.Pages())
	assert.Equal(t, 1, clone.Resident())

	require.NoError(t, clone.Write(start, []byte("child!")))
	buf := make([]byte, 6)
	require.NoError(t, set.Read(start, buf))
	assert.Equal(t, "parent", string(buf))

	clone.Release()
	set.Release()
	assert.Equal(t, 0, pool.InUse())
}

func TestMemorySet_Stacks(t *testing.T) {
	set := NewMemorySet(NewPool(0))
	top0, err := set.MapStack(0, 2)
	require.NoError(t, err)
	top1, err := set.MapStack(1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, StackBase+2*PageSize, top0)
	assert.EqualValues(t, StackBase+5*PageSize, top1)
	assert.False(t, set.Mapped(top0), "guard page between stacks")

	_, err = set.MapStack(1, 2)
	assert.ErrorIs(t, err, ErrOverlap)
	require.NoError(t, set.UnmapStack(1, 2))
	assert.Equal(t, 2, set.Pages())
}

func TestPool_Exhaustion(t *testing.T) {
	pool := NewPool(1)
	set := NewMemorySet(pool)
	start := uint64(0x1000_0000)
	require.NoError(t, set.Mmap(start, 2*PageSize, 3))

	require.NoError(t, set.Write(start, []byte{1}))
	err := set.Write(start+PageSize, []byte{1})
	assert.ErrorIs(t, err, ErrOutOfFrames)

	require.NoError(t, set.Munmap(start, PageSize))
	assert.Equal(t, 0, pool.InUse())
	require.NoError(t, set.Write(start+PageSize, []byte{1}))
}

func TestSpace_Regions(t *testing.T) {
	space := NewSpace(NewPool(0))
	require.NoError(t, space.Map(0x10000, 2*PageSize, PermR|PermX))
	require.NoError(t, space.Map(0x12000, PageSize, PermR|PermW))
	require.NoError(t, space.Map(0x20000, PageSize, PermR|PermW))

	assert.Equal(t, []Region{
		{Start: 0x10000, End: 0x12000, Perm: PermR | PermX},
		{Start: 0x12000, End: 0x13000, Perm: PermR | PermW},
		{Start: 0x20000, End: 0x21000, Perm: PermR | PermW},
	}, space.Regions())
}

func TestParsePerm(t *testing.T) {
	var testCases = []struct {
		in        string
		expect    Perm
		expectErr bool
	}{
		{in: "rx", expect: PermR | PermX},
		{in: "rw-", expect: PermR | PermW},
		{in: "RWX", expect: PermR | PermW | PermX},
		{in: "", expectErr: true},
		{in: "rq", expectErr: true},
	}
	for _, testCase := range testCases {
		perm, err := ParsePerm(testCase.in)
		if testCase.expectErr {
			assert.Error(t, err, testCase.in)
			continue
		}
		assert.NoError(t, err, testCase.in)
		assert.Equal(t, testCase.expect, perm, testCase.in)
	}
	assert.Equal(t, "r-x", (PermR | PermX).String())
}
