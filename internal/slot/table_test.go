package slot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTable_Insert(t *testing.T) {
	var testCases = []struct {
		description string
		inserts     int
		remove      []int
		expectNext  int
		expectLen   int
		expectCap   int
	}{
		{description: "empty table", expectNext: 0},
		{description: "append", inserts: 3, expectNext: 3, expectLen: 3, expectCap: 3},
		{description: "reuse lowest freed", inserts: 4, remove: []int{2, 1}, expectNext: 1, expectLen: 2, expectCap: 4},
		{description: "reuse tail", inserts: 2, remove: []int{1}, expectNext: 1, expectLen: 1, expectCap: 2},
	}

	for _, testCase := range testCases {
		table := Table[string]{}
		for i := 0; i < testCase.inserts; i++ {
			table.Insert("v")
		}
		for _, id := range testCase.remove {
			_, ok := table.Remove(id)
			assert.True(t, ok, testCase.description)
		}
		assert.Equal(t, testCase.expectNext, table.Next(), testCase.description)
		assert.Equal(t, testCase.expectLen, table.Len(), testCase.description)
		assert.Equal(t, testCase.expectCap, table.Cap(), testCase.description)
		assert.Equal(t, testCase.expectNext, table.Insert("n"), testCase.description)
	}
}

func TestTable_Lookup(t *testing.T) {
	table := Table[int]{}
	id := table.Insert(42)

	v, err := table.Lookup(id)
	assert.NoError(t, err)
	assert.Equal(t, 42, v)

	_, err = table.Lookup(7)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = table.Lookup(-1)
	assert.ErrorIs(t, err, ErrNotFound)

	table.Remove(id)
	_, err = table.Lookup(id)
	assert.ErrorIs(t, err, ErrNotFound)
	_, ok := table.Remove(id)
	assert.False(t, ok)
}

func TestTable_CloneSharesPointers(t *testing.T) {
	type handle struct{ n int }
	table := Table[*handle]{}
	table.Insert(&handle{n: 1})
	table.Insert(&handle{n: 2})
	table.Remove(0)

	clone := table.Clone()
	assert.Equal(t, 1, clone.Len())
	orig, _ := table.Get(1)
	copied, _ := clone.Get(1)
	assert.Same(t, orig, copied)

	clone.Insert(&handle{n: 3})
	assert.Equal(t, 1, table.Len())
	assert.Equal(t, 2, clone.Len())
}

func TestTable_Range(t *testing.T) {
	table := Table[string]{}
	table.Insert("a")
	table.Insert("b")
	table.Insert("c")
	table.Remove(1)

	var ids []int
	table.Range(func(id int, _ string) bool {
		ids = append(ids, id)
		return true
	})
	assert.Equal(t, []int{0, 2}, ids)
	assert.Equal(t, []string{"a", "c"}, table.Values())

	table.Clear()
	assert.Equal(t, 0, table.Len())
	assert.Equal(t, 0, table.Next())
}
