package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeEntity struct {
	name     string
	priority int64
	pass     uint64
}

func (f *fakeEntity) Priority() int64     { return f.priority }
func (f *fakeEntity) Pass() uint64        { return f.pass }
func (f *fakeEntity) SetPass(pass uint64) { f.pass = pass }

func TestScheduler_FIFOForEqualPass(t *testing.T) {
	s := New[*fakeEntity](0)
	a := &fakeEntity{name: "a", priority: 16}
	b := &fakeEntity{name: "b", priority: 16}
	c := &fakeEntity{name: "c", priority: 16}
	s.Add(a)
	s.Add(b)
	s.Add(c)
	s.Add(a)
	assert.Equal(t, 3, s.Len())

	var order []string
	for {
		e, ok := s.Fetch()
		if !ok {
			break
		}
		order = append(order, e.name)
	}
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestScheduler_PriorityShare(t *testing.T) {
	var testCases = []struct {
		description string
		low         int64
		high        int64
		expectRatio float64
	}{
		{description: "double", low: 5, high: 10, expectRatio: 2},
		{description: "equal", low: 8, high: 8, expectRatio: 1},
		{description: "quadruple", low: 2, high: 8, expectRatio: 4},
	}

	for _, testCase := range testCases {
		s := New[*fakeEntity](0)
		low := &fakeEntity{name: "low", priority: testCase.low}
		high := &fakeEntity{name: "high", priority: testCase.high}
		s.Add(low)
		s.Add(high)
		runs := map[string]int{}
		for i := 0; i < 3000; i++ {
			e, ok := s.Fetch()
			if !assert.True(t, ok, testCase.description) {
				break
			}
			runs[e.name]++
			s.Add(e)
		}
		ratio := float64(runs["high"]) / float64(runs["low"])
		assert.InDelta(t, testCase.expectRatio, ratio, 0.05, testCase.description)
	}
}

func TestScheduler_RemoveAndFloor(t *testing.T) {
	s := New[*fakeEntity](1000)
	a := &fakeEntity{name: "a", priority: 10}
	b := &fakeEntity{name: "b", priority: 10}
	s.Add(a)
	s.Add(b)
	assert.True(t, s.Remove(a))
	assert.False(t, s.Remove(a))
	assert.False(t, s.Contains(a))

	e, ok := s.Fetch()
	assert.True(t, ok)
	assert.Same(t, b, e)
	assert.EqualValues(t, 100, b.pass)

	s.Add(b)
	e, _ = s.Fetch()
	assert.EqualValues(t, 200, e.Pass())

	late := &fakeEntity{name: "late", priority: 10}
	s.Add(late)
	assert.EqualValues(t, 100, late.pass, "new entities start at the pass floor")

	_, ok = New[*fakeEntity](0).Fetch()
	assert.False(t, ok)
}
