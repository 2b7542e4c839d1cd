package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/procos/abi"
	"github.com/viant/procos/mm"
)

func TestStatus_Transitions(t *testing.T) {
	var testCases = []struct {
		from   Status
		to     Status
		expect bool
	}{
		{from: Ready, to: Running, expect: true},
		{from: Running, to: Blocked, expect: true},
		{from: Running, to: Ready, expect: true},
		{from: Blocked, to: Ready, expect: true},
		{from: Blocked, to: Running, expect: false},
		{from: Ready, to: Blocked, expect: false},
		{from: Zombie, to: Ready, expect: false},
		{from: Blocked, to: Zombie, expect: true},
	}
	for _, testCase := range testCases {
		assert.Equal(t, testCase.expect, testCase.from.CanTransition(testCase.to), testCase.from.String()+"->"+testCase.to.String())
	}
}

func TestThread(t *testing.T) {
	p := NewProcess(3, "app", mm.NewMemorySet(mm.NewPool(0)))
	entry := func(abi.CPU) int { return 0 }
	th := NewThread(p, 1, NewTrapContext(entry, 0x4000), 0)

	assert.Same(t, p, th.Process())
	assert.Equal(t, "3:1", th.String())
	assert.Equal(t, Ready, th.Status())
	assert.EqualValues(t, DefaultPriority, th.Priority())
	assert.EqualValues(t, 0x4000, th.StackTop())
	assert.EqualValues(t, 0x4000, th.Trap().X[abi.RegSP])

	assert.False(t, th.SetStatus(Blocked))
	assert.Equal(t, Ready, th.Status())
	assert.True(t, th.SetStatus(Running))

	th.AddHeld(2, 1)
	th.AddHeld(2, 1)
	th.AddHeld(1, -1)
	assert.Equal(t, 2, th.Held(2))
	assert.Equal(t, -1, th.Held(1))
	assert.Equal(t, 0, th.Held(7))
	assert.Equal(t, []int{0, -1, 2}, th.HeldVector())
}

func TestProcess_Children(t *testing.T) {
	parent := NewProcess(0, "init", nil)
	child := NewProcess(1, "child", nil)
	child.SetParent(parent)
	parent.AddChild(child)

	assert.Same(t, parent, child.Parent())
	require.Len(t, parent.Children, 1)
	assert.True(t, parent.RemoveChild(child))
	assert.False(t, parent.RemoveChild(child))

	child.SetParent(nil)
	assert.Nil(t, child.Parent())

	parent.CountSyscall(abi.SysYield)
	parent.CountSyscall(abi.SysYield)
	assert.EqualValues(t, 2, parent.Syscalls[abi.SysYield])
	assert.Nil(t, parent.MainThread())
}

func TestProcess_ExitedThreads(t *testing.T) {
	p := NewProcess(2, "app", nil)
	for i := 0; i < 3; i++ {
		p.Threads.Insert(NewThread(p, i, TrapContext{}, DefaultPriority))
	}
	exited, _ := p.Threads.Get(1)
	require.True(t, exited.SetStatus(Running))
	require.True(t, exited.SetStatus(Zombie))

	assert.Equal(t, 3, p.Threads.Len())
	assert.Equal(t, 2, p.LiveThreads())

	p.DropExited()
	assert.Equal(t, 2, p.Threads.Len())
	assert.Equal(t, 2, p.LiveThreads())
	_, ok := p.Threads.Get(1)
	assert.False(t, ok)
}
