package acct

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecord_Summary(t *testing.T) {
	r := &Record{Syscalls: map[string]uint32{"yield": 1500, "exit": 1, "getpid": 1}}
	assert.EqualValues(t, 1502, r.TotalSyscalls())
	assert.Equal(t, []string{"yield=1,500", "exit=1", "getpid=1"}, r.Summary())
}

func TestRecord_Matches(t *testing.T) {
	r := &Record{PID: 3, ParentPID: 0, Image: "forktest", ExitCode: -2}
	var testCases = []struct {
		description string
		name        string
		value       interface{}
		expect      bool
	}{
		{description: "pid", name: "PID", value: 3, expect: true},
		{description: "pid miss", name: "PID", value: 4, expect: false},
		{description: "parent in set", name: "ParentPID", value: []int{0, 1}, expect: true},
		{description: "image", name: "Image", value: "forktest", expect: true},
		{description: "image set miss", name: "Image", value: []string{"sleep"}, expect: false},
		{description: "exit code", name: "ExitCode", value: -2, expect: true},
		{description: "unknown name", name: "State", value: "x", expect: true},
	}
	for _, testCase := range testCases {
		assert.Equal(t, testCase.expect, r.Matches(testCase.name, testCase.value), testCase.description)
	}
}
