// Package apps holds the sample user programs shipped with the kernel. Each
// program returns 0 on success; usertests runs them all and exits with the
// number of programs whose exit code differed from the expected one.
package apps

import (
	"sort"

	"github.com/viant/procos/abi"
)

// ScratchBase is where programs map their shared scratch page.
const ScratchBase = 0x1000_0000

// Iterations is the per-thread loop count of the counter programs.
const Iterations = 1000

// Programs returns every shipped program by name.
func Programs() map[string]abi.Program {
	return map[string]abi.Program{
		"initproc":  InitProc,
		"usertests": UserTests,
		"exit":      Exit7,
		"fault":     Fault,
		"forktest":  ForkTest,
		"sleep":     Sleep,
		"mmap":      Mmap,
		"sbrk":      Sbrk,
		"threads":   Threads,
		"mutex":     MutexCounter,
		"spin":      SpinCounter,
		"semaphore": Semaphore,
		"condvar":   Condvar,
		"deadlock":  Deadlock,
		"priority":  Priority,
		"stride":    Stride,
	}
}

// Expected maps the programs run by usertests to their expected exit code.
func Expected() map[string]int {
	return map[string]int{
		"exit":      7,
		"fault":     abi.ExitFault,
		"forktest":  0,
		"sleep":     0,
		"mmap":      0,
		"sbrk":      0,
		"threads":   0,
		"mutex":     0,
		"spin":      0,
		"semaphore": 0,
		"condvar":   0,
		"deadlock":  0,
		"priority":  0,
		"stride":    0,
	}
}

// Tests returns the usertests program names in run order.
func Tests() []string {
	expected := Expected()
	ret := make([]string, 0, len(expected))
	for name := range expected {
		ret = append(ret, name)
	}
	sort.Strings(ret)
	return ret
}
