// Package acct defines the accounting record kept for every reaped process.
package acct

import (
	"sort"
	"time"

	"github.com/dustin/go-humanize"
)

// Record summarises a process at the time its parent reaped it.
type Record struct {
	ID        int               `json:"id" yaml:"id"`
	PID       int               `json:"pid" yaml:"pid"`
	ParentPID int               `json:"parentPid" yaml:"parentPid"`
	Image     string            `json:"image" yaml:"image"`
	ExitCode  int               `json:"exitCode" yaml:"exitCode"`
	Syscalls  map[string]uint32 `json:"syscalls,omitempty" yaml:"syscalls,omitempty"`
	RunningMs int64             `json:"runningMs" yaml:"runningMs"`
	ReapedAt  time.Time         `json:"reapedAt" yaml:"reapedAt"`
}

// Key returns the record id.
func Key(r *Record) int { return r.ID }

// TotalSyscalls returns the number of syscalls the process made.
func (r *Record) TotalSyscalls() uint64 {
	var ret uint64
	for _, count := range r.Syscalls {
		ret += uint64(count)
	}
	return ret
}

// Summary returns syscall names ordered by descending count.
func (r *Record) Summary() []string {
	names := make([]string, 0, len(r.Syscalls))
	for name := range r.Syscalls {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if r.Syscalls[names[i]] != r.Syscalls[names[j]] {
			return r.Syscalls[names[i]] > r.Syscalls[names[j]]
		}
		return names[i] < names[j]
	})
	ret := make([]string, len(names))
	for i, name := range names {
		ret[i] = name + "=" + humanize.Comma(int64(r.Syscalls[name]))
	}
	return ret
}

// Matches reports whether r satisfies every named filter. Supported names
// are PID, ParentPID, Image and ExitCode; unknown names match.
func (r *Record) Matches(name string, value interface{}) bool {
	switch name {
	case "PID":
		return equalInt(r.PID, value)
	case "ParentPID":
		return equalInt(r.ParentPID, value)
	case "ExitCode":
		return equalInt(r.ExitCode, value)
	case "Image":
		switch actual := value.(type) {
		case string:
			return r.Image == actual
		case []string:
			for _, candidate := range actual {
				if r.Image == candidate {
					return true
				}
			}
			return false
		}
	}
	return true
}

func equalInt(v int, value interface{}) bool {
	switch actual := value.(type) {
	case int:
		return v == actual
	case []int:
		for _, candidate := range actual {
			if v == candidate {
				return true
			}
		}
		return false
	}
	return true
}
