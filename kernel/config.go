package kernel

import (
	"fmt"
	"time"

	"github.com/viant/procos/sched"
	"github.com/viant/procos/task"
)

// Config holds kernel tunables.
type Config struct {
	DefaultPriority int64         `json:"defaultPriority" yaml:"defaultPriority"`
	BigStride       uint64        `json:"bigStride" yaml:"bigStride"`
	StackPages      int           `json:"stackPages" yaml:"stackPages"`
	IdleTick        time.Duration `json:"idleTick" yaml:"idleTick"`
}

// DefaultConfig returns the standard kernel configuration.
func DefaultConfig() Config {
	return Config{
		DefaultPriority: task.DefaultPriority,
		BigStride:       sched.DefaultBigStride,
		StackPages:      2,
		IdleTick:        10 * time.Millisecond,
	}
}

// Validate reports invalid settings.
func (c Config) Validate() error {
	if c.DefaultPriority < task.MinPriority {
		return fmt.Errorf("defaultPriority must be >= %d", task.MinPriority)
	}
	if c.BigStride == 0 {
		return fmt.Errorf("bigStride must be > 0")
	}
	if c.StackPages <= 0 {
		return fmt.Errorf("stackPages must be > 0")
	}
	if c.IdleTick <= 0 {
		return fmt.Errorf("idleTick must be > 0")
	}
	return nil
}
