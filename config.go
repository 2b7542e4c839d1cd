package procos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/viant/afs"
	"github.com/viant/procos/kernel"
	"github.com/viant/procos/loader"
	"github.com/viant/procos/service/messaging"
	"gopkg.in/yaml.v3"
)

// Config is a serialisable representation of the engine configuration. The
// zero value of a section is not usable; start from DefaultConfig.
type Config struct {
	// Init is the image booted as the init process.
	Init       string           `json:"init" yaml:"init"`
	Scheduler  SchedulerConfig  `json:"scheduler" yaml:"scheduler"`
	Memory     MemoryConfig     `json:"memory" yaml:"memory"`
	Loader     LoaderConfig     `json:"loader" yaml:"loader"`
	Events     EventsConfig     `json:"events" yaml:"events"`
	Timer      TimerConfig      `json:"timer" yaml:"timer"`
	Tracing    TracingConfig    `json:"tracing" yaml:"tracing"`
	Accounting AccountingConfig `json:"accounting" yaml:"accounting"`
}

type SchedulerConfig struct {
	DefaultPriority int64  `json:"defaultPriority" yaml:"defaultPriority"`
	BigStride       uint64 `json:"bigStride" yaml:"bigStride"`
}

type MemoryConfig struct {
	// Frames caps physical frames in use, 0 means unlimited.
	Frames     int `json:"frames" yaml:"frames"`
	StackPages int `json:"stackPages" yaml:"stackPages"`
}

type LoaderConfig struct {
	// ManifestURL points to a yaml list of image layouts.
	ManifestURL string `json:"manifestURL,omitempty" yaml:"manifestURL,omitempty"`
	CacheSize   int    `json:"cacheSize" yaml:"cacheSize"`
}

type EventsConfig struct {
	Vendor   messaging.Vendor `json:"vendor" yaml:"vendor"`
	BasePath string           `json:"basePath,omitempty" yaml:"basePath,omitempty"`
	Buffer   int              `json:"buffer" yaml:"buffer"`
}

type TimerConfig struct {
	IdleTick time.Duration `json:"idleTick" yaml:"idleTick"`
}

type TracingConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	// Output is the trace file, stdout when empty.
	Output string `json:"output,omitempty" yaml:"output,omitempty"`
}

type AccountingConfig struct {
	// BasePath stores records as json files, in memory when empty.
	BasePath string `json:"basePath,omitempty" yaml:"basePath,omitempty"`
}

// DefaultConfig returns a Config holding the package defaults.
func DefaultConfig() *Config {
	k := kernel.DefaultConfig()
	return &Config{
		Init: "initproc",
		Scheduler: SchedulerConfig{
			DefaultPriority: k.DefaultPriority,
			BigStride:       k.BigStride,
		},
		Memory: MemoryConfig{StackPages: k.StackPages},
		Loader: LoaderConfig{CacheSize: loader.DefaultCacheSize},
		Events: EventsConfig{Vendor: messaging.VendorMemory, Buffer: 1024},
		Timer:  TimerConfig{IdleTick: k.IdleTick},
	}
}

// Validate returns aggregated error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Init == "" {
		errs = append(errs, fmt.Errorf("init was empty"))
	}
	if err := c.Kernel().Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Scheduler.BigStride < uint64(c.Scheduler.DefaultPriority) {
		errs = append(errs, fmt.Errorf("scheduler.bigStride must be >= defaultPriority"))
	}
	if c.Memory.Frames < 0 {
		errs = append(errs, fmt.Errorf("memory.frames must be >= 0"))
	}
	if c.Loader.CacheSize <= 0 {
		errs = append(errs, fmt.Errorf("loader.cacheSize must be > 0"))
	}
	switch c.Events.Vendor {
	case messaging.VendorMemory:
		if c.Events.Buffer <= 0 {
			errs = append(errs, fmt.Errorf("events.buffer must be > 0"))
		}
	case messaging.VendorFS:
		if c.Events.BasePath == "" {
			errs = append(errs, fmt.Errorf("events.basePath is required for the %v vendor", c.Events.Vendor))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported events.vendor: %q", c.Events.Vendor))
	}
	return errors.Join(errs...)
}

// Kernel returns the kernel tunables of c.
func (c *Config) Kernel() kernel.Config {
	return kernel.Config{
		DefaultPriority: c.Scheduler.DefaultPriority,
		BigStride:       c.Scheduler.BigStride,
		StackPages:      c.Memory.StackPages,
		IdleTick:        c.Timer.IdleTick,
	}
}

// LoadConfig reads a yaml (or json) config from URL over DefaultConfig.
func LoadConfig(ctx context.Context, fs afs.Service, URL string) (*Config, error) {
	if fs == nil {
		fs = afs.New()
	}
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to download config %v: %w", URL, err)
	}
	ret := DefaultConfig()
	if err = yaml.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to decode config %v: %w", URL, err)
	}
	if err = ret.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %v: %w", URL, err)
	}
	return ret, nil
}
