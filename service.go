package procos

import (
	"context"
	"fmt"

	"github.com/viant/afs"
	"github.com/viant/afs/url"
	"github.com/viant/procos/abi"
	"github.com/viant/procos/apps"
	"github.com/viant/procos/dispatch"
	"github.com/viant/procos/internal/idgen"
	"github.com/viant/procos/kernel"
	"github.com/viant/procos/loader"
	"github.com/viant/procos/mm"
	"github.com/viant/procos/model/acct"
	"github.com/viant/procos/progress"
	"github.com/viant/procos/service/dao"
	acctfs "github.com/viant/procos/service/dao/acct/fs"
	acctmem "github.com/viant/procos/service/dao/acct/memory"
	"github.com/viant/procos/service/event"
	"github.com/viant/procos/service/messaging"
	"github.com/viant/procos/service/messaging/fs"
	"github.com/viant/procos/service/messaging/memory"
	"github.com/viant/procos/tracing"
)

const (
	// Name is the tracing service name.
	Name = "procos"
	// Version is the tracing service version.
	Version = "0.1.0"
)

// Service boots kernels over a shared image registry, event stream and
// accounting store. Every Run uses a fresh kernel.
type Service struct {
	config     *Config
	fs         afs.Service
	registry   *loader.Registry
	programs   map[string]abi.Program
	frames     mm.FrameAllocator
	events     *event.Service
	listener   func(*event.Event[kernel.Lifecycle])
	accounting dao.Service[int, acct.Record]
	onProgress func(progress.Progress)
	traced     bool
}

// Result describes a finished run.
type Result struct {
	BootID   string
	Init     string
	ExitCode int
	Progress progress.Progress
}

// New creates a service. Unless WithLoader is used, the bundled programs of
// package apps are registered.
func New(options ...Option) (*Service, error) {
	ret := &Service{config: DefaultConfig(), programs: make(map[string]abi.Program)}
	for _, option := range options {
		option(ret)
	}
	if err := ret.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := ret.ensureBaseSetup(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *Service) ensureBaseSetup() error {
	if s.fs == nil {
		s.fs = afs.New()
	}
	if s.registry == nil {
		s.registry = loader.New(loader.WithCacheSize(s.config.Loader.CacheSize), loader.WithFS(s.fs))
		s.registry.RegisterAll(apps.Programs())
	}
	s.registry.RegisterAll(s.programs)
	if s.events == nil {
		events, err := s.newEventService()
		if err != nil {
			return fmt.Errorf("failed to create event service: %w", err)
		}
		s.events = events
	}
	if s.listener != nil {
		if err := event.SetListenerOf[kernel.Lifecycle](s.events, s.listener); err != nil {
			return fmt.Errorf("failed to set event listener: %w", err)
		}
	}
	if s.accounting == nil {
		accounting, err := s.newAccounting()
		if err != nil {
			return fmt.Errorf("failed to create accounting store: %w", err)
		}
		s.accounting = accounting
	}
	if s.config.Tracing.Enabled && !s.traced {
		if err := tracing.Init(Name, Version, s.config.Tracing.Output); err != nil {
			return fmt.Errorf("failed to init tracing: %w", err)
		}
		s.traced = true
	}
	return nil
}

func (s *Service) newEventService() (*event.Service, error) {
	cfg := s.config.Events
	switch cfg.Vendor {
	case messaging.VendorFS:
		return event.New(cfg.Vendor, event.WithFS(s.fs), event.WithNewFsQueueConfig(func(name string) fs.QueueConfig {
			ret := fs.DefaultConfig()
			ret.BasePath = url.Join(cfg.BasePath, name)
			return ret
		}))
	}
	return event.New(cfg.Vendor, event.WithNewMemoryQueueConfig(func(string) memory.Config {
		ret := memory.DefaultConfig()
		ret.QueueBuffer = cfg.Buffer
		ret.DropWhenFull = true
		return ret
	}))
}

func (s *Service) newAccounting() (dao.Service[int, acct.Record], error) {
	if base := s.config.Accounting.BasePath; base != "" {
		return acctfs.New(context.Background(), s.fs, base)
	}
	return acctmem.New(), nil
}

// Config returns the service configuration.
func (s *Service) Config() *Config { return s.config }

// Registry returns the image registry.
func (s *Service) Registry() *loader.Registry { return s.registry }

// Events returns the kernel event service.
func (s *Service) Events() *event.Service { return s.events }

// Accounting returns the accounting store.
func (s *Service) Accounting() dao.Service[int, acct.Record] { return s.accounting }

// Run boots the configured init image on a fresh kernel and runs it until
// every process has exited. The result is returned together with any run error.
func (s *Service) Run(ctx context.Context) (result *Result, err error) {
	if URL := s.config.Loader.ManifestURL; URL != "" {
		if err = s.registry.LoadManifest(ctx, URL); err != nil {
			return nil, err
		}
	}
	publisher, err := event.PublisherOf[kernel.Lifecycle](s.events)
	if err != nil {
		return nil, fmt.Errorf("failed to create event publisher: %w", err)
	}
	frames := s.frames
	if frames == nil {
		frames = mm.NewPool(s.config.Memory.Frames)
	}
	bootID := idgen.Short()
	tracker := progress.New(bootID, s.config.Init, s.onProgress)
	k, err := kernel.New(
		kernel.WithBootID(bootID),
		kernel.WithConfig(s.config.Kernel()),
		kernel.WithLoader(s.registry),
		kernel.WithFrames(frames),
		kernel.WithPublisher(publisher),
		kernel.WithAccountingDAO(s.accounting),
		kernel.WithProgress(tracker),
	)
	if err != nil {
		return nil, err
	}
	if s.traced {
		var span *tracing.Span
		ctx, span = tracing.StartSpan(ctx, "procos.run", "SERVER")
		span.WithAttributes(map[string]string{"bootID": bootID, "init": s.config.Init})
		defer func() {
			if result != nil {
				span.WithInt("exitCode", int64(result.ExitCode))
			}
			tracing.EndSpan(span, err)
		}()
	}
	dispatch.New(k, dispatch.WithTracing(s.traced), dispatch.WithContext(ctx))
	p, err := k.Boot(s.config.Init)
	if err != nil {
		return nil, err
	}
	runErr := k.Run(ctx)
	p.Lock()
	code := p.ExitCode
	p.Unlock()
	result = &Result{BootID: bootID, Init: s.config.Init, ExitCode: code, Progress: tracker.Snapshot()}
	if runErr != nil {
		return result, fmt.Errorf("run %v: %w", bootID, runErr)
	}
	return result, nil
}

// Close stops event listeners and flushes traces.
func (s *Service) Close(ctx context.Context) error {
	s.events.Close()
	if s.traced {
		return tracing.Shutdown(ctx)
	}
	return nil
}
