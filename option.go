package procos

import (
	"github.com/viant/afs"
	"github.com/viant/procos/abi"
	"github.com/viant/procos/kernel"
	"github.com/viant/procos/loader"
	"github.com/viant/procos/mm"
	"github.com/viant/procos/model/acct"
	"github.com/viant/procos/progress"
	"github.com/viant/procos/service/dao"
	"github.com/viant/procos/service/event"
	"github.com/viant/procos/tracing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option configures a Service.
type Option func(s *Service)

// WithConfig replaces the configuration. Sections left zero fail validation.
func WithConfig(config *Config) Option {
	return func(s *Service) {
		if config != nil {
			s.config = config
		}
	}
}

// WithInit sets the image booted as init.
func WithInit(name string) Option {
	return func(s *Service) { s.config.Init = name }
}

// WithFS sets the storage used for config, manifests, fs events and accounting.
func WithFS(fs afs.Service) Option {
	return func(s *Service) { s.fs = fs }
}

// WithLoader sets the image registry. The bundled programs are then not registered.
func WithLoader(registry *loader.Registry) Option {
	return func(s *Service) { s.registry = registry }
}

// WithPrograms registers additional programs, replacing bundled ones with the same name.
func WithPrograms(programs map[string]abi.Program) Option {
	return func(s *Service) {
		for name, program := range programs {
			s.programs[name] = program
		}
	}
}

// WithFrames sets the physical frame allocator shared by every run.
func WithFrames(frames mm.FrameAllocator) Option {
	return func(s *Service) { s.frames = frames }
}

// WithEventService sets the kernel event service
func WithEventService(service *event.Service) Option {
	return func(s *Service) { s.events = service }
}

// WithEventListener receives every kernel lifecycle event.
func WithEventListener(listener func(*event.Event[kernel.Lifecycle])) Option {
	return func(s *Service) { s.listener = listener }
}

// WithAccountingDAO sets the store receiving one record per reaped process.
func WithAccountingDAO(accounting dao.Service[int, acct.Record]) Option {
	return func(s *Service) { s.accounting = accounting }
}

// WithProgressListener is called after every counter change.
func WithProgressListener(listener func(progress.Progress)) Option {
	return func(s *Service) { s.onProgress = listener }
}

// WithTracing enables one span per run and per syscall, written by the stdout
// exporter to outputFile (stdout when empty). The first successful
// initialisation wins.
func WithTracing(outputFile string) Option {
	return func(s *Service) {
		s.config.Tracing.Enabled = true
		s.config.Tracing.Output = outputFile
	}
}

// WithTracingExporter enables tracing with a custom SpanExporter.
func WithTracingExporter(exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		if err := tracing.InitWithExporter(Name, Version, exporter); err == nil {
			s.traced = true
		}
	}
}
