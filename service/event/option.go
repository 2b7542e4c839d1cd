package event

import (
	"github.com/viant/afs"
	"github.com/viant/procos/service/messaging/fs"
	"github.com/viant/procos/service/messaging/memory"
)

type Option func(s *Service)

// WithNewFsQueueConfig sets the per queue file system configuration
func WithNewFsQueueConfig(newConfig func(name string) fs.QueueConfig) Option {
	return func(s *Service) {
		s.fsNewQueueConfig = newConfig
	}
}

// WithNewMemoryQueueConfig sets the per queue memory configuration
func WithNewMemoryQueueConfig(newConfig func(name string) memory.Config) Option {
	return func(s *Service) {
		s.memNewQueueConfig = newConfig
	}
}

// WithFS sets the storage used by the fs vendor.
func WithFS(fs afs.Service) Option {
	return func(s *Service) {
		s.fs = fs
	}
}
