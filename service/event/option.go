package event

import (
	"github.com/viant/afs"
	"github.com/viant/kcore/service/messaging/fs"
	"github.com/viant/kcore/service/messaging/memory"
)

type Option func(s *Service)

// WithNewFsQueueConfig sets the journal configuration per queue name
func WithNewFsQueueConfig(newConfig func(name string) fs.Config) Option {
	return func(s *Service) {
		s.fsNewQueueConfig = newConfig
	}
}

// WithNewMemoryQueueConfig sets the memory queue configuration per queue name
func WithNewMemoryQueueConfig(newQueue func(name string) memory.Config) Option {
	return func(s *Service) {
		s.memNewQueueConfig = newQueue
	}
}

// WithFs sets the storage service backing fs queues
func WithFs(fs afs.Service) Option {
	return func(s *Service) {
		s.fs = fs
	}
}
