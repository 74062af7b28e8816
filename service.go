package kcore

import (
	"fmt"

	"github.com/viant/afs/url"
	"github.com/viant/kcore/model/arch"
	"github.com/viant/kcore/progress"
	"github.com/viant/kcore/runtime/kernel"
	"github.com/viant/kcore/service/event"
	"github.com/viant/kcore/service/interrupt"
	"github.com/viant/kcore/service/lifecycle"
	"github.com/viant/kcore/service/machine"
	"github.com/viant/kcore/service/machine/memory"
	"github.com/viant/kcore/service/messaging"
	"github.com/viant/kcore/service/messaging/fs"
	mmemory "github.com/viant/kcore/service/messaging/memory"
	"github.com/viant/kcore/service/passup"
	"github.com/viant/kcore/service/scheduler"
	"github.com/viant/kcore/service/semaphore"
	"github.com/viant/kcore/service/syscall"
	"github.com/viant/kcore/tracing"
)

// Service wires the kernel services together.
type Service struct {
	config       *Config
	machine      machine.Machine
	eventService *event.Service
	newScheduler func(k *kernel.State) kernel.Scheduler
	tracingErr   error
	onProgress   func(progress.Counters)
	runtime      *Runtime
}

func (s *Service) init(options []Option) error {
	for _, option := range options {
		option(s)
	}
	if s.config == nil {
		s.config = DefaultConfig()
	}
	if err := s.config.Validate(); err != nil {
		return err
	}
	if s.tracingErr == nil && s.config.Tracing.Enabled {
		s.tracingErr = tracing.Init(s.config.Tracing.ServiceName, "", s.config.Tracing.Output)
	}
	if s.tracingErr != nil {
		return fmt.Errorf("failed to initialise tracing: %w", s.tracingErr)
	}
	variant, err := arch.Lookup(s.config.Arch)
	if err != nil {
		return err
	}
	if s.machine == nil {
		s.machine = memory.New(variant)
	}
	if err = s.ensureEvents(); err != nil {
		return err
	}

	k := kernel.New(variant, s.machine, s.config.Process.Max)
	if s.eventService != nil {
		publisher, err := event.PublisherOf[kernel.Event](s.eventService)
		if err != nil {
			return err
		}
		k.SetPublisher(publisher)
	}
	rr := scheduler.New(k, scheduler.WithTimeSlice(s.config.Scheduler.TimeSlice), scheduler.WithAging(s.config.Scheduler.Aging))
	if s.newScheduler != nil {
		k.Scheduler = s.newScheduler(k)
	}
	sem := semaphore.New(k)
	life := lifecycle.New(k, sem)
	pass := passup.New(k, life)
	s.runtime = &Runtime{
		kernel:    k,
		semaphore: sem,
		lifecycle: life,
		passup:    pass,
		syscall:   syscall.New(k, sem, life, pass),
		interrupt: interrupt.New(k, sem, rr.TimeSlice()),
		progress:  progress.New(s.onProgress),
	}
	return nil
}

func (s *Service) ensureEvents() error {
	if s.eventService != nil || !s.config.Events.Enabled {
		return nil
	}
	var err error
	switch s.config.Events.Vendor {
	case messaging.VendorFs:
		baseURL := s.config.Events.URL
		s.eventService, err = event.New(messaging.VendorFs, event.WithNewFsQueueConfig(func(name string) fs.Config {
			config := fs.DefaultConfig()
			config.URL = url.Join(baseURL, name)
			return config
		}))
	default:
		buffer := s.config.Events.Buffer
		s.eventService, err = event.New(messaging.VendorMemory, event.WithNewMemoryQueueConfig(func(string) mmemory.Config {
			config := mmemory.DefaultConfig()
			config.QueueBuffer = buffer
			return config
		}))
	}
	return err
}

// Runtime returns the kernel runtime
func (s *Service) Runtime() *Runtime {
	return s.runtime
}

// Config returns the effective configuration
func (s *Service) Config() *Config {
	return s.config
}

// Machine returns the hardware the kernel runs on
func (s *Service) Machine() machine.Machine {
	return s.machine
}

// Events returns the kernel event stream, nil when disabled
func (s *Service) Events() *event.Service {
	return s.eventService
}

// New creates a kernel service
func New(options ...Option) (*Service, error) {
	ret := &Service{}
	if err := ret.init(options); err != nil {
		return nil, err
	}
	return ret, nil
}
