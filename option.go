package kcore

import (
	"github.com/viant/kcore/progress"
	"github.com/viant/kcore/runtime/kernel"
	"github.com/viant/kcore/service/event"
	"github.com/viant/kcore/service/machine"
	"github.com/viant/kcore/tracing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type Option func(s *Service)

// WithConfig sets the kernel configuration
func WithConfig(config *Config) Option {
	return func(s *Service) {
		s.config = config
	}
}

// WithMachine sets the hardware, a simulated machine is used by default
func WithMachine(m machine.Machine) Option {
	return func(s *Service) {
		s.machine = m
	}
}

// WithEventService sets the kernel event stream
func WithEventService(service *event.Service) Option {
	return func(s *Service) {
		s.eventService = service
	}
}

// WithScheduler replaces the round robin scheduler
func WithScheduler(newScheduler func(k *kernel.State) kernel.Scheduler) Option {
	return func(s *Service) {
		s.newScheduler = newScheduler
	}
}

// WithProgress registers a callback receiving the kernel counters after
// every change
func WithProgress(onChange func(progress.Counters)) Option {
	return func(s *Service) {
		s.onProgress = onChange
	}
}

// WithTracing configures OpenTelemetry tracing with the stdout exporter
// writing to outputFile, or to stdout when it is empty. The first successful
// initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		s.tracingErr = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing with a custom exporter.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		s.tracingErr = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
