package kcore

import (
	"context"
	"errors"
	"fmt"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/kcore/model/arch"
	"github.com/viant/kcore/service/messaging"
	"github.com/viant/kcore/service/scheduler"
	"gopkg.in/yaml.v3"
)

// Config is a serialisable representation of the kernel configuration. Zero
// valued fields of a loaded document keep their defaults.
type Config struct {
	Arch      string          `json:"arch" yaml:"arch"`
	Process   ProcessConfig   `json:"process" yaml:"process"`
	Scheduler SchedulerConfig `json:"scheduler" yaml:"scheduler"`
	Events    EventsConfig    `json:"events" yaml:"events"`
	Tracing   TracingConfig   `json:"tracing" yaml:"tracing"`
}

type ProcessConfig struct {
	// Max is the process arena capacity.
	Max int `json:"max" yaml:"max"`
}

type SchedulerConfig struct {
	TimeSlice uint32 `json:"timeSlice" yaml:"timeSlice"`
	Aging     bool   `json:"aging" yaml:"aging"`
}

type EventsConfig struct {
	Enabled bool             `json:"enabled" yaml:"enabled"`
	Vendor  messaging.Vendor `json:"vendor" yaml:"vendor"`
	// Buffer is the memory queue capacity.
	Buffer int `json:"buffer" yaml:"buffer"`
	// URL is the journal location of the fs vendor.
	URL string `json:"url" yaml:"url"`
}

type TracingConfig struct {
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	ServiceName string `json:"serviceName" yaml:"serviceName"`
	Output      string `json:"output" yaml:"output"`
}

// DefaultConfig returns a Config populated with the defaults.
func DefaultConfig() *Config {
	return &Config{
		Arch:      arch.UMPSName,
		Process:   ProcessConfig{Max: 20},
		Scheduler: SchedulerConfig{TimeSlice: scheduler.DefaultTimeSlice},
		Events:    EventsConfig{Vendor: messaging.VendorMemory, Buffer: 256},
		Tracing:   TracingConfig{ServiceName: "kcore"},
	}
}

// Validate returns aggregated error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	var errs []error
	if _, err := arch.Lookup(c.Arch); err != nil {
		errs = append(errs, err)
	}
	if c.Process.Max <= 0 {
		errs = append(errs, fmt.Errorf("process.max must be > 0"))
	}
	if c.Scheduler.TimeSlice == 0 {
		errs = append(errs, fmt.Errorf("scheduler.timeSlice must be > 0"))
	}
	if c.Events.Enabled {
		switch c.Events.Vendor {
		case messaging.VendorMemory:
			if c.Events.Buffer <= 0 {
				errs = append(errs, fmt.Errorf("events.buffer must be > 0"))
			}
		case messaging.VendorFs:
			if c.Events.URL == "" {
				errs = append(errs, fmt.Errorf("events.url is required for the fs vendor"))
			}
		default:
			errs = append(errs, fmt.Errorf("unsupported events.vendor: %q", c.Events.Vendor))
		}
	}
	return errors.Join(errs...)
}

// LoadConfig reads a YAML (or JSON) document from URL on top of the defaults.
func LoadConfig(ctx context.Context, URL string, options ...storage.Option) (*Config, error) {
	data, err := afs.New().DownloadWithURL(ctx, URL, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %v: %w", URL, err)
	}
	ret := DefaultConfig()
	if err = yaml.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to decode config %v: %w", URL, err)
	}
	if err = ret.Validate(); err != nil {
		return nil, err
	}
	return ret, nil
}
