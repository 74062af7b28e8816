package progress

import (
	"context"
	"sync"
	"time"

	"github.com/viant/kcore/internal/clock"
)

// Delta is an incremental counter change.
type Delta struct {
	Syscalls   int
	Interrupts int
	PassUps    int
	Dispatches int
	Idles      int
	Created    int
	Terminated int
	Failures   int
}

// Counters is a read-only view of a tracker.
type Counters struct {
	BootedAt   time.Time `json:"bootedAt"`
	Syscalls   int       `json:"syscalls"`
	Interrupts int       `json:"interrupts"`
	PassUps    int       `json:"passUps"`
	Dispatches int       `json:"dispatches"`
	Idles      int       `json:"idles"`
	Created    int       `json:"created"`
	Terminated int       `json:"terminated"`
	Failures   int       `json:"failures"`
}

// Alive returns the number of processes created and not yet terminated.
func (c Counters) Alive() int {
	return c.Created - c.Terminated
}

// Progress keeps the counters of one kernel, it is safe for concurrent use.
type Progress struct {
	mux      sync.Mutex
	counters Counters
	onChange func(Counters)
}

// Update applies d. The onChange callback, if any, receives a copy of the
// counters outside the critical section.
func (p *Progress) Update(d Delta) {
	if p == nil {
		return
	}
	p.mux.Lock()
	c := &p.counters
	c.Syscalls += d.Syscalls
	c.Interrupts += d.Interrupts
	c.PassUps += d.PassUps
	c.Dispatches += d.Dispatches
	c.Idles += d.Idles
	c.Created += d.Created
	c.Terminated += d.Terminated
	c.Failures += d.Failures
	snapshot := *c
	cb := p.onChange
	p.mux.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// Snapshot returns a copy of the counters.
func (p *Progress) Snapshot() Counters {
	if p == nil {
		return Counters{}
	}
	p.mux.Lock()
	defer p.mux.Unlock()
	return p.counters
}

// OnChange registers a callback invoked after every Update, nil disables it.
func (p *Progress) OnChange(cb func(Counters)) {
	if p == nil {
		return
	}
	p.mux.Lock()
	p.onChange = cb
	p.mux.Unlock()
}

// New creates a tracker stamped with the boot time.
func New(onChange func(Counters)) *Progress {
	return &Progress{counters: Counters{BootedAt: clock.Now()}, onChange: onChange}
}

type trackerKeyT struct{}

var trackerKey trackerKeyT

// WithTracker returns a context carrying tr.
func WithTracker(ctx context.Context, tr *Progress) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, trackerKey, tr)
}

// WithNewTracker creates a tracker and embeds it in a derived context.
func WithNewTracker(ctx context.Context, onChange func(Counters)) (context.Context, *Progress) {
	tr := New(onChange)
	return WithTracker(ctx, tr), tr
}

// FromContext extracts the tracker from ctx.
func FromContext(ctx context.Context) (*Progress, bool) {
	if ctx == nil {
		return nil, false
	}
	tr, ok := ctx.Value(trackerKey).(*Progress)
	return tr, ok
}

// GetSnapshot combines FromContext and Snapshot.
func GetSnapshot(ctx context.Context) (Counters, bool) {
	if tr, ok := FromContext(ctx); ok {
		return tr.Snapshot(), true
	}
	return Counters{}, false
}

// UpdateCtx applies d to the tracker held by ctx, if any.
func UpdateCtx(ctx context.Context, d Delta) {
	if tr, ok := FromContext(ctx); ok {
		tr.Update(d)
	}
}
