package kernel

import (
	"context"

	"github.com/viant/kcore/model/arch"
	"github.com/viant/kcore/model/types"
	"github.com/viant/kcore/runtime/asl"
	"github.com/viant/kcore/runtime/process"
	"github.com/viant/kcore/service/event"
	"github.com/viant/kcore/service/machine"
)

// Scheduler picks the next process to run, it records its decision in the
// session.
type Scheduler interface {
	Schedule(ctx context.Context, sess *Session) error
}

// State is the shared kernel state, it is mutated only from the dispatch path.
type State struct {
	Variant   arch.Variant
	Machine   machine.Machine
	Arena     *process.Arena
	Ready     *process.Queue
	Blocked   *asl.Registry
	Current   *process.Process
	Scheduler Scheduler

	publisher *event.Publisher[Event]
}

// New creates a kernel state with an arena of capacity processes.
func New(variant arch.Variant, m machine.Machine, capacity int) *State {
	arena := process.NewArena(capacity)
	return &State{
		Variant: variant,
		Machine: m,
		Arena:   arena,
		Ready:   process.NewQueue(arena, process.Ready),
		Blocked: asl.New(arena),
	}
}

// SetPublisher attaches the kernel event stream.
func (s *State) SetPublisher(publisher *event.Publisher[Event]) {
	s.publisher = publisher
}

// Now returns the TOD clock.
func (s *State) Now() uint64 {
	return s.Machine.TOD()
}

// RequireCurrent returns the running process, its absence is fatal.
func (s *State) RequireCurrent() (*process.Process, error) {
	if s.Current == nil {
		return nil, types.Fatalf("no current process")
	}
	return s.Current, nil
}

// Snapshot copies the saved context into the running process.
func (s *State) Snapshot(sess *Session) {
	if s.Current == nil || sess.Saved == nil {
		return
	}
	if len(s.Current.State) != len(sess.Saved) {
		s.Current.State = sess.Saved.Clone()
		return
	}
	s.Current.State.CopyFrom(sess.Saved)
}

// Suspend takes the running process off the CPU: its context is saved, its
// kernel time charged and Current cleared. The caller links it somewhere.
func (s *State) Suspend(sess *Session) *process.Process {
	p := s.Current
	if p == nil {
		return nil
	}
	s.Snapshot(sess)
	p.Time.ChargeKernel(s.Now())
	s.Current = nil
	return p
}

// Yield hands control to the scheduler, the running process (if any) is
// re-enqueued by it.
func (s *State) Yield(ctx context.Context, sess *Session) error {
	sess.yielded = true
	if s.Scheduler == nil {
		return types.Fatalf("no scheduler")
	}
	return s.Scheduler.Schedule(ctx, sess)
}

// ReadCounter reads a semaphore counter.
func (s *State) ReadCounter(key uint32) (int32, error) {
	value, err := s.Machine.ReadWord(key)
	return int32(value), err
}

// WriteCounter stores a semaphore counter.
func (s *State) WriteCounter(key uint32, value int32) error {
	return s.Machine.WriteWord(key, uint32(value))
}
