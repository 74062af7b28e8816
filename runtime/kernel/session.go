package kernel

import (
	"github.com/viant/kcore/internal/idgen"
	"github.com/viant/kcore/model/arch"
	"github.com/viant/kcore/runtime/process"
)

// Action is what the processor does once a session ends.
type Action int

const (
	// ActionResume loads the decision state and runs it.
	ActionResume Action = iota
	// ActionWait idles the processor until an interrupt.
	ActionWait
	// ActionHalt stops the machine.
	ActionHalt
)

func (a Action) String() string {
	switch a {
	case ActionResume:
		return "resume"
	case ActionWait:
		return "wait"
	case ActionHalt:
		return "halt"
	}
	return "unknown"
}

// Decision is the outcome of one exception handling cycle.
type Decision struct {
	Action Action
	PID    process.PID
	State  arch.State
}

// Session is one exception handling cycle.
type Session struct {
	ID        string
	Exception arch.Exception
	// Saved is the context the hardware deposited in the old area; syscall
	// results are written into it.
	Saved    arch.State
	decision *Decision
	yielded  bool
}

// NewSession starts a cycle for exception e with the saved context.
func NewSession(e arch.Exception, saved arch.State) *Session {
	return &Session{ID: idgen.New(), Exception: e, Saved: saved}
}

// Resume decides to run pid with state.
func (s *Session) Resume(pid process.PID, state arch.State) {
	s.decision = &Decision{Action: ActionResume, PID: pid, State: state.Clone()}
}

// Idle decides to wait for an interrupt.
func (s *Session) Idle() {
	s.decision = &Decision{Action: ActionWait}
}

// Halt decides to stop the machine.
func (s *Session) Halt() {
	s.decision = &Decision{Action: ActionHalt}
}

// Yielded reports whether the running process gave the CPU up.
func (s *Session) Yielded() bool {
	return s.yielded
}

// Decision returns the decision taken, nil while undecided.
func (s *Session) Decision() *Decision {
	return s.decision
}
