package kernel

import (
	"context"
	"log"

	"github.com/viant/kcore/runtime/process"
	"github.com/viant/kcore/service/event"
)

// EventKind names a kernel event.
type EventKind string

const (
	EventCreated    EventKind = "created"
	EventTerminated EventKind = "terminated"
	EventBlocked    EventKind = "blocked"
	EventWoken      EventKind = "woken"
	EventDispatched EventKind = "dispatched"
	EventIdle       EventKind = "idle"
	EventHalted     EventKind = "halted"
	EventPassUp     EventKind = "passup"
	EventDevice     EventKind = "device"
)

// Event describes a kernel state change.
type Event struct {
	Kind      EventKind   `json:"kind"`
	PID       process.PID `json:"pid,omitempty"`
	Parent    process.PID `json:"parent,omitempty"`
	Priority  int         `json:"priority,omitempty"`
	Semaphore uint32      `json:"semaphore,omitempty"`
	Line      int         `json:"line,omitempty"`
	Unit      int         `json:"unit,omitempty"`
	Status    uint32      `json:"status,omitempty"`
}

// EventOf builds an event about p.
func EventOf(kind EventKind, p *process.Process) Event {
	ret := Event{Kind: kind}
	if p != nil {
		ret.PID = p.PID
		ret.Parent = p.Parent
		ret.Priority = p.Priority
		ret.Semaphore = p.Semaphore
	}
	return ret
}

// Notify publishes ev when an event stream is attached. A rejected event is
// logged, it never fails the kernel operation.
func (s *State) Notify(ctx context.Context, sess *Session, ev Event) {
	if s.publisher == nil {
		return
	}
	evCtx := &event.Context{EventType: string(ev.Kind), PID: uint32(ev.PID)}
	if sess != nil {
		evCtx.SessionID = sess.ID
		evCtx.Exception = sess.Exception.String()
	}
	if err := s.publisher.Publish(ctx, event.NewEvent(evCtx, ev)); err != nil {
		log.Printf("kernel: dropped %v event for pid %v: %v", ev.Kind, ev.PID, err)
	}
}
