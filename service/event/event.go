package event

import (
	"time"

	"github.com/viant/kcore/internal/clock"
)

// Context identifies where an event was raised.
type Context struct {
	SessionID string `json:"sessionID"`
	PID       uint32 `json:"pid"`
	EventType string `json:"eventType"`
	Exception string `json:"exception,omitempty"`
}

type Event[T any] struct {
	Context   *Context               `json:"context"`
	CreatedAt time.Time              `json:"createdAt"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Data      T                      `json:"data"`
}

func NewEvent[T any](context *Context, data T) *Event[T] {
	return &Event[T]{
		Context:   context,
		CreatedAt: clock.Now(),
		Metadata:  make(map[string]interface{}),
		Data:      data,
	}
}
