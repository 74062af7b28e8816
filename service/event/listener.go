package event

import (
	"context"
	"errors"
	"log"
	"time"
)

// pollInterval is how long a listener sleeps on a drained journal.
const pollInterval = 10 * time.Millisecond

type Listener[T any] struct {
	publisher *Publisher[T]
	handler   func(*Event[T])
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewListener[T any](publisher *Publisher[T], handler func(*Event[T])) *Listener[T] {
	ctx, cancel := context.WithCancel(context.Background())
	return &Listener[T]{
		publisher: publisher,
		handler:   handler,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// Stop cancels the listener and waits for its goroutine to exit.
func (l *Listener[T]) Stop() {
	l.cancel()
	<-l.done
}

func (l *Listener[T]) Start() {
	go func() {
		defer close(l.done)
		for {
			event, err := l.publisher.Consume(l.ctx)
			if l.ctx.Err() != nil {
				return
			}
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("event: consume failed: %v", err)
			}
			if event == nil {
				select {
				case <-l.ctx.Done():
					return
				case <-time.After(pollInterval):
				}
				continue
			}
			l.handler(event)
		}
	}()
}
