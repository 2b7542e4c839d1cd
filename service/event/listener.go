package event

import (
	"context"
	"log"
	"time"
)

// PollInterval is how long a listener waits after finding its queue empty.
var PollInterval = 20 * time.Millisecond

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

// Stop cancels the listener and waits for its loop to return.
func (l *Listener[T]) Stop() {
	l.cancel()
	<-l.done
}

func (l *Listener[T]) Start() {
	go func() {
		defer close(l.done)
		for l.ctx.Err() == nil {
			event, err := l.publisher.Consume(l.ctx)
			if err != nil {
				if l.ctx.Err() == nil {
					log.Printf("failed to consume event: %v", err)
				}
				continue
			}
			if event == nil {
				select {
				case <-l.ctx.Done():
				case <-time.After(PollInterval):
				}
				continue
			}
			l.handler(event)
		}
	}()
}
