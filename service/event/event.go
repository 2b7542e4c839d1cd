// Package event publishes typed kernel events over messaging queues. Every
// typed publisher also forwards its events to a shared "any" queue so a single
// listener can observe all event types.
package event

import (
	"time"

	"github.com/viant/procos/internal/clock"
)

// Context identifies where an event was raised.
type Context struct {
	Source    string `json:"source" yaml:"source"`
	PID       int    `json:"pid" yaml:"pid"`
	TID       int    `json:"tid" yaml:"tid"`
	EventType string `json:"eventType" yaml:"eventType"`
}

// Event wraps a payload with its context.
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
