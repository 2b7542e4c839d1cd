// Package messaging defines the queue abstraction behind kernel event
// delivery. Vendors live in sub packages: memory for in-process channels and
// fs for a durable journal on any afs backed storage.
package messaging

import (
	"context"
	"errors"
)

// Vendor names a queue implementation.
type Vendor string

const (
	// VendorMemory selects the channel backed queue.
	VendorMemory Vendor = "memory"
	// VendorFS selects the afs backed journal queue.
	VendorFS Vendor = "fs"
)

// ErrQueueFull is returned by non-blocking publishers when no room is left.
var ErrQueueFull = errors.New("messaging: queue full")

// Queue is a FIFO of T payloads.
type Queue[T any] interface {
	// Publish appends t to the queue
	Publish(ctx context.Context, t *T) error

	// Consume returns the oldest message. The fs vendor returns nil, nil
	// when the queue is empty; the memory vendor waits for ctx.
	Consume(ctx context.Context) (Message[T], error)
}

// Message is one consumed payload.
type Message[T any] interface {
	// T returns the payload
	T() *T

	// Ack marks the message delivered
	Ack() error

	// Nack returns the message for redelivery or dead-letters it
	Nack(err error) error
}
