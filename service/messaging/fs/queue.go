// Package fs implements messaging.Queue as a journal of JSON files on any
// afs backed storage. A message moves between the pending, processing,
// completed, failed and dlq folders; file names carry a publish sequence so
// consumers see messages in publish order.
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/storage"
	"github.com/viant/procos/internal/clock"
	"github.com/viant/procos/internal/idgen"
	"github.com/viant/procos/service/messaging"
)

// MessageState is the folder a message currently lives in.
type MessageState string

const (
	MessageStatePending    MessageState = "pending"
	MessageStateProcessing MessageState = "processing"
	MessageStateCompleted  MessageState = "completed"
	MessageStateFailed     MessageState = "failed"
	MessageStateDead       MessageState = "dlq"
)

var states = []MessageState{MessageStatePending, MessageStateProcessing, MessageStateCompleted, MessageStateFailed, MessageStateDead}

// Message is a journaled queue entry.
type Message[T any] struct {
	ID        string       `json:"id"`
	Seq       int64        `json:"seq"`
	Data      T            `json:"data"`
	State     MessageState `json:"state"`
	Error     string       `json:"error,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	Retries   int          `json:"retries"`

	queue     *Queue[T]
	processed bool
	mu        sync.Mutex
}

// T returns the message payload
func (m *Message[T]) T() *T {
	return &m.Data
}

// Ack moves the message to the completed folder.
func (m *Message[T]) Ack() error {
	return m.settle(MessageStateCompleted, nil)
}

// Nack moves the message to the failed folder for redelivery, or to the dlq
// once MaxRetries is exceeded.
func (m *Message[T]) Nack(err error) error {
	return m.settle(MessageStateFailed, err)
}

func (m *Message[T]) settle(state MessageState, cause error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message %v already processed", m.ID)
	}
	m.processed = true
	if state == MessageStateFailed {
		m.Retries++
		if cause != nil {
			m.Error = cause.Error()
		}
		if m.Retries > m.queue.config.MaxRetries {
			state = MessageStateDead
		}
	}
	return m.queue.move(context.Background(), m, MessageStateProcessing, state)
}

// QueueConfig holds configuration for filesystem queue
type QueueConfig struct {
	BasePath   string `json:"basePath" yaml:"basePath"`
	MaxRetries int    `json:"maxRetries" yaml:"maxRetries"`
	// KeepCompleted retains acknowledged messages in the completed folder.
	KeepCompleted bool `json:"keepCompleted" yaml:"keepCompleted"`
}

// DefaultConfig returns a default queue configuration
func DefaultConfig() QueueConfig {
	return QueueConfig{
		BasePath:      "/tmp/procos/queue",
		MaxRetries:    3,
		KeepCompleted: true,
	}
}

// Queue implements a filesystem-based messaging.Queue
type Queue[T any] struct {
	fs     afs.Service
	config QueueConfig
	seq    int64
	mu     sync.Mutex
}

// NewQueue creates the queue folders under config.BasePath.
func NewQueue[T any](fs afs.Service, config QueueConfig) (*Queue[T], error) {
	if config.BasePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	q := &Queue[T]{fs: fs, config: config, seq: clock.Now().UnixNano()}
	ctx := context.Background()
	for _, state := range states {
		dir := q.dir(state)
		if exists, _ := fs.Exists(ctx, dir); exists {
			continue
		}
		if err := fs.Create(ctx, dir, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return q, nil
}

// Dir returns the folder holding messages in state.
func (q *Queue[T]) Dir(state MessageState) string { return q.dir(state) }

func (q *Queue[T]) dir(state MessageState) string {
	return path.Join(q.config.BasePath, string(state))
}

func (q *Queue[T]) filename(m *Message[T]) string {
	return fmt.Sprintf("%020d-%s.json", m.Seq, m.ID)
}

// Publish writes t to the pending folder.
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	q.mu.Lock()
	q.seq++
	seq := q.seq
	q.mu.Unlock()
	now := clock.Now()
	m := &Message[T]{ID: idgen.New(), Seq: seq, Data: *t, State: MessageStatePending, CreatedAt: now, UpdatedAt: now}
	return q.write(ctx, m, MessageStatePending)
}

// Consume claims the oldest failed message due for retry, else the oldest
// pending one. It returns nil, nil when both folders are empty.
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, state := range []MessageState{MessageStateFailed, MessageStatePending} {
		objects, err := q.list(ctx, state)
		if err != nil {
			return nil, err
		}
		if len(objects) == 0 {
			continue
		}
		obj := objects[0]
		m, err := q.read(ctx, obj.URL())
		if err != nil {
			_ = q.fs.Move(ctx, obj.URL(), path.Join(q.dir(MessageStateDead), "invalid-"+obj.Name()))
			return nil, err
		}
		if err = q.transfer(ctx, m, state, MessageStateProcessing); err != nil {
			return nil, err
		}
		return m, nil
	}
	return nil, nil
}

// list returns message files in state ordered by publish sequence.
func (q *Queue[T]) list(ctx context.Context, state MessageState) ([]storage.Object, error) {
	objects, err := q.fs.List(ctx, q.dir(state), option.NewRecursive(false))
	if err != nil {
		return nil, fmt.Errorf("failed to list %v messages: %w", state, err)
	}
	var ret []storage.Object
	for _, obj := range objects {
		if !obj.IsDir() && strings.HasSuffix(obj.Name(), ".json") {
			ret = append(ret, obj)
		}
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Name() < ret[j].Name() })
	return ret, nil
}

// Count returns the number of messages in state.
func (q *Queue[T]) Count(ctx context.Context, state MessageState) (int, error) {
	objects, err := q.list(ctx, state)
	return len(objects), err
}

func (q *Queue[T]) move(ctx context.Context, m *Message[T], from, to MessageState) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.transfer(ctx, m, from, to)
}

// transfer rewrites m into the to folder before deleting it from from.
func (q *Queue[T]) transfer(ctx context.Context, m *Message[T], from, to MessageState) error {
	if to != MessageStateCompleted || q.config.KeepCompleted {
		m.State = to
		m.UpdatedAt = clock.Now()
		if err := q.write(ctx, m, to); err != nil {
			return err
		}
	}
	source := path.Join(q.dir(from), q.filename(m))
	if exists, _ := q.fs.Exists(ctx, source); exists {
		if err := q.fs.Delete(ctx, source); err != nil {
			return fmt.Errorf("failed to delete %v message %v: %w", from, m.ID, err)
		}
	}
	m.queue = q
	return nil
}

func (q *Queue[T]) write(ctx context.Context, m *Message[T], state MessageState) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal message %v: %w", m.ID, err)
	}
	URL := path.Join(q.dir(state), q.filename(m))
	if err = q.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write %v message %v: %w", state, m.ID, err)
	}
	return nil
}

func (q *Queue[T]) read(ctx context.Context, URL string) (*Message[T], error) {
	data, err := q.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read message %s: %w", URL, err)
	}
	ret := &Message[T]{}
	if err = json.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message %s: %w", URL, err)
	}
	return ret, nil
}

var _ messaging.Queue[any] = (*Queue[any])(nil)
