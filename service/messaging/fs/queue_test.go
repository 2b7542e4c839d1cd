package fs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/afs"
)

type exitNote struct {
	PID  int `json:"pid"`
	Code int `json:"code"`
}

func newQueue(t *testing.T, maxRetries int) *Queue[exitNote] {
	config := DefaultConfig()
	config.BasePath = t.TempDir()
	config.MaxRetries = maxRetries
	queue, err := NewQueue[exitNote](afs.New(), config)
	if !assert.NoError(t, err) {
		t.FailNow()
	}
	return queue
}

func TestQueue_Order(t *testing.T) {
	queue := newQueue(t, 1)
	ctx := context.Background()
	for pid := 1; pid <= 12; pid++ {
		assert.NoError(t, queue.Publish(ctx, &exitNote{PID: pid, Code: pid * 10}))
	}
	pending, err := queue.Count(ctx, MessageStatePending)
	assert.NoError(t, err)
	assert.Equal(t, 12, pending)
	for pid := 1; pid <= 12; pid++ {
		msg, err := queue.Consume(ctx)
		if !assert.NoError(t, err) || !assert.NotNil(t, msg) {
			return
		}
		assert.Equal(t, pid, msg.T().PID)
		assert.NoError(t, msg.Ack())
		assert.Error(t, msg.Ack())
	}
	msg, err := queue.Consume(ctx)
	assert.NoError(t, err)
	assert.Nil(t, msg)
	completed, _ := queue.Count(ctx, MessageStateCompleted)
	assert.Equal(t, 12, completed)
}

func TestQueue_RetryThenDeadLetter(t *testing.T) {
	queue := newQueue(t, 1)
	ctx := context.Background()
	assert.NoError(t, queue.Publish(ctx, &exitNote{PID: 3, Code: -2}))

	var testCases = []struct {
		description string
		failed      int
		dead        int
	}{
		{description: "first nack is retried", failed: 1, dead: 0},
		{description: "second nack exceeds retries", failed: 0, dead: 1},
	}
	for _, testCase := range testCases {
		msg, err := queue.Consume(ctx)
		if !assert.NoError(t, err, testCase.description) || !assert.NotNil(t, msg, testCase.description) {
			return
		}
		assert.Equal(t, 3, msg.T().PID, testCase.description)
		assert.NoError(t, msg.Nack(errors.New("listener down")), testCase.description)
		failed, _ := queue.Count(ctx, MessageStateFailed)
		dead, _ := queue.Count(ctx, MessageStateDead)
		assert.Equal(t, testCase.failed, failed, testCase.description)
		assert.Equal(t, testCase.dead, dead, testCase.description)
	}
	msg, err := queue.Consume(ctx)
	assert.NoError(t, err)
	assert.Nil(t, msg)
}

func TestNewQueue_EmptyBasePath(t *testing.T) {
	_, err := NewQueue[exitNote](afs.New(), QueueConfig{})
	assert.Error(t, err)
}
