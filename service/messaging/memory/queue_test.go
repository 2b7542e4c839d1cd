package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/procos/service/messaging"
)

type exitNote struct {
	PID  int
	Code int
}

func TestQueue_PublishConsume(t *testing.T) {
	queue := NewQueue[exitNote](DefaultConfig())
	ctx := context.Background()
	notes := []exitNote{{PID: 1, Code: 0}, {PID: 2, Code: 7}, {PID: 3, Code: -1}}
	for i := range notes {
		assert.NoError(t, queue.Publish(ctx, &notes[i]))
	}
	assert.Equal(t, len(notes), queue.Size())
	for _, expect := range notes {
		msg, err := queue.Consume(ctx)
		if !assert.NoError(t, err) {
			return
		}
		assert.Equal(t, expect, *msg.T())
		assert.NoError(t, msg.Ack())
		assert.Error(t, msg.Ack())
	}
	assert.Equal(t, 0, queue.Size())
}

func TestQueue_DropWhenFull(t *testing.T) {
	var testCases = []struct {
		description string
		drop        bool
		expectErr   error
	}{
		{description: "drop returns queue full", drop: true, expectErr: messaging.ErrQueueFull},
		{description: "blocking publish honours ctx", drop: false, expectErr: context.DeadlineExceeded},
	}
	for _, testCase := range testCases {
		config := DefaultConfig()
		config.QueueBuffer = 1
		config.DropWhenFull = testCase.drop
		queue := NewQueue[exitNote](config)
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		assert.NoError(t, queue.Publish(ctx, &exitNote{PID: 1}), testCase.description)
		err := queue.Publish(ctx, &exitNote{PID: 2})
		assert.ErrorIs(t, err, testCase.expectErr, testCase.description)
		cancel()
	}
}

func TestQueue_Retries(t *testing.T) {
	config := DefaultConfig()
	config.MaxRetries = 2
	config.RetryDelay = 5 * time.Millisecond
	queue := NewQueue[exitNote](config)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, queue.Publish(ctx, &exitNote{PID: 4}))
	for i := 0; i <= config.MaxRetries; i++ {
		msg, err := queue.Consume(ctx)
		if !assert.NoError(t, err) {
			return
		}
		assert.Equal(t, 4, msg.T().PID)
		assert.NoError(t, msg.Nack(nil))
	}
	assert.Equal(t, 1, queue.DLQSize())
	assert.Equal(t, 0, queue.Size())
}

func TestQueue_Concurrency(t *testing.T) {
	config := DefaultConfig()
	config.DropWhenFull = false
	queue := NewQueue[exitNote](config)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	producers, perProducer := 8, 25
	wg := sync.WaitGroup{}
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(pid int) {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				assert.NoError(t, queue.Publish(ctx, &exitNote{PID: pid, Code: j}))
			}
		}(i)
	}
	consumed := 0
	for consumed < producers*perProducer {
		msg, err := queue.Consume(ctx)
		if !assert.NoError(t, err) {
			return
		}
		assert.NoError(t, msg.Ack())
		consumed++
	}
	wg.Wait()
	assert.Equal(t, 0, queue.Size())
}

func TestQueue_CancelledContext(t *testing.T) {
	queue := NewQueue[exitNote](DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, queue.Publish(ctx, &exitNote{}))
	_, err := queue.Consume(ctx)
	assert.Error(t, err)
	assert.NoError(t, queue.Publish(context.Background(), &exitNote{PID: 9}))
	msg, err := queue.Consume(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 9, msg.T().PID)
}
