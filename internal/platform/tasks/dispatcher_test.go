package tasks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherRunsTask(t *testing.T) {
	d := NewDispatcher(Config{Workers: 1, QueueSize: 4})
	d.Start(context.Background())

	done := make(chan struct{})
	ok := d.Enqueue(NewTask("test", func(ctx context.Context) error {
		close(done)
		return nil
	}))
	require.True(t, ok)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task was not executed")
	}
	d.Stop()
}

func TestDispatcherRetriesUntilSuccess(t *testing.T) {
	d := NewDispatcher(Config{Workers: 1, QueueSize: 4, MaxRetryElapsed: 5 * time.Second})
	d.Start(context.Background())

	var attempts atomic.Int32
	done := make(chan struct{})
	d.Enqueue(NewTask("flaky", func(ctx context.Context) error {
		if attempts.Add(1) < 3 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("task never succeeded")
	}
	assert.GreaterOrEqual(t, attempts.Load(), int32(3))
	d.Stop()
}

func TestDispatcherEnqueueNeverBlocks(t *testing.T) {
	// Not started: the queue fills and further enqueues are rejected, not blocked.
	d := NewDispatcher(Config{Workers: 1, QueueSize: 1})

	first := d.Enqueue(NewTask("a", func(ctx context.Context) error { return nil }))
	second := d.Enqueue(NewTask("b", func(ctx context.Context) error { return nil }))

	assert.True(t, first)
	assert.False(t, second)
}

func TestDispatcherStopDrainsQueue(t *testing.T) {
	d := NewDispatcher(Config{Workers: 2, QueueSize: 16})
	d.Start(context.Background())

	var ran atomic.Int32
	for i := 0; i < 10; i++ {
		d.Enqueue(NewTask("count", func(ctx context.Context) error {
			ran.Add(1)
			return nil
		}))
	}
	d.Stop()

	assert.Equal(t, int32(10), ran.Load())
}
