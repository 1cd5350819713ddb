package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitAndExecute(t *testing.T) {
	q := New(2, time.Second)
	defer q.Stop()

	done := make(chan struct{})
	ok := q.Submit("test", func(ctx context.Context) error {
		close(done)
		return nil
	})
	require.True(t, ok)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task was not executed")
	}
}

func TestRetryOnce(t *testing.T) {
	q := New(1, time.Second)
	defer q.Stop()

	var attempts atomic.Int32
	done := make(chan struct{})
	q.Submit("flaky", func(ctx context.Context) error {
		if attempts.Add(1) == 1 {
			return errors.New("transient")
		}
		close(done)
		return nil
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task was not retried")
	}
	assert.Equal(t, int32(2), attempts.Load())
}

func TestDeadLetterAfterSecondFailure(t *testing.T) {
	q := New(1, time.Second)

	var attempts atomic.Int32
	q.Submit("doomed", func(ctx context.Context) error {
		attempts.Add(1)
		return errors.New("permanent")
	})
	q.Stop()

	// Exactly two attempts, then the task is dropped.
	assert.Equal(t, int32(2), attempts.Load())
}

func TestStopDrainsAcceptedTasks(t *testing.T) {
	q := New(2, time.Second)

	var executed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		ok := q.Submit("work", func(ctx context.Context) error {
			defer wg.Done()
			executed.Add(1)
			return nil
		})
		require.True(t, ok)
	}
	q.Stop()
	wg.Wait()

	assert.Equal(t, int32(20), executed.Load())
}

func TestSubmitAfterStopRejected(t *testing.T) {
	q := New(1, time.Second)
	q.Stop()

	ok := q.Submit("late", func(ctx context.Context) error { return nil })
	assert.False(t, ok)
}

func TestTaskPanicDoesNotKillWorker(t *testing.T) {
	q := New(1, time.Second)
	defer q.Stop()

	q.Submit("panicky", func(ctx context.Context) error {
		panic("boom")
	})

	done := make(chan struct{})
	ok := q.Submit("after", func(ctx context.Context) error {
		close(done)
		return nil
	})
	require.True(t, ok)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive the panic")
	}
}

func TestPanicCountsAsFailedAttempt(t *testing.T) {
	q := New(1, time.Second)

	var attempts atomic.Int32
	q.Submit("panicky", func(ctx context.Context) error {
		attempts.Add(1)
		panic("boom")
	})
	q.Stop()

	// A panic follows the same path as an error: one retry, then
	// dead-lettered.
	assert.Equal(t, int32(2), attempts.Load())
}

func TestTaskTimeoutPropagated(t *testing.T) {
	q := New(1, 50*time.Millisecond)
	defer q.Stop()

	expired := make(chan struct{})
	var once sync.Once
	q.Submit("slow", func(ctx context.Context) error {
		<-ctx.Done()
		once.Do(func() { close(expired) })
		return ctx.Err()
	})

	select {
	case <-expired:
	case <-time.After(2 * time.Second):
		t.Fatal("task context did not expire")
	}
}
