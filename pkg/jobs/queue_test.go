package jobs

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

type resultRecorder struct {
	mu      sync.Mutex
	results map[string]error
	done    chan struct{}
}

func newResultRecorder(expected int) (*resultRecorder, ResultHook) {
	r := &resultRecorder{results: map[string]error{}, done: make(chan struct{})}
	return r, func(job Job, err error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.results[job.ID] = err
		if len(r.results) == expected {
			close(r.done)
		}
	}
}

func (r *resultRecorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for job results")
	}
}

func TestQueueRetriesThenSucceeds(t *testing.T) {
	var calls int32
	rec, hook := newResultRecorder(1)
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("transient")
		}
		return nil
	}, QueueConfig{MaxRetries: 3, RetryDelay: 5 * time.Millisecond, OnResult: hook})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "a", Type: "email"}))
	rec.wait(t)

	assert.NoError(t, rec.results["a"])
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestQueueReportsExhaustedAndRecoversPanics(t *testing.T) {
	rec, hook := newResultRecorder(2)
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		if job.Type == "panic" {
			panic("boom")
		}
		return errors.New("permanent")
	}, QueueConfig{MaxRetries: 1, RetryDelay: time.Millisecond, OnResult: hook})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "fail", Type: "sms"}))
	require.NoError(t, q.Enqueue(Job{ID: "panic", Type: "panic"}))
	rec.wait(t)

	assert.EqualError(t, rec.results["fail"], "permanent")
	assert.ErrorContains(t, rec.results["panic"], "panicked")
}

func TestEnqueueBeforeStartFails(t *testing.T) {
	q := NewQueue("idle", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Job{}))
}

func TestEnqueueFullBufferFails(t *testing.T) {
	block := make(chan struct{})
	q := NewQueue("full", func(ctx context.Context, job Job) error {
		<-block
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())
	defer func() {
		close(block)
		q.Stop()
	}()

	require.NoError(t, q.Enqueue(Job{Type: "a"}))
	// worker may or may not have taken the first job yet; fill until rejected
	var err error
	for i := 0; i < 3 && err == nil; i++ {
		err = q.Enqueue(Job{Type: "b"})
	}
	assert.ErrorContains(t, err, "full")
}
