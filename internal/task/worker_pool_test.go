package task

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPoolExecutesTasks(t *testing.T) {
	q := NewTaskQueue(4, testLogger())
	pool := NewWorkerPool(q, WorkerPoolConfig{WorkerCount: 2}, testLogger())

	executed := newStubTask()
	executed.done = make(chan struct{})
	require.NoError(t, q.Enqueue(executed))

	pool.Start()
	defer pool.Stop()

	select {
	case <-executed.done:
	case <-time.After(2 * time.Second):
		t.Fatal("task was not executed")
	}
}

func TestWorkerPoolReportsTaskErrors(t *testing.T) {
	q := NewTaskQueue(4, testLogger())
	pool := NewWorkerPool(q, WorkerPoolConfig{WorkerCount: 1}, testLogger())

	var mu sync.Mutex
	var reported []error
	pool.SetErrorHandler(func(_ Task, err error) {
		mu.Lock()
		defer mu.Unlock()
		reported = append(reported, err)
	})

	failing := newStubTask()
	failing.execErr = errors.New("boom")
	failing.done = make(chan struct{})
	require.NoError(t, q.Enqueue(failing))

	pool.Start()
	defer pool.Stop()

	select {
	case <-failing.done:
	case <-time.After(2 * time.Second):
		t.Fatal("task was not executed")
	}

	// The error handler runs after Execute returns; give it a moment.
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(reported) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestWorkerPoolStopWaitsForWorkers(t *testing.T) {
	q := NewTaskQueue(1, testLogger())
	pool := NewWorkerPool(q, WorkerPoolConfig{WorkerCount: 2}, testLogger())

	pool.Start()

	done := make(chan struct{})
	go func() {
		pool.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
}

func TestWorkerPoolDefaultsInvalidWorkerCount(t *testing.T) {
	q := NewTaskQueue(1, testLogger())
	pool := NewWorkerPool(q, WorkerPoolConfig{WorkerCount: -3}, testLogger())
	assert.Equal(t, 1, pool.workerCount)
}
