package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPayload struct {
	Value string `json:"value"`
}

func TestNewTask(t *testing.T) {
	task, err := NewTask("dispatch.test_message", testPayload{Value: "hello"})
	require.NoError(t, err)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "dispatch.test_message", task.Kind)
	assert.JSONEq(t, `{"value":"hello"}`, string(task.Payload))
	assert.False(t, task.EnqueuedAt.IsZero())
}

func TestNewTask_UnserializablePayload(t *testing.T) {
	_, err := NewTask("bad", make(chan int))
	require.Error(t, err)
}

func TestRegistry_Dispatch(t *testing.T) {
	registry := NewRegistry()

	var got []byte
	registry.Register("kind-a", func(ctx context.Context, payload []byte) error {
		got = payload
		return nil
	})

	task, err := NewTask("kind-a", testPayload{Value: "x"})
	require.NoError(t, err)

	registry.Dispatch(context.Background(), task)
	assert.JSONEq(t, `{"value":"x"}`, string(got))
}

func TestRegistry_DispatchUnknownKind(t *testing.T) {
	registry := NewRegistry()
	task, err := NewTask("nobody-home", testPayload{})
	require.NoError(t, err)

	// Must not panic or block.
	registry.Dispatch(context.Background(), task)
}

func TestRegistry_DispatchRecoversPanic(t *testing.T) {
	registry := NewRegistry()
	registry.Register("panics", func(ctx context.Context, payload []byte) error {
		panic("boom")
	})

	task, err := NewTask("panics", testPayload{})
	require.NoError(t, err)

	// A panicking handler must never take the queue worker down.
	registry.Dispatch(context.Background(), task)
}

func TestRegistry_DispatchSwallowsHandlerError(t *testing.T) {
	registry := NewRegistry()
	registry.Register("fails", func(ctx context.Context, payload []byte) error {
		return errors.New("handler failure")
	})

	task, err := NewTask("fails", testPayload{})
	require.NoError(t, err)

	registry.Dispatch(context.Background(), task)
}

func TestMemoryQueue_DeliversEnqueuedTasks(t *testing.T) {
	registry := NewRegistry()

	var mu sync.Mutex
	var handled []string
	done := make(chan struct{}, 10)
	registry.Register("kind-a", func(ctx context.Context, payload []byte) error {
		mu.Lock()
		handled = append(handled, string(payload))
		mu.Unlock()
		done <- struct{}{}
		return nil
	})

	q := NewMemoryQueue(MemoryQueueConfig{Workers: 2, BufferSize: 8}, registry)

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan error, 1)
	go func() { runDone <- q.Run(ctx) }()

	for i := 0; i < 3; i++ {
		require.NoError(t, q.Enqueue(context.Background(), "kind-a", testPayload{Value: "v"}))
	}

	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for task execution")
		}
	}

	cancel()
	require.NoError(t, <-runDone)

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, handled, 3)
}

func TestMemoryQueue_DrainsBufferOnShutdown(t *testing.T) {
	registry := NewRegistry()

	var mu sync.Mutex
	count := 0
	registry.Register("kind-a", func(ctx context.Context, payload []byte) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	})

	q := NewMemoryQueue(MemoryQueueConfig{Workers: 1, BufferSize: 8}, registry)

	// Enqueue before any worker runs, then start and immediately stop: the
	// buffered tasks must still execute.
	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(context.Background(), "kind-a", testPayload{Value: "v"}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, q.Run(ctx))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 5, count)
}

func TestMemoryQueue_EnqueueAfterShutdown(t *testing.T) {
	registry := NewRegistry()
	q := NewMemoryQueue(DefaultMemoryQueueConfig(), registry)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, q.Run(ctx))

	err := q.Enqueue(context.Background(), "kind-a", testPayload{})
	require.Error(t, err)
}

func TestRedisQueueConfig_Validate(t *testing.T) {
	cfg := DefaultRedisQueueConfig()
	require.NoError(t, cfg.Validate())

	empty := cfg
	empty.Group = ""
	require.Error(t, empty.Validate())

	noBlock := cfg
	noBlock.BlockTimeout = 0
	require.Error(t, noBlock.Validate())

	noBatch := cfg
	noBatch.BatchSize = 0
	require.Error(t, noBatch.Validate())
}

func TestNewRedisQueueWithClient_NilClient(t *testing.T) {
	_, err := NewRedisQueueWithClient(nil, DefaultRedisQueueConfig(), NewRegistry())
	require.Error(t, err)
}
