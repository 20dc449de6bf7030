package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// MemoryQueueConfig controls the in-process queue's worker pool.
type MemoryQueueConfig struct {
	// Workers is the number of goroutines consuming tasks.
	// Default: 4
	Workers int

	// BufferSize is the channel capacity; Enqueue blocks once it is full.
	// Default: 256
	BufferSize int
}

// DefaultMemoryQueueConfig returns a configuration suitable for a
// single-process deployment where facade and workers share one binary.
func DefaultMemoryQueueConfig() MemoryQueueConfig {
	return MemoryQueueConfig{
		Workers:    4,
		BufferSize: 256,
	}
}

// MemoryQueue is an in-process Queue backed by a buffered channel and a
// fixed worker pool. It is the driver used by tests and single-process
// deployments; production uses the Redis driver.
type MemoryQueue struct {
	config   MemoryQueueConfig
	registry *Registry
	tasks    chan Task

	closeOnce sync.Once
	closed    chan struct{}
}

// NewMemoryQueue creates a MemoryQueue dispatching into registry.
// Run must be called before enqueued tasks are executed.
func NewMemoryQueue(config MemoryQueueConfig, registry *Registry) *MemoryQueue {
	if config.Workers <= 0 {
		config.Workers = DefaultMemoryQueueConfig().Workers
	}
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultMemoryQueueConfig().BufferSize
	}

	return &MemoryQueue{
		config:   config,
		registry: registry,
		tasks:    make(chan Task, config.BufferSize),
		closed:   make(chan struct{}),
	}
}

// Enqueue implements the Queue interface. It blocks while the buffer is full
// and fails only when the context is done or the queue has shut down.
func (q *MemoryQueue) Enqueue(ctx context.Context, kind string, payload any) error {
	task, err := NewTask(kind, payload)
	if err != nil {
		return err
	}

	select {
	case <-q.closed:
		return fmt.Errorf("enqueue %s: queue is shut down", kind)
	default:
	}

	select {
	case q.tasks <- task:
		slog.Debug("task enqueued",
			slog.String("task_id", task.ID),
			slog.String("kind", task.Kind))
		return nil
	case <-q.closed:
		return fmt.Errorf("enqueue %s: queue is shut down", kind)
	case <-ctx.Done():
		return fmt.Errorf("enqueue %s: %w", kind, ctx.Err())
	}
}

// Run starts the worker pool and blocks until ctx is canceled, then drains
// the buffered tasks and waits for in-flight handlers to finish.
func (q *MemoryQueue) Run(ctx context.Context) error {
	slog.Info("memory queue starting",
		slog.Int("workers", q.config.Workers),
		slog.Int("buffer_size", q.config.BufferSize))

	var wg sync.WaitGroup
	for i := 0; i < q.config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case task := <-q.tasks:
					// Handlers run with their own context: an enqueued
					// delivery attempt is never canceled, it runs to
					// completion.
					q.registry.Dispatch(context.Background(), task)
				case <-q.closed:
					// Drain whatever was buffered before shutdown.
					for {
						select {
						case task := <-q.tasks:
							q.registry.Dispatch(context.Background(), task)
						default:
							return
						}
					}
				}
			}
		}()
	}

	<-ctx.Done()
	q.closeOnce.Do(func() { close(q.closed) })
	wg.Wait()

	slog.Info("memory queue drained and stopped")
	return nil
}
