package queue

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

// Registry maps task kinds to their handlers. Queue drivers dispatch every
// received task through a shared registry.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register binds a handler to a task kind. Registering the same kind twice
// replaces the previous handler; registration happens during startup wiring,
// before any driver runs.
func (r *Registry) Register(kind string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[kind] = handler
}

// Dispatch runs the handler registered for task.Kind. Unknown kinds and
// handler errors are logged, never propagated: the queue has no retry
// contract, so nothing a task does may look like a failure to the driver.
// Panics are recovered for the same reason.
func (r *Registry) Dispatch(ctx context.Context, task Task) {
	r.mu.RLock()
	handler, ok := r.handlers[task.Kind]
	r.mu.RUnlock()

	if !ok {
		slog.Warn("no handler registered for task kind",
			slog.String("task_id", task.ID),
			slog.String("kind", task.Kind))
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("panic in task handler",
				slog.String("task_id", task.ID),
				slog.String("kind", task.Kind),
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())))
		}
	}()

	start := time.Now()
	if err := handler(ctx, task.Payload); err != nil {
		slog.Error("task handler returned error",
			slog.String("task_id", task.ID),
			slog.String("kind", task.Kind),
			slog.Duration("duration", time.Since(start)),
			slog.Any("error", err))
		return
	}

	slog.Debug("task handled",
		slog.String("task_id", task.ID),
		slog.String("kind", task.Kind),
		slog.Duration("duration", time.Since(start)))
}
