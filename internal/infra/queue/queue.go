// Package queue provides the asynchronous task boundary between the backend
// facade and the delivery executor. Task payloads carry only plain
// serializable values so a task can cross a process boundary; no object
// references ever travel through the queue.
//
// Delivery semantics: from this subsystem's perspective each enqueued task
// executes at most once. There is no internal retry; handlers are expected
// to swallow their own failures (the delivery executor persists them as
// failure snapshots instead of returning them).
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Task is one unit of queued work.
type Task struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// Handler processes one task payload. A returned error is logged for
// observability and never triggers a redelivery.
type Handler func(ctx context.Context, payload []byte) error

// Queue accepts tasks for later asynchronous execution. Enqueue returns as
// soon as the task is accepted; the work itself runs on a queue worker.
type Queue interface {
	Enqueue(ctx context.Context, kind string, payload any) error
}

// NewTask serializes payload and wraps it with a fresh task id used for
// tracing across the queue boundary.
func NewTask(kind string, payload any) (Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Task{}, fmt.Errorf("marshal task payload: %w", err)
	}
	return Task{
		ID:         uuid.New().String(),
		Kind:       kind,
		Payload:    data,
		EnqueuedAt: time.Now().UTC(),
	}, nil
}
