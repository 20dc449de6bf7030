package dispatch

import (
	"context"
	"fmt"

	"alert-relay/internal/domain/entity"
	"alert-relay/internal/infra/queue"
)

// Backend is the messaging backend abstraction the rest of the system talks
// to. A backend validates its configuration schema and enqueues deliveries;
// it never performs network I/O on the caller's goroutine.
type Backend interface {
	// Name returns the backend identifier stored on service configs.
	Name() string

	// ConfigFields returns the configuration form schema for this backend.
	ConfigFields() []FormField

	// ValidateConfig checks a serialized config blob against the backend's
	// schema.
	ValidateConfig(blob string) error

	// SendTestMessage enqueues a channel test delivery for the given
	// service config.
	SendTestMessage(ctx context.Context, config *entity.ServiceConfig) error

	// SendAlert enqueues an alert delivery for the given service config.
	SendAlert(ctx context.Context, config *entity.ServiceConfig, req AlertRequest) error
}

// AlertRequest describes the alert to deliver. The issue is referenced by
// id and resolved by the executor when the task runs.
type AlertRequest struct {
	IssueID          int64
	StateDescription string
	AlertArticle     string // "New" or "Regressed", used as the reason line prefix
	AlertReason      string
	UnmuteReason     *string
}

// NewBackend returns the backend implementation for the given service
// config's backend identifier.
//
// Parameters:
//   - config: The service config naming the backend
//   - q: Queue to enqueue deliveries on
//
// Returns:
//   - Backend: The matching backend
//   - error: ErrUnknownBackend if no implementation matches
func NewBackend(config *entity.ServiceConfig, q queue.Queue) (Backend, error) {
	switch config.Backend {
	case entity.BackendTelegram:
		return NewTelegramBackend(q), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, config.Backend)
	}
}
