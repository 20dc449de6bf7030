package notifier

import "context"

// NoOpNotifier is a no-operation implementation of the Notifier interface.
// It is used when a backend is disabled to avoid nil checks in the code.
// This follows the Null Object pattern.
type NoOpNotifier struct{}

// NewNoOpNotifier creates a new NoOpNotifier instance.
func NewNoOpNotifier() *NoOpNotifier {
	return &NoOpNotifier{}
}

// SendMessage does nothing and returns nil immediately.
func (n *NoOpNotifier) SendMessage(ctx context.Context, chatID, text string) error {
	// No-op: intentionally does nothing
	return nil
}
