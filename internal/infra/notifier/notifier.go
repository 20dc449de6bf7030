// Package notifier performs the outbound call to a messaging service API and
// classifies its outcome. It defines the Notifier interface so different
// services (Telegram, others) can be used interchangeably, plus the typed
// error taxonomy the delivery executor maps into persisted failure snapshots.
package notifier

import "context"

// Notifier sends one message to one chat of a messaging service.
//
// Implementations make at most one attempt per call: retry policy, if any,
// belongs to the task queue that invoked the caller. A returned error is one
// of the typed errors in this package (TransportError, StatusError, APIError)
// so callers can classify the failure; any other error means the request
// could not even be constructed.
type Notifier interface {
	// SendMessage delivers text to the chat identified by chatID.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout control
	//   - chatID: Target chat ("@channelname" or a numeric id for Telegram)
	//   - text: Message body, already composed and truncated by the caller
	//
	// Returns:
	//   - error: nil on confirmed delivery, a typed classification otherwise
	SendMessage(ctx context.Context, chatID, text string) error
}
