package entity

import "time"

// Known messaging backend identifiers.
const (
	BackendTelegram = "telegram"
)

// ServiceConfig represents one configured messaging channel (for example a
// Telegram bot posting to one chat). The credential blob is opaque outside
// the backend facade; the failure-tracking fields are the public contract an
// operator UI reads to surface broken channels.
type ServiceConfig struct {
	ID          int64
	ProjectName string
	DisplayName string
	Backend     string // backend identifier, e.g. "telegram"
	Config      string // serialized key-value blob, parsed only by the backend facade

	// Failure snapshot of the most recent delivery attempt. The fields are
	// either all nil (healthy, or never failed since the last success) or all
	// populated from a single attempt. StatusCode, ResponseText and IsJSON
	// stay nil together when the failing attempt had no HTTP response.
	LastFailureAt           *time.Time
	LastFailureErrorType    *string
	LastFailureErrorMessage *string
	LastFailureStatusCode   *int
	LastFailureResponseText *string
	LastFailureIsJSON       *bool
}

// FailureSnapshot is the atomic outcome of one failed delivery attempt.
// StatusCode, ResponseText and IsJSON are set together when the remote
// endpoint produced an HTTP response, and left nil together otherwise
// (transport failures, unexpected errors).
type FailureSnapshot struct {
	OccurredAt   time.Time
	ErrorType    string
	ErrorMessage string
	StatusCode   *int
	ResponseText *string
	IsJSON       *bool
}

// SetFailure overwrites the whole failure field group with one snapshot.
func (c *ServiceConfig) SetFailure(snap FailureSnapshot) {
	occurredAt := snap.OccurredAt
	errorType := snap.ErrorType
	errorMessage := snap.ErrorMessage

	c.LastFailureAt = &occurredAt
	c.LastFailureErrorType = &errorType
	c.LastFailureErrorMessage = &errorMessage
	c.LastFailureStatusCode = snap.StatusCode
	c.LastFailureResponseText = snap.ResponseText
	c.LastFailureIsJSON = snap.IsJSON
}

// ClearFailureStatus resets every failure field in one step, marking the
// channel healthy after a successful delivery.
func (c *ServiceConfig) ClearFailureStatus() {
	c.LastFailureAt = nil
	c.LastFailureErrorType = nil
	c.LastFailureErrorMessage = nil
	c.LastFailureStatusCode = nil
	c.LastFailureResponseText = nil
	c.LastFailureIsJSON = nil
}

// Healthy reports whether the most recent delivery attempt succeeded
// (or no attempt has failed yet).
func (c *ServiceConfig) Healthy() bool {
	return c.LastFailureAt == nil
}

// Validate validates the ServiceConfig entity fields.
func (c *ServiceConfig) Validate() error {
	if c.ProjectName == "" {
		return &ValidationError{Field: "project_name", Message: "must not be empty"}
	}
	if c.DisplayName == "" {
		return &ValidationError{Field: "display_name", Message: "must not be empty"}
	}

	validBackends := map[string]bool{
		BackendTelegram: true,
	}
	if !validBackends[c.Backend] {
		return &ValidationError{Field: "backend", Message: "unknown backend: " + c.Backend}
	}

	return nil
}
