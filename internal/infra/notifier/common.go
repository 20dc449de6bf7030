package notifier

import "fmt"

// maxResponseTextLength bounds the response body captured into failure
// snapshots so a misbehaving endpoint cannot bloat the config record.
const maxResponseTextLength = 2000

// ResponseCapture holds what was observed of an HTTP response: the status
// code, the body bounded to 2000 characters, and whether the body parsed as
// JSON. It is captured for HTTP-level and API-level failures, never for
// transport failures (where no response exists).
type ResponseCapture struct {
	StatusCode int
	Body       string
	IsJSON     bool
}

// TransportError indicates the call never completed: timeout, DNS failure,
// connection reset. No HTTP status is available.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError indicates the remote responded with an HTTP error status
// (>= 400). The response is captured for diagnosis.
type StatusError struct {
	Response ResponseCapture
	Message  string
}

func (e *StatusError) Error() string { return e.Message }

// APIError indicates an HTTP-successful response whose body signals logical
// failure (Telegram's "ok": false). The response is still captured since one
// exists.
type APIError struct {
	Response ResponseCapture
	Message  string
}

func (e *APIError) Error() string { return e.Message }

// truncateBody limits captured response bodies to maxLength characters.
// Counted in runes so a multi-byte character is never split.
func truncateBody(text string, maxLength int) string {
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}
	return string(runes[:maxLength])
}
