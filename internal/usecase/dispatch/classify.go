package dispatch

import (
	"errors"
	"time"

	"alert-relay/internal/domain/entity"
	"alert-relay/internal/infra/notifier"
)

// Error type tags persisted with failure snapshots. They partition delivery
// failures by where in the pipeline the attempt broke down.
const (
	// ErrorTypeTransport covers failures before any HTTP response arrived:
	// DNS, connect, TLS, timeouts.
	ErrorTypeTransport = "transport_error"

	// ErrorTypeHTTP covers responses with a 4xx/5xx status code.
	ErrorTypeHTTP = "http_error"

	// ErrorTypeAPI covers 2xx responses whose body reports failure.
	ErrorTypeAPI = "api_error"

	// ErrorTypeUnexpected covers everything else, including handler panics.
	ErrorTypeUnexpected = "unexpected_error"
)

// Classify maps a delivery error to the failure snapshot persisted on the
// service config. Transport errors carry no response fields; HTTP and API
// errors capture the bounded response body; anything unrecognized is tagged
// unexpected.
func Classify(err error) entity.FailureSnapshot {
	now := time.Now().UTC()

	var transportErr *notifier.TransportError
	if errors.As(err, &transportErr) {
		return entity.FailureSnapshot{
			OccurredAt:   now,
			ErrorType:    ErrorTypeTransport,
			ErrorMessage: transportErr.Error(),
		}
	}

	var statusErr *notifier.StatusError
	if errors.As(err, &statusErr) {
		return snapshotWithResponse(now, ErrorTypeHTTP, statusErr.Message, statusErr.Response)
	}

	var apiErr *notifier.APIError
	if errors.As(err, &apiErr) {
		return snapshotWithResponse(now, ErrorTypeAPI, apiErr.Message, apiErr.Response)
	}

	return entity.FailureSnapshot{
		OccurredAt:   now,
		ErrorType:    ErrorTypeUnexpected,
		ErrorMessage: err.Error(),
	}
}

func snapshotWithResponse(at time.Time, errorType, message string, resp notifier.ResponseCapture) entity.FailureSnapshot {
	statusCode := resp.StatusCode
	body := resp.Body
	isJSON := resp.IsJSON
	return entity.FailureSnapshot{
		OccurredAt:   at,
		ErrorType:    errorType,
		ErrorMessage: message,
		StatusCode:   &statusCode,
		ResponseText: &body,
		IsJSON:       &isJSON,
	}
}
