package entity

import (
	"testing"
	"time"
)

func snapshot(statusCode int, body string, isJSON bool) FailureSnapshot {
	return FailureSnapshot{
		OccurredAt:   time.Now().UTC(),
		ErrorType:    "http_error",
		ErrorMessage: "Telegram API error: Unauthorized",
		StatusCode:   &statusCode,
		ResponseText: &body,
		IsJSON:       &isJSON,
	}
}

func TestServiceConfig_SetFailure(t *testing.T) {
	config := &ServiceConfig{ID: 1, ProjectName: "Acme", DisplayName: "Prod Alerts", Backend: BackendTelegram}

	config.SetFailure(snapshot(401, `{"ok": false}`, true))

	if config.Healthy() {
		t.Fatal("config should not be healthy after SetFailure")
	}
	if config.LastFailureAt == nil || config.LastFailureErrorType == nil ||
		config.LastFailureErrorMessage == nil || config.LastFailureStatusCode == nil ||
		config.LastFailureResponseText == nil || config.LastFailureIsJSON == nil {
		t.Fatal("all failure fields must be populated together")
	}
	if *config.LastFailureStatusCode != 401 {
		t.Fatalf("status code = %d, want 401", *config.LastFailureStatusCode)
	}
}

func TestServiceConfig_SetFailureWithoutResponse(t *testing.T) {
	config := &ServiceConfig{ID: 1, ProjectName: "Acme", DisplayName: "Prod Alerts", Backend: BackendTelegram}

	config.SetFailure(FailureSnapshot{
		OccurredAt:   time.Now().UTC(),
		ErrorType:    "transport_error",
		ErrorMessage: "dial tcp: i/o timeout",
	})

	if config.LastFailureAt == nil || config.LastFailureErrorType == nil || config.LastFailureErrorMessage == nil {
		t.Fatal("timestamp, type and message must be set")
	}
	if config.LastFailureStatusCode != nil || config.LastFailureResponseText != nil || config.LastFailureIsJSON != nil {
		t.Fatal("response fields must stay nil together when no response was captured")
	}
}

func TestServiceConfig_ClearFailureStatus(t *testing.T) {
	config := &ServiceConfig{ID: 1, ProjectName: "Acme", DisplayName: "Prod Alerts", Backend: BackendTelegram}
	config.SetFailure(snapshot(500, "oops", false))

	config.ClearFailureStatus()

	if !config.Healthy() {
		t.Fatal("config should be healthy after ClearFailureStatus")
	}
	if config.LastFailureAt != nil || config.LastFailureErrorType != nil ||
		config.LastFailureErrorMessage != nil || config.LastFailureStatusCode != nil ||
		config.LastFailureResponseText != nil || config.LastFailureIsJSON != nil {
		t.Fatal("all failure fields must be nil after a successful delivery")
	}
}

func TestServiceConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  ServiceConfig
		wantErr bool
	}{
		{"valid", ServiceConfig{ProjectName: "Acme", DisplayName: "Prod Alerts", Backend: BackendTelegram}, false},
		{"empty project", ServiceConfig{DisplayName: "Prod Alerts", Backend: BackendTelegram}, true},
		{"empty display name", ServiceConfig{ProjectName: "Acme", Backend: BackendTelegram}, true},
		{"unknown backend", ServiceConfig{ProjectName: "Acme", DisplayName: "Prod Alerts", Backend: "carrier-pigeon"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() err=%v, wantErr=%v", err, tt.wantErr)
			}
		})
	}
}

func TestIssue_AbsoluteURL(t *testing.T) {
	issue := &Issue{ID: 42, ProjectName: "Acme", Title: "panic in handler", Path: "/issues/42/"}

	got := issue.AbsoluteURL("https://alerts.example.com/")
	want := "https://alerts.example.com/issues/42/"
	if got != want {
		t.Fatalf("AbsoluteURL = %q, want %q", got, want)
	}
}
