package dispatch

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"alert-relay/internal/domain/entity"
	"alert-relay/internal/infra/notifier"
	"alert-relay/internal/infra/queue"
)

// fakeConfigRepo records the delivery outcomes written by the executor.
type fakeConfigRepo struct {
	mu        sync.Mutex
	failures  []entity.FailureSnapshot
	successes int
	recordErr error
}

func (f *fakeConfigRepo) Get(ctx context.Context, id int64) (*entity.ServiceConfig, error) {
	return nil, nil
}

func (f *fakeConfigRepo) List(ctx context.Context) ([]*entity.ServiceConfig, error) {
	return nil, nil
}

func (f *fakeConfigRepo) Create(ctx context.Context, config *entity.ServiceConfig) error {
	return nil
}

func (f *fakeConfigRepo) Update(ctx context.Context, config *entity.ServiceConfig) error {
	return nil
}

func (f *fakeConfigRepo) Delete(ctx context.Context, id int64) error { return nil }

func (f *fakeConfigRepo) RecordFailure(ctx context.Context, id int64, snap entity.FailureSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = append(f.failures, snap)
	return f.recordErr
}

func (f *fakeConfigRepo) RecordSuccess(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.successes++
	return f.recordErr
}

func (f *fakeConfigRepo) writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.failures) + f.successes
}

// fakeIssueRepo serves a fixed issue.
type fakeIssueRepo struct {
	issue *entity.Issue
	err   error
}

func (f *fakeIssueRepo) Get(ctx context.Context, id int64) (*entity.Issue, error) {
	return f.issue, f.err
}

func testIssue() *entity.Issue {
	return &entity.Issue{
		ID:          42,
		ProjectName: "Acme",
		Title:       "NullPointerException in checkout",
		Path:        "/issues/42",
	}
}

func newTestExecutor(t *testing.T, handler http.HandlerFunc, configs *fakeConfigRepo, issues *fakeIssueRepo) *Executor {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewExecutor(configs, issues, ExecutorConfig{
		BaseURL:    "https://bugs.example.com",
		APIBaseURL: server.URL,
	})
}

// TestExecutor_DeliverTestMessage_Success verifies a successful attempt
// clears failure state with exactly one write.
func TestExecutor_DeliverTestMessage_Success(t *testing.T) {
	// Arrange
	configs := &fakeConfigRepo{}
	exec := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/sendMessage") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
	}, configs, &fakeIssueRepo{})

	// Act
	exec.DeliverTestMessage(context.Background(), TestMessageTask{
		BotToken:        "token",
		ChatID:          "@alerts",
		ProjectName:     "Acme",
		DisplayName:     "Prod Alerts",
		ServiceConfigID: 7,
	})

	// Assert
	if configs.successes != 1 {
		t.Errorf("successes = %d, want 1", configs.successes)
	}
	if configs.writes() != 1 {
		t.Errorf("state writes = %d, want exactly 1", configs.writes())
	}
}

// TestExecutor_DeliverTestMessage_HTTPError verifies a 401 response is
// recorded as an http_error snapshot with the captured response fields.
func TestExecutor_DeliverTestMessage_HTTPError(t *testing.T) {
	// Arrange
	configs := &fakeConfigRepo{}
	exec := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":401,"description":"Unauthorized"}`))
	}, configs, &fakeIssueRepo{})

	// Act
	exec.DeliverTestMessage(context.Background(), TestMessageTask{
		BotToken:        "bad-token",
		ChatID:          "@alerts",
		ProjectName:     "Acme",
		DisplayName:     "Prod Alerts",
		ServiceConfigID: 7,
	})

	// Assert
	if len(configs.failures) != 1 {
		t.Fatalf("failures = %d, want 1", len(configs.failures))
	}
	snap := configs.failures[0]
	if snap.ErrorType != ErrorTypeHTTP {
		t.Errorf("ErrorType = %q, want %q", snap.ErrorType, ErrorTypeHTTP)
	}
	if !strings.Contains(snap.ErrorMessage, "Unauthorized") {
		t.Errorf("ErrorMessage = %q, want it to contain the API description", snap.ErrorMessage)
	}
	if snap.StatusCode == nil || *snap.StatusCode != 401 {
		t.Errorf("StatusCode = %v, want 401", snap.StatusCode)
	}
	if snap.IsJSON == nil || !*snap.IsJSON {
		t.Errorf("IsJSON = %v, want true", snap.IsJSON)
	}
	if configs.writes() != 1 {
		t.Errorf("state writes = %d, want exactly 1", configs.writes())
	}
}

// TestExecutor_DeliverAlert_APIError verifies a 2xx "ok":false response is
// recorded as an api_error snapshot.
func TestExecutor_DeliverAlert_APIError(t *testing.T) {
	// Arrange
	configs := &fakeConfigRepo{}
	exec := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}, configs, &fakeIssueRepo{issue: testIssue()})

	// Act
	exec.DeliverAlert(context.Background(), AlertTask{
		BotToken:        "token",
		ChatID:          "@missing",
		IssueID:         42,
		AlertReason:     "new",
		ServiceConfigID: 7,
	})

	// Assert
	if len(configs.failures) != 1 {
		t.Fatalf("failures = %d, want 1", len(configs.failures))
	}
	snap := configs.failures[0]
	if snap.ErrorType != ErrorTypeAPI {
		t.Errorf("ErrorType = %q, want %q", snap.ErrorType, ErrorTypeAPI)
	}
	if snap.ErrorMessage != "Bad Request: chat not found" {
		t.Errorf("ErrorMessage = %q", snap.ErrorMessage)
	}
	if snap.StatusCode == nil || *snap.StatusCode != 200 {
		t.Errorf("StatusCode = %v, want 200", snap.StatusCode)
	}
}

// TestExecutor_DeliverAlert_TransportError verifies an unreachable endpoint
// is recorded as a transport_error snapshot with no response fields.
func TestExecutor_DeliverAlert_TransportError(t *testing.T) {
	// Arrange: a server that is already closed refuses connections.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	configs := &fakeConfigRepo{}
	exec := NewExecutor(configs, &fakeIssueRepo{issue: testIssue()}, ExecutorConfig{
		BaseURL:    "https://bugs.example.com",
		APIBaseURL: server.URL,
	})

	// Act
	exec.DeliverAlert(context.Background(), AlertTask{
		BotToken:        "token",
		ChatID:          "@alerts",
		IssueID:         42,
		AlertReason:     "new",
		ServiceConfigID: 7,
	})

	// Assert
	if len(configs.failures) != 1 {
		t.Fatalf("failures = %d, want 1", len(configs.failures))
	}
	snap := configs.failures[0]
	if snap.ErrorType != ErrorTypeTransport {
		t.Errorf("ErrorType = %q, want %q", snap.ErrorType, ErrorTypeTransport)
	}
	if snap.StatusCode != nil || snap.ResponseText != nil || snap.IsJSON != nil {
		t.Error("transport failure must not carry response fields")
	}
}

// TestExecutor_DeliverAlert_MissingIssue verifies an alert whose issue has
// disappeared records a failed attempt instead of dropping silently.
func TestExecutor_DeliverAlert_MissingIssue(t *testing.T) {
	// Arrange
	configs := &fakeConfigRepo{}
	requests := 0
	exec := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
	}, configs, &fakeIssueRepo{issue: nil})

	// Act
	exec.DeliverAlert(context.Background(), AlertTask{
		BotToken:        "token",
		ChatID:          "@alerts",
		IssueID:         999,
		AlertReason:     "new",
		ServiceConfigID: 7,
	})

	// Assert
	if requests != 0 {
		t.Errorf("no HTTP request should be made for a missing issue, got %d", requests)
	}
	if len(configs.failures) != 1 {
		t.Fatalf("failures = %d, want 1", len(configs.failures))
	}
	if configs.failures[0].ErrorType != ErrorTypeUnexpected {
		t.Errorf("ErrorType = %q, want %q", configs.failures[0].ErrorType, ErrorTypeUnexpected)
	}
}

// TestExecutor_DeliverAlert_MessageContent verifies the outbound payload
// carries the composed alert message with an absolute issue URL.
func TestExecutor_DeliverAlert_MessageContent(t *testing.T) {
	// Arrange
	configs := &fakeConfigRepo{}
	var gotBody string
	exec := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}, configs, &fakeIssueRepo{issue: testIssue()})

	reason := "manual unmute"

	// Act
	exec.DeliverAlert(context.Background(), AlertTask{
		BotToken:        "token",
		ChatID:          "@alerts",
		IssueID:         42,
		AlertReason:     "unmuted",
		ServiceConfigID: 7,
		UnmuteReason:    &reason,
	})

	// Assert
	for _, want := range []string{
		"unmuted issue",
		"Issue: NullPointerException in checkout",
		"Project: Acme",
		"URL: https://bugs.example.com/issues/42",
		"Unmute reason: manual unmute",
		`"chat_id":"@alerts"`,
		`"disable_web_page_preview":true`,
	} {
		if !strings.Contains(gotBody, want) {
			t.Errorf("request body missing %q\nbody: %s", want, gotBody)
		}
	}
	if configs.successes != 1 {
		t.Errorf("successes = %d, want 1", configs.successes)
	}
}

// TestExecutor_PanicRecordsFailure verifies a panic inside the attempt is
// absorbed into a recorded unexpected failure.
func TestExecutor_PanicRecordsFailure(t *testing.T) {
	// Arrange: a notifier that panics mid-delivery.
	configs := &fakeConfigRepo{}
	exec := NewExecutor(configs, &fakeIssueRepo{}, ExecutorConfig{
		BaseURL: "https://bugs.example.com",
		NewNotifier: func(botToken string) notifier.Notifier {
			return panickingNotifier{}
		},
	})

	// Act
	exec.DeliverTestMessage(context.Background(), TestMessageTask{
		BotToken:        "token",
		ChatID:          "@alerts",
		ProjectName:     "Acme",
		DisplayName:     "Prod Alerts",
		ServiceConfigID: 7,
	})

	// Assert
	if len(configs.failures) != 1 {
		t.Fatalf("failures = %d, want 1", len(configs.failures))
	}
	if configs.failures[0].ErrorType != ErrorTypeUnexpected {
		t.Errorf("ErrorType = %q, want %q", configs.failures[0].ErrorType, ErrorTypeUnexpected)
	}
	if configs.writes() != 1 {
		t.Errorf("state writes = %d, want exactly 1", configs.writes())
	}
}

type panickingNotifier struct{}

func (panickingNotifier) SendMessage(ctx context.Context, chatID, text string) error {
	panic("notifier exploded")
}

// TestExecutor_Register_MalformedPayload verifies queue handlers absorb
// undecodable payloads without touching delivery state.
func TestExecutor_Register_MalformedPayload(t *testing.T) {
	// Arrange
	configs := &fakeConfigRepo{}
	exec := NewExecutor(configs, &fakeIssueRepo{}, ExecutorConfig{BaseURL: "https://bugs.example.com"})
	registry := queue.NewRegistry()
	exec.Register(registry)

	for _, kind := range []string{TaskKindTestMessage, TaskKindAlert} {
		task := queue.Task{ID: "t1", Kind: kind, Payload: []byte("{broken")}

		// Act: must not panic, must not write state.
		registry.Dispatch(context.Background(), task)
	}

	// Assert
	if configs.writes() != 0 {
		t.Errorf("state writes = %d, want 0", configs.writes())
	}
}

// TestExecutor_TimeoutRecordsTransportError verifies a stalled endpoint is
// cut off by the client timeout and classified as transport failure.
func TestExecutor_TimeoutRecordsTransportError(t *testing.T) {
	// Arrange: the stub hangs longer than the notifier timeout.
	configs := &fakeConfigRepo{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	t.Cleanup(server.Close)

	exec := NewExecutor(configs, &fakeIssueRepo{}, ExecutorConfig{
		BaseURL: "https://bugs.example.com",
		NewNotifier: func(botToken string) notifier.Notifier {
			return notifier.NewTelegramNotifier(notifier.TelegramConfig{
				BotToken:   botToken,
				APIBaseURL: server.URL,
				Timeout:    50 * time.Millisecond,
			})
		},
	})

	// Act
	exec.DeliverTestMessage(context.Background(), TestMessageTask{
		BotToken:        "token",
		ChatID:          "@alerts",
		ProjectName:     "Acme",
		DisplayName:     "Prod Alerts",
		ServiceConfigID: 7,
	})

	// Assert
	if len(configs.failures) != 1 {
		t.Fatalf("failures = %d, want 1", len(configs.failures))
	}
	if configs.failures[0].ErrorType != ErrorTypeTransport {
		t.Errorf("ErrorType = %q, want %q", configs.failures[0].ErrorType, ErrorTypeTransport)
	}
}
