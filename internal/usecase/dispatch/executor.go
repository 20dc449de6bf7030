package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"alert-relay/internal/domain/entity"
	"alert-relay/internal/infra/notifier"
	"alert-relay/internal/infra/queue"
	"alert-relay/internal/observability/tracing"
	"alert-relay/internal/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Executor runs queued delivery tasks: it composes the outbound message,
// sends it through the messaging API, and persists exactly one success or
// failure snapshot on the owning service config per attempt. Errors never
// propagate back to the queue; every outcome is absorbed into the persisted
// state and the logs.
type Executor struct {
	configs     repository.ServiceConfigRepository
	issues      repository.IssueRepository
	baseURL     string
	newNotifier func(botToken string) notifier.Notifier
}

// ExecutorConfig configures an Executor.
type ExecutorConfig struct {
	// BaseURL is the externally reachable base URL of the issue tracker,
	// used to build absolute issue links (e.g. "https://bugs.example.com").
	BaseURL string

	// APIBaseURL overrides the messaging API endpoint. Empty means the
	// production endpoint. Tests point this at a local server.
	APIBaseURL string

	// NewNotifier overrides notifier construction. Nil means a real
	// Telegram notifier per bot token.
	NewNotifier func(botToken string) notifier.Notifier
}

// NewExecutor creates a delivery executor.
//
// Parameters:
//   - configs: Repository for service config state writes
//   - issues: Repository for resolving issues referenced by alert tasks
//   - cfg: Executor configuration
//
// Returns:
//   - *Executor: Configured executor
func NewExecutor(configs repository.ServiceConfigRepository, issues repository.IssueRepository, cfg ExecutorConfig) *Executor {
	newNotifier := cfg.NewNotifier
	if newNotifier == nil {
		newNotifier = func(botToken string) notifier.Notifier {
			return notifier.NewTelegramNotifier(notifier.TelegramConfig{
				BotToken:   botToken,
				APIBaseURL: cfg.APIBaseURL,
			})
		}
	}
	return &Executor{
		configs:     configs,
		issues:      issues,
		baseURL:     cfg.BaseURL,
		newNotifier: newNotifier,
	}
}

// Register wires the executor's task handlers into the queue registry.
// The handlers never return an error: delivery outcomes are recorded on the
// service config, not surfaced to the queue.
func (e *Executor) Register(registry *queue.Registry) {
	registry.Register(TaskKindTestMessage, func(ctx context.Context, payload []byte) error {
		var task TestMessageTask
		if err := json.Unmarshal(payload, &task); err != nil {
			slog.Error("Malformed test message task payload",
				slog.String("error", err.Error()))
			return nil
		}
		e.DeliverTestMessage(ctx, task)
		return nil
	})
	registry.Register(TaskKindAlert, func(ctx context.Context, payload []byte) error {
		var task AlertTask
		if err := json.Unmarshal(payload, &task); err != nil {
			slog.Error("Malformed alert task payload",
				slog.String("error", err.Error()))
			return nil
		}
		e.DeliverAlert(ctx, task)
		return nil
	})
}

// DeliverTestMessage executes a queued channel test delivery.
func (e *Executor) DeliverTestMessage(ctx context.Context, task TestMessageTask) {
	e.deliver(ctx, TaskKindTestMessage, task.ServiceConfigID, task.BotToken, task.ChatID,
		func(ctx context.Context) (string, error) {
			return ComposeTestMessage(task.ProjectName, task.DisplayName), nil
		})
}

// DeliverAlert executes a queued alert delivery. The referenced issue is
// resolved at execution time; a missing or unreadable issue is recorded as
// a failed attempt rather than silently dropped.
func (e *Executor) DeliverAlert(ctx context.Context, task AlertTask) {
	e.deliver(ctx, TaskKindAlert, task.ServiceConfigID, task.BotToken, task.ChatID,
		func(ctx context.Context) (string, error) {
			issue, err := e.issues.Get(ctx, task.IssueID)
			if err != nil {
				return "", fmt.Errorf("resolve issue %d: %w", task.IssueID, err)
			}
			if issue == nil {
				return "", fmt.Errorf("issue %d no longer exists", task.IssueID)
			}
			return ComposeAlertMessage(
				task.AlertReason,
				issue.Title,
				issue.ProjectName,
				issue.AbsoluteURL(e.baseURL),
				task.UnmuteReason,
			), nil
		})
}

// deliver runs one delivery attempt end to end. Exactly one state write
// happens per attempt, enforced by the record closure; a panic anywhere in
// the attempt is converted into a recorded failure.
func (e *Executor) deliver(ctx context.Context, kind string, serviceConfigID int64, botToken, chatID string, compose func(ctx context.Context) (string, error)) {
	start := time.Now()
	RecordAttempt(kind)

	requestID := uuid.New().String()
	logger := slog.Default().With(
		slog.String("request_id", requestID),
		slog.String("kind", kind),
		slog.Int64("service_config_id", serviceConfigID),
	)

	ctx, span := tracing.GetTracer().Start(ctx, "dispatch.deliver",
		trace.WithAttributes(
			attribute.String("dispatch.kind", kind),
			attribute.Int64("dispatch.service_config_id", serviceConfigID),
		))
	defer span.End()

	recorded := false
	record := func(snap *entity.FailureSnapshot) {
		if recorded {
			return
		}
		recorded = true
		e.recordOutcome(ctx, logger, kind, serviceConfigID, snap, time.Since(start))
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic during delivery attempt",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			snap := Classify(fmt.Errorf("panic: %v", r))
			record(&snap)
		}
	}()

	text, err := compose(ctx)
	if err != nil {
		logger.Error("Failed to compose message", slog.String("error", err.Error()))
		snap := Classify(err)
		record(&snap)
		return
	}

	if err := e.newNotifier(botToken).SendMessage(ctx, chatID, text); err != nil {
		snap := Classify(err)
		logger.Warn("Delivery attempt failed",
			slog.String("error_type", snap.ErrorType),
			slog.String("error", snap.ErrorMessage))
		record(&snap)
		return
	}

	record(nil)
}

// recordOutcome persists the attempt outcome and emits metrics. A nil
// snapshot means success. Persistence errors are logged and absorbed.
func (e *Executor) recordOutcome(ctx context.Context, logger *slog.Logger, kind string, serviceConfigID int64, snap *entity.FailureSnapshot, elapsed time.Duration) {
	if snap == nil {
		if err := e.configs.RecordSuccess(ctx, serviceConfigID); err != nil {
			logger.Error("Failed to record delivery success",
				slog.String("error", err.Error()))
		}
		RecordOutcome(kind, "success", elapsed)
		logger.Info("Delivery succeeded", slog.Duration("elapsed", elapsed))
		return
	}

	if err := e.configs.RecordFailure(ctx, serviceConfigID, *snap); err != nil {
		logger.Error("Failed to record delivery failure",
			slog.String("error", err.Error()))
	}
	RecordOutcome(kind, snap.ErrorType, elapsed)
}
