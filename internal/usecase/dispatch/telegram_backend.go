package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"alert-relay/internal/domain/entity"
	"alert-relay/internal/infra/queue"
)

// TelegramBackend enqueues deliveries to Telegram chats. It parses the
// stored config blob into credentials and hands a serializable task to the
// queue; all network I/O happens later in the executor.
type TelegramBackend struct {
	queue queue.Queue
}

// NewTelegramBackend creates the Telegram backend.
func NewTelegramBackend(q queue.Queue) *TelegramBackend {
	return &TelegramBackend{queue: q}
}

// Name implements Backend.Name.
func (b *TelegramBackend) Name() string {
	return entity.BackendTelegram
}

// ConfigFields implements Backend.ConfigFields.
func (b *TelegramBackend) ConfigFields() []FormField {
	return TelegramConfigFields()
}

// ValidateConfig implements Backend.ValidateConfig.
func (b *TelegramBackend) ValidateConfig(blob string) error {
	form, err := TelegramConfigFormFromBlob(blob)
	if err != nil {
		return err
	}
	return form.Validate()
}

// SendTestMessage implements Backend.SendTestMessage.
func (b *TelegramBackend) SendTestMessage(ctx context.Context, config *entity.ServiceConfig) error {
	form, err := b.parseConfig(config)
	if err != nil {
		return err
	}

	task := TestMessageTask{
		BotToken:        form.BotToken,
		ChatID:          form.ChatID,
		ProjectName:     config.ProjectName,
		DisplayName:     config.DisplayName,
		ServiceConfigID: config.ID,
	}
	if err := b.queue.Enqueue(ctx, TaskKindTestMessage, task); err != nil {
		return fmt.Errorf("enqueue test message: %w", err)
	}

	RecordEnqueued(TaskKindTestMessage)
	slog.Debug("Enqueued test message delivery",
		slog.Int64("service_config_id", config.ID),
		slog.String("project", config.ProjectName))
	return nil
}

// SendAlert implements Backend.SendAlert.
func (b *TelegramBackend) SendAlert(ctx context.Context, config *entity.ServiceConfig, req AlertRequest) error {
	form, err := b.parseConfig(config)
	if err != nil {
		return err
	}

	task := AlertTask{
		BotToken:         form.BotToken,
		ChatID:           form.ChatID,
		IssueID:          req.IssueID,
		StateDescription: req.StateDescription,
		AlertArticle:     req.AlertArticle,
		AlertReason:      req.AlertReason,
		ServiceConfigID:  config.ID,
		UnmuteReason:     req.UnmuteReason,
	}
	if err := b.queue.Enqueue(ctx, TaskKindAlert, task); err != nil {
		return fmt.Errorf("enqueue alert: %w", err)
	}

	RecordEnqueued(TaskKindAlert)
	slog.Debug("Enqueued alert delivery",
		slog.Int64("service_config_id", config.ID),
		slog.Int64("issue_id", req.IssueID))
	return nil
}

func (b *TelegramBackend) parseConfig(config *entity.ServiceConfig) (TelegramConfigForm, error) {
	form, err := TelegramConfigFormFromBlob(config.Config)
	if err != nil {
		return TelegramConfigForm{}, err
	}
	if err := form.Validate(); err != nil {
		return TelegramConfigForm{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return form, nil
}
