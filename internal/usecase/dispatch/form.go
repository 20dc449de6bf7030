package dispatch

import (
	"encoding/json"
	"fmt"

	"alert-relay/internal/domain/entity"
)

// FormField describes one input of a backend's configuration form. The
// external web UI renders these; this subsystem only defines the schema.
type FormField struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
	HelpText string `json:"help_text,omitempty"`
}

// TelegramConfigForm is a validated snapshot of the Telegram configuration
// inputs. It is a plain data carrier: build it from submitted values or from
// an existing config blob, validate it, then project it back to the stored
// blob with ToConfig.
type TelegramConfigForm struct {
	BotToken string `json:"bot_token"`
	ChatID   string `json:"chat_id"`
}

// NewTelegramConfigForm builds a form from submitted key-value inputs.
// Missing keys yield empty fields, caught by Validate.
func NewTelegramConfigForm(values map[string]string) TelegramConfigForm {
	return TelegramConfigForm{
		BotToken: values["bot_token"],
		ChatID:   values["chat_id"],
	}
}

// TelegramConfigFormFromBlob reconstructs the form from a stored config
// blob, e.g. to pre-fill the edit form. An empty blob yields empty defaults.
func TelegramConfigFormFromBlob(blob string) (TelegramConfigForm, error) {
	var form TelegramConfigForm
	if blob == "" {
		return form, nil
	}
	if err := json.Unmarshal([]byte(blob), &form); err != nil {
		return TelegramConfigForm{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return form, nil
}

// Validate checks the required fields.
func (f TelegramConfigForm) Validate() error {
	if f.BotToken == "" {
		return &entity.ValidationError{Field: "bot_token", Message: "must not be empty"}
	}
	if f.ChatID == "" {
		return &entity.ValidationError{Field: "chat_id", Message: "must not be empty"}
	}
	return nil
}

// ToConfig projects the form to the serialized blob stored on the service
// config record.
func (f TelegramConfigForm) ToConfig() (string, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("serialize config: %w", err)
	}
	return string(data), nil
}

// TelegramConfigFields returns the Telegram configuration form schema.
func TelegramConfigFields() []FormField {
	return []FormField{
		{Name: "bot_token", Label: "Bot token", Required: true},
		{
			Name:     "chat_id",
			Label:    "Chat ID",
			Required: true,
			HelpText: "Use @channelname for channels or a numeric chat ID.",
		},
	}
}
