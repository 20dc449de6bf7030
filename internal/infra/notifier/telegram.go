package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// defaultAPIBaseURL is the public Telegram Bot API endpoint.
	defaultAPIBaseURL = "https://api.telegram.org"

	// defaultTimeout bounds the outbound call. Delivery runs on a queue
	// worker, so a short timeout keeps a dead endpoint from stalling it.
	defaultTimeout = 5 * time.Second

	// genericAPIErrorMessage is used when Telegram signals failure without
	// a description.
	genericAPIErrorMessage = "Telegram API error"
)

// TelegramConfig contains configuration for Telegram Bot API calls.
type TelegramConfig struct {
	// BotToken is the bot credential embedded in the request URL
	BotToken string

	// APIBaseURL overrides the Telegram endpoint; empty means the public API.
	// Tests point this at a local stub server.
	APIBaseURL string

	// Timeout is the HTTP request timeout; zero means the 5-second default
	Timeout time.Duration
}

// TelegramNotifier sends messages via the Telegram Bot API sendMessage method.
type TelegramNotifier struct {
	config     TelegramConfig
	httpClient *http.Client
}

// NewTelegramNotifier creates a new TelegramNotifier with the specified
// configuration, filling in the public endpoint and default timeout where
// the config leaves them empty.
func NewTelegramNotifier(config TelegramConfig) *TelegramNotifier {
	if config.APIBaseURL == "" {
		config.APIBaseURL = defaultAPIBaseURL
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}

	return &TelegramNotifier{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// sendMessageRequest is the JSON payload for the sendMessage method.
// Link previews are suppressed so an issue URL does not expand into a card.
type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// sendMessageResponse is the subset of Telegram's response envelope this
// package inspects. OK is a pointer so an absent field is distinguishable
// from an explicit false.
type sendMessageResponse struct {
	OK          *bool  `json:"ok"`
	Description string `json:"description"`
}

// SendMessage implements the Notifier interface for Telegram.
//
// Outcome classification, in priority order:
//  1. Transport failure (timeout, DNS, connection reset) → TransportError
//  2. HTTP status >= 400 → StatusError with captured response
//  3. 2xx body carrying "ok": false → APIError with captured response,
//     using the body's description when present
//  4. Otherwise success
//
// A body that fails to parse as JSON is tolerated and treated as carrying no
// failure signal.
func (t *TelegramNotifier) SendMessage(ctx context.Context, chatID, text string) error {
	payload := sendMessageRequest{
		ChatID:                chatID,
		Text:                  text,
		DisableWebPagePreview: true,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal sendMessage payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.config.APIBaseURL, t.config.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)

	capture := ResponseCapture{
		StatusCode: resp.StatusCode,
		Body:       truncateBody(string(body), maxResponseTextLength),
		IsJSON:     json.Valid(body),
	}

	// Parse failure is tolerated: parsed keeps its zero value and the body
	// simply carries no failure signal.
	var parsed sendMessageResponse
	_ = json.Unmarshal(body, &parsed)

	if resp.StatusCode >= 400 {
		detail := parsed.Description
		if detail == "" {
			detail = resp.Status
		}
		return &StatusError{
			Response: capture,
			Message:  fmt.Sprintf("Telegram API error: %s", detail),
		}
	}

	if parsed.OK != nil && !*parsed.OK {
		message := parsed.Description
		if message == "" {
			message = genericAPIErrorMessage
		}
		return &APIError{
			Response: capture,
			Message:  message,
		}
	}

	return nil
}
