package dispatch

// Task kinds routed through the queue registry.
const (
	TaskKindTestMessage = "dispatch.test_message"
	TaskKindAlert       = "dispatch.alert"
)

// TestMessageTask carries a channel test delivery across the queue boundary.
// Only plain serializable scalars: the executor must be able to run in a
// different process than the facade that enqueued it.
type TestMessageTask struct {
	BotToken        string `json:"bot_token"`
	ChatID          string `json:"chat_id"`
	ProjectName     string `json:"project_name"`
	DisplayName     string `json:"display_name"`
	ServiceConfigID int64  `json:"service_config_id"`
}

// AlertTask carries an alert delivery across the queue boundary. It
// identifies the issue by id rather than embedding its content: the executor
// fetches the issue when it runs, keeping queued payloads small.
type AlertTask struct {
	BotToken         string  `json:"bot_token"`
	ChatID           string  `json:"chat_id"`
	IssueID          int64   `json:"issue_id"`
	StateDescription string  `json:"state_description"`
	AlertArticle     string  `json:"alert_article"`
	AlertReason      string  `json:"alert_reason"`
	ServiceConfigID  int64   `json:"service_config_id"`
	UnmuteReason     *string `json:"unmute_reason,omitempty"`
}
