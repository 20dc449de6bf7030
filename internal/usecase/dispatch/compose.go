// Package dispatch implements the delivery pipeline for messaging channels:
// composing bounded message payloads, enqueueing delivery tasks through the
// backend facade, executing queued attempts against the messaging service
// API, and persisting exactly one success or failure snapshot per attempt.
package dispatch

import (
	"fmt"
	"strings"
)

const (
	// maxMessageLength is the Telegram sendMessage text limit minus margin.
	maxMessageLength = 4000

	// maxIssueTitleLength bounds the issue title embedded in alert messages.
	maxIssueTitleLength = 200

	truncationSuffix = "..."

	testMessageBoilerplate = "Test message by alert-relay to test the Telegram bot setup."
)

// TruncateMessage caps a composed message at the outbound text limit,
// marking the cut with a trailing ellipsis. The result never exceeds the
// limit, marker included.
func TruncateMessage(text string) string {
	return truncateChars(text, maxMessageLength)
}

// truncateChars cuts at maxLength−3 characters and appends "...". Counted
// in runes so a multi-byte character is never split.
func truncateChars(text string, maxLength int) string {
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}
	return string(runes[:maxLength-len(truncationSuffix)]) + truncationSuffix
}

// ComposeTestMessage builds the fixed three-line channel test message.
func ComposeTestMessage(projectName, displayName string) string {
	lines := []string{
		testMessageBoilerplate,
		fmt.Sprintf("Project: %s", projectName),
		fmt.Sprintf("Message backend: %s", displayName),
	}
	return TruncateMessage(strings.Join(lines, "\n"))
}

// ComposeAlertMessage builds an alert message: the reason line, the issue
// title (itself bounded to 200 characters), the project, the absolute issue
// URL, and — when an alert fires for a previously muted issue — an unmute
// reason line.
func ComposeAlertMessage(alertReason, issueTitle, projectName, issueURL string, unmuteReason *string) string {
	lines := []string{
		fmt.Sprintf("%s issue", alertReason),
		fmt.Sprintf("Issue: %s", truncateChars(issueTitle, maxIssueTitleLength)),
		fmt.Sprintf("Project: %s", projectName),
		fmt.Sprintf("URL: %s", issueURL),
	}
	if unmuteReason != nil && *unmuteReason != "" {
		lines = append(lines, fmt.Sprintf("Unmute reason: %s", *unmuteReason))
	}
	return TruncateMessage(strings.Join(lines, "\n"))
}
