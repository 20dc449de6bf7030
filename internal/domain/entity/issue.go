package entity

import "strings"

// Issue is the tracked issue an alert refers to. Alert tasks carry only the
// issue id across the queue boundary; the delivery executor re-fetches the
// issue to build the message.
type Issue struct {
	ID          int64
	ProjectName string
	Title       string
	Path        string // site-relative URL of the issue page, e.g. "/issues/42/"
}

// AbsoluteURL joins the issue's relative path onto the deployment's base URL.
func (i *Issue) AbsoluteURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + i.Path
}
