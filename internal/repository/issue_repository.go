package repository

import (
	"context"

	"alert-relay/internal/domain/entity"
)

// IssueRepository reads tracked issues for alert message composition.
type IssueRepository interface {
	// Get returns the issue with the given id, or (nil, nil) when it does
	// not exist.
	Get(ctx context.Context, id int64) (*entity.Issue, error)
}
