package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"alert-relay/internal/domain/entity"
	"alert-relay/internal/infra/db"
	"alert-relay/internal/repository"
)

type IssueRepo struct{ db *sql.DB }

func NewIssueRepo(database *sql.DB) repository.IssueRepository {
	return &IssueRepo{db: database}
}

func (repo *IssueRepo) Get(ctx context.Context, id int64) (*entity.Issue, error) {
	const query = `
SELECT id, project_name, title, path
FROM issues
WHERE id = $1
LIMIT 1`
	var issue entity.Issue
	err := db.FromContext(ctx, repo.db).QueryRowContext(ctx, query, id).Scan(
		&issue.ID, &issue.ProjectName, &issue.Title, &issue.Path,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &issue, nil
}
