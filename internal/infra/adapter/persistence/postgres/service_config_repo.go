package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"alert-relay/internal/domain/entity"
	"alert-relay/internal/infra/db"
	"alert-relay/internal/repository"
)

type ServiceConfigRepo struct{ db *sql.DB }

func NewServiceConfigRepo(database *sql.DB) repository.ServiceConfigRepository {
	return &ServiceConfigRepo{db: database}
}

// scanServiceConfig is a helper function to scan a service config row
// including the failure snapshot columns.
func scanServiceConfig(rows *sql.Rows) (*entity.ServiceConfig, error) {
	var config entity.ServiceConfig
	if err := rows.Scan(
		&config.ID, &config.ProjectName, &config.DisplayName, &config.Backend, &config.Config,
		&config.LastFailureAt, &config.LastFailureErrorType, &config.LastFailureErrorMessage,
		&config.LastFailureStatusCode, &config.LastFailureResponseText, &config.LastFailureIsJSON,
	); err != nil {
		return nil, err
	}
	return &config, nil
}

func (repo *ServiceConfigRepo) Get(ctx context.Context, id int64) (*entity.ServiceConfig, error) {
	const query = `
SELECT id, project_name, display_name, backend, config,
       last_failure_at, last_failure_error_type, last_failure_error_message,
       last_failure_status_code, last_failure_response_text, last_failure_is_json
FROM messaging_service_configs
WHERE id = $1
LIMIT 1`
	var config entity.ServiceConfig
	err := db.FromContext(ctx, repo.db).QueryRowContext(ctx, query, id).Scan(
		&config.ID, &config.ProjectName, &config.DisplayName, &config.Backend, &config.Config,
		&config.LastFailureAt, &config.LastFailureErrorType, &config.LastFailureErrorMessage,
		&config.LastFailureStatusCode, &config.LastFailureResponseText, &config.LastFailureIsJSON,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &config, nil
}

func (repo *ServiceConfigRepo) List(ctx context.Context) ([]*entity.ServiceConfig, error) {
	const query = `
SELECT id, project_name, display_name, backend, config,
       last_failure_at, last_failure_error_type, last_failure_error_message,
       last_failure_status_code, last_failure_response_text, last_failure_is_json
FROM messaging_service_configs
ORDER BY id ASC`
	rows, err := db.FromContext(ctx, repo.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer func() { _ = rows.Close() }()

	configs := make([]*entity.ServiceConfig, 0, 16)
	for rows.Next() {
		config, err := scanServiceConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("List: %w", err)
		}
		configs = append(configs, config)
	}
	return configs, rows.Err()
}

func (repo *ServiceConfigRepo) Create(ctx context.Context, config *entity.ServiceConfig) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("Create: %w", err)
	}

	const query = `
INSERT INTO messaging_service_configs (project_name, display_name, backend, config)
VALUES ($1, $2, $3, $4)
RETURNING id`
	err := db.FromContext(ctx, repo.db).QueryRowContext(ctx, query,
		config.ProjectName, config.DisplayName, config.Backend, config.Config,
	).Scan(&config.ID)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *ServiceConfigRepo) Update(ctx context.Context, config *entity.ServiceConfig) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("Update: %w", err)
	}

	// Failure snapshot columns are owned by RecordFailure/RecordSuccess and
	// deliberately not written here.
	const query = `
UPDATE messaging_service_configs SET
       project_name = $1,
       display_name = $2,
       backend      = $3,
       config       = $4
WHERE id = $5`
	res, err := db.FromContext(ctx, repo.db).ExecContext(ctx, query,
		config.ProjectName, config.DisplayName, config.Backend, config.Config, config.ID,
	)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Update: no rows affected")
	}
	return nil
}

func (repo *ServiceConfigRepo) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM messaging_service_configs WHERE id = $1`
	res, err := db.FromContext(ctx, repo.db).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Delete: no rows affected")
	}
	return nil
}

// RecordFailure overwrites the whole failure field group with one attempt's
// snapshot. The single UPDATE runs inside a scoped transaction so callers
// already inside db.Within reuse their transaction instead of nesting one.
// Zero rows affected means the config was deleted while the task was in
// flight; that race is expected and not an error.
func (repo *ServiceConfigRepo) RecordFailure(ctx context.Context, id int64, snap entity.FailureSnapshot) error {
	const query = `
UPDATE messaging_service_configs SET
       last_failure_at            = $1,
       last_failure_error_type    = $2,
       last_failure_error_message = $3,
       last_failure_status_code   = $4,
       last_failure_response_text = $5,
       last_failure_is_json       = $6
WHERE id = $7`
	return db.Within(ctx, repo.db, func(ctx context.Context) error {
		_, err := db.FromContext(ctx, repo.db).ExecContext(ctx, query,
			snap.OccurredAt, snap.ErrorType, snap.ErrorMessage,
			snap.StatusCode, snap.ResponseText, snap.IsJSON, id,
		)
		if err != nil {
			return fmt.Errorf("RecordFailure: %w", err)
		}
		return nil
	})
}

// RecordSuccess clears every failure field in one atomic write. Zero rows
// affected means the config was deleted concurrently and is a silent no-op.
func (repo *ServiceConfigRepo) RecordSuccess(ctx context.Context, id int64) error {
	const query = `
UPDATE messaging_service_configs SET
       last_failure_at            = NULL,
       last_failure_error_type    = NULL,
       last_failure_error_message = NULL,
       last_failure_status_code   = NULL,
       last_failure_response_text = NULL,
       last_failure_is_json       = NULL
WHERE id = $1`
	return db.Within(ctx, repo.db, func(ctx context.Context) error {
		_, err := db.FromContext(ctx, repo.db).ExecContext(ctx, query, id)
		if err != nil {
			return fmt.Errorf("RecordSuccess: %w", err)
		}
		return nil
	})
}
