package db

import (
	"database/sql"
)

// MigrateUp creates the tables this subsystem owns. Statements are
// idempotent so the worker can run them on every start.
func MigrateUp(database *sql.DB) error {
	if _, err := database.Exec(`
CREATE TABLE IF NOT EXISTS messaging_service_configs (
    id                         BIGSERIAL PRIMARY KEY,
    project_name               TEXT NOT NULL,
    display_name               TEXT NOT NULL,
    backend                    VARCHAR(32) NOT NULL DEFAULT 'telegram',
    config                     TEXT NOT NULL DEFAULT '',
    last_failure_at            TIMESTAMPTZ,
    last_failure_error_type    TEXT,
    last_failure_error_message TEXT,
    last_failure_status_code   INTEGER,
    last_failure_response_text TEXT,
    last_failure_is_json       BOOLEAN
)`); err != nil {
		return err
	}

	if _, err := database.Exec(`
CREATE TABLE IF NOT EXISTS issues (
    id           BIGSERIAL PRIMARY KEY,
    project_name TEXT NOT NULL,
    title        TEXT NOT NULL,
    path         TEXT NOT NULL
)`); err != nil {
		return err
	}

	// Index for the operator UI listing broken channels.
	if _, err := database.Exec(`
CREATE INDEX IF NOT EXISTS idx_service_configs_last_failure_at
ON messaging_service_configs(last_failure_at)
WHERE last_failure_at IS NOT NULL`); err != nil {
		return err
	}

	return nil
}
