package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

const healthRecordsSchema = `
CREATE TABLE IF NOT EXISTS health_records (
	id                     UUID PRIMARY KEY,
	active_candidates      INTEGER NOT NULL,
	open_positions         INTEGER NOT NULL,
	weekly_applications    INTEGER NOT NULL,
	avg_days_to_fill       DOUBLE PRECISION NOT NULL,
	diverse_candidates     INTEGER NOT NULL,
	total_candidates       INTEGER NOT NULL,
	candidate_volume_score SMALLINT NOT NULL,
	application_rate_score SMALLINT NOT NULL,
	time_to_fill_score     SMALLINT NOT NULL,
	diversity_score        SMALLINT NOT NULL,
	raw_score              DOUBLE PRECISION NOT NULL,
	overall_score          SMALLINT NOT NULL,
	status                 VARCHAR(16) NOT NULL,
	alert_count            INTEGER NOT NULL DEFAULT 0,
	computed_at            TIMESTAMPTZ NOT NULL,
	created_at             TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_health_records_computed_at ON health_records (computed_at DESC);
`

// EnsureSchema создает таблицу health_records, если ее нет
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, healthRecordsSchema); err != nil {
		return fmt.Errorf("failed to ensure health_records schema: %w", err)
	}
	return nil
}
