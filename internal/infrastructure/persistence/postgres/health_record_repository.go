package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hiresphere/pipeline-health/internal/domain/entity"
	"github.com/hiresphere/pipeline-health/internal/domain/repository"
	"github.com/hiresphere/pipeline-health/internal/domain/valueobject"
	_ "github.com/lib/pq"
)

// PostgresHealthRecordRepository реализует repository.HealthRecordRepository для PostgreSQL
type PostgresHealthRecordRepository struct {
	db *sql.DB
}

// NewPostgresHealthRecordRepository создает новый PostgreSQL repository
func NewPostgresHealthRecordRepository(db *sql.DB) *PostgresHealthRecordRepository {
	return &PostgresHealthRecordRepository{
		db: db,
	}
}

// Save сохраняет оценку
func (r *PostgresHealthRecordRepository) Save(ctx context.Context, record *entity.HealthRecord) error {
	model := ToDBModel(record)

	query := `
		INSERT INTO health_records (` + healthRecordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := r.db.ExecContext(ctx, query,
		model.ID,
		model.ActiveCandidates,
		model.OpenPositions,
		model.WeeklyApplications,
		model.AvgDaysToFill,
		model.DiverseCandidates,
		model.TotalCandidates,
		model.CandidateVolume,
		model.ApplicationRate,
		model.TimeToFill,
		model.DiversityRatio,
		model.RawScore,
		model.OverallScore,
		model.Status,
		model.AlertCount,
		model.ComputedAt,
		model.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert health record: %w", err)
	}

	return nil
}

// FindLatest возвращает последнюю оценку
func (r *PostgresHealthRecordRepository) FindLatest(ctx context.Context) (*entity.HealthRecord, error) {
	query := `
		SELECT ` + healthRecordColumns + `
		FROM health_records
		ORDER BY computed_at DESC
		LIMIT 1
	`

	return r.findOne(ctx, query)
}

// FindByID находит оценку по идентификатору
func (r *PostgresHealthRecordRepository) FindByID(ctx context.Context, id string) (*entity.HealthRecord, error) {
	query := `
		SELECT ` + healthRecordColumns + `
		FROM health_records
		WHERE id = $1
	`

	return r.findOne(ctx, query, id)
}

// FindByTimeRange находит оценки за период, от старых к новым
func (r *PostgresHealthRecordRepository) FindByTimeRange(
	ctx context.Context,
	timeRange valueobject.TimeRange,
) ([]*entity.HealthRecord, error) {
	query := `
		SELECT ` + healthRecordColumns + `
		FROM health_records
		WHERE computed_at BETWEEN $1 AND $2
		ORDER BY computed_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, timeRange.Start(), timeRange.End())
	if err != nil {
		return nil, fmt.Errorf("failed to query health records: %w", err)
	}
	defer rows.Close()

	return r.scanRecords(rows)
}

// DeleteOlderThan удаляет оценки старше cutoff
func (r *PostgresHealthRecordRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM health_records
		WHERE computed_at < $1
	`

	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old health records: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return deleted, nil
}

func (r *PostgresHealthRecordRepository) findOne(ctx context.Context, query string, args ...interface{}) (*entity.HealthRecord, error) {
	row := r.db.QueryRowContext(ctx, query, args...)
	model, err := ScanHealthRecordRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan health record: %w", err)
	}

	record, err := ToEntity(model)
	if err != nil {
		return nil, fmt.Errorf("failed to convert to entity: %w", err)
	}

	return record, nil
}

// scanRecords сканирует несколько строк в слайс оценок
func (r *PostgresHealthRecordRepository) scanRecords(rows *sql.Rows) ([]*entity.HealthRecord, error) {
	records := make([]*entity.HealthRecord, 0)

	for rows.Next() {
		model, err := ScanHealthRecordRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan health record row: %w", err)
		}

		record, err := ToEntity(model)
		if err != nil {
			return nil, fmt.Errorf("failed to convert to entity: %w", err)
		}

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return records, nil
}
