package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hiresphere/pipeline-health/internal/domain/valueobject"
)

// snapshotQuery собирает сырые метрики воронки из таблиц рекрутинговой БД.
// $1 - начало недельного окна заявок, $2 - начало окна закрытия вакансий.
const snapshotQuery = `
	SELECT
		(SELECT COUNT(*) FROM candidates WHERE status = 'active'),
		(SELECT COUNT(*) FROM jobs WHERE status = 'open'),
		(SELECT COUNT(*) FROM applications WHERE applied_at >= $1),
		(SELECT COALESCE(AVG(EXTRACT(EPOCH FROM (filled_at - opened_at)) / 86400.0), 0)
			FROM jobs
			WHERE filled_at IS NOT NULL AND filled_at >= $2),
		(SELECT COUNT(*) FROM candidates WHERE is_diverse),
		(SELECT COUNT(*) FROM candidates)
`

// PostgresSnapshotSource реализует port.SnapshotSource поверх рекрутинговой БД
type PostgresSnapshotSource struct {
	db               *sql.DB
	weeklyWindow     time.Duration
	timeToFillWindow time.Duration
}

// NewPostgresSnapshotSource создает источник снимков метрик
func NewPostgresSnapshotSource(db *sql.DB, weeklyWindow, timeToFillWindow time.Duration) *PostgresSnapshotSource {
	if weeklyWindow <= 0 {
		weeklyWindow = 7 * 24 * time.Hour
	}
	if timeToFillWindow <= 0 {
		timeToFillWindow = 90 * 24 * time.Hour
	}

	return &PostgresSnapshotSource{
		db:               db,
		weeklyWindow:     weeklyWindow,
		timeToFillWindow: timeToFillWindow,
	}
}

// Fetch возвращает снимок метрик на момент asOf.
// Пустая БД (ни кандидатов, ни вакансий, ни заявок) означает отсутствие данных: возвращается nil.
func (s *PostgresSnapshotSource) Fetch(ctx context.Context, asOf time.Time) (*valueobject.MetricsSnapshot, error) {
	var (
		active, open, weekly, diverse, total int64
		avgDays                              sql.NullFloat64
	)

	err := s.db.QueryRowContext(ctx, snapshotQuery,
		asOf.Add(-s.weeklyWindow),
		asOf.Add(-s.timeToFillWindow),
	).Scan(&active, &open, &weekly, &avgDays, &diverse, &total)
	if err != nil {
		return nil, fmt.Errorf("failed to query pipeline snapshot: %w", err)
	}

	if active == 0 && open == 0 && weekly == 0 && total == 0 {
		return nil, nil
	}

	snapshot := valueobject.MetricsSnapshot{
		ActiveCandidates:   int(active),
		OpenPositions:      int(open),
		WeeklyApplications: int(weekly),
		AvgDaysToFill:      avgDays.Float64,
		DiverseCandidates:  int(diverse),
		TotalCandidates:    int(total),
	}.Normalize()

	return &snapshot, nil
}
