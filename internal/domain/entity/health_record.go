package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/hiresphere/pipeline-health/internal/domain/valueobject"
)

// HealthRecord - сохраненная оценка здоровья воронки (Aggregate Root)
type HealthRecord struct {
	id         string
	snapshot   valueobject.MetricsSnapshot
	subScores  valueobject.SubScores
	rawScore   float64
	overall    int
	status     valueobject.HealthStatus
	alertCount int
	computedAt time.Time
	createdAt  time.Time
}

// NewHealthRecord создает запись из результата расчета (Factory Method)
func NewHealthRecord(result valueobject.HealthResult, alertCount int, computedAt time.Time) *HealthRecord {
	if computedAt.IsZero() {
		computedAt = time.Now().UTC()
	}
	if alertCount < 0 {
		alertCount = 0
	}

	return &HealthRecord{
		id:         uuid.New().String(),
		snapshot:   result.Snapshot,
		subScores:  result.SubScores,
		rawScore:   result.RawScore,
		overall:    result.OverallScore,
		status:     result.Status,
		alertCount: alertCount,
		computedAt: computedAt,
		createdAt:  time.Now().UTC(),
	}
}

// ReconstructHealthRecord восстанавливает запись из хранилища (для Repository)
func ReconstructHealthRecord(
	id string,
	snapshot valueobject.MetricsSnapshot,
	subScores valueobject.SubScores,
	rawScore float64,
	overall int,
	status valueobject.HealthStatus,
	alertCount int,
	computedAt, createdAt time.Time,
) *HealthRecord {
	return &HealthRecord{
		id:         id,
		snapshot:   snapshot,
		subScores:  subScores,
		rawScore:   rawScore,
		overall:    overall,
		status:     status,
		alertCount: alertCount,
		computedAt: computedAt,
		createdAt:  createdAt,
	}
}

func (r *HealthRecord) ID() string {
	return r.id
}

func (r *HealthRecord) Snapshot() valueobject.MetricsSnapshot {
	return r.snapshot
}

func (r *HealthRecord) SubScores() valueobject.SubScores {
	return r.subScores
}

func (r *HealthRecord) RawScore() float64 {
	return r.rawScore
}

func (r *HealthRecord) OverallScore() int {
	return r.overall
}

func (r *HealthRecord) Status() valueobject.HealthStatus {
	return r.status
}

func (r *HealthRecord) AlertCount() int {
	return r.alertCount
}

func (r *HealthRecord) ComputedAt() time.Time {
	return r.computedAt
}

func (r *HealthRecord) CreatedAt() time.Time {
	return r.createdAt
}

// Result восстанавливает HealthResult для отображения
func (r *HealthRecord) Result() valueobject.HealthResult {
	return valueobject.HealthResult{
		HasData:             true,
		Snapshot:            r.snapshot,
		SubScores:           r.subScores,
		RawScore:            r.rawScore,
		OverallScore:        r.overall,
		Status:              r.status,
		Color:               r.status.Color(),
		Label:               r.status.Label(),
		CandidateToJobRatio: r.snapshot.CandidateToJobRatio(),
		DiversityRatio:      r.snapshot.DiversityRatio(),
	}
}

// IsStale проверяет, устарела ли оценка
func (r *HealthRecord) IsStale(now time.Time, threshold time.Duration) bool {
	return now.Sub(r.computedAt) > threshold
}
