package postgres

import (
	"time"

	"github.com/hiresphere/pipeline-health/internal/domain/entity"
	"github.com/hiresphere/pipeline-health/internal/domain/valueobject"
)

// HealthRecordDBModel представляет оценку здоровья воронки в БД
type HealthRecordDBModel struct {
	ID                 string
	ActiveCandidates   int
	OpenPositions      int
	WeeklyApplications int
	AvgDaysToFill      float64
	DiverseCandidates  int
	TotalCandidates    int
	CandidateVolume    int
	ApplicationRate    int
	TimeToFill         int
	DiversityRatio     int
	RawScore           float64
	OverallScore       int
	Status             string
	AlertCount         int
	ComputedAt         time.Time
	CreatedAt          time.Time
}

// ToDBModel конвертирует Domain Entity в DB Model
func ToDBModel(record *entity.HealthRecord) *HealthRecordDBModel {
	snapshot := record.Snapshot()
	sub := record.SubScores()

	return &HealthRecordDBModel{
		ID:                 record.ID(),
		ActiveCandidates:   snapshot.ActiveCandidates,
		OpenPositions:      snapshot.OpenPositions,
		WeeklyApplications: snapshot.WeeklyApplications,
		AvgDaysToFill:      snapshot.AvgDaysToFill,
		DiverseCandidates:  snapshot.DiverseCandidates,
		TotalCandidates:    snapshot.TotalCandidates,
		CandidateVolume:    sub.CandidateVolume,
		ApplicationRate:    sub.ApplicationRate,
		TimeToFill:         sub.TimeToFill,
		DiversityRatio:     sub.DiversityRatio,
		RawScore:           record.RawScore(),
		OverallScore:       record.OverallScore(),
		Status:             record.Status().String(),
		AlertCount:         record.AlertCount(),
		ComputedAt:         record.ComputedAt(),
		CreatedAt:          record.CreatedAt(),
	}
}

// ToEntity конвертирует DB Model в Domain Entity
func ToEntity(model *HealthRecordDBModel) (*entity.HealthRecord, error) {
	status, err := valueobject.ParseHealthStatus(model.Status)
	if err != nil {
		return nil, err
	}

	snapshot := valueobject.MetricsSnapshot{
		ActiveCandidates:   model.ActiveCandidates,
		OpenPositions:      model.OpenPositions,
		WeeklyApplications: model.WeeklyApplications,
		AvgDaysToFill:      model.AvgDaysToFill,
		DiverseCandidates:  model.DiverseCandidates,
		TotalCandidates:    model.TotalCandidates,
	}
	sub := valueobject.SubScores{
		CandidateVolume: model.CandidateVolume,
		ApplicationRate: model.ApplicationRate,
		TimeToFill:      model.TimeToFill,
		DiversityRatio:  model.DiversityRatio,
	}

	return entity.ReconstructHealthRecord(
		model.ID,
		snapshot,
		sub,
		model.RawScore,
		model.OverallScore,
		status,
		model.AlertCount,
		model.ComputedAt,
		model.CreatedAt,
	), nil
}

// healthRecordColumns - порядок колонок для SELECT и ScanHealthRecordRow
const healthRecordColumns = `id, active_candidates, open_positions, weekly_applications, avg_days_to_fill,
	diverse_candidates, total_candidates, candidate_volume_score, application_rate_score,
	time_to_fill_score, diversity_score, raw_score, overall_score, status, alert_count,
	computed_at, created_at`

// ScanHealthRecordRow сканирует строку БД в HealthRecordDBModel
func ScanHealthRecordRow(row interface {
	Scan(dest ...interface{}) error
}) (*HealthRecordDBModel, error) {
	var model HealthRecordDBModel

	err := row.Scan(
		&model.ID,
		&model.ActiveCandidates,
		&model.OpenPositions,
		&model.WeeklyApplications,
		&model.AvgDaysToFill,
		&model.DiverseCandidates,
		&model.TotalCandidates,
		&model.CandidateVolume,
		&model.ApplicationRate,
		&model.TimeToFill,
		&model.DiversityRatio,
		&model.RawScore,
		&model.OverallScore,
		&model.Status,
		&model.AlertCount,
		&model.ComputedAt,
		&model.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &model, nil
}
