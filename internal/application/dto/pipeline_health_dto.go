package dto

import (
	"time"

	"github.com/hiresphere/pipeline-health/internal/domain/entity"
	"github.com/hiresphere/pipeline-health/internal/domain/valueobject"
)

// PipelineHealthDTO - ответ GET /pipeline-health
type PipelineHealthDTO struct {
	HealthScore     int              `json:"healthScore"`
	RawScore        float64          `json:"rawScore"`
	Status          string           `json:"status"`
	Color           string           `json:"color"`
	Label           string           `json:"label"`
	Metrics         HealthMetricsDTO `json:"metrics"`
	Alerts          []AlertDTO       `json:"alerts"`
	Recommendations []string         `json:"recommendations"`
	RecordID        string           `json:"recordId,omitempty"`
	ComputedAt      *time.Time       `json:"computedAt,omitempty"`
}

// HealthMetricsDTO содержит сырые показатели и под-метрики.
// diverseCandidates и totalCandidates нужны клиенту для повторного расчета.
type HealthMetricsDTO struct {
	ActiveCandidates      int     `json:"activeCandidates"`
	OpenPositions         int     `json:"openPositions"`
	WeeklyApplications    int     `json:"weeklyApplications"`
	AvgTimeToFill         float64 `json:"avgTimeToFill"`
	DiverseCandidates     int     `json:"diverseCandidates"`
	TotalCandidates       int     `json:"totalCandidates"`
	CandidateVolumeHealth int     `json:"candidateVolumeHealth"`
	ApplicationRateHealth int     `json:"applicationRateHealth"`
	TimeToFillHealth      int     `json:"timeToFillHealth"`
	DiversityHealth       int     `json:"diversityHealth"`
	DiversityRatio        float64 `json:"diversityRatio"`
	CandidateToJobRatio   float64 `json:"candidateToJobRatio"`
}

// NewPipelineHealthDTO собирает ответ из результата расчета и alert'ов
func NewPipelineHealthDTO(
	result valueobject.HealthResult,
	alerts []AlertDTO,
	recommendations []string,
) *PipelineHealthDTO {
	if alerts == nil {
		alerts = []AlertDTO{}
	}
	if recommendations == nil {
		recommendations = []string{}
	}

	s := result.Snapshot
	return &PipelineHealthDTO{
		HealthScore: result.OverallScore,
		RawScore:    result.RawScore,
		Status:      result.Status.String(),
		Color:       result.Color,
		Label:       result.Label,
		Metrics: HealthMetricsDTO{
			ActiveCandidates:      s.ActiveCandidates,
			OpenPositions:         s.OpenPositions,
			WeeklyApplications:    s.WeeklyApplications,
			AvgTimeToFill:         s.AvgDaysToFill,
			DiverseCandidates:     s.DiverseCandidates,
			TotalCandidates:       s.TotalCandidates,
			CandidateVolumeHealth: result.SubScores.CandidateVolume,
			ApplicationRateHealth: result.SubScores.ApplicationRate,
			TimeToFillHealth:      result.SubScores.TimeToFill,
			DiversityHealth:       result.SubScores.DiversityRatio,
			DiversityRatio:        result.DiversityRatio,
			CandidateToJobRatio:   result.CandidateToJobRatio,
		},
		Alerts:          alerts,
		Recommendations: recommendations,
	}
}

// HasData сообщает, рассчитан ли ответ по реальному снимку
func (d *PipelineHealthDTO) HasData() bool {
	return d.Status != valueobject.StatusNoData.String()
}

// Snapshot восстанавливает снимок, по которому сервер считал оценку.
// Для ответа "no data" возвращает nil.
func (d *PipelineHealthDTO) Snapshot() *valueobject.MetricsSnapshot {
	if !d.HasData() {
		return nil
	}
	return &valueobject.MetricsSnapshot{
		ActiveCandidates:   d.Metrics.ActiveCandidates,
		OpenPositions:      d.Metrics.OpenPositions,
		WeeklyApplications: d.Metrics.WeeklyApplications,
		AvgDaysToFill:      d.Metrics.AvgTimeToFill,
		DiverseCandidates:  d.Metrics.DiverseCandidates,
		TotalCandidates:    d.Metrics.TotalCandidates,
	}
}

// CalculationDTO - ответ POST /calculate-health
type CalculationDTO struct {
	RecordID    string    `json:"recordId"`
	HealthScore int       `json:"healthScore"`
	Status      string    `json:"status"`
	AlertCount  int       `json:"alertCount"`
	ComputedAt  time.Time `json:"computedAt"`
	ReportKey   string    `json:"reportKey,omitempty"`
	ReportURL   string    `json:"reportUrl,omitempty"`
}

// NewCalculationDTO создает ответ по сохраненной записи
func NewCalculationDTO(record *entity.HealthRecord) *CalculationDTO {
	return &CalculationDTO{
		RecordID:    record.ID(),
		HealthScore: record.OverallScore(),
		Status:      record.Status().String(),
		AlertCount:  record.AlertCount(),
		ComputedAt:  record.ComputedAt(),
	}
}
