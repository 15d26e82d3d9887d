package dto

import (
	"github.com/hiresphere/pipeline-health/internal/domain/service"
	"github.com/hiresphere/pipeline-health/internal/domain/valueobject"
)

// ReportedPipelineHealthDTO - ответ GET /pipeline-health со стороны клиента.
// Баллы читаются как float64: дробное значение сервера должно попасть
// в список расхождений, а не сломать разбор ответа.
type ReportedPipelineHealthDTO struct {
	HealthScore float64            `json:"healthScore"`
	RawScore    float64            `json:"rawScore"`
	Status      string             `json:"status"`
	Label       string             `json:"label"`
	Metrics     ReportedMetricsDTO `json:"metrics"`
	RecordID    string             `json:"recordId,omitempty"`
}

// ReportedMetricsDTO - сырые показатели и под-метрики в ответе сервера
type ReportedMetricsDTO struct {
	ActiveCandidates      int     `json:"activeCandidates"`
	OpenPositions         int     `json:"openPositions"`
	WeeklyApplications    int     `json:"weeklyApplications"`
	AvgTimeToFill         float64 `json:"avgTimeToFill"`
	DiverseCandidates     int     `json:"diverseCandidates"`
	TotalCandidates       int     `json:"totalCandidates"`
	CandidateVolumeHealth float64 `json:"candidateVolumeHealth"`
	ApplicationRateHealth float64 `json:"applicationRateHealth"`
	TimeToFillHealth      float64 `json:"timeToFillHealth"`
	DiversityHealth       float64 `json:"diversityHealth"`
}

// HasData сообщает, считал ли сервер оценку по реальному снимку
func (d *ReportedPipelineHealthDTO) HasData() bool {
	return d.Status != valueobject.StatusNoData.String()
}

// Snapshot восстанавливает снимок, по которому сервер считал оценку.
// Для ответа "no data" возвращает nil.
func (d *ReportedPipelineHealthDTO) Snapshot() *valueobject.MetricsSnapshot {
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

// Reported возвращает значения сервера для ConsistencyValidator
func (d *ReportedPipelineHealthDTO) Reported() service.ReportedHealth {
	return service.ReportedHealth{
		HealthScore:           d.HealthScore,
		Status:                d.Status,
		CandidateVolumeHealth: d.Metrics.CandidateVolumeHealth,
		ApplicationRateHealth: d.Metrics.ApplicationRateHealth,
		TimeToFillHealth:      d.Metrics.TimeToFillHealth,
		DiversityHealth:       d.Metrics.DiversityHealth,
	}
}
