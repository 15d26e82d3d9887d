package dto

import (
	"time"

	"github.com/hiresphere/pipeline-health/internal/domain/entity"
	"github.com/hiresphere/pipeline-health/internal/domain/service"
)

// HealthRecordDTO - одна оценка в истории
type HealthRecordDTO struct {
	ID                    string    `json:"id"`
	HealthScore           int       `json:"healthScore"`
	RawScore              float64   `json:"rawScore"`
	Status                string    `json:"status"`
	CandidateVolumeHealth int       `json:"candidateVolumeHealth"`
	ApplicationRateHealth int       `json:"applicationRateHealth"`
	TimeToFillHealth      int       `json:"timeToFillHealth"`
	DiversityHealth       int       `json:"diversityHealth"`
	AlertCount            int       `json:"alertCount"`
	ComputedAt            time.Time `json:"computedAt"`
}

// HealthHistoryDTO - ответ GET /api/v1/pipeline-health/history
type HealthHistoryDTO struct {
	From         time.Time         `json:"from"`
	To           time.Time         `json:"to"`
	Records      []HealthRecordDTO `json:"records"`
	Count        int               `json:"count"`
	Average      float64           `json:"average"`
	Min          int               `json:"min"`
	Max          int               `json:"max"`
	StatusCounts map[string]int    `json:"statusCounts"`
	Trend        string            `json:"trend"`
}

// FromHealthRecord конвертирует запись истории
func FromHealthRecord(r *entity.HealthRecord) HealthRecordDTO {
	sub := r.SubScores()
	return HealthRecordDTO{
		ID:                    r.ID(),
		HealthScore:           r.OverallScore(),
		RawScore:              r.RawScore(),
		Status:                r.Status().String(),
		CandidateVolumeHealth: sub.CandidateVolume,
		ApplicationRateHealth: sub.ApplicationRate,
		TimeToFillHealth:      sub.TimeToFill,
		DiversityHealth:       sub.DiversityRatio,
		AlertCount:            r.AlertCount(),
		ComputedAt:            r.ComputedAt(),
	}
}

// NewHealthHistoryDTO собирает историю с агрегатами
func NewHealthHistoryDTO(from, to time.Time, records []*entity.HealthRecord, summary service.HealthSummary) *HealthHistoryDTO {
	items := make([]HealthRecordDTO, 0, len(records))
	for _, r := range records {
		items = append(items, FromHealthRecord(r))
	}

	counts := make(map[string]int, len(summary.StatusCounts))
	for status, n := range summary.StatusCounts {
		counts[status.String()] = n
	}

	return &HealthHistoryDTO{
		From:         from,
		To:           to,
		Records:      items,
		Count:        summary.Count,
		Average:      summary.Average,
		Min:          summary.Min,
		Max:          summary.Max,
		StatusCounts: counts,
		Trend:        summary.Trend,
	}
}
