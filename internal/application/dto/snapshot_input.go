package dto

import "github.com/hiresphere/pipeline-health/internal/domain/valueobject"

// SnapshotInput - снимок метрик от клиента. Поля могут отсутствовать или быть null,
// такие значения считаются нулем.
type SnapshotInput struct {
	ActiveCandidates   *float64 `json:"activeCandidates"`
	OpenPositions      *float64 `json:"openPositions"`
	WeeklyApplications *float64 `json:"weeklyApplications"`
	AvgDaysToFill      *float64 `json:"avgDaysToFill"`
	DiverseCandidates  *float64 `json:"diverseCandidates"`
	TotalCandidates    *float64 `json:"totalCandidates"`
}

// ToSnapshot нормализует ввод; nil ввод дает nil снимок ("no data")
func (in *SnapshotInput) ToSnapshot() *valueobject.MetricsSnapshot {
	if in == nil {
		return nil
	}
	return &valueobject.MetricsSnapshot{
		ActiveCandidates:   count(in.ActiveCandidates),
		OpenPositions:      count(in.OpenPositions),
		WeeklyApplications: count(in.WeeklyApplications),
		AvgDaysToFill:      value(in.AvgDaysToFill),
		DiverseCandidates:  count(in.DiverseCandidates),
		TotalCandidates:    count(in.TotalCandidates),
	}
}

func count(v *float64) int {
	if v == nil {
		return 0
	}
	return valueobject.SanitizeCount(*v)
}

func value(v *float64) float64 {
	if v == nil {
		return 0
	}
	return valueobject.SanitizeFloat(*v)
}
