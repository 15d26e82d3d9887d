package service

import (
	"errors"
	"sort"

	"github.com/hiresphere/pipeline-health/internal/domain/entity"
	"github.com/hiresphere/pipeline-health/internal/domain/valueobject"
)

// Направление изменения здоровья за период
const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"
)

// trendDeadband - изменение среднего балла, которое еще считается стабильным
const trendDeadband = 2.0

var errNoRecords = errors.New("no health records to aggregate")

// HealthSummary - агрегаты по истории оценок
type HealthSummary struct {
	Count        int
	Average      float64
	Min          int
	Max          int
	StatusCounts map[valueobject.HealthStatus]int
	Trend        string
}

// HealthAggregator предоставляет агрегирование истории оценок (Domain Service)
type HealthAggregator struct{}

// NewHealthAggregator создает новый HealthAggregator
func NewHealthAggregator() *HealthAggregator {
	return &HealthAggregator{}
}

// Summarize считает агрегаты; для пустой истории возвращает нулевую сводку
func (a *HealthAggregator) Summarize(records []*entity.HealthRecord) HealthSummary {
	summary := HealthSummary{
		StatusCounts: make(map[valueobject.HealthStatus]int),
		Trend:        TrendStable,
	}
	if len(records) == 0 {
		return summary
	}

	summary.Count = len(records)
	summary.Average, _ = a.CalculateAverage(records)
	summary.Min, _ = a.CalculateMin(records)
	summary.Max, _ = a.CalculateMax(records)
	for _, r := range records {
		summary.StatusCounts[r.Status()]++
	}
	summary.Trend = a.Trend(records)

	return summary
}

// CalculateAverage вычисляет средний общий балл
func (a *HealthAggregator) CalculateAverage(records []*entity.HealthRecord) (float64, error) {
	if len(records) == 0 {
		return 0, errNoRecords
	}

	var sum float64
	for _, r := range records {
		sum += float64(r.OverallScore())
	}
	return sum / float64(len(records)), nil
}

// CalculateMin находит минимальный общий балл
func (a *HealthAggregator) CalculateMin(records []*entity.HealthRecord) (int, error) {
	if len(records) == 0 {
		return 0, errNoRecords
	}

	min := records[0].OverallScore()
	for _, r := range records[1:] {
		if v := r.OverallScore(); v < min {
			min = v
		}
	}
	return min, nil
}

// CalculateMax находит максимальный общий балл
func (a *HealthAggregator) CalculateMax(records []*entity.HealthRecord) (int, error) {
	if len(records) == 0 {
		return 0, errNoRecords
	}

	max := records[0].OverallScore()
	for _, r := range records[1:] {
		if v := r.OverallScore(); v > max {
			max = v
		}
	}
	return max, nil
}

// Trend сравнивает средний балл первой и второй половины периода
func (a *HealthAggregator) Trend(records []*entity.HealthRecord) string {
	if len(records) < 2 {
		return TrendStable
	}

	sorted := a.SortByTime(records, false)
	mid := len(sorted) / 2
	older, _ := a.CalculateAverage(sorted[:mid])
	newer, _ := a.CalculateAverage(sorted[mid:])

	switch delta := newer - older; {
	case delta > trendDeadband:
		return TrendImproving
	case delta < -trendDeadband:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// FindCritical возвращает записи в статусе critical
func (a *HealthAggregator) FindCritical(records []*entity.HealthRecord) []*entity.HealthRecord {
	var critical []*entity.HealthRecord
	for _, r := range records {
		if r.Status() == valueobject.StatusCritical {
			critical = append(critical, r)
		}
	}
	return critical
}

// SortByTime сортирует записи по времени расчета
func (a *HealthAggregator) SortByTime(records []*entity.HealthRecord, descending bool) []*entity.HealthRecord {
	sorted := make([]*entity.HealthRecord, len(records))
	copy(sorted, records)

	sort.SliceStable(sorted, func(i, j int) bool {
		if descending {
			return sorted[i].ComputedAt().After(sorted[j].ComputedAt())
		}
		return sorted[i].ComputedAt().Before(sorted[j].ComputedAt())
	})

	return sorted
}
