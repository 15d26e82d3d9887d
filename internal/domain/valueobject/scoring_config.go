package valueobject

import (
	"errors"
	"math"
)

// weightTolerance допускает погрешность float64 при суммировании весов
const weightTolerance = 1e-9

// ScoringWeights задает вклад каждой под-метрики в общий балл
type ScoringWeights struct {
	CandidateVolume float64
	ApplicationRate float64
	TimeToFill      float64
	DiversityRatio  float64
}

// Sum возвращает сумму весов
func (w ScoringWeights) Sum() float64 {
	return w.CandidateVolume + w.ApplicationRate + w.TimeToFill + w.DiversityRatio
}

// StatusThresholds задает пороги классификации общего балла
type StatusThresholds struct {
	Healthy float64
	Warning float64
}

// MetricTargets задает целевые и критические значения сырых метрик
type MetricTargets struct {
	CandidatesPerJobTarget     float64
	CandidatesPerJobCritical   float64
	WeeklyApplicationsTarget   float64
	WeeklyApplicationsCritical float64
	MaxTimeToFillTarget        float64
	MaxTimeToFillCritical      float64
	MinDiversityRatioTarget    float64
	MinDiversityRatioCritical  float64
}

// ScoringConfig - неизменяемый набор весов и порогов (Value Object).
// Передается явно в MetricsCalculator и AlertGenerator.
type ScoringConfig struct {
	Weights    ScoringWeights
	Thresholds StatusThresholds
	Targets    MetricTargets
}

// DefaultScoringConfig возвращает стандартную конфигурацию оценки
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Weights: ScoringWeights{
			CandidateVolume: 0.4,
			ApplicationRate: 0.3,
			TimeToFill:      0.2,
			DiversityRatio:  0.1,
		},
		Thresholds: StatusThresholds{
			Healthy: 80,
			Warning: 60,
		},
		Targets: MetricTargets{
			CandidatesPerJobTarget:     10,
			CandidatesPerJobCritical:   5,
			WeeklyApplicationsTarget:   20,
			WeeklyApplicationsCritical: 10,
			MaxTimeToFillTarget:        30,
			MaxTimeToFillCritical:      60,
			MinDiversityRatioTarget:    0.2,
			MinDiversityRatioCritical:  0.1,
		},
	}
}

// Validate проверяет внутреннюю согласованность конфигурации
func (c ScoringConfig) Validate() error {
	w := c.Weights
	if w.CandidateVolume < 0 || w.ApplicationRate < 0 || w.TimeToFill < 0 || w.DiversityRatio < 0 {
		return errors.New("weights cannot be negative")
	}
	if math.Abs(w.Sum()-1.0) > weightTolerance {
		return errors.New("weights must sum to 1.0")
	}

	if c.Thresholds.Warning <= 0 || c.Thresholds.Healthy <= c.Thresholds.Warning || c.Thresholds.Healthy > 100 {
		return errors.New("status thresholds must satisfy 0 < warning < healthy <= 100")
	}

	t := c.Targets
	if t.CandidatesPerJobTarget <= 0 || t.WeeklyApplicationsTarget <= 0 ||
		t.MaxTimeToFillTarget <= 0 || t.MinDiversityRatioTarget <= 0 {
		return errors.New("metric targets must be positive")
	}
	if t.CandidatesPerJobCritical > t.CandidatesPerJobTarget ||
		t.WeeklyApplicationsCritical > t.WeeklyApplicationsTarget ||
		t.MaxTimeToFillCritical < t.MaxTimeToFillTarget ||
		t.MinDiversityRatioCritical > t.MinDiversityRatioTarget {
		return errors.New("critical thresholds must be beyond their targets")
	}

	return nil
}

// ClassifyStatus сопоставляет балл со статусом: score >= healthy -> healthy,
// score >= warning -> warning, иначе critical
func (c ScoringConfig) ClassifyStatus(score float64) HealthStatus {
	switch {
	case score >= c.Thresholds.Healthy:
		return StatusHealthy
	case score >= c.Thresholds.Warning:
		return StatusWarning
	default:
		return StatusCritical
	}
}
