package service

import (
	"github.com/hiresphere/pipeline-health/internal/domain/valueobject"
)

// MetricsCalculator превращает сырые показатели воронки в оценку здоровья (Domain Service).
// Чистая функция от снимка и конфигурации: без I/O и без скрытого состояния,
// поэтому безопасна для конкурентного использования.
type MetricsCalculator struct {
	cfg valueobject.ScoringConfig
}

// NewMetricsCalculator создает калькулятор; при некорректной конфигурации
// используется конфигурация по умолчанию
func NewMetricsCalculator(cfg valueobject.ScoringConfig) *MetricsCalculator {
	if err := cfg.Validate(); err != nil {
		cfg = valueobject.DefaultScoringConfig()
	}
	return &MetricsCalculator{cfg: cfg}
}

// Config возвращает используемую конфигурацию
func (c *MetricsCalculator) Config() valueobject.ScoringConfig {
	return c.cfg
}

// Calculate вычисляет под-метрики, общий балл и статус.
// nil снимок дает результат "no data" вместо расчета по нулям.
func (c *MetricsCalculator) Calculate(snapshot *valueobject.MetricsSnapshot) valueobject.HealthResult {
	if snapshot == nil {
		return valueobject.NoDataResult()
	}

	s := snapshot.Normalize()
	sub := c.SubScores(s)
	raw := c.RawScore(sub)
	overall := clampPercent(roundHalfUp(raw))
	status := c.cfg.ClassifyStatus(float64(overall))

	return valueobject.HealthResult{
		HasData:             true,
		Snapshot:            s,
		SubScores:           sub,
		RawScore:            raw,
		OverallScore:        overall,
		Status:              status,
		Color:               status.Color(),
		Label:               status.Label(),
		CandidateToJobRatio: s.CandidateToJobRatio(),
		DiversityRatio:      s.DiversityRatio(),
	}
}

// SubScores вычисляет четыре под-метрики для нормализованного снимка
func (c *MetricsCalculator) SubScores(s valueobject.MetricsSnapshot) valueobject.SubScores {
	return valueobject.SubScores{
		CandidateVolume: c.candidateVolumeHealth(s),
		ApplicationRate: c.applicationRateHealth(s),
		TimeToFill:      c.timeToFillHealth(s),
		DiversityRatio:  c.diversityRatioHealth(s),
	}
}

// RawScore возвращает взвешенную сумму под-метрик без округления
func (c *MetricsCalculator) RawScore(sub valueobject.SubScores) float64 {
	return clampPercentFloat(sub.Weighted(c.cfg.Weights))
}

// Без открытых позиций отношение не определено и считается худшим случаем
func (c *MetricsCalculator) candidateVolumeHealth(s valueobject.MetricsSnapshot) int {
	if s.OpenPositions == 0 {
		return 0
	}
	denominator := float64(s.OpenPositions) * c.cfg.Targets.CandidatesPerJobTarget
	return percentScore(100 * float64(s.ActiveCandidates) / denominator)
}

func (c *MetricsCalculator) applicationRateHealth(s valueobject.MetricsSnapshot) int {
	return percentScore(100 * float64(s.WeeklyApplications) / c.cfg.Targets.WeeklyApplicationsTarget)
}

// Обратная зависимость: 0 дней дает 100, значение на уровне цели и выше дает 0
func (c *MetricsCalculator) timeToFillHealth(s valueobject.MetricsSnapshot) int {
	target := c.cfg.Targets.MaxTimeToFillTarget
	remaining := (target - s.AvgDaysToFill) / target
	if remaining < 0 {
		remaining = 0
	}
	return percentScore(100 * remaining)
}

func (c *MetricsCalculator) diversityRatioHealth(s valueobject.MetricsSnapshot) int {
	return percentScore(100 * s.DiversityRatio() / c.cfg.Targets.MinDiversityRatioTarget)
}
