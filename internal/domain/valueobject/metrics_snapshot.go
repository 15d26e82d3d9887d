package valueobject

import "math"

// MetricsSnapshot - сырые показатели воронки найма на момент расчета (Value Object)
type MetricsSnapshot struct {
	ActiveCandidates   int
	OpenPositions      int
	WeeklyApplications int
	AvgDaysToFill      float64
	DiverseCandidates  int
	TotalCandidates    int
}

// Normalize приводит снимок к допустимому виду: отрицательные значения,
// NaN и бесконечности становятся 0. Dashboard всегда должен отрисоваться,
// поэтому некорректный ввод не считается ошибкой.
func (s MetricsSnapshot) Normalize() MetricsSnapshot {
	return MetricsSnapshot{
		ActiveCandidates:   nonNegative(s.ActiveCandidates),
		OpenPositions:      nonNegative(s.OpenPositions),
		WeeklyApplications: nonNegative(s.WeeklyApplications),
		AvgDaysToFill:      SanitizeFloat(s.AvgDaysToFill),
		DiverseCandidates:  nonNegative(s.DiverseCandidates),
		TotalCandidates:    nonNegative(s.TotalCandidates),
	}
}

// CandidateToJobRatio возвращает число кандидатов на открытую позицию (0 без позиций)
func (s MetricsSnapshot) CandidateToJobRatio() float64 {
	if s.OpenPositions <= 0 {
		return 0
	}
	return float64(s.ActiveCandidates) / float64(s.OpenPositions)
}

// DiversityRatio возвращает долю diverse-кандидатов; знаменатель не меньше 1
func (s MetricsSnapshot) DiversityRatio() float64 {
	return float64(s.DiverseCandidates) / float64(maxInt(1, s.TotalCandidates))
}

// SanitizeFloat заменяет NaN, бесконечности и отрицательные значения на 0
func SanitizeFloat(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// SanitizeCount превращает произвольное число в неотрицательный счетчик
// (дробная часть отбрасывается)
func SanitizeCount(v float64) int {
	v = SanitizeFloat(v)
	if v >= math.MaxInt32 {
		return math.MaxInt32
	}
	return int(math.Trunc(v))
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
