package service

import (
	"math"
	"strconv"
)

// roundHalfUp округляет к ближайшему целому, половины - вверх.
// Значения за пределами int насыщаются до math.MaxInt/math.MinInt.
func roundHalfUp(x float64) int {
	if math.IsNaN(x) {
		return 0
	}
	r := math.Floor(x + 0.5)
	if r >= math.MaxInt {
		return math.MaxInt
	}
	if r <= math.MinInt {
		return math.MinInt
	}
	return int(r)
}

// percentScore переводит долю от цели (в процентах) в под-метрику 0..100.
// Ограничение делается до перевода в int, поэтому огромные входы дают 100.
func percentScore(x float64) int {
	return roundHalfUp(clampPercentFloat(x))
}

// formatRounded печатает округленное значение без перевода в int
func formatRounded(x float64) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return "0"
	}
	return strconv.FormatFloat(math.Floor(x+0.5), 'f', 0, 64)
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func clampPercentFloat(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
