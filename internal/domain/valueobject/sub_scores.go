package valueobject

// SubScores содержит четыре нормализованные под-метрики в процентах [0,100]
type SubScores struct {
	CandidateVolume int
	ApplicationRate int
	TimeToFill      int
	DiversityRatio  int
}

// Values возвращает под-метрики в фиксированном порядке
func (s SubScores) Values() []int {
	return []int{s.CandidateVolume, s.ApplicationRate, s.TimeToFill, s.DiversityRatio}
}

// Min возвращает наименьшую под-метрику
func (s SubScores) Min() int {
	values := s.Values()
	min := values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

// Max возвращает наибольшую под-метрику
func (s SubScores) Max() int {
	values := s.Values()
	max := values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

// Weighted возвращает взвешенную сумму без округления
func (s SubScores) Weighted(w ScoringWeights) float64 {
	return float64(s.CandidateVolume)*w.CandidateVolume +
		float64(s.ApplicationRate)*w.ApplicationRate +
		float64(s.TimeToFill)*w.TimeToFill +
		float64(s.DiversityRatio)*w.DiversityRatio
}
