package valueobject

// HealthResult - результат расчета здоровья воронки (Value Object).
// Пересчитывается при каждом вызове, изменяемого состояния не содержит.
type HealthResult struct {
	HasData   bool
	Snapshot  MetricsSnapshot
	SubScores SubScores
	// RawScore - взвешенная сумма до округления
	RawScore float64
	// OverallScore - RawScore, округленный для отображения; статус считается по нему
	OverallScore int
	Status       HealthStatus
	Color        string
	Label        string

	CandidateToJobRatio float64
	DiversityRatio      float64
}

// NoDataResult возвращает результат для отсутствующего снимка
func NoDataResult() HealthResult {
	return HealthResult{
		HasData: false,
		Status:  StatusNoData,
		Color:   StatusNoData.Color(),
		Label:   StatusNoData.Label(),
	}
}
