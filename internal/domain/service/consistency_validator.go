package service

import (
	"fmt"
	"strconv"

	"github.com/hiresphere/pipeline-health/internal/domain/valueobject"
)

// Имена полей в описаниях расхождений
const (
	FieldHealthScore     = "Health Score"
	FieldStatus          = "Status"
	FieldCandidateVolume = "Candidate Volume Health"
	FieldApplicationRate = "Application Rate Health"
	FieldTimeToFill      = "Time To Fill Health"
	FieldDiversity       = "Diversity Health"
)

// ReportedHealth - значения, которые сервер вернул для снимка
type ReportedHealth struct {
	HealthScore           float64
	Status                string
	CandidateVolumeHealth float64
	ApplicationRateHealth float64
	TimeToFillHealth      float64
	DiversityHealth       float64
}

// ReportedFromResult строит ReportedHealth из результата расчета
func ReportedFromResult(r valueobject.HealthResult) ReportedHealth {
	return ReportedHealth{
		HealthScore:           float64(r.OverallScore),
		Status:                r.Status.String(),
		CandidateVolumeHealth: float64(r.SubScores.CandidateVolume),
		ApplicationRateHealth: float64(r.SubScores.ApplicationRate),
		TimeToFillHealth:      float64(r.SubScores.TimeToFill),
		DiversityHealth:       float64(r.SubScores.DiversityRatio),
	}
}

// ConsistencyValidator пересчитывает оценку локально и сравнивает ее с серверной (Domain Service).
// Сравнение идет с точностью отображения: округленный балл, статус и целые под-метрики.
// Расхождения возвращаются списком и никогда не считаются ошибкой.
type ConsistencyValidator struct {
	calculator *MetricsCalculator
}

// NewConsistencyValidator создает валидатор поверх калькулятора
func NewConsistencyValidator(calculator *MetricsCalculator) *ConsistencyValidator {
	return &ConsistencyValidator{calculator: calculator}
}

// Validate возвращает описания вида "<Field>: Frontend <X> vs Backend <Y>".
// Пустой список означает согласованность.
func (v *ConsistencyValidator) Validate(server ReportedHealth, snapshot *valueobject.MetricsSnapshot) []string {
	local := v.calculator.Calculate(snapshot)
	issues := make([]string, 0)

	compareNumber := func(field string, frontend int, backend float64) {
		if float64(frontend) != backend {
			issues = append(issues, describe(field, strconv.Itoa(frontend), formatNumber(backend)))
		}
	}

	compareNumber(FieldHealthScore, local.OverallScore, server.HealthScore)
	if local.Status.String() != server.Status {
		issues = append(issues, describe(FieldStatus, local.Status.String(), server.Status))
	}

	// Для "no data" под-метрики не определены, сравнивать нечего
	if !local.HasData {
		return issues
	}

	compareNumber(FieldCandidateVolume, local.SubScores.CandidateVolume, server.CandidateVolumeHealth)
	compareNumber(FieldApplicationRate, local.SubScores.ApplicationRate, server.ApplicationRateHealth)
	compareNumber(FieldTimeToFill, local.SubScores.TimeToFill, server.TimeToFillHealth)
	compareNumber(FieldDiversity, local.SubScores.DiversityRatio, server.DiversityHealth)

	return issues
}

func describe(field, frontend, backend string) string {
	return fmt.Sprintf("%s: Frontend %s vs Backend %s", field, frontend, backend)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
