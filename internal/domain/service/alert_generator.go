package service

import (
	"fmt"

	"github.com/hiresphere/pipeline-health/internal/domain/valueobject"
)

// Быстрые действия, которые понимает dashboard
var (
	actionPostNewJob = valueobject.QuickAction{Label: "Post New Job", Action: "post_new_job"}
	actionRediscover = valueobject.QuickAction{Label: "Activate Candidate Rediscovery", Action: "candidate_rediscovery"}
	actionSourcing   = valueobject.QuickAction{Label: "Broaden Sourcing", Action: "broaden_sourcing"}
	actionReviewJD   = valueobject.QuickAction{Label: "Review Job Descriptions", Action: "review_job_descriptions"}
	actionPipeline   = valueobject.QuickAction{Label: "Review Pipeline Stages", Action: "review_pipeline_stages"}
	actionDiversity  = valueobject.QuickAction{Label: "Diversity Sourcing", Action: "diversity_sourcing"}
)

// DefaultRecommendation выдается, когда ни одно правило не сработало
const DefaultRecommendation = "Pipeline is on track: keep the current sourcing cadence"

// AlertGenerator определяет, какие пороговые условия истинны сейчас (Domain Service).
// Правила проверяются в фиксированном порядке, который задает порядок отображения.
// Генератор не хранит состояния и не помнит ранее выданные alert'ы.
type AlertGenerator struct {
	cfg valueobject.ScoringConfig
}

// NewAlertGenerator создает генератор; при некорректной конфигурации
// используется конфигурация по умолчанию
func NewAlertGenerator(cfg valueobject.ScoringConfig) *AlertGenerator {
	if err := cfg.Validate(); err != nil {
		cfg = valueobject.DefaultScoringConfig()
	}
	return &AlertGenerator{cfg: cfg}
}

// ForResult генерирует alert'ы для готового результата расчета
func (g *AlertGenerator) ForResult(result valueobject.HealthResult) []valueobject.Alert {
	if !result.HasData {
		return []valueobject.Alert{}
	}
	return g.Generate(result.Snapshot, result.SubScores, float64(result.OverallScore), result.Status)
}

// Generate проверяет правила 1..5 и возвращает сработавшие alert'ы
func (g *AlertGenerator) Generate(
	snapshot valueobject.MetricsSnapshot,
	subScores valueobject.SubScores,
	overallScore float64,
	status valueobject.HealthStatus,
) []valueobject.Alert {
	s := snapshot.Normalize()
	alerts := make([]valueobject.Alert, 0, 5)

	if a, ok := g.pipelineHealthAlert(overallScore, status); ok {
		alerts = append(alerts, a)
	}
	if a, ok := g.candidateVolumeAlert(s, subScores); ok {
		alerts = append(alerts, a)
	}
	if a, ok := g.applicationRateAlert(s, subScores); ok {
		alerts = append(alerts, a)
	}
	if a, ok := g.timeToFillAlert(s, subScores); ok {
		alerts = append(alerts, a)
	}
	if a, ok := g.diversityAlert(s, subScores); ok {
		alerts = append(alerts, a)
	}

	return alerts
}

// Recommendations объединяет рекомендации alert'ов без повторов, сохраняя порядок
func (g *AlertGenerator) Recommendations(alerts []valueobject.Alert) []string {
	seen := make(map[string]struct{})
	result := make([]string, 0)
	for _, a := range alerts {
		for _, r := range a.Recommendations {
			if _, ok := seen[r]; ok {
				continue
			}
			seen[r] = struct{}{}
			result = append(result, r)
		}
	}
	if len(result) == 0 {
		result = append(result, DefaultRecommendation)
	}
	return result
}

func (g *AlertGenerator) pipelineHealthAlert(overall float64, status valueobject.HealthStatus) (valueobject.Alert, bool) {
	if status != valueobject.StatusCritical {
		return valueobject.Alert{}, false
	}
	return valueobject.Alert{
		Rule:     valueobject.RulePipelineHealth,
		Severity: valueobject.SeverityCritical,
		Title:    "Pipeline health is critical",
		Message: fmt.Sprintf("Overall pipeline health is %s, below the %s warning threshold",
			FormatHealthScore(overall), FormatHealthScore(g.cfg.Thresholds.Warning)),
		QuickActions: []valueobject.QuickAction{actionPostNewJob, actionRediscover},
		Recommendations: []string{
			"Post new jobs to attract fresh applicants",
			"Activate candidate rediscovery to re-engage past applicants",
		},
	}, true
}

func (g *AlertGenerator) candidateVolumeAlert(s valueobject.MetricsSnapshot, sub valueobject.SubScores) (valueobject.Alert, bool) {
	if s.OpenPositions == 0 {
		return valueobject.Alert{}, false
	}
	ratio := s.CandidateToJobRatio()
	t := g.cfg.Targets

	var severity valueobject.AlertSeverity
	switch {
	case ratio < t.CandidatesPerJobCritical:
		severity = valueobject.SeverityCritical
	case ratio < t.CandidatesPerJobTarget:
		severity = valueobject.SeverityWarning
	default:
		return valueobject.Alert{}, false
	}

	return valueobject.Alert{
		Rule:     valueobject.RuleCandidateVolume,
		Severity: severity,
		Title:    "Candidate shortage for open roles",
		Message: fmt.Sprintf("%.1f active candidates per open position across %d open roles (target %.0f, candidate volume health %d%%)",
			ratio, s.OpenPositions, t.CandidatesPerJobTarget, sub.CandidateVolume),
		QuickActions: []valueobject.QuickAction{actionRediscover, actionSourcing},
		Recommendations: []string{
			"Activate candidate rediscovery to re-engage past applicants",
			"Expand sourcing channels for roles with the fewest candidates",
		},
	}, true
}

func (g *AlertGenerator) applicationRateAlert(s valueobject.MetricsSnapshot, sub valueobject.SubScores) (valueobject.Alert, bool) {
	t := g.cfg.Targets
	weekly := float64(s.WeeklyApplications)

	var severity valueobject.AlertSeverity
	switch {
	case weekly < t.WeeklyApplicationsCritical:
		severity = valueobject.SeverityCritical
	case weekly < t.WeeklyApplicationsTarget:
		severity = valueobject.SeverityWarning
	default:
		return valueobject.Alert{}, false
	}

	return valueobject.Alert{
		Rule:     valueobject.RuleApplicationRate,
		Severity: severity,
		Title:    "Low application rate",
		Message: fmt.Sprintf("%d applications received this week (target %.0f, application rate health %d%%)",
			s.WeeklyApplications, t.WeeklyApplicationsTarget, sub.ApplicationRate),
		QuickActions: []valueobject.QuickAction{actionSourcing, actionReviewJD},
		Recommendations: []string{
			"Broaden sourcing to additional job boards and referrals",
			"Review job descriptions for clarity and appeal",
		},
	}, true
}

func (g *AlertGenerator) timeToFillAlert(s valueobject.MetricsSnapshot, sub valueobject.SubScores) (valueobject.Alert, bool) {
	if s.AvgDaysToFill == 0 {
		return valueobject.Alert{}, false
	}
	t := g.cfg.Targets

	var severity valueobject.AlertSeverity
	switch {
	case s.AvgDaysToFill > t.MaxTimeToFillCritical:
		severity = valueobject.SeverityCritical
	case s.AvgDaysToFill > t.MaxTimeToFillTarget:
		severity = valueobject.SeverityWarning
	default:
		return valueobject.Alert{}, false
	}

	return valueobject.Alert{
		Rule:     valueobject.RuleTimeToFill,
		Severity: severity,
		Title:    "Positions are taking too long to fill",
		Message: fmt.Sprintf("Average time to fill is %.1f days (target %.0f, time to fill health %d%%)",
			s.AvgDaysToFill, t.MaxTimeToFillTarget, sub.TimeToFill),
		QuickActions: []valueobject.QuickAction{actionPipeline},
		Recommendations: []string{
			"Identify stalled pipeline stages and follow up with hiring managers",
			"Shorten interview scheduling turnaround",
		},
	}, true
}

func (g *AlertGenerator) diversityAlert(s valueobject.MetricsSnapshot, sub valueobject.SubScores) (valueobject.Alert, bool) {
	if s.TotalCandidates == 0 {
		return valueobject.Alert{}, false
	}
	ratio := s.DiversityRatio()
	t := g.cfg.Targets

	var severity valueobject.AlertSeverity
	switch {
	case ratio < t.MinDiversityRatioCritical:
		severity = valueobject.SeverityWarning
	case ratio < t.MinDiversityRatioTarget:
		severity = valueobject.SeverityInfo
	default:
		return valueobject.Alert{}, false
	}

	return valueobject.Alert{
		Rule:     valueobject.RuleDiversity,
		Severity: severity,
		Title:    "Candidate pool diversity below target",
		Message: fmt.Sprintf("Diverse candidates make up %s of the pool (target %s, diversity health %d%%)",
			FormatPercentage(ratio), FormatPercentage(t.MinDiversityRatioTarget), sub.DiversityRatio),
		QuickActions: []valueobject.QuickAction{actionDiversity},
		Recommendations: []string{
			"Add diversity-focused sourcing channels and partner organizations",
		},
	}, true
}
