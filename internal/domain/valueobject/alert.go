package valueobject

// AlertRule идентифицирует правило, породившее alert
type AlertRule string

const (
	RulePipelineHealth  AlertRule = "pipeline_health"
	RuleCandidateVolume AlertRule = "candidate_volume"
	RuleApplicationRate AlertRule = "application_rate"
	RuleTimeToFill      AlertRule = "time_to_fill"
	RuleDiversity       AlertRule = "diversity"
)

// QuickAction - действие, которое dashboard предлагает выполнить по alert'у
type QuickAction struct {
	Label  string
	Action string
}

// Alert - условие, истинное в момент расчета (Value Object).
// Не содержит состояния подтверждения: это ответственность entity.Alert.
type Alert struct {
	Rule            AlertRule
	Severity        AlertSeverity
	Title           string
	Message         string
	QuickActions    []QuickAction
	Recommendations []string
}

// Equals сравнивает два alert'а по содержимому
func (a Alert) Equals(other Alert) bool {
	if a.Rule != other.Rule || a.Severity != other.Severity ||
		a.Title != other.Title || a.Message != other.Message {
		return false
	}
	if len(a.QuickActions) != len(other.QuickActions) || len(a.Recommendations) != len(other.Recommendations) {
		return false
	}
	for i := range a.QuickActions {
		if a.QuickActions[i] != other.QuickActions[i] {
			return false
		}
	}
	for i := range a.Recommendations {
		if a.Recommendations[i] != other.Recommendations[i] {
			return false
		}
	}
	return true
}
