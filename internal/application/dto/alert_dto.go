package dto

import (
	"time"

	"github.com/hiresphere/pipeline-health/internal/domain/entity"
	"github.com/hiresphere/pipeline-health/internal/domain/valueobject"
)

// QuickActionDTO - быстрое действие alert'а
type QuickActionDTO struct {
	Label  string `json:"label"`
	Action string `json:"action"`
}

// AlertDTO - alert в ответах API
type AlertDTO struct {
	ID              string           `json:"_id"`
	Rule            string           `json:"rule"`
	Severity        string           `json:"severity"`
	Title           string           `json:"title"`
	Message         string           `json:"message"`
	QuickActions    []QuickActionDTO `json:"quickActions"`
	Recommendations []string         `json:"recommendations"`
	Acknowledged    bool             `json:"acknowledged"`
	Resolved        bool             `json:"resolved"`
	FirstSeenAt     *time.Time       `json:"firstSeenAt,omitempty"`
	LastSeenAt      *time.Time       `json:"lastSeenAt,omitempty"`
	AcknowledgedAt  *time.Time       `json:"acknowledgedAt,omitempty"`
	ResolvedAt      *time.Time       `json:"resolvedAt,omitempty"`
}

// FromCondition конвертирует сработавшее условие без состояния жизненного цикла
func FromCondition(a valueobject.Alert) AlertDTO {
	actions := make([]QuickActionDTO, 0, len(a.QuickActions))
	for _, qa := range a.QuickActions {
		actions = append(actions, QuickActionDTO{Label: qa.Label, Action: qa.Action})
	}
	recs := make([]string, len(a.Recommendations))
	copy(recs, a.Recommendations)

	return AlertDTO{
		ID:              entity.AlertID(a.Rule, a.Severity),
		Rule:            string(a.Rule),
		Severity:        a.Severity.String(),
		Title:           a.Title,
		Message:         a.Message,
		QuickActions:    actions,
		Recommendations: recs,
	}
}

// FromConditions конвертирует список условий, сохраняя порядок
func FromConditions(alerts []valueobject.Alert) []AlertDTO {
	result := make([]AlertDTO, 0, len(alerts))
	for _, a := range alerts {
		result = append(result, FromCondition(a))
	}
	return result
}

// FromAlertEntity конвертирует alert с состоянием жизненного цикла
func FromAlertEntity(a *entity.Alert) AlertDTO {
	d := FromCondition(a.Condition())
	d.ID = a.ID()
	d.Acknowledged = a.Acknowledged()
	d.Resolved = a.Resolved()
	firstSeen, lastSeen := a.FirstSeenAt(), a.LastSeenAt()
	d.FirstSeenAt = &firstSeen
	d.LastSeenAt = &lastSeen
	d.AcknowledgedAt = a.AcknowledgedAt()
	d.ResolvedAt = a.ResolvedAt()
	return d
}

// FromAlertEntities конвертирует список alert'ов
func FromAlertEntities(alerts []*entity.Alert) []AlertDTO {
	result := make([]AlertDTO, 0, len(alerts))
	for _, a := range alerts {
		result = append(result, FromAlertEntity(a))
	}
	return result
}

// AlertListDTO - ответ GET /api/v1/alerts
type AlertListDTO struct {
	Alerts []AlertDTO `json:"alerts"`
	Total  int        `json:"total"`
	Open   int        `json:"open"`
}
