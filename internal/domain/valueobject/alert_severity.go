package valueobject

import "errors"

// AlertSeverity представляет уровень важности alert'а (Value Object)
type AlertSeverity string

const (
	SeverityCritical AlertSeverity = "critical"
	SeverityWarning  AlertSeverity = "warning"
	SeverityInfo     AlertSeverity = "info"
)

// Validate проверяет валидность уровня
func (s AlertSeverity) Validate() error {
	switch s {
	case SeverityCritical, SeverityWarning, SeverityInfo:
		return nil
	default:
		return errors.New("invalid alert severity")
	}
}

// Rank возвращает вес уровня: чем больше, тем важнее
func (s AlertSeverity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

func (s AlertSeverity) String() string {
	return string(s)
}
