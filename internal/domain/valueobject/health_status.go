package valueobject

import "errors"

// HealthStatus представляет классификацию здоровья воронки найма (Value Object)
type HealthStatus string

const (
	StatusHealthy  HealthStatus = "healthy"
	StatusWarning  HealthStatus = "warning"
	StatusCritical HealthStatus = "critical"
	// StatusNoData используется, когда снимок метрик отсутствует
	StatusNoData HealthStatus = "no_data"
)

// Палитра совпадает с цветами MUI, которые использует dashboard
const (
	colorHealthy  = "#4caf50"
	colorWarning  = "#ff9800"
	colorCritical = "#f44336"
	colorNoData   = "#9e9e9e"
)

// ParseHealthStatus разбирает строковое представление статуса
func ParseHealthStatus(raw string) (HealthStatus, error) {
	status := HealthStatus(raw)
	if err := status.Validate(); err != nil {
		return "", err
	}
	return status, nil
}

// Validate проверяет валидность статуса
func (s HealthStatus) Validate() error {
	switch s {
	case StatusHealthy, StatusWarning, StatusCritical, StatusNoData:
		return nil
	default:
		return errors.New("invalid health status")
	}
}

// Color возвращает цвет для отображения статуса.
// Единственное место, где статус сопоставляется с цветом.
func (s HealthStatus) Color() string {
	switch s {
	case StatusHealthy:
		return colorHealthy
	case StatusWarning:
		return colorWarning
	case StatusCritical:
		return colorCritical
	default:
		return colorNoData
	}
}

// Label возвращает человекочитаемую подпись статуса
func (s HealthStatus) Label() string {
	switch s {
	case StatusHealthy:
		return "Healthy"
	case StatusWarning:
		return "Needs Attention"
	case StatusCritical:
		return "Critical"
	default:
		return "No Data"
	}
}

// String возвращает строковое представление статуса
func (s HealthStatus) String() string {
	return string(s)
}

// AllHealthStatuses возвращает статусы, которые может выдать расчет по данным
func AllHealthStatuses() []HealthStatus {
	return []HealthStatus{StatusHealthy, StatusWarning, StatusCritical}
}
