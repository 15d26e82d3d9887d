package dto

import "time"

// ConsistencyReportDTO - результат сверки локального и серверного расчета
type ConsistencyReportDTO struct {
	Consistent  bool      `json:"consistent"`
	Issues      []string  `json:"issues"`
	HealthScore float64   `json:"healthScore"`
	Status      string    `json:"status"`
	CheckedAt   time.Time `json:"checkedAt"`
}
