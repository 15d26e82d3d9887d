package dto

import "time"

// HealthCalculatedEvent публикуется после каждого расчета
type HealthCalculatedEvent struct {
	RecordID    string    `json:"recordId"`
	HealthScore int       `json:"healthScore"`
	RawScore    float64   `json:"rawScore"`
	Status      string    `json:"status"`
	AlertCount  int       `json:"alertCount"`
	ComputedAt  time.Time `json:"computedAt"`
}

// AlertEvent публикуется при открытии и закрытии alert'а
type AlertEvent struct {
	Alert      AlertDTO  `json:"alert"`
	RecordID   string    `json:"recordId"`
	OccurredAt time.Time `json:"occurredAt"`
}
