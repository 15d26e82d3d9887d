package entity

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"time"

	"github.com/hiresphere/pipeline-health/internal/domain/valueobject"
)

// ErrAlertResolved возвращается при попытке подтвердить закрытый alert
var ErrAlertResolved = errors.New("alert already resolved")

// Alert - alert с жизненным циклом подтверждения и закрытия (Entity).
// Идентификатор детерминирован: одно и то же условие всегда дает один id.
type Alert struct {
	id             string
	condition      valueobject.Alert
	acknowledged   bool
	resolved       bool
	firstSeenAt    time.Time
	lastSeenAt     time.Time
	acknowledgedAt *time.Time
	resolvedAt     *time.Time
}

// AlertID вычисляет идентификатор как sha1(rule|severity)
func AlertID(rule valueobject.AlertRule, severity valueobject.AlertSeverity) string {
	sum := sha1.Sum([]byte(string(rule) + "|" + string(severity)))
	return hex.EncodeToString(sum[:])
}

// NewAlert создает открытый alert из сработавшего условия
func NewAlert(condition valueobject.Alert, now time.Time) *Alert {
	return &Alert{
		id:          AlertID(condition.Rule, condition.Severity),
		condition:   condition,
		firstSeenAt: now,
		lastSeenAt:  now,
	}
}

// ReconstructAlert восстанавливает alert из хранилища (для AlertStore)
func ReconstructAlert(
	id string,
	condition valueobject.Alert,
	acknowledged, resolved bool,
	firstSeenAt, lastSeenAt time.Time,
	acknowledgedAt, resolvedAt *time.Time,
) *Alert {
	return &Alert{
		id:             id,
		condition:      condition,
		acknowledged:   acknowledged,
		resolved:       resolved,
		firstSeenAt:    firstSeenAt,
		lastSeenAt:     lastSeenAt,
		acknowledgedAt: acknowledgedAt,
		resolvedAt:     resolvedAt,
	}
}

func (a *Alert) ID() string {
	return a.id
}

func (a *Alert) Condition() valueobject.Alert {
	return a.condition
}

func (a *Alert) Rule() valueobject.AlertRule {
	return a.condition.Rule
}

func (a *Alert) Severity() valueobject.AlertSeverity {
	return a.condition.Severity
}

func (a *Alert) Acknowledged() bool {
	return a.acknowledged
}

func (a *Alert) Resolved() bool {
	return a.resolved
}

func (a *Alert) FirstSeenAt() time.Time {
	return a.firstSeenAt
}

func (a *Alert) LastSeenAt() time.Time {
	return a.lastSeenAt
}

func (a *Alert) AcknowledgedAt() *time.Time {
	return a.acknowledgedAt
}

func (a *Alert) ResolvedAt() *time.Time {
	return a.resolvedAt
}

// Domain Methods

// Acknowledge помечает alert как просмотренный; повторный вызов ничего не меняет
func (a *Alert) Acknowledge(now time.Time) error {
	if a.resolved {
		return ErrAlertResolved
	}
	if a.acknowledged {
		return nil
	}
	a.acknowledged = true
	a.acknowledgedAt = &now
	return nil
}

// Resolve закрывает alert; повторный вызов ничего не меняет
func (a *Alert) Resolve(now time.Time) {
	if a.resolved {
		return
	}
	a.resolved = true
	a.resolvedAt = &now
}

// Refresh обновляет alert свежим срабатыванием условия.
// Закрытый alert, условие которого снова истинно, открывается заново.
func (a *Alert) Refresh(condition valueobject.Alert, now time.Time) {
	a.condition = condition
	a.lastSeenAt = now
	if a.resolved {
		a.resolved = false
		a.resolvedAt = nil
		a.acknowledged = false
		a.acknowledgedAt = nil
		a.firstSeenAt = now
	}
}

// IsOpen сообщает, активен ли alert
func (a *Alert) IsOpen() bool {
	return !a.resolved
}
