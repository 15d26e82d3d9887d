package port

import (
	"context"
	"errors"

	"github.com/hiresphere/pipeline-health/internal/domain/entity"
)

// ErrAlertNotFound is returned when no alert has the requested id
var ErrAlertNotFound = errors.New("alert not found")

// AlertStore persists alert lifecycle state (acknowledged/resolved flags).
type AlertStore interface {
	// SaveAll upserts alerts by id
	SaveAll(ctx context.Context, alerts []*entity.Alert) error

	// FindByID returns ErrAlertNotFound when the id is unknown
	FindByID(ctx context.Context, id string) (*entity.Alert, error)

	// FindAll lists alerts, newest first; resolved ones only when includeResolved is set
	FindAll(ctx context.Context, includeResolved bool) ([]*entity.Alert, error)
}
