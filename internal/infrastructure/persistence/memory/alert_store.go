package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hiresphere/pipeline-health/internal/application/port"
	"github.com/hiresphere/pipeline-health/internal/domain/entity"
)

// AlertStore - in-memory реализация port.AlertStore для запуска без DynamoDB.
// Состояние теряется при перезапуске процесса.
type AlertStore struct {
	mu     sync.RWMutex
	alerts map[string]*entity.Alert
}

// NewAlertStore создает пустое хранилище
func NewAlertStore() *AlertStore {
	return &AlertStore{
		alerts: make(map[string]*entity.Alert),
	}
}

// SaveAll сохраняет alert'ы по id (upsert)
func (s *AlertStore) SaveAll(_ context.Context, alerts []*entity.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, alert := range alerts {
		s.alerts[alert.ID()] = clone(alert)
	}
	return nil
}

// FindByID возвращает копию alert'а или port.ErrAlertNotFound
func (s *AlertStore) FindByID(_ context.Context, id string) (*entity.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	alert, ok := s.alerts[id]
	if !ok {
		return nil, port.ErrAlertNotFound
	}
	return clone(alert), nil
}

// FindAll возвращает alert'ы от новых к старым
func (s *AlertStore) FindAll(_ context.Context, includeResolved bool) ([]*entity.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*entity.Alert, 0, len(s.alerts))
	for _, alert := range s.alerts {
		if alert.Resolved() && !includeResolved {
			continue
		}
		result = append(result, clone(alert))
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].LastSeenAt().Equal(result[j].LastSeenAt()) {
			return result[i].ID() < result[j].ID()
		}
		return result[i].LastSeenAt().After(result[j].LastSeenAt())
	})

	return result, nil
}

// clone отвязывает сохраненное состояние от указателя вызывающего кода
func clone(a *entity.Alert) *entity.Alert {
	return entity.ReconstructAlert(
		a.ID(),
		a.Condition(),
		a.Acknowledged(),
		a.Resolved(),
		a.FirstSeenAt(),
		a.LastSeenAt(),
		copyTime(a.AcknowledgedAt()),
		copyTime(a.ResolvedAt()),
	)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
