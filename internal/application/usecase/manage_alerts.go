package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hiresphere/pipeline-health/internal/application/dto"
	"github.com/hiresphere/pipeline-health/internal/application/port"
	"github.com/hiresphere/pipeline-health/internal/domain/entity"
	"github.com/hiresphere/pipeline-health/internal/domain/valueobject"
	"github.com/hiresphere/pipeline-health/pkg/logger"
)

// SyncResult описывает изменения жизненного цикла после расчета
type SyncResult struct {
	Current  []*entity.Alert
	Opened   []*entity.Alert
	Resolved []*entity.Alert
}

// ManageAlertsUseCase ведет жизненный цикл alert'ов: подтверждение, закрытие
// и синхронизацию с условиями последнего расчета.
// Изменения состояния (чтение, правка, запись) выполняются под mu: расчет по
// расписанию и POST /calculate-health могут идти одновременно.
type ManageAlertsUseCase struct {
	mu     sync.Mutex
	store  port.AlertStore
	logger *logger.Logger
	now    func() time.Time
}

// NewManageAlertsUseCase создает новый use case
func NewManageAlertsUseCase(store port.AlertStore, logger *logger.Logger) *ManageAlertsUseCase {
	return &ManageAlertsUseCase{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// List возвращает сохраненные alert'ы
func (uc *ManageAlertsUseCase) List(ctx context.Context, includeResolved bool) (*dto.AlertListDTO, error) {
	alerts, err := uc.store.FindAll(ctx, includeResolved)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}

	open := 0
	for _, a := range alerts {
		if a.IsOpen() {
			open++
		}
	}

	return &dto.AlertListDTO{
		Alerts: dto.FromAlertEntities(alerts),
		Total:  len(alerts),
		Open:   open,
	}, nil
}

// Acknowledge подтверждает alert
func (uc *ManageAlertsUseCase) Acknowledge(ctx context.Context, id string) (*dto.AlertDTO, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	alert, err := uc.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load alert %s: %w", id, err)
	}

	if err := alert.Acknowledge(uc.now()); err != nil {
		return nil, fmt.Errorf("failed to acknowledge alert %s: %w", id, err)
	}

	if err := uc.store.SaveAll(ctx, []*entity.Alert{alert}); err != nil {
		return nil, fmt.Errorf("failed to save alert %s: %w", id, err)
	}

	uc.logger.Info("Alert acknowledged", "id", id, "rule", alert.Rule())
	result := dto.FromAlertEntity(alert)
	return &result, nil
}

// Resolve закрывает alert вручную
func (uc *ManageAlertsUseCase) Resolve(ctx context.Context, id string) (*dto.AlertDTO, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	alert, err := uc.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load alert %s: %w", id, err)
	}

	alert.Resolve(uc.now())

	if err := uc.store.SaveAll(ctx, []*entity.Alert{alert}); err != nil {
		return nil, fmt.Errorf("failed to save alert %s: %w", id, err)
	}

	uc.logger.Info("Alert resolved", "id", id, "rule", alert.Rule())
	result := dto.FromAlertEntity(alert)
	return &result, nil
}

// Sync применяет условия свежего расчета: новые условия открывают alert'ы,
// повторные обновляют их, а открытые alert'ы без условия закрываются
func (uc *ManageAlertsUseCase) Sync(ctx context.Context, conditions []valueobject.Alert, now time.Time) (*SyncResult, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	open, err := uc.store.FindAll(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to load open alerts: %w", err)
	}

	openByID := make(map[string]*entity.Alert, len(open))
	for _, a := range open {
		openByID[a.ID()] = a
	}

	result := &SyncResult{}
	for _, cond := range conditions {
		id := entity.AlertID(cond.Rule, cond.Severity)

		if existing, ok := openByID[id]; ok {
			existing.Refresh(cond, now)
			delete(openByID, id)
			result.Current = append(result.Current, existing)
			continue
		}

		previous, err := uc.store.FindByID(ctx, id)
		switch {
		case err == nil:
			previous.Refresh(cond, now)
			result.Current = append(result.Current, previous)
			result.Opened = append(result.Opened, previous)
		case errors.Is(err, port.ErrAlertNotFound):
			created := entity.NewAlert(cond, now)
			result.Current = append(result.Current, created)
			result.Opened = append(result.Opened, created)
		default:
			return nil, fmt.Errorf("failed to load alert %s: %w", id, err)
		}
	}

	for _, stale := range open {
		if _, ok := openByID[stale.ID()]; !ok {
			continue
		}
		stale.Resolve(now)
		result.Resolved = append(result.Resolved, stale)
	}

	changed := make([]*entity.Alert, 0, len(result.Current)+len(result.Resolved))
	changed = append(changed, result.Current...)
	changed = append(changed, result.Resolved...)
	if len(changed) > 0 {
		if err := uc.store.SaveAll(ctx, changed); err != nil {
			return nil, fmt.Errorf("failed to save alerts: %w", err)
		}
	}

	uc.logger.Debug("Alerts synchronized",
		"current", len(result.Current),
		"opened", len(result.Opened),
		"resolved", len(result.Resolved))

	return result, nil
}

// Decorate добавляет к условиям сохраненное состояние подтверждения.
// Порядок условий сохраняется; ошибки хранилища не мешают ответу.
func (uc *ManageAlertsUseCase) Decorate(ctx context.Context, conditions []valueobject.Alert) []dto.AlertDTO {
	result := make([]dto.AlertDTO, 0, len(conditions))
	for _, cond := range conditions {
		stored, err := uc.store.FindByID(ctx, entity.AlertID(cond.Rule, cond.Severity))
		if err != nil {
			if !errors.Is(err, port.ErrAlertNotFound) {
				uc.logger.Warn("Failed to load alert state", "rule", cond.Rule, "error", err.Error())
			}
			result = append(result, dto.FromCondition(cond))
			continue
		}
		result = append(result, dto.FromAlertEntity(stored))
	}
	return result
}
