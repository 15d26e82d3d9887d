package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/hiresphere/pipeline-health/internal/application/dto"
	"github.com/hiresphere/pipeline-health/internal/application/port"
	"github.com/hiresphere/pipeline-health/internal/domain/repository"
	"github.com/hiresphere/pipeline-health/internal/domain/service"
	"github.com/hiresphere/pipeline-health/pkg/logger"
)

// GetPipelineHealthUseCase возвращает последнюю оценку здоровья с кешированием
type GetPipelineHealthUseCase struct {
	repository repository.HealthRecordRepository
	calculator *service.MetricsCalculator
	generator  *service.AlertGenerator
	alerts     *ManageAlertsUseCase
	cache      port.Cache
	logger     *logger.Logger
}

// NewGetPipelineHealthUseCase создает новый use case; alerts и cache могут быть nil
func NewGetPipelineHealthUseCase(
	repository repository.HealthRecordRepository,
	calculator *service.MetricsCalculator,
	generator *service.AlertGenerator,
	alerts *ManageAlertsUseCase,
	cache port.Cache,
	logger *logger.Logger,
) *GetPipelineHealthUseCase {
	return &GetPipelineHealthUseCase{
		repository: repository,
		calculator: calculator,
		generator:  generator,
		alerts:     alerts,
		cache:      cache,
		logger:     logger,
	}
}

// Execute возвращает ответ /pipeline-health. Без сохраненных оценок
// возвращается ответ со статусом "no_data", а не ошибка.
func (uc *GetPipelineHealthUseCase) Execute(ctx context.Context) (*dto.PipelineHealthDTO, error) {
	if uc.cache != nil {
		var cached dto.PipelineHealthDTO
		err := uc.cache.Get(ctx, cacheKeyLatest, &cached)
		if err == nil {
			uc.logger.Debug("Cache hit for pipeline health", "record_id", cached.RecordID)
			return &cached, nil
		}
		if !errors.Is(err, port.ErrCacheMiss) {
			uc.logger.Warn("Failed to read pipeline health cache", "error", err.Error())
		}
	}

	record, err := uc.repository.FindLatest(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		uc.logger.Debug("No health records yet")
		return dto.NewPipelineHealthDTO(uc.calculator.Calculate(nil), nil, nil), nil
	}
	if err != nil {
		uc.logger.Error("Failed to fetch latest health record", err)
		return nil, fmt.Errorf("failed to fetch latest health record: %w", err)
	}

	result := record.Result()
	conditions := uc.generator.ForResult(result)

	var alerts []dto.AlertDTO
	if uc.alerts != nil {
		alerts = uc.alerts.Decorate(ctx, conditions)
	} else {
		alerts = dto.FromConditions(conditions)
	}

	payload := dto.NewPipelineHealthDTO(result, alerts, uc.generator.Recommendations(conditions))
	payload.RecordID = record.ID()
	computedAt := record.ComputedAt()
	payload.ComputedAt = &computedAt

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, cacheKeyLatest, payload); err != nil {
			uc.logger.Warn("Failed to cache pipeline health", "error", err.Error())
		}
	}

	return payload, nil
}
