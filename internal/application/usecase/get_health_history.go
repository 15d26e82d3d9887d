package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/hiresphere/pipeline-health/internal/application/dto"
	"github.com/hiresphere/pipeline-health/internal/application/port"
	"github.com/hiresphere/pipeline-health/internal/domain/repository"
	"github.com/hiresphere/pipeline-health/internal/domain/service"
	"github.com/hiresphere/pipeline-health/internal/domain/valueobject"
	"github.com/hiresphere/pipeline-health/pkg/logger"
)

// GetHealthHistoryUseCase возвращает историю оценок с агрегатами и кешированием
type GetHealthHistoryUseCase struct {
	repository  repository.HealthRecordRepository
	aggregator  *service.HealthAggregator
	cache       port.Cache
	maxDuration time.Duration
	logger      *logger.Logger
	now         func() time.Time
}

// NewGetHealthHistoryUseCase создает новый use case
func NewGetHealthHistoryUseCase(
	repository repository.HealthRecordRepository,
	aggregator *service.HealthAggregator,
	cache port.Cache,
	maxDuration time.Duration,
	logger *logger.Logger,
) *GetHealthHistoryUseCase {
	return &GetHealthHistoryUseCase{
		repository:  repository,
		aggregator:  aggregator,
		cache:       cache,
		maxDuration: maxDuration,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Execute возвращает оценки за последние duration (не более maxDuration)
func (uc *GetHealthHistoryUseCase) Execute(ctx context.Context, duration time.Duration) (*dto.HealthHistoryDTO, error) {
	timeRange, err := valueobject.LastWindow(uc.now(), duration, uc.maxDuration)
	if err != nil {
		return nil, fmt.Errorf("invalid history window: %w", err)
	}

	cacheKey := historyCacheKey(timeRange.Duration().String())
	if uc.cache != nil {
		var cached dto.HealthHistoryDTO
		if err := uc.cache.Get(ctx, cacheKey, &cached); err == nil {
			uc.logger.Debug("Cache hit for health history", "duration", timeRange.Duration().String())
			return &cached, nil
		}
	}

	records, err := uc.repository.FindByTimeRange(ctx, timeRange)
	if err != nil {
		uc.logger.Error("Failed to fetch health history", err)
		return nil, fmt.Errorf("failed to fetch health history: %w", err)
	}

	sorted := uc.aggregator.SortByTime(records, false)
	history := dto.NewHealthHistoryDTO(timeRange.Start(), timeRange.End(), sorted, uc.aggregator.Summarize(sorted))

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, cacheKey, history); err != nil {
			uc.logger.Warn("Failed to cache health history", "error", err.Error())
		}
	}

	return history, nil
}
