package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/hiresphere/pipeline-health/internal/domain/repository"
	"github.com/hiresphere/pipeline-health/pkg/logger"
)

// PurgeHistoryUseCase удаляет оценки старше срока хранения
type PurgeHistoryUseCase struct {
	repository repository.HealthRecordRepository
	retention  time.Duration
	logger     *logger.Logger
}

// NewPurgeHistoryUseCase создает новый use case
func NewPurgeHistoryUseCase(
	repository repository.HealthRecordRepository,
	retention time.Duration,
	logger *logger.Logger,
) *PurgeHistoryUseCase {
	return &PurgeHistoryUseCase{
		repository: repository,
		retention:  retention,
		logger:     logger,
	}
}

// Execute удаляет записи старше now - retention и возвращает их количество
func (uc *PurgeHistoryUseCase) Execute(ctx context.Context, now time.Time) (int64, error) {
	if uc.retention <= 0 {
		return 0, nil
	}

	cutoff := now.Add(-uc.retention)
	deleted, err := uc.repository.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge health history: %w", err)
	}

	if deleted > 0 {
		uc.logger.Info("Purged old health records", "deleted", deleted, "cutoff", cutoff)
	}
	return deleted, nil
}
