package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hiresphere/pipeline-health/internal/domain/entity"
	"github.com/hiresphere/pipeline-health/internal/domain/valueobject"
)

// ErrNotFound возвращается, когда запись отсутствует
var ErrNotFound = errors.New("health record not found")

// HealthRecordRepository определяет интерфейс хранилища оценок здоровья (Port)
// Реализация будет в Infrastructure слое
type HealthRecordRepository interface {
	// Save сохраняет оценку
	Save(ctx context.Context, record *entity.HealthRecord) error

	// FindLatest возвращает последнюю оценку или ErrNotFound
	FindLatest(ctx context.Context) (*entity.HealthRecord, error)

	// FindByID находит оценку по идентификатору
	FindByID(ctx context.Context, id string) (*entity.HealthRecord, error)

	// FindByTimeRange возвращает оценки за период по возрастанию времени
	FindByTimeRange(ctx context.Context, timeRange valueobject.TimeRange) ([]*entity.HealthRecord, error)

	// DeleteOlderThan удаляет оценки старше указанного момента и возвращает их количество
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
