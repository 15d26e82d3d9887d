package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hiresphere/pipeline-health/internal/application/dto"
	"github.com/hiresphere/pipeline-health/internal/application/port"
	"github.com/hiresphere/pipeline-health/internal/domain/entity"
	"github.com/hiresphere/pipeline-health/internal/domain/repository"
	"github.com/hiresphere/pipeline-health/internal/domain/service"
	"github.com/hiresphere/pipeline-health/pkg/logger"
)

// reportURLTTL - срок жизни ссылки на архивный отчет
const reportURLTTL = 15 * time.Minute

// CalculateHealthUseCase пересчитывает здоровье воронки и сохраняет результат.
// Ошибки источника и репозитория прерывают расчет, ошибки остальных
// получателей (кеш, события, метрики, архив) только логируются.
type CalculateHealthUseCase struct {
	source     port.SnapshotSource
	repository repository.HealthRecordRepository
	calculator *service.MetricsCalculator
	generator  *service.AlertGenerator
	logger     *logger.Logger

	alerts     *ManageAlertsUseCase
	cache      port.Cache
	events     port.EventPublisher
	publishers []port.MetricsPublisher
	archive    port.ReportArchive
	now        func() time.Time
}

// NewCalculateHealthUseCase создает новый use case
func NewCalculateHealthUseCase(
	source port.SnapshotSource,
	repository repository.HealthRecordRepository,
	calculator *service.MetricsCalculator,
	generator *service.AlertGenerator,
	logger *logger.Logger,
) *CalculateHealthUseCase {
	return &CalculateHealthUseCase{
		source:     source,
		repository: repository,
		calculator: calculator,
		generator:  generator,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithAlerts подключает жизненный цикл alert'ов
func (uc *CalculateHealthUseCase) WithAlerts(alerts *ManageAlertsUseCase) *CalculateHealthUseCase {
	uc.alerts = alerts
	return uc
}

// WithCache подключает кеш ответа /pipeline-health
func (uc *CalculateHealthUseCase) WithCache(cache port.Cache) *CalculateHealthUseCase {
	uc.cache = cache
	return uc
}

// WithEvents подключает публикацию событий
func (uc *CalculateHealthUseCase) WithEvents(events port.EventPublisher) *CalculateHealthUseCase {
	uc.events = events
	return uc
}

// WithMetricsPublishers подключает экспорт метрик
func (uc *CalculateHealthUseCase) WithMetricsPublishers(publishers ...port.MetricsPublisher) *CalculateHealthUseCase {
	uc.publishers = append(uc.publishers, publishers...)
	return uc
}

// WithArchive подключает архив отчетов
func (uc *CalculateHealthUseCase) WithArchive(archive port.ReportArchive) *CalculateHealthUseCase {
	uc.archive = archive
	return uc
}

// WithClock подменяет источник времени (для тестов)
func (uc *CalculateHealthUseCase) WithClock(now func() time.Time) *CalculateHealthUseCase {
	uc.now = now
	return uc
}

// Execute выполняет расчет
func (uc *CalculateHealthUseCase) Execute(ctx context.Context) (*dto.CalculationDTO, error) {
	computedAt := uc.now()

	// 1. Получаем сырые показатели
	snapshot, err := uc.source.Fetch(ctx, computedAt)
	if err != nil {
		uc.logger.Error("Failed to fetch pipeline snapshot", err)
		return nil, fmt.Errorf("failed to fetch pipeline snapshot: %w", err)
	}
	if snapshot == nil {
		return nil, ErrNoData
	}

	// 2. Считаем оценку и условия alert'ов
	result := uc.calculator.Calculate(snapshot)
	conditions := uc.generator.ForResult(result)

	// 3. Сохраняем оценку
	record := entity.NewHealthRecord(result, len(conditions), computedAt)
	if err := uc.repository.Save(ctx, record); err != nil {
		uc.logger.Error("Failed to save health record", err)
		return nil, fmt.Errorf("failed to save health record: %w", err)
	}

	// 4. Синхронизируем жизненный цикл alert'ов
	alertDTOs := dto.FromConditions(conditions)
	var sync *SyncResult
	if uc.alerts != nil {
		sync, err = uc.alerts.Sync(ctx, conditions, computedAt)
		if err != nil {
			uc.logger.Warn("Failed to synchronize alerts", "error", err.Error())
		} else {
			alertDTOs = dto.FromAlertEntities(sync.Current)
		}
	}

	payload := dto.NewPipelineHealthDTO(result, alertDTOs, uc.generator.Recommendations(conditions))
	payload.RecordID = record.ID()
	payload.ComputedAt = &computedAt

	// 5. Обновляем кеш
	uc.refreshCache(ctx, payload)

	// 6. Публикуем события и метрики
	uc.publishEvents(ctx, record, sync)
	for _, p := range uc.publishers {
		if err := p.PublishHealth(ctx, result, len(conditions), computedAt); err != nil {
			uc.logger.Warn("Failed to publish health metrics", "error", err.Error())
		}
	}

	// 7. Архивируем отчет
	response := dto.NewCalculationDTO(record)
	uc.archiveReport(ctx, record, payload, response)

	uc.logger.Info("Pipeline health calculated",
		"record_id", record.ID(),
		"score", result.OverallScore,
		"raw_score", result.RawScore,
		"status", result.Status.String(),
		"alerts", len(conditions))

	return response, nil
}

func (uc *CalculateHealthUseCase) refreshCache(ctx context.Context, payload *dto.PipelineHealthDTO) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.DeletePattern(ctx, cacheKeyPattern); err != nil {
		uc.logger.Warn("Failed to invalidate health cache", "error", err.Error())
	}
	if err := uc.cache.Set(ctx, cacheKeyLatest, payload); err != nil {
		uc.logger.Warn("Failed to cache pipeline health", "error", err.Error())
	}
}

func (uc *CalculateHealthUseCase) publishEvents(ctx context.Context, record *entity.HealthRecord, sync *SyncResult) {
	if uc.events == nil {
		return
	}

	event := dto.HealthCalculatedEvent{
		RecordID:    record.ID(),
		HealthScore: record.OverallScore(),
		RawScore:    record.RawScore(),
		Status:      record.Status().String(),
		AlertCount:  record.AlertCount(),
		ComputedAt:  record.ComputedAt(),
	}
	if err := uc.events.PublishEvent(ctx, port.SubjectHealthCalculated, event); err != nil {
		uc.logger.Warn("Failed to publish health event", "error", err.Error())
	}

	if sync == nil {
		return
	}
	publishAlerts := func(subject string, alerts []*entity.Alert) {
		for _, a := range alerts {
			evt := dto.AlertEvent{
				Alert:      dto.FromAlertEntity(a),
				RecordID:   record.ID(),
				OccurredAt: record.ComputedAt(),
			}
			if err := uc.events.PublishEvent(ctx, subject, evt); err != nil {
				uc.logger.Warn("Failed to publish alert event", "subject", subject, "error", err.Error())
			}
		}
	}
	publishAlerts(port.SubjectAlertOpened, sync.Opened)
	publishAlerts(port.SubjectAlertResolved, sync.Resolved)
}

func (uc *CalculateHealthUseCase) archiveReport(
	ctx context.Context,
	record *entity.HealthRecord,
	payload *dto.PipelineHealthDTO,
	response *dto.CalculationDTO,
) {
	if uc.archive == nil {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		uc.logger.Warn("Failed to encode health report", "error", err.Error())
		return
	}

	key, err := uc.archive.Archive(ctx, record.ID(), record.ComputedAt(), body)
	if err != nil {
		uc.logger.Warn("Failed to archive health report", "error", err.Error())
		return
	}
	response.ReportKey = key

	url, err := uc.archive.PresignURL(ctx, key, reportURLTTL)
	if err != nil {
		uc.logger.Warn("Failed to presign health report", "key", key, "error", err.Error())
		return
	}
	response.ReportURL = url
}
