package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/hiresphere/pipeline-health/internal/application/dto"
	"github.com/hiresphere/pipeline-health/internal/application/port"
	"github.com/hiresphere/pipeline-health/internal/domain/service"
	"github.com/hiresphere/pipeline-health/pkg/logger"
)

// CheckConsistencyUseCase получает серверную оценку, пересчитывает ее локально
// и сообщает о расхождениях. Расхождение не считается ошибкой.
type CheckConsistencyUseCase struct {
	api       port.HealthAPI
	validator *service.ConsistencyValidator
	recorder  port.DivergenceRecorder
	logger    *logger.Logger
	now       func() time.Time
}

// NewCheckConsistencyUseCase создает новый use case; recorder может быть nil
func NewCheckConsistencyUseCase(
	api port.HealthAPI,
	validator *service.ConsistencyValidator,
	recorder port.DivergenceRecorder,
	logger *logger.Logger,
) *CheckConsistencyUseCase {
	return &CheckConsistencyUseCase{
		api:       api,
		validator: validator,
		recorder:  recorder,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Execute сверяет текущую серверную оценку
func (uc *CheckConsistencyUseCase) Execute(ctx context.Context) (*dto.ConsistencyReportDTO, error) {
	payload, err := uc.api.FetchHealth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pipeline health: %w", err)
	}

	issues := uc.validator.Validate(payload.Reported(), payload.Snapshot())
	if uc.recorder != nil {
		uc.recorder.RecordConsistencyCheck(issues)
	}

	if len(issues) > 0 {
		uc.logger.Warn("Pipeline health calculation diverges from server",
			"record_id", payload.RecordID,
			"issues", issues)
	} else {
		uc.logger.Debug("Pipeline health is consistent with server",
			"score", payload.HealthScore,
			"status", payload.Status)
	}

	return &dto.ConsistencyReportDTO{
		Consistent:  len(issues) == 0,
		Issues:      issues,
		HealthScore: payload.HealthScore,
		Status:      payload.Status,
		CheckedAt:   uc.now(),
	}, nil
}

// RecalculateAndCheck запускает пересчет на сервере и затем сверяет результат
func (uc *CheckConsistencyUseCase) RecalculateAndCheck(ctx context.Context) (*dto.ConsistencyReportDTO, error) {
	calc, err := uc.api.TriggerCalculation(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to trigger calculation: %w", err)
	}

	uc.logger.Info("Server recalculated pipeline health",
		"record_id", calc.RecordID,
		"score", calc.HealthScore)

	return uc.Execute(ctx)
}
