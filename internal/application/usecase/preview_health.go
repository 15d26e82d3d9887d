package usecase

import (
	"github.com/hiresphere/pipeline-health/internal/application/dto"
	"github.com/hiresphere/pipeline-health/internal/domain/service"
	"github.com/hiresphere/pipeline-health/pkg/logger"
)

// PreviewHealthUseCase считает оценку для присланного снимка без сохранения
type PreviewHealthUseCase struct {
	calculator *service.MetricsCalculator
	generator  *service.AlertGenerator
	logger     *logger.Logger
}

// NewPreviewHealthUseCase создает новый use case
func NewPreviewHealthUseCase(
	calculator *service.MetricsCalculator,
	generator *service.AlertGenerator,
	logger *logger.Logger,
) *PreviewHealthUseCase {
	return &PreviewHealthUseCase{
		calculator: calculator,
		generator:  generator,
		logger:     logger,
	}
}

// Execute нормализует ввод и возвращает оценку с alert'ами
func (uc *PreviewHealthUseCase) Execute(input *dto.SnapshotInput) *dto.PipelineHealthDTO {
	result := uc.calculator.Calculate(input.ToSnapshot())
	conditions := uc.generator.ForResult(result)

	uc.logger.Debug("Pipeline health preview computed",
		"score", result.OverallScore,
		"status", result.Status.String())

	var recommendations []string
	if result.HasData {
		recommendations = uc.generator.Recommendations(conditions)
	}

	return dto.NewPipelineHealthDTO(result, dto.FromConditions(conditions), recommendations)
}
