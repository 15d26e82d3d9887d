package port

import (
	"context"

	"github.com/hiresphere/pipeline-health/internal/application/dto"
)

// HealthAPI is the remote pipeline health service as seen by the consistency checker.
type HealthAPI interface {
	// FetchHealth calls GET /pipeline-health
	FetchHealth(ctx context.Context) (*dto.ReportedPipelineHealthDTO, error)

	// TriggerCalculation calls POST /calculate-health
	TriggerCalculation(ctx context.Context) (*dto.CalculationDTO, error)
}
