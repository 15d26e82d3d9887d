package port

import (
	"context"
	"time"

	"github.com/hiresphere/pipeline-health/internal/domain/valueobject"
)

// MetricsPublisher exports computed pipeline health to an observability backend.
type MetricsPublisher interface {
	// PublishHealth records the overall score and sub-scores of one calculation.
	PublishHealth(ctx context.Context, result valueobject.HealthResult, alertCount int, computedAt time.Time) error

	// Flush forces immediate publication of any buffered data points.
	// Should be called during graceful shutdown to prevent data loss.
	Flush(ctx context.Context) error
}

// DivergenceRecorder counts client/server scoring drift detected by consistency checks.
type DivergenceRecorder interface {
	RecordConsistencyCheck(issues []string)
}
