package port

import (
	"context"
	"time"

	"github.com/hiresphere/pipeline-health/internal/domain/valueobject"
)

// SnapshotSource extracts raw recruiting metrics from the analytics store.
type SnapshotSource interface {
	// Fetch returns the snapshot as of now. A nil snapshot means no data is available.
	Fetch(ctx context.Context, asOf time.Time) (*valueobject.MetricsSnapshot, error)
}
