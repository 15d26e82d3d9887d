package port

import (
	"context"
	"time"
)

// ReportArchive stores the JSON report of each calculation in object storage.
type ReportArchive interface {
	// Archive uploads the report and returns its object key
	Archive(ctx context.Context, recordID string, computedAt time.Time, report []byte) (string, error)

	// PresignURL returns a temporary download link for an archived report
	PresignURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}
