package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiresphere/pipeline-health/internal/application/dto"
	"github.com/hiresphere/pipeline-health/internal/domain/entity"
	"github.com/hiresphere/pipeline-health/pkg/logger"
)

func ptr(v float64) *float64 {
	return &v
}

func TestPreviewHealthUseCase_NormalizesInput(t *testing.T) {
	calc, gen := domainServices()
	uc := NewPreviewHealthUseCase(calc, gen, logger.NewNop())

	payload := uc.Execute(&dto.SnapshotInput{
		ActiveCandidates:   ptr(50.9),
		OpenPositions:      ptr(5),
		WeeklyApplications: ptr(15),
		AvgDaysToFill:      ptr(25),
		DiverseCandidates:  ptr(10),
		TotalCandidates:    ptr(50),
	})

	assert.Equal(t, 76, payload.HealthScore)
	assert.Equal(t, 50, payload.Metrics.ActiveCandidates)
	assert.Equal(t, 17, payload.Metrics.TimeToFillHealth)

	missing := uc.Execute(&dto.SnapshotInput{WeeklyApplications: ptr(-4)})
	assert.Equal(t, 0, missing.Metrics.WeeklyApplications)
	assert.Equal(t, "critical", missing.Status)
	assert.NotEmpty(t, missing.Recommendations)

	none := uc.Execute(nil)
	assert.Equal(t, "no_data", none.Status)
	assert.Empty(t, none.Alerts)
	assert.Empty(t, none.Recommendations)
}

func TestPurgeHistoryUseCase(t *testing.T) {
	calc, _ := domainServices()
	repo := &mockHealthRepository{}
	ctx := context.Background()
	result := calc.Calculate(workedSnapshot())

	require.NoError(t, repo.Save(ctx, entity.NewHealthRecord(result, 0, fixedNow.Add(-100*24*time.Hour))))
	require.NoError(t, repo.Save(ctx, entity.NewHealthRecord(result, 0, fixedNow.Add(-time.Hour))))

	uc := NewPurgeHistoryUseCase(repo, 90*24*time.Hour, logger.NewNop())
	deleted, err := uc.Execute(ctx, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, int64(1), deleted)
	assert.Equal(t, fixedNow.Add(-90*24*time.Hour), repo.cutoff)
	assert.Len(t, repo.records, 1)

	disabled := NewPurgeHistoryUseCase(repo, 0, logger.NewNop())
	deleted, err = disabled.Execute(ctx, fixedNow)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
