package usecase

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiresphere/pipeline-health/internal/application/port"
	"github.com/hiresphere/pipeline-health/internal/domain/entity"
	"github.com/hiresphere/pipeline-health/internal/domain/valueobject"
	"github.com/hiresphere/pipeline-health/pkg/logger"
)

func TestManageAlertsUseCase_AcknowledgeAndResolve(t *testing.T) {
	ctx := context.Background()
	store := newMockAlertStore()
	uc := NewManageAlertsUseCase(store, logger.NewNop())

	cond := valueobject.Alert{Rule: valueobject.RuleTimeToFill, Severity: valueobject.SeverityWarning, Title: "slow"}
	sync, err := uc.Sync(ctx, []valueobject.Alert{cond}, fixedNow)
	require.NoError(t, err)
	require.Len(t, sync.Opened, 1)
	id := sync.Opened[0].ID()

	acked, err := uc.Acknowledge(ctx, id)
	require.NoError(t, err)
	assert.True(t, acked.Acknowledged)

	resolved, err := uc.Resolve(ctx, id)
	require.NoError(t, err)
	assert.True(t, resolved.Resolved)

	_, err = uc.Acknowledge(ctx, id)
	assert.ErrorIs(t, err, entity.ErrAlertResolved)

	open, err := uc.List(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 0, open.Total)

	all, err := uc.List(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 1, all.Total)
	assert.Equal(t, 0, all.Open)
}

func TestManageAlertsUseCase_UnknownID(t *testing.T) {
	uc := NewManageAlertsUseCase(newMockAlertStore(), logger.NewNop())

	_, err := uc.Acknowledge(context.Background(), "missing")
	assert.ErrorIs(t, err, port.ErrAlertNotFound)

	_, err = uc.Resolve(context.Background(), "missing")
	assert.ErrorIs(t, err, port.ErrAlertNotFound)
}

func TestManageAlertsUseCase_SyncReopensResolvedCondition(t *testing.T) {
	ctx := context.Background()
	store := newMockAlertStore()
	uc := NewManageAlertsUseCase(store, logger.NewNop())
	cond := valueobject.Alert{Rule: valueobject.RuleDiversity, Severity: valueobject.SeverityInfo}

	_, err := uc.Sync(ctx, []valueobject.Alert{cond}, fixedNow)
	require.NoError(t, err)

	sync, err := uc.Sync(ctx, nil, fixedNow)
	require.NoError(t, err)
	require.Len(t, sync.Resolved, 1)

	sync, err = uc.Sync(ctx, []valueobject.Alert{cond}, fixedNow)
	require.NoError(t, err)
	require.Len(t, sync.Opened, 1)
	assert.True(t, sync.Opened[0].IsOpen())
}

func TestManageAlertsUseCase_SeverityChangeIsNewAlert(t *testing.T) {
	ctx := context.Background()
	uc := NewManageAlertsUseCase(newMockAlertStore(), logger.NewNop())

	warning := valueobject.Alert{Rule: valueobject.RuleApplicationRate, Severity: valueobject.SeverityWarning}
	critical := valueobject.Alert{Rule: valueobject.RuleApplicationRate, Severity: valueobject.SeverityCritical}

	_, err := uc.Sync(ctx, []valueobject.Alert{warning}, fixedNow)
	require.NoError(t, err)

	sync, err := uc.Sync(ctx, []valueobject.Alert{critical}, fixedNow)
	require.NoError(t, err)

	require.Len(t, sync.Opened, 1)
	require.Len(t, sync.Resolved, 1)
	assert.Equal(t, valueobject.SeverityCritical, sync.Opened[0].Severity())
	assert.Equal(t, valueobject.SeverityWarning, sync.Resolved[0].Severity())
}

func TestManageAlertsUseCase_ConcurrentSyncOpensOnce(t *testing.T) {
	ctx := context.Background()
	store := newMockAlertStore()
	uc := NewManageAlertsUseCase(store, logger.NewNop())
	cond := valueobject.Alert{Rule: valueobject.RuleApplicationRate, Severity: valueobject.SeverityWarning, Title: "Low application rate"}

	const runs = 8
	opened := make([]int, runs)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			result, err := uc.Sync(ctx, []valueobject.Alert{cond}, fixedNow)
			if assert.NoError(t, err) {
				opened[i] = len(result.Opened)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	total := 0
	for _, n := range opened {
		total += n
	}
	assert.Equal(t, 1, total)

	all, err := uc.List(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 1, all.Total)
}
