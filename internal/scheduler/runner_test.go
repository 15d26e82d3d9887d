package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiresphere/pipeline-health/internal/application/dto"
	"github.com/hiresphere/pipeline-health/internal/application/usecase"
	"github.com/hiresphere/pipeline-health/pkg/logger"
)

type stubCalculator struct {
	mu     sync.Mutex
	calls  int
	result *dto.CalculationDTO
	err    error
}

func (s *stubCalculator) Execute(_ context.Context) (*dto.CalculationDTO, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.result, s.err
}

func (s *stubCalculator) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubPurger struct {
	deleted int64
	err     error
	at      time.Time
}

func (s *stubPurger) Execute(_ context.Context, now time.Time) (int64, error) {
	s.at = now
	return s.deleted, s.err
}

func fixedNow() time.Time {
	return time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
}

func TestRunner_RunOnceSuccess(t *testing.T) {
	calc := &stubCalculator{result: &dto.CalculationDTO{RecordID: "rec-1", HealthScore: 76, Status: "warning"}}
	purger := &stubPurger{deleted: 3}
	runner := NewRunner(calc, purger, logger.NewNop(), time.Minute)
	runner.now = fixedNow

	require.NoError(t, runner.RunOnce(context.Background()))

	status := runner.Snapshot()
	assert.Equal(t, 1, status.Runs)
	require.NotNil(t, status.LastRunAt)
	assert.Equal(t, fixedNow(), *status.LastRunAt)
	require.NotNil(t, status.LastScore)
	assert.Equal(t, 76, *status.LastScore)
	assert.Equal(t, "rec-1", status.LastRecordID)
	assert.Equal(t, int64(3), status.LastPurged)
	assert.Equal(t, fixedNow(), purger.at)
	assert.True(t, runner.Ready(fixedNow().Add(2*time.Minute)))
	assert.False(t, runner.Ready(fixedNow().Add(4*time.Minute)))
}

func TestRunner_RunOnceNoData(t *testing.T) {
	calc := &stubCalculator{err: usecase.ErrNoData}
	runner := NewRunner(calc, nil, logger.NewNop(), time.Minute)

	require.NoError(t, runner.RunOnce(context.Background()))

	status := runner.Snapshot()
	assert.True(t, status.NoDataLastTime)
	assert.Empty(t, status.LastError)
	assert.Nil(t, status.LastScore)
}

func TestRunner_RunOnceFailureKeepsLastResult(t *testing.T) {
	calc := &stubCalculator{result: &dto.CalculationDTO{RecordID: "rec-1", HealthScore: 90, Status: "healthy"}}
	purger := &stubPurger{}
	runner := NewRunner(calc, purger, logger.NewNop(), time.Minute)
	runner.now = fixedNow

	require.NoError(t, runner.RunOnce(context.Background()))

	calc.err = errors.New("db down")
	calc.result = nil
	purger.at = time.Time{}

	err := runner.RunOnce(context.Background())
	require.Error(t, err)

	status := runner.Snapshot()
	assert.Equal(t, 2, status.Runs)
	assert.Contains(t, status.LastError, "db down")
	assert.Equal(t, "rec-1", status.LastRecordID)
	assert.True(t, purger.at.IsZero(), "purge must not run after a failed calculation")
	assert.False(t, runner.Ready(fixedNow()))
}

func TestRunner_PurgeFailure(t *testing.T) {
	calc := &stubCalculator{result: &dto.CalculationDTO{RecordID: "rec-1"}}
	runner := NewRunner(calc, &stubPurger{err: errors.New("lock timeout")}, logger.NewNop(), time.Minute)

	err := runner.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "purge")
}

func TestRunner_StartRunsImmediatelyAndStops(t *testing.T) {
	calc := &stubCalculator{result: &dto.CalculationDTO{RecordID: "rec-1"}}
	runner := NewRunner(calc, nil, logger.NewNop(), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		runner.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return calc.Calls() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runner did not stop after cancel")
	}
}

func TestNewRunner_DefaultInterval(t *testing.T) {
	runner := NewRunner(&stubCalculator{}, nil, logger.NewNop(), 0)
	assert.Equal(t, "15m0s", runner.Snapshot().Interval)
}
