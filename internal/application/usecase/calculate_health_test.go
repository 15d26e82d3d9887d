package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiresphere/pipeline-health/internal/application/dto"
	"github.com/hiresphere/pipeline-health/internal/application/port"
	"github.com/hiresphere/pipeline-health/internal/domain/service"
	"github.com/hiresphere/pipeline-health/internal/domain/valueobject"
	"github.com/hiresphere/pipeline-health/pkg/logger"
)

var fixedNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func domainServices() (*service.MetricsCalculator, *service.AlertGenerator) {
	cfg := valueobject.DefaultScoringConfig()
	return service.NewMetricsCalculator(cfg), service.NewAlertGenerator(cfg)
}

func workedSnapshot() *valueobject.MetricsSnapshot {
	return &valueobject.MetricsSnapshot{
		ActiveCandidates:   50,
		OpenPositions:      5,
		WeeklyApplications: 15,
		AvgDaysToFill:      25,
		DiverseCandidates:  10,
		TotalCandidates:    50,
	}
}

func criticalSnapshot() *valueobject.MetricsSnapshot {
	return &valueobject.MetricsSnapshot{
		ActiveCandidates:   4,
		OpenPositions:      2,
		WeeklyApplications: 3,
		AvgDaysToFill:      75,
		DiverseCandidates:  0,
		TotalCandidates:    40,
	}
}

type calcFixture struct {
	source    *mockSnapshotSource
	repo      *mockHealthRepository
	store     *mockAlertStore
	cache     *mockCache
	events    *mockEventPublisher
	publisher *mockMetricsPublisher
	archive   *mockReportArchive
	uc        *CalculateHealthUseCase
}

func newCalcFixture(snapshot *valueobject.MetricsSnapshot) *calcFixture {
	calc, gen := domainServices()
	f := &calcFixture{
		source:    &mockSnapshotSource{snapshot: snapshot},
		repo:      &mockHealthRepository{},
		store:     newMockAlertStore(),
		cache:     newMockCache(),
		events:    &mockEventPublisher{},
		publisher: &mockMetricsPublisher{},
		archive:   &mockReportArchive{},
	}
	log := logger.NewNop()
	f.uc = NewCalculateHealthUseCase(f.source, f.repo, calc, gen, log).
		WithAlerts(NewManageAlertsUseCase(f.store, log)).
		WithCache(f.cache).
		WithEvents(f.events).
		WithMetricsPublishers(f.publisher).
		WithArchive(f.archive).
		WithClock(func() time.Time { return fixedNow })
	return f
}

func TestCalculateHealthUseCase_PersistsAndPublishes(t *testing.T) {
	f := newCalcFixture(workedSnapshot())

	resp, err := f.uc.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 76, resp.HealthScore)
	assert.Equal(t, "warning", resp.Status)
	assert.Equal(t, fixedNow, resp.ComputedAt)
	require.Len(t, f.repo.records, 1)
	assert.Equal(t, resp.RecordID, f.repo.records[0].ID())

	// 15 откликов в неделю и 20% diverse дают warning по откликам
	assert.Equal(t, 1, resp.AlertCount)
	assert.Len(t, f.store.alerts, 1)

	assert.Equal(t, []string{port.SubjectHealthCalculated, port.SubjectAlertOpened}, f.events.subjects())
	require.Len(t, f.publisher.results, 1)
	assert.Equal(t, 76, f.publisher.results[0].OverallScore)

	assert.Equal(t, "health-reports/"+resp.RecordID+".json", resp.ReportKey)
	assert.Equal(t, "https://signed.example.com/"+resp.ReportKey, resp.ReportURL)

	var cached dto.PipelineHealthDTO
	require.NoError(t, f.cache.Get(context.Background(), cacheKeyLatest, &cached))
	assert.Equal(t, resp.RecordID, cached.RecordID)
	assert.Equal(t, 76, cached.HealthScore)

	var archived dto.PipelineHealthDTO
	require.NoError(t, json.Unmarshal(f.archive.reports[resp.ReportKey], &archived))
	assert.Equal(t, "warning", archived.Status)
}

func TestCalculateHealthUseCase_AutoResolvesAlerts(t *testing.T) {
	f := newCalcFixture(criticalSnapshot())

	_, err := f.uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Len(t, f.store.alerts, 5)

	f.source.snapshot = &valueobject.MetricsSnapshot{
		ActiveCandidates: 100, OpenPositions: 5, WeeklyApplications: 40,
		AvgDaysToFill: 20, DiverseCandidates: 30, TotalCandidates: 100,
	}
	f.events.events = nil

	resp, err := f.uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, 0, resp.AlertCount)

	for _, a := range f.store.alerts {
		assert.True(t, a.Resolved(), "alert %s should be resolved", a.Rule())
	}

	resolved := 0
	for _, s := range f.events.subjects() {
		if s == port.SubjectAlertResolved {
			resolved++
		}
	}
	assert.Equal(t, 5, resolved)
}

func TestCalculateHealthUseCase_RepeatedRunKeepsAlertIdentity(t *testing.T) {
	f := newCalcFixture(criticalSnapshot())

	_, err := f.uc.Execute(context.Background())
	require.NoError(t, err)
	f.events.events = nil

	_, err = f.uc.Execute(context.Background())
	require.NoError(t, err)

	assert.Len(t, f.store.alerts, 5)
	assert.Equal(t, []string{port.SubjectHealthCalculated}, f.events.subjects())
}

func TestCalculateHealthUseCase_NoData(t *testing.T) {
	f := newCalcFixture(nil)

	_, err := f.uc.Execute(context.Background())
	assert.ErrorIs(t, err, ErrNoData)
	assert.Empty(t, f.repo.records)
}

func TestCalculateHealthUseCase_SourceError(t *testing.T) {
	f := newCalcFixture(workedSnapshot())
	f.source.err = errBoom

	_, err := f.uc.Execute(context.Background())
	assert.ErrorIs(t, err, errBoom)
}

func TestCalculateHealthUseCase_SaveError(t *testing.T) {
	f := newCalcFixture(workedSnapshot())
	f.repo.saveErr = errBoom

	_, err := f.uc.Execute(context.Background())
	assert.ErrorIs(t, err, errBoom)
	assert.Empty(t, f.events.events)
}

func TestCalculateHealthUseCase_OptionalSinkFailuresAreIgnored(t *testing.T) {
	f := newCalcFixture(workedSnapshot())
	f.publisher.err = errBoom
	f.archive.err = errBoom
	f.store.err = errBoom

	resp, err := f.uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Empty(t, resp.ReportKey)
	assert.Len(t, f.repo.records, 1)
}

func TestCalculateHealthUseCase_MinimalWiring(t *testing.T) {
	calc, gen := domainServices()
	repo := &mockHealthRepository{}
	uc := NewCalculateHealthUseCase(&mockSnapshotSource{snapshot: workedSnapshot()}, repo, calc, gen, logger.NewNop())

	resp, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 76, resp.HealthScore)
	assert.Len(t, repo.records, 1)
}
