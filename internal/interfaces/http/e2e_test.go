package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	promclient "github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/hiresphere/pipeline-health/internal/application/dto"
	"github.com/hiresphere/pipeline-health/internal/application/usecase"
	"github.com/hiresphere/pipeline-health/internal/domain/entity"
	"github.com/hiresphere/pipeline-health/internal/domain/repository"
	"github.com/hiresphere/pipeline-health/internal/domain/service"
	"github.com/hiresphere/pipeline-health/internal/domain/valueobject"
	rediscache "github.com/hiresphere/pipeline-health/internal/infrastructure/cache/redis"
	"github.com/hiresphere/pipeline-health/internal/infrastructure/client/healthapi"
	"github.com/hiresphere/pipeline-health/internal/infrastructure/observability/prometheus"
	"github.com/hiresphere/pipeline-health/internal/infrastructure/persistence/memory"
	"github.com/hiresphere/pipeline-health/internal/interfaces/http/handler"
	"github.com/hiresphere/pipeline-health/internal/scheduler"
	"github.com/hiresphere/pipeline-health/pkg/config"
	"github.com/hiresphere/pipeline-health/pkg/logger"
)

const testToken = "test-token"

type memoryHealthRepo struct {
	mu      sync.RWMutex
	records []*entity.HealthRecord
}

func (r *memoryHealthRepo) Save(_ context.Context, record *entity.HealthRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	return nil
}

func (r *memoryHealthRepo) FindLatest(_ context.Context) (*entity.HealthRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.records) == 0 {
		return nil, repository.ErrNotFound
	}
	latest := r.records[0]
	for _, rec := range r.records[1:] {
		if rec.ComputedAt().After(latest.ComputedAt()) {
			latest = rec
		}
	}
	return latest, nil
}

func (r *memoryHealthRepo) FindByID(_ context.Context, id string) (*entity.HealthRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rec := range r.records {
		if rec.ID() == id {
			return rec, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memoryHealthRepo) FindByTimeRange(_ context.Context, tr valueobject.TimeRange) ([]*entity.HealthRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entity.HealthRecord
	for _, rec := range r.records {
		if tr.Contains(rec.ComputedAt()) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ComputedAt().Before(out[j].ComputedAt()) })
	return out, nil
}

func (r *memoryHealthRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.records[:0]
	var deleted int64
	for _, rec := range r.records {
		if rec.ComputedAt().Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	r.records = kept
	return deleted, nil
}

type stubSnapshotSource struct {
	mu       sync.Mutex
	snapshot *valueobject.MetricsSnapshot
}

func (s *stubSnapshotSource) Fetch(_ context.Context, _ time.Time) (*valueobject.MetricsSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil {
		return nil, nil
	}
	cp := *s.snapshot
	return &cp, nil
}

func (s *stubSnapshotSource) set(snapshot *valueobject.MetricsSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snapshot
}

// workedExample: 100/75/17/100 -> 75.9 -> 76, warning, одно alert-условие application_rate
func workedExample() *valueobject.MetricsSnapshot {
	return &valueobject.MetricsSnapshot{
		ActiveCandidates:   50,
		OpenPositions:      5,
		WeeklyApplications: 15,
		AvgDaysToFill:      25,
		DiverseCandidates:  10,
		TotalCandidates:    50,
	}
}

type testEnv struct {
	server *httptest.Server
	source *stubSnapshotSource
	runner *scheduler.Runner
}

func newTestServer(t *testing.T, authEnabled bool) *testEnv {
	t.Helper()
	return newTestServerWithConfig(t, authEnabled, valueobject.DefaultScoringConfig())
}

func newTestServerWithConfig(t *testing.T, authEnabled bool, scoring valueobject.ScoringConfig) *testEnv {
	t.Helper()
	log := logger.NewNop()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := rediscache.NewRedisCacheFromClient(client, time.Minute)

	repo := &memoryHealthRepo{}
	source := &stubSnapshotSource{}
	alertStore := memory.NewAlertStore()
	metrics := prometheus.New(promclient.NewRegistry())

	calculator := service.NewMetricsCalculator(scoring)
	generator := service.NewAlertGenerator(scoring)
	aggregator := service.NewHealthAggregator()

	alertsUC := usecase.NewManageAlertsUseCase(alertStore, log)
	calculateUC := usecase.NewCalculateHealthUseCase(source, repo, calculator, generator, log).
		WithAlerts(alertsUC).
		WithCache(cache).
		WithMetricsPublishers(metrics)
	getHealthUC := usecase.NewGetPipelineHealthUseCase(repo, calculator, generator, alertsUC, cache, log)
	historyUC := usecase.NewGetHealthHistoryUseCase(repo, aggregator, cache, 30*24*time.Hour, log)
	previewUC := usecase.NewPreviewHealthUseCase(calculator, generator, log)
	purgeUC := usecase.NewPurgeHistoryUseCase(repo, 30*24*time.Hour, log)

	runner := scheduler.NewRunner(calculateUC, purgeUC, log, time.Minute)

	router := NewRouter(
		handler.NewPipelineHealthHandler(getHealthUC, calculateUC, historyUC, previewUC, 30*24*time.Hour, log),
		handler.NewAlertsHandler(alertsUC, log),
		handler.NewSchedulerHandler(runner),
		metrics,
		nil,
		config.SecurityConfig{
			AuthEnabled:    authEnabled,
			AuthToken:      testToken,
			RateLimitRPS:   100,
			RateLimitBurst: 100,
		},
		log,
	)

	server := httptest.NewServer(router.Setup())
	t.Cleanup(server.Close)

	return &testEnv{server: server, source: source, runner: runner}
}

func doRequest(t *testing.T, method, url string, body []byte, token string) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, dest interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("expected %d, got %d", want, resp.StatusCode)
	}
}

func TestE2E_ProbesAndMetrics(t *testing.T) {
	env := newTestServer(t, true)

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		resp := doRequest(t, http.MethodGet, env.server.URL+path, nil, "")
		resp.Body.Close()
		expectStatus(t, resp, http.StatusOK)
	}
}

func TestE2E_AuthRequired(t *testing.T) {
	env := newTestServer(t, true)

	resp := doRequest(t, http.MethodGet, env.server.URL+"/api/v1/pipeline-health", nil, "")
	resp.Body.Close()
	expectStatus(t, resp, http.StatusUnauthorized)

	resp = doRequest(t, http.MethodGet, env.server.URL+"/api/v1/pipeline-health", nil, "wrong")
	resp.Body.Close()
	expectStatus(t, resp, http.StatusUnauthorized)

	resp = doRequest(t, http.MethodGet, env.server.URL+"/api/v1/pipeline-health", nil, testToken)
	resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)
}

func TestE2E_NoDataBeforeFirstCalculation(t *testing.T) {
	env := newTestServer(t, false)

	resp := doRequest(t, http.MethodGet, env.server.URL+"/pipeline-health", nil, "")
	expectStatus(t, resp, http.StatusOK)

	var payload dto.PipelineHealthDTO
	decode(t, resp, &payload)
	if payload.Status != "no_data" {
		t.Fatalf("expected no_data status, got %q", payload.Status)
	}
	if payload.Color != "#9e9e9e" || payload.Label != "No Data" {
		t.Fatalf("unexpected no_data presentation: %q %q", payload.Color, payload.Label)
	}
	if payload.HealthScore != 0 || len(payload.Alerts) != 0 {
		t.Fatalf("expected zero score and no alerts, got %d and %d alerts", payload.HealthScore, len(payload.Alerts))
	}

	resp = doRequest(t, http.MethodPost, env.server.URL+"/calculate-health", nil, "")
	resp.Body.Close()
	expectStatus(t, resp, http.StatusUnprocessableEntity)
}

func TestE2E_CalculateThenGet(t *testing.T) {
	env := newTestServer(t, true)
	env.source.set(workedExample())

	resp := doRequest(t, http.MethodPost, env.server.URL+"/api/v1/calculate-health", nil, testToken)
	expectStatus(t, resp, http.StatusAccepted)

	var calc dto.CalculationDTO
	decode(t, resp, &calc)
	if calc.RecordID == "" {
		t.Fatalf("expected record id")
	}
	if calc.HealthScore != 76 || calc.Status != "warning" || calc.AlertCount != 1 {
		t.Fatalf("unexpected calculation: %+v", calc)
	}

	resp = doRequest(t, http.MethodGet, env.server.URL+"/api/v1/pipeline-health", nil, testToken)
	expectStatus(t, resp, http.StatusOK)

	var payload dto.PipelineHealthDTO
	decode(t, resp, &payload)
	if payload.HealthScore != 76 || payload.Status != "warning" {
		t.Fatalf("expected 76/warning, got %d/%s", payload.HealthScore, payload.Status)
	}
	if payload.RecordID != calc.RecordID {
		t.Fatalf("expected record %s, got %s", calc.RecordID, payload.RecordID)
	}

	m := payload.Metrics
	if m.CandidateVolumeHealth != 100 || m.ApplicationRateHealth != 75 || m.TimeToFillHealth != 17 || m.DiversityHealth != 100 {
		t.Fatalf("unexpected sub-scores: %+v", m)
	}
	if len(payload.Alerts) != 1 {
		t.Fatalf("expected one alert, got %d", len(payload.Alerts))
	}
	alert := payload.Alerts[0]
	if alert.Rule != "application_rate" || alert.Severity != "warning" {
		t.Fatalf("unexpected alert: %s/%s", alert.Rule, alert.Severity)
	}
	if alert.ID != entity.AlertID(valueobject.RuleApplicationRate, valueobject.SeverityWarning) {
		t.Fatalf("unexpected alert id %s", alert.ID)
	}
	if len(payload.Recommendations) == 0 {
		t.Fatalf("expected recommendations")
	}

	resp = doRequest(t, http.MethodGet, env.server.URL+"/metrics", nil, "")
	defer resp.Body.Close()
	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(buf.String(), "\npipeline_health_score 75.") {
		t.Fatalf("expected health score gauge in /metrics output")
	}
}

func TestE2E_History(t *testing.T) {
	env := newTestServer(t, true)
	env.source.set(workedExample())

	for i := 0; i < 2; i++ {
		resp := doRequest(t, http.MethodPost, env.server.URL+"/api/v1/calculate-health", nil, testToken)
		resp.Body.Close()
		expectStatus(t, resp, http.StatusAccepted)
	}

	resp := doRequest(t, http.MethodGet, env.server.URL+"/api/v1/pipeline-health/history?duration=1h", nil, testToken)
	expectStatus(t, resp, http.StatusOK)

	var history dto.HealthHistoryDTO
	decode(t, resp, &history)
	if history.Count != 2 || len(history.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", history.Count)
	}
	if history.Min != 76 || history.Max != 76 {
		t.Fatalf("unexpected min/max: %d/%d", history.Min, history.Max)
	}
	if history.StatusCounts["warning"] != 2 {
		t.Fatalf("expected 2 warning records, got %v", history.StatusCounts)
	}

	for _, query := range []string{"duration=bogus", "duration=-1h", "duration=2000h"} {
		resp = doRequest(t, http.MethodGet, env.server.URL+"/api/v1/pipeline-health/history?"+query, nil, testToken)
		resp.Body.Close()
		expectStatus(t, resp, http.StatusBadRequest)
	}
}

func TestE2E_Preview(t *testing.T) {
	env := newTestServer(t, true)

	body := []byte(`{"activeCandidates":50,"openPositions":5,"weeklyApplications":15,"avgDaysToFill":25,"diverseCandidates":10,"totalCandidates":50}`)
	resp := doRequest(t, http.MethodPost, env.server.URL+"/api/v1/pipeline-health/preview", body, testToken)
	expectStatus(t, resp, http.StatusOK)

	var payload dto.PipelineHealthDTO
	decode(t, resp, &payload)
	if payload.HealthScore != 76 || payload.Status != "warning" {
		t.Fatalf("expected 76/warning, got %d/%s", payload.HealthScore, payload.Status)
	}

	resp = doRequest(t, http.MethodPost, env.server.URL+"/api/v1/pipeline-health/preview", []byte("null"), testToken)
	expectStatus(t, resp, http.StatusOK)
	var empty dto.PipelineHealthDTO
	decode(t, resp, &empty)
	if empty.Status != "no_data" {
		t.Fatalf("expected no_data for null body, got %s", empty.Status)
	}

	resp = doRequest(t, http.MethodPost, env.server.URL+"/api/v1/pipeline-health/preview", []byte("{broken"), testToken)
	resp.Body.Close()
	expectStatus(t, resp, http.StatusBadRequest)

	// Preview ничего не сохраняет
	resp = doRequest(t, http.MethodGet, env.server.URL+"/api/v1/pipeline-health", nil, testToken)
	var current dto.PipelineHealthDTO
	decode(t, resp, &current)
	if current.Status != "no_data" {
		t.Fatalf("preview must not persist, got status %s", current.Status)
	}
}

func TestE2E_AlertLifecycle(t *testing.T) {
	env := newTestServer(t, true)
	env.source.set(workedExample())

	resp := doRequest(t, http.MethodPost, env.server.URL+"/api/v1/calculate-health", nil, testToken)
	resp.Body.Close()
	expectStatus(t, resp, http.StatusAccepted)

	resp = doRequest(t, http.MethodGet, env.server.URL+"/api/v1/alerts", nil, testToken)
	expectStatus(t, resp, http.StatusOK)
	var list dto.AlertListDTO
	decode(t, resp, &list)
	if list.Total != 1 || list.Open != 1 {
		t.Fatalf("expected one open alert, got total=%d open=%d", list.Total, list.Open)
	}
	id := list.Alerts[0].ID

	resp = doRequest(t, http.MethodPost, env.server.URL+"/api/v1/alerts/"+id+"/acknowledge", nil, testToken)
	expectStatus(t, resp, http.StatusOK)
	var acked dto.AlertDTO
	decode(t, resp, &acked)
	if !acked.Acknowledged || acked.AcknowledgedAt == nil {
		t.Fatalf("expected acknowledged alert")
	}

	resp = doRequest(t, http.MethodPost, env.server.URL+"/api/v1/alerts/missing/acknowledge", nil, testToken)
	resp.Body.Close()
	expectStatus(t, resp, http.StatusNotFound)

	resp = doRequest(t, http.MethodPost, env.server.URL+"/api/v1/alerts/"+id+"/resolve", nil, testToken)
	expectStatus(t, resp, http.StatusOK)
	var resolved dto.AlertDTO
	decode(t, resp, &resolved)
	if !resolved.Resolved {
		t.Fatalf("expected resolved alert")
	}

	resp = doRequest(t, http.MethodPost, env.server.URL+"/api/v1/alerts/"+id+"/acknowledge", nil, testToken)
	resp.Body.Close()
	expectStatus(t, resp, http.StatusConflict)

	resp = doRequest(t, http.MethodGet, env.server.URL+"/api/v1/alerts", nil, testToken)
	decode(t, resp, &list)
	if list.Total != 0 {
		t.Fatalf("resolved alerts must be hidden by default, got %d", list.Total)
	}

	resp = doRequest(t, http.MethodGet, env.server.URL+"/api/v1/alerts?include_resolved=true", nil, testToken)
	decode(t, resp, &list)
	if list.Total != 1 || list.Open != 0 {
		t.Fatalf("expected one resolved alert, got total=%d open=%d", list.Total, list.Open)
	}

	resp = doRequest(t, http.MethodGet, env.server.URL+"/api/v1/alerts?include_resolved=maybe", nil, testToken)
	resp.Body.Close()
	expectStatus(t, resp, http.StatusBadRequest)
}

func TestE2E_AlertAutoResolve(t *testing.T) {
	env := newTestServer(t, true)
	env.source.set(workedExample())

	resp := doRequest(t, http.MethodPost, env.server.URL+"/api/v1/calculate-health", nil, testToken)
	resp.Body.Close()
	expectStatus(t, resp, http.StatusAccepted)

	healthy := workedExample()
	healthy.WeeklyApplications = 25
	env.source.set(healthy)

	resp = doRequest(t, http.MethodPost, env.server.URL+"/api/v1/calculate-health", nil, testToken)
	resp.Body.Close()
	expectStatus(t, resp, http.StatusAccepted)

	resp = doRequest(t, http.MethodGet, env.server.URL+"/api/v1/alerts?include_resolved=true", nil, testToken)
	var list dto.AlertListDTO
	decode(t, resp, &list)
	if list.Total != 1 || list.Open != 0 || !list.Alerts[0].Resolved {
		t.Fatalf("expected application_rate alert auto-resolved, got %+v", list)
	}
}

func TestE2E_SchedulerStatus(t *testing.T) {
	env := newTestServer(t, true)
	env.source.set(workedExample())

	if err := env.runner.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}

	resp := doRequest(t, http.MethodGet, env.server.URL+"/api/v1/scheduler/status", nil, testToken)
	expectStatus(t, resp, http.StatusOK)

	var status scheduler.Status
	decode(t, resp, &status)
	if status.Runs != 1 || status.LastScore == nil || *status.LastScore != 76 {
		t.Fatalf("unexpected scheduler status: %+v", status)
	}
	if status.LastStatus != "warning" || status.LastRecordID == "" {
		t.Fatalf("unexpected last run: %+v", status)
	}
}

func TestE2E_ClientConsistencyContract(t *testing.T) {
	env := newTestServer(t, true)
	env.source.set(workedExample())

	resp := doRequest(t, http.MethodPost, env.server.URL+"/calculate-health", nil, testToken)
	resp.Body.Close()
	expectStatus(t, resp, http.StatusAccepted)

	report := checkConsistency(t, env.server.URL)
	if !report.Consistent {
		t.Fatalf("expected consistent report, got issues %v", report.Issues)
	}
	if report.HealthScore != 76 || report.Status != "warning" {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestE2E_ClientDetectsDivergence(t *testing.T) {
	drifted := valueobject.DefaultScoringConfig()
	drifted.Weights = valueobject.ScoringWeights{
		CandidateVolume: 0.25,
		ApplicationRate: 0.25,
		TimeToFill:      0.25,
		DiversityRatio:  0.25,
	}
	env := newTestServerWithConfig(t, true, drifted)
	env.source.set(workedExample())

	resp := doRequest(t, http.MethodPost, env.server.URL+"/calculate-health", nil, testToken)
	resp.Body.Close()
	expectStatus(t, resp, http.StatusAccepted)

	report := checkConsistency(t, env.server.URL)
	if report.Consistent {
		t.Fatalf("expected divergence to be detected")
	}
	if report.HealthScore != 73 {
		t.Fatalf("expected server score 73, got %v", report.HealthScore)
	}
	found := false
	for _, issue := range report.Issues {
		if strings.Contains(issue, "Frontend 76 vs Backend 73") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected overall score divergence in %v", report.Issues)
	}
}

func checkConsistency(t *testing.T, baseURL string) *dto.ConsistencyReportDTO {
	t.Helper()
	client, err := healthapi.NewClient(baseURL, testToken, 2*time.Second)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	calculator := service.NewMetricsCalculator(valueobject.DefaultScoringConfig())
	uc := usecase.NewCheckConsistencyUseCase(client, service.NewConsistencyValidator(calculator), nil, logger.NewNop())

	report, err := uc.Execute(context.Background())
	if err != nil {
		t.Fatalf("check consistency: %v", err)
	}
	return report
}
