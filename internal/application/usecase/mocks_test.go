package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hiresphere/pipeline-health/internal/application/port"
	"github.com/hiresphere/pipeline-health/internal/domain/entity"
	"github.com/hiresphere/pipeline-health/internal/domain/repository"
	"github.com/hiresphere/pipeline-health/internal/domain/valueobject"
)

type mockSnapshotSource struct {
	snapshot *valueobject.MetricsSnapshot
	err      error
	calls    int
}

func (m *mockSnapshotSource) Fetch(_ context.Context, _ time.Time) (*valueobject.MetricsSnapshot, error) {
	m.calls++
	return m.snapshot, m.err
}

type mockHealthRepository struct {
	mu        sync.Mutex
	records   []*entity.HealthRecord
	saveErr   error
	findErr   error
	lastRange valueobject.TimeRange
	cutoff    time.Time
}

func (m *mockHealthRepository) Save(_ context.Context, record *entity.HealthRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.records = append(m.records, record)
	return nil
}

func (m *mockHealthRepository) FindLatest(_ context.Context) (*entity.HealthRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	if len(m.records) == 0 {
		return nil, repository.ErrNotFound
	}
	latest := m.records[0]
	for _, r := range m.records[1:] {
		if r.ComputedAt().After(latest.ComputedAt()) {
			latest = r
		}
	}
	return latest, nil
}

func (m *mockHealthRepository) FindByID(_ context.Context, id string) (*entity.HealthRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ID() == id {
			return r, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockHealthRepository) FindByTimeRange(_ context.Context, tr valueobject.TimeRange) ([]*entity.HealthRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastRange = tr
	if m.findErr != nil {
		return nil, m.findErr
	}
	var out []*entity.HealthRecord
	for _, r := range m.records {
		if tr.Contains(r.ComputedAt()) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockHealthRepository) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cutoff = cutoff
	kept := m.records[:0]
	var deleted int64
	for _, r := range m.records {
		if r.ComputedAt().Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	m.records = kept
	return deleted, nil
}

type mockAlertStore struct {
	mu     sync.Mutex
	alerts map[string]*entity.Alert
	err    error
}

func newMockAlertStore() *mockAlertStore {
	return &mockAlertStore{alerts: make(map[string]*entity.Alert)}
}

func (m *mockAlertStore) SaveAll(_ context.Context, alerts []*entity.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	for _, a := range alerts {
		m.alerts[a.ID()] = a
	}
	return nil
}

func (m *mockAlertStore) FindByID(_ context.Context, id string) (*entity.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	a, ok := m.alerts[id]
	if !ok {
		return nil, port.ErrAlertNotFound
	}
	return a, nil
}

func (m *mockAlertStore) FindAll(_ context.Context, includeResolved bool) ([]*entity.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	var out []*entity.Alert
	for _, a := range m.alerts {
		if a.Resolved() && !includeResolved {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out, nil
}

type mockCache struct {
	items map[string][]byte
	sets  int
}

func newMockCache() *mockCache {
	return &mockCache{items: make(map[string][]byte)}
}

func (m *mockCache) Get(_ context.Context, key string, dest interface{}) error {
	data, ok := m.items[key]
	if !ok {
		return port.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (m *mockCache) Set(_ context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.sets++
	m.items[key] = data
	return nil
}

func (m *mockCache) Delete(_ context.Context, key string) error {
	delete(m.items, key)
	return nil
}

func (m *mockCache) DeletePattern(_ context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range m.items {
		if strings.HasPrefix(k, prefix) {
			delete(m.items, k)
		}
	}
	return nil
}

func (m *mockCache) Close() error { return nil }

type publishedEvent struct {
	subject string
	event   interface{}
}

type mockEventPublisher struct {
	events []publishedEvent
}

func (m *mockEventPublisher) PublishEvent(_ context.Context, subject string, event interface{}) error {
	m.events = append(m.events, publishedEvent{subject: subject, event: event})
	return nil
}

func (m *mockEventPublisher) Close() error { return nil }

func (m *mockEventPublisher) subjects() []string {
	out := make([]string, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.subject)
	}
	return out
}

type mockMetricsPublisher struct {
	results []valueobject.HealthResult
	err     error
}

func (m *mockMetricsPublisher) PublishHealth(_ context.Context, result valueobject.HealthResult, _ int, _ time.Time) error {
	m.results = append(m.results, result)
	return m.err
}

func (m *mockMetricsPublisher) Flush(_ context.Context) error { return nil }

type mockReportArchive struct {
	reports map[string][]byte
	err     error
}

func (m *mockReportArchive) Archive(_ context.Context, recordID string, _ time.Time, report []byte) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if m.reports == nil {
		m.reports = make(map[string][]byte)
	}
	key := "health-reports/" + recordID + ".json"
	m.reports[key] = report
	return key, nil
}

func (m *mockReportArchive) PresignURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://signed.example.com/" + key, nil
}

var errBoom = errors.New("boom")
