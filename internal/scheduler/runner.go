package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hiresphere/pipeline-health/internal/application/dto"
	"github.com/hiresphere/pipeline-health/internal/application/usecase"
	"github.com/hiresphere/pipeline-health/pkg/logger"
)

// Calculator запускает расчет здоровья воронки (CalculateHealthUseCase)
type Calculator interface {
	Execute(ctx context.Context) (*dto.CalculationDTO, error)
}

// Purger удаляет устаревшую историю (PurgeHistoryUseCase)
type Purger interface {
	Execute(ctx context.Context, now time.Time) (int64, error)
}

// Status - состояние планировщика для GET /api/v1/scheduler/status
type Status struct {
	StartedAt      time.Time  `json:"startedAt"`
	Interval       string     `json:"interval"`
	Runs           int        `json:"runs"`
	LastRunAt      *time.Time `json:"lastRunAt,omitempty"`
	LastError      string     `json:"lastError,omitempty"`
	LastRecordID   string     `json:"lastRecordId,omitempty"`
	LastScore      *int       `json:"lastScore,omitempty"`
	LastStatus     string     `json:"lastStatus,omitempty"`
	LastPurged     int64      `json:"lastPurged"`
	NoDataLastTime bool       `json:"noData"`
}

// Runner периодически пересчитывает здоровье воронки и чистит историю
type Runner struct {
	calculator Calculator
	purger     Purger
	log        *logger.Logger
	interval   time.Duration
	runTimeout time.Duration
	now        func() time.Time

	runMu sync.Mutex

	mu         sync.RWMutex
	startedAt  time.Time
	runs       int
	lastRunAt  time.Time
	lastError  string
	lastResult *dto.CalculationDTO
	lastPurged int64
	noData     bool
}

// NewRunner создает планировщик; purger может быть nil
func NewRunner(calculator Calculator, purger Purger, log *logger.Logger, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &Runner{
		calculator: calculator,
		purger:     purger,
		log:        log,
		interval:   interval,
		runTimeout: 30 * time.Second,
		now:        time.Now,
		startedAt:  time.Now(),
	}
}

// Start выполняет первый расчет сразу, затем по тикеру до отмены ctx
func (r *Runner) Start(ctx context.Context) {
	_ = r.RunOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// ошибка уже сохранена в состоянии и залогирована
			_ = r.RunOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// RunOnce выполняет один цикл: расчет, затем очистку истории.
// Параллельные вызовы сериализуются.
func (r *Runner) RunOnce(ctx context.Context) error {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	runCtx, cancel := context.WithTimeout(ctx, r.runTimeout)
	defer cancel()

	runAt := r.now()
	result, err := r.calculator.Execute(runCtx)
	switch {
	case errors.Is(err, usecase.ErrNoData):
		r.update(runAt, nil, "", true)
		r.log.Warn("Scheduled health calculation skipped: no pipeline data")
	case err != nil:
		wrappedErr := fmt.Errorf("scheduled health calculation failed: %w", err)
		r.update(runAt, nil, wrappedErr.Error(), false)
		r.log.Error("Scheduled health calculation failed", wrappedErr)
		return wrappedErr
	default:
		r.update(runAt, result, "", false)
	}

	if r.purger != nil {
		purged, err := r.purger.Execute(runCtx, runAt)
		if err != nil {
			r.log.Error("Health history purge failed", err)
			return fmt.Errorf("health history purge failed: %w", err)
		}
		r.mu.Lock()
		r.lastPurged = purged
		r.mu.Unlock()
	}

	return nil
}

// Snapshot возвращает копию текущего состояния
func (r *Runner) Snapshot() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status := Status{
		StartedAt:      r.startedAt,
		Interval:       r.interval.String(),
		Runs:           r.runs,
		LastError:      r.lastError,
		LastPurged:     r.lastPurged,
		NoDataLastTime: r.noData,
	}
	if !r.lastRunAt.IsZero() {
		lastRunAt := r.lastRunAt
		status.LastRunAt = &lastRunAt
	}
	if r.lastResult != nil {
		score := r.lastResult.HealthScore
		status.LastScore = &score
		status.LastRecordID = r.lastResult.RecordID
		status.LastStatus = r.lastResult.Status
	}

	return status
}

// Ready сообщает, что последний цикл прошел без ошибок и не устарел
func (r *Runner) Ready(now time.Time) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.lastRunAt.IsZero() || r.lastError != "" {
		return false
	}
	return now.Sub(r.lastRunAt) <= r.interval*3
}

func (r *Runner) update(runAt time.Time, result *dto.CalculationDTO, errText string, noData bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.runs++
	r.lastRunAt = runAt
	r.lastError = errText
	r.noData = noData
	if result != nil {
		r.lastResult = result
	}
}
