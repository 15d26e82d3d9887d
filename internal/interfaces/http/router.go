package http

import (
	"context"
	"net/http"
	"time"

	"github.com/hiresphere/pipeline-health/internal/infrastructure/observability/prometheus"
	"github.com/hiresphere/pipeline-health/internal/interfaces/http/handler"
	"github.com/hiresphere/pipeline-health/internal/interfaces/http/middleware"
	"github.com/hiresphere/pipeline-health/pkg/config"
	"github.com/hiresphere/pipeline-health/pkg/logger"
)

// ReadinessCheck проверяет зависимости перед приемом трафика (например, ping БД)
type ReadinessCheck func(ctx context.Context) error

// Router настраивает маршруты приложения
type Router struct {
	mux                   *http.ServeMux
	pipelineHealthHandler *handler.PipelineHealthHandler
	alertsHandler         *handler.AlertsHandler
	schedulerHandler      *handler.SchedulerHandler
	metrics               *prometheus.Metrics
	readiness             ReadinessCheck
	security              config.SecurityConfig
	logger                *logger.Logger
}

// NewRouter создает новый router; readiness может быть nil
func NewRouter(
	pipelineHealthHandler *handler.PipelineHealthHandler,
	alertsHandler *handler.AlertsHandler,
	schedulerHandler *handler.SchedulerHandler,
	metrics *prometheus.Metrics,
	readiness ReadinessCheck,
	security config.SecurityConfig,
	logger *logger.Logger,
) *Router {
	return &Router{
		mux:                   http.NewServeMux(),
		pipelineHealthHandler: pipelineHealthHandler,
		alertsHandler:         alertsHandler,
		schedulerHandler:      schedulerHandler,
		metrics:               metrics,
		readiness:             readiness,
		security:              security,
		logger:                logger,
	}
}

// Setup настраивает все маршруты
func (rt *Router) Setup() http.Handler {
	// Probes и scrape без авторизации
	rt.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	rt.mux.HandleFunc("GET /readyz", rt.ready)
	rt.mux.Handle("GET /metrics", rt.metrics.Handler())

	authMiddleware := middleware.Auth(middleware.AuthConfig{
		Enabled:     rt.security.AuthEnabled,
		BearerToken: rt.security.AuthToken,
		OnReject:    rt.metrics.AuthFailures.Inc,
	}, rt.logger)

	limiter := middleware.NewRateLimiter(rt.security.RateLimitRPS, rt.security.RateLimitBurst)
	rateLimit := middleware.RateLimit(limiter, rt.metrics.RateLimitDropped.Inc)

	protected := func(h http.HandlerFunc) http.Handler {
		return authMiddleware(h)
	}
	limited := func(h http.HandlerFunc) http.Handler {
		return authMiddleware(rateLimit(h))
	}

	ph := rt.pipelineHealthHandler

	// Текущая оценка и пересчет (+ короткие алиасы для dashboard)
	rt.mux.Handle("GET /api/v1/pipeline-health", protected(ph.GetPipelineHealth))
	rt.mux.Handle("GET /pipeline-health", protected(ph.GetPipelineHealth))
	rt.mux.Handle("POST /api/v1/calculate-health", limited(ph.CalculateHealth))
	rt.mux.Handle("POST /calculate-health", limited(ph.CalculateHealth))

	rt.mux.Handle("GET /api/v1/pipeline-health/history", protected(ph.GetHistory))
	rt.mux.Handle("POST /api/v1/pipeline-health/preview", limited(ph.Preview))

	// Alerts
	rt.mux.Handle("GET /api/v1/alerts", protected(rt.alertsHandler.List))
	rt.mux.Handle("POST /api/v1/alerts/{id}/acknowledge", protected(rt.alertsHandler.Acknowledge))
	rt.mux.Handle("POST /api/v1/alerts/{id}/resolve", protected(rt.alertsHandler.Resolve))

	rt.mux.Handle("GET /api/v1/scheduler/status", protected(rt.schedulerHandler.Status))

	// Применяем middleware
	var handler http.Handler = rt.mux
	handler = middleware.Compression(handler)
	handler = rt.metrics.Middleware(handler)
	handler = middleware.Logger(rt.logger)(handler)
	handler = middleware.Recovery(rt.logger)(handler)

	return handler
}

func (rt *Router) ready(w http.ResponseWriter, r *http.Request) {
	if rt.readiness != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := rt.readiness(ctx); err != nil {
			rt.logger.Warn("Readiness check failed", "error", err.Error())
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
