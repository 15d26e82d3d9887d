package prometheus

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hiresphere/pipeline-health/internal/domain/valueobject"
)

// Metrics bundles prometheus collectors used by the pipeline health service.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal      *prometheus.CounterVec
	RequestDurationSec *prometheus.HistogramVec
	AuthFailures       prometheus.Counter
	RateLimitDropped   prometheus.Counter

	HealthScore       prometheus.Gauge
	SubScore          *prometheus.GaugeVec
	HealthStatus      *prometheus.GaugeVec
	ActiveAlerts      prometheus.Gauge
	Calculations      prometheus.Counter
	ConsistencyChecks *prometheus.CounterVec
	Divergences       prometheus.Counter
}

func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_health_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"route", "method", "status"}),
		RequestDurationSec: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pipeline_health_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		AuthFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_health_auth_failures_total",
			Help: "Total number of rejected bearer tokens.",
		}),
		RateLimitDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_health_ratelimit_dropped_total",
			Help: "Total number of requests dropped by rate limiter.",
		}),
		HealthScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pipeline_health_score",
			Help: "Latest overall pipeline health score (0-100, unrounded).",
		}),
		SubScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pipeline_health_sub_score",
			Help: "Latest pipeline sub-health percentages.",
		}, []string{"metric"}),
		HealthStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pipeline_health_status",
			Help: "1 for the current pipeline health status, 0 otherwise.",
		}, []string{"status"}),
		ActiveAlerts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pipeline_health_active_alerts",
			Help: "Number of alert conditions true at the latest calculation.",
		}),
		Calculations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_health_calculations_total",
			Help: "Total number of completed health calculations.",
		}),
		ConsistencyChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_health_consistency_checks_total",
			Help: "Total number of client/server consistency checks.",
		}, []string{"result"}),
		Divergences: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_health_divergences_total",
			Help: "Total number of diverging fields found by consistency checks.",
		}),
	}

	registry.MustRegister(
		m.RequestsTotal,
		m.RequestDurationSec,
		m.AuthFailures,
		m.RateLimitDropped,
		m.HealthScore,
		m.SubScore,
		m.HealthStatus,
		m.ActiveAlerts,
		m.Calculations,
		m.ConsistencyChecks,
		m.Divergences,
	)

	return m
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// PublishHealth updates the score gauges (implements port.MetricsPublisher).
func (m *Metrics) PublishHealth(_ context.Context, result valueobject.HealthResult, alertCount int, _ time.Time) error {
	if !result.HasData {
		return nil
	}

	m.HealthScore.Set(result.RawScore)
	m.SubScore.WithLabelValues("candidate_volume").Set(float64(result.SubScores.CandidateVolume))
	m.SubScore.WithLabelValues("application_rate").Set(float64(result.SubScores.ApplicationRate))
	m.SubScore.WithLabelValues("time_to_fill").Set(float64(result.SubScores.TimeToFill))
	m.SubScore.WithLabelValues("diversity").Set(float64(result.SubScores.DiversityRatio))

	for _, status := range valueobject.AllHealthStatuses() {
		value := 0.0
		if status == result.Status {
			value = 1
		}
		m.HealthStatus.WithLabelValues(status.String()).Set(value)
	}

	m.ActiveAlerts.Set(float64(alertCount))
	m.Calculations.Inc()
	return nil
}

// Flush is a no-op: gauges are read on scrape.
func (m *Metrics) Flush(_ context.Context) error {
	return nil
}

// RecordConsistencyCheck implements port.DivergenceRecorder.
func (m *Metrics) RecordConsistencyCheck(issues []string) {
	if len(issues) == 0 {
		m.ConsistencyChecks.WithLabelValues("consistent").Inc()
		return
	}
	m.ConsistencyChecks.WithLabelValues("diverged").Inc()
	m.Divergences.Add(float64(len(issues)))
}

func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startedAt := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		status := strconv.Itoa(wrapped.statusCode)
		route := normalizeRoute(r.URL.Path)
		m.RequestsTotal.WithLabelValues(route, r.Method, status).Inc()
		m.RequestDurationSec.WithLabelValues(route, r.Method, status).Observe(time.Since(startedAt).Seconds())
	})
}

// normalizeRoute keeps label cardinality bounded: alert ids collapse into one route.
func normalizeRoute(path string) string {
	switch {
	case path == "/healthz" || path == "/readyz" || path == "/metrics":
		return path
	case strings.HasPrefix(path, "/api/v1/alerts/"):
		return "/api/v1/alerts/{id}"
	case path == "/pipeline-health" || path == "/calculate-health":
		return path
	case strings.HasPrefix(path, "/api/v1/"):
		return path
	default:
		return "other"
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

// Flush keeps streaming behavior for handlers that require it.
func (rw *statusRecorder) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
