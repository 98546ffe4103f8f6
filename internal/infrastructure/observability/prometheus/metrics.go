package prometheus

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dreschagin/factory-health-monitor/internal/application/port"
)

// Metrics bundles prometheus collectors used by the monitor. It doubles
// as a local PipelineMetrics implementation next to the CloudWatch one.
type Metrics struct {
	ReadingsIngested  *prometheus.CounterVec
	ReadingsInvalid   *prometheus.CounterVec
	ReadingsAnomalous *prometheus.CounterVec
	RowsMalformed     *prometheus.CounterVec

	EvaluationRuns        prometheus.Counter
	EvaluationDurationSec prometheus.Histogram
	MachinesByStatus      *prometheus.GaugeVec

	RequestsTotal      *prometheus.CounterVec
	RequestDurationSec *prometheus.HistogramVec
	WebsocketClients   prometheus.Gauge
}

func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		ReadingsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "monitor_readings_ingested_total",
			Help: "Total number of sensor readings ingested.",
		}, []string{"source"}),
		ReadingsInvalid: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "monitor_readings_invalid_total",
			Help: "Total number of readings rejected by range validation.",
		}, []string{"source"}),
		ReadingsAnomalous: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "monitor_readings_anomalous_total",
			Help: "Total number of readings flagged anomalous.",
		}, []string{"source"}),
		RowsMalformed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "monitor_rows_malformed_total",
			Help: "Total number of unparseable CSV rows skipped.",
		}, []string{"source"}),
		EvaluationRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "monitor_evaluation_runs_total",
			Help: "Total number of evaluation runs.",
		}),
		EvaluationDurationSec: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "monitor_evaluation_duration_seconds",
			Help:    "Evaluation run duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		MachinesByStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "monitor_machines",
			Help: "Machines by health status after the last evaluation run.",
		}, []string{"status"}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "monitor_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"route", "method", "status"}),
		RequestDurationSec: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "monitor_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		WebsocketClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "monitor_websocket_clients",
			Help: "Number of connected websocket clients.",
		}),
	}

	registry.MustRegister(
		m.ReadingsIngested,
		m.ReadingsInvalid,
		m.ReadingsAnomalous,
		m.RowsMalformed,
		m.EvaluationRuns,
		m.EvaluationDurationSec,
		m.MachinesByStatus,
		m.RequestsTotal,
		m.RequestDurationSec,
		m.WebsocketClients,
	)

	return m
}

// RecordIngest публикует счетчики ingest батча
func (m *Metrics) RecordIngest(_ context.Context, stats port.IngestStats) {
	m.ReadingsIngested.WithLabelValues(stats.Source).Add(float64(stats.Total))
	m.ReadingsInvalid.WithLabelValues(stats.Source).Add(float64(stats.Invalid))
	m.ReadingsAnomalous.WithLabelValues(stats.Source).Add(float64(stats.Anomalous))
	m.RowsMalformed.WithLabelValues(stats.Source).Add(float64(stats.Malformed))
}

// RecordEvaluation публикует счетчики evaluation run
func (m *Metrics) RecordEvaluation(_ context.Context, stats port.EvaluationStats) {
	m.EvaluationRuns.Inc()
	m.EvaluationDurationSec.Observe(stats.Duration.Seconds())
	m.MachinesByStatus.WithLabelValues("healthy").Set(float64(stats.Healthy))
	m.MachinesByStatus.WithLabelValues("needs_maintenance").Set(float64(stats.Maintenance))
	m.MachinesByStatus.WithLabelValues("critical").Set(float64(stats.Critical))
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

func normalizeRoute(path string) string {
	switch {
	case path == "/ws":
		return "/ws"
	case path == "/api/v1/machines" || hasPrefix(path, "/api/v1/machines/"):
		return "/api/v1/machines/*"
	case path == "/api/v1/readings" || hasPrefix(path, "/api/v1/readings/"):
		return "/api/v1/readings/*"
	case path == "/api/v1" || hasPrefix(path, "/api/v1/"):
		return "/api/v1/*"
	default:
		return "other"
	}
}

func hasPrefix(value, prefix string) bool {
	if len(value) < len(prefix) {
		return false
	}
	return value[:len(prefix)] == prefix
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

// Hijack passes websocket upgrades through wrapped ResponseWriter.
func (rw *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}

// Flush keeps streaming behavior for handlers that require it.
func (rw *statusRecorder) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
