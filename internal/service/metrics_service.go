package service

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/sma-grade-report/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for report runs and the HTTP surface.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	recordsTotal    *prometheus.CounterVec
	skippedTotal    *prometheus.CounterVec
	runDuration     *prometheus.HistogramVec
	reportRows      prometheus.Gauge

	acceptedCount        uint64
	skippedCount         uint64
	runCount             uint64
	failedRunCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
}

// MetricsSnapshot is a lightweight summary of the collected counters.
type MetricsSnapshot struct {
	RecordsAccepted          uint64    `json:"records_accepted"`
	RecordsSkipped           uint64    `json:"records_skipped"`
	Runs                     uint64    `json:"runs"`
	FailedRuns               uint64    `json:"failed_runs"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// NewMetricsService registers the report collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	recordsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "grade_report_records_total",
		Help: "Input records processed, by table and outcome",
	}, []string{"table", "outcome"})

	skippedTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "grade_report_skipped_records_total",
		Help: "Input records skipped, by failure kind",
	}, []string{"kind"})

	runDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "grade_report_run_duration_seconds",
		Help:    "Duration of complete report runs",
		Buckets: prometheus.DefBuckets,
	}, []string{"status"})

	reportRows := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "grade_report_last_rows",
		Help: "Number of rows in the most recent report",
	})

	registry.MustRegister(requestDuration, requestTotal, recordsTotal, skippedTotal, runDuration, reportRows)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		recordsTotal:    recordsTotal,
		skippedTotal:    skippedTotal,
		runDuration:     runDuration,
		reportRows:      reportRows,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry exposes the underlying registry for tests and custom collectors.
func (m *MetricsService) Registry() *prometheus.Registry {
	return m.registry
}

// RecordAccepted counts a record accepted from table.
func (m *MetricsService) RecordAccepted(table string) {
	if m == nil {
		return
	}
	m.recordsTotal.WithLabelValues(table, "accepted").Inc()
	atomic.AddUint64(&m.acceptedCount, 1)
}

// RecordSkipped counts a record skipped from table for the given failure kind.
func (m *MetricsService) RecordSkipped(table string, kind models.FailureKind) {
	if m == nil {
		return
	}
	m.recordsTotal.WithLabelValues(table, "skipped").Inc()
	m.skippedTotal.WithLabelValues(string(kind)).Inc()
	atomic.AddUint64(&m.skippedCount, 1)
}

// ObserveRun records the outcome of a complete run.
func (m *MetricsService) ObserveRun(rows int, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "failed"
		atomic.AddUint64(&m.failedRunCount, 1)
	} else {
		m.reportRows.Set(float64(rows))
	}
	m.runDuration.WithLabelValues(status).Observe(duration.Seconds())
	atomic.AddUint64(&m.runCount, 1)
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// Snapshot returns the aggregated counters.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return MetricsSnapshot{
		RecordsAccepted:          atomic.LoadUint64(&m.acceptedCount),
		RecordsSkipped:           atomic.LoadUint64(&m.skippedCount),
		Runs:                     atomic.LoadUint64(&m.runCount),
		FailedRuns:               atomic.LoadUint64(&m.failedRunCount),
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		GeneratedAt:              time.Now().UTC(),
	}
}
