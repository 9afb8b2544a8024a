package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API and the
// import pipeline.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	importRows      *prometheus.CounterVec
	importBatches   prometheus.Counter
	sweepSettled    prometheus.Counter
}

// NewMetricsService registers the collectors.
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

	importRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "import_rows_total",
		Help: "Spreadsheet rows processed by outcome",
	}, []string{"outcome"})

	importBatches := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "import_batches_total",
		Help: "Spreadsheet batches processed",
	})

	sweepSettled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sweep_settled_enrollments_total",
		Help: "Enrollments settled by the maintenance sweep",
	})

	registry.MustRegister(requestDuration, requestTotal, importRows, importBatches, sweepSettled)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		importRows:      importRows,
		importBatches:   importBatches,
		sweepSettled:    sweepSettled,
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveImport records one finished batch and its row outcomes.
func (m *MetricsService) ObserveImport(valid, corrected, omitted int) {
	if m == nil {
		return
	}
	m.importBatches.Inc()
	m.importRows.WithLabelValues("valid").Add(float64(valid))
	m.importRows.WithLabelValues("corrected").Add(float64(corrected))
	m.importRows.WithLabelValues("omitted").Add(float64(omitted))
}

// ObserveSweep records enrollments settled by a maintenance sweep.
func (m *MetricsService) ObserveSweep(settled int) {
	if m == nil {
		return
	}
	m.sweepSettled.Add(float64(settled))
}
