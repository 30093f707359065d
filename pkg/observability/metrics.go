package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal tracks total number of HTTP requests
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pennyvault_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)

	// RequestDuration tracks request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pennyvault_http_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	// ImportRows tracks pipeline row outcomes per import batch
	ImportRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pennyvault_import_rows_total",
			Help: "Rows processed by the ingestion pipeline, by outcome",
		},
		[]string{"format", "outcome"},
	)

	// ImportDuration tracks end-to-end import batch duration
	ImportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pennyvault_import_duration_seconds",
			Help:    "Import batch duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"format"},
	)

	// SchedulerCyclesSkipped counts alert cycles skipped while an import runs
	SchedulerCyclesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pennyvault_scheduler_cycles_skipped_total",
			Help: "Alert evaluation cycles skipped because an import was in progress",
		},
	)
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// MetricsMiddleware records Prometheus metrics for every request
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		path := r.URL.Path
		if pattern := r.Pattern; pattern != "" {
			path = pattern
		}
		RequestDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
		RequestsTotal.WithLabelValues(path, r.Method, strconv.Itoa(rec.status)).Inc()
	})
}
