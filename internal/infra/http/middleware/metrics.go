package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	activeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)

	firstContactsDocumented = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lead_first_contact_documented_total",
			Help: "Total number of leads registered by a documented first contact",
		},
	)

	activitiesLogged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_activities_logged_total",
			Help: "Total number of lead activities logged",
		},
		[]string{"progress"},
	)

	deadlineWarnings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_deadline_warnings_total",
			Help: "Deadline warnings by outcome",
		},
		[]string{"result"},
	)

	concurrencyConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_concurrency_conflicts_total",
			Help: "Writes rejected by the version precondition",
		},
		[]string{"operation"},
	)

	integrationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "integration_errors_total",
			Help: "Total number of integration errors",
		},
		[]string{"service"},
	)
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		activeConnections.Inc()
		defer activeConnections.Dec()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.statusCode)
		path := routePattern(r)

		httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// routePattern keeps lead IDs out of the label set.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

func RecordFirstContactDocumented() {
	firstContactsDocumented.Inc()
}

func RecordActivityLogged(countsAsProgress bool) {
	activitiesLogged.WithLabelValues(strconv.FormatBool(countsAsProgress)).Inc()
}

func RecordDeadlineWarning(result string) {
	deadlineWarnings.WithLabelValues(result).Inc()
}

func RecordConcurrencyConflict(operation string) {
	concurrencyConflicts.WithLabelValues(operation).Inc()
}

func RecordIntegrationError(service string) {
	integrationErrors.WithLabelValues(service).Inc()
}
