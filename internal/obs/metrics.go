package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	registry           *prometheus.Registry
	handler            http.Handler
	requestsTotal      *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	quotesCalculated   *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	quotesSaved        prometheus.Counter
	postcodeLookups    *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cleanquote_http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cleanquote_http_request_duration_seconds",
			Help:    "HTTP request duration by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		quotesCalculated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cleanquote_quotes_calculated_total",
			Help: "Quotes calculated by service type.",
		}, []string{"service"}),
		validationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cleanquote_validation_failures_total",
			Help: "Rejected quote requests by error kind.",
		}, []string{"kind"}),
		quotesSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cleanquote_quotes_saved_total",
			Help: "Quotes persisted.",
		}),
		postcodeLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cleanquote_postcode_lookups_total",
			Help: "Postcode multiplier lookups by outcome.",
		}, []string{"found"}),
	}
	registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.quotesCalculated,
		m.validationFailures,
		m.quotesSaved,
		m.postcodeLookups,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records count and latency for every request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) QuoteCalculated(service string) {
	if m != nil {
		m.quotesCalculated.WithLabelValues(service).Inc()
	}
}

func (m *Metrics) ValidationFailed(kind string) {
	if m != nil {
		m.validationFailures.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) QuoteSaved() {
	if m != nil {
		m.quotesSaved.Inc()
	}
}

func (m *Metrics) PostcodeLookup(found bool) {
	if m != nil {
		m.postcodeLookups.WithLabelValues(strconv.FormatBool(found)).Inc()
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
