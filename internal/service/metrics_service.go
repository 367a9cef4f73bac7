package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API and the
// case lifecycle engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	transitionTotal *prometheus.CounterVec
	conflictTotal   prometheus.Counter
	eventsPublished *prometheus.CounterVec
	viewSeed        prometheus.Histogram
}

// NewMetricsService registers the core Prometheus collectors.
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

	transitionTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "case_transitions_total",
		Help: "Executed case transitions by collection, action and outcome",
	}, []string{"collection", "action", "outcome"})

	conflictTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "case_transition_conflicts_total",
		Help: "Transitions rejected because another actor moved the case first",
	})

	eventsPublished := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "change_events_published_total",
		Help: "Change events published to the realtime bus by collection",
	}, []string{"collection"})

	viewSeed := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "live_view_seed_duration_seconds",
		Help:    "Time to seed a live view from its baseline snapshot",
		Buckets: prometheus.DefBuckets,
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, transitionTotal, conflictTotal, eventsPublished, viewSeed, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		transitionTotal: transitionTotal,
		conflictTotal:   conflictTotal,
		eventsPublished: eventsPublished,
		viewSeed:        viewSeed,
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
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveTransition records one executed or rejected transition.
func (m *MetricsService) ObserveTransition(collection, action, outcome string) {
	if m == nil {
		return
	}
	m.transitionTotal.WithLabelValues(collection, action, outcome).Inc()
	if outcome == "conflict" {
		m.conflictTotal.Inc()
	}
}

// ObserveEventPublished counts one published change event.
func (m *MetricsService) ObserveEventPublished(collection string) {
	if m == nil {
		return
	}
	m.eventsPublished.WithLabelValues(collection).Inc()
}

// ObserveViewSeed records how long a live view took to seed its baseline.
func (m *MetricsService) ObserveViewSeed(duration time.Duration) {
	if m == nil {
		return
	}
	m.viewSeed.Observe(duration.Seconds())
}
