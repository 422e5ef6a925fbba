package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/frahmantamala/hira-inspection/internal/core/events"
)

const namespace = "hira"

// Metrics holds the service collectors on a dedicated registry.
type Metrics struct {
	registry *prometheus.Registry

	analyses         *prometheus.CounterVec
	analysisDuration *prometheus.HistogramVec
	hazards          *prometheus.CounterVec
	overrides        *prometheus.CounterVec
	deletions        prometheus.Counter
	swept            prometheus.Counter

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		analyses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Inspection analyses by outcome and overall risk level.",
		}, []string{"outcome", "risk_level"}),
		analysisDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Wall time of an inspection analysis from upload to commit.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}, []string{"outcome"}),
		hazards: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hazards_recorded_total",
			Help:      "Hazards stored by source and risk level.",
		}, []string{"source", "risk_level"}),
		overrides: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hazard_overrides_total",
			Help:      "Manual hazard overrides by previous and new risk level.",
		}, []string{"from", "to"}),
		deletions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inspections_deleted_total",
			Help:      "Inspections deleted by their owners.",
		}),
		swept: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inspections_swept_total",
			Help:      "Inspections marked failed after being left in analyzing.",
		}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Subscribe records inspection lifecycle events published on bus.
func (m *Metrics) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeAnalysisCompleted, m.onAnalysisCompleted)
	bus.Subscribe(events.EventTypeAnalysisFailed, m.onAnalysisFailed)
	bus.Subscribe(events.EventTypeHazardAdded, m.onHazardAdded)
	bus.Subscribe(events.EventTypeHazardOverridden, m.onHazardOverridden)
	bus.Subscribe(events.EventTypeInspectionDeleted, m.onInspectionDeleted)
	bus.Subscribe(events.EventTypeInspectionsSwept, m.onInspectionsSwept)
}

func unexpected(e events.Event) error {
	return fmt.Errorf("metrics: unexpected payload %T for %s", e, e.EventType())
}

func (m *Metrics) onAnalysisCompleted(_ context.Context, e events.Event) error {
	ev, ok := e.(*events.AnalysisCompletedEvent)
	if !ok {
		return unexpected(e)
	}
	m.analyses.WithLabelValues("completed", ev.OverallRiskLevel).Inc()
	m.analysisDuration.WithLabelValues("completed").Observe(ev.DurationSeconds)
	for _, level := range ev.HazardLevels {
		m.hazards.WithLabelValues("ai", level).Inc()
	}
	return nil
}

func (m *Metrics) onAnalysisFailed(_ context.Context, e events.Event) error {
	ev, ok := e.(*events.AnalysisFailedEvent)
	if !ok {
		return unexpected(e)
	}
	m.analyses.WithLabelValues("failed", "").Inc()
	m.analysisDuration.WithLabelValues("failed").Observe(ev.DurationSeconds)
	return nil
}

func (m *Metrics) onHazardAdded(_ context.Context, e events.Event) error {
	ev, ok := e.(*events.HazardChangedEvent)
	if !ok {
		return unexpected(e)
	}
	m.hazards.WithLabelValues("manual", ev.RiskLevel).Inc()
	return nil
}

func (m *Metrics) onHazardOverridden(_ context.Context, e events.Event) error {
	ev, ok := e.(*events.HazardChangedEvent)
	if !ok {
		return unexpected(e)
	}
	m.overrides.WithLabelValues(ev.PreviousLevel, ev.RiskLevel).Inc()
	return nil
}

func (m *Metrics) onInspectionDeleted(_ context.Context, _ events.Event) error {
	m.deletions.Inc()
	return nil
}

func (m *Metrics) onInspectionsSwept(_ context.Context, e events.Event) error {
	ev, ok := e.(*events.InspectionsSweptEvent)
	if !ok {
		return unexpected(e)
	}
	m.swept.Add(float64(ev.Count))
	return nil
}

// Middleware records request counts and latency by chi route pattern, so ids
// in the path do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
