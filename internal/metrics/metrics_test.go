package metrics

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/frahmantamala/hira-inspection/internal/core/events"
)

var _ = Describe("Metrics", func() {
	var (
		m   *Metrics
		bus *events.EventBus
		ctx context.Context
	)

	BeforeEach(func() {
		m = New()
		bus = events.NewEventBus(slog.New(slog.NewTextHandler(io.Discard, nil)))
		m.Subscribe(bus)
		ctx = context.Background()
	})

	It("counts completed analyses and their hazards", func() {
		Expect(bus.PublishSync(ctx, events.NewAnalysisCompletedEvent(1, 2, "Extreme", []string{"Extreme", "High", "High"}, 3.2))).To(Succeed())

		Expect(testutil.ToFloat64(m.analyses.WithLabelValues("completed", "Extreme"))).To(Equal(1.0))
		Expect(testutil.ToFloat64(m.hazards.WithLabelValues("ai", "High"))).To(Equal(2.0))
		Expect(testutil.CollectAndCount(m.analysisDuration)).To(Equal(1))
	})

	It("counts failures, manual hazards, overrides, deletions and sweeps", func() {
		Expect(bus.PublishSync(ctx, events.NewAnalysisFailedEvent(1, 2, "ai", "timeout", 60))).To(Succeed())
		Expect(bus.PublishSync(ctx, events.NewHazardAddedEvent(1, 9, "Low", "Low"))).To(Succeed())
		Expect(bus.PublishSync(ctx, events.NewHazardOverriddenEvent(1, 9, "Extreme", "Low", "Medium"))).To(Succeed())
		Expect(bus.PublishSync(ctx, events.NewInspectionDeletedEvent(1, 2))).To(Succeed())
		Expect(bus.PublishSync(ctx, events.NewInspectionsSweptEvent(3))).To(Succeed())

		Expect(testutil.ToFloat64(m.analyses.WithLabelValues("failed", ""))).To(Equal(1.0))
		Expect(testutil.ToFloat64(m.hazards.WithLabelValues("manual", "Low"))).To(Equal(1.0))
		Expect(testutil.ToFloat64(m.overrides.WithLabelValues("Extreme", "Low"))).To(Equal(1.0))
		Expect(testutil.ToFloat64(m.deletions)).To(Equal(1.0))
		Expect(testutil.ToFloat64(m.swept)).To(Equal(3.0))
	})

	It("rejects payloads of the wrong type", func() {
		err := m.onAnalysisCompleted(ctx, events.NewInspectionsSweptEvent(1))
		Expect(err).To(HaveOccurred())
	})

	It("labels requests by route pattern", func() {
		r := chi.NewRouter()
		r.Use(m.Middleware)
		r.Get("/inspections/{id}", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		for _, path := range []string{"/inspections/1", "/inspections/2"} {
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
		}

		Expect(testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/inspections/{id}", "404"))).To(Equal(2.0))
	})

	It("exposes the registry over HTTP", func() {
		Expect(bus.PublishSync(ctx, events.NewInspectionDeletedEvent(1, 2))).To(Succeed())

		rec := httptest.NewRecorder()
		m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("hira_inspections_deleted_total 1"))
	})
})
