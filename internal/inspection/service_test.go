package inspection_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/hira-inspection/internal"
	"github.com/frahmantamala/hira-inspection/internal/core/events"
	"github.com/frahmantamala/hira-inspection/internal/hazard"
	"github.com/frahmantamala/hira-inspection/internal/inspection"
	"github.com/frahmantamala/hira-inspection/internal/risk"
	"github.com/frahmantamala/hira-inspection/internal/storage"
	"github.com/frahmantamala/hira-inspection/internal/vision"
)

const owner, stranger int64 = 7, 8

func candidates(raw string) *vision.Result {
	result, err := vision.ParseResponse(raw)
	Expect(err).NotTo(HaveOccurred())
	return result
}

func fiveHazards() *vision.Result {
	return candidates(`{"hazards": [
		{"description": "a", "category": "Physical", "severity": 1, "likelihood": 2},
		{"description": "b", "category": "Chemical", "severity": 2, "likelihood": 3},
		{"description": "c", "category": "Fire", "severity": 3, "likelihood": 4},
		{"description": "d", "category": "Electrical", "severity": 4, "likelihood": 4},
		{"description": "e", "category": "Mechanical", "severity": 5, "likelihood": 5}
	], "summary": "five hazards"}`)
}

func manual(severity, likelihood int) hazard.Fields {
	req := hazard.CreateHazardRequest{
		Description: hazard.TextOf("manual hazard"),
		Category:    hazard.TextOf("Physical"),
		Severity:    hazard.NumberOf(float64(severity)),
		Likelihood:  hazard.NumberOf(float64(likelihood)),
	}
	f, err := req.ToFields()
	Expect(err).NotTo(HaveOccurred())
	return f
}

var _ = Describe("Service", func() {
	var (
		ctx       context.Context
		repo      *memoryRepo
		analyzer  *fakeAnalyzer
		publisher *recordingPublisher
		store     *storage.LocalStore
		service   *inspection.Service
		cmd       *inspection.AnalyzeCommand
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = newMemoryRepo()
		analyzer = &fakeAnalyzer{result: fiveHazards()}
		publisher = &recordingPublisher{}

		var err error
		store, err = storage.NewLocalStore(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())

		logger := slog.New(slog.NewTextHandler(GinkgoWriter, &slog.HandlerOptions{Level: slog.LevelError}))
		service = inspection.NewService(repo, analyzer, store, publisher, inspection.Options{
			AITimeout:  time.Second,
			StaleAfter: 10 * time.Minute,
		}, logger)

		cmd, err = inspection.AnalyzeRequest{
			ProjectName:    "Tower Crane Site",
			InspectionDate: "2024-06-01",
			Filename:       "site.jpg",
			Image:          []byte("not really a jpeg"),
		}.ToCommand()
		Expect(err).NotTo(HaveOccurred())
	})

	analyze := func() *inspection.AnalysisResult {
		result, err := service.Analyze(ctx, owner, cmd)
		Expect(err).NotTo(HaveOccurred())
		return result
	}

	Describe("Analyze", func() {
		It("persists normalized hazards and completes the inspection", func() {
			result := analyze()

			Expect(result.Inspection.Status).To(Equal(inspection.StatusCompleted))
			Expect(*result.Inspection.AISummary).To(Equal("five hazards"))
			Expect(*result.Inspection.OverallRiskLevel).To(Equal(risk.LevelExtreme))
			Expect(hazard.Scores(result.Hazards)).To(Equal([]int{25, 16, 12, 6, 2}))
			Expect(repo.statusHistory).To(Equal([]inspection.Status{
				inspection.StatusPending, inspection.StatusAnalyzing, inspection.StatusCompleted,
			}))
			Expect(publisher.types()).To(ConsistOf(events.EventTypeAnalysisCompleted))
		})

		It("prefers a valid suggested overall level", func() {
			analyzer.result = candidates(`{"hazards": [{"severity": 1, "likelihood": 1}], "overall_risk_level": "high"}`)
			Expect(*analyze().Inspection.OverallRiskLevel).To(Equal(risk.LevelHigh))
		})

		It("falls back to the rollup when the suggested level is unknown", func() {
			analyzer.result = candidates(`{"hazards": [{"severity": 2, "likelihood": 4}], "overall_risk_level": "Severe"}`)
			Expect(*analyze().Inspection.OverallRiskLevel).To(Equal(risk.LevelMedium))
		})

		It("records Low when no hazards were found", func() {
			analyzer.result = candidates(`{"hazards": []}`)
			result := analyze()
			Expect(result.Hazards).To(BeEmpty())
			Expect(*result.Inspection.OverallRiskLevel).To(Equal(risk.LevelLow))
		})

		It("keeps none of the batch when a hazard insert fails", func() {
			repo.failHazardInsert = 3

			_, err := service.Analyze(ctx, owner, cmd)
			Expect(err).To(HaveOccurred())

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodePersistence))
			id := appErr.Details.(map[string]interface{})["inspection_id"].(int64)

			Expect(repo.hazardCount(id)).To(BeZero())
			insp, err := repo.GetByID(ctx, id, owner)
			Expect(err).NotTo(HaveOccurred())
			Expect(insp.Status).To(Equal(inspection.StatusFailed))
			Expect(insp.OverallRiskLevel).To(BeNil())
			Expect(publisher.types()).To(ConsistOf(events.EventTypeAnalysisFailed))
		})

		It("fails the inspection with an external error when the analyzer fails", func() {
			analyzer.err = errors.New("quota exceeded")
			analyzer.result = nil

			_, err := service.Analyze(ctx, owner, cmd)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeExternal))
			Expect(appErr.StatusCode).To(Equal(502))
			Expect(appErr.Message).To(ContainSubstring("quota exceeded"))

			id := appErr.Details.(map[string]interface{})["inspection_id"].(int64)
			insp, err := repo.GetByID(ctx, id, owner)
			Expect(err).NotTo(HaveOccurred())
			Expect(insp.Status).To(Equal(inspection.StatusFailed))
		})

		It("fails the inspection when the analyzer times out", func() {
			analyzer.block = true
			service = inspection.NewService(repo, analyzer, store, publisher, inspection.Options{AITimeout: 20 * time.Millisecond}, nil)

			_, err := service.Analyze(ctx, owner, cmd)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(errors.Is(appErr, context.DeadlineExceeded)).To(BeTrue())
			Expect(repo.statusHistory).To(ContainElement(inspection.StatusFailed))
		})

		It("discards the result when the stale sweep failed the inspection first", func() {
			analyzer.onAnalyze = func() {
				n, err := repo.FailStale(ctx, time.Now().Add(time.Hour))
				Expect(err).NotTo(HaveOccurred())
				Expect(n).To(BeEquivalentTo(1))
			}

			_, err := service.Analyze(ctx, owner, cmd)
			Expect(errors.Is(err, internal.ErrAnalysisSuperseded)).To(BeTrue())

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(409))
			id := appErr.Details.(map[string]interface{})["inspection_id"].(int64)

			insp, err := repo.GetByID(ctx, id, owner)
			Expect(err).NotTo(HaveOccurred())
			Expect(insp.Status).To(Equal(inspection.StatusFailed))
			Expect(insp.AISummary).To(BeNil())
			Expect(repo.hazardCount(id)).To(BeZero())
			Expect(repo.statusHistory).NotTo(ContainElement(inspection.StatusCompleted))
			Expect(publisher.types()).To(BeEmpty())
		})

		It("returns the committed result when the caller cancels after commit", func() {
			reqCtx, cancel := context.WithCancel(ctx)
			defer cancel()
			repo.onComplete = cancel

			result, err := service.Analyze(reqCtx, owner, cmd)
			Expect(err).NotTo(HaveOccurred())
			Expect(reqCtx.Err()).To(MatchError(context.Canceled))
			Expect(result.Inspection.Status).To(Equal(inspection.StatusCompleted))
			Expect(result.Hazards).To(HaveLen(5))
		})

		It("removes the stored image when the inspection cannot be recorded", func() {
			repo.failCreate = true

			_, err := service.Analyze(ctx, owner, cmd)
			Expect(err).To(HaveOccurred())

			entries, err := os.ReadDir(store.Root())
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(BeEmpty())
			Expect(analyzer.calls).To(BeZero())
		})
	})

	Describe("AddHazard", func() {
		It("recomputes the overall level", func() {
			analyzer.result = candidates(`{"hazards": [{"severity": 1, "likelihood": 2}]}`)
			id := analyze().Inspection.ID

			result, err := service.AddHazard(ctx, id, owner, manual(4, 5))
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Hazard.RiskScore).To(Equal(20))
			Expect(*result.Hazard.Confidence).To(Equal(hazard.ManualConfidence))
			Expect(*result.OverallRiskLevel).To(Equal(risk.LevelExtreme))

			insp, _ := repo.GetByID(ctx, id, owner)
			Expect(*insp.OverallRiskLevel).To(Equal(risk.LevelExtreme))
		})

		It("treats another user's inspection as missing", func() {
			id := analyze().Inspection.ID

			_, err := service.AddHazard(ctx, id, stranger, manual(1, 1))
			Expect(errors.Is(err, internal.ErrInspectionNotFound)).To(BeTrue())
			Expect(repo.hazardCount(id)).To(Equal(5))
		})
	})

	Describe("OverrideHazard", func() {
		var (
			inspectionID int64
			target       *hazard.Hazard
		)

		BeforeEach(func() {
			analyzer.result = candidates(`{"hazards": [
				{"description": "edge", "category": "Physical", "severity": 4, "likelihood": 5},
				{"description": "cable", "category": "Electrical", "severity": 2, "likelihood": 4}
			]}`)
			result := analyze()
			inspectionID = result.Inspection.ID
			target = result.Hazards[0]
			Expect(target.RiskScore).To(Equal(20))
			Expect(target.RiskLevel).To(Equal(risk.LevelExtreme))
		})

		It("re-rates the hazard and the inspection", func() {
			severity := 1
			result, err := service.OverrideHazard(ctx, target.ID, owner, hazard.Override{Severity: &severity})
			Expect(err).NotTo(HaveOccurred())

			Expect(result.Hazard.Severity).To(Equal(1))
			Expect(result.Hazard.Likelihood).To(Equal(5))
			Expect(result.Hazard.RiskScore).To(Equal(5))
			Expect(result.Hazard.RiskLevel).To(Equal(risk.LevelLow))
			Expect(*result.OverallRiskLevel).To(Equal(risk.LevelMedium))

			insp, _ := repo.GetByID(ctx, inspectionID, owner)
			Expect(*insp.OverallRiskLevel).To(Equal(risk.LevelMedium))
			Expect(publisher.types()).To(ContainElement(events.EventTypeHazardOverridden))
		})

		It("is idempotent for the current values", func() {
			before, _ := repo.GetByID(ctx, inspectionID, owner)
			stored, _ := repo.GetHazard(ctx, target.ID, owner)

			description := stored.Description
			category := stored.Category
			severity, likelihood := stored.Severity, stored.Likelihood
			_, err := service.OverrideHazard(ctx, target.ID, owner, hazard.Override{
				Description: &description,
				Category:    &category,
				Severity:    &severity,
				Likelihood:  &likelihood,
			})
			Expect(err).NotTo(HaveOccurred())

			after, _ := repo.GetHazard(ctx, target.ID, owner)
			Expect(*after).To(Equal(*stored))
			insp, _ := repo.GetByID(ctx, inspectionID, owner)
			Expect(insp.OverallRiskLevel).To(Equal(before.OverallRiskLevel))
			Expect(publisher.types()).NotTo(ContainElement(events.EventTypeHazardOverridden))
		})

		It("clamps out-of-range ratings", func() {
			severity, likelihood := 9, -2
			result, err := service.OverrideHazard(ctx, target.ID, owner, hazard.Override{Severity: &severity, Likelihood: &likelihood})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Hazard.Severity).To(Equal(5))
			Expect(result.Hazard.Likelihood).To(Equal(1))
			Expect(result.Hazard.RiskScore).To(Equal(5))
		})

		It("treats another user's hazard as missing", func() {
			severity := 1
			_, err := service.OverrideHazard(ctx, target.ID, stranger, hazard.Override{Severity: &severity})
			Expect(errors.Is(err, internal.ErrHazardNotFound)).To(BeTrue())

			stored, _ := repo.GetHazard(ctx, target.ID, owner)
			Expect(stored.Severity).To(Equal(4))
		})
	})

	Describe("Get", func() {
		It("returns hazards by score and hides other users' inspections", func() {
			id := analyze().Inspection.ID

			detail, err := service.Get(ctx, id, owner)
			Expect(err).NotTo(HaveOccurred())
			Expect(detail.Hazards).To(HaveLen(5))
			Expect(detail.Hazards[0].RiskScore).To(Equal(25))

			_, err = service.Get(ctx, id, stranger)
			Expect(errors.Is(err, internal.ErrInspectionNotFound)).To(BeTrue())
		})
	})

	Describe("Delete", func() {
		It("removes the image, the inspection, and its hazards", func() {
			result := analyze()
			id := result.Inspection.ID
			insp, _ := repo.GetByID(ctx, id, owner)
			Expect(insp.ImagePath).To(BeAnExistingFile())

			Expect(service.Delete(ctx, id, owner)).To(Succeed())

			Expect(insp.ImagePath).NotTo(BeAnExistingFile())
			_, err := repo.GetByID(ctx, id, owner)
			Expect(errors.Is(err, internal.ErrInspectionNotFound)).To(BeTrue())
			Expect(repo.hazardCount(id)).To(BeZero())
		})

		It("tolerates an image that is already gone", func() {
			id := analyze().Inspection.ID
			insp, _ := repo.GetByID(ctx, id, owner)
			Expect(os.Remove(insp.ImagePath)).To(Succeed())

			Expect(service.Delete(ctx, id, owner)).To(Succeed())
		})

		It("refuses other users", func() {
			id := analyze().Inspection.ID

			err := service.Delete(ctx, id, stranger)
			Expect(errors.Is(err, internal.ErrInspectionNotFound)).To(BeTrue())
			_, err = repo.GetByID(ctx, id, owner)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("OpenImage", func() {
		It("opens the stored photo", func() {
			id := analyze().Inspection.ID

			img, err := service.OpenImage(ctx, id, owner)
			Expect(err).NotTo(HaveOccurred())
			defer img.File.Close()
			Expect(img.Name).To(Equal("site.jpg"))
			Expect(img.MIMEType).To(Equal("image/jpeg"))
		})

		It("reports a missing file as not found", func() {
			id := analyze().Inspection.ID
			insp, _ := repo.GetByID(ctx, id, owner)
			Expect(os.Remove(insp.ImagePath)).To(Succeed())

			_, err := service.OpenImage(ctx, id, owner)
			Expect(errors.Is(err, internal.ErrImageNotFound)).To(BeTrue())
		})
	})

	Describe("SweepStale", func() {
		It("fails inspections stuck in analyzing", func() {
			old := time.Now().UTC().Add(-time.Hour)
			stuck := &inspection.Inspection{UserID: owner, Status: inspection.StatusAnalyzing, UpdatedAt: old}
			Expect(repo.Create(ctx, stuck)).To(Succeed())

			n, err := service.SweepStale(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(int64(1)))

			got, _ := repo.GetByID(ctx, stuck.ID, owner)
			Expect(got.Status).To(Equal(inspection.StatusFailed))
			Expect(publisher.types()).To(ContainElement(events.EventTypeInspectionsSwept))
		})
	})
})
