package report_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xuri/excelize/v2"

	"github.com/frahmantamala/hira-inspection/internal"
	"github.com/frahmantamala/hira-inspection/internal/hazard"
	"github.com/frahmantamala/hira-inspection/internal/inspection"
	"github.com/frahmantamala/hira-inspection/internal/report"
	"github.com/frahmantamala/hira-inspection/internal/risk"
)

func strPtr(s string) *string { return &s }

func rated(id int64, desc string, severity, likelihood int) *hazard.Hazard {
	f := hazard.Fields{
		Description:     desc,
		Category:        hazard.CategoryPhysical,
		HazardType:      strPtr("Fall from Height"),
		ImmediateAction: strPtr("Stop work"),
		PPEControl:      strPtr("Harness"),
	}
	f.Rate(severity, likelihood)
	h := hazard.New(1, f)
	h.ID = id
	return h
}

func sampleDetail() *inspection.Detail {
	level := risk.LevelExtreme
	return &inspection.Detail{
		Inspection: &inspection.Inspection{
			ID:               1,
			UserID:           7,
			ProjectName:      "Tower B / Level 3",
			Location:         strPtr("Jakarta"),
			InspectionDate:   "2024-05-01",
			Status:           inspection.StatusCompleted,
			OverallRiskLevel: &level,
			AISummary:        strPtr("Scaffold edge unprotected."),
		},
		Hazards: []*hazard.Hazard{
			rated(1, "Loose cable", 2, 2),
			rated(2, "Open scaffold edge", 5, 5),
			rated(3, "Unguarded grinder", 3, 4),
		},
	}
}

func samplePNG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 60, 40))
	for x := 0; x < 60; x++ {
		img.Set(x, x%40, color.RGBA{B: 200, A: 255})
	}
	var buf bytes.Buffer
	Expect(png.Encode(&buf, img)).To(Succeed())
	return buf.Bytes()
}

type stubReader struct {
	detail   *inspection.Detail
	err      error
	imgPath  string
	imgMIME  string
	imgCalls int
}

func (s *stubReader) Get(_ context.Context, id, userID int64) (*inspection.Detail, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.detail == nil || s.detail.Inspection.ID != id || s.detail.Inspection.UserID != userID {
		return nil, internal.ErrInspectionNotFound
	}
	return s.detail, nil
}

func (s *stubReader) OpenImage(_ context.Context, _, _ int64) (*inspection.Image, error) {
	s.imgCalls++
	if s.imgPath == "" {
		return nil, internal.ErrImageNotFound
	}
	f, err := os.Open(s.imgPath)
	if err != nil {
		return nil, err
	}
	return &inspection.Image{File: f, Name: "site.png", MIMEType: s.imgMIME}, nil
}

var _ = Describe("Assemble", func() {
	It("orders hazards by score and counts levels", func() {
		rep := report.Assemble(sampleDetail(), time.Now())
		Expect(rep.Hazards).To(HaveLen(3))
		Expect(rep.Hazards[0].RiskScore).To(Equal(25))
		Expect(rep.Hazards[1].RiskScore).To(Equal(12))
		Expect(rep.Hazards[2].RiskScore).To(Equal(4))
		Expect(rep.Counts).To(Equal(map[risk.Level]int{
			risk.LevelLow: 1, risk.LevelMedium: 0, risk.LevelHigh: 1, risk.LevelExtreme: 1,
		}))
	})

	It("leaves the caller's hazard order alone", func() {
		d := sampleDetail()
		report.Assemble(d, time.Now())
		Expect(d.Hazards[0].Description).To(Equal("Loose cable"))
	})
})

var _ = Describe("Filename", func() {
	It("replaces unsafe characters in the project name", func() {
		i := sampleDetail().Inspection
		Expect(report.Filename(i, "pdf")).To(Equal("HIRA_Report_Tower_B___Level_3_2024-05-01.pdf"))
	})
})

var _ = Describe("ScoreRange", func() {
	DescribeTable("matches the classification bands",
		func(l risk.Level, lo, hi int) {
			gotLo, gotHi := report.ScoreRange(l)
			Expect(gotLo).To(Equal(lo))
			Expect(gotHi).To(Equal(hi))
		},
		Entry("low", risk.LevelLow, 1, 5),
		Entry("medium", risk.LevelMedium, 6, 10),
		Entry("high", risk.LevelHigh, 11, 15),
		Entry("extreme", risk.LevelExtreme, 16, 25),
	)
})

var _ = Describe("Renderers", func() {
	It("renders a PDF with the embedded photo", func() {
		rep := report.Assemble(sampleDetail(), time.Now())
		rep.Photo, rep.PhotoMIME = samplePNG(), "image/png"

		out, err := report.NewPDFRenderer().Render(rep)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(out[:5])).To(Equal("%PDF-"))
	})

	It("renders a PDF when the photo is corrupt or missing", func() {
		rep := report.Assemble(sampleDetail(), time.Now())
		rep.Photo, rep.PhotoMIME = []byte("garbage"), "image/jpeg"
		out, err := report.NewPDFRenderer().Render(rep)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(out[:5])).To(Equal("%PDF-"))

		rep.Photo = nil
		_, err = report.NewPDFRenderer().Render(rep)
		Expect(err).NotTo(HaveOccurred())
	})

	It("renders a PDF for an inspection without hazards", func() {
		d := sampleDetail()
		d.Hazards = nil
		d.Inspection.OverallRiskLevel = nil
		_, err := report.NewPDFRenderer().Render(report.Assemble(d, time.Now()))
		Expect(err).NotTo(HaveOccurred())
	})

	It("renders a workbook with summary, hazards and matrix sheets", func() {
		out, err := report.NewExcelRenderer().Render(report.Assemble(sampleDetail(), time.Now()))
		Expect(err).NotTo(HaveOccurred())

		f, err := excelize.OpenReader(bytes.NewReader(out))
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()

		Expect(f.GetSheetList()).To(Equal([]string{report.SheetSummary, report.SheetHazards, report.SheetMatrix}))

		v, err := f.GetCellValue(report.SheetSummary, "B7")
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal("Extreme"))

		v, err = f.GetCellValue(report.SheetHazards, "B2")
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal("Open scaffold edge"))
		v, err = f.GetCellValue(report.SheetHazards, "H2")
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal("Extreme"))

		// top-right cell of the matrix is S=5, L=5
		v, err = f.GetCellValue(report.SheetMatrix, "F3")
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal("25"))
		v, err = f.GetCellValue(report.SheetMatrix, "B7")
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal("1"))
		v, err = f.GetCellValue(report.SheetMatrix, "A9")
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal("Low (1-5)"))
	})
})

var _ = Describe("Service", func() {
	var (
		reader  *stubReader
		service *report.Service
	)

	BeforeEach(func() {
		path := filepath.Join(GinkgoT().TempDir(), "site.png")
		Expect(os.WriteFile(path, samplePNG(), 0o600)).To(Succeed())
		reader = &stubReader{detail: sampleDetail(), imgPath: path, imgMIME: "image/png"}
		service = report.NewService(reader, slog.New(slog.NewTextHandler(io.Discard, nil)))
	})

	It("generates a PDF including the photo", func() {
		doc, err := service.Generate(context.Background(), 1, 7, report.FormatPDF)
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.ContentType).To(Equal("application/pdf"))
		Expect(doc.Filename).To(HaveSuffix(".pdf"))
		Expect(reader.imgCalls).To(Equal(1))
	})

	It("does not load the photo for spreadsheets", func() {
		doc, err := service.Generate(context.Background(), 1, 7, report.FormatExcel)
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.Filename).To(HaveSuffix(".xlsx"))
		Expect(reader.imgCalls).To(BeZero())
	})

	It("still generates when the image is gone", func() {
		reader.imgPath = ""
		_, err := service.Generate(context.Background(), 1, 7, report.FormatPDF)
		Expect(err).NotTo(HaveOccurred())
	})

	It("hides other users' inspections", func() {
		_, err := service.Generate(context.Background(), 1, 8, report.FormatPDF)
		Expect(err).To(MatchError(internal.ErrInspectionNotFound))
	})

	It("rejects unknown formats", func() {
		_, err := service.Generate(context.Background(), 1, 7, report.Format("docx"))
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.StatusCode).To(Equal(http.StatusBadRequest))
	})
})

var _ = Describe("Handler", func() {
	var router chi.Router

	BeforeEach(func() {
		service := report.NewService(&stubReader{detail: sampleDetail()}, slog.New(slog.NewTextHandler(io.Discard, nil)))
		handler := report.NewHandler(service)
		handler.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("X-Test-User") != "" {
					r = r.WithContext(internal.ContextWithPrincipal(r.Context(), internal.Principal{UserID: 7}))
				}
				next.ServeHTTP(w, r)
			})
		})
		router.Get("/reports/{id}/pdf", handler.PDF)
		router.Get("/reports/{id}/excel", handler.Excel)
	})

	get := func(path string, authed bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if authed {
			req.Header.Set("X-Test-User", "1")
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	It("sends the PDF as an attachment", func() {
		rec := get("/reports/1/pdf", true)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("Content-Type")).To(Equal("application/pdf"))
		Expect(rec.Header().Get("Content-Disposition")).To(Equal(`attachment; filename="HIRA_Report_Tower_B___Level_3_2024-05-01.pdf"`))
		Expect(rec.Body.String()).To(HavePrefix("%PDF-"))
	})

	It("sends the workbook as an attachment", func() {
		rec := get("/reports/1/excel", true)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("Content-Disposition")).To(ContainSubstring(".xlsx"))
	})

	It("returns 404 for unknown inspections", func() {
		Expect(get("/reports/99/pdf", true).Code).To(Equal(http.StatusNotFound))
	})

	It("requires authentication", func() {
		Expect(get("/reports/1/pdf", false).Code).To(Equal(http.StatusUnauthorized))
	})
})
