package inspection_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/hira-inspection/internal"
	"github.com/frahmantamala/hira-inspection/internal/inspection"
	"github.com/frahmantamala/hira-inspection/internal/risk"
)

func fieldsOf(err error) []string {
	appErr, ok := internal.IsAppError(err)
	Expect(ok).To(BeTrue())
	details, ok := appErr.Details.(internal.ValidationErrors)
	Expect(ok).To(BeTrue())
	fields := make([]string, len(details.Errors))
	for i, e := range details.Errors {
		fields[i] = e.Field
	}
	return fields
}

var _ = Describe("AnalyzeRequest", func() {
	valid := func() inspection.AnalyzeRequest {
		return inspection.AnalyzeRequest{
			ProjectName:    "  Depot  ",
			InspectionDate: "2024-02-29",
			Location:       " ",
			Latitude:       "-6.2",
			Longitude:      "106.8",
			Filename:       "photo.PNG",
			Image:          []byte{1, 2, 3},
		}
	}

	It("builds a trimmed command", func() {
		cmd, err := valid().ToCommand()
		Expect(err).NotTo(HaveOccurred())
		Expect(cmd.ProjectName).To(Equal("Depot"))
		Expect(cmd.Location).To(BeNil())
		Expect(*cmd.Latitude).To(Equal(-6.2))
		Expect(cmd.Extension).To(Equal(".png"))
		Expect(cmd.MIMEType).To(Equal("image/png"))
	})

	It("requires the image, project name and date", func() {
		_, err := inspection.AnalyzeRequest{}.ToCommand()
		Expect(fieldsOf(err)).To(ConsistOf("image", "project_name", "inspection_date"))
	})

	It("rejects non-image uploads", func() {
		req := valid()
		req.Filename = "report.pdf"
		_, err := req.ToCommand()
		Expect(fieldsOf(err)).To(ConsistOf("image"))
	})

	It("rejects malformed dates and coordinates", func() {
		req := valid()
		req.InspectionDate = "01/06/2024"
		req.Latitude = "north"
		req.Longitude = "200"
		req.LocationAccuracy = "NaN"
		_, err := req.ToCommand()
		Expect(fieldsOf(err)).To(ConsistOf("inspection_date", "latitude", "longitude", "location_accuracy"))
	})
})

var _ = Describe("NewListQuery", func() {
	It("defaults page and limit", func() {
		q, err := inspection.NewListQuery("", "", "", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(q.Page).To(Equal(1))
		Expect(q.Limit).To(Equal(inspection.DefaultPageSize))
		Expect(q.Offset()).To(BeZero())
	})

	DescribeTable("clamps the limit to [1,100]",
		func(limit string, want int) {
			q, err := inspection.NewListQuery("3", limit, "", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(q.Limit).To(Equal(want))
			Expect(q.Offset()).To(Equal(2 * want))
		},
		Entry("zero", "0", 1),
		Entry("negative", "-5", 1),
		Entry("in range", "25", 25),
		Entry("too large", "1000", 100),
	)

	It("parses the risk level filter", func() {
		q, err := inspection.NewListQuery("", "", "extreme", " tower ")
		Expect(err).NotTo(HaveOccurred())
		Expect(*q.RiskLevel).To(Equal(risk.LevelExtreme))
		Expect(q.Search).To(Equal("tower"))

		_, err = inspection.NewListQuery("", "", "Severe", "")
		Expect(fieldsOf(err)).To(ConsistOf("risk_level"))
	})
})
