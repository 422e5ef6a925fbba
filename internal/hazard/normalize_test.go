package hazard_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/hira-inspection/internal"
	"github.com/frahmantamala/hira-inspection/internal/hazard"
	"github.com/frahmantamala/hira-inspection/internal/risk"
)

func decodeCandidate(raw string) hazard.Candidate {
	var c hazard.Candidate
	Expect(json.Unmarshal([]byte(raw), &c)).To(Succeed())
	return c
}

func expectConsistent(f hazard.Fields) {
	Expect(f.Severity).To(BeNumerically(">=", 1))
	Expect(f.Severity).To(BeNumerically("<=", 5))
	Expect(f.Likelihood).To(BeNumerically(">=", 1))
	Expect(f.Likelihood).To(BeNumerically("<=", 5))
	Expect(f.RiskScore).To(Equal(f.Severity * f.Likelihood))
	Expect(f.RiskLevel).To(Equal(risk.Classify(f.RiskScore)))
	Expect(f.Confidence).NotTo(BeNil())
	Expect(*f.Confidence).To(BeNumerically(">=", 0))
	Expect(*f.Confidence).To(BeNumerically("<=", 1))
	Expect(f.Description).NotTo(BeEmpty())
	Expect(f.Category.Valid()).To(BeTrue())
	for _, s := range []*string{f.HazardType, f.EngineeringControl, f.AdministrativeControl, f.PPEControl, f.ImmediateAction} {
		Expect(s).NotTo(BeNil())
		Expect(*s).NotTo(BeEmpty())
	}
}

var _ = Describe("Normalize", func() {
	DescribeTable("is total over malformed input",
		func(raw string) {
			expectConsistent(hazard.Normalize(decodeCandidate(raw)))
		},
		Entry("empty object", `{}`),
		Entry("nulls", `{"description":null,"category":null,"severity":null,"likelihood":null,"confidence":null,"corrective_actions":null}`),
		Entry("out of range", `{"severity":42,"likelihood":-7,"confidence":3.5}`),
		Entry("numeric strings", `{"severity":"4","likelihood":" 2 ","confidence":"0.5"}`),
		Entry("garbage strings", `{"severity":"high","likelihood":"often","confidence":"sure"}`),
		Entry("wrong shapes", `{"description":{"a":1},"category":[1,2],"corrective_actions":"wear gloves"}`),
		Entry("huge numbers", `{"severity":1e300,"likelihood":-1e300}`),
		Entry("not an object", `"just text"`),
		Entry("array", `[1,2,3]`),
	)

	It("fills defaults for an empty candidate", func() {
		f := hazard.Normalize(hazard.Candidate{})

		Expect(f.Description).To(Equal(hazard.DefaultDescription))
		Expect(f.Category).To(Equal(hazard.CategoryPhysical))
		Expect(*f.HazardType).To(Equal(hazard.DefaultHazardType))
		Expect(f.Severity).To(Equal(3))
		Expect(f.Likelihood).To(Equal(3))
		Expect(f.RiskScore).To(Equal(9))
		Expect(f.RiskLevel).To(Equal(risk.LevelMedium))
		Expect(*f.EngineeringControl).To(Equal(hazard.DefaultEngineeringControl))
		Expect(*f.AdministrativeControl).To(Equal(hazard.DefaultAdministrativeControl))
		Expect(*f.PPEControl).To(Equal(hazard.DefaultPPEControl))
		Expect(*f.ImmediateAction).To(Equal(hazard.DefaultImmediateAction))
		Expect(*f.Confidence).To(Equal(0.8))
	})

	It("ignores a supplied risk score and level", func() {
		f := hazard.Normalize(decodeCandidate(`{"severity":2,"likelihood":2,"risk_score":25,"risk_level":"Extreme"}`))
		Expect(f.RiskScore).To(Equal(4))
		Expect(f.RiskLevel).To(Equal(risk.LevelLow))
	})

	It("clamps and rounds ratings", func() {
		f := hazard.Normalize(decodeCandidate(`{"severity":4.6,"likelihood":9,"confidence":-1}`))
		Expect(f.Severity).To(Equal(5))
		Expect(f.Likelihood).To(Equal(5))
		Expect(f.RiskLevel).To(Equal(risk.LevelExtreme))
		Expect(*f.Confidence).To(Equal(0.0))
	})

	It("treats zero ratings as absent", func() {
		f := hazard.Normalize(decodeCandidate(`{"severity":0,"likelihood":0,"confidence":0}`))
		Expect(f.Severity).To(Equal(3))
		Expect(f.Likelihood).To(Equal(3))
		Expect(*f.Confidence).To(Equal(0.8))
	})

	It("falls back to Physical for unknown categories and canonicalises known ones", func() {
		Expect(hazard.Normalize(decodeCandidate(`{"category":"Radiation"}`)).Category).To(Equal(hazard.CategoryPhysical))
		Expect(hazard.Normalize(decodeCandidate(`{"category":"electrical"}`)).Category).To(Equal(hazard.CategoryElectrical))
	})

	It("keeps supplied corrective actions", func() {
		f := hazard.Normalize(decodeCandidate(`{"description":"Open trench","corrective_actions":{"engineering":"Install shoring","ppe":""}}`))
		Expect(f.Description).To(Equal("Open trench"))
		Expect(*f.EngineeringControl).To(Equal("Install shoring"))
		Expect(*f.PPEControl).To(Equal(hazard.DefaultPPEControl))
	})
})

var _ = Describe("ParseCandidates", func() {
	It("decodes every array element", func() {
		cs := hazard.ParseCandidates(json.RawMessage(`[{"severity":5},"oops",null]`))
		Expect(cs).To(HaveLen(3))
		fields := hazard.NormalizeAll(cs)
		Expect(fields[0].Severity).To(Equal(5))
		Expect(fields[1].Description).To(Equal(hazard.DefaultDescription))
	})

	It("returns no candidates for non-arrays", func() {
		Expect(hazard.ParseCandidates(json.RawMessage(`{"severity":5}`))).To(BeEmpty())
		Expect(hazard.ParseCandidates(nil)).To(BeEmpty())
	})
})

var _ = Describe("CreateHazardRequest", func() {
	decode := func(raw string) hazard.CreateHazardRequest {
		var r hazard.CreateHazardRequest
		Expect(json.Unmarshal([]byte(raw), &r)).To(Succeed())
		return r
	}

	It("builds rated fields with full confidence", func() {
		f, err := decode(`{"description":"Loose cable","category":"Electrical","severity":"4","likelihood":7}`).ToFields()
		Expect(err).NotTo(HaveOccurred())
		Expect(f.Severity).To(Equal(4))
		Expect(f.Likelihood).To(Equal(5))
		Expect(f.RiskScore).To(Equal(20))
		Expect(f.RiskLevel).To(Equal(risk.LevelExtreme))
		Expect(*f.Confidence).To(Equal(1.0))
		Expect(f.HazardType).To(BeNil())
	})

	It("rejects missing required fields", func() {
		_, err := decode(`{"description":"","category":"Fire"}`).ToFields()
		Expect(err).To(HaveOccurred())

		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		details := appErr.Details.(internal.ValidationErrors)
		fields := []string{}
		for _, e := range details.Errors {
			fields = append(fields, e.Field)
		}
		Expect(fields).To(ConsistOf("description", "severity", "likelihood"))
	})

	It("rejects unknown categories", func() {
		_, err := decode(`{"description":"x","category":"Cosmic","severity":1,"likelihood":1}`).ToFields()
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("ApplyOverride", func() {
	var h *hazard.Hazard

	BeforeEach(func() {
		f := hazard.Normalize(decodeCandidate(`{"description":"Unguarded edge","category":"Physical","severity":4,"likelihood":5}`))
		h = hazard.New(1, f)
	})

	It("starts as Extreme", func() {
		Expect(h.RiskScore).To(Equal(20))
		Expect(h.RiskLevel).To(Equal(risk.LevelExtreme))
	})

	It("keeps likelihood when only severity is supplied", func() {
		var req hazard.UpdateHazardRequest
		Expect(json.Unmarshal([]byte(`{"severity":1}`), &req)).To(Succeed())
		o, err := req.ToOverride()
		Expect(err).NotTo(HaveOccurred())

		h.ApplyOverride(o)
		Expect(h.Severity).To(Equal(1))
		Expect(h.Likelihood).To(Equal(5))
		Expect(h.RiskScore).To(Equal(5))
		Expect(h.RiskLevel).To(Equal(risk.LevelLow))
		Expect(h.Description).To(Equal("Unguarded edge"))
	})

	It("is idempotent for the current values", func() {
		before := *h
		severity, likelihood := h.Severity, h.Likelihood
		category := h.Category
		h.ApplyOverride(hazard.Override{
			Description: &before.Description,
			Category:    &category,
			Severity:    &severity,
			Likelihood:  &likelihood,
		})
		Expect(*h).To(Equal(before))
	})

	It("rejects unknown categories", func() {
		var req hazard.UpdateHazardRequest
		Expect(json.Unmarshal([]byte(`{"category":"Cosmic"}`), &req)).To(Succeed())
		_, err := req.ToOverride()
		Expect(err).To(HaveOccurred())
	})
})
