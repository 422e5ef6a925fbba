package swagger_test

import (
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/hira-inspection/api"
	"github.com/frahmantamala/hira-inspection/internal/transport/swagger"
)

var _ = Describe("OpenAPI document", func() {
	It("is a valid OpenAPI 3 document", func() {
		doc, err := swagger.LoadSpec(api.OpenAPI)
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.Info.Title).To(Equal("HIRA Inspection API"))
	})

	It("describes every inspection route", func() {
		doc, err := swagger.LoadSpec(api.OpenAPI)
		Expect(err).NotTo(HaveOccurred())

		for _, path := range []string{
			"/inspections",
			"/inspections/analyze",
			"/inspections/{id}",
			"/inspections/{id}/image",
			"/inspections/{id}/hazards",
			"/inspections/hazards/{hazardId}",
			"/reports/{id}/pdf",
			"/reports/{id}/excel",
			"/dashboard/stats",
		} {
			Expect(doc.Paths.Find(path)).NotTo(BeNil(), path)
		}
	})

	It("rejects malformed documents", func() {
		_, err := swagger.LoadSpec([]byte("openapi: [not"))
		Expect(err).To(HaveOccurred())
	})

	It("serves the raw document", func() {
		rec := httptest.NewRecorder()
		swagger.SpecHandler(api.OpenAPI)(rec, httptest.NewRequest(http.MethodGet, "/openapi.yml", nil))
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.Bytes()).To(Equal(api.OpenAPI))
	})
})
