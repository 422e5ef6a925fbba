package report

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/frahmantamala/hira-inspection/internal/imaging"
	"github.com/frahmantamala/hira-inspection/internal/risk"
)

const (
	pageMargin     = 15.0
	bottomMargin   = 20.0
	contentWidth   = 210 - 2*pageMargin
	lineHeight     = 5.0
	photoMaxHeight = 90.0
	pdfPhotoMaxDim = 1200
	fontFamily     = "Helvetica"
)

// PDFRenderer renders a report as an A4 PDF document.
type PDFRenderer struct{}

func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

func (PDFRenderer) ContentType() string { return "application/pdf" }

func (PDFRenderer) Extension() string { return "pdf" }

func (PDFRenderer) Render(r *Report) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, bottomMargin)
	pdf.SetTitle(Title, true)
	pdf.SetCreator("HIRA Inspection", true)
	pdf.SetCreationDate(r.GeneratedAt)
	pdf.AliasNbPages("")

	w := &pdfWriter{
		pdf:       pdf,
		tr:        pdf.UnicodeTranslatorFromDescriptor(""),
		generated: r.GeneratedAt,
	}
	pdf.SetFooterFunc(w.footer)
	pdf.AddPage()

	w.banner(r)
	w.details(r)
	w.summary(r)
	w.photo(r)
	w.hazardTable(r)
	w.actionPlan(r)

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

type pdfWriter struct {
	pdf       *fpdf.Fpdf
	tr        func(string) string
	generated time.Time
}

func rgb(hex string) (int, int, int) {
	hex = strings.TrimPrefix(hex, "#")
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil || len(hex) != 6 {
		return 0, 0, 0
	}
	return int(v >> 16 & 0xFF), int(v >> 8 & 0xFF), int(v & 0xFF)
}

func levelColor(l *risk.Level) string {
	if l == nil {
		return "#6B7280"
	}
	return l.Color()
}

// ensureSpace starts a new page when h does not fit above the bottom margin.
func (w *pdfWriter) ensureSpace(h float64) bool {
	_, pageH := w.pdf.GetPageSize()
	if w.pdf.GetY()+h > pageH-bottomMargin {
		w.pdf.AddPage()
		return true
	}
	return false
}

func (w *pdfWriter) sectionTitle(title string) {
	p := w.pdf
	w.ensureSpace(20)
	p.Ln(3)
	p.SetFont(fontFamily, "B", 12)
	p.SetTextColor(rgb(brandColor))
	p.CellFormat(contentWidth, 8, w.tr(title), "B", 1, "L", false, 0, "")
	p.SetTextColor(0, 0, 0)
	p.Ln(2)
}

func (w *pdfWriter) banner(r *Report) {
	p := w.pdf
	insp := r.Inspection

	p.SetFillColor(rgb(brandColor))
	p.SetTextColor(255, 255, 255)
	p.SetFont(fontFamily, "B", 15)
	p.CellFormat(contentWidth, 12, w.tr(Title), "", 1, "C", true, 0, "")
	p.SetFont(fontFamily, "", 10)
	p.CellFormat(contentWidth, 7, w.tr(insp.ProjectName), "", 1, "C", true, 0, "")
	p.Ln(4)

	p.SetFillColor(rgb(levelColor(insp.OverallRiskLevel)))
	p.SetFont(fontFamily, "B", 12)
	label := "Overall Risk Level: " + levelOr(insp.OverallRiskLevel, "N/A")
	p.CellFormat(contentWidth, 9, w.tr(label), "", 1, "C", true, 0, "")
	p.SetTextColor(0, 0, 0)
}

func (w *pdfWriter) details(r *Report) {
	p := w.pdf
	insp := r.Inspection

	rows := [][2]string{
		{"Project", insp.ProjectName},
		{"Location", valueOr(insp.Location, "N/A")},
	}
	if insp.Latitude != nil && insp.Longitude != nil {
		rows = append(rows, [2]string{"GPS", fmt.Sprintf("%.6f, %.6f", *insp.Latitude, *insp.Longitude)})
	}
	rows = append(rows,
		[2]string{"Inspection Date", insp.InspectionDate},
		[2]string{"Inspector", valueOr(insp.InspectorName, "N/A")},
		[2]string{"Department", valueOr(insp.Department, "N/A")},
		[2]string{"Hazards", fmt.Sprintf("%d total | Extreme %d | High %d | Medium %d | Low %d",
			len(r.Hazards), r.Counts[risk.LevelExtreme], r.Counts[risk.LevelHigh],
			r.Counts[risk.LevelMedium], r.Counts[risk.LevelLow])},
	)
	if notes := valueOr(insp.Notes, ""); notes != "" {
		rows = append(rows, [2]string{"Notes", notes})
	}

	w.sectionTitle("Inspection Details")
	const labelWidth = 45.0
	p.SetFillColor(248, 250, 252)
	for i, row := range rows {
		fill := i%2 == 0
		lines := p.SplitLines([]byte(w.tr(row[1])), contentWidth-labelWidth-2)
		h := float64(max(len(lines), 1)) * 6
		x, y := p.GetXY()
		p.SetFont(fontFamily, "B", 10)
		p.CellFormat(labelWidth, h, w.tr(row[0]), "", 0, "L", fill, 0, "")
		p.SetFont(fontFamily, "", 10)
		p.MultiCell(contentWidth-labelWidth, 6, w.tr(row[1]), "", "L", fill)
		p.SetXY(x, y+h)
	}
}

func (w *pdfWriter) summary(r *Report) {
	w.sectionTitle("AI Analysis Summary")
	p := w.pdf
	p.SetFont(fontFamily, "", 10)
	p.MultiCell(contentWidth, lineHeight, w.tr(valueOr(r.Inspection.AISummary, "No summary available.")), "", "L", false)
}

// pdfImage prepares the photo for embedding. fpdf reads JPEG, PNG and GIF
// only, anything else is converted to JPEG.
func pdfImage(data []byte, mimeType string) ([]byte, string, bool) {
	if len(data) == 0 {
		return nil, "", false
	}
	data, mimeType, _ = imaging.Downscale(data, mimeType, pdfPhotoMaxDim)
	switch mimeType {
	case "image/jpeg":
		return data, "JPG", true
	case "image/png":
		return data, "PNG", true
	case "image/gif":
		return data, "GIF", true
	}
	jpg, err := imaging.EncodeJPEG(data)
	if err != nil {
		return nil, "", false
	}
	return jpg, "JPG", true
}

func (w *pdfWriter) photo(r *Report) {
	w.sectionTitle("Inspection Photo")
	p := w.pdf

	if data, imgType, ok := pdfImage(r.Photo, r.PhotoMIME); ok {
		opts := fpdf.ImageOptions{ImageType: imgType}
		info := p.RegisterImageOptionsReader("photo", opts, bytes.NewReader(data))
		if p.Ok() && info != nil && info.Width() > 0 && info.Height() > 0 {
			width, height := contentWidth, contentWidth*info.Height()/info.Width()
			if height > photoMaxHeight {
				width, height = photoMaxHeight*info.Width()/info.Height(), photoMaxHeight
			}
			w.ensureSpace(height)
			x := pageMargin + (contentWidth-width)/2
			y := p.GetY()
			p.ImageOptions("photo", x, y, width, height, false, opts, 0, "")
			p.SetY(y + height + 2)
			return
		}
		// a corrupt photo must not fail the whole report
		p.ClearError()
	}

	p.SetFont(fontFamily, "I", 10)
	p.SetTextColor(107, 114, 128)
	p.CellFormat(contentWidth, 10, "Photo not available", "1", 1, "C", false, 0, "")
	p.SetTextColor(0, 0, 0)
}

var (
	hazardColumns = []string{"#", "Description", "Category", "S", "L", "Score", "Level"}
	hazardWidths  = []float64{8, 74, 26, 12, 12, 16, 32}
)

func (w *pdfWriter) hazardHeader() {
	p := w.pdf
	p.SetFont(fontFamily, "B", 9)
	p.SetFillColor(rgb(brandColor))
	p.SetTextColor(255, 255, 255)
	for i, c := range hazardColumns {
		p.CellFormat(hazardWidths[i], 7, c, "1", 0, "C", true, 0, "")
	}
	p.Ln(-1)
	p.SetTextColor(0, 0, 0)
}

func (w *pdfWriter) hazardTable(r *Report) {
	w.sectionTitle("Identified Hazards")
	p := w.pdf

	if len(r.Hazards) == 0 {
		p.SetFont(fontFamily, "I", 10)
		p.CellFormat(contentWidth, 8, "No hazards were identified.", "", 1, "L", false, 0, "")
		return
	}

	w.hazardHeader()
	p.SetFont(fontFamily, "", 9)
	for i, h := range r.Hazards {
		desc := w.tr(h.Description)
		lines := p.SplitLines([]byte(desc), hazardWidths[1]-2)
		rowH := float64(max(len(lines), 1)) * lineHeight
		if w.ensureSpace(rowH) {
			w.hazardHeader()
			p.SetFont(fontFamily, "", 9)
		}

		x, y := p.GetXY()
		p.CellFormat(hazardWidths[0], rowH, strconv.Itoa(i+1), "1", 0, "C", false, 0, "")
		p.MultiCell(hazardWidths[1], lineHeight, desc, "1", "L", false)
		p.SetXY(x+hazardWidths[0]+hazardWidths[1], y)
		p.CellFormat(hazardWidths[2], rowH, w.tr(string(h.Category)), "1", 0, "C", false, 0, "")
		p.CellFormat(hazardWidths[3], rowH, strconv.Itoa(h.Severity), "1", 0, "C", false, 0, "")
		p.CellFormat(hazardWidths[4], rowH, strconv.Itoa(h.Likelihood), "1", 0, "C", false, 0, "")
		p.CellFormat(hazardWidths[5], rowH, strconv.Itoa(h.RiskScore), "1", 0, "C", false, 0, "")

		p.SetFillColor(rgb(h.RiskLevel.Color()))
		p.SetTextColor(255, 255, 255)
		p.SetFont(fontFamily, "B", 9)
		p.CellFormat(hazardWidths[6], rowH, string(h.RiskLevel), "1", 0, "C", true, 0, "")
		p.SetTextColor(0, 0, 0)
		p.SetFont(fontFamily, "", 9)
		p.SetXY(x, y+rowH)
	}
}

func (w *pdfWriter) actionPlan(r *Report) {
	if len(r.Hazards) == 0 {
		return
	}
	w.sectionTitle("Corrective Action Plan")
	p := w.pdf

	for i, h := range r.Hazards {
		actions := [][2]string{
			{"Immediate", valueOr(h.ImmediateAction, "")},
			{"Engineering", valueOr(h.EngineeringControl, "")},
			{"Administrative", valueOr(h.AdministrativeControl, "")},
			{"PPE", valueOr(h.PPEControl, "")},
		}

		w.ensureSpace(24)
		y := p.GetY()
		p.SetFillColor(rgb(h.RiskLevel.Color()))
		p.Rect(pageMargin, y, 2, 7, "F")
		p.SetX(pageMargin + 4)
		p.SetFont(fontFamily, "B", 10)
		heading := fmt.Sprintf("%d. %s (%s, score %d)", i+1, valueOr(h.HazardType, h.Description), h.RiskLevel, h.RiskScore)
		p.CellFormat(contentWidth-4, 7, w.tr(heading), "", 1, "L", false, 0, "")

		for _, a := range actions {
			if a[1] == "" {
				continue
			}
			p.SetX(pageMargin + 4)
			p.SetFont(fontFamily, "B", 9)
			p.CellFormat(28, lineHeight, a[0]+":", "", 0, "L", false, 0, "")
			p.SetFont(fontFamily, "", 9)
			p.MultiCell(contentWidth-32, lineHeight, w.tr(a[1]), "", "L", false)
		}
		p.Ln(2)
	}
}

func (w *pdfWriter) footer() {
	p := w.pdf
	p.SetY(-15)
	p.SetFont(fontFamily, "I", 8)
	p.SetTextColor(107, 114, 128)
	generated := "Generated " + w.generated.UTC().Format("2006-01-02 15:04 UTC")
	p.CellFormat(contentWidth/2, 10, generated, "", 0, "L", false, 0, "")
	p.CellFormat(contentWidth/2, 10, fmt.Sprintf("Page %d/{nb}", p.PageNo()), "", 0, "R", false, 0, "")
	p.SetTextColor(0, 0, 0)
}
