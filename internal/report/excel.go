package report

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/frahmantamala/hira-inspection/internal/risk"
)

const (
	SheetSummary = "Inspection Summary"
	SheetHazards = "Hazard Details"
	SheetMatrix  = "Risk Matrix"
)

// ExcelRenderer renders a report as an .xlsx workbook with summary, hazard
// and risk matrix sheets.
type ExcelRenderer struct{}

func NewExcelRenderer() *ExcelRenderer {
	return &ExcelRenderer{}
}

func (ExcelRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (ExcelRenderer) Extension() string {
	return "xlsx"
}

func (e ExcelRenderer) Render(r *Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetDocProps(&excelize.DocProperties{
		Creator: "HIRA Inspection",
		Title:   Title,
		Created: r.GeneratedAt.Format("2006-01-02T15:04:05Z07:00"),
	}); err != nil {
		return nil, err
	}

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, err
	}
	if err := writeSummarySheet(f, r); err != nil {
		return nil, fmt.Errorf("summary sheet: %w", err)
	}

	if _, err := f.NewSheet(SheetHazards); err != nil {
		return nil, err
	}
	if err := writeHazardSheet(f, r); err != nil {
		return nil, fmt.Errorf("hazard sheet: %w", err)
	}

	if _, err := f.NewSheet(SheetMatrix); err != nil {
		return nil, err
	}
	if err := writeMatrixSheet(f); err != nil {
		return nil, fmt.Errorf("matrix sheet: %w", err)
	}

	f.SetActiveSheet(0)
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func fill(color string) excelize.Fill {
	return excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}}
}

func thinBorder(color string) []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: color, Style: 1},
		{Type: "top", Color: color, Style: 1},
		{Type: "right", Color: color, Style: 1},
		{Type: "bottom", Color: color, Style: 1},
	}
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func tabColor(f *excelize.File, sheet, color string) error {
	return f.SetSheetProps(sheet, &excelize.SheetPropsOptions{TabColorRGB: &color})
}

func writeSummarySheet(f *excelize.File, r *Report) error {
	const sheet = SheetSummary
	insp := r.Inspection

	if err := tabColor(f, sheet, brandColor); err != nil {
		return err
	}
	title, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16, Color: "FFFFFF"},
		Fill:      fill(brandColor),
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	if err := f.MergeCell(sheet, "A1", "B1"); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, "A1", "HIRA Report - "+insp.ProjectName); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "B1", title); err != nil {
		return err
	}
	if err := f.SetRowHeight(sheet, 1, 35); err != nil {
		return err
	}

	rows := [][2]interface{}{
		{"Project Name", insp.ProjectName},
		{"Location", valueOr(insp.Location, "N/A")},
		{"Inspection Date", insp.InspectionDate},
		{"Inspector", valueOr(insp.InspectorName, "N/A")},
		{"Department", valueOr(insp.Department, "N/A")},
		{"Overall Risk Level", levelOr(insp.OverallRiskLevel, "N/A")},
		{"Total Hazards", len(r.Hazards)},
		{"Extreme Risk", r.Counts[risk.LevelExtreme]},
		{"High Risk", r.Counts[risk.LevelHigh]},
		{"Medium Risk", r.Counts[risk.LevelMedium]},
		{"Low Risk", r.Counts[risk.LevelLow]},
		{"AI Summary", valueOr(insp.AISummary, "N/A")},
		{"Report Date", r.GeneratedAt.Format("2006-01-02")},
	}

	labelEven, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, Fill: fill("F8FAFC")})
	if err != nil {
		return err
	}
	valueEven, err := f.NewStyle(&excelize.Style{Fill: fill("F8FAFC"), Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}})
	if err != nil {
		return err
	}
	labelOdd, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	valueOdd, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}})
	if err != nil {
		return err
	}

	for i, kv := range rows {
		row := i + 2
		if err := f.SetSheetRow(sheet, cell(1, row), &[]interface{}{kv[0], kv[1]}); err != nil {
			return err
		}
		label, value := labelOdd, valueOdd
		if i%2 == 0 {
			label, value = labelEven, valueEven
		}
		if err := f.SetCellStyle(sheet, cell(1, row), cell(1, row), label); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell(2, row), cell(2, row), value); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(sheet, "A", "A", 22); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "B", "B", 60)
}

var hazardHeaders = []string{
	"No.", "Description", "Category", "Hazard Type",
	"Severity (1-5)", "Likelihood (1-5)", "Risk Score", "Risk Level",
	"Engineering Control", "Administrative Control", "PPE Required", "Immediate Action",
	"Confidence (%)",
}

var hazardColumnWidths = []float64{6, 35, 14, 20, 14, 14, 12, 12, 35, 35, 25, 35, 14}

func writeHazardSheet(f *excelize.File, r *Report) error {
	const sheet = SheetHazards

	if err := tabColor(f, sheet, risk.LevelExtreme.Color()[1:]); err != nil {
		return err
	}
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      fill(brandColor),
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    thinBorder("000000"),
	})
	if err != nil {
		return err
	}

	headers := make([]interface{}, len(hazardHeaders))
	for i, h := range hazardHeaders {
		headers[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return err
	}
	last := len(hazardHeaders)
	if err := f.SetCellStyle(sheet, "A1", cell(last, 1), header); err != nil {
		return err
	}
	if err := f.SetRowHeight(sheet, 1, 25); err != nil {
		return err
	}

	body, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
		Border:    thinBorder("E5E7EB"),
	})
	if err != nil {
		return err
	}
	levelStyles := map[risk.Level]int{}
	for _, l := range risk.Levels {
		id, err := f.NewStyle(&excelize.Style{
			Font:      &excelize.Font{Bold: true},
			Fill:      fill(tint(l)),
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
			Border:    thinBorder("E5E7EB"),
		})
		if err != nil {
			return err
		}
		levelStyles[l] = id
	}

	for i, h := range r.Hazards {
		row := i + 2
		var confidence interface{} = ""
		if h.Confidence != nil {
			confidence = int(math.Round(*h.Confidence * 100))
		}
		values := []interface{}{
			i + 1,
			h.Description,
			string(h.Category),
			valueOr(h.HazardType, ""),
			h.Severity,
			h.Likelihood,
			h.RiskScore,
			string(h.RiskLevel),
			valueOr(h.EngineeringControl, ""),
			valueOr(h.AdministrativeControl, ""),
			valueOr(h.PPEControl, ""),
			valueOr(h.ImmediateAction, ""),
			confidence,
		}
		if err := f.SetSheetRow(sheet, cell(1, row), &values); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell(1, row), cell(last, row), body); err != nil {
			return err
		}
		if style, ok := levelStyles[h.RiskLevel]; ok {
			if err := f.SetCellStyle(sheet, cell(8, row), cell(8, row), style); err != nil {
				return err
			}
		}
		if err := f.SetRowHeight(sheet, row, 40); err != nil {
			return err
		}
	}

	for i, w := range hazardColumnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return err
		}
	}
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

var likelihoodLabels = []string{"L=1 Rare", "L=2 Unlikely", "L=3 Possible", "L=4 Likely", "L=5 Almost Certain"}

func writeMatrixSheet(f *excelize.File) error {
	const sheet = SheetMatrix

	if err := tabColor(f, sheet, risk.LevelMedium.Color()[1:]); err != nil {
		return err
	}
	title, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill:      fill(brandColor),
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	axis, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      fill("374151"),
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	scoreStyles := map[risk.Level]int{}
	for _, l := range risk.Levels {
		id, err := f.NewStyle(&excelize.Style{
			Font:      &excelize.Font{Bold: true},
			Fill:      fill(tint(l)),
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		})
		if err != nil {
			return err
		}
		scoreStyles[l] = id
	}

	if err := f.MergeCell(sheet, "A1", "F1"); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, "A1", "5x5 RISK ASSESSMENT MATRIX"); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "F1", title); err != nil {
		return err
	}
	if err := f.SetRowHeight(sheet, 1, 30); err != nil {
		return err
	}

	header := []interface{}{""}
	for _, l := range likelihoodLabels {
		header = append(header, l)
	}
	if err := f.SetSheetRow(sheet, "A2", &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A2", "F2", axis); err != nil {
		return err
	}

	row := 3
	for severity := risk.MaxRating; severity >= risk.MinRating; severity-- {
		if err := f.SetCellValue(sheet, cell(1, row), fmt.Sprintf("S=%d", severity)); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell(1, row), cell(1, row), axis); err != nil {
			return err
		}
		for likelihood := risk.MinRating; likelihood <= risk.MaxRating; likelihood++ {
			score, level := risk.Assess(severity, likelihood)
			c := cell(likelihood+1, row)
			if err := f.SetCellValue(sheet, c, score); err != nil {
				return err
			}
			if err := f.SetCellStyle(sheet, c, c, scoreStyles[level]); err != nil {
				return err
			}
		}
		if err := f.SetRowHeight(sheet, row, 25); err != nil {
			return err
		}
		row++
	}

	row++
	for _, l := range risk.Levels {
		lo, hi := ScoreRange(l)
		c := cell(1, row)
		if err := f.SetCellValue(sheet, c, fmt.Sprintf("%s (%d-%d)", l, lo, hi)); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, c, c, scoreStyles[l]); err != nil {
			return err
		}
		row++
	}

	if err := f.SetColWidth(sheet, "A", "A", 16); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "B", "F", 18)
}
