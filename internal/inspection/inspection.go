package inspection

import (
	"fmt"
	"time"

	datamodel "github.com/frahmantamala/hira-inspection/internal/core/datamodel/inspection"
	"github.com/frahmantamala/hira-inspection/internal/hazard"
	"github.com/frahmantamala/hira-inspection/internal/risk"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusAnalyzing Status = "analyzing"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

const DateLayout = "2006-01-02"

type Inspection struct {
	ID               int64       `json:"id"`
	UserID           int64       `json:"user_id"`
	ProjectName      string      `json:"project_name"`
	Location         *string     `json:"location"`
	Latitude         *float64    `json:"latitude"`
	Longitude        *float64    `json:"longitude"`
	LocationAccuracy *float64    `json:"location_accuracy"`
	InspectionDate   string      `json:"inspection_date"`
	InspectorName    *string     `json:"inspector_name"`
	Department       *string     `json:"department"`
	Notes            *string     `json:"notes"`
	ImagePath        string      `json:"-"`
	ImageFilename    *string     `json:"image_filename"`
	ImageURL         string      `json:"image_url"`
	Status           Status      `json:"status"`
	OverallRiskLevel *risk.Level `json:"overall_risk_level"`
	AISummary        *string     `json:"ai_summary"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// Summary is a list row with hazard counts.
type Summary struct {
	*Inspection
	HazardCount  int `json:"hazard_count"`
	ExtremeCount int `json:"extreme_count"`
	HighCount    int `json:"high_count"`
}

// Detail is an inspection with its hazards ordered by risk score, highest first.
type Detail struct {
	Inspection *Inspection      `json:"inspection"`
	Hazards    []*hazard.Hazard `json:"hazards"`
}

// OverallLevel is the level of the highest-scoring hazard, nil without hazards.
func OverallLevel(hs []*hazard.Hazard) *risk.Level {
	return risk.Rollup(hazard.Scores(hs))
}

// IngestLevel picks the overall level after an analysis: the suggested level
// when it names a known level, otherwise the rollup of hs, otherwise Low.
func IngestLevel(suggested string, hs []*hazard.Hazard) risk.Level {
	if level, ok := risk.ParseLevel(suggested); ok {
		return level
	}
	if level := OverallLevel(hs); level != nil {
		return *level
	}
	return risk.LevelLow
}

func ImageURL(id int64) string {
	return fmt.Sprintf("/api/v1/inspections/%d/image", id)
}

func ToDataModel(i *Inspection) *datamodel.Inspection {
	var overall *string
	if i.OverallRiskLevel != nil {
		s := string(*i.OverallRiskLevel)
		overall = &s
	}
	return &datamodel.Inspection{
		ID:               i.ID,
		UserID:           i.UserID,
		ProjectName:      i.ProjectName,
		Location:         i.Location,
		Latitude:         i.Latitude,
		Longitude:        i.Longitude,
		LocationAccuracy: i.LocationAccuracy,
		InspectionDate:   i.InspectionDate,
		InspectorName:    i.InspectorName,
		Department:       i.Department,
		Notes:            i.Notes,
		ImagePath:        i.ImagePath,
		ImageFilename:    i.ImageFilename,
		Status:           string(i.Status),
		OverallRiskLevel: overall,
		AISummary:        i.AISummary,
		CreatedAt:        i.CreatedAt,
		UpdatedAt:        i.UpdatedAt,
	}
}

func FromDataModel(d *datamodel.Inspection) *Inspection {
	var overall *risk.Level
	if d.OverallRiskLevel != nil {
		l := risk.Level(*d.OverallRiskLevel)
		overall = &l
	}
	return &Inspection{
		ID:               d.ID,
		UserID:           d.UserID,
		ProjectName:      d.ProjectName,
		Location:         d.Location,
		Latitude:         d.Latitude,
		Longitude:        d.Longitude,
		LocationAccuracy: d.LocationAccuracy,
		InspectionDate:   d.InspectionDate,
		InspectorName:    d.InspectorName,
		Department:       d.Department,
		Notes:            d.Notes,
		ImagePath:        d.ImagePath,
		ImageFilename:    d.ImageFilename,
		ImageURL:         ImageURL(d.ID),
		Status:           Status(d.Status),
		OverallRiskLevel: overall,
		AISummary:        d.AISummary,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}
