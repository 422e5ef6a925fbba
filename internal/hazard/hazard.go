package hazard

import (
	"strings"
	"time"

	datamodel "github.com/frahmantamala/hira-inspection/internal/core/datamodel/inspection"
	"github.com/frahmantamala/hira-inspection/internal/risk"
)

type Category string

const (
	CategoryPhysical      Category = "Physical"
	CategoryChemical      Category = "Chemical"
	CategoryBiological    Category = "Biological"
	CategoryErgonomic     Category = "Ergonomic"
	CategoryElectrical    Category = "Electrical"
	CategoryFire          Category = "Fire"
	CategoryMechanical    Category = "Mechanical"
	CategoryEnvironmental Category = "Environmental"
	CategoryPsychosocial  Category = "Psychosocial"
)

var Categories = []Category{
	CategoryPhysical,
	CategoryChemical,
	CategoryBiological,
	CategoryErgonomic,
	CategoryElectrical,
	CategoryFire,
	CategoryMechanical,
	CategoryEnvironmental,
	CategoryPsychosocial,
}

// ParseCategory matches s against the category names ignoring case.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(s, string(c)) {
			return c, true
		}
	}
	return "", false
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func CategoryNames() []string {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = string(c)
	}
	return names
}

const (
	DefaultDescription           = "Unspecified hazard"
	DefaultHazardType            = "General Hazard"
	DefaultEngineeringControl    = "Implement engineering controls to eliminate hazard"
	DefaultAdministrativeControl = "Establish safe work procedures and training"
	DefaultPPEControl            = "Use appropriate personal protective equipment"
	DefaultImmediateAction       = "Assess and address immediately"

	DefaultRating     = 3
	DefaultConfidence = 0.8
	ManualConfidence  = 1.0
)

// Fields are the assessed attributes of a hazard. RiskScore and RiskLevel are
// always derived from Severity and Likelihood.
type Fields struct {
	Description           string     `json:"description"`
	Category              Category   `json:"category"`
	HazardType            *string    `json:"hazard_type"`
	Severity              int        `json:"severity"`
	Likelihood            int        `json:"likelihood"`
	RiskScore             int        `json:"risk_score"`
	RiskLevel             risk.Level `json:"risk_level"`
	EngineeringControl    *string    `json:"engineering_control"`
	AdministrativeControl *string    `json:"administrative_control"`
	PPEControl            *string    `json:"ppe_control"`
	ImmediateAction       *string    `json:"immediate_action"`
	Confidence            *float64   `json:"confidence"`
}

// Rate clamps the ratings and derives score and level from them.
func (f *Fields) Rate(severity, likelihood int) {
	f.Severity = risk.ClampRating(severity)
	f.Likelihood = risk.ClampRating(likelihood)
	f.RiskScore, f.RiskLevel = risk.Assess(f.Severity, f.Likelihood)
}

// Equal reports whether f and o carry the same values.
func (f Fields) Equal(o Fields) bool {
	return f.Description == o.Description &&
		f.Category == o.Category &&
		f.Severity == o.Severity &&
		f.Likelihood == o.Likelihood &&
		f.RiskScore == o.RiskScore &&
		f.RiskLevel == o.RiskLevel &&
		sameString(f.HazardType, o.HazardType) &&
		sameString(f.EngineeringControl, o.EngineeringControl) &&
		sameString(f.AdministrativeControl, o.AdministrativeControl) &&
		sameString(f.PPEControl, o.PPEControl) &&
		sameString(f.ImmediateAction, o.ImmediateAction) &&
		sameFloat(f.Confidence, o.Confidence)
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sameFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

type Hazard struct {
	ID           int64 `json:"id"`
	InspectionID int64 `json:"inspection_id"`
	Fields
	CreatedAt time.Time `json:"created_at"`
}

func New(inspectionID int64, f Fields) *Hazard {
	return &Hazard{
		InspectionID: inspectionID,
		Fields:       f,
		CreatedAt:    time.Now().UTC(),
	}
}

// ApplyOverride replaces the supplied fields, keeps the rest, and re-rates the hazard.
func (h *Hazard) ApplyOverride(o Override) {
	if o.Description != nil {
		h.Description = *o.Description
	}
	if o.Category != nil {
		h.Category = *o.Category
	}
	if o.HazardType != nil {
		h.HazardType = o.HazardType
	}
	if o.EngineeringControl != nil {
		h.EngineeringControl = o.EngineeringControl
	}
	if o.AdministrativeControl != nil {
		h.AdministrativeControl = o.AdministrativeControl
	}
	if o.PPEControl != nil {
		h.PPEControl = o.PPEControl
	}
	if o.ImmediateAction != nil {
		h.ImmediateAction = o.ImmediateAction
	}

	severity, likelihood := h.Severity, h.Likelihood
	if o.Severity != nil {
		severity = *o.Severity
	}
	if o.Likelihood != nil {
		likelihood = *o.Likelihood
	}
	h.Rate(severity, likelihood)
}

// Scores returns the risk scores of hs in order.
func Scores(hs []*Hazard) []int {
	scores := make([]int, len(hs))
	for i, h := range hs {
		scores[i] = h.RiskScore
	}
	return scores
}

func ToDataModel(h *Hazard) *datamodel.Hazard {
	return &datamodel.Hazard{
		ID:                    h.ID,
		InspectionID:          h.InspectionID,
		Description:           h.Description,
		Category:              string(h.Category),
		HazardType:            h.HazardType,
		Severity:              h.Severity,
		Likelihood:            h.Likelihood,
		RiskScore:             h.RiskScore,
		RiskLevel:             string(h.RiskLevel),
		EngineeringControl:    h.EngineeringControl,
		AdministrativeControl: h.AdministrativeControl,
		PPEControl:            h.PPEControl,
		ImmediateAction:       h.ImmediateAction,
		Confidence:            h.Confidence,
		CreatedAt:             h.CreatedAt,
	}
}

func FromDataModel(h *datamodel.Hazard) *Hazard {
	return &Hazard{
		ID:           h.ID,
		InspectionID: h.InspectionID,
		Fields: Fields{
			Description:           h.Description,
			Category:              Category(h.Category),
			HazardType:            h.HazardType,
			Severity:              h.Severity,
			Likelihood:            h.Likelihood,
			RiskScore:             h.RiskScore,
			RiskLevel:             risk.Level(h.RiskLevel),
			EngineeringControl:    h.EngineeringControl,
			AdministrativeControl: h.AdministrativeControl,
			PPEControl:            h.PPEControl,
			ImmediateAction:       h.ImmediateAction,
			Confidence:            h.Confidence,
		},
		CreatedAt: h.CreatedAt,
	}
}

func strPtr(s string) *string {
	return &s
}
