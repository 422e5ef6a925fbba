package inspection

import (
	"math"
	"strconv"
	"strings"

	"github.com/frahmantamala/hira-inspection/internal"
	"github.com/frahmantamala/hira-inspection/internal/core/common/validation"
	"github.com/frahmantamala/hira-inspection/internal/imaging"
	"github.com/frahmantamala/hira-inspection/internal/risk"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// AnalyzeRequest carries the raw multipart form values of an analysis request.
type AnalyzeRequest struct {
	ProjectName      string
	InspectionDate   string
	Location         string
	InspectorName    string
	Department       string
	Notes            string
	Latitude         string
	Longitude        string
	LocationAccuracy string
	Filename         string
	Image            []byte
}

// AnalyzeCommand is a validated analysis request.
type AnalyzeCommand struct {
	ProjectName      string
	InspectionDate   string
	Location         *string
	InspectorName    *string
	Department       *string
	Notes            *string
	Latitude         *float64
	Longitude        *float64
	LocationAccuracy *float64
	Filename         string
	Extension        string
	MIMEType         string
	Image            []byte
}

func (r AnalyzeRequest) ToCommand() (*AnalyzeCommand, error) {
	lat, latErr := optionalFloat(r.Latitude)
	lng, lngErr := optionalFloat(r.Longitude)
	acc, accErr := optionalFloat(r.LocationAccuracy)
	ext, extErr := imaging.Extension(r.Filename)

	v := validation.NewValidator()
	v.Field("image", r.Filename).Required().Custom(func(interface{}) *internal.AppError {
		if r.Filename != "" && extErr != nil {
			return internal.NewValidationFieldError("image", extErr.Error(), internal.ErrCodeInvalidImage)
		}
		if r.Filename != "" && len(r.Image) == 0 {
			return internal.NewValidationFieldError("image", "image is empty", internal.ErrCodeInvalidImage)
		}
		return nil
	})
	v.Field("project_name", r.ProjectName).Required().MaxLength(255)
	v.Field("inspection_date", strings.TrimSpace(r.InspectionDate)).Required().Date(DateLayout)
	v.Field("latitude", lat).Custom(numberError("latitude", latErr)).FloatRange(-90, 90, internal.ErrCodeValidationFailed)
	v.Field("longitude", lng).Custom(numberError("longitude", lngErr)).FloatRange(-180, 180, internal.ErrCodeValidationFailed)
	v.Field("location_accuracy", acc).Custom(numberError("location_accuracy", accErr)).FloatRange(0, 1e7, internal.ErrCodeValidationFailed)
	if err := v.Validate(); err != nil {
		return nil, err
	}

	return &AnalyzeCommand{
		ProjectName:      strings.TrimSpace(r.ProjectName),
		InspectionDate:   strings.TrimSpace(r.InspectionDate),
		Location:         optionalString(r.Location),
		InspectorName:    optionalString(r.InspectorName),
		Department:       optionalString(r.Department),
		Notes:            optionalString(r.Notes),
		Latitude:         lat,
		Longitude:        lng,
		LocationAccuracy: acc,
		Filename:         r.Filename,
		Extension:        ext,
		MIMEType:         imaging.MIMEType(r.Filename),
		Image:            r.Image,
	}, nil
}

// ListQuery filters and pages the inspection history.
type ListQuery struct {
	Page      int
	Limit     int
	RiskLevel *risk.Level
	Search    string
}

func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// NewListQuery parses query string values. Page and limit are clamped rather
// than rejected; an unknown risk level is a validation error.
func NewListQuery(page, limit, riskLevel, search string) (ListQuery, error) {
	q := ListQuery{Page: 1, Limit: DefaultPageSize, Search: strings.TrimSpace(search)}

	if p, err := strconv.Atoi(page); err == nil && p > 1 {
		q.Page = p
	}
	if l, err := strconv.Atoi(limit); err == nil {
		q.Limit = min(max(l, 1), MaxPageSize)
	}
	if riskLevel = strings.TrimSpace(riskLevel); riskLevel != "" {
		level, ok := risk.ParseLevel(riskLevel)
		if !ok {
			return ListQuery{}, internal.NewValidationFieldError("risk_level", "risk_level must be one of: Low, Medium, High, Extreme", internal.ErrCodeValidationFailed)
		}
		q.RiskLevel = &level
	}
	return q, nil
}

type ListResult struct {
	Inspections []*Summary `json:"inspections"`
	Total       int64      `json:"total"`
	Page        int        `json:"page"`
	Limit       int        `json:"limit"`
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func optionalFloat(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, strconv.ErrSyntax
	}
	return &f, nil
}

func numberError(field string, err error) func(interface{}) *internal.AppError {
	return func(interface{}) *internal.AppError {
		if err != nil {
			return internal.NewValidationFieldError(field, field+" must be a number", internal.ErrCodeValidationFailed)
		}
		return nil
	}
}
