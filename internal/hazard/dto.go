package hazard

import (
	"github.com/frahmantamala/hira-inspection/internal"
	"github.com/frahmantamala/hira-inspection/internal/core/common/validation"
)

// CreateHazardRequest is the body of a manual hazard entry.
type CreateHazardRequest struct {
	Description           Text   `json:"description"`
	Category              Text   `json:"category"`
	HazardType            Text   `json:"hazard_type"`
	Severity              Number `json:"severity"`
	Likelihood            Number `json:"likelihood"`
	EngineeringControl    Text   `json:"engineering_control"`
	AdministrativeControl Text   `json:"administrative_control"`
	PPEControl            Text   `json:"ppe_control"`
	ImmediateAction       Text   `json:"immediate_action"`
}

// ToFields validates the request and returns rated fields with manual confidence.
func (r CreateHazardRequest) ToFields() (Fields, error) {
	description, _ := r.Description.String()
	categoryText, _ := r.Category.String()
	category, _ := ParseCategory(categoryText)
	severity := optionalRating(r.Severity)
	likelihood := optionalRating(r.Likelihood)

	v := validation.NewValidator()
	v.Field("description", description).Required().MaxLength(2000)
	v.Field("category", categoryText).Required().Custom(func(interface{}) *internal.AppError {
		if categoryText != "" && !category.Valid() {
			return internal.NewValidationFieldError("category", "category must be a known hazard category", internal.ErrCodeInvalidCategory)
		}
		return nil
	})
	v.Field("severity", severity).Required()
	v.Field("likelihood", likelihood).Required()
	if err := v.Validate(); err != nil {
		return Fields{}, err
	}

	confidence := ManualConfidence
	f := Fields{
		Description:           description,
		Category:              category,
		HazardType:            optionalText(r.HazardType),
		EngineeringControl:    optionalText(r.EngineeringControl),
		AdministrativeControl: optionalText(r.AdministrativeControl),
		PPEControl:            optionalText(r.PPEControl),
		ImmediateAction:       optionalText(r.ImmediateAction),
		Confidence:            &confidence,
	}
	f.Rate(*severity, *likelihood)
	return f, nil
}

// UpdateHazardRequest is the body of a hazard override. Omitted or empty
// fields keep their stored values.
type UpdateHazardRequest struct {
	Description           Text   `json:"description"`
	Category              Text   `json:"category"`
	HazardType            Text   `json:"hazard_type"`
	Severity              Number `json:"severity"`
	Likelihood            Number `json:"likelihood"`
	EngineeringControl    Text   `json:"engineering_control"`
	AdministrativeControl Text   `json:"administrative_control"`
	PPEControl            Text   `json:"ppe_control"`
	ImmediateAction       Text   `json:"immediate_action"`
}

// Override holds the replacement values of a hazard override; nil means keep.
type Override struct {
	Description           *string
	Category              *Category
	HazardType            *string
	Severity              *int
	Likelihood            *int
	EngineeringControl    *string
	AdministrativeControl *string
	PPEControl            *string
	ImmediateAction       *string
}

func (r UpdateHazardRequest) ToOverride() (Override, error) {
	o := Override{
		Description:           optionalText(r.Description),
		HazardType:            optionalText(r.HazardType),
		Severity:              optionalRating(r.Severity),
		Likelihood:            optionalRating(r.Likelihood),
		EngineeringControl:    optionalText(r.EngineeringControl),
		AdministrativeControl: optionalText(r.AdministrativeControl),
		PPEControl:            optionalText(r.PPEControl),
		ImmediateAction:       optionalText(r.ImmediateAction),
	}
	if s, ok := r.Category.String(); ok {
		category, ok := ParseCategory(s)
		if !ok {
			return Override{}, internal.NewValidationFieldError("category", "category must be a known hazard category", internal.ErrCodeInvalidCategory)
		}
		o.Category = &category
	}
	return o, nil
}

func optionalText(t Text) *string {
	if s, ok := t.String(); ok {
		return &s
	}
	return nil
}

func optionalRating(n Number) *int {
	if _, ok := n.Float(); !ok {
		return nil
	}
	r := rating(n)
	return &r
}
