package hazard

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/frahmantamala/hira-inspection/internal/risk"
)

// Number is a loosely typed numeric input. JSON numbers and numeric strings are
// accepted; anything else decodes to an unset Number without failing.
type Number struct {
	value float64
	set   bool
}

func NumberOf(v float64) Number {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Number{}
	}
	return Number{value: v, set: true}
}

// Float reports the value when it is usable. Zero counts as absent.
func (n Number) Float() (float64, bool) {
	if !n.set || n.value == 0 {
		return 0, false
	}
	return n.value, true
}

func (n *Number) UnmarshalJSON(data []byte) error {
	*n = parseNumber(data)
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.set {
		return []byte("null"), nil
	}
	return json.Marshal(n.value)
}

func parseNumber(data []byte) Number {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Number{}
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		return NumberOf(f)
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return NumberOf(f)
		}
	}
	return Number{}
}

// Text is a loosely typed string input. Scalars are kept in their textual form,
// null, objects and arrays decode to an unset Text.
type Text struct {
	value string
	set   bool
}

func TextOf(s string) Text {
	return Text{value: s, set: true}
}

// String returns the trimmed value and whether it is non-empty.
func (t Text) String() (string, bool) {
	if !t.set {
		return "", false
	}
	s := strings.TrimSpace(t.value)
	return s, s != ""
}

// Or returns the trimmed value or fallback when it is empty.
func (t Text) Or(fallback string) string {
	if s, ok := t.String(); ok {
		return s
	}
	return fallback
}

func (t *Text) UnmarshalJSON(data []byte) error {
	*t = parseText(data)
	return nil
}

func (t Text) MarshalJSON() ([]byte, error) {
	if !t.set {
		return []byte("null"), nil
	}
	return json.Marshal(t.value)
}

func parseText(data []byte) Text {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Text{}
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return TextOf(s)
	}
	switch data[0] {
	case '{', '[', 'n':
		return Text{}
	}
	// numbers and booleans keep their literal form
	return TextOf(string(data))
}

type CandidateActions struct {
	Engineering    Text `json:"engineering"`
	Administrative Text `json:"administrative"`
	PPE            Text `json:"ppe"`
	Immediate      Text `json:"immediate"`
}

func (a *CandidateActions) UnmarshalJSON(data []byte) error {
	type alias CandidateActions
	var v alias
	if err := json.Unmarshal(data, &v); err != nil {
		*a = CandidateActions{}
		return nil
	}
	*a = CandidateActions(v)
	return nil
}

// Candidate is an untrusted hazard as reported by the vision model. Any
// supplied risk_score or risk_level is ignored.
type Candidate struct {
	Description       Text             `json:"description"`
	Category          Text             `json:"category"`
	HazardType        Text             `json:"hazard_type"`
	Severity          Number           `json:"severity"`
	Likelihood        Number           `json:"likelihood"`
	Confidence        Number           `json:"confidence"`
	CorrectiveActions CandidateActions `json:"corrective_actions"`
}

// UnmarshalJSON never fails; a value that is not an object yields an empty candidate.
func (c *Candidate) UnmarshalJSON(data []byte) error {
	type alias Candidate
	var v alias
	if err := json.Unmarshal(data, &v); err != nil {
		*c = Candidate{}
		return nil
	}
	*c = Candidate(v)
	return nil
}

// ParseCandidates decodes a JSON array of candidates. Anything other than an
// array yields no candidates.
func ParseCandidates(data json.RawMessage) []Candidate {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return []Candidate{}
	}
	candidates := make([]Candidate, len(items))
	for i, item := range items {
		_ = candidates[i].UnmarshalJSON(item)
	}
	return candidates
}

// Normalize turns a candidate into storable hazard fields. It never fails:
// missing or malformed values fall back to defaults and ratings are clamped.
func Normalize(c Candidate) Fields {
	f := Fields{
		Description:           c.Description.Or(DefaultDescription),
		Category:              CategoryPhysical,
		HazardType:            strPtr(c.HazardType.Or(DefaultHazardType)),
		EngineeringControl:    strPtr(c.CorrectiveActions.Engineering.Or(DefaultEngineeringControl)),
		AdministrativeControl: strPtr(c.CorrectiveActions.Administrative.Or(DefaultAdministrativeControl)),
		PPEControl:            strPtr(c.CorrectiveActions.PPE.Or(DefaultPPEControl)),
		ImmediateAction:       strPtr(c.CorrectiveActions.Immediate.Or(DefaultImmediateAction)),
	}
	if s, ok := c.Category.String(); ok {
		if cat, ok := ParseCategory(s); ok {
			f.Category = cat
		}
	}

	f.Rate(rating(c.Severity), rating(c.Likelihood))

	confidence := DefaultConfidence
	if v, ok := c.Confidence.Float(); ok {
		confidence = math.Max(0, math.Min(1, v))
	}
	f.Confidence = &confidence

	return f
}

// NormalizeAll normalizes every candidate in order.
func NormalizeAll(cs []Candidate) []Fields {
	out := make([]Fields, len(cs))
	for i, c := range cs {
		out[i] = Normalize(c)
	}
	return out
}

func rating(n Number) int {
	v, ok := n.Float()
	if !ok {
		return DefaultRating
	}
	v = math.Max(risk.MinRating, math.Min(risk.MaxRating, v))
	return int(math.Round(v))
}
