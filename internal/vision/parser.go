package vision

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/frahmantamala/hira-inspection/internal/hazard"
)

const defaultSummary = "AI analysis complete."

type envelope struct {
	Hazards          json.RawMessage `json:"hazards"`
	OverallRiskLevel hazard.Text     `json:"overall_risk_level"`
	Summary          hazard.Text     `json:"summary"`
}

// ParseResponse reads the model output. Markdown fences are stripped and, failing
// a direct decode, the outermost {...} block is tried.
func ParseResponse(text string) (*Result, error) {
	cleaned := stripFences(strings.TrimSpace(text))
	if cleaned == "" {
		return nil, ErrEmptyResponse
	}

	var env envelope
	raw := cleaned
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		raw = extractObject(cleaned)
		if raw == "" {
			return nil, ErrUnparsable
		}
		if err := json.Unmarshal([]byte(raw), &env); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnparsable, err)
		}
	}

	level, _ := env.OverallRiskLevel.String()
	return &Result{
		Candidates:       hazard.ParseCandidates(env.Hazards),
		OverallRiskLevel: level,
		Summary:          env.Summary.Or(defaultSummary),
		Raw:              json.RawMessage(raw),
	}, nil
}

func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.Index(s, "\n"); nl >= 0 && strings.TrimSpace(s[:nl]) == "json" {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func extractObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end <= start {
		return ""
	}
	return s[start : end+1]
}
