package risk

import "strings"

// Level is a banding of a risk score on the HIRA matrix.
type Level string

const (
	LevelLow     Level = "Low"
	LevelMedium  Level = "Medium"
	LevelHigh    Level = "High"
	LevelExtreme Level = "Extreme"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Levels lists every level from least to most severe.
var Levels = []Level{LevelLow, LevelMedium, LevelHigh, LevelExtreme}

// Classify maps a risk score onto its level. It is total over all integers.
func Classify(score int) Level {
	switch {
	case score <= 5:
		return LevelLow
	case score <= 10:
		return LevelMedium
	case score <= 15:
		return LevelHigh
	default:
		return LevelExtreme
	}
}

// ClampRating forces a severity or likelihood rating into [1,5].
func ClampRating(v int) int {
	if v < MinRating {
		return MinRating
	}
	if v > MaxRating {
		return MaxRating
	}
	return v
}

// Assess clamps both ratings and returns the derived score and level.
func Assess(severity, likelihood int) (score int, level Level) {
	score = ClampRating(severity) * ClampRating(likelihood)
	return score, Classify(score)
}

// Rollup returns the level of the highest score, or nil when there are no scores.
func Rollup(scores []int) *Level {
	if len(scores) == 0 {
		return nil
	}
	max := scores[0]
	for _, s := range scores[1:] {
		if s > max {
			max = s
		}
	}
	level := Classify(max)
	return &level
}

// ParseLevel accepts a level name in any letter case.
func ParseLevel(s string) (Level, bool) {
	s = strings.TrimSpace(s)
	for _, l := range Levels {
		if strings.EqualFold(s, string(l)) {
			return l, true
		}
	}
	return "", false
}

// Valid reports whether l is one of the canonical level names.
func (l Level) Valid() bool {
	return l.Rank() > 0
}

// Rank orders levels, Low being 1 and Extreme 4. Unknown levels rank 0.
func (l Level) Rank() int {
	for i, lv := range Levels {
		if lv == l {
			return i + 1
		}
	}
	return 0
}

// Color is the hex colour used for the level in rendered reports.
func (l Level) Color() string {
	switch l {
	case LevelLow:
		return "#10B981"
	case LevelMedium:
		return "#F59E0B"
	case LevelHigh:
		return "#F97316"
	case LevelExtreme:
		return "#EF4444"
	default:
		return "#6B7280"
	}
}
