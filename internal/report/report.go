package report

import (
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/frahmantamala/hira-inspection/internal/hazard"
	"github.com/frahmantamala/hira-inspection/internal/inspection"
	"github.com/frahmantamala/hira-inspection/internal/risk"
)

const Title = "Hazard Identification & Risk Assessment Report"

// Report is the data handed to a renderer: the inspection and its hazards
// ordered by risk score, highest first.
type Report struct {
	Inspection  *inspection.Inspection
	Hazards     []*hazard.Hazard
	Counts      map[risk.Level]int
	GeneratedAt time.Time

	// Photo is the inspection image, empty when it could not be loaded.
	Photo     []byte
	PhotoMIME string
}

// Renderer turns a report into a downloadable document.
type Renderer interface {
	ContentType() string
	Extension() string
	Render(r *Report) ([]byte, error)
}

// Assemble builds a report from an inspection detail. Hazards are re-sorted
// so renderers never depend on the caller's ordering.
func Assemble(d *inspection.Detail, now time.Time) *Report {
	hazards := append([]*hazard.Hazard(nil), d.Hazards...)
	sort.SliceStable(hazards, func(i, j int) bool {
		return hazards[i].RiskScore > hazards[j].RiskScore
	})

	counts := make(map[risk.Level]int, len(risk.Levels))
	for _, l := range risk.Levels {
		counts[l] = 0
	}
	for _, h := range hazards {
		counts[h.RiskLevel]++
	}

	return &Report{
		Inspection:  d.Inspection,
		Hazards:     hazards,
		Counts:      counts,
		GeneratedAt: now,
	}
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// Filename is HIRA_Report_<project>_<date>.<ext> with every character of the
// project name outside [a-zA-Z0-9] replaced by an underscore.
func Filename(i *inspection.Inspection, ext string) string {
	project := unsafeFilenameChars.ReplaceAllString(i.ProjectName, "_")
	return fmt.Sprintf("HIRA_Report_%s_%s.%s", project, i.InspectionDate, ext)
}

// ScoreRange returns the lowest and highest risk score that classify as level.
func ScoreRange(level risk.Level) (lo, hi int) {
	for score := risk.MinRating * risk.MinRating; score <= risk.MaxRating*risk.MaxRating; score++ {
		if risk.Classify(score) != level {
			continue
		}
		if lo == 0 {
			lo = score
		}
		hi = score
	}
	return lo, hi
}

// tints are the light cell backgrounds used next to each level's solid colour.
var tints = map[risk.Level]string{
	risk.LevelLow:     "D1FAE5",
	risk.LevelMedium:  "FEF3C7",
	risk.LevelHigh:    "FFEDD5",
	risk.LevelExtreme: "FEE2E2",
}

func tint(l risk.Level) string {
	if t, ok := tints[l]; ok {
		return t
	}
	return "FFFFFF"
}

const brandColor = "1E3A5F"

func valueOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}

func levelOr(l *risk.Level, fallback string) string {
	if l == nil {
		return fallback
	}
	return string(*l)
}
