package dashboard

import (
	"sort"
	"time"

	"github.com/frahmantamala/hira-inspection/internal/risk"
)

const (
	RecentLimit = 5
	AlertLimit  = 10
	TrendDays   = 30
)

type Stats struct {
	TotalInspections int64 `json:"total_inspections"`
	TotalHazards     int64 `json:"total_hazards"`
	ExtremeCount     int64 `json:"extreme_count"`
	HighCount        int64 `json:"high_count"`
	MediumCount      int64 `json:"medium_count"`
	LowCount         int64 `json:"low_count"`
}

type LevelCount struct {
	Level string `db:"level" json:"risk_level"`
	Count int64  `db:"count" json:"count"`
}

type CategoryCount struct {
	Category string `db:"category" json:"category"`
	Count    int64  `db:"count" json:"count"`
}

type RecentInspection struct {
	ID               int64     `db:"id" json:"id"`
	ProjectName      string    `db:"project_name" json:"project_name"`
	Location         *string   `db:"location" json:"location"`
	InspectionDate   string    `db:"inspection_date" json:"inspection_date"`
	OverallRiskLevel *string   `db:"overall_risk_level" json:"overall_risk_level"`
	Status           string    `db:"status" json:"status"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	HazardCount      int64     `db:"hazard_count" json:"hazard_count"`
}

type Alert struct {
	ID             int64   `db:"id" json:"id"`
	InspectionID   int64   `db:"inspection_id" json:"inspection_id"`
	Description    string  `db:"description" json:"description"`
	Category       string  `db:"category" json:"category"`
	RiskLevel      string  `db:"risk_level" json:"risk_level"`
	RiskScore      int     `db:"risk_score" json:"risk_score"`
	ProjectName    string  `db:"project_name" json:"project_name"`
	Location       *string `db:"location" json:"location"`
	InspectionDate string  `db:"inspection_date" json:"inspection_date"`
}

// TrendRow is one inspection joined with one of its hazards; RiskScore is
// nil for an inspection without hazards.
type TrendRow struct {
	InspectionID int64     `db:"inspection_id"`
	CreatedAt    time.Time `db:"created_at"`
	RiskScore    *int      `db:"risk_score"`
}

type TrendPoint struct {
	Date         string      `json:"date"`
	Inspections  int         `json:"inspections"`
	Hazards      int         `json:"hazards"`
	MaxRiskLevel *risk.Level `json:"max_risk_level"`
}

type Dashboard struct {
	Stats             Stats              `json:"stats"`
	RecentInspections []RecentInspection `json:"recent_inspections"`
	HazardsByCategory []CategoryCount    `json:"hazards_by_category"`
	RiskTrend         []TrendPoint       `json:"risk_trend"`
	HighRiskAlerts    []Alert            `json:"high_risk_alerts"`
	InspectionsByRisk []LevelCount       `json:"inspections_by_risk"`
}

// BuildTrend buckets rows by UTC creation day in ascending date order.
func BuildTrend(rows []TrendRow) []TrendPoint {
	type bucket struct {
		inspections map[int64]struct{}
		scores      []int
	}
	buckets := map[string]*bucket{}
	var days []string

	for _, row := range rows {
		day := row.CreatedAt.UTC().Format("2006-01-02")
		b, ok := buckets[day]
		if !ok {
			b = &bucket{inspections: map[int64]struct{}{}}
			buckets[day] = b
			days = append(days, day)
		}
		b.inspections[row.InspectionID] = struct{}{}
		if row.RiskScore != nil {
			b.scores = append(b.scores, *row.RiskScore)
		}
	}

	sort.Strings(days)
	points := make([]TrendPoint, len(days))
	for i, day := range days {
		b := buckets[day]
		points[i] = TrendPoint{
			Date:         day,
			Inspections:  len(b.inspections),
			Hazards:      len(b.scores),
			MaxRiskLevel: risk.Rollup(b.scores),
		}
	}
	return points
}

// StatsFromLevels folds per-level hazard counts into Stats.
func StatsFromLevels(totalInspections int64, levels []LevelCount) Stats {
	s := Stats{TotalInspections: totalInspections}
	for _, lc := range levels {
		s.TotalHazards += lc.Count
		switch risk.Level(lc.Level) {
		case risk.LevelExtreme:
			s.ExtremeCount += lc.Count
		case risk.LevelHigh:
			s.HighCount += lc.Count
		case risk.LevelMedium:
			s.MediumCount += lc.Count
		case risk.LevelLow:
			s.LowCount += lc.Count
		}
	}
	return s
}
