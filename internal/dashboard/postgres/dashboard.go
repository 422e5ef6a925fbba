package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/hira-inspection/internal/dashboard"
	"github.com/frahmantamala/hira-inspection/internal/risk"
)

// DashboardRepository runs the dashboard aggregates as raw SQL. Queries are
// written with ? placeholders and rebound for the connection's driver.
type DashboardRepository struct {
	db *sqlx.DB
}

func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

const (
	countInspectionsQuery = `SELECT COUNT(*) FROM inspections WHERE user_id = ?`

	hazardLevelCountsQuery = `
		SELECT h.risk_level AS level, COUNT(*) AS count
		FROM hazards h
		JOIN inspections i ON i.id = h.inspection_id
		WHERE i.user_id = ?
		GROUP BY h.risk_level`

	recentInspectionsQuery = `
		SELECT i.id, i.project_name, i.location, i.inspection_date, i.overall_risk_level,
			i.status, i.created_at, COUNT(h.id) AS hazard_count
		FROM inspections i
		LEFT JOIN hazards h ON h.inspection_id = i.id
		WHERE i.user_id = ?
		GROUP BY i.id, i.project_name, i.location, i.inspection_date, i.overall_risk_level, i.status, i.created_at
		ORDER BY i.created_at DESC, i.id DESC
		LIMIT ?`

	hazardsByCategoryQuery = `
		SELECT h.category AS category, COUNT(*) AS count
		FROM hazards h
		JOIN inspections i ON i.id = h.inspection_id
		WHERE i.user_id = ?
		GROUP BY h.category
		ORDER BY count DESC, category ASC`

	trendRowsQuery = `
		SELECT i.id AS inspection_id, i.created_at, h.risk_score
		FROM inspections i
		LEFT JOIN hazards h ON h.inspection_id = i.id
		WHERE i.user_id = ? AND i.created_at >= ?`

	highRiskAlertsQuery = `
		SELECT h.id, h.inspection_id, h.description, h.category, h.risk_level, h.risk_score,
			i.project_name, i.location, i.inspection_date
		FROM hazards h
		JOIN inspections i ON i.id = h.inspection_id
		WHERE i.user_id = ? AND h.risk_level IN (?, ?)
		ORDER BY h.risk_score DESC, i.created_at DESC, h.id DESC
		LIMIT ?`

	inspectionsByRiskQuery = `
		SELECT overall_risk_level AS level, COUNT(*) AS count
		FROM inspections
		WHERE user_id = ? AND overall_risk_level IS NOT NULL
		GROUP BY overall_risk_level`
)

func (r *DashboardRepository) CountInspections(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, r.db.Rebind(countInspectionsQuery), userID)
	return n, err
}

func (r *DashboardRepository) HazardLevelCounts(ctx context.Context, userID int64) ([]dashboard.LevelCount, error) {
	var out []dashboard.LevelCount
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(hazardLevelCountsQuery), userID)
	return out, err
}

func (r *DashboardRepository) RecentInspections(ctx context.Context, userID int64, limit int) ([]dashboard.RecentInspection, error) {
	var out []dashboard.RecentInspection
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(recentInspectionsQuery), userID, limit)
	return out, err
}

func (r *DashboardRepository) HazardsByCategory(ctx context.Context, userID int64) ([]dashboard.CategoryCount, error) {
	var out []dashboard.CategoryCount
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(hazardsByCategoryQuery), userID)
	return out, err
}

func (r *DashboardRepository) TrendRows(ctx context.Context, userID int64, since time.Time) ([]dashboard.TrendRow, error) {
	var out []dashboard.TrendRow
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(trendRowsQuery), userID, since.UTC())
	return out, err
}

func (r *DashboardRepository) HighRiskAlerts(ctx context.Context, userID int64, limit int) ([]dashboard.Alert, error) {
	var out []dashboard.Alert
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(highRiskAlertsQuery),
		userID, string(risk.LevelHigh), string(risk.LevelExtreme), limit)
	return out, err
}

func (r *DashboardRepository) InspectionsByRisk(ctx context.Context, userID int64) ([]dashboard.LevelCount, error) {
	var out []dashboard.LevelCount
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(inspectionsByRiskQuery), userID)
	return out, err
}

var _ dashboard.Repository = (*DashboardRepository)(nil)
