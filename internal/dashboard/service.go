package dashboard

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/frahmantamala/hira-inspection/internal"
)

// Repository runs the aggregate queries, each scoped to one user.
type Repository interface {
	CountInspections(ctx context.Context, userID int64) (int64, error)
	HazardLevelCounts(ctx context.Context, userID int64) ([]LevelCount, error)
	RecentInspections(ctx context.Context, userID int64, limit int) ([]RecentInspection, error)
	HazardsByCategory(ctx context.Context, userID int64) ([]CategoryCount, error)
	TrendRows(ctx context.Context, userID int64, since time.Time) ([]TrendRow, error)
	HighRiskAlerts(ctx context.Context, userID int64, limit int) ([]Alert, error)
	InspectionsByRisk(ctx context.Context, userID int64) ([]LevelCount, error)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// GetDashboard runs the dashboard queries concurrently and assembles the result.
func (s *Service) GetDashboard(ctx context.Context, userID int64) (*Dashboard, error) {
	var (
		d                Dashboard
		totalInspections int64
		levels           []LevelCount
		trend            []TrendRow
	)
	since := s.now().Truncate(24*time.Hour).AddDate(0, 0, -TrendDays)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		totalInspections, err = s.repo.CountInspections(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		levels, err = s.repo.HazardLevelCounts(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		d.RecentInspections, err = s.repo.RecentInspections(gctx, userID, RecentLimit)
		return err
	})
	g.Go(func() (err error) {
		d.HazardsByCategory, err = s.repo.HazardsByCategory(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		trend, err = s.repo.TrendRows(gctx, userID, since)
		return err
	})
	g.Go(func() (err error) {
		d.HighRiskAlerts, err = s.repo.HighRiskAlerts(gctx, userID, AlertLimit)
		return err
	})
	g.Go(func() (err error) {
		d.InspectionsByRisk, err = s.repo.InspectionsByRisk(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to load dashboard", "error", err, "user_id", userID)
		return nil, internal.NewPersistenceError(err)
	}

	d.Stats = StatsFromLevels(totalInspections, levels)
	d.RiskTrend = BuildTrend(trend)
	d.normalize()

	s.logger.Debug("dashboard loaded",
		"user_id", userID,
		"total_inspections", d.Stats.TotalInspections,
		"total_hazards", d.Stats.TotalHazards)

	return &d, nil
}

// normalize replaces nil slices so they encode as [].
func (d *Dashboard) normalize() {
	if d.RecentInspections == nil {
		d.RecentInspections = []RecentInspection{}
	}
	if d.HazardsByCategory == nil {
		d.HazardsByCategory = []CategoryCount{}
	}
	if d.HighRiskAlerts == nil {
		d.HighRiskAlerts = []Alert{}
	}
	if d.InspectionsByRisk == nil {
		d.InspectionsByRisk = []LevelCount{}
	}
}
