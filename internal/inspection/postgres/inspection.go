package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/hira-inspection/internal"
	datamodel "github.com/frahmantamala/hira-inspection/internal/core/datamodel/inspection"
	"github.com/frahmantamala/hira-inspection/internal/hazard"
	"github.com/frahmantamala/hira-inspection/internal/inspection"
	"github.com/frahmantamala/hira-inspection/internal/risk"
)

// InspectionRepository implements inspection.Repository using GORM
type InspectionRepository struct {
	db *gorm.DB
}

func NewInspectionRepository(db *gorm.DB) *InspectionRepository {
	return &InspectionRepository{db: db}
}

func (r *InspectionRepository) WithTx(ctx context.Context, fn func(inspection.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&InspectionRepository{db: tx})
	})
}

func (r *InspectionRepository) Create(ctx context.Context, i *inspection.Inspection) error {
	row := inspection.ToDataModel(i)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	i.ID = row.ID
	i.ImageURL = inspection.ImageURL(row.ID)
	return nil
}

func (r *InspectionRepository) GetByID(ctx context.Context, id, userID int64) (*inspection.Inspection, error) {
	var row datamodel.Inspection
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrInspectionNotFound
		}
		return nil, err
	}
	return inspection.FromDataModel(&row), nil
}

func (r *InspectionRepository) List(ctx context.Context, userID int64, q inspection.ListQuery) ([]*inspection.Summary, int64, error) {
	filter := func(db *gorm.DB) *gorm.DB {
		db = db.Where("user_id = ?", userID)
		if q.RiskLevel != nil {
			db = db.Where("overall_risk_level = ?", string(*q.RiskLevel))
		}
		if q.Search != "" {
			like := "%" + strings.ToLower(q.Search) + "%"
			db = db.Where("(LOWER(project_name) LIKE ? OR LOWER(COALESCE(location, '')) LIKE ?)", like, like)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&datamodel.Inspection{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []datamodel.Inspection
	err := r.db.WithContext(ctx).
		Scopes(filter).
		Order("created_at DESC").
		Order("id DESC").
		Limit(q.Limit).
		Offset(q.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	summaries := make([]*inspection.Summary, len(rows))
	byID := make(map[int64]*inspection.Summary, len(rows))
	ids := make([]int64, len(rows))
	for i := range rows {
		summaries[i] = &inspection.Summary{Inspection: inspection.FromDataModel(&rows[i])}
		byID[rows[i].ID] = summaries[i]
		ids[i] = rows[i].ID
	}
	if len(ids) == 0 {
		return summaries, total, nil
	}

	var counts []struct {
		InspectionID int64
		RiskLevel    string
		N            int
	}
	err = r.db.WithContext(ctx).
		Model(&datamodel.Hazard{}).
		Select("inspection_id, risk_level, COUNT(*) AS n").
		Where("inspection_id IN ?", ids).
		Group("inspection_id, risk_level").
		Scan(&counts).Error
	if err != nil {
		return nil, 0, err
	}
	for _, c := range counts {
		s := byID[c.InspectionID]
		s.HazardCount += c.N
		switch risk.Level(c.RiskLevel) {
		case risk.LevelExtreme:
			s.ExtremeCount += c.N
		case risk.LevelHigh:
			s.HighCount += c.N
		}
	}

	return summaries, total, nil
}

func (r *InspectionRepository) UpdateStatus(ctx context.Context, id int64, status inspection.Status) error {
	return r.db.WithContext(ctx).
		Model(&datamodel.Inspection{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     string(status),
			"updated_at": time.Now().UTC(),
		}).Error
}

// Complete only moves an analyzing inspection to completed. A row the stale
// sweeper already failed yields ErrAnalysisSuperseded.
func (r *InspectionRepository) Complete(ctx context.Context, id int64, summary *string, overall risk.Level) error {
	result := r.db.WithContext(ctx).
		Model(&datamodel.Inspection{}).
		Where("id = ? AND status = ?", id, string(inspection.StatusAnalyzing)).
		Updates(map[string]interface{}{
			"status":             string(inspection.StatusCompleted),
			"ai_summary":         summary,
			"overall_risk_level": string(overall),
			"updated_at":         time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrAnalysisSuperseded
	}
	return nil
}

func (r *InspectionRepository) SetOverallRiskLevel(ctx context.Context, id int64, level *risk.Level) error {
	var value *string
	if level != nil {
		s := string(*level)
		value = &s
	}
	return r.db.WithContext(ctx).
		Model(&datamodel.Inspection{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"overall_risk_level": value,
			"updated_at":         time.Now().UTC(),
		}).Error
}

// Delete removes the inspection; its hazards are removed by the foreign key cascade.
func (r *InspectionRepository) Delete(ctx context.Context, id, userID int64) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&datamodel.Inspection{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrInspectionNotFound
	}
	return nil
}

func (r *InspectionRepository) FailStale(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&datamodel.Inspection{}).
		Where("status = ? AND updated_at < ?", string(inspection.StatusAnalyzing), cutoff.UTC()).
		Updates(map[string]interface{}{
			"status":     string(inspection.StatusFailed),
			"updated_at": time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}

// CreateHazards inserts hs one row at a time inside a transaction, so either
// all rows land or none do.
func (r *InspectionRepository) CreateHazards(ctx context.Context, hs []*hazard.Hazard) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, h := range hs {
			row := hazard.ToDataModel(h)
			if err := tx.Create(row).Error; err != nil {
				return err
			}
			h.ID = row.ID
		}
		return nil
	})
}

func (r *InspectionRepository) GetHazard(ctx context.Context, hazardID, userID int64) (*hazard.Hazard, error) {
	var row datamodel.Hazard
	err := r.db.WithContext(ctx).
		Where("id = ? AND inspection_id IN (SELECT id FROM inspections WHERE user_id = ?)", hazardID, userID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrHazardNotFound
		}
		return nil, err
	}
	return hazard.FromDataModel(&row), nil
}

func (r *InspectionRepository) ListHazards(ctx context.Context, inspectionID int64) ([]*hazard.Hazard, error) {
	var rows []datamodel.Hazard
	err := r.db.WithContext(ctx).
		Where("inspection_id = ?", inspectionID).
		Order("risk_score DESC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	hazards := make([]*hazard.Hazard, len(rows))
	for i := range rows {
		hazards[i] = hazard.FromDataModel(&rows[i])
	}
	return hazards, nil
}

func (r *InspectionRepository) UpdateHazard(ctx context.Context, h *hazard.Hazard) error {
	result := r.db.WithContext(ctx).
		Model(&datamodel.Hazard{}).
		Where("id = ?", h.ID).
		Updates(map[string]interface{}{
			"description":            h.Description,
			"category":               string(h.Category),
			"hazard_type":            h.HazardType,
			"severity":               h.Severity,
			"likelihood":             h.Likelihood,
			"risk_score":             h.RiskScore,
			"risk_level":             string(h.RiskLevel),
			"engineering_control":    h.EngineeringControl,
			"administrative_control": h.AdministrativeControl,
			"ppe_control":            h.PPEControl,
			"immediate_action":       h.ImmediateAction,
			"confidence":             h.Confidence,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrHazardNotFound
	}
	return nil
}

var _ inspection.Repository = (*InspectionRepository)(nil)
