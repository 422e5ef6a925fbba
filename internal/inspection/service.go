package inspection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/frahmantamala/hira-inspection/internal"
	"github.com/frahmantamala/hira-inspection/internal/core/events"
	"github.com/frahmantamala/hira-inspection/internal/hazard"
	"github.com/frahmantamala/hira-inspection/internal/imaging"
	"github.com/frahmantamala/hira-inspection/internal/risk"
	"github.com/frahmantamala/hira-inspection/internal/vision"
)

// Repository is the persistence gateway for inspections and their hazards.
// Reads and writes scoped by userID return internal.ErrInspectionNotFound or
// internal.ErrHazardNotFound when the record is missing or owned by someone else.
type Repository interface {
	// WithTx runs fn against a repository bound to one transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(Repository) error) error

	Create(ctx context.Context, i *Inspection) error
	GetByID(ctx context.Context, id, userID int64) (*Inspection, error)
	List(ctx context.Context, userID int64, q ListQuery) ([]*Summary, int64, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
	Complete(ctx context.Context, id int64, summary *string, overall risk.Level) error
	SetOverallRiskLevel(ctx context.Context, id int64, level *risk.Level) error
	Delete(ctx context.Context, id, userID int64) error
	FailStale(ctx context.Context, cutoff time.Time) (int64, error)

	CreateHazards(ctx context.Context, hs []*hazard.Hazard) error
	GetHazard(ctx context.Context, hazardID, userID int64) (*hazard.Hazard, error)
	ListHazards(ctx context.Context, inspectionID int64) ([]*hazard.Hazard, error)
	UpdateHazard(ctx context.Context, h *hazard.Hazard) error
}

// ImageStore keeps the uploaded photos.
type ImageStore interface {
	Save(ext string, data []byte) (string, error)
	Open(path string) (*os.File, error)
	Delete(path string) error
}

type Options struct {
	AITimeout         time.Duration
	MaxImageDimension int
	StaleAfter        time.Duration
}

type Service struct {
	repo      Repository
	analyzer  vision.Analyzer
	store     ImageStore
	publisher events.Publisher
	opts      Options
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo Repository, analyzer vision.Analyzer, store ImageStore, publisher events.Publisher, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		analyzer:  analyzer,
		store:     store,
		publisher: publisher,
		opts:      opts,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// AnalysisResult is returned by a successful analysis.
type AnalysisResult struct {
	Inspection *Inspection      `json:"inspection"`
	Hazards    []*hazard.Hazard `json:"hazards"`
	AIResult   json.RawMessage  `json:"ai_result"`
}

// HazardResult is returned by a manual add or an override.
type HazardResult struct {
	Hazard           *hazard.Hazard `json:"hazard"`
	OverallRiskLevel *risk.Level    `json:"overall_risk_level"`
}

// Image is an opened inspection photo. The caller closes File.
type Image struct {
	File     *os.File
	Name     string
	MIMEType string
}

// Analyze stores the photo, records the inspection, runs the vision analysis
// and persists the normalized hazards. When analysis or persistence fails the
// inspection is left in the failed state and the returned error carries its id.
func (s *Service) Analyze(ctx context.Context, userID int64, cmd *AnalyzeCommand) (*AnalysisResult, error) {
	started := time.Now()

	path, err := s.store.Save(cmd.Extension, cmd.Image)
	if err != nil {
		s.logger.Error("failed to store inspection image", "error", err, "user_id", userID)
		return nil, internal.NewInternalError("failed to store image", err)
	}

	if cmd.Latitude == nil || cmd.Longitude == nil {
		if gps, ok := imaging.ExtractGPS(cmd.Image); ok {
			cmd.Latitude, cmd.Longitude = &gps.Latitude, &gps.Longitude
			s.logger.Debug("using photo GPS position", "user_id", userID, "latitude", gps.Latitude, "longitude", gps.Longitude)
		}
	}

	now := s.now()
	filename := cmd.Filename
	insp := &Inspection{
		UserID:           userID,
		ProjectName:      cmd.ProjectName,
		Location:         cmd.Location,
		Latitude:         cmd.Latitude,
		Longitude:        cmd.Longitude,
		LocationAccuracy: cmd.LocationAccuracy,
		InspectionDate:   cmd.InspectionDate,
		InspectorName:    cmd.InspectorName,
		Department:       cmd.Department,
		Notes:            cmd.Notes,
		ImagePath:        path,
		ImageFilename:    &filename,
		Status:           StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.Create(ctx, insp); err != nil {
		s.logger.Error("failed to create inspection", "error", err, "user_id", userID)
		if delErr := s.store.Delete(path); delErr != nil {
			s.logger.Warn("failed to remove orphaned image", "error", delErr, "path", path)
		}
		return nil, internal.NewPersistenceError(err)
	}

	if err := s.repo.UpdateStatus(ctx, insp.ID, StatusAnalyzing); err != nil {
		return nil, s.fail(ctx, insp, "persist", internal.NewPersistenceError(err), started)
	}
	insp.Status = StatusAnalyzing

	s.logger.Info("starting inspection analysis",
		"inspection_id", insp.ID,
		"user_id", userID,
		"analyzer", s.analyzer.SourceName())

	data, mimeType, err := imaging.Downscale(cmd.Image, cmd.MIMEType, s.opts.MaxImageDimension)
	if err != nil {
		s.logger.Warn("sending original image, downscale failed", "error", err, "inspection_id", insp.ID)
	}

	aiCtx, cancel := internal.WithTimeout(ctx, s.opts.AITimeout)
	result, err := s.analyzer.Analyze(aiCtx, vision.Image{Data: data, MIMEType: mimeType})
	cancel()
	if err != nil {
		appErr := internal.NewExternalError(fmt.Sprintf("AI analysis failed: %v", err), internal.ErrCodeAnalysisFailed, err)
		return nil, s.fail(ctx, insp, "analysis", appErr, started)
	}

	fields := hazard.NormalizeAll(result.Candidates)
	hazards := make([]*hazard.Hazard, len(fields))
	for i, f := range fields {
		hazards[i] = hazard.New(insp.ID, f)
	}
	overall := IngestLevel(result.OverallRiskLevel, hazards)
	summary := result.Summary

	err = s.repo.WithTx(ctx, func(tx Repository) error {
		if err := tx.Complete(ctx, insp.ID, &summary, overall); err != nil {
			return err
		}
		return tx.CreateHazards(ctx, hazards)
	})
	if errors.Is(err, internal.ErrAnalysisSuperseded) {
		s.logger.Warn("inspection failed by stale sweep before analysis finished, discarding hazards",
			"inspection_id", insp.ID,
			"user_id", userID,
			"hazard_count", len(hazards))
		return nil, internal.ErrAnalysisSuperseded.WithDetails(map[string]interface{}{"inspection_id": insp.ID})
	}
	if err != nil {
		return nil, s.fail(ctx, insp, "persist", internal.NewPersistenceError(err), started)
	}

	// the commit stands even if the caller has gone away
	readCtx := context.WithoutCancel(ctx)
	stored, err := s.repo.GetByID(readCtx, insp.ID, userID)
	if err != nil {
		return nil, internal.NewPersistenceError(err)
	}
	storedHazards, err := s.repo.ListHazards(readCtx, insp.ID)
	if err != nil {
		return nil, internal.NewPersistenceError(err)
	}

	levels := make([]string, len(storedHazards))
	for i, h := range storedHazards {
		levels[i] = string(h.RiskLevel)
	}
	s.publish(readCtx, events.NewAnalysisCompletedEvent(insp.ID, userID, string(overall), levels, time.Since(started).Seconds()))

	s.logger.Info("inspection analysis completed",
		"inspection_id", insp.ID,
		"user_id", userID,
		"hazard_count", len(storedHazards),
		"overall_risk_level", overall)

	return &AnalysisResult{Inspection: stored, Hazards: storedHazards, AIResult: result.Raw}, nil
}

// fail marks the inspection failed and returns cause annotated with its id.
// The status write ignores cancellation of ctx so a timed-out request still
// leaves a terminal record.
func (s *Service) fail(ctx context.Context, insp *Inspection, stage string, cause *internal.AppError, started time.Time) error {
	s.logger.Error("inspection analysis failed",
		"inspection_id", insp.ID,
		"user_id", insp.UserID,
		"stage", stage,
		"error", cause)

	if err := s.repo.UpdateStatus(context.WithoutCancel(ctx), insp.ID, StatusFailed); err != nil {
		s.logger.Error("failed to mark inspection failed", "error", err, "inspection_id", insp.ID)
	}
	s.publish(ctx, events.NewAnalysisFailedEvent(insp.ID, insp.UserID, stage, cause.Message, time.Since(started).Seconds()))

	return cause.WithDetails(map[string]interface{}{"inspection_id": insp.ID})
}

func (s *Service) List(ctx context.Context, userID int64, q ListQuery) (*ListResult, error) {
	rows, total, err := s.repo.List(ctx, userID, q)
	if err != nil {
		s.logger.Error("failed to list inspections", "error", err, "user_id", userID)
		return nil, internal.NewPersistenceError(err)
	}
	return &ListResult{Inspections: rows, Total: total, Page: q.Page, Limit: q.Limit}, nil
}

func (s *Service) Get(ctx context.Context, id, userID int64) (*Detail, error) {
	insp, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, s.repoError(err, "inspection_id", id)
	}
	hazards, err := s.repo.ListHazards(ctx, id)
	if err != nil {
		return nil, s.repoError(err, "inspection_id", id)
	}
	return &Detail{Inspection: insp, Hazards: hazards}, nil
}

// AddHazard stores a manually entered hazard and recomputes the overall level.
func (s *Service) AddHazard(ctx context.Context, inspectionID, userID int64, f hazard.Fields) (*HazardResult, error) {
	h := hazard.New(inspectionID, f)
	var overall *risk.Level

	err := s.repo.WithTx(ctx, func(tx Repository) error {
		if _, err := tx.GetByID(ctx, inspectionID, userID); err != nil {
			return err
		}
		if err := tx.CreateHazards(ctx, []*hazard.Hazard{h}); err != nil {
			return err
		}
		var err error
		overall, err = recompute(ctx, tx, inspectionID)
		return err
	})
	if err != nil {
		return nil, s.repoError(err, "inspection_id", inspectionID)
	}

	s.publish(ctx, events.NewHazardAddedEvent(inspectionID, h.ID, string(h.RiskLevel), levelString(overall)))
	s.logger.Info("hazard added",
		"inspection_id", inspectionID,
		"hazard_id", h.ID,
		"user_id", userID,
		"risk_level", h.RiskLevel)

	return &HazardResult{Hazard: h, OverallRiskLevel: overall}, nil
}

// OverrideHazard applies o to the hazard and recomputes the overall level
// when the stored hazard changed.
func (s *Service) OverrideHazard(ctx context.Context, hazardID, userID int64, o hazard.Override) (*HazardResult, error) {
	var (
		h        *hazard.Hazard
		previous risk.Level
		overall  *risk.Level
		changed  bool
	)

	err := s.repo.WithTx(ctx, func(tx Repository) error {
		var err error
		h, err = tx.GetHazard(ctx, hazardID, userID)
		if err != nil {
			return err
		}
		before := h.Fields
		previous = h.RiskLevel
		h.ApplyOverride(o)

		changed = !before.Equal(h.Fields)
		if !changed {
			insp, err := tx.GetByID(ctx, h.InspectionID, userID)
			if err != nil {
				return err
			}
			overall = insp.OverallRiskLevel
			return nil
		}

		if err := tx.UpdateHazard(ctx, h); err != nil {
			return err
		}
		overall, err = recompute(ctx, tx, h.InspectionID)
		return err
	})
	if err != nil {
		return nil, s.repoError(err, "hazard_id", hazardID)
	}

	if changed {
		s.publish(ctx, events.NewHazardOverriddenEvent(h.InspectionID, h.ID, string(previous), string(h.RiskLevel), levelString(overall)))
	}
	s.logger.Info("hazard overridden",
		"inspection_id", h.InspectionID,
		"hazard_id", h.ID,
		"user_id", userID,
		"changed", changed,
		"previous_level", previous,
		"risk_level", h.RiskLevel)

	return &HazardResult{Hazard: h, OverallRiskLevel: overall}, nil
}

func recompute(ctx context.Context, tx Repository, inspectionID int64) (*risk.Level, error) {
	hazards, err := tx.ListHazards(ctx, inspectionID)
	if err != nil {
		return nil, err
	}
	overall := OverallLevel(hazards)
	if err := tx.SetOverallRiskLevel(ctx, inspectionID, overall); err != nil {
		return nil, err
	}
	return overall, nil
}

// Delete removes the photo and the inspection. Hazards go with the inspection.
func (s *Service) Delete(ctx context.Context, id, userID int64) error {
	insp, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		return s.repoError(err, "inspection_id", id)
	}

	if err := s.store.Delete(insp.ImagePath); err != nil {
		s.logger.Warn("failed to delete inspection image", "error", err, "inspection_id", id)
	}

	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return s.repoError(err, "inspection_id", id)
	}

	s.publish(ctx, events.NewInspectionDeletedEvent(id, userID))
	s.logger.Info("inspection deleted", "inspection_id", id, "user_id", userID)
	return nil
}

func (s *Service) OpenImage(ctx context.Context, id, userID int64) (*Image, error) {
	insp, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, s.repoError(err, "inspection_id", id)
	}
	f, err := s.store.Open(insp.ImagePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, internal.ErrImageNotFound
		}
		s.logger.Error("failed to open inspection image", "error", err, "inspection_id", id)
		return nil, internal.NewInternalError("failed to open image", err)
	}
	name := fmt.Sprintf("inspection-%d", id)
	if insp.ImageFilename != nil {
		name = *insp.ImageFilename
	}
	return &Image{File: f, Name: name, MIMEType: imaging.MIMEType(insp.ImagePath)}, nil
}

// SweepStale fails inspections left in analyzing for longer than StaleAfter.
func (s *Service) SweepStale(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.opts.StaleAfter)
	n, err := s.repo.FailStale(ctx, cutoff)
	if err != nil {
		s.logger.Error("failed to sweep stale inspections", "error", err)
		return 0, internal.NewPersistenceError(err)
	}
	if n > 0 {
		s.publish(ctx, events.NewInspectionsSweptEvent(n))
		s.logger.Warn("stale inspections marked failed", "count", n, "cutoff", cutoff)
	}
	return n, nil
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSync(ctx, e); err != nil {
		s.logger.Warn("event publish failed", "event_type", e.EventType(), "error", err)
	}
}

// repoError passes AppErrors through and hides anything else behind a persistence error.
func (s *Service) repoError(err error, key string, id int64) error {
	if appErr, ok := internal.IsAppError(err); ok {
		return appErr
	}
	s.logger.Error("inspection repository error", "error", err, key, id)
	return internal.NewPersistenceError(err)
}

func levelString(l *risk.Level) string {
	if l == nil {
		return ""
	}
	return string(*l)
}
