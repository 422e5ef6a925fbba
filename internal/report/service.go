package report

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/frahmantamala/hira-inspection/internal"
	"github.com/frahmantamala/hira-inspection/internal/inspection"
)

type Format string

const (
	FormatPDF   Format = "pdf"
	FormatExcel Format = "excel"
)

// InspectionReader loads an inspection owned by the caller.
type InspectionReader interface {
	Get(ctx context.Context, id, userID int64) (*inspection.Detail, error)
	OpenImage(ctx context.Context, id, userID int64) (*inspection.Image, error)
}

// Document is a rendered report ready to be sent as an attachment.
type Document struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Service struct {
	inspections InspectionReader
	renderers   map[Format]Renderer
	logger      *slog.Logger
	now         func() time.Time
}

func NewService(inspections InspectionReader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		inspections: inspections,
		renderers: map[Format]Renderer{
			FormatPDF:   NewPDFRenderer(),
			FormatExcel: NewExcelRenderer(),
		},
		logger: logger,
		now:    time.Now,
	}
}

func (s *Service) Generate(ctx context.Context, id, userID int64, format Format) (*Document, error) {
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, internal.NewValidationFieldError("format", "format must be pdf or excel", internal.ErrCodeValidationFailed)
	}

	detail, err := s.inspections.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	rep := Assemble(detail, s.now().UTC())
	if format == FormatPDF {
		rep.Photo, rep.PhotoMIME = s.loadPhoto(ctx, id, userID)
	}

	data, err := renderer.Render(rep)
	if err != nil {
		s.logger.Error("failed to render report", "error", err, "inspection_id", id, "format", format)
		return nil, internal.NewInternalError("failed to generate report", err)
	}

	s.logger.Info("report generated", "inspection_id", id, "format", format, "bytes", len(data))
	return &Document{
		Filename:    Filename(detail.Inspection, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Data:        data,
	}, nil
}

// loadPhoto returns the inspection image, or nothing when it cannot be read.
func (s *Service) loadPhoto(ctx context.Context, id, userID int64) ([]byte, string) {
	img, err := s.inspections.OpenImage(ctx, id, userID)
	if err != nil {
		if !errors.Is(err, internal.ErrImageNotFound) {
			s.logger.Warn("report photo unavailable", "error", err, "inspection_id", id)
		}
		return nil, ""
	}
	defer img.File.Close()

	data, err := io.ReadAll(img.File)
	if err != nil {
		s.logger.Warn("failed to read report photo", "error", err, "inspection_id", id)
		return nil, ""
	}
	return data, img.MIMEType
}
