package inspection

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/hira-inspection/internal"
	"github.com/frahmantamala/hira-inspection/internal/hazard"
	"github.com/frahmantamala/hira-inspection/internal/transport"
	"github.com/frahmantamala/hira-inspection/pkg/logger"
)

type ServiceAPI interface {
	Analyze(ctx context.Context, userID int64, cmd *AnalyzeCommand) (*AnalysisResult, error)
	List(ctx context.Context, userID int64, q ListQuery) (*ListResult, error)
	Get(ctx context.Context, id, userID int64) (*Detail, error)
	AddHazard(ctx context.Context, inspectionID, userID int64, f hazard.Fields) (*HazardResult, error)
	OverrideHazard(ctx context.Context, hazardID, userID int64, o hazard.Override) (*HazardResult, error)
	Delete(ctx context.Context, id, userID int64) error
	OpenImage(ctx context.Context, id, userID int64) (*Image, error)
}

type Handler struct {
	*transport.BaseHandler
	Service        ServiceAPI
	MaxUploadBytes int64
}

func NewHandler(service ServiceAPI, maxUploadBytes int64) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler:    transport.NewBaseHandler(lg),
		Service:        service,
		MaxUploadBytes: maxUploadBytes,
	}
}

// multipartOverhead leaves room for the text fields around the photo.
const multipartOverhead = 1 << 20

func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	p, ok := h.PrincipalOrUnauthorized(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.WriteAppError(w, h.tooLarge())
			return
		}
		h.Logger.Warn("Analyze: invalid multipart form", "error", err, "user_id", p.UserID)
		h.WriteAppError(w, internal.NewValidationError("invalid multipart form", internal.ErrCodeValidationFailed))
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	req := AnalyzeRequest{
		ProjectName:      r.FormValue("project_name"),
		InspectionDate:   r.FormValue("inspection_date"),
		Location:         r.FormValue("location"),
		InspectorName:    r.FormValue("inspector_name"),
		Department:       r.FormValue("department"),
		Notes:            r.FormValue("notes"),
		Latitude:         r.FormValue("latitude"),
		Longitude:        r.FormValue("longitude"),
		LocationAccuracy: r.FormValue("location_accuracy"),
	}

	file, header, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		h.WriteAppError(w, internal.NewValidationFieldError("image", "failed to read image", internal.ErrCodeInvalidImage))
		return
	default:
		defer file.Close()
		if header.Size > h.MaxUploadBytes {
			h.WriteAppError(w, h.tooLarge())
			return
		}
		data, err := io.ReadAll(io.LimitReader(file, h.MaxUploadBytes+1))
		if err != nil {
			h.WriteAppError(w, internal.NewValidationFieldError("image", "failed to read image", internal.ErrCodeInvalidImage))
			return
		}
		if int64(len(data)) > h.MaxUploadBytes {
			h.WriteAppError(w, h.tooLarge())
			return
		}
		req.Filename = header.Filename
		req.Image = data
	}

	cmd, err := req.ToCommand()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	result, err := h.Service.Analyze(r.Context(), p.UserID, cmd)
	if err != nil {
		h.Logger.Error("Analyze: service error", "error", err, "user_id", p.UserID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) tooLarge() *internal.AppError {
	return internal.NewValidationFieldError("image",
		fmt.Sprintf("image must not exceed %d bytes", h.MaxUploadBytes),
		internal.ErrCodeImageTooLarge)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := h.PrincipalOrUnauthorized(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	q, err := NewListQuery(query.Get("page"), query.Get("limit"), query.Get("risk_level"), query.Get("search"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	result, err := h.Service.List(r.Context(), p.UserID, q)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := h.PrincipalOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, ok := h.ParseIDParam(w, r, "id")
	if !ok {
		return
	}

	detail, err := h.Service.Get(r.Context(), id, p.UserID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, detail)
}

func (h *Handler) AddHazard(w http.ResponseWriter, r *http.Request) {
	p, ok := h.PrincipalOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, ok := h.ParseIDParam(w, r, "id")
	if !ok {
		return
	}

	var req hazard.CreateHazardRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}
	fields, err := req.ToFields()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	result, err := h.Service.AddHazard(r.Context(), id, p.UserID, fields)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) OverrideHazard(w http.ResponseWriter, r *http.Request) {
	p, ok := h.PrincipalOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, ok := h.ParseIDParam(w, r, "hazardId")
	if !ok {
		return
	}

	var req hazard.UpdateHazardRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}
	override, err := req.ToOverride()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	result, err := h.Service.OverrideHazard(r.Context(), id, p.UserID, override)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := h.PrincipalOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, ok := h.ParseIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.Service.Delete(r.Context(), id, p.UserID); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "Inspection deleted successfully"})
}

func (h *Handler) Image(w http.ResponseWriter, r *http.Request) {
	p, ok := h.PrincipalOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, ok := h.ParseIDParam(w, r, "id")
	if !ok {
		return
	}

	img, err := h.Service.OpenImage(r.Context(), id, p.UserID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	defer img.File.Close()

	stat, err := img.File.Stat()
	if err != nil {
		h.HandleServiceError(w, internal.NewInternalError("failed to read image", err))
		return
	}

	w.Header().Set("Content-Type", img.MIMEType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	http.ServeContent(w, r, img.Name, stat.ModTime(), img.File)
}
