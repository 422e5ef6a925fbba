package report

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/frahmantamala/hira-inspection/internal/transport"
	"github.com/frahmantamala/hira-inspection/pkg/logger"
)

type ServiceAPI interface {
	Generate(ctx context.Context, id, userID int64, format Format) (*Document, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) PDF(w http.ResponseWriter, r *http.Request) {
	h.download(w, r, FormatPDF)
}

func (h *Handler) Excel(w http.ResponseWriter, r *http.Request) {
	h.download(w, r, FormatExcel)
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request, format Format) {
	p, ok := h.PrincipalOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, ok := h.ParseIDParam(w, r, "id")
	if !ok {
		return
	}

	doc, err := h.Service.Generate(r.Context(), id, p.UserID, format)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc.Data); err != nil {
		h.Logger.Warn("failed to write report", "error", err, "inspection_id", id)
	}
}
