package dashboard

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/hira-inspection/internal/transport"
	"github.com/frahmantamala/hira-inspection/pkg/logger"
)

type ServiceAPI interface {
	GetDashboard(ctx context.Context, userID int64) (*Dashboard, error)
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

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	p, ok := h.PrincipalOrUnauthorized(w, r)
	if !ok {
		return
	}

	d, err := h.Service.GetDashboard(r.Context(), p.UserID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, d)
}
