package rest

import (
	"database/sql"
	"log/slog"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/hira-inspection/internal/auth"
	"github.com/frahmantamala/hira-inspection/internal/category"
	"github.com/frahmantamala/hira-inspection/internal/dashboard"
	"github.com/frahmantamala/hira-inspection/internal/inspection"
	"github.com/frahmantamala/hira-inspection/internal/metrics"
	"github.com/frahmantamala/hira-inspection/internal/report"
	"github.com/frahmantamala/hira-inspection/internal/transport/middleware"
	"github.com/frahmantamala/hira-inspection/internal/transport/swagger"
	"github.com/frahmantamala/hira-inspection/internal/user"
)

// Handlers groups everything the router mounts. Nil handlers leave their
// routes unregistered.
type Handlers struct {
	Auth       *auth.Handler
	User       *user.Handler
	Category   *category.Handler
	Inspection *inspection.Handler
	Report     *report.Handler
	Dashboard  *dashboard.Handler
}

type RouterOptions struct {
	DB             *sql.DB
	DBComponent    string
	AllowedOrigins []string
	Metrics        *metrics.Metrics
	MetricsPath    string
	OpenAPI        []byte
	Logger         *slog.Logger
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, opts RouterOptions) {
	healthHandler := NewHealthHandler(opts.DB, opts.DBComponent)

	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(opts.Logger))
	router.Use(middleware.LoggingMiddleware(opts.Logger))
	if opts.Metrics != nil {
		router.Use(opts.Metrics.Middleware)
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.Handle(path, opts.Metrics.Handler())
	}

	if len(opts.OpenAPI) > 0 {
		router.Get("/openapi.yml", swagger.SpecHandler(opts.OpenAPI))
		router.Handle("/swagger/*", swagger.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if h.Category != nil {
			r.Get("/categories", h.Category.GetCategories)
		}

		if h.Auth == nil {
			return
		}

		r.Route("/auth", func(ar chi.Router) {
			ar.Post("/register", h.Auth.Register)
			ar.Post("/login", h.Auth.Login)
			ar.Post("/refresh", h.Auth.RefreshToken)
			if h.User != nil {
				ar.With(h.Auth.AuthMiddleware).Get("/me", h.User.GetCurrentUser)
			}
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			if h.User != nil {
				pr.Get("/users/me", h.User.GetCurrentUser)
			}

			if h.Dashboard != nil {
				pr.Get("/dashboard/stats", h.Dashboard.GetStats)
			}

			if h.Inspection != nil {
				pr.Route("/inspections", func(ir chi.Router) {
					ir.Post("/analyze", h.Inspection.Analyze)
					ir.Get("/", h.Inspection.List)
					ir.Put("/hazards/{hazardId}", h.Inspection.OverrideHazard)
					ir.Get("/{id}", h.Inspection.Get)
					ir.Delete("/{id}", h.Inspection.Delete)
					ir.Get("/{id}/image", h.Inspection.Image)
					ir.Post("/{id}/hazards", h.Inspection.AddHazard)
				})
			}

			if h.Report != nil {
				pr.Route("/reports", func(rr chi.Router) {
					rr.Get("/{id}/pdf", h.Report.PDF)
					rr.Get("/{id}/excel", h.Report.Excel)
				})
			}
		})
	})
}
