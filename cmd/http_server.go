package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/frahmantamala/hira-inspection/api"
	"github.com/frahmantamala/hira-inspection/internal"
	"github.com/frahmantamala/hira-inspection/internal/auth"
	"github.com/frahmantamala/hira-inspection/internal/category"
	"github.com/frahmantamala/hira-inspection/internal/core/events"
	"github.com/frahmantamala/hira-inspection/internal/dashboard"
	dashboardpostgres "github.com/frahmantamala/hira-inspection/internal/dashboard/postgres"
	"github.com/frahmantamala/hira-inspection/internal/inspection"
	inspectionpostgres "github.com/frahmantamala/hira-inspection/internal/inspection/postgres"
	"github.com/frahmantamala/hira-inspection/internal/metrics"
	"github.com/frahmantamala/hira-inspection/internal/report"
	"github.com/frahmantamala/hira-inspection/internal/storage"
	"github.com/frahmantamala/hira-inspection/internal/transport"
	"github.com/frahmantamala/hira-inspection/internal/transport/rest"
	"github.com/frahmantamala/hira-inspection/internal/transport/swagger"
	"github.com/frahmantamala/hira-inspection/internal/user"
	userpostgres "github.com/frahmantamala/hira-inspection/internal/user/postgres"
	"github.com/frahmantamala/hira-inspection/internal/vision"
	"github.com/frahmantamala/hira-inspection/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config    *internal.Config
	DB        *Database
	Router    *chi.Mux
	Logger    *slog.Logger
	EventBus  *events.EventBus
	Metrics   *metrics.Metrics
	Inspector *inspection.Service
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	}()

	cfg := deps.Config.Server
	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		deps.Logger.Info("starting HTTP server", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		inspection.RunSweeper(gctx, deps.Inspector, deps.Config.Analysis.SweepInterval)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		deps.Logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		deps.Logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.Init(config.Observability.Logging.Format, config.Observability.Logging.Level)

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps, err := buildDependencies(config, db, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return deps, nil
}

// buildDependencies wires repositories, services and handlers onto a router.
func buildDependencies(config *internal.Config, db *Database, log *slog.Logger) (*Dependencies, error) {
	store, err := storage.NewLocalStore(config.Storage.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize upload storage: %w", err)
	}

	analyzer, err := vision.NewAnalyzer(config.AI, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vision analyzer: %w", err)
	}

	bus := events.NewEventBus(log)
	var m *metrics.Metrics
	if config.Observability.Metrics.Enabled {
		m = metrics.New()
		m.Subscribe(bus)
	}

	users := userpostgres.NewUserRepository(db.Gorm)
	tokens := auth.NewJWTTokenGenerator(
		config.Security.JWTAccessSecret,
		config.Security.JWTRefreshSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(users, tokens, config.Security.BCryptCost, log)
	userService := user.NewService(users, log)

	inspectionService := inspection.NewService(
		inspectionpostgres.NewInspectionRepository(db.Gorm),
		analyzer,
		store,
		bus,
		inspection.Options{
			AITimeout:         config.AI.Timeout,
			MaxImageDimension: config.AI.MaxImageDimension,
			StaleAfter:        config.Analysis.StaleAfter,
		},
		log,
	)
	reportService := report.NewService(inspectionService, log)
	dashboardService := dashboard.NewService(dashboardpostgres.NewDashboardRepository(db.SQLX), log)
	categoryService := category.NewService()

	if _, err := swagger.LoadSpec(api.OpenAPI); err != nil {
		log.Warn("openapi document failed validation", "error", err)
	}

	sqlDB, err := db.Gorm.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, rest.Handlers{
		Auth:       auth.NewHandler(authService),
		User:       user.NewHandler(userService),
		Category:   category.NewHandler(transport.NewBaseHandler(log), categoryService),
		Inspection: inspection.NewHandler(inspectionService, config.Storage.MaxUploadBytes),
		Report:     report.NewHandler(reportService),
		Dashboard:  dashboard.NewHandler(dashboardService),
	}, rest.RouterOptions{
		DB:             sqlDB,
		DBComponent:    db.Driver,
		AllowedOrigins: config.Server.Origins(),
		Metrics:        m,
		MetricsPath:    config.Observability.Metrics.Path,
		OpenAPI:        api.OpenAPI,
		Logger:         log,
	})

	return &Dependencies{
		Config:    config,
		DB:        db,
		Router:    router,
		Logger:    log,
		EventBus:  bus,
		Metrics:   m,
		Inspector: inspectionService,
	}, nil
}
