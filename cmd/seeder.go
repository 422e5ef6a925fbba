package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/frahmantamala/hira-inspection/internal"
	"github.com/frahmantamala/hira-inspection/internal/auth"
	"github.com/frahmantamala/hira-inspection/internal/user"
	userpostgres "github.com/frahmantamala/hira-inspection/internal/user/postgres"
	"github.com/frahmantamala/hira-inspection/pkg/logger"
)

const seedPassword = "password123"

type seedUser struct {
	Username string
	Email    string
	FullName string
	Role     user.Role
}

var seedUsers = []seedUser{
	{Username: "hse.officer", Email: "hse.officer@example.com", FullName: "Siti Rahma", Role: user.RoleHSEOfficer},
	{Username: "project.manager", Email: "project.manager@example.com", FullName: "Budi Santoso", Role: user.RoleProjectManager},
	{Username: "supervisor", Email: "supervisor@example.com", FullName: "Andi Wijaya", Role: user.RoleSupervisor},
	{Username: "auditor", Email: "auditor@example.com", FullName: "Dewi Lestari", Role: user.RoleAuditor},
	{Username: "admin", Email: "admin@example.com", FullName: "Administrator", Role: user.RoleAdmin},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with demo users",
	Long:  `Create one demo account per role. Existing accounts are left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configDir)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		log := logger.Init(cfg.Observability.Logging.Format, cfg.Observability.Logging.Level)

		database, err := initDB(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to init db: %w", err)
		}
		defer database.Close()

		if clearData {
			if err := clearTables(database.Gorm); err != nil {
				return err
			}
			log.Info("cleared existing data")
		}

		tokens := auth.NewJWTTokenGenerator(
			cfg.Security.JWTAccessSecret,
			cfg.Security.JWTRefreshSecret,
			cfg.Security.AccessTokenDuration,
			cfg.Security.RefreshTokenDuration,
		)
		svc := auth.NewService(userpostgres.NewUserRepository(database.Gorm), tokens, cfg.Security.BCryptCost, log)
		return seed(cmd.Context(), svc, log)
	},
}

type registrar interface {
	Register(ctx context.Context, dto auth.RegisterDTO) (*auth.AuthResponse, error)
}

func seed(ctx context.Context, svc registrar, log *slog.Logger) error {
	for _, su := range seedUsers {
		fullName := su.FullName
		_, err := svc.Register(ctx, auth.RegisterDTO{
			Username: su.Username,
			Email:    su.Email,
			Password: seedPassword,
			Role:     string(su.Role),
			FullName: &fullName,
		})
		switch {
		case errors.Is(err, internal.ErrUserExists):
			log.Info("user already exists", "username", su.Username)
		case err != nil:
			return fmt.Errorf("seed user %s: %w", su.Username, err)
		default:
			log.Info("seeded user", "username", su.Username, "role", su.Role)
		}
	}
	return nil
}

func clearTables(db *gorm.DB) error {
	for _, table := range []string{"hazards", "inspections", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}
