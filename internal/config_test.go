package internal_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/hira-inspection/internal"
)

func validConfig() *internal.Config {
	return &internal.Config{
		Server: internal.ServerConfig{
			Port:              8080,
			AllowedOrigins:    "http://localhost:5173, *",
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      120 * time.Second,
		},
		Database: internal.DatabaseConfig{
			Driver:       "sqlite",
			Source:       "file:hira.db",
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		},
		Security: internal.SecurityConfig{
			JWTAccessSecret:      "0123456789abcdef0123456789abcdef",
			JWTRefreshSecret:     "fedcba9876543210fedcba9876543210",
			AccessTokenDuration:  time.Hour,
			RefreshTokenDuration: 24 * time.Hour,
			BCryptCost:           10,
		},
		AI: internal.AIConfig{
			Provider: "stub",
			Timeout:  60 * time.Second,
		},
		Storage: internal.StorageConfig{
			UploadDir:      "uploads",
			MaxUploadBytes: 10 << 20,
		},
		Analysis: internal.AnalysisConfig{
			StaleAfter: 10 * time.Minute,
		},
		Observability: internal.ObservabilityConfig{
			Logging: internal.LoggingConfig{Level: "info", Format: "text"},
		},
	}
}

var _ = Describe("Config", func() {
	It("accepts a complete configuration", func() {
		Expect(validConfig().Validate()).To(Succeed())
	})

	It("requires an api key for the openai provider", func() {
		cfg := validConfig()
		cfg.AI.Provider = "openai"
		cfg.AI.Model = "gpt-4o-mini"

		err := cfg.Validate()
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("APIKey"))
	})

	It("rejects unknown database drivers", func() {
		cfg := validConfig()
		cfg.Database.Driver = "mysql"
		Expect(cfg.Validate()).NotTo(Succeed())
	})

	It("rejects a write timeout shorter than the AI timeout", func() {
		cfg := validConfig()
		cfg.Server.WriteTimeout = 30 * time.Second

		err := cfg.Validate()
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("write_timeout"))
	})

	It("rejects a stale threshold within the AI timeout", func() {
		cfg := validConfig()
		cfg.Analysis.StaleAfter = cfg.AI.Timeout

		err := cfg.Validate()
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("stale_after"))
	})

	It("rejects more idle than open connections", func() {
		cfg := validConfig()
		cfg.Database.MaxIdleConns = 5
		Expect(cfg.Validate()).NotTo(Succeed())
	})

	It("splits allowed origins", func() {
		cfg := validConfig()
		Expect(cfg.Server.Origins()).To(Equal([]string{"http://localhost:5173", "*"}))
	})
})

var _ = Describe("AppError", func() {
	It("matches sentinels after copying", func() {
		err := internal.ErrInspectionNotFound.WithCause(internal.ErrHazardNotFound)
		Expect(err).To(MatchError(internal.ErrInspectionNotFound))
		Expect(internal.ErrInspectionNotFound.Cause).To(BeNil())
	})

	It("unwraps through fmt wrapping", func() {
		wrapped := internal.NewValidationFieldError("severity", "severity is required", internal.ErrCodeInvalidRating)
		appErr, ok := internal.IsAppError(wrapped)
		Expect(ok).To(BeTrue())
		Expect(appErr.StatusCode).To(Equal(400))
		Expect(appErr.Error()).To(Equal("severity is required"))
	})
})
