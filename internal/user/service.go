package user

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/hira-inspection/internal"
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	// GetByLogin finds a user by username or email.
	GetByLogin(ctx context.Context, login string) (*User, error)
	Exists(ctx context.Context, username, email string) (bool, error)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if appErr, ok := internal.IsAppError(err); ok {
			return nil, appErr
		}
		s.logger.Error("failed to load user", "error", err, "user_id", id)
		return nil, internal.NewPersistenceError(err)
	}
	return u, nil
}
