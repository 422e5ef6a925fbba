package auth

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/hira-inspection/internal"
	"github.com/frahmantamala/hira-inspection/internal/user"
)

// Service registers users, checks credentials and issues tokens.
type Service struct {
	users          user.Repository
	tokenGenerator TokenGenerator
	bcryptCost     int
	logger         *slog.Logger
}

func NewService(users user.Repository, tokenGen TokenGenerator, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:          users,
		tokenGenerator: tokenGen,
		bcryptCost:     bcryptCost,
		logger:         logger,
	}
}

func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*AuthResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	u := dto.ToUser()
	exists, err := s.users.Exists(ctx, u.Username, u.Email)
	if err != nil {
		s.logger.Error("failed to check existing user", "error", err)
		return nil, internal.NewPersistenceError(err)
	}
	if exists {
		return nil, internal.ErrUserExists
	}

	hash, err := s.HashPassword(dto.Password)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}
	u.PasswordHash = hash

	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, internal.ErrUserExists) {
			return nil, internal.ErrUserExists
		}
		s.logger.Error("failed to create user", "error", err, "username", u.Username)
		return nil, internal.NewPersistenceError(err)
	}

	s.logger.Info("user registered", "user_id", u.ID, "role", u.Role)
	return s.issue(u)
}

func (s *Service) Login(ctx context.Context, dto LoginDTO) (*AuthResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	u, err := s.users.GetByLogin(ctx, dto.Username)
	if err != nil {
		if !errors.Is(err, internal.ErrUserNotFound) {
			s.logger.Error("failed to load user for login", "error", err)
			return nil, internal.NewPersistenceError(err)
		}
		return nil, internal.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(dto.Password)); err != nil {
		s.logger.Warn("login rejected", "user_id", u.ID)
		return nil, internal.ErrInvalidCredentials
	}

	s.logger.Info("user logged in", "user_id", u.ID)
	return s.issue(u)
}

// RefreshTokens validates refresh token and returns new tokens
func (s *Service) RefreshTokens(ctx context.Context, dto RefreshTokenDTO) (*AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	claims, err := s.tokenGenerator.ValidateRefreshToken(dto.RefreshToken)
	if err != nil {
		return nil, err
	}

	// the account may have been removed since the token was issued
	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return nil, internal.ErrInvalidToken
		}
		return nil, internal.NewPersistenceError(err)
	}

	tokens, err := s.tokens(u)
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGenerator.ValidateAccessToken(tokenString)
}

// HashPassword creates a bcrypt hash of the password
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *Service) issue(u *user.User) (*AuthResponse, error) {
	tokens, err := s.tokens(u)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{AuthTokens: *tokens, User: u}, nil
}

func (s *Service) tokens(u *user.User) (*AuthTokens, error) {
	access, err := s.tokenGenerator.GenerateAccessToken(u)
	if err != nil {
		return nil, internal.NewInternalError("failed to issue token", err)
	}
	refresh, err := s.tokenGenerator.GenerateRefreshToken(u)
	if err != nil {
		return nil, internal.NewInternalError("failed to issue token", err)
	}
	return &AuthTokens{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.tokenGenerator.AccessTTL().Seconds()),
	}, nil
}
