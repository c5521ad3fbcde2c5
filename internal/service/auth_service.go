package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/queue-service/internal/auth"
	"github.com/spec-kit/queue-service/internal/config"
	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/repository"
	apperrors "github.com/spec-kit/queue-service/pkg/util"
)

// Defaults applied when seeding the initial administrator account. The
// password must be changed on first use in any real deployment.
const (
	defaultAdminEmail    = "admin"
	defaultAdminPassword = "admin"
	defaultAdminName     = "Administrador"
)

// AuthService performs credential checks and issues session tokens.
type AuthService struct {
	staff      repository.StaffRepository
	tokens     *auth.TokenManager
	bcryptCost int
	logger     *zap.Logger
}

// NewAuthService constructs the service.
func NewAuthService(cfg config.AuthConfig, staff repository.StaffRepository, logger *zap.Logger) *AuthService {
	return &AuthService{
		staff:      staff,
		tokens:     auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost: cfg.BcryptCost,
		logger:     logger,
	}
}

// TokenManager exposes the manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

// Login verifies credentials and returns the staff member with a session
// token. Wrong email and wrong password produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.StaffMember, string, time.Time, error) {
	if email == "" || password == "" {
		return nil, "", time.Time{}, apperrors.NewValidationError("email and password required", nil)
	}

	staff, err := s.staff.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.NewStoreError(err)
	}
	if err := auth.ComparePassword(staff.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.tokens.GenerateToken(staff.ID, staff.Role)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return staff, token, expiresAt, nil
}

// SeedDefaultAdmin creates the fallback administrator account when no admin
// exists yet, so a fresh deployment is reachable.
func (s *AuthService) SeedDefaultAdmin(ctx context.Context) error {
	list, err := s.staff.List(ctx)
	if err != nil {
		return err
	}
	for _, staff := range list {
		if staff.Role == domain.StaffRoleAdmin {
			return nil
		}
	}

	hash, err := auth.HashPassword(defaultAdminPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	admin := &domain.StaffMember{
		Name:         defaultAdminName,
		Email:        defaultAdminEmail,
		PasswordHash: hash,
		Role:         domain.StaffRoleAdmin,
	}
	if err := s.staff.Create(ctx, admin); err != nil {
		return err
	}
	s.logger.Warn("seeded default admin account; change its password",
		zap.String("email", defaultAdminEmail))
	return nil
}
