package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/repository"
	apperrors "github.com/spec-kit/queue-service/pkg/util"
)

func newAuthFixture(t *testing.T) (*AuthService, repository.StaffRepository) {
	t.Helper()
	repo := repository.NewMemoryStaffRepository()
	return NewAuthService(testAuthConfig(), repo, zap.NewNop()), repo
}

func TestSeedDefaultAdminThenLogin(t *testing.T) {
	ctx := context.Background()
	svc, repo := newAuthFixture(t)

	require.NoError(t, svc.SeedDefaultAdmin(ctx))

	admin, err := repo.GetByEmail(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, domain.StaffRoleAdmin, admin.Role)

	staff, token, expiresAt, err := svc.Login(ctx, "admin", "admin")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, staff.ID)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, claims.StaffID)
	assert.Equal(t, domain.StaffRoleAdmin, claims.Role)
}

func TestSeedDefaultAdminIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, repo := newAuthFixture(t)

	require.NoError(t, svc.SeedDefaultAdmin(ctx))
	require.NoError(t, svc.SeedDefaultAdmin(ctx))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthFixture(t)
	require.NoError(t, svc.SeedDefaultAdmin(ctx))

	_, _, _, err := svc.Login(ctx, "admin", "wrong")
	wrongPass := apperrors.ToDomainError(err)
	require.NotNil(t, wrongPass)
	assert.Equal(t, "UNAUTHORIZED", wrongPass.Code)

	_, _, _, err = svc.Login(ctx, "nobody@example.com", "admin")
	wrongEmail := apperrors.ToDomainError(err)
	require.NotNil(t, wrongEmail)
	assert.Equal(t, "UNAUTHORIZED", wrongEmail.Code)

	// Unknown email and wrong password are indistinguishable to the caller.
	assert.Equal(t, wrongPass.Message, wrongEmail.Message)

	_, _, _, err = svc.Login(ctx, "", "")
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
}
