package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/queue-service/internal/auth"
	"github.com/spec-kit/queue-service/internal/config"
	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/events"
	"github.com/spec-kit/queue-service/internal/repository"
	apperrors "github.com/spec-kit/queue-service/pkg/util"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 60,
		BcryptCost:            bcrypt.MinCost,
	}
}

func newStaffFixture(t *testing.T) (*StaffService, repository.StaffRepository) {
	t.Helper()
	repo := repository.NewMemoryStaffRepository()
	svc := NewStaffService(testAuthConfig(), repo, events.NewInMemoryDispatcher(), zap.NewNop())
	return svc, repo
}

func TestStaffCreateDefaults(t *testing.T) {
	ctx := context.Background()
	svc, _ := newStaffFixture(t)

	counter := 3
	staff, err := svc.Create(ctx, StaffCreateInput{
		Name:          "João",
		Email:         "joao@example.com",
		CounterNumber: &counter,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StaffRoleAttendant, staff.Role, "role defaults to attendant")
	require.NotNil(t, staff.CounterNumber)
	assert.Equal(t, 3, *staff.CounterNumber)
	assert.NoError(t, auth.ComparePassword(staff.PasswordHash, "123456"),
		"members created without a password get the default one")
}

func TestStaffCreateNonAttendantHasNoCounter(t *testing.T) {
	ctx := context.Background()
	svc, _ := newStaffFixture(t)

	counter := 2
	staff, err := svc.Create(ctx, StaffCreateInput{
		Name:          "Paula",
		Email:         "paula@example.com",
		Role:          domain.StaffRoleIssuer,
		CounterNumber: &counter,
	})
	require.NoError(t, err)
	assert.Nil(t, staff.CounterNumber)
}

func TestStaffCreateValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newStaffFixture(t)

	_, err := svc.Create(ctx, StaffCreateInput{Email: "x@example.com"})
	requireStaffCode(t, err, "VALIDATION_FAILED")

	_, err = svc.Create(ctx, StaffCreateInput{Name: "João", Email: "x@example.com", Role: "supervisor"})
	requireStaffCode(t, err, "VALIDATION_FAILED")
}

func TestStaffCreateDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc, _ := newStaffFixture(t)

	_, err := svc.Create(ctx, StaffCreateInput{Name: "João", Email: "joao@example.com"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, StaffCreateInput{Name: "Other", Email: "joao@example.com"})
	requireStaffCode(t, err, "CONFLICT")
}

func TestStaffDelete(t *testing.T) {
	ctx := context.Background()
	svc, repo := newStaffFixture(t)

	staff, err := svc.Create(ctx, StaffCreateInput{Name: "João", Email: "joao@example.com"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, staff.ID))
	_, err = repo.GetByID(ctx, staff.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	err = svc.Delete(ctx, staff.ID)
	requireStaffCode(t, err, "NOT_FOUND")
}

func requireStaffCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, apperrors.ToDomainError(err).Code)
}
