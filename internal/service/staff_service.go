package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/queue-service/internal/auth"
	"github.com/spec-kit/queue-service/internal/config"
	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/events"
	"github.com/spec-kit/queue-service/internal/repository"
	apperrors "github.com/spec-kit/queue-service/pkg/util"
)

// defaultStaffPassword is applied when an admin creates a member without
// choosing one.
const defaultStaffPassword = "123456"

// StaffService manages staff accounts for the queue.
type StaffService struct {
	staff      repository.StaffRepository
	dispatcher events.Dispatcher
	bcryptCost int
	logger     *zap.Logger
}

// StaffCreateInput describes staff creation payload.
type StaffCreateInput struct {
	Name                 string
	Email                string
	Password             string
	Role                 domain.StaffRole
	CounterNumber        *int
	EligibleServiceTypes []string
}

// NewStaffService constructs the service.
func NewStaffService(cfg config.AuthConfig, staff repository.StaffRepository, dispatcher events.Dispatcher, logger *zap.Logger) *StaffService {
	return &StaffService{
		staff:      staff,
		dispatcher: dispatcher,
		bcryptCost: cfg.BcryptCost,
		logger:     logger,
	}
}

// List returns all staff members.
func (s *StaffService) List(ctx context.Context) ([]domain.StaffMember, error) {
	list, err := s.staff.List(ctx)
	if err != nil {
		return nil, apperrors.NewStoreError(err)
	}
	return list, nil
}

// Create validates, defaults and stores a new staff member, then
// broadcasts the staff change.
func (s *StaffService) Create(ctx context.Context, input StaffCreateInput) (*domain.StaffMember, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	if input.Name == "" || input.Email == "" {
		return nil, apperrors.NewValidationError("name and email required", nil)
	}
	if input.Role == "" {
		input.Role = domain.StaffRoleAttendant
	}
	if !input.Role.Known() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": input.Role})
	}
	if input.Role != domain.StaffRoleAttendant {
		input.CounterNumber = nil
	}

	if existing, err := s.staff.GetByEmail(ctx, input.Email); err == nil && existing != nil {
		return nil, apperrors.NewConflict("staff email already exists", map[string]any{"email": input.Email})
	} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewStoreError(err)
	}

	password := input.Password
	if password == "" {
		password = defaultStaffPassword
	}
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	staff := &domain.StaffMember{
		Name:                 input.Name,
		Email:                input.Email,
		PasswordHash:         hash,
		Role:                 input.Role,
		CounterNumber:        input.CounterNumber,
		EligibleServiceTypes: input.EligibleServiceTypes,
	}
	if err := s.staff.Create(ctx, staff); err != nil {
		return nil, apperrors.NewStoreError(err)
	}

	s.logger.Info("staff created", zap.String("staff_id", staff.ID), zap.String("role", string(staff.Role)))
	s.publishStaffChanged(ctx, "staff_created")
	return staff, nil
}

// Delete removes a staff member. Tickets already carrying the member's name
// in ServedBy keep it; history is deliberately left untouched.
func (s *StaffService) Delete(ctx context.Context, id string) error {
	if err := s.staff.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("staff member", map[string]any{"staff_id": id})
		}
		return apperrors.NewStoreError(err)
	}
	s.logger.Info("staff deleted", zap.String("staff_id", id))
	s.publishStaffChanged(ctx, "staff_deleted")
	return nil
}

func (s *StaffService) publishStaffChanged(ctx context.Context, cause string) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventStaffChanged,
		Cause:     cause,
		Timestamp: time.Now(),
	})
}
