package dto

import (
	"time"

	"github.com/spec-kit/queue-service/internal/domain"
)

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse wraps an issued session token.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// StaffCreateRequest payload.
type StaffCreateRequest struct {
	Name                 string           `json:"name"`
	Email                string           `json:"email"`
	Password             string           `json:"password"`
	Role                 domain.StaffRole `json:"role"`
	CounterNumber        *int             `json:"counter_number"`
	EligibleServiceTypes []string         `json:"eligible_service_types"`
}

// StaffResponse is the wire form of a staff member; password hashes never
// leave the service.
type StaffResponse struct {
	ID                   string           `json:"id"`
	Name                 string           `json:"name"`
	Email                string           `json:"email"`
	Role                 domain.StaffRole `json:"role"`
	CounterNumber        *int             `json:"counter_number"`
	EligibleServiceTypes []string         `json:"eligible_service_types"`
}

// FromStaff maps a staff member to its wire form.
func FromStaff(staff *domain.StaffMember) StaffResponse {
	return StaffResponse{
		ID:                   staff.ID,
		Name:                 staff.Name,
		Email:                staff.Email,
		Role:                 staff.Role,
		CounterNumber:        staff.CounterNumber,
		EligibleServiceTypes: staff.EligibleServiceTypes,
	}
}

// FromStaffList maps a staff collection to wire form.
func FromStaffList(list []domain.StaffMember) []StaffResponse {
	resp := make([]StaffResponse, 0, len(list))
	for i := range list {
		resp = append(resp, FromStaff(&list[i]))
	}
	return resp
}
