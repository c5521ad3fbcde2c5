package domain

import "time"

// StaffRole enumerates operator roles.
type StaffRole string

const (
	StaffRoleAttendant StaffRole = "attendant"
	StaffRoleIssuer    StaffRole = "issuer"
	StaffRoleAdmin     StaffRole = "admin"
)

// Known reports whether the role is one of the defined roles.
func (r StaffRole) Known() bool {
	return r == StaffRoleAttendant || r == StaffRoleIssuer || r == StaffRoleAdmin
}

// StaffMember models an attendant, ticket issuer or administrator.
// An empty EligibleServiceTypes set means the member serves all types.
type StaffMember struct {
	ID                   string
	Name                 string
	Email                string
	PasswordHash         string
	Role                 StaffRole
	CounterNumber        *int
	EligibleServiceTypes []string
	CreatedAt            time.Time
}
