package accesscontrol

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("role assignment not found")
	ErrUnknownRole       = errors.New("unknown role")
	QueryTimeoutDuration = time.Second * 5
)

type RoleName string

const (
	RoleOwner           RoleName = "owner"
	RoleRetailer        RoleName = "retailer"
	RoleLocationStaff   RoleName = "location_staff"
	RoleBackoffice      RoleName = "backoffice"
	RoleAdmin           RoleName = "admin"
	RoleSystemAdmin     RoleName = "system_admin"
	RoleMedicalDirector RoleName = "medical_director"
	RoleDepartmentHead  RoleName = "department_head"
	RoleDoctor          RoleName = "doctor"
	RoleNurse           RoleName = "nurse"
	RoleOffice          RoleName = "office"
)

// Roles lists every role the application knows how to route.
var Roles = []RoleName{
	RoleOwner,
	RoleRetailer,
	RoleLocationStaff,
	RoleBackoffice,
	RoleAdmin,
	RoleSystemAdmin,
	RoleMedicalDirector,
	RoleDepartmentHead,
	RoleDoctor,
	RoleNurse,
	RoleOffice,
}

// ParseRole returns ErrUnknownRole for values outside Roles.
func ParseRole(s string) (RoleName, error) {
	for _, r := range Roles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", ErrUnknownRole
}

// Assignment is the single role row a user may have.
type Assignment struct {
	UserID     uuid.UUID  `json:"user_id"`
	Role       RoleName   `json:"role"`
	RetailerID *uuid.UUID `json:"retailer_id,omitempty"`
	LocationID *uuid.UUID `json:"location_id,omitempty"`
	SubRole    *string    `json:"sub_role,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Scope narrows data reads to the caller's location or retailer.
// A zero Scope is unscoped.
type Scope struct {
	RetailerID *uuid.UUID
	LocationID *uuid.UUID
}

func (a Assignment) Scope() Scope {
	return Scope{RetailerID: a.RetailerID, LocationID: a.LocationID}
}

// Filter returns the location and retailer arguments for scoped queries.
// A location scope takes precedence over a retailer scope.
func (s Scope) Filter() (location, retailer *uuid.UUID) {
	if s.LocationID != nil {
		return s.LocationID, nil
	}
	return nil, s.RetailerID
}
