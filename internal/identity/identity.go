// Package identity resolves who is calling and what role they hold.
//
// Resolve always yields exactly one of Anonymous, Unassigned or Assigned.
// Unassigned is a valid state (the user signed in but no role row exists
// yet) and must not be confused with a denial.
package identity

import (
	"github.com/google/uuid"

	"portal/internal/domain/accesscontrol"
)

type User struct {
	ID    uuid.UUID
	Email string
}

// Identity is implemented only by Anonymous, Unassigned and Assigned.
type Identity interface {
	identity()
}

type Anonymous struct{}

type Unassigned struct {
	User User
}

type Assigned struct {
	User       User
	Assignment accesscontrol.Assignment
}

func (Anonymous) identity()  {}
func (Unassigned) identity() {}
func (Assigned) identity()   {}

// Role returns the assigned role, or false for the other two states.
func Role(id Identity) (accesscontrol.RoleName, bool) {
	if a, ok := id.(Assigned); ok {
		return a.Assignment.Role, true
	}
	return "", false
}

// UserOf returns the signed-in user, or false when anonymous.
func UserOf(id Identity) (User, bool) {
	switch v := id.(type) {
	case Unassigned:
		return v.User, true
	case Assigned:
		return v.User, true
	}
	return User{}, false
}
