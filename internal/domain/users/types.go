package users

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("profile not found")
	ErrDuplicateEmail    = errors.New("a user with that email already exists")
	QueryTimeoutDuration = time.Second * 5
)

// Profile is the read projection of a user shown on staff and admin pages.
// Role is nil for users still waiting for an assignment.
type Profile struct {
	ID              uuid.UUID   `json:"id"`
	Email           string      `json:"email"`
	FirstName       string      `json:"first_name"`
	LastName        string      `json:"last_name"`
	Phone           *string     `json:"phone,omitempty"`
	ProfilePhotoURL *string     `json:"profile_photo_url,omitempty"`
	Role            *string     `json:"role,omitempty"`
	LocationIDs     []uuid.UUID `json:"location_ids"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

func (p Profile) FullName() string {
	switch {
	case p.FirstName == "" && p.LastName == "":
		return p.Email
	case p.LastName == "":
		return p.FirstName
	case p.FirstName == "":
		return p.LastName
	}
	return p.FirstName + " " + p.LastName
}

type ListFilters struct {
	Role   string
	Search string
}
