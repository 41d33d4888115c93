package locations

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("location not found")
	ErrDuplicateName     = errors.New("a location with that name already exists for the retailer")
	QueryTimeoutDuration = time.Second * 5
)

type Location struct {
	ID         uuid.UUID `json:"id"`
	RetailerID uuid.UUID `json:"retailer_id"`
	Retailer   string    `json:"retailer"`
	Name       string    `json:"name"`
	Address    *string   `json:"address,omitempty"`
	IsActive   bool      `json:"is_active"`
	StaffCount int       `json:"staff_count"`
	CreatedAt  time.Time `json:"created_at"`
}

type Retailer struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}
