package inventory

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("inventory item not found")
	ErrNegativeStock     = errors.New("adjustment would make stock negative")
	ErrInvalidRef        = errors.New("invalid inventory reference")
	QueryTimeoutDuration = time.Second * 5
)

type Item struct {
	ID           int64     `json:"-"`
	Ref          string    `json:"ref"`
	LocationID   uuid.UUID `json:"location_id"`
	LocationName string    `json:"location_name"`
	Name         string    `json:"name"`
	Quantity     int       `json:"quantity"`
	ReorderLevel int       `json:"reorder_level"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (i Item) LowStock() bool {
	return i.Quantity <= i.ReorderLevel
}

type ListFilters struct {
	Search       string
	LowStockOnly bool
}
