package schedules

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidWindow     = errors.New("shift must end after it starts")
	QueryTimeoutDuration = time.Second * 5
)

type Shift struct {
	ID           int64     `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	StaffName    string    `json:"staff_name"`
	LocationID   uuid.UUID `json:"location_id"`
	LocationName string    `json:"location_name"`
	StartsAt     time.Time `json:"starts_at"`
	EndsAt       time.Time `json:"ends_at"`
	Notes        *string   `json:"notes,omitempty"`
}

func (s Shift) Duration() time.Duration {
	return s.EndsAt.Sub(s.StartsAt)
}

// Day groups shifts that start on the same calendar day.
type Day struct {
	Date   time.Time
	Shifts []Shift
}

// GroupByDay expects shifts ordered by StartsAt.
func GroupByDay(shifts []Shift, loc *time.Location) []Day {
	var days []Day
	for _, s := range shifts {
		start := s.StartsAt.In(loc)
		date := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
		if n := len(days); n > 0 && days[n-1].Date.Equal(date) {
			days[n-1].Shifts = append(days[n-1].Shifts, s)
			continue
		}
		days = append(days, Day{Date: date, Shifts: []Shift{s}})
	}
	return days
}
