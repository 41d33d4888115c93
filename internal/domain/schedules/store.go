package schedules

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"portal/internal/domain/accesscontrol"
)

type Store interface {
	ListBetween(ctx context.Context, scope accesscontrol.Scope, from, to time.Time) ([]Shift, error)
	ListForUser(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]Shift, error)
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

const selectShifts = `
	SELECT s.id, s.user_id, COALESCE(NULLIF(TRIM(p.first_name || ' ' || p.last_name), ''), p.email),
	       s.location_id, l.name, s.starts_at, s.ends_at, s.notes
	FROM shifts s
	JOIN locations l ON l.id = s.location_id
	JOIN profiles p ON p.id = s.user_id
`

func (r *Repository) ListBetween(ctx context.Context, scope accesscontrol.Scope, from, to time.Time) ([]Shift, error) {
	if !to.After(from) {
		return nil, ErrInvalidWindow
	}
	location, retailer := scope.Filter()

	query := selectShifts + `
		WHERE ($1::uuid IS NULL OR l.id = $1)
		  AND ($2::uuid IS NULL OR l.retailer_id = $2)
		  AND s.starts_at < $4 AND s.ends_at > $3
		ORDER BY s.starts_at, l.name
	`
	return r.query(ctx, query, location, retailer, from, to)
}

func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]Shift, error) {
	if !to.After(from) {
		return nil, ErrInvalidWindow
	}
	query := selectShifts + `
		WHERE s.user_id = $1 AND s.starts_at < $3 AND s.ends_at > $2
		ORDER BY s.starts_at
	`
	return r.query(ctx, query, userID, from, to)
}

func (r *Repository) query(ctx context.Context, query string, args ...any) ([]Shift, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list shifts: %w", err)
	}
	defer rows.Close()

	var out []Shift
	for rows.Next() {
		var s Shift
		if err := rows.Scan(&s.ID, &s.UserID, &s.StaffName, &s.LocationID, &s.LocationName, &s.StartsAt, &s.EndsAt, &s.Notes); err != nil {
			return nil, fmt.Errorf("scan shift: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
