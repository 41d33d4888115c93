package accesscontrol

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"portal/internal/db"
)

type Store interface {
	GetAssignment(ctx context.Context, userID uuid.UUID) (*Assignment, error)
	Upsert(ctx context.Context, a *Assignment) error
}

// Repository reads user_roles through the service connection, which is not
// subject to the row-level policies applied to end users.
type Repository struct {
	q db.Querier
}

func NewRepository(q db.Querier) Store {
	return &Repository{q: q}
}

func (r *Repository) GetAssignment(ctx context.Context, userID uuid.UUID) (*Assignment, error) {
	query := `
        SELECT user_id, role, retailer_id, location_id, sub_role, created_at, updated_at
        FROM user_roles
        WHERE user_id = $1
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var (
		a    Assignment
		role string
	)
	err := r.q.QueryRow(ctx, query, userID).Scan(
		&a.UserID, &role, &a.RetailerID, &a.LocationID, &a.SubRole, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get role assignment: %w", err)
	}
	a.Role = RoleName(role)
	return &a, nil
}

func (r *Repository) Upsert(ctx context.Context, a *Assignment) error {
	if _, err := ParseRole(string(a.Role)); err != nil {
		return err
	}
	query := `
        INSERT INTO user_roles (user_id, role, retailer_id, location_id, sub_role)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (user_id) DO UPDATE
        SET role = EXCLUDED.role,
            retailer_id = EXCLUDED.retailer_id,
            location_id = EXCLUDED.location_id,
            sub_role = EXCLUDED.sub_role,
            updated_at = NOW()
        RETURNING created_at, updated_at
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return r.q.QueryRow(ctx, query, a.UserID, string(a.Role), a.RetailerID, a.LocationID, a.SubRole).
		Scan(&a.CreatedAt, &a.UpdatedAt)
}
