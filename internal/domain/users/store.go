package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"portal/internal/db"
	"portal/internal/domain/accesscontrol"
)

type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Profile, error)
	List(ctx context.Context, scope accesscontrol.Scope, filters ListFilters, limit, offset int) ([]Profile, int, error)
	Upsert(ctx context.Context, p *Profile) error
	UpdateDetails(ctx context.Context, id uuid.UUID, firstName, lastName string, phone *string) error
	SetPhoto(ctx context.Context, id uuid.UUID, url string) (*string, error)
	AddLocation(ctx context.Context, userID, locationID uuid.UUID) error
}

type Repository struct {
	q db.Querier
}

func NewRepository(q db.Querier) Store {
	return &Repository{q: q}
}

// scopeClause limits profiles to users linked to the scoped location or
// retailer. $1 is the location id, $2 the retailer id; both NULL means all.
const scopeClause = `
	(($1::uuid IS NULL AND $2::uuid IS NULL) OR EXISTS (
		SELECT 1
		FROM user_locations ul
		JOIN locations l ON l.id = ul.location_id
		WHERE ul.user_id = p.id
		  AND ($1::uuid IS NULL OR l.id = $1)
		  AND ($2::uuid IS NULL OR l.retailer_id = $2)
	))
`

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	query := `
		SELECT p.id, p.email, p.first_name, p.last_name, p.phone, p.profile_photo_url,
		       ur.role, p.created_at, p.updated_at,
		       COALESCE(array_agg(ul.location_id) FILTER (WHERE ul.location_id IS NOT NULL), '{}')
		FROM profiles p
		LEFT JOIN user_roles ur ON ur.user_id = p.id
		LEFT JOIN user_locations ul ON ul.user_id = p.id
		WHERE p.id = $1
		GROUP BY p.id, ur.role
	`
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var p Profile
	err := r.q.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Email, &p.FirstName, &p.LastName, &p.Phone, &p.ProfilePhotoURL,
		&p.Role, &p.CreatedAt, &p.UpdatedAt, &p.LocationIDs,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

func (r *Repository) List(ctx context.Context, scope accesscontrol.Scope, filters ListFilters, limit, offset int) ([]Profile, int, error) {
	location, retailer := scope.Filter()
	search := strings.TrimSpace(filters.Search)

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	where := scopeClause + `
		AND ($3 = '' OR ur.role = $3)
		AND ($4 = '' OR p.email ILIKE '%' || $4 || '%'
		             OR (p.first_name || ' ' || p.last_name) ILIKE '%' || $4 || '%')
	`

	countQ := `
		SELECT COUNT(*)
		FROM profiles p
		LEFT JOIN user_roles ur ON ur.user_id = p.id
		WHERE ` + where

	var total int
	if err := r.q.QueryRow(ctx, countQ, location, retailer, filters.Role, search).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count profiles: %w", err)
	}

	listQ := `
		SELECT p.id, p.email, p.first_name, p.last_name, p.phone, p.profile_photo_url,
		       ur.role, p.created_at, p.updated_at,
		       COALESCE(array_agg(ul.location_id) FILTER (WHERE ul.location_id IS NOT NULL), '{}')
		FROM profiles p
		LEFT JOIN user_roles ur ON ur.user_id = p.id
		LEFT JOIN user_locations ul ON ul.user_id = p.id
		WHERE ` + where + `
		GROUP BY p.id, ur.role
		ORDER BY p.created_at DESC
		LIMIT $5 OFFSET $6
	`

	rows, err := r.q.Query(ctx, listQ, location, retailer, filters.Role, search, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	out := make([]Profile, 0, limit)
	for rows.Next() {
		var p Profile
		if err := rows.Scan(
			&p.ID, &p.Email, &p.FirstName, &p.LastName, &p.Phone, &p.ProfilePhotoURL,
			&p.Role, &p.CreatedAt, &p.UpdatedAt, &p.LocationIDs,
		); err != nil {
			return nil, 0, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list profiles rows: %w", err)
	}

	return out, total, nil
}

// Upsert creates the profile row for an auth user, or refreshes its details.
func (r *Repository) Upsert(ctx context.Context, p *Profile) error {
	query := `
		INSERT INTO profiles (id, email, first_name, last_name, phone)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET email = EXCLUDED.email,
		    first_name = EXCLUDED.first_name,
		    last_name = EXCLUDED.last_name,
		    phone = EXCLUDED.phone,
		    updated_at = NOW()
		RETURNING created_at, updated_at
	`
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := r.q.QueryRow(ctx, query, p.ID, p.Email, p.FirstName, p.LastName, p.Phone).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "profiles_email_key" {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func (r *Repository) UpdateDetails(ctx context.Context, id uuid.UUID, firstName, lastName string, phone *string) error {
	query := `
		UPDATE profiles
		SET first_name = $2, last_name = $3, phone = $4, updated_at = NOW()
		WHERE id = $1
	`
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := r.q.Exec(ctx, query, id, firstName, lastName, phone)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPhoto stores the new photo URL and returns the previous one, if any.
func (r *Repository) SetPhoto(ctx context.Context, id uuid.UUID, url string) (*string, error) {
	query := `
		UPDATE profiles p
		SET profile_photo_url = $2, updated_at = NOW()
		FROM (SELECT profile_photo_url FROM profiles WHERE id = $1 FOR UPDATE) old
		WHERE p.id = $1
		RETURNING old.profile_photo_url
	`
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var previous *string
	if err := r.q.QueryRow(ctx, query, id, url).Scan(&previous); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("set profile photo: %w", err)
	}
	return previous, nil
}

func (r *Repository) AddLocation(ctx context.Context, userID, locationID uuid.UUID) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO user_locations (user_id, location_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, userID, locationID)
	return err
}
