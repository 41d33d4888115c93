package locations

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store interface {
	List(ctx context.Context, limit, offset int) ([]Location, int, error)
	Create(ctx context.Context, l *Location) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	ListRetailers(ctx context.Context) ([]Retailer, error)
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

func (r *Repository) List(ctx context.Context, limit, offset int) ([]Location, int, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM locations`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count locations: %w", err)
	}

	query := `
		SELECT l.id, l.retailer_id, rt.name, l.name, l.address, l.is_active, l.created_at,
		       (SELECT COUNT(*) FROM user_locations ul WHERE ul.location_id = l.id) AS staff_count
		FROM locations l
		JOIN retailers rt ON rt.id = l.retailer_id
		ORDER BY rt.name, l.name
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	out := make([]Location, 0, limit)
	for rows.Next() {
		var l Location
		if err := rows.Scan(&l.ID, &l.RetailerID, &l.Retailer, &l.Name, &l.Address, &l.IsActive, &l.CreatedAt, &l.StaffCount); err != nil {
			return nil, 0, fmt.Errorf("scan location: %w", err)
		}
		out = append(out, l)
	}
	return out, total, rows.Err()
}

func (r *Repository) Create(ctx context.Context, l *Location) error {
	query := `
		INSERT INTO locations (retailer_id, name, address, is_active)
		VALUES ($1, $2, $3, TRUE)
		RETURNING id, is_active, created_at
	`
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := r.db.QueryRow(ctx, query, l.RetailerID, l.Name, l.Address).Scan(&l.ID, &l.IsActive, &l.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateName
		}
		return fmt.Errorf("create location: %w", err)
	}
	return nil
}

func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	result, err := r.db.Exec(ctx, `UPDATE locations SET is_active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("update location: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) ListRetailers(ctx context.Context) ([]Retailer, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT id, name FROM retailers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list retailers: %w", err)
	}
	defer rows.Close()

	var out []Retailer
	for rows.Next() {
		var rt Retailer
		if err := rows.Scan(&rt.ID, &rt.Name); err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}
