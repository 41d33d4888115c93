package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"portal/internal/domain/accesscontrol"
)

type Store interface {
	List(ctx context.Context, scope accesscontrol.Scope, filters ListFilters, limit, offset int) ([]Item, int, error)
	Adjust(ctx context.Context, scope accesscontrol.Scope, id int64, delta int) (*Item, error)
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

// $1 location id, $2 retailer id.
const scopeClause = `
	($1::uuid IS NULL OR l.id = $1)
	AND ($2::uuid IS NULL OR l.retailer_id = $2)
`

func (r *Repository) List(ctx context.Context, scope accesscontrol.Scope, filters ListFilters, limit, offset int) ([]Item, int, error) {
	location, retailer := scope.Filter()
	search := strings.TrimSpace(filters.Search)

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	where := scopeClause + `
		AND ($3 = '' OR i.name ILIKE '%' || $3 || '%')
		AND (NOT $4 OR i.quantity <= i.reorder_level)
	`

	var total int
	countQ := `SELECT COUNT(*) FROM inventory_items i JOIN locations l ON l.id = i.location_id WHERE ` + where
	if err := r.db.QueryRow(ctx, countQ, location, retailer, search, filters.LowStockOnly).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count inventory: %w", err)
	}

	listQ := `
		SELECT i.id, i.location_id, l.name, i.name, i.quantity, i.reorder_level, i.updated_at
		FROM inventory_items i
		JOIN locations l ON l.id = i.location_id
		WHERE ` + where + `
		ORDER BY (i.quantity <= i.reorder_level) DESC, l.name, i.name
		LIMIT $5 OFFSET $6
	`
	rows, err := r.db.Query(ctx, listQ, location, retailer, search, filters.LowStockOnly, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list inventory: %w", err)
	}
	defer rows.Close()

	out := make([]Item, 0, limit)
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.LocationID, &it.LocationName, &it.Name, &it.Quantity, &it.ReorderLevel, &it.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan inventory item: %w", err)
		}
		out = append(out, it)
	}
	return out, total, rows.Err()
}

// Adjust changes the quantity of an item inside the caller's scope.
// Items outside the scope are reported as ErrNotFound.
func (r *Repository) Adjust(ctx context.Context, scope accesscontrol.Scope, id int64, delta int) (*Item, error) {
	location, retailer := scope.Filter()

	query := `
		UPDATE inventory_items i
		SET quantity = i.quantity + $4, updated_at = NOW()
		FROM locations l
		WHERE l.id = i.location_id AND i.id = $3 AND ` + scopeClause + `
		RETURNING i.id, i.location_id, l.name, i.name, i.quantity, i.reorder_level, i.updated_at
	`
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var it Item
	err := r.db.QueryRow(ctx, query, location, retailer, id, delta).Scan(
		&it.ID, &it.LocationID, &it.LocationName, &it.Name, &it.Quantity, &it.ReorderLevel, &it.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, ErrNotFound
		case errors.As(err, &pgErr) && pgErr.Code == "23514":
			// inventory_items_quantity_check
			return nil, ErrNegativeStock
		}
		return nil, fmt.Errorf("adjust inventory: %w", err)
	}
	return &it, nil
}
