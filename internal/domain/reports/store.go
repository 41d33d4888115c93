package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"portal/internal/domain/accesscontrol"
)

type Store interface {
	GetSummary(ctx context.Context, scope accesscontrol.Scope, now time.Time) (*Summary, error)
	ByLocation(ctx context.Context, scope accesscontrol.Scope, now time.Time) ([]LocationRow, error)
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

// Upcoming shifts are those starting within the next seven days.
const upcomingWindow = 7 * 24 * time.Hour

func (r *Repository) GetSummary(ctx context.Context, scope accesscontrol.Scope, now time.Time) (*Summary, error) {
	location, retailer := scope.Filter()

	const q = `
		WITH scoped AS (
			SELECT id, is_active FROM locations
			WHERE ($1::uuid IS NULL OR id = $1)
			  AND ($2::uuid IS NULL OR retailer_id = $2)
		),
		staff AS (
			SELECT DISTINCT ul.user_id FROM user_locations ul JOIN scoped s ON s.id = ul.location_id
		)
		SELECT
			(SELECT COUNT(*) FROM scoped WHERE is_active),
			(SELECT COUNT(*) FROM scoped WHERE NOT is_active),

			(SELECT COUNT(*) FROM staff),
			(SELECT COUNT(*) FROM staff st WHERE NOT EXISTS (SELECT 1 FROM user_roles ur WHERE ur.user_id = st.user_id)),

			(SELECT COUNT(*) FROM inventory_items i JOIN scoped s ON s.id = i.location_id),
			(SELECT COUNT(*) FROM inventory_items i JOIN scoped s ON s.id = i.location_id WHERE i.quantity <= i.reorder_level),
			(SELECT COUNT(*) FROM inventory_items i JOIN scoped s ON s.id = i.location_id WHERE i.quantity = 0),

			(SELECT COUNT(*) FROM shifts sh JOIN scoped s ON s.id = sh.location_id
			 WHERE sh.starts_at >= $3 AND sh.starts_at < $4),
			(SELECT COALESCE(SUM(EXTRACT(EPOCH FROM (sh.ends_at - sh.starts_at))) / 3600, 0)::float8
			 FROM shifts sh JOIN scoped s ON s.id = sh.location_id
			 WHERE sh.starts_at >= $3 AND sh.starts_at < $4)
	`

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var s Summary
	err := r.db.QueryRow(ctx, q, location, retailer, now, now.Add(upcomingWindow)).Scan(
		&s.ActiveLocations,
		&s.InactiveLocations,

		&s.StaffCount,
		&s.PendingAccounts,

		&s.InventoryItems,
		&s.LowStockItems,
		&s.OutOfStock,

		&s.UpcomingShifts,
		&s.ScheduledHours,
	)
	if err != nil {
		return nil, fmt.Errorf("get report summary: %w", err)
	}
	s.GeneratedAt = now
	return &s, nil
}

func (r *Repository) ByLocation(ctx context.Context, scope accesscontrol.Scope, now time.Time) ([]LocationRow, error) {
	location, retailer := scope.Filter()

	const q = `
		SELECT l.name,
		       (SELECT COUNT(*) FROM user_locations ul WHERE ul.location_id = l.id),
		       (SELECT COUNT(*) FROM inventory_items i WHERE i.location_id = l.id AND i.quantity <= i.reorder_level),
		       (SELECT COUNT(*) FROM shifts sh WHERE sh.location_id = l.id AND sh.starts_at >= $3 AND sh.starts_at < $4)
		FROM locations l
		WHERE ($1::uuid IS NULL OR l.id = $1)
		  AND ($2::uuid IS NULL OR l.retailer_id = $2)
		  AND l.is_active
		ORDER BY l.name
	`

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, q, location, retailer, now, now.Add(upcomingWindow))
	if err != nil {
		return nil, fmt.Errorf("report by location: %w", err)
	}
	defer rows.Close()

	var out []LocationRow
	for rows.Next() {
		var row LocationRow
		if err := rows.Scan(&row.Location, &row.Staff, &row.LowStockItems, &row.UpcomingShifts); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
