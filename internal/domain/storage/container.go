package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"portal/internal/domain/accesscontrol"
	"portal/internal/domain/inventory"
	"portal/internal/domain/locations"
	"portal/internal/domain/reports"
	"portal/internal/domain/schedules"
	"portal/internal/domain/users"
)

type Container struct {
	pool          *pgxpool.Pool // required by WithAccountTx
	AccessControl accesscontrol.Store
	Users         users.Store
	Locations     locations.Store
	Inventory     inventory.Store
	Schedules     schedules.Store
	Reports       reports.Store
}

func NewContainer(db *pgxpool.Pool) *Container {
	return &Container{
		pool:          db,
		AccessControl: accesscontrol.NewRepository(db),
		Users:         users.NewRepository(db),
		Locations:     locations.NewRepository(db),
		Inventory:     inventory.NewRepository(db),
		Schedules:     schedules.NewRepository(db),
		Reports:       reports.NewRepository(db),
	}
}

// AccountTx is a tx-scoped set of repos for provisioning a user account.
type AccountTx struct {
	Users         users.Store
	AccessControl accesscontrol.Store
}

// WithAccountTx writes a profile, its role row and location links atomically.
func (c *Container) WithAccountTx(ctx context.Context, fn func(s *AccountTx) error) error {
	if c.pool == nil {
		return fmt.Errorf("storage container pool is nil")
	}

	tx, err := c.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback(ctx) // no-op after commit
	}()

	s := &AccountTx{
		Users:         users.NewRepository(tx),
		AccessControl: accesscontrol.NewRepository(tx),
	}

	if err := fn(s); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
