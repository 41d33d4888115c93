package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// New sets up a pgx connection pool. Connections are opened on first use,
// so building the pool never touches the network.
func New(addr string, maxConns int32, maxIdleTime string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(addr)
	if err != nil {
		return nil, fmt.Errorf("parse database address: %w", err)
	}

	if maxConns > 0 {
		config.MaxConns = maxConns
	}

	if maxIdleTime != "" {
		duration, err := time.ParseDuration(maxIdleTime)
		if err != nil {
			return nil, fmt.Errorf("parse max idle time: %w", err)
		}
		config.MaxConnIdleTime = duration
	}
	config.MinConns = 0

	return pgxpool.NewWithConfig(context.Background(), config)
}

// Probe runs the lightweight read used by health checks.
func Probe(ctx context.Context, pool *pgxpool.Pool) error {
	var n int
	return pool.QueryRow(ctx, `SELECT count(*) FROM (SELECT 1 FROM user_roles LIMIT 1) AS probe`).Scan(&n)
}
