// Package backend builds the shared handle to the hosted data and auth
// service. One Client exists per Factory; the package-level New uses a
// process-wide Factory.
package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"portal/internal/auth"
	"portal/internal/db"
)

var ErrMissingConfig = errors.New("missing backend configuration")

type Config struct {
	URL            string
	AnonKey        string
	ServiceRoleKey string
	JWTSecret      string
	JWTAudience    string
	DatabaseURL    string
	MaxConns       int32
	MaxIdleTime    string
}

// Validate reports every required setting that is empty.
func (c Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.URL) == "" {
		missing = append(missing, "SUPABASE_URL")
	}
	if strings.TrimSpace(c.AnonKey) == "" {
		missing = append(missing, "SUPABASE_ANON_KEY")
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		missing = append(missing, "SUPABASE_JWT_SECRET")
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		missing = append(missing, "DB_ADDR")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(missing, ", "))
	}
	return nil
}

// Client is safe for concurrent use.
type Client struct {
	URL      string
	DB       *pgxpool.Pool
	Sessions *auth.SessionVerifier
	Auth     *auth.GoTrue
}

// Probe performs one lightweight database read.
func (c *Client) Probe(ctx context.Context) error {
	return db.Probe(ctx, c.DB)
}

func (c *Client) Close() {
	if c.DB != nil {
		c.DB.Close()
	}
}

type Factory struct {
	once   sync.Once
	client *Client
	err    error
}

// Client validates cfg on every call and constructs the handle at most once.
func (f *Factory) Client(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	f.once.Do(func() {
		f.client, f.err = newClient(cfg)
	})
	return f.client, f.err
}

var defaultFactory Factory

func New(cfg Config) (*Client, error) {
	return defaultFactory.Client(cfg)
}

func newClient(cfg Config) (*Client, error) {
	pool, err := db.New(cfg.DatabaseURL, cfg.MaxConns, cfg.MaxIdleTime)
	if err != nil {
		return nil, fmt.Errorf("backend database: %w", err)
	}
	return &Client{
		URL:      cfg.URL,
		DB:       pool,
		Sessions: auth.NewSessionVerifier(cfg.JWTSecret, cfg.JWTAudience),
		Auth:     auth.NewGoTrue(cfg.URL, cfg.AnonKey, cfg.ServiceRoleKey),
	}, nil
}
