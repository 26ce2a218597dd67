// Package database provides the PostgreSQL connection pool and migration
// utilities shared by pkg/toolindex and pkg/secrets. There is no ORM layer:
// both callers issue hand-written SQL over a *pgxpool.Pool, since no
// generated-client toolchain is runnable here.
package database

import (
	"context"
	stdsql "database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the pgx driver for database/sql, used only to drive golang-migrate
)

//go:embed migrations
var migrationsFS embed.FS

// Client wraps a pgx connection pool. It exists (rather than exposing
// *pgxpool.Pool directly) so health checks and future cross-cutting
// concerns (tracing, metrics) have one seam to attach to.
type Client struct {
	Pool *pgxpool.Pool
}

// NewClient opens a connection pool, runs pending migrations, and creates
// the GIN indexes migrate's plain SQL driver doesn't express well inline.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(ctx, cfg); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := CreateGINIndexes(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create GIN indexes: %w", err)
	}

	return &Client{Pool: pool}, nil
}

// Close releases the underlying connection pool.
func (c *Client) Close() {
	c.Pool.Close()
}

// runMigrations applies pending migrations using golang-migrate over the
// embedded SQL files. It opens its own database/sql connection rather than
// reusing the pgxpool, since golang-migrate's postgres driver wants a
// *sql.DB; the two pools are independent and this one is closed before
// returning.
func runMigrations(_ context.Context, cfg Config) error {
	hasMigrations, err := hasEmbeddedMigrations()
	if err != nil {
		return fmt.Errorf("failed to check embedded migrations: %w", err)
	}
	if !hasMigrations {
		return fmt.Errorf("no embedded migration files found, binary may be built incorrectly")
	}

	db, err := stdsql.Open("pgx", cfg.DSN())
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create postgres driver: %w", err)
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, cfg.Database, driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	// Close only the source driver. Calling m.Close() would also close the
	// database driver, which would call db.Close() on our dedicated
	// connection — harmless here since we defer db.Close() anyway, but the
	// sequencing below keeps this function correct even if that connection
	// is ever shared with the caller in the future.
	return sourceDriver.Close()
}

func hasEmbeddedMigrations() (bool, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read embedded migrations: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() && len(entry.Name()) > 4 && entry.Name()[len(entry.Name())-4:] == ".sql" {
			return true, nil
		}
	}
	return false, nil
}
