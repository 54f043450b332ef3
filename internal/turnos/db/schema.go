package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ms-turnos/internal/config"
	"ms-turnos/internal/models"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const maxConnectAttempts = 5

// Open connects to the configured store and pings it, retrying a few times
// before giving up.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*bun.DB, error) {
	var (
		sqldb *sql.DB
		err   error
	)

	switch cfg.Driver {
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("POSTGRES_DSN not set")
		}
		sqldb, err = sql.Open("postgres", cfg.PostgresDSN)
	default:
		sqldb, err = sql.Open(sqliteshim.ShimName, cfg.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	for i := 0; i < maxConnectAttempts; i++ {
		if err = sqldb.PingContext(ctx); err == nil {
			break
		}
		if i < maxConnectAttempts-1 {
			time.Sleep(time.Duration(i+1) * 500 * time.Millisecond)
		}
	}
	if err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("ping %s after %d attempts: %w", cfg.Driver, maxConnectAttempts, err)
	}

	if cfg.Driver == "postgres" {
		return bun.NewDB(sqldb, pgdialect.New()), nil
	}
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// CreateTablesIfAbsent creates usuarios and orden_llegada plus the date index.
// Running it again is harmless.
func (d *DB) CreateTablesIfAbsent(ctx context.Context) error {
	tables := []interface{}{(*models.User)(nil), (*models.Ticket)(nil)}
	for _, m := range tables {
		if _, err := d.Bun.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", m, err)
		}
	}

	_, err := d.Bun.NewCreateIndex().
		Model((*models.Ticket)(nil)).
		Index("idx_orden_llegada_fecha").
		Column("fecha").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create fecha index: %w", err)
	}
	return nil
}

// Init prepares the schema and guarantees the seed staff account.
func (d *DB) Init(ctx context.Context, seedUsername, seedPassword string) error {
	if err := d.CreateTablesIfAbsent(ctx); err != nil {
		return err
	}
	if _, err := d.SeedUser(ctx, seedUsername, seedPassword); err != nil {
		return err
	}
	return nil
}
