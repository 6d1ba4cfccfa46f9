package app

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// Migrator applies goose migrations from an embedded filesystem.
type Migrator struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewMigrator(pool *pgxpool.Pool, migrations fs.FS, logger *zap.Logger) (*Migrator, error) {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}

	// goose works on *sql.DB; this one shares the pool's connection config.
	db := stdlib.OpenDBFromPool(pool)

	return &Migrator{db: db, logger: logger}, nil
}

// Run applies all pending migrations.
func (mg *Migrator) Run(ctx context.Context) error {
	mg.logger.Info("Applying database migrations")

	if err := goose.UpContext(ctx, mg.db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, err := mg.Version(ctx)
	if err != nil {
		return err
	}
	mg.logger.Info("Migrations applied", zap.Int64("version", version))
	return nil
}

func (mg *Migrator) Version(ctx context.Context) (int64, error) {
	version, err := goose.GetDBVersionContext(ctx, mg.db)
	if err != nil {
		return 0, fmt.Errorf("get version: %w", err)
	}
	return version, nil
}

// Close closes the sql.DB wrapper; the pool itself is owned by main.
func (mg *Migrator) Close() error {
	if mg.db != nil {
		return mg.db.Close()
	}
	return nil
}
