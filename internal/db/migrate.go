package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"taskboard/internal/logger"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func open(dsn string) (*sql.DB, error) {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return sqlDB, nil
}

// Migrate applies every pending migration.
func Migrate(ctx context.Context, dsn string) error {
	sqlDB, err := open(dsn)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := goose.UpContext(ctx, sqlDB, "migrations"); err != nil {
		return fmt.Errorf("run goose migrations: %w", err)
	}
	version, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	logger.Info("migrations applied", "version", version)
	return nil
}

// Rollback reverts the most recent migration.
func Rollback(ctx context.Context, dsn string) error {
	sqlDB, err := open(dsn)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := goose.DownContext(ctx, sqlDB, "migrations"); err != nil {
		return fmt.Errorf("rollback migration: %w", err)
	}
	return nil
}

// Version returns the current schema version.
func Version(ctx context.Context, dsn string) (int64, error) {
	sqlDB, err := open(dsn)
	if err != nil {
		return 0, err
	}
	defer sqlDB.Close()

	return goose.GetDBVersionContext(ctx, sqlDB)
}
