package db

import (
	"context"
	"fmt"

	"taskboard/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pool on dsn and pings it.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create database pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("database connected")
	return pool, nil
}

// MustConnect is Connect for process startup.
func MustConnect(ctx context.Context, dsn string) *pgxpool.Pool {
	pool, err := Connect(ctx, dsn)
	if err != nil {
		logger.Fatal("failed to connect database", "error", err)
	}
	return pool
}
