package main

import (
	"context"
	"fmt"

	"taskboard/internal/config"
	"taskboard/internal/db"
	"taskboard/internal/http/handlers"
	"taskboard/internal/logger"
	"taskboard/internal/repository"
	"taskboard/internal/service"
)

// backend is the store selected by STORE_DRIVER with its collaborators.
type backend struct {
	store  service.Store
	pinger handlers.Pinger
	audit  *service.AuditService
	close  func()
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	codes := repository.NewCodeGenerator(cfg.TaskCodePrefix)

	switch cfg.StoreDriver {
	case config.DriverMemory:
		logger.Warn("using in-memory store, data is lost on exit")
		store := repository.NewMemoryBoardStore(codes)
		return &backend{store: store, pinger: store, audit: service.NewAuditService(nil), close: func() {}}, nil

	case config.DriverPostgres:
		if err := db.Migrate(ctx, cfg.DatabaseURL); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		store := repository.NewBoardStore(pool, codes)
		return &backend{
			store:  store,
			pinger: store,
			audit:  service.NewAuditService(repository.NewAuditRepository(pool)),
			close:  pool.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
