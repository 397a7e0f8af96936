package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bibbank/creditrisk/internal/domain/port"
	"github.com/bibbank/creditrisk/internal/infrastructure/config"
	pgRepo "github.com/bibbank/creditrisk/internal/infrastructure/postgres"
	"github.com/bibbank/creditrisk/internal/infrastructure/sqlite"
	pkgpostgres "github.com/bibbank/creditrisk/pkg/postgres"
)

// stores bundles the repositories of whichever driver is configured.
type stores struct {
	submissions port.SubmissionRepository
	uploads     port.BatchUploadRepository
	auditLogs   port.AuditLogRepository
	ping        func(ctx context.Context) error
	close       func()
}

func openStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (*stores, error) {
	if cfg.Store.Driver == config.StoreDriverSQLite {
		db, err := sqlite.Open(cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("using sqlite store", "path", cfg.Store.SQLitePath)
		return &stores{
			submissions: db.Submissions(),
			uploads:     db.Uploads(),
			auditLogs:   db.AuditLogs(),
			ping:        db.Ping,
			close:       func() { _ = db.Close() },
		}, nil
	}

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pkgpostgres.NewPool(dbCtx, cfg.DB.Pool())
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	logger.Info("connected to database", "host", cfg.DB.Host, "name", cfg.DB.Name)

	if err := pkgpostgres.RunMigrations(cfg.DB.Pool().DSN(), pgRepo.Migrations, pgRepo.MigrationsDir); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &stores{
		submissions: pgRepo.NewSubmissionRepo(pool),
		uploads:     pgRepo.NewBatchUploadRepo(pool),
		auditLogs:   pgRepo.NewAuditLogRepo(pool),
		ping:        func(ctx context.Context) error { return pkgpostgres.HealthCheck(ctx, pool) },
		close:       pool.Close,
	}, nil
}
