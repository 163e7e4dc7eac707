package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// openStorage cria o armazenamento chave-valor das sessões conforme STORAGE_DRIVER.
// A função de fechamento retornada nunca é nil.
func openStorage(ctx context.Context, cfg Config, logger *zap.Logger) (StorageProvider, func() error, error) {
	noop := func() error { return nil }

	var (
		driver, dsn string
	)
	switch cfg.StorageDriver {
	case "memory":
		logger.Info("using in-memory session storage")
		return NewMemoryStorageProvider(), noop, nil
	case "sqlite":
		driver, dsn = "sqlite", cfg.SQLitePath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	case "postgres":
		driver, dsn = "postgres", cfg.PostgresDSN()
	default:
		return nil, noop, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, noop, fmt.Errorf("failed to open %s storage: %w", driver, err)
	}
	if err := waitForSQL(ctx, db, logger); err != nil {
		db.Close()
		return nil, noop, err
	}

	dialect := "sqlite"
	if driver == "postgres" {
		dialect = "postgres"
	}
	storage, err := NewSQLStorage(ctx, db, dialect)
	if err != nil {
		db.Close()
		return nil, noop, err
	}

	logger.Info("session storage ready", zap.String("driver", driver))
	return storage, db.Close, nil
}

func waitForSQL(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	var err error
	for i := 0; i < 30; i++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		logger.Info("waiting for storage database", zap.Int("attempt", i+1), zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
	return fmt.Errorf("failed to connect to storage database after 30 attempts: %w", err)
}

// openOrderArchive cria o arquivo de pedidos conforme ORDER_ARCHIVE
func openOrderArchive(ctx context.Context, cfg Config, logger *zap.Logger) (OrderArchive, func(), error) {
	if cfg.OrderArchive == "memory" {
		logger.Info("using in-memory order archive")
		return NewMemoryOrderArchive(), func() {}, nil
	}

	pool, err := initDB(ctx, cfg, logger)
	if err != nil {
		return nil, func() {}, err
	}
	archive := NewPostgresOrderArchive(pool)
	if err := archive.Migrate(ctx); err != nil {
		pool.Close()
		return nil, func() {}, err
	}
	return archive, pool.Close, nil
}

func initDB(ctx context.Context, cfg Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(cfg.PostgresDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	config.MaxConns = 10
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	for i := 0; i < 30; i++ {
		if err := pool.Ping(ctx); err == nil {
			logger.Info("connected to orders database")
			return pool, nil
		}
		logger.Info("waiting for orders database", zap.Int("attempt", i+1))
		time.Sleep(1 * time.Second)
	}

	pool.Close()
	return nil, fmt.Errorf("failed to connect to database after 30 attempts")
}
