package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"myfinance/config"
	"myfinance/database"
	"myfinance/filters"
	"myfinance/kvstore"
	"myfinance/migrations"
	"myfinance/security"
)

// openDatabase migrates and opens the SQLite database.
func openDatabase(cfg *config.Config) (*sql.DB, error) {
	if dir := filepath.Dir(cfg.Database.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	logger.Info("Running migrations...", "path", cfg.Database.Path)
	if err := migrations.Run(cfg.Database.Path); err != nil {
		return nil, err
	}
	return database.Open(cfg.Database.Path)
}

// openStore builds the configured filter store. The returned close func is
// never nil.
func openStore(ctx context.Context, cfg *config.Config, db *sql.DB) (kvstore.Store, func(), error) {
	var (
		store   kvstore.Store
		closeFn = func() {}
	)

	switch cfg.Store.Backend {
	case config.BackendMemory:
		store = kvstore.NewMemoryStore()
	case config.BackendSQLite:
		store = kvstore.NewSQLiteStore(db, cfg.Store.Timeout)
	case config.BackendPostgres:
		s, err := kvstore.NewPostgresStore(ctx, cfg.Store.PostgresURL, cfg.Store.Timeout)
		if err != nil {
			return nil, nil, err
		}
		store, closeFn = s, func() { _ = s.Close() }
	case config.BackendMongo:
		s, err := kvstore.NewMongoStore(ctx, cfg.Store.MongoURI, cfg.Store.MongoDatabase, cfg.Store.MongoCollection, cfg.Store.Timeout)
		if err != nil {
			return nil, nil, err
		}
		store, closeFn = s, func() { _ = s.Close() }
	case config.BackendFirestore:
		s, err := kvstore.NewFirestoreStore(ctx, kvstore.FirestoreConfig{
			ProjectID:       cfg.Store.FirestoreProject,
			Collection:      cfg.Store.FirestoreCollection,
			CredentialsJSON: cfg.Store.FirestoreCredentialsJSON,
			CredentialsFile: cfg.Store.FirestoreCredentialsFile,
			Timeout:         cfg.Store.Timeout,
		})
		if err != nil {
			return nil, nil, err
		}
		store, closeFn = s, func() { _ = s.Close() }
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	if cfg.Store.EncryptionKey != "" {
		c, err := security.NewCipher(cfg.Store.EncryptionKey)
		if err != nil {
			closeFn()
			return nil, nil, err
		}
		store = kvstore.NewEncryptedStore(store, c)
	}

	logger.Info("Filter store ready", "backend", cfg.Store.Backend, "encrypted", cfg.Store.EncryptionKey != "")
	return store, closeFn, nil
}

// openEngine opens the database and filter store and restores the engine.
// Callers must run the returned cleanup.
func openEngine(ctx context.Context, cfg *config.Config, opts ...filters.Option) (*filters.Engine, *sql.DB, func(), error) {
	db, err := openDatabase(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	store, closeStore, err := openStore(ctx, cfg, db)
	if err != nil {
		db.Close()
		return nil, nil, nil, err
	}

	opts = append([]filters.Option{
		filters.WithStorageKey(cfg.Filters.StorageKey),
		filters.WithLogger(logger),
	}, opts...)
	engine := filters.New(store, opts...)

	cleanup := func() {
		closeStore()
		db.Close()
	}
	return engine, db, cleanup, nil
}
