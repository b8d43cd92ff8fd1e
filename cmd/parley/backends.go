package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vedran77/parley/internal/blob"
	"github.com/vedran77/parley/internal/config"
	"github.com/vedran77/parley/internal/database"
	"github.com/vedran77/parley/internal/repository"
	"github.com/vedran77/parley/internal/repository/memory"
	"github.com/vedran77/parley/internal/repository/postgres"
	"github.com/vedran77/parley/internal/search"
)

// openStore returns the configured document store. pool is nil for the
// memory driver.
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (repository.Store, *pgxpool.Pool, error) {
	if cfg.StoreDriver == "memory" {
		log.Warn("using in-memory store, data is lost on exit")
		return memory.NewStore(), nil, nil
	}

	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	log.Info("connected to database", slog.String("host", cfg.DBHost), slog.String("name", cfg.DBName))
	return postgres.NewStore(pool), pool, nil
}

// openEngine returns the configured search engine. indexer is set when the
// engine keeps its own index and therefore supports reindexing.
func openEngine(cfg *config.Config, pool *pgxpool.Pool) (engine search.Engine, indexer search.BatchIndexer, closeFn func() error, err error) {
	if cfg.SearchEngine == "postgres" {
		return search.NewPostgresEngine(pool), nil, func() error { return nil }, nil
	}

	// A persistent index would outlive the memory store and keep returning
	// ids that no longer exist.
	open := func() (*search.BlugeEngine, error) { return search.OpenBluge(cfg.BlugePath) }
	if cfg.StoreDriver == "memory" {
		open = search.NewMemoryBluge
	}

	b, err := open()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening search index: %w", err)
	}
	return b, b, b.Close, nil
}

// openBlobs returns the configured blob store. local is set when blobs are
// served by this process.
func openBlobs(ctx context.Context, cfg *config.Config) (store blob.Store, local *blob.LocalStore, closeFn func() error, err error) {
	if cfg.BlobDriver == "s3" {
		s, err := blob.NewS3Store(ctx, blob.S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			UploadTTL: cfg.UploadTTL,
			URLTTL:    cfg.BlobURLTTL,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("configuring s3: %w", err)
		}
		return s, nil, func() error { return nil }, nil
	}

	l, err := blob.OpenLocal(cfg.BadgerPath, blob.LocalOptions{
		BaseURL:   cfg.PublicURL + "/api/v1/storage",
		UploadTTL: cfg.UploadTTL,
		MaxBytes:  cfg.MaxUploadBytes,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening blob store: %w", err)
	}
	return l, l, l.Close, nil
}
