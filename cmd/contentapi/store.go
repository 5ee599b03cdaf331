package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"go.uber.org/zap"

	"tributo.band/site/internal/contentapi"
)

var errNoDatabase = errors.New("CONTENT_API_DATABASE_URL is not set")

// openPostgres connects to the configured database.
func (a *app) openPostgres(ctx context.Context) (*contentapi.PostgresStore, func(), error) {
	if a.cfg.ContentAPI.DatabaseURL == "" {
		return nil, nil, errNoDatabase
	}
	pool, err := contentapi.Connect(ctx, a.cfg.ContentAPI.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return contentapi.NewPostgresStore(pool), pool.Close, nil
}

// openStore returns PostgreSQL when a database URL is configured and a
// seeded in-memory store otherwise.
func (a *app) openStore(ctx context.Context) (contentapi.Store, func(), error) {
	if a.cfg.ContentAPI.DatabaseURL != "" {
		store, closeFn, err := a.openPostgres(ctx)
		if err != nil {
			return nil, nil, err
		}
		a.logger.Info("using postgres content store")
		return store, closeFn, nil
	}

	store := contentapi.NewMemoryStore()
	seed, err := contentapi.LoadSeed(a.cfg.ContentAPI.SeedFile)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		a.logger.Warn("seed file not found; serving empty content", zap.String("seed", a.cfg.ContentAPI.SeedFile))
	case err != nil:
		return nil, nil, err
	default:
		if err := seed.Apply(ctx, store, a.logger); err != nil {
			return nil, nil, fmt.Errorf("apply seed: %w", err)
		}
		a.logger.Info("using in-memory content store", zap.String("seed", a.cfg.ContentAPI.SeedFile))
	}
	return store, func() {}, nil
}
