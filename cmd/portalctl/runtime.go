package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/goliatone/go-portal/components/portal"
	"github.com/goliatone/go-portal/pkg/kvstore/filestore"
	"github.com/goliatone/go-portal/pkg/kvstore/pgstore"
	"github.com/goliatone/go-portal/pkg/kvstore/redisstore"
)

// runtime owns the service and the backend resources behind it.
type runtime struct {
	cfg     Config
	logger  *zap.Logger
	service *portal.Service
	closers []func() error
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// open builds the service. configure runs after the manifest is applied and
// before the service is created.
func (g *Globals) open(ctx context.Context, configure func(cfg Config, opts *portal.Options) error) (*runtime, error) {
	cfg, err := g.resolve()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(g.Debug)
	if err != nil {
		return nil, fmt.Errorf("portalctl: logger: %w", err)
	}
	rt := &runtime{cfg: cfg, logger: logger}
	store, err := rt.openStore(ctx)
	if err != nil {
		rt.Close()
		return nil, err
	}
	opts := portal.Options{
		Store:     store,
		Catalog:   portal.NewCatalog(),
		Providers: portal.NewProviders(),
		Logger:    logger,
		KeyPrefix: cfg.KeyPrefix,
	}
	if cfg.Manifest != "" {
		doc, err := portal.ReadManifest(cfg.Manifest)
		if err != nil {
			rt.Close()
			return nil, err
		}
		if err := doc.Apply(&opts); err != nil {
			rt.Close()
			return nil, err
		}
	}
	if configure != nil {
		if err := configure(cfg, &opts); err != nil {
			rt.Close()
			return nil, err
		}
	}
	if err := opts.Providers.Check(opts.Catalog); err != nil {
		logger.Warn("catalog has widgets without data", zap.Error(err))
	}
	rt.service = portal.NewService(opts)
	return rt, nil
}

func (rt *runtime) openStore(ctx context.Context) (portal.KVStore, error) {
	switch rt.cfg.Backend {
	case backendMemory:
		return portal.NewMemoryStore(), nil
	case backendFile:
		store, err := filestore.Open(rt.cfg.File.Dir, rt.logger)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, store.Close)
		return store, nil
	case backendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     rt.cfg.Redis.Addr,
			Password: rt.cfg.Redis.Password,
			DB:       rt.cfg.Redis.DB,
		})
		rt.closers = append(rt.closers, client.Close)
		store, err := redisstore.Open(ctx, redisstore.Config{
			Client:  client,
			Channel: rt.cfg.Redis.Channel,
			Logger:  rt.logger,
		})
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, store.Close)
		return store, nil
	case backendPostgres:
		pool, err := pgstore.Connect(ctx, rt.cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, func() error {
			pool.Close()
			return nil
		})
		store, err := pgstore.Open(ctx, pgstore.Config{
			Pool:    pool,
			Table:   rt.cfg.Postgres.Table,
			Channel: rt.cfg.Postgres.Channel,
			Logger:  rt.logger,
		})
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, store.Close)
		return store, nil
	}
	return nil, fmt.Errorf("portalctl: unknown backend %q", rt.cfg.Backend)
}

// Close releases resources in reverse order of acquisition.
func (rt *runtime) Close() error {
	if rt.service != nil {
		rt.service.Close()
	}
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	_ = rt.logger.Sync()
	return errors.Join(errs...)
}
