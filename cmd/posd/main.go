package main

import (
	"context"
	"io"
	"log"
	"os/signal"
	"syscall"
	"time"

	"artisanal/backend/internal/config"
	"artisanal/backend/internal/docstore"
	"artisanal/backend/internal/kv"
	"artisanal/backend/internal/state"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				log.Printf("[posd] WARN: close failed: %v", err)
			}
		}
	}()

	docs, closer := openDocStore(ctx, cfg)
	if closer != nil {
		closers = append(closers, closer)
	}

	cache, closer := openCache(ctx, cfg)
	if closer != nil {
		closers = append(closers, closer)
	}

	app := state.NewApp(docs, cache, state.LogNotifier{})
	if err := app.Load(ctx); err != nil {
		log.Fatalf("load state for %s: %v", cfg.StoreID, err)
	}
	log.Printf("[posd] store %s ready, syncing every %ds", cfg.StoreID, cfg.SyncIntervalSeconds)

	ticker := time.NewTicker(time.Duration(cfg.SyncIntervalSeconds) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			app.Sync(ctx)
		case <-ctx.Done():
			log.Println("[posd] shutting down, final sync")
			syncCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			app.Sync(syncCtx)
			cancel()
			return
		}
	}
}

func openDocStore(ctx context.Context, cfg config.Config) (docstore.Store, io.Closer) {
	if cfg.DatabaseURL == "" {
		log.Println("[posd] WARN: DATABASE_URL not set, documents are not persisted remotely")
		return docstore.NewMemory(), nil
	}
	pg, err := docstore.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect document store: %v", err)
	}
	log.Println("[posd] connected to postgres document store")
	return pg, pg
}

func openCache(ctx context.Context, cfg config.Config) (kv.Store, io.Closer) {
	if cfg.RedisAddr != "" {
		rds := kv.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rds.Ping(pingCtx)
		cancel()
		if err == nil {
			log.Printf("[posd] using redis cache at %s", cfg.RedisAddr)
			return rds, rds
		}
		log.Printf("[posd] WARN: redis at %s unreachable, falling back to local file: %v", cfg.RedisAddr, err)
		_ = rds.Close()
	}

	lite, err := kv.OpenSQLite(cfg.KVPath)
	if err != nil {
		log.Printf("[posd] WARN: local cache at %s unusable, state will not survive restarts: %v", cfg.KVPath, err)
		return kv.NewMemory(), nil
	}
	log.Printf("[posd] using local cache at %s", cfg.KVPath)
	return lite, lite
}
