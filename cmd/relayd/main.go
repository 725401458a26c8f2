// Command relayd serves the Blobbi Island event relay over HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/blobbi/island/internal/cache"
	"github.com/blobbi/island/internal/config"
	"github.com/blobbi/island/internal/limiter"
	"github.com/blobbi/island/internal/migrate"
	"github.com/blobbi/island/internal/provider/postgres"
	"github.com/blobbi/island/internal/server/httpapi"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, runs migrations, and starts the relay HTTP server.
func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Server.Address()),
	)

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.Database.DSN); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}

	pool, err := pgxpool.New(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("pgxpool.New", zap.Error(err))
	}
	defer pool.Close()

	store := postgres.NewStore(&postgres.DB{Pool: pool})

	var lim limiter.Limiter = limiter.Unlimited{}
	if cfg.Limiter.Enabled {
		lim = limiter.NewPG(pool, cfg.Limiter.Window, cfg.Limiter.Max)
	}

	var qc cache.Cache
	switch cfg.Cache.Type {
	case "redis":
		rc, err := cache.NewRedis(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
		if err != nil {
			logger.Fatal("redis", zap.Error(err))
		}
		defer rc.Close()
		qc = rc
	default:
		qc = cache.NewMemory()
	}

	api := httpapi.NewServer(store, lim, qc, cfg.Cache.TTL, logger)
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      api.Router([]byte(cfg.Admin.JWTKey)),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}
