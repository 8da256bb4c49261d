package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/placechase/placechase-api/internal/config"
	"github.com/placechase/placechase-api/internal/game"
	"github.com/placechase/placechase-api/internal/handlers"
	"github.com/placechase/placechase-api/internal/leaderboard"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var logger *zap.Logger
	if cfg.Env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Leaderboard tiers. The remote connects in the background; operations
	// wait for it with a bounded deadline and fall back to the local blob.
	var remote *leaderboard.Remote
	if cfg.PostgresURL != "" {
		remote = leaderboard.NewRemote(ctx, cfg.PostgresURL, logger)
		defer remote.Close()
	} else {
		sugar.Warnw("No POSTGRES_URL configured, high scores stored locally only")
	}

	var cache *leaderboard.Cache
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			sugar.Fatalw("Invalid REDIS_URL", "error", err)
		}
		cache = leaderboard.NewCache(redis.NewClient(opts), cfg.CacheTTL, logger)
	}

	store := leaderboard.New(leaderboard.Config{
		Remote:    remote,
		Local:     leaderboard.NewLocalStore(cfg.LocalStorePath, logger),
		Cache:     cache,
		ReadyWait: cfg.ReadyWait,
		Logger:    logger,
	})

	manager := game.NewManager(game.ManagerConfig{
		Machine: game.Config{
			Rounds:        cfg.Rounds,
			RoundSeconds:  cfg.RoundSeconds,
			PenaltyMeters: cfg.PenaltyMeters,
			Logger:        logger,
		},
		SessionTTL: cfg.SessionTTL,
	}, store, logger)

	handler := handlers.New(handlers.Config{
		Manager:    manager,
		Store:      store,
		MapsAPIKey: cfg.MapsAPIKey,
		Logger:     logger,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handlers.Router(handler, cfg.AllowedOrigins),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sugar.Infow("Server listening",
			"port", cfg.Port,
			"env", cfg.Env,
			"mapsConfigured", cfg.MapsConfigured(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		err := manager.RunJanitor(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("Server exited", "error", err)
	}
	sugar.Infow("Shutdown complete")
}
