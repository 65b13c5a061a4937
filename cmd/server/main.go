package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hamgarian/do-real-shit/internal/config"
	api "github.com/hamgarian/do-real-shit/internal/http"
	"github.com/hamgarian/do-real-shit/internal/log"
	"github.com/hamgarian/do-real-shit/internal/metrics"
	"github.com/hamgarian/do-real-shit/internal/pricing"
	"github.com/hamgarian/do-real-shit/internal/queue"
	"github.com/hamgarian/do-real-shit/internal/repo"
	"github.com/hamgarian/do-real-shit/internal/security"
)

// @title Taskboard API
// @version 0.1.0
// @description Task pricing, tasks CRUD and leaderboard.
// @schemes http https
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()

	logger, err := log.Init(cfg.Prod)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// fail fast: без ключей не стартуем, тихого fallback-режима нет
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}

	metrics.MustRegister()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := repo.NewStore(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Fatal("mongo connect", zap.Error(err))
	}
	defer store.Close(context.Background())

	if err := store.EnsureIndexes(ctx); err != nil {
		logger.Fatal("ensure indexes", zap.Error(err))
	}

	pricer, err := pricing.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		logger.Fatal("genai client", zap.Error(err))
	}

	pub := queue.NewNoop()
	if cfg.RabbitURL != "" {
		pub, err = queue.NewRabbit(cfg.RabbitURL, queue.Exchange)
		if err != nil {
			logger.Fatal("rabbit connect", zap.Error(err))
		}
	}
	defer pub.Close()

	var cache *repo.Redis
	if cfg.RedisAddr != "" {
		cache = repo.NewRedis(cfg.RedisAddr)
		if err := cache.Ping(ctx); err != nil {
			logger.Fatal("redis connect", zap.Error(err))
		}
		defer cache.Close()
	}

	verifier := security.NewFetcher(cfg.AuthJWKSURL, cfg.AuthIssuer, cfg.AuthAudience,
		time.Duration(cfg.JWKSCacheSeconds)*time.Second)

	h := api.NewHandler(store, pricer, pub, cache,
		time.Duration(cfg.LeaderboardCacheSeconds)*time.Second)
	r := api.NewRouter(h, verifier, cfg.RateLimitPerMin)

	srvErr := make(chan error, 1)
	go func() { srvErr <- r.Run(":" + cfg.Port) }()

	logger.Info("taskboard-service listening", zap.String("port", cfg.Port))

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		logger.Info("signal received, shutting down", zap.String("signal", s.String()))
	case err := <-srvErr:
		logger.Error("server error", zap.Error(err))
	}
}
