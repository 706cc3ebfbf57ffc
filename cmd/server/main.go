package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vitrine-craques/video-moderation-go/internal/auth"
	"github.com/vitrine-craques/video-moderation-go/internal/config"
	"github.com/vitrine-craques/video-moderation-go/internal/db"
	"github.com/vitrine-craques/video-moderation-go/internal/handler"
	"github.com/vitrine-craques/video-moderation-go/internal/metrics"
	"github.com/vitrine-craques/video-moderation-go/internal/moderation"
	"github.com/vitrine-craques/video-moderation-go/internal/repository"
	"github.com/vitrine-craques/video-moderation-go/internal/router"
	"github.com/vitrine-craques/video-moderation-go/internal/service"
	"github.com/vitrine-craques/video-moderation-go/internal/validation"
	"github.com/vitrine-craques/video-moderation-go/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwtsecret (APP_AUTH_JWTSECRET) is required")
	}

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close(pool)

	logger.Log.Info("Database connection established",
		zap.String("host", cfg.Database.Host),
		zap.Int32("max_conns", pool.Config().MaxConns),
	)

	repo := repository.New(pool)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	opts := []moderation.Option{moderation.WithMetrics(m)}

	// Left nil when the collaborator is disabled.
	var (
		cachePinger handler.Pinger
		pubChecker  handler.HealthChecker
	)

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()

		cache := service.NewBlockedVideoCache(client, repo)
		if err := cache.LoadFromDB(ctx); err != nil {
			logger.Log.Warn("Blocked video cache warm-up failed, visibility falls back to the database",
				zap.Error(err),
			)
		}
		opts = append(opts, moderation.WithCache(cache))
		cachePinger = cache
	} else {
		logger.Log.Info("Redis not configured, visibility reads go to the database")
	}

	if cfg.RabbitMQ.Enabled {
		publisher, err := service.NewNotificationPublisher(cfg.RabbitMQ)
		if err != nil {
			return fmt.Errorf("connect rabbitmq: %w", err)
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Log.Warn("Failed to close RabbitMQ publisher", zap.Error(err))
			}
		}()
		opts = append(opts, moderation.WithPublisher(publisher))
		pubChecker = publisher
	}

	engine := moderation.NewEngine(repo, validation.New(cfg.Moderation), opts...)

	r := router.New(router.Deps{
		Service:      engine,
		Tokens:       auth.New(cfg.Auth),
		Health:       handler.NewHealthHandler(repo, cachePinger, pubChecker),
		Metrics:      m,
		Gatherer:     reg,
		AllowOrigins: cfg.Server.AllowOrigins,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Log.Info("Server starting", zap.Int("port", cfg.Server.Port))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-shutdown:
		logger.Log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Log.Error("Graceful shutdown failed", zap.Error(err))
			if err := srv.Close(); err != nil {
				return fmt.Errorf("close server: %w", err)
			}
		}

		logger.Log.Info("Server stopped gracefully")
	}

	return nil
}
