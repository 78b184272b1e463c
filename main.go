package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cruzdariel/Sendy/airports"
	"github.com/cruzdariel/Sendy/api"
	"github.com/cruzdariel/Sendy/config"
	"github.com/cruzdariel/Sendy/pkg/buildinfo"
	"github.com/cruzdariel/Sendy/pkg/cache"
	"github.com/cruzdariel/Sendy/pkg/health"
	"github.com/cruzdariel/Sendy/pkg/logger"
	"github.com/cruzdariel/Sendy/share"
	"github.com/cruzdariel/Sendy/storage"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init(logger.Config{Level: "info", Format: "text"})
		logger.Error(err, "failed to load configuration")
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Level:  cfg.LoggingConfig.Level,
		Format: cfg.LoggingConfig.Format,
	})
	logger.Info("starting sendy", "version", buildinfo.Version, "environment", cfg.Environment)

	// Airport reference table, loaded once and shared read-only.
	table, err := airports.Ensure(cfg.StorageConfig.AirportsFile, cfg.StorageConfig.AirportsURL)
	if err != nil {
		logger.Error(err, "failed to load airport reference data")
		os.Exit(1)
	}

	store, cleanup, err := newStore(cfg)
	if err != nil {
		logger.Error(err, "failed to initialize dataset store")
		os.Exit(1)
	}
	defer cleanup()

	manager, err := share.NewManager(
		store,
		filepath.Join(cfg.StorageConfig.DataDir, "shares"),
		cfg.ShareConfig.DefaultTTLDays,
		cfg.ShareConfig.IDLength,
	)
	if err != nil {
		logger.Error(err, "failed to initialize share manager")
		os.Exit(1)
	}

	healthChecker := health.NewHealthChecker(buildinfo.Version)
	healthChecker.AddChecker(&health.StoreChecker{Store: store, Name: "dataset_store"})
	healthChecker.AddChecker(&health.AirportsChecker{Table: table, Name: "airports"})

	var shareCache cache.Cache
	if cfg.RedisConfig.CacheEnabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisConfig.Host + ":" + cfg.RedisConfig.Port,
			Password: cfg.RedisConfig.Password,
			DB:       cfg.RedisConfig.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			logger.Error(err, "failed to connect to redis")
			os.Exit(1)
		}
		shareCache = cache.NewRedisCache(client, "sendy:share")
		healthChecker.AddChecker(&health.RedisChecker{Client: client, Name: "redis"})
		logger.Info("share view cache enabled", "ttl", cfg.RedisConfig.CacheTTL)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	api.RegisterRoutes(router, api.Deps{
		Sessions:   api.NewSessionStore(),
		Lookup:     table,
		Manager:    manager,
		ShareCache: shareCache,
		Health:     healthChecker,
		Config:     cfg,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port, "base_url", cfg.BaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(err, "server failed")
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error(err, "server forced to shutdown")
		os.Exit(1)
	}

	logger.Info("server exited")
}

// newStore selects the dataset store backend from configuration.
func newStore(cfg *config.Config) (storage.Store, func(), error) {
	switch cfg.StorageConfig.Backend {
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		pg, err := storage.NewPostgresStore(ctx, cfg.PostgresConfig)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.InitSchema(ctx); err != nil {
			pg.Close()
			return nil, nil, err
		}
		logger.Info("using postgres dataset store", "host", cfg.PostgresConfig.Host)
		return pg, pg.Close, nil
	default:
		fs, err := storage.NewFSStore(filepath.Join(cfg.StorageConfig.DataDir, "user_datasets"))
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using filesystem dataset store", "dir", cfg.StorageConfig.DataDir)
		return fs, func() {}, nil
	}
}
