// Package main provides the entry point for the BioLink analytics service.
//
//	@title			BioLink Analytics API
//	@version		1.0.0
//	@description	Event tracking, analytics reports and achievement badges for link-in-bio profiles.
//
//	@contact.name	BioLink Support
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Authorization header. Format: "Bearer {token}"
package main

import (
	"BioLink-Backend/internal/analytics"
	"BioLink-Backend/internal/auth"
	"BioLink-Backend/internal/badge"
	"BioLink-Backend/internal/config"
	"BioLink-Backend/internal/database"
	httpHandler "BioLink-Backend/internal/handler/http"
	"BioLink-Backend/internal/repository"
	"BioLink-Backend/internal/repository/memory"
	"BioLink-Backend/internal/repository/postgres"
	"BioLink-Backend/internal/repository/redis"
	"BioLink-Backend/pkg/logger"
	"BioLink-Backend/pkg/useragent"
	"context"
	"errors"
	lg "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "BioLink-Backend/docs"
)

const version = "1.0.0"

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env)
	defer func() {
		if err := log.Sync(); err != nil {
			lg.Printf("ERROR: failed to sync zap logger: %v\n", err)
		}
	}()

	log.Info("starting BioLink analytics service",
		zap.String("env", cfg.Env),
		zap.String("storage_driver", cfg.Storage.Driver))

	storage, closeStorage := mustStorage(cfg, log)
	defer closeStorage()

	var reportCache analytics.ReportCache
	if cfg.Redis.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		cache, err := redis.NewReportCache(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		})
		cancel()
		if err != nil {
			log.Warn("report cache disabled, redis unavailable", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		} else {
			reportCache = cache
			defer func() {
				if err := cache.Close(); err != nil {
					log.Error("failed to close redis client", zap.Error(err))
				}
			}()
			log.Info("report cache enabled", zap.String("addr", cfg.Redis.Addr), zap.Duration("ttl", cfg.Redis.TTL))
		}
	}

	uaParser, err := useragent.NewParser(cfg.UserAgent.RegexesPath, log)
	if err != nil {
		log.Warn("failed to initialize User-Agent parser, using device detection only", zap.Error(err))
	}

	aggregator := analytics.NewAggregator(storage, reportCache, analytics.AggregatorConfig{
		RealtimeWindow: cfg.Analytics.RealtimeWindow,
		RecentWindow:   cfg.Analytics.RecentWindow,
	}, log)
	engine := badge.NewEngine(storage, storage, aggregator, log)

	retryCfg := analytics.DefaultProcessorConfig()
	retryCfg.WorkerCount = cfg.Analytics.BadgeRetry.Workers
	retryCfg.BufferSize = cfg.Analytics.BadgeRetry.BufferSize
	retryCfg.RetryAttempts = cfg.Analytics.BadgeRetry.Attempts
	retryCfg.RetryDelay = cfg.Analytics.BadgeRetry.Delay
	badgeRetry := analytics.NewProcessor(engine, log, retryCfg)
	if err := badgeRetry.Start(); err != nil {
		log.Fatal("failed to start badge retry processor", zap.Error(err))
	}

	gateway := analytics.NewGateway(storage, storage, engine, uaParser, log).WithRetry(badgeRetry)

	jwtService := auth.NewJWTService(&auth.JWTConfig{
		SecretKey:           []byte(cfg.Auth.JWTSecret),
		AccessTokenDuration: cfg.Auth.TokenTTL,
		Issuer:              cfg.Auth.Issuer,
	})
	authMiddleware := auth.NewMiddleware(jwtService, cfg.Auth.AllowedOrigins, log)

	apiServer := httpHandler.NewServer(
		httpHandler.NewAnalyticsHandler(gateway, aggregator, storage, validator.New(), cfg.Analytics.MaxBatchSize, cfg.Analytics.DefaultTimeRange, log),
		httpHandler.NewBadgesHandler(engine, log),
		httpHandler.NewHealthHandler(storage, version, log),
		authMiddleware,
		log,
	)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      apiServer.SetupRoutes(),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	log.Info("starting HTTP server", zap.String("address", srv.Addr))

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down BioLink analytics service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown HTTP server", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	if err := badgeRetry.Stop(); err != nil {
		log.Warn("badge retry processor did not stop cleanly", zap.Error(err))
	}
}

// mustStorage opens the configured store and returns it with its cleanup.
func mustStorage(cfg *config.Config, log *zap.Logger) (repository.Storage, func()) {
	switch cfg.Storage.Driver {
	case "memory":
		log.Warn("using in-memory storage, data is lost on restart")
		store := memory.New()
		store.SaveBadges(badge.DefaultCatalog()...)
		return store, func() {}

	case "postgres", "":
		db, err := database.NewConnection(&cfg.Database, log)
		if err != nil {
			log.Fatal("failed to connect to database", zap.Error(err))
		}

		if cfg.Database.AutoMigrate {
			log.Info("running database migrations (auto_migrate: true)")
			if err := database.AutoMigrate(db, log); err != nil {
				log.Fatal("failed to run database migrations", zap.Error(err))
			}
		} else {
			log.Info("skipping database migrations (auto_migrate: false)")
		}

		if cfg.Database.SeedData {
			log.Info("seeding badge catalog (seed_data: true)")
			if err := database.SeedBadges(db, log, badge.DefaultCatalog()); err != nil {
				log.Fatal("failed to seed database", zap.Error(err))
			}
		}

		return postgres.New(db, log), func() {
			if err := database.Close(db, log); err != nil {
				log.Error("failed to close database connection", zap.Error(err))
			}
		}

	default:
		log.Fatal("unknown storage driver", zap.String("driver", cfg.Storage.Driver))
		return nil, nil
	}
}
