package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"radiocore/internal/artifacts"
	"radiocore/internal/catalog"
	"radiocore/internal/generation"
	"radiocore/internal/http/handlers"
	"radiocore/internal/http/httpapi"
	"radiocore/internal/infra"
	"radiocore/internal/infra/credentials"
	"radiocore/internal/infra/geoip"
	"radiocore/internal/jobs"
	"radiocore/internal/ledger"
	"radiocore/internal/lyrics"
	"radiocore/internal/middleware"
	"radiocore/internal/notify"
	"radiocore/internal/providers/image"
	"radiocore/internal/providers/music"
	"radiocore/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		fallbackLogger := infra.NewLogger("production")
		fallbackLogger.Fatal().Err(err).Msg("config load failed")
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("database connect failed")
	}
	defer pool.Close()
	sqlRunner := infra.NewSQLRunner(pool, logger)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	store, err := storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("storage init failed")
	}

	// Environment keys win; the credentials table covers deployments that
	// rotate provider keys without restarting.
	creds := credentials.NewStore(sqlRunner)
	if cfg.ReplicateAPIToken == "" {
		if token, err := creds.Token(ctx, credentials.ProviderReplicate); err == nil && token != "" {
			cfg.ReplicateAPIToken = token
		}
	}
	if cfg.FalAPIKey == "" {
		if token, err := creds.Token(ctx, credentials.ProviderFal); err == nil && token != "" {
			cfg.FalAPIKey = token
		}
	}

	var countryLookup middleware.CountryLookup
	if cfg.GeoIPDBPath != "" {
		resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
		if err != nil {
			logger.Warn().Err(err).Msg("geoip unavailable, language hints disabled")
		} else {
			defer resolver.Close()
			countryLookup = resolver.CountryCode
		}
	}

	controller := &generation.Controller{
		Cfg:    cfg,
		Ledger: ledger.NewService(sqlRunner, logger),
		Router: &music.Router{
			Replicate: music.NewReplicateClient(cfg, logger),
			Fal:       music.NewFalClient(cfg, logger),
		},
		Resolver: &lyrics.Resolver{
			Quota:  lyrics.NewRedisQuota(redisClient),
			Logger: logger,
		},
		Persister: artifacts.NewPersister(store, logger),
		Catalog:   catalog.NewCatalog(sqlRunner, logger),
		Jobs:      jobs.NewRepository(sqlRunner, logger),
		Notifier:  notify.NewNotifier(sqlRunner, logger),
		CoverArt:  image.NewClient(cfg, logger),
		Registry:  generation.NewRegistry(),
		Logger:    logger,
	}

	app := &handlers.App{
		Cfg:        cfg,
		Controller: controller,
		Registry:   controller.Registry,
		Catalog:    catalog.NewCatalog(sqlRunner, logger),
		Store:      store,
		Logger:     logger,
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		JWTSecret:       cfg.JWTSecret,
		AllowedOrigins:  cfg.AllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		CountryLookup:   countryLookup,
		StaticDir:       cfg.StoragePath,
	})

	server := infra.NewHTTPServer(cfg, router)
	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()
	logger.Info().Str("port", cfg.Port).Str("env", cfg.AppEnv).Msg("api listening")

	select {
	case err := <-errCh:
		logger.Fatal().Err(err).Msg("server stopped")
	case <-ctx.Done():
	}

	// In-flight generations run on detached contexts; give them the full
	// polling budget before forcing the listener closed.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown incomplete")
	}
	logger.Info().Msg("api stopped")
}
