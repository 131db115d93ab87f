package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"nanodraw/internal/adapter/repo"
	"nanodraw/internal/generation"
	"nanodraw/internal/http/handlers"
	httpapi "nanodraw/internal/http/httpapi"
	"nanodraw/internal/infra"
	"nanodraw/internal/infra/geoip"
	"nanodraw/internal/middleware"
	"nanodraw/internal/providers/nanobanana"
	"nanodraw/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	ownerRepo := repo.NewRecordRepository(dbpool)

	// The service credential bypasses owner scoping so anonymous
	// submissions can still be recorded. Without it they are not.
	var serviceRepo *repo.ServiceRecordRepositoryPG
	analyticsDB := infra.SQLExecutor(dbpool)
	if cfg.ServiceDatabaseURL != "" {
		servicePool, err := infra.NewDBPool(ctx, cfg.ServiceDatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect service database")
		}
		defer servicePool.Close()
		serviceRepo = repo.NewServiceRecordRepository(servicePool)
		analyticsDB = servicePool
	} else {
		logger.Warn().Msg("SERVICE_DATABASE_URL not set; anonymous generations will not be recorded")
	}
	writerResolver := repo.NewWriterResolver(ownerRepo, serviceRepo)
	analytics := repo.NewAnalyticsRepository(analyticsDB)

	var country middleware.CountryLookup
	geo, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip database unavailable; country resolution disabled")
	} else if geo != nil {
		country = geo.CountryCode
	}

	provider := nanobanana.NewClient(nanobanana.Options{
		APIKey:  cfg.NanoBananaAPIKey,
		BaseURL: cfg.NanoBananaAPIBase,
		Model:   cfg.NanoBananaModel,
		Logger:  &logger,
	})
	if !provider.HasCredentials() {
		logger.Warn().Msg("NANO_BANANA_API_KEY not set; provider submissions will be rejected")
	}

	orchestrator := generation.NewOrchestrator(generation.Options{
		Provider:     provider,
		Records:      writerResolver,
		Logger:       &logger,
		MaxAttempts:  cfg.PollMaxAttempts,
		PollInterval: cfg.PollInterval,
	})

	app := &handlers.App{
		Config:    cfg,
		Logger:    &logger,
		Generator: orchestrator,
		Records:   ownerRepo,
		Deleter:   ownerRepo,
		Analytics: analytics,
		Country:   country,
	}

	if cfg.R2AccountID != "" && cfg.R2AccessKeyID != "" {
		store, err := storage.NewR2Store(storage.R2Options{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			Bucket:          cfg.R2Bucket,
			PublicHost:      cfg.R2PublicHost,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure object storage")
		}
		app.Storage = store
	} else {
		logger.Warn().Msg("R2 credentials not set; upload endpoints disabled")
	}

	router := httpapi.NewRouter(app, cfg, &logger)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
