package main

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"shelfmark/internal/app"
	"shelfmark/internal/config"
	"shelfmark/internal/googlebooks"
	"shelfmark/internal/ratelimit"
	"shelfmark/internal/server"
	"shelfmark/internal/util"
	"shelfmark/pkg/storage"
	"shelfmark/pkg/store"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	dataStore, err := store.NewGormStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to init postgres store: %v", err)
	}
	objects, err := storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	if err != nil {
		log.Fatalf("failed to init object store: %v", err)
	}
	catalog := googlebooks.New(googlebooks.Config{
		BaseURL: cfg.GoogleBooksBaseURL,
		APIKey:  cfg.GoogleBooksAPIKey,
		Timeout: time.Duration(cfg.GoogleBooksTimeoutSeconds) * time.Second,
		RPS:     cfg.GoogleBooksRPS,
	})
	limiter, err := ratelimit.New(ratelimit.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		Limit:    cfg.ProviderRateLimit,
		Window:   time.Duration(cfg.ProviderRateWindowSeconds) * time.Second,
	})
	if err != nil {
		log.Fatalf("failed to init rate limiter: %v", err)
	}
	trusted, err := util.NewTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		log.Fatalf("failed to parse trusted proxies: %v", err)
	}

	appCore, err := app.New(app.Config{
		Store:         dataStore,
		Objects:       objects,
		Catalog:       catalog,
		PresignExpiry: time.Duration(cfg.PresignExpiryMinutes) * time.Minute,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	httpServer, err := server.New(server.Config{
		App:            appCore,
		Limiter:        limiter,
		TrustedProxies: trusted,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("shelfmark server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
