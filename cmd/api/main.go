package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"idealauncher/api/internal/app"
	"idealauncher/api/internal/authpw"
	"idealauncher/api/internal/cache"
	"idealauncher/api/internal/config"
	"idealauncher/api/internal/domaincheck"
	"idealauncher/api/internal/email"
	"idealauncher/api/internal/export"
	"idealauncher/api/internal/history"
	"idealauncher/api/internal/llm"
	"idealauncher/api/internal/search"
	"idealauncher/api/internal/session"
	"idealauncher/api/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	if err := os.MkdirAll(cfg.HistoryDir, 0o755); err != nil {
		log.Fatalf("failed to create history dir: %v", err)
	}

	dataStore := store.NewPostgresStore(db)
	historyService := history.New(cfg.HistoryDir)

	pgSearch := search.NewPgSearch(dataStore)
	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meiliClient.Close()
	}
	searchService := search.NewService(meiliClient, pgSearch)

	var cacheStore cache.Store
	deps := app.Deps{
		Store:   dataStore,
		Refresh: dataStore,
		History: historyService,
		Search:  searchService,
		Export:  export.NewService(),
		AuthPW:  authpw.NewService(dataStore),
		Domains: domaincheck.NewService(cfg.DomainLookupURL, cfg.DomainLookupKey),
		LLM:     llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTimeout, cfg.LLMMaxRetries),
	}

	if strings.TrimSpace(cfg.RedisURL) != "" {
		log.Printf("Using Redis for refresh tokens and read cache")
		redisSessions, err := session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer redisSessions.Close()
		deps.Refresh = redisSessions

		redisCache, err := cache.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis cache connection failed: %v", err)
		}
		cacheStore = redisCache
	} else {
		log.Printf("Using PostgreSQL for refresh tokens and in-memory read cache")
		cacheStore = cache.NewMemoryStore()
	}
	defer cacheStore.Close()
	deps.Cache = cacheStore

	if cfg.SMTPHost != "" {
		deps.Email = email.NewService(email.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			FromName: cfg.SMTPFromName,
		})
	}

	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		artifacts, err := export.NewStorage(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.Printf("WARNING: object storage unavailable, export artifacts disabled: %v", err)
		} else if err := artifacts.EnsureBucket(ctx); err != nil {
			log.Printf("WARNING: object storage bucket check failed, export artifacts disabled: %v", err)
		} else {
			deps.Artifacts = artifacts
		}
	}

	service := app.New(cfg, deps)

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Chat streaming holds responses open well past a normal
		// request, so no write timeout.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("IdeaLauncher API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
