package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iammorganparry/transmem/internal/api"
	"github.com/iammorganparry/transmem/internal/config"
	"github.com/iammorganparry/transmem/internal/memory"
	"github.com/iammorganparry/transmem/internal/metrics"
	"github.com/iammorganparry/transmem/internal/provider"
	"github.com/iammorganparry/transmem/internal/registry"
	"github.com/iammorganparry/transmem/internal/search"
	"github.com/iammorganparry/transmem/internal/store"
	"github.com/iammorganparry/transmem/internal/translate"
	"github.com/iammorganparry/transmem/internal/worksync"
)

func main() {
	// Config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	// SQLite (optional)
	var (
		db        *store.DB
		persister memory.Persister
		saver     registry.Saver
	)
	if cfg.PersistenceEnabled {
		db, err = store.Open(cfg.DBPath)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		p := store.NewPersistence(db)
		persister, saver = p, p
	}

	// Memory
	memStore := memory.NewStore(cfg.MaxEntries)
	reg := registry.New(memStore, saver)
	engine := search.NewEngine(memStore, memStore, cfg.TextWeight, cfg.ContextWeight)
	m := metrics.New(memStore.Len)

	svc := memory.NewService(memStore, engine, reg, persister, m, logger)
	svc.SetDefaultThreshold(cfg.DefaultThreshold)
	if err := svc.Load(); err != nil {
		logger.Error("failed to restore translation memory", "error", err)
		os.Exit(1)
	}
	if cfg.MaxEntries > 0 {
		// A lowered MAX_ENTRIES applies to what was restored.
		if _, err := svc.Compact(context.Background()); err != nil {
			logger.Warn("startup compaction failed", "error", err)
		}
	}

	// Translation providers
	var (
		translator *translate.Service
		health     provider.HealthChecker
	)
	if cfg.ProviderEnabled {
		ollama := provider.NewOllamaProvider(cfg.OllamaBaseURL, cfg.TranslationModel)
		cached := provider.NewCachedProvider(provider.NewChain(logger, ollama), cfg.CacheTTL, cfg.CacheMaxItems)
		health = cached
		translator = translate.NewService(svc, cached, translate.Options{
			MaxTextLength:  cfg.MaxTextLength,
			ReuseThreshold: cfg.ReuseThreshold,
			SuggestionMin:  cfg.SuggestionThreshold,
		}, m, logger)
	}

	// Work file sync
	var workSync *worksync.SyncService
	if len(cfg.WorksDirs) > 0 {
		workSync = worksync.NewSyncService(reg, cfg.WorksDirs, logger)
	}

	// Rate limiting
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	limiter := api.NewRateLimiter(cfg.RateLimitWindow, cfg.RateLimitMax)
	go limiter.RunSweeper(ctx)

	// Router
	router := api.NewRouter(db, svc, health, translator, workSync, m, api.RouterConfig{
		APIKey:      cfg.APIKey,
		CORSOrigins: cfg.CORSOrigins,
		RateLimiter: limiter,
	}, logger)

	// Server
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("translation memory server starting",
			"addr", addr,
			"persistence", cfg.PersistenceEnabled,
			"max_entries", cfg.MaxEntries,
			"translation", cfg.ProviderEnabled,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Auto-sync work files on startup
	if cfg.WorksAutoSync && workSync != nil {
		go func() {
			result, err := workSync.Sync()
			if err != nil {
				logger.Error("work auto-sync failed", "error", err)
				return
			}
			logger.Info("work auto-sync complete",
				"found", result.Found,
				"stored", result.Stored,
				"errors", result.Errors,
			)
		}()
	}

	<-done
	logger.Info("shutting down...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("server stopped")
}
