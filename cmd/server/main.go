package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/jamubc/gemini-mcp-tool-sub000/internal/api"
	"github.com/jamubc/gemini-mcp-tool-sub000/internal/chat"
	"github.com/jamubc/gemini-mcp-tool-sub000/internal/config"
	"github.com/jamubc/gemini-mcp-tool-sub000/internal/gemini"
	"github.com/jamubc/gemini-mcp-tool-sub000/internal/store"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	ctx := context.Background()

	// Initialize the persistence backend
	adapter, err := newAdapter(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.StorageBackend).Msg("storage initialization failed")
	}
	defer adapter.Close()
	logger.Info().Str("backend", cfg.StorageBackend).Msg("storage ready")

	// Chat store and Gemini client
	chats := chat.NewStore(adapter, chat.NewLockManager(), logger, cfg.LockTimeout)
	gem := gemini.NewClient(cfg.GeminiBin, cfg.GeminiModels, cfg.GeminiTimeout, logger)

	// TTL sweep: once at startup, then on an interval
	chats.CleanupExpired(ctx)
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go func() {
		ticker := time.NewTicker(cfg.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				chats.CleanupExpired(sweepCtx)
			case <-sweepCtx.Done():
				return
			}
		}
	}()

	// Create router
	router := api.NewRouter(cfg, logger, chats, gem, adapter)

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // ask turns wait on the Gemini CLI
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Msg("starting gemini-mcp-tool server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}

// newAdapter selects the persistence backend from configuration.
func newAdapter(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (store.Adapter, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		return store.NewMemoryStore(), nil
	case config.BackendSQLite:
		return store.NewSQLiteStore(ctx, cfg.SQLitePath)
	case config.BackendRedis:
		return store.NewRedisStore(ctx, cfg.RedisURL, logger)
	default:
		return store.NewFileStore(cfg.DataDir, logger)
	}
}
