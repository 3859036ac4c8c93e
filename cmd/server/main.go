package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/voxly/voxly/internal/adapters/http"
	"github.com/voxly/voxly/internal/app"
	"github.com/voxly/voxly/internal/auth"
	"github.com/voxly/voxly/internal/backup"
	"github.com/voxly/voxly/internal/config"
	"github.com/voxly/voxly/internal/core"
	filestore "github.com/voxly/voxly/internal/store/file"
	sqlitestore "github.com/voxly/voxly/internal/store/sqlite"
)

// dataStore is what both store backends provide.
type dataStore interface {
	core.HistoryStore
	core.CredentialStore
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}

	orch := app.NewOrchestrator(store)
	authSvc := auth.NewService(store)

	if cfg.Backup.Enabled {
		runner := backup.NewRunner(cfg.DataDir, cfg.Backup.Secret, cfg.Backup.Interval,
			backup.DirUploader{Dir: cfg.Backup.Dir})
		go runner.Run(ctx)
	}

	r := router.SetupRouter(ctx, cfg, orch, authSvc, store)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Str("store", cfg.Store).Msg("voxly server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}

func openStore(cfg *config.Config) (dataStore, error) {
	switch cfg.Store {
	case "sqlite":
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, err
		}
		return sqlitestore.Open(filepath.Join(cfg.DataDir, "voxly.db"))
	default:
		return filestore.Open(cfg.DataDir)
	}
}
