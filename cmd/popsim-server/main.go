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

	"github.com/daniacca/popsim/internal/logging"
	"github.com/daniacca/popsim/internal/popsim"
)

func main() {
	cfg, err := loadServerConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	logger := logging.New(cfg.LogLevel)
	logger.Infof("Starting popsim-server: addr=%s log_level=%s snapshot_dir=%s snapshot_every_steps=%d",
		cfg.Addr, cfg.LogLevel, cfg.SnapshotDir, cfg.SnapshotEverySteps)

	srv := NewServer(logger)
	srv.SetSnapshotDir(cfg.SnapshotDir)
	srv.SetSnapshotEverySteps(cfg.SnapshotEverySteps)

	if cfg.WorldFile != "" {
		if err := srv.loadInitialWorld(cfg.WorldFile, cfg.WorldID); err != nil {
			logger.Fatalf("Failed to load initial world: file=%s error=%v", cfg.WorldFile, err)
		}
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Infof("popsim-server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("HTTP shutdown failed: %v", err)
	}
	if err := srv.Close(); err != nil {
		logger.Errorf("Closing notifiers failed: %v", err)
	}
}

// loadInitialWorld builds the world in path and registers it under id, or
// under the config name when id is empty. A saved snapshot of that world is
// restored when one exists.
func (s *Server) loadInitialWorld(path, id string) error {
	cfg, w, err := loadWorldFromFile(path)
	if err != nil {
		return err
	}
	worldID := popsim.WorldID(id)
	if worldID == "" {
		worldID = popsim.WorldID(cfg.Name)
	}
	if worldID == "" {
		worldID = "default"
	}
	s.putWorld(worldID, w)

	if s.snapshotDir != "" {
		switch err := w.LoadSnapshot(); {
		case err == nil:
			s.logger.Infof("Restored snapshot: world_id=%s step=%d", worldID, w.StepCount())
		case errors.Is(err, os.ErrNotExist):
			// first run
		default:
			s.logger.Warnf("Ignoring snapshot: world_id=%s error=%v", worldID, err)
		}
	}
	s.logger.Infof("Initial world loaded: world_id=%s name=%s seed=%d", worldID, cfg.Name, w.Seed())
	return nil
}
