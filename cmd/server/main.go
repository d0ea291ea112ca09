// Command server serves the published noticias_<id>.json artifacts and the
// static frontend in STATIC_DIR, plus health, readiness and metrics
// endpoints. Only artifact names are read from OUTPUT_DIR.
//
// /metrics carries the server's own request counters and Go runtime
// metrics. Generation metrics come from the generator runs, which push
// them to PUSHGATEWAY_URL.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/asesor-publico/noticias/internal/adapter/filestore"
	httpadapter "github.com/asesor-publico/noticias/internal/adapter/http"
	"github.com/asesor-publico/noticias/internal/config"
	"github.com/asesor-publico/noticias/internal/domain"
	"github.com/asesor-publico/noticias/internal/observability"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)

	catalog, err := domain.DefaultCatalog()
	if err != nil {
		logger.Error("failed to load locality catalog", "error", err)
		os.Exit(1)
	}

	metrics := observability.NewMetrics()
	store := filestore.New(cfg.OutputDir)
	srv := httpadapter.NewServer(cfg.HTTPAddr, store, catalog, store, cfg.StaticDir, metrics.Gatherer(), metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	logger.Info("serving reports", "output_dir", cfg.OutputDir, "static_dir", cfg.StaticDir, "localities", len(catalog.IDs()))

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
