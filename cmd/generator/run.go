package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/asesor-publico/noticias/internal/adapter/filestore"
	"github.com/asesor-publico/noticias/internal/adapter/gemini"
	kafkaadapter "github.com/asesor-publico/noticias/internal/adapter/kafka"
	s3adapter "github.com/asesor-publico/noticias/internal/adapter/s3"
	"github.com/asesor-publico/noticias/internal/adapter/sqlite"
	"github.com/asesor-publico/noticias/internal/config"
	"github.com/asesor-publico/noticias/internal/domain"
	"github.com/asesor-publico/noticias/internal/observability"
	"github.com/asesor-publico/noticias/internal/pipeline"
)

func listLocalities(w io.Writer) error {
	catalog, err := domain.DefaultCatalog()
	if err != nil {
		return err
	}
	for _, id := range catalog.IDs() {
		loc, err := catalog.Lookup(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%-16s %s\n", loc.ID, loc.FullName())
	}
	return nil
}

func loadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, &domain.ConfigurationError{Setting: ".env", Reason: err.Error()}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, &domain.ConfigurationError{Setting: "environment", Reason: err.Error()}
	}
	return cfg, nil
}

func generate(ctx context.Context, localityID string, stdout io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg)

	catalog, err := domain.DefaultCatalog()
	if err != nil {
		return err
	}
	// Reject unknown ids before touching credentials or the network.
	if _, err := catalog.Lookup(localityID); err != nil {
		return err
	}
	if err := cfg.RequireCredentials(); err != nil {
		return err
	}

	metrics := observability.NewMetrics()

	client, err := gemini.NewClient(ctx, cfg, metrics, logger)
	if err != nil {
		return &domain.ConfigurationError{Setting: "GEMINI_API_KEY", Reason: err.Error()}
	}

	store := filestore.New(cfg.OutputDir)
	var secondary []pipeline.Sink
	if cfg.RemoteStoreEnabled() {
		secondary = append(secondary, s3adapter.New(cfg, logger))
		logger.Info("remote store enabled", "bucket", cfg.RemoteStoreBucket)
	}
	if cfg.KafkaEnabled() {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		secondary = append(secondary, writer)
		logger.Info("report announcements enabled", "topic", cfg.KafkaTopic)
	}

	opts := []pipeline.Option{pipeline.WithMaxRetries(cfg.MaxRetries)}
	if summaries := openSummaryStore(cfg, logger); summaries != nil {
		defer summaries.Close() //nolint:errcheck // read-mostly store
		opts = append(opts, pipeline.WithSummaryStore(summaries))
	}

	runner, err := pipeline.New(
		catalog,
		client,
		pipeline.NewPublisher(store, logger, metrics, secondary...),
		domain.NewCivilClock(nil, cfg.Location),
		logger,
		metrics,
		opts...,
	)
	if err != nil {
		return err
	}

	res, runErr := runner.Run(ctx, localityID)
	pushMetrics(ctx, cfg, metrics, localityID, logger)
	if runErr != nil {
		return runErr
	}

	fmt.Fprintf(stdout, "%s\n", store.Path(localityID))
	for _, w := range res.Warnings {
		fmt.Fprintf(stdout, "warning: %v\n", w)
	}
	for _, name := range res.DroppedCategories {
		fmt.Fprintf(stdout, "warning: dropped category %q\n", name)
	}
	return nil
}

// openSummaryStore returns nil when the store is disabled or unavailable;
// the report is then generated without a previous-day analysis.
func openSummaryStore(cfg *config.Config, logger *slog.Logger) *sqlite.SummaryStore {
	if cfg.StateDBPath == "" {
		return nil
	}
	s, err := sqlite.Open(cfg.StateDBPath)
	if err != nil {
		logger.Warn("summary store unavailable", "path", cfg.StateDBPath, "error", err)
		return nil
	}
	return s
}

func pushMetrics(ctx context.Context, cfg *config.Config, metrics *observability.Metrics, localityID string, logger *slog.Logger) {
	if cfg.PushgatewayURL == "" {
		return
	}
	if err := metrics.Push(ctx, cfg.PushgatewayURL, localityID); err != nil {
		logger.Warn("metrics push failed", "error", err)
	}
}
