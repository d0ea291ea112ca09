package pipeline

import (
	"context"
	"log/slog"

	"github.com/asesor-publico/noticias/internal/domain"
	"github.com/asesor-publico/noticias/internal/observability"
)

// Sink delivers a validated record to one destination.
type Sink interface {
	Name() string
	Publish(ctx context.Context, loc domain.LocalityContext, record domain.ReportRecord, dateKey string) error
}

// Publisher writes the primary artifact and then fans the record out to
// optional secondary sinks.
type Publisher struct {
	primary   Sink
	secondary []Sink
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewPublisher creates a Publisher. A primary failure aborts the run;
// secondary failures are reported as warnings.
func NewPublisher(primary Sink, logger *slog.Logger, metrics *observability.Metrics, secondary ...Sink) *Publisher {
	return &Publisher{
		primary:   primary,
		secondary: secondary,
		logger:    logger,
		metrics:   metrics,
	}
}

// Publish delivers the record for the civil day dateKey. It returns the
// secondary sink failures, each a *domain.PublishError, and a non-nil error
// only when the primary artifact could not be written. Secondary sinks are
// not attempted in that case.
func (p *Publisher) Publish(ctx context.Context, loc domain.LocalityContext, record domain.ReportRecord, dateKey string) ([]error, error) {
	if err := p.primary.Publish(ctx, loc, record, dateKey); err != nil {
		p.metrics.PublishFailures.WithLabelValues(p.primary.Name()).Inc()
		return nil, &domain.PublishError{Sink: p.primary.Name(), Err: err}
	}

	var warnings []error
	for _, sink := range p.secondary {
		if err := sink.Publish(ctx, loc, record, dateKey); err != nil {
			p.metrics.PublishFailures.WithLabelValues(sink.Name()).Inc()
			p.logger.Warn("secondary publish failed",
				"locality", loc.ID,
				"sink", sink.Name(),
				"error", err,
			)
			warnings = append(warnings, &domain.PublishError{Sink: sink.Name(), Err: err})
		}
	}
	return warnings, nil
}
