package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/asesor-publico/noticias/internal/domain"
	"github.com/asesor-publico/noticias/internal/observability"
)

// LocalityStore resolves a locality id to its verified context.
type LocalityStore interface {
	Lookup(id string) (domain.LocalityContext, error)
}

// ReportClient sends a compiled prompt to the text-generation service.
type ReportClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// SummaryStore keeps the previous-day analysis carried into the next prompt.
type SummaryStore interface {
	Previous(ctx context.Context, localityID, dateKey string) (string, error)
	Save(ctx context.Context, localityID, dateKey, summary string) error
}

// Result describes a successful run.
type Result struct {
	Locality domain.LocalityContext
	Record   domain.ReportRecord
	DateKey  string
	// Warnings holds the failures of best-effort sinks.
	Warnings []error
	// DroppedCategories lists upstream categories left out of the record.
	DroppedCategories []string
}

// Option configures a Runner.
type Option func(*Runner)

// WithSummaryStore enables the previous-day analysis.
func WithSummaryStore(s SummaryStore) Option {
	return func(r *Runner) { r.summaries = s }
}

// WithMaxRetries bounds the retries of transient upstream failures.
func WithMaxRetries(n int) Option {
	return func(r *Runner) { r.maxRetries = n }
}

// WithBackOff replaces the delay policy between upstream attempts.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(r *Runner) { r.newBackOff = newBackOff }
}

// Runner generates, validates and publishes the report of one locality.
// It holds no per-run state, so sequential runs are isolated.
type Runner struct {
	localities LocalityStore
	client     ReportClient
	publisher  *Publisher
	summaries  SummaryStore
	clock      *domain.CivilClock
	compiler   *domain.PromptCompiler
	normalizer *domain.Normalizer
	maxRetries int
	newBackOff func() backoff.BackOff
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// New creates a Runner. Prompt dates and record timestamps use the civil
// timezone of clock.
func New(localities LocalityStore, client ReportClient, publisher *Publisher, clock *domain.CivilClock, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) (*Runner, error) {
	normalizer, err := domain.NewNormalizer(clock.Location())
	if err != nil {
		return nil, err
	}

	r := &Runner{
		localities: localities,
		client:     client,
		publisher:  publisher,
		clock:      clock,
		compiler:   domain.NewPromptCompiler(clock.Location()),
		normalizer: normalizer,
		maxRetries: 2,
		newBackOff: defaultBackOff,
		logger:     logger,
		metrics:    metrics,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Exponential backoff: start at 1s, cap at 10s. The number of attempts is
// bounded by maxRetries, not by elapsed time.
func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 0
	return b
}

// Run produces today's report for the locality. Nothing is published
// unless the upstream response passes validation.
func (r *Runner) Run(ctx context.Context, localityID string) (Result, error) {
	res, err := r.run(ctx, localityID)
	r.metrics.RunsTotal.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		r.logFailure(localityID, err)
		return Result{}, err
	}
	r.metrics.LastSuccess.Set(float64(r.clock.Now().Unix()))
	return res, nil
}

func (r *Runner) run(ctx context.Context, localityID string) (Result, error) {
	loc, err := r.localities.Lookup(localityID)
	if err != nil {
		return Result{}, err
	}

	now := r.clock.Now()
	dateKey := domain.DateKey(now, r.clock.Location())
	logger := r.logger.With("locality", loc.ID, "date", dateKey)

	previous := r.loadPrevious(ctx, logger, loc.ID, dateKey)
	prompt := r.compiler.Compile(domain.ReportRequest{
		Context:            loc,
		PreviousDaySummary: previous,
		GeneratedAt:        now,
	})
	logger.Debug("prompt compiled", "bytes", len(prompt), "has_previous", previous != "")

	raw, err := r.generate(ctx, logger, prompt)
	if err != nil {
		return Result{}, err
	}

	record, dropped, err := r.normalizer.Normalize(raw, r.clock.Now())
	if err != nil {
		return Result{}, err
	}
	if len(dropped) > 0 {
		logger.Warn("upstream categories dropped", "categories", dropped)
	}

	warnings, err := r.publisher.Publish(ctx, loc, record, dateKey)
	if err != nil {
		return Result{}, err
	}

	r.saveSummary(ctx, logger, loc.ID, dateKey, record.Summary())

	logger.Info("report published",
		"title", record.Title,
		"last_updated", record.LastUpdated,
		"warnings", len(warnings),
	)
	return Result{
		Locality:          loc,
		Record:            record,
		DateKey:           dateKey,
		Warnings:          warnings,
		DroppedCategories: dropped,
	}, nil
}

// generate calls the client, retrying only transient upstream failures.
func (r *Runner) generate(ctx context.Context, logger *slog.Logger, prompt string) (string, error) {
	var raw string
	attempt := 0

	op := func() error {
		attempt++
		text, err := r.client.Generate(ctx, prompt)
		if err != nil {
			var uerr *domain.UpstreamError
			if errors.As(err, &uerr) && uerr.Transient && attempt <= r.maxRetries {
				logger.Warn("transient upstream failure, retrying", "attempt", attempt, "error", err)
				return err
			}
			return backoff.Permanent(err)
		}
		raw = text
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(r.newBackOff(), uint64(r.maxRetries)), ctx)
	if err := backoff.Retry(op, b); err != nil {
		var uerr *domain.UpstreamError
		if errors.As(err, &uerr) {
			return "", err
		}
		if ctx.Err() != nil {
			return "", &domain.UpstreamError{Op: "cancelled", Err: err}
		}
		return "", &domain.UpstreamError{Op: "request", Err: err}
	}
	return raw, nil
}

func (r *Runner) loadPrevious(ctx context.Context, logger *slog.Logger, localityID, dateKey string) string {
	if r.summaries == nil {
		return ""
	}
	s, err := r.summaries.Previous(ctx, localityID, dateKey)
	if err != nil {
		logger.Warn("previous summary unavailable", "error", err)
		return ""
	}
	return s
}

func (r *Runner) saveSummary(ctx context.Context, logger *slog.Logger, localityID, dateKey, summary string) {
	if r.summaries == nil || summary == "" {
		return
	}
	if err := r.summaries.Save(ctx, localityID, dateKey, summary); err != nil {
		logger.Warn("save summary failed", "error", err)
	}
}

func (r *Runner) logFailure(localityID string, err error) {
	attrs := []any{"locality", localityID, "outcome", outcome(err), "error", err}

	var malformed *domain.MalformedResponseError
	if errors.As(err, &malformed) {
		attrs = append(attrs, "reason", malformed.Reason, "excerpt", malformed.Excerpt)
	}
	var pubErr *domain.PublishError
	if errors.As(err, &pubErr) {
		attrs = append(attrs, "sink", pubErr.Sink)
	}
	r.logger.Error("report generation failed", attrs...)
}

// outcome maps a run error onto the runs_total label.
func outcome(err error) string {
	var (
		unknown   *domain.UnknownLocalityError
		upstream  *domain.UpstreamError
		malformed *domain.MalformedResponseError
		publish   *domain.PublishError
		cfgErr    *domain.ConfigurationError
	)
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &cfgErr):
		return "config_error"
	case errors.As(err, &unknown):
		return "unknown_locality"
	case errors.As(err, &upstream):
		return "upstream_error"
	case errors.As(err, &malformed):
		return "malformed_response"
	case errors.As(err, &publish):
		return "publish_error"
	default:
		return "error"
	}
}
