// Package gemini implements the report client on top of the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"google.golang.org/genai"

	"github.com/asesor-publico/noticias/internal/config"
	"github.com/asesor-publico/noticias/internal/domain"
	"github.com/asesor-publico/noticias/internal/observability"
)

const defaultTemperature = 0.7

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client sends a compiled prompt to the Gemini API and returns the raw text
// of the first candidate. It implements pipeline.ReportClient.
type Client struct {
	models  contentGenerator
	model   string
	timeout time.Duration
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewClient creates a Gemini client from configuration. The API key must
// already have been checked with config.RequireCredentials.
func NewClient(ctx context.Context, cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) (*Client, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.GeminiBaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.GeminiBaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Client{
		models:  client.Models,
		model:   cfg.GeminiModel,
		timeout: cfg.RequestTimeout,
		metrics: metrics,
		logger:  logger,
	}, nil
}

// Generate performs one request bounded by the configured timeout.
// Every failure is a *domain.UpstreamError.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.models.GenerateContent(attemptCtx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](defaultTemperature),
		ResponseMIMEType: "application/json",
	})
	elapsed := time.Since(start)
	c.metrics.UpstreamDuration.Observe(elapsed.Seconds())

	if err != nil {
		uerr := classify(ctx, err)
		c.recordAttempt(uerr)
		c.logger.Warn("gemini request failed",
			"model", c.model,
			"op", uerr.Op,
			"transient", uerr.Transient,
			"duration", elapsed,
			"error", err,
		)
		return "", uerr
	}

	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		uerr := &domain.UpstreamError{
			Op:  "blocked",
			Err: fmt.Errorf("prompt blocked: %s", fb.BlockReason),
		}
		c.recordAttempt(uerr)
		return "", uerr
	}

	c.recordAttempt(nil)
	c.logger.Debug("gemini response received", "model", c.model, "duration", elapsed)
	return resp.Text(), nil
}

func (c *Client) recordAttempt(uerr *domain.UpstreamError) {
	result := "success"
	switch {
	case uerr == nil:
	case uerr.Transient:
		result = "transient"
	default:
		result = "permanent"
	}
	c.metrics.UpstreamAttempts.WithLabelValues(result).Inc()
}

// classify maps an SDK error onto the upstream taxonomy. Only network
// failures, per-attempt timeouts and 5xx responses are transient.
func classify(parent context.Context, err error) *domain.UpstreamError {
	if parent.Err() != nil {
		return &domain.UpstreamError{Op: "cancelled", Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.UpstreamError{Op: "timeout", Transient: true, Err: err}
	}
	if code, ok := statusCode(err); ok {
		switch {
		case code == http.StatusUnauthorized || code == http.StatusForbidden:
			return &domain.UpstreamError{Op: "auth", Err: err}
		case code == http.StatusTooManyRequests:
			return &domain.UpstreamError{Op: "quota", Err: err}
		case code >= http.StatusInternalServerError:
			return &domain.UpstreamError{Op: "request", Transient: true, Err: err}
		default:
			return &domain.UpstreamError{Op: "request", Err: err}
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &domain.UpstreamError{Op: "transport", Transient: true, Err: err}
	}
	return &domain.UpstreamError{Op: "request", Err: err}
}

func statusCode(err error) (int, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, true
	}
	return 0, false
}
