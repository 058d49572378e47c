// Package embedding decorates the embedding provider with the concurrency
// gate, per-call timeout, and throttling retries the search path depends on.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/openhaus/propsearch/internal/domain"
	"github.com/openhaus/propsearch/internal/metrics"
)

// Gate bounds in-flight embedding calls and retries throttled ones with
// exponential backoff. It implements domain.Embedder.
type Gate struct {
	inner     domain.Embedder
	sem       *semaphore.Weighted
	model     string
	timeout   time.Duration
	retryMax  int
	retryBase time.Duration
	logger    *zap.Logger
}

// Options configure the gate.
type Options struct {
	Model       string
	MaxInFlight int64
	Timeout     time.Duration
	RetryMax    int
	RetryBase   time.Duration
}

// NewGate wraps an embedder with admission control and retries.
func NewGate(inner domain.Embedder, opts Options, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxInFlight <= 0 {
		opts.MaxInFlight = 1
	}
	return &Gate{
		inner:     inner,
		sem:       semaphore.NewWeighted(opts.MaxInFlight),
		model:     opts.Model,
		timeout:   opts.Timeout,
		retryMax:  opts.RetryMax,
		retryBase: opts.RetryBase,
		logger:    logger,
	}
}

// Embed acquires an in-flight slot, then calls the provider under the
// configured timeout. ErrRateLimited responses are retried with exponential
// backoff up to the retry cap; other failures return immediately.
func (g *Gate) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("acquire embedding slot: %w", err)
	}
	defer g.sem.Release(1)

	var lastErr error
	for attempt := 0; attempt <= g.retryMax; attempt++ {
		if attempt > 0 {
			backoff := g.retryBase << (attempt - 1)
			metrics.EmbeddingRetriesTotal.WithLabelValues(g.model).Inc()
			g.logger.Debug("embedding throttled, backing off",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
			)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return domain.EmbeddingResult{}, ctx.Err()
			}
		}

		result, err := g.call(ctx, text)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !errors.Is(err, domain.ErrRateLimited) {
			return domain.EmbeddingResult{}, err
		}
	}

	return domain.EmbeddingResult{}, fmt.Errorf("embedding retries exhausted: %w", lastErr)
}

func (g *Gate) call(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	cctx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := g.inner.Embed(cctx, text)
	metrics.EmbeddingRequestDuration.WithLabelValues(g.model).Observe(time.Since(start).Seconds())

	status := "ok"
	if err != nil {
		status = "error"
		if errors.Is(err, domain.ErrRateLimited) {
			status = "throttled"
		}
	}
	metrics.EmbeddingRequestsTotal.WithLabelValues(g.model, status).Inc()
	if err == nil {
		metrics.EmbeddingTokensTotal.WithLabelValues(g.model, "prompt").Add(float64(result.PromptTokens))
		metrics.EmbeddingTokensTotal.WithLabelValues(g.model, "total").Add(float64(result.TotalTokens))
	}
	return result, err
}
