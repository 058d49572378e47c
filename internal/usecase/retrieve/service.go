// Package retrieve executes the retrieval strategies of a plan concurrently
// and collects their ranked candidate lists. A strategy failure degrades the
// search instead of aborting it; only total failure surfaces as an error.
package retrieve

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/openhaus/propsearch/internal/domain"
	"github.com/openhaus/propsearch/internal/domain/candidate"
	"github.com/openhaus/propsearch/internal/domain/strategy"
	"github.com/openhaus/propsearch/internal/metrics"
	"github.com/openhaus/propsearch/internal/usecase/plan"
)

// Executor runs retrieval strategies against the document store.
type Executor struct {
	store           Store
	strategyTimeout time.Duration
	logger          *zap.Logger
}

// New creates a retrieval executor.
func New(store Store, strategyTimeout time.Duration, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{store: store, strategyTimeout: strategyTimeout, logger: logger}
}

// Execute runs all applicable strategies in parallel and returns their
// candidate lists. The vector strategies are skipped when the plan carries no
// query vector. Per-strategy failures are recorded in the set, never
// propagated; the returned error is reserved for context cancellation.
func (e *Executor) Execute(ctx context.Context, p plan.Plan) (*candidate.Set, error) {
	set := candidate.NewSet()
	var mu sync.Mutex

	strategies := []strategy.Strategy{strategy.Lexical}
	if p.QueryVector != nil {
		strategies = append(strategies, strategy.TextKNN, strategy.ImageKNN)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, st := range strategies {
		st := st
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(gctx, e.strategyTimeout)
			defer cancel()

			start := time.Now()
			candidates, err := e.run(sctx, st, p)
			elapsed := time.Since(start)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				metrics.StrategyDuration.WithLabelValues(string(st), "error").Observe(elapsed.Seconds())
				e.logger.Warn("retrieval strategy failed",
					zap.String("strategy", string(st)),
					zap.Duration("elapsed", elapsed),
					zap.Error(err),
				)
				set.Fail(st, domain.NewStrategyError(string(st), err))
				return nil
			}
			metrics.StrategyDuration.WithLabelValues(string(st), "ok").Observe(elapsed.Seconds())
			set.Add(st, candidates)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// Strategies that beat an expired deadline still count; the ones cut off
	// are already recorded as failures. Only a fully empty outcome surfaces
	// the cancellation itself.
	if err := ctx.Err(); err != nil && len(set.Strategies()) == 0 {
		return nil, err
	}
	return set, nil
}

func (e *Executor) run(ctx context.Context, st strategy.Strategy, p plan.Plan) ([]candidate.Candidate, error) {
	k := p.K[st]
	if k <= 0 {
		k = plan.MinK
	}
	switch st {
	case strategy.TextKNN:
		return e.store.SearchTextKNN(ctx, p.Collection, p.QueryVector, p.Filters, k)
	case strategy.ImageKNN:
		return e.store.SearchImageKNN(ctx, p.Collection, p.QueryVector, p.Filters, k)
	default:
		return e.store.SearchLexical(ctx, p.Collection, p.LexicalQuery, p.Filters, k)
	}
}
