// Package fuse merges per-strategy ranked candidate lists into a single
// ordering with reciprocal rank fusion. Only ranks feed the fused score; raw
// strategy scores are kept for diagnostics but never compared across
// strategies.
package fuse

import (
	"go.uber.org/zap"

	"github.com/openhaus/propsearch/internal/domain/candidate"
	"github.com/openhaus/propsearch/internal/domain/fused"
	"github.com/openhaus/propsearch/internal/domain/strategy"
	"github.com/openhaus/propsearch/internal/metrics"
)

// DefaultK is the RRF constant used when no per-strategy depth is supplied.
const DefaultK = 60

// Engine performs reciprocal rank fusion.
type Engine struct {
	logger *zap.Logger
}

// New creates a fusion engine.
func New(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// Fuse merges the candidate set into one list ordered by fused score
// descending, ties broken by document identifier ascending. ks supplies the
// per-strategy RRF constant; strategies without an entry use DefaultK. Failed
// strategies simply contribute nothing. Output is byte-identical for
// identical input.
func (e *Engine) Fuse(set *candidate.Set, ks map[strategy.Strategy]int) []fused.Result {
	type accum struct {
		score     float64
		breakdown map[strategy.Strategy]fused.Contribution
		candidate candidate.Candidate
	}
	acc := make(map[string]*accum)

	for _, st := range set.Strategies() {
		k := DefaultK
		if v, ok := ks[st]; ok && v > 0 {
			k = v
		}
		for _, c := range set.List(st) {
			contrib := 1.0 / float64(k+c.Rank())
			a, ok := acc[c.ID()]
			if !ok {
				a = &accum{
					breakdown: make(map[strategy.Strategy]fused.Contribution, 3),
					candidate: c,
				}
				acc[c.ID()] = a
			}
			a.score += contrib
			a.breakdown[st] = fused.NewContribution(c.Rank(), c.RawScore(), contrib)
		}
	}

	results := make([]fused.Result, 0, len(acc))
	for id, a := range acc {
		results = append(results, fused.New(id, a.score, a.breakdown, a.candidate.Listing()))
	}
	fused.SortStable(results, (*fused.Result).Score)

	metrics.FusionCandidates.Observe(float64(len(results)))
	e.logger.Debug("fusion complete",
		zap.Int("strategies", len(set.Strategies())),
		zap.Int("candidates", len(results)),
	)

	return results
}

// Top truncates results to at most n entries.
func Top(results []fused.Result, n int) []fused.Result {
	if n < 0 || n >= len(results) {
		return results
	}
	return results[:n]
}
