// Package expand implements multi-query search: the query is rewritten into
// focused sub-queries, each runs the full retrieval pipeline, and the
// per-sub-query rankings are merged with a second rank fusion pass.
package expand

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/openhaus/propsearch/internal/domain/candidate"
	"github.com/openhaus/propsearch/internal/domain/fused"
	"github.com/openhaus/propsearch/internal/domain/strategy"
	"github.com/openhaus/propsearch/internal/usecase/fuse"
)

// RunSingle executes one complete retrieve-and-fuse pass for a query text.
type RunSingle func(ctx context.Context, text string) ([]fused.Result, error)

// Service coordinates query expansion and the outer fusion pass.
type Service struct {
	expander    Expander // nil disables expansion
	fuser       *fuse.Engine
	maxQueries  int
	concurrency int
	logger      *zap.Logger
}

// New creates the expansion service. expander may be nil.
func New(expander Expander, fuser *fuse.Engine, maxQueries, concurrency int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{
		expander:    expander,
		fuser:       fuser,
		maxQueries:  maxQueries,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Run executes the multi-query pipeline for text. The original query is
// always sub-query zero, so expansion can only add recall, never lose the
// user's own phrasing. Returns ok=false when expansion is unavailable or adds
// nothing; the caller then runs the single-query path.
func (s *Service) Run(ctx context.Context, text string, runSingle RunSingle) ([]fused.Result, bool) {
	if s.expander == nil || s.maxQueries < 2 {
		return nil, false
	}

	rewrites, err := s.expander.Expand(ctx, text, s.maxQueries-1)
	if err != nil {
		s.logger.Warn("query expansion failed, using single query", zap.Error(err))
		return nil, false
	}

	queries := dedupeQueries(text, rewrites, s.maxQueries)
	if len(queries) < 2 {
		return nil, false
	}

	perQuery := make([][]fused.Result, len(queries))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			results, err := runSingle(gctx, q)
			if err != nil {
				s.logger.Warn("sub-query failed",
					zap.Int("sub_query", i),
					zap.Error(err),
				)
				return nil
			}
			mu.Lock()
			perQuery[i] = results
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, false
	}

	// Require the original query's pass to have survived; otherwise the
	// single-query path reports the failure properly.
	if perQuery[0] == nil {
		return nil, false
	}

	set := candidate.NewSet()
	for i, results := range perQuery {
		if results == nil {
			continue
		}
		// Ranks follow the sub-query's boosted ordering; the boosted score
		// rides along as the strategy-local raw score.
		list := make([]candidate.Candidate, 0, len(results))
		for rank, r := range results {
			list = append(list, candidate.New(r.ID(), r.BoostedScore(), rank+1, r.Listing()))
		}
		set.Add(strategy.SubQuery(i), list)
	}

	merged := s.fuser.Fuse(set, nil)
	s.logger.Debug("multi-query fusion complete",
		zap.Int("sub_queries", len(queries)),
		zap.Int("candidates", len(merged)),
	)
	return merged, true
}

// dedupeQueries builds the final sub-query list: the original first, then
// non-empty rewrites that differ from what is already present, capped at max.
func dedupeQueries(original string, rewrites []string, max int) []string {
	queries := []string{original}
	seen := map[string]struct{}{normalizeQuery(original): {}}
	for _, r := range rewrites {
		if len(queries) >= max {
			break
		}
		n := normalizeQuery(r)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		queries = append(queries, strings.TrimSpace(r))
	}
	return queries
}

func normalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}
