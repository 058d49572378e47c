// Package search orchestrates the full retrieval pipeline: constraint
// extraction, planning, embedding, concurrent retrieval, rank fusion, tag
// boosting, and quality scoring. Collaborator failures degrade the search
// where possible; only input errors and total retrieval failure are fatal.
package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/openhaus/propsearch/internal/domain"
	"github.com/openhaus/propsearch/internal/domain/constraint"
	"github.com/openhaus/propsearch/internal/domain/fused"
	"github.com/openhaus/propsearch/internal/domain/query"
	"github.com/openhaus/propsearch/internal/metrics"
	"github.com/openhaus/propsearch/internal/usecase/boost"
	"github.com/openhaus/propsearch/internal/usecase/expand"
	"github.com/openhaus/propsearch/internal/usecase/fuse"
	"github.com/openhaus/propsearch/internal/usecase/plan"
	"github.com/openhaus/propsearch/internal/usecase/quality"
	"github.com/openhaus/propsearch/internal/usecase/retrieve"
)

// extractor turns query text into structured constraints.
type extractor interface {
	Extract(ctx context.Context, text string) constraint.Constraints
}

// Service is the search orchestrator.
type Service struct {
	extractor extractor
	planner   *plan.Planner
	embedder  domain.Embedder // nil disables the vector strategies
	executor  *retrieve.Executor
	fuser     *fuse.Engine
	booster   *boost.Engine
	scorer    *quality.Scorer
	expander  *expand.Service
	deadline  time.Duration
	log       *zap.Logger
}

// New wires the search orchestrator. embedder may be nil, in which case only
// the lexical strategy runs.
func New(
	ex extractor,
	planner *plan.Planner,
	embedder domain.Embedder,
	executor *retrieve.Executor,
	fuser *fuse.Engine,
	booster *boost.Engine,
	scorer *quality.Scorer,
	expander *expand.Service,
	deadline time.Duration,
	log *zap.Logger,
) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		extractor: ex,
		planner:   planner,
		embedder:  embedder,
		executor:  executor,
		fuser:     fuser,
		booster:   booster,
		scorer:    scorer,
		expander:  expander,
		deadline:  deadline,
		log:       log,
	}
}

// Search runs the pipeline for q. Zero matches is a successful response with
// an empty result list; an error means the search itself could not run.
func (s *Service) Search(ctx context.Context, q query.Query) (Response, error) {
	if s.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.deadline)
		defer cancel()
	}
	log := s.log

	resp := Response{State: StateReceived}
	mode := "single"
	if q.MultiQuery() {
		mode = "multi"
	}

	cons := s.extractor.Extract(ctx, q.Text())
	resp.Constraints = cons
	resp.State = StateConstraintsExtracted

	p, err := s.planner.Build(q, cons)
	if err != nil {
		resp.State = StateFailed
		metrics.SearchRequestsTotal.WithLabelValues(mode, "failed").Inc()
		return resp, fmt.Errorf("%w: %v", domain.ErrInvalidQuery, err)
	}

	var results []fused.Result
	multiQueryUsed := false

	if q.MultiQuery() && s.expander != nil {
		// Each sub-query runs the complete single-query pipeline, extraction
		// through boost, so the outer fusion pass merges finished rankings.
		runSingle := func(sctx context.Context, text string) ([]fused.Result, error) {
			subCons := s.extractor.Extract(sctx, text)
			subPlan, err := s.planner.Build(q, subCons)
			if err != nil {
				return nil, err
			}
			subResults, err := s.runPipeline(sctx, subPlan, text, nil)
			if err != nil {
				return nil, err
			}
			return s.booster.Apply(subResults, subCons), nil
		}
		if merged, ok := s.expander.Run(ctx, q.Text(), runSingle); ok {
			results = merged
			multiQueryUsed = true
			resp.State = StateExpanded
		}
	}

	if !multiQueryUsed {
		results, err = s.runPipeline(ctx, p, q.Text(), &resp)
		if err != nil {
			resp.State = StateFailed
			metrics.SearchRequestsTotal.WithLabelValues(mode, "failed").Inc()
			return resp, err
		}
	}
	resp.State = StateFused

	var boosted []fused.Result
	if multiQueryUsed {
		// Tags already shaped every sub-query ranking; re-boosting the
		// merged scores would count them twice. Only the match ratios are
		// stamped on for quality scoring and the response.
		boosted = s.booster.Annotate(results, cons)
	} else {
		boosted = s.booster.Apply(results, cons)
	}
	resp.State = StateBoosted
	resp.Total = len(boosted)
	resp.Results = fuse.Top(boosted, q.Size())

	resp.Quality = s.scorer.Score(resp.Results)
	resp.State = StateScored

	resp.MultiQuery = multiQueryUsed
	resp.State = StateReturned

	status := "ok"
	if len(resp.Warnings) > 0 {
		status = "degraded"
	}
	metrics.SearchRequestsTotal.WithLabelValues(mode, status).Inc()
	log.Info("search complete",
		zap.String("mode", mode),
		zap.String("status", status),
		zap.Int("total", resp.Total),
		zap.Int("returned", len(resp.Results)),
		zap.Float64("avg_match_ratio", resp.Quality.AvgMatchRatio),
	)
	return resp, nil
}

// runPipeline embeds text, retrieves candidates under the plan, and fuses
// them. When resp is non-nil, degradations are recorded on it as warnings;
// sub-query passes run with resp nil and surface errors to the outer fusion
// instead.
func (s *Service) runPipeline(ctx context.Context, p plan.Plan, text string, resp *Response) ([]fused.Result, error) {
	exec := p
	exec.LexicalQuery = text
	exec.QueryVector = nil

	if s.embedder != nil {
		result, err := s.embedder.Embed(ctx, text)
		if err != nil {
			if resp == nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingProviderError, err)
			}
			// Vector strategies are unavailable; continue lexical-only.
			s.log.Warn("embedding failed, degrading to lexical retrieval", zap.Error(err))
			resp.Warnings = append(resp.Warnings, Issue{
				Stage:   "embedding",
				Message: err.Error(),
			})
		} else {
			exec.QueryVector = result.Embedding
		}
	}

	set, err := s.executor.Execute(ctx, exec)
	if err != nil {
		return nil, err
	}
	if resp != nil {
		resp.State = StateRetrieved
		for _, st := range set.FailedStrategies() {
			resp.Warnings = append(resp.Warnings, Issue{
				Stage:    "retrieval",
				Strategy: string(st),
				Message:  set.Failures()[st].Error(),
			})
		}
	}
	if set.AllFailed() {
		return nil, fmt.Errorf("%w: %d strategies failed", domain.ErrAllStrategiesFailed, len(set.Failures()))
	}

	return s.fuser.Fuse(set, p.K), nil
}
