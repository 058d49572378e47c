package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/openhaus/propsearch/internal/domain"
	"github.com/openhaus/propsearch/internal/domain/candidate"
	"github.com/openhaus/propsearch/internal/domain/constraint"
	"github.com/openhaus/propsearch/internal/domain/filter"
	"github.com/openhaus/propsearch/internal/domain/listing"
	"github.com/openhaus/propsearch/internal/domain/query"
	"github.com/openhaus/propsearch/internal/domain/strategy"
	"github.com/openhaus/propsearch/internal/usecase/boost"
	"github.com/openhaus/propsearch/internal/usecase/expand"
	"github.com/openhaus/propsearch/internal/usecase/fuse"
	"github.com/openhaus/propsearch/internal/usecase/plan"
	"github.com/openhaus/propsearch/internal/usecase/quality"
	"github.com/openhaus/propsearch/internal/usecase/retrieve"
)

type staticExtractor struct {
	cons constraint.Constraints
}

func (s *staticExtractor) Extract(_ context.Context, _ string) constraint.Constraints {
	return s.cons
}

type stubStore struct {
	lexical    []candidate.Candidate
	lexicalErr error
	textKNN    []candidate.Candidate
	textErr    error
	imageKNN   []candidate.Candidate
	imageErr   error
}

func (m *stubStore) SearchLexical(_ context.Context, _, _ string, _ filter.Expression, _ int) ([]candidate.Candidate, error) {
	return m.lexical, m.lexicalErr
}

func (m *stubStore) SearchTextKNN(_ context.Context, _ string, _ []float32, _ filter.Expression, _ int) ([]candidate.Candidate, error) {
	return m.textKNN, m.textErr
}

func (m *stubStore) SearchImageKNN(_ context.Context, _ string, _ []float32, _ filter.Expression, _ int) ([]candidate.Candidate, error) {
	return m.imageKNN, m.imageErr
}

type stubEmbedder struct {
	err error
}

func (s *stubEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if s.err != nil {
		return domain.EmbeddingResult{}, s.err
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}}, nil
}

type stubExpander struct {
	rewrites []string
	err      error
}

func (s *stubExpander) Expand(_ context.Context, _ string, _ int) ([]string, error) {
	return s.rewrites, s.err
}

func cands(tags map[string][]string, ids ...string) []candidate.Candidate {
	out := make([]candidate.Candidate, 0, len(ids))
	for i, id := range ids {
		l := listing.New(id, "", "", nil, nil, nil, 0, tags[id])
		out = append(out, candidate.New(id, 1.0/float64(i+1), i+1, l))
	}
	return out
}

func newService(store retrieve.Store, embedder domain.Embedder, exp expand.Expander, cons constraint.Constraints) *Service {
	fuser := fuse.New(nil)
	var expander *expand.Service
	if exp != nil {
		expander = expand.New(exp, fuser, 4, 2, nil)
	}
	return New(
		&staticExtractor{cons: cons},
		plan.New(nil),
		embedder,
		retrieve.New(store, time.Second, nil),
		fuser,
		boost.New(1.6, 0.5, 0.15, nil),
		quality.New(),
		expander,
		time.Second,
		nil,
	)
}

func mustQuery(t *testing.T, size int, multi bool) query.Query {
	t.Helper()
	q, err := query.New("homes with a pool", size, constraint.HardFilters{}, multi, "listings")
	if err != nil {
		t.Fatalf("query.New: %v", err)
	}
	return q
}

func TestSearch_HappyPath(t *testing.T) {
	store := &stubStore{
		lexical:  cands(nil, "a", "b"),
		textKNN:  cands(nil, "b", "c"),
		imageKNN: cands(nil, "c", "a"),
	}
	svc := newService(store, &stubEmbedder{}, nil, constraint.Empty())

	resp, err := svc.Search(context.Background(), mustQuery(t, 10, false))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if resp.State != StateReturned {
		t.Errorf("expected RETURNED, got %s", resp.State)
	}
	if resp.Total != 3 || len(resp.Results) != 3 {
		t.Errorf("expected 3 results, got total=%d returned=%d", resp.Total, len(resp.Results))
	}
	if len(resp.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", resp.Warnings)
	}
	if resp.Quality.Evaluated != 3 {
		t.Errorf("expected quality over 3 results, got %d", resp.Quality.Evaluated)
	}
}

func TestSearch_EmbeddingFailureDegradesToLexical(t *testing.T) {
	store := &stubStore{lexical: cands(nil, "a", "b")}
	svc := newService(store, &stubEmbedder{err: domain.ErrEmbeddingProviderError}, nil, constraint.Empty())

	resp, err := svc.Search(context.Background(), mustQuery(t, 10, false))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if len(resp.Results) != 2 {
		t.Fatalf("expected lexical results, got %d", len(resp.Results))
	}
	if len(resp.Warnings) != 1 || resp.Warnings[0].Stage != "embedding" {
		t.Errorf("expected embedding warning, got %v", resp.Warnings)
	}
}

func TestSearch_PartialStrategyFailureWarns(t *testing.T) {
	store := &stubStore{
		lexical:  cands(nil, "a"),
		textErr:  errors.New("index timeout"),
		imageKNN: cands(nil, "b"),
	}
	svc := newService(store, &stubEmbedder{}, nil, constraint.Empty())

	resp, err := svc.Search(context.Background(), mustQuery(t, 10, false))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if len(resp.Results) != 2 {
		t.Errorf("expected surviving strategies to produce results, got %d", len(resp.Results))
	}
	if len(resp.Warnings) != 1 || resp.Warnings[0].Strategy != "text_knn" {
		t.Errorf("expected text_knn warning, got %v", resp.Warnings)
	}
}

func TestSearch_AllStrategiesFailed(t *testing.T) {
	boom := errors.New("store down")
	store := &stubStore{lexicalErr: boom, textErr: boom, imageErr: boom}
	svc := newService(store, &stubEmbedder{}, nil, constraint.Empty())

	resp, err := svc.Search(context.Background(), mustQuery(t, 10, false))
	if !errors.Is(err, domain.ErrAllStrategiesFailed) {
		t.Fatalf("expected ErrAllStrategiesFailed, got %v", err)
	}
	if resp.State != StateFailed {
		t.Errorf("expected FAILED, got %s", resp.State)
	}
}

func TestSearch_ZeroMatchesIsNotAnError(t *testing.T) {
	svc := newService(&stubStore{}, &stubEmbedder{}, nil, constraint.Empty())

	resp, err := svc.Search(context.Background(), mustQuery(t, 10, false))
	if err != nil {
		t.Fatalf("zero matches must not error: %v", err)
	}
	if resp.Total != 0 || len(resp.Results) != 0 {
		t.Errorf("expected empty response, got total=%d", resp.Total)
	}
	if resp.State != StateReturned {
		t.Errorf("expected RETURNED, got %s", resp.State)
	}
}

func TestSearch_TruncatesToSize(t *testing.T) {
	store := &stubStore{lexical: cands(nil, "a", "b", "c", "d", "e")}
	svc := newService(store, &stubEmbedder{}, nil, constraint.Empty())

	resp, err := svc.Search(context.Background(), mustQuery(t, 2, false))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if resp.Total != 5 {
		t.Errorf("expected total 5, got %d", resp.Total)
	}
	if len(resp.Results) != 2 {
		t.Errorf("expected 2 returned, got %d", len(resp.Results))
	}
}

func TestSearch_BoostReordersResults(t *testing.T) {
	tags := map[string][]string{"b": {"pool"}}
	store := &stubStore{lexical: cands(tags, "a", "b")}
	cons := constraint.New([]string{"pool"}, nil, constraint.HardFilters{}, "", nil)
	svc := newService(store, &stubEmbedder{}, nil, cons)

	resp, err := svc.Search(context.Background(), mustQuery(t, 10, false))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	// a: 1/101, b: (1/102) * 1.5 boost; b must win.
	if resp.Results[0].ID() != "b" {
		t.Errorf("expected boosted b first, got %s", resp.Results[0].ID())
	}
	if resp.Results[0].BoostMultiplier() != 1.5 {
		t.Errorf("expected multiplier 1.5, got %g", resp.Results[0].BoostMultiplier())
	}
}

func TestSearch_MultiQueryPath(t *testing.T) {
	store := &stubStore{lexical: cands(nil, "a", "b")}
	exp := &stubExpander{rewrites: []string{"pool homes", "homes with swimming pools"}}
	svc := newService(store, &stubEmbedder{}, exp, constraint.Empty())

	resp, err := svc.Search(context.Background(), mustQuery(t, 10, true))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if !resp.MultiQuery {
		t.Error("expected multi-query path taken")
	}
	if len(resp.Results) != 2 {
		t.Errorf("expected merged results, got %d", len(resp.Results))
	}
}

type countingExtractor struct {
	cons  constraint.Constraints
	calls int
}

func (c *countingExtractor) Extract(_ context.Context, _ string) constraint.Constraints {
	c.calls++
	return c.cons
}

func TestSearch_MultiQuerySubQueriesRunFullPipeline(t *testing.T) {
	// Every sub-query retrieves b ahead of a, but only a carries the
	// required tag. The boost must run inside each sub-query pass, so the
	// outer fusion sees a at rank 1, and the merged scores must not be
	// boosted a second time.
	tags := map[string][]string{"a": {"pool"}}
	store := &stubStore{lexical: cands(tags, "b", "a")}
	cons := constraint.New([]string{"pool"}, nil, constraint.HardFilters{}, "", nil)
	exp := &stubExpander{rewrites: []string{"pool homes"}}

	ext := &countingExtractor{cons: cons}
	fuser := fuse.New(nil)
	svc := New(
		ext,
		plan.New(nil),
		&stubEmbedder{},
		retrieve.New(store, time.Second, nil),
		fuser,
		boost.New(1.6, 0.5, 0.15, nil),
		quality.New(),
		expand.New(exp, fuser, 4, 2, nil),
		time.Second,
		nil,
	)

	resp, err := svc.Search(context.Background(), mustQuery(t, 10, true))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !resp.MultiQuery {
		t.Fatal("expected multi-query path taken")
	}

	// One top-level extraction plus one per sub-query.
	if ext.calls < 3 {
		t.Errorf("expected constraint extraction per sub-query, got %d calls", ext.calls)
	}

	first := resp.Results[0]
	if first.ID() != "a" {
		t.Fatalf("expected boosted a first, got %s", first.ID())
	}
	if c, ok := first.Breakdown(strategy.SubQuery(0)); !ok || c.Rank() != 1 {
		t.Errorf("expected a at rank 1 inside sub-query 0, got %+v (ok=%v)", c, ok)
	}
	if first.BoostMultiplier() != 1.0 {
		t.Errorf("merged scores must not be re-boosted, got multiplier %g", first.BoostMultiplier())
	}
	if first.MatchRatio() != 1.0 {
		t.Errorf("expected match ratio 1.0 on the merged result, got %g", first.MatchRatio())
	}
}

func TestSearch_ExpansionFailureFallsBackSilently(t *testing.T) {
	store := &stubStore{lexical: cands(nil, "a")}
	exp := &stubExpander{err: errors.New("llm down")}
	svc := newService(store, &stubEmbedder{}, exp, constraint.Empty())

	resp, err := svc.Search(context.Background(), mustQuery(t, 10, true))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if resp.MultiQuery {
		t.Error("expected fallback to single query")
	}
	if len(resp.Results) != 1 {
		t.Errorf("expected single-query results, got %d", len(resp.Results))
	}
}
