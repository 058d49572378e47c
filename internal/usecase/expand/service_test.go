package expand

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/openhaus/propsearch/internal/domain/fused"
	"github.com/openhaus/propsearch/internal/domain/listing"
	"github.com/openhaus/propsearch/internal/domain/strategy"
	"github.com/openhaus/propsearch/internal/usecase/fuse"
)

type mockExpander struct {
	rewrites []string
	err      error
}

func (m *mockExpander) Expand(_ context.Context, _ string, _ int) ([]string, error) {
	return m.rewrites, m.err
}

func singleResults(ids ...string) []fused.Result {
	out := make([]fused.Result, 0, len(ids))
	for i, id := range ids {
		l := listing.New(id, "", "", nil, nil, nil, 0, nil)
		out = append(out, fused.New(id, 1.0/float64(i+1), nil, l))
	}
	return out
}

func newService(exp Expander) *Service {
	return New(exp, fuse.New(nil), 4, 2, nil)
}

func TestRun_MergesSubQueries(t *testing.T) {
	exp := &mockExpander{rewrites: []string{"sunny backyard homes", "homes with pools"}}
	svc := newService(exp)

	byQuery := map[string][]fused.Result{
		"homes with sunny pool": singleResults("a", "b"),
		"sunny backyard homes":  singleResults("b", "c"),
		"homes with pools":      singleResults("a", "c"),
	}
	runSingle := func(_ context.Context, text string) ([]fused.Result, error) {
		return byQuery[text], nil
	}

	merged, ok := svc.Run(context.Background(), "homes with sunny pool", runSingle)
	if !ok {
		t.Fatal("expected multi-query path taken")
	}
	if len(merged) != 3 {
		t.Fatalf("expected 3 merged results, got %d", len(merged))
	}

	// a: rank 1 in two sub-queries, b: ranks 2 and 1, c: ranks 2 and 2.
	if merged[0].ID() != "a" && merged[0].ID() != "b" {
		t.Errorf("unexpected leader %s", merged[0].ID())
	}
	for _, r := range merged {
		for _, src := range r.Sources() {
			if !isSubQuery(src) {
				t.Errorf("expected sub-query sources, got %s", src)
			}
		}
	}
}

func isSubQuery(st strategy.Strategy) bool {
	for i := 0; i < 8; i++ {
		if st == strategy.SubQuery(i) {
			return true
		}
	}
	return false
}

func TestRun_ExpanderErrorFallsBack(t *testing.T) {
	svc := newService(&mockExpander{err: errors.New("llm down")})

	var called int32
	runSingle := func(_ context.Context, _ string) ([]fused.Result, error) {
		atomic.AddInt32(&called, 1)
		return singleResults("a"), nil
	}

	_, ok := svc.Run(context.Background(), "query", runSingle)
	if ok {
		t.Fatal("expected fallback to single query")
	}
	if atomic.LoadInt32(&called) != 0 {
		t.Error("runSingle must not run when expansion fails")
	}
}

func TestRun_NoExpanderFallsBack(t *testing.T) {
	svc := newService(nil)

	if _, ok := svc.Run(context.Background(), "query", nil); ok {
		t.Error("expected fallback with nil expander")
	}
}

func TestRun_DuplicateRewritesFallBack(t *testing.T) {
	exp := &mockExpander{rewrites: []string{"  QUERY ", "query", ""}}
	svc := newService(exp)

	if _, ok := svc.Run(context.Background(), "query", nil); ok {
		t.Error("expected fallback when rewrites add nothing new")
	}
}

func TestRun_SubQueryFailureTolerated(t *testing.T) {
	exp := &mockExpander{rewrites: []string{"alternate phrasing"}}
	svc := newService(exp)

	runSingle := func(_ context.Context, text string) ([]fused.Result, error) {
		if text == "alternate phrasing" {
			return nil, errors.New("strategy meltdown")
		}
		return singleResults("a", "b"), nil
	}

	merged, ok := svc.Run(context.Background(), "original", runSingle)
	if !ok {
		t.Fatal("expected multi-query path despite one sub-query failure")
	}
	if len(merged) != 2 {
		t.Errorf("expected surviving sub-query results, got %d", len(merged))
	}
}

func TestRun_OriginalFailureFallsBack(t *testing.T) {
	exp := &mockExpander{rewrites: []string{"alternate phrasing"}}
	svc := newService(exp)

	runSingle := func(_ context.Context, text string) ([]fused.Result, error) {
		if text == "original" {
			return nil, errors.New("meltdown")
		}
		return singleResults("a"), nil
	}

	if _, ok := svc.Run(context.Background(), "original", runSingle); ok {
		t.Error("expected fallback when the original query pass fails")
	}
}
