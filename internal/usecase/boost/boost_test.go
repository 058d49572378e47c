package boost

import (
	"math"
	"testing"

	"github.com/openhaus/propsearch/internal/domain/constraint"
	"github.com/openhaus/propsearch/internal/domain/fused"
	"github.com/openhaus/propsearch/internal/domain/listing"
)

func result(id string, score float64, tags ...string) fused.Result {
	l := listing.New(id, "", "", nil, nil, nil, 0, tags)
	return fused.New(id, score, nil, l)
}

func engine() *Engine {
	return New(1.6, 0.5, 0.15, nil)
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-12
}

func TestApply_ZeroMatchKeepsScoreExactly(t *testing.T) {
	cons := constraint.New([]string{"pool", "garage"}, nil, constraint.HardFilters{}, "", nil)
	in := []fused.Result{result("a", 0.05, "fireplace")}

	out := engine().Apply(in, cons)

	if out[0].BoostMultiplier() != 1.0 {
		t.Errorf("expected multiplier exactly 1.0, got %g", out[0].BoostMultiplier())
	}
	if out[0].BoostedScore() != 0.05 {
		t.Errorf("expected boosted score unchanged, got %g", out[0].BoostedScore())
	}
	if out[0].MatchRatio() != 0 {
		t.Errorf("expected match ratio 0, got %g", out[0].MatchRatio())
	}
}

func TestApply_MonotoneInMatches(t *testing.T) {
	cons := constraint.New([]string{"pool", "garage", "backyard"}, nil, constraint.HardFilters{}, "", nil)
	in := []fused.Result{
		result("none", 0.05),
		result("one", 0.05, "pool"),
		result("two", 0.05, "pool", "garage"),
		result("all", 0.05, "pool", "garage", "backyard"),
	}

	out := engine().Apply(in, cons)

	byID := map[string]fused.Result{}
	for _, r := range out {
		byID[r.ID()] = r
	}
	if !(byID["none"].BoostMultiplier() < byID["one"].BoostMultiplier() &&
		byID["one"].BoostMultiplier() < byID["two"].BoostMultiplier() &&
		byID["two"].BoostMultiplier() < byID["all"].BoostMultiplier()) {
		t.Errorf("multiplier not monotone in match count: %g %g %g %g",
			byID["none"].BoostMultiplier(), byID["one"].BoostMultiplier(),
			byID["two"].BoostMultiplier(), byID["all"].BoostMultiplier())
	}
	if out[0].ID() != "all" {
		t.Errorf("expected full match first, got %s", out[0].ID())
	}
}

func TestApply_MultiplierBounded(t *testing.T) {
	must := []string{"pool", "garage", "backyard", "fireplace", "deck"}
	nice := []string{"patio", "garden"}
	cons := constraint.New(must, nice, constraint.HardFilters{}, "modern", nil)
	tags := append(append([]string{}, must...), nice...)
	tags = append(tags, "modern")
	in := []fused.Result{result("a", 0.05, tags...)}

	out := engine().Apply(in, cons)

	if got := out[0].BoostMultiplier(); got != 1.6 {
		t.Errorf("expected multiplier capped at 1.6, got %g", got)
	}
}

func TestApply_FullMatchMultiplier(t *testing.T) {
	cons := constraint.New([]string{"pool"}, []string{"garden"}, constraint.HardFilters{}, "", nil)
	in := []fused.Result{result("a", 0.1, "pool", "garden")}

	out := engine().Apply(in, cons)

	// 1 + 0.5*1 + 0.15*1 = 1.65 capped at 1.6
	if !approx(out[0].BoostMultiplier(), 1.6) {
		t.Errorf("expected multiplier 1.6, got %g", out[0].BoostMultiplier())
	}
	if !approx(out[0].MatchRatio(), 1.0) {
		t.Errorf("expected match ratio 1.0, got %g", out[0].MatchRatio())
	}
}

func TestApply_StyleCountsAsOneSlot(t *testing.T) {
	cons := constraint.New([]string{"pool"}, nil, constraint.HardFilters{}, "craftsman", nil)
	in := []fused.Result{
		result("style_only", 0.05, "craftsman"),
		result("tag_only", 0.05, "pool"),
		result("both", 0.05, "pool", "craftsman"),
	}

	out := engine().Apply(in, cons)

	byID := map[string]fused.Result{}
	for _, r := range out {
		byID[r.ID()] = r
	}
	if !approx(byID["style_only"].MatchRatio(), 0.5) {
		t.Errorf("expected style to fill half the slots, got %g", byID["style_only"].MatchRatio())
	}
	if !approx(byID["tag_only"].MatchRatio(), 0.5) {
		t.Errorf("expected tag to fill half the slots, got %g", byID["tag_only"].MatchRatio())
	}
	if !approx(byID["both"].MatchRatio(), 1.0) {
		t.Errorf("expected full match, got %g", byID["both"].MatchRatio())
	}
}

func TestApply_StyleFamilySatisfies(t *testing.T) {
	cons := constraint.New(nil, nil, constraint.HardFilters{}, "modern", nil)
	in := []fused.Result{
		result("relative", 0.05, "mid_century_modern"),
		result("stranger", 0.05, "victorian"),
	}

	out := engine().Apply(in, cons)

	if out[0].ID() != "relative" {
		t.Errorf("expected family member boosted above stranger, got %s first", out[0].ID())
	}
	if out[1].BoostMultiplier() != 1.0 {
		t.Errorf("expected stranger unboosted, got %g", out[1].BoostMultiplier())
	}
}

func TestApply_EmptyConstraintsIdentity(t *testing.T) {
	in := []fused.Result{
		result("a", 0.3),
		result("b", 0.2),
		result("c", 0.1),
	}

	out := engine().Apply(in, constraint.Empty())

	for i, r := range out {
		if r.BoostMultiplier() != 1.0 {
			t.Errorf("expected multiplier 1.0 for %s, got %g", r.ID(), r.BoostMultiplier())
		}
		if r.ID() != in[i].ID() {
			t.Errorf("expected order preserved, position %d is %s", i, r.ID())
		}
		if r.MatchRatio() != 1.0 {
			t.Errorf("expected match ratio 1.0 with no requirements, got %g", r.MatchRatio())
		}
	}
}

func TestAnnotate_SetsRatiosWithoutReordering(t *testing.T) {
	cons := constraint.New([]string{"pool"}, nil, constraint.HardFilters{}, "", nil)
	in := []fused.Result{
		result("untagged_first", 0.10),
		result("tagged_second", 0.08, "pool"),
	}

	out := engine().Annotate(in, cons)

	// Apply would lift tagged_second to the top; Annotate must not.
	if out[0].ID() != "untagged_first" || out[1].ID() != "tagged_second" {
		t.Errorf("expected input order preserved, got %s then %s", out[0].ID(), out[1].ID())
	}
	for _, r := range out {
		if r.BoostMultiplier() != 1.0 {
			t.Errorf("expected multiplier 1.0 for %s, got %g", r.ID(), r.BoostMultiplier())
		}
		if r.BoostedScore() != r.Score() {
			t.Errorf("expected score untouched for %s, got %g", r.ID(), r.BoostedScore())
		}
	}
	if out[1].MatchRatio() != 1.0 {
		t.Errorf("expected match ratio 1.0 for tagged result, got %g", out[1].MatchRatio())
	}
	if out[0].MatchRatio() != 0 {
		t.Errorf("expected match ratio 0 for untagged result, got %g", out[0].MatchRatio())
	}
}

func TestApply_ReordersByBoostedScore(t *testing.T) {
	cons := constraint.New([]string{"pool"}, nil, constraint.HardFilters{}, "", nil)
	in := []fused.Result{
		result("top_fused", 0.10),
		result("boosted_up", 0.08, "pool"),
	}

	out := engine().Apply(in, cons)

	// 0.08 * 1.5 = 0.12 > 0.10
	if out[0].ID() != "boosted_up" {
		t.Errorf("expected boosted result first, got %s", out[0].ID())
	}
}
