// Package fused defines the post-fusion search result: one document with its
// RRF score, per-strategy rank breakdown, and tag-boost adjustment.
package fused

import (
	"sort"

	"github.com/openhaus/propsearch/internal/domain/listing"
	"github.com/openhaus/propsearch/internal/domain/strategy"
)

// Contribution records one strategy's part in a fused score. A document absent
// from a strategy has no Contribution entry at all, so "not retrieved" is
// never confused with "ranked low".
type Contribution struct {
	rank         int
	rawScore     float64
	contribution float64
}

// NewContribution creates a per-strategy breakdown entry. rank is 1-based.
func NewContribution(rank int, rawScore, contribution float64) Contribution {
	return Contribution{rank: rank, rawScore: rawScore, contribution: contribution}
}

// Rank returns the 1-based rank within the contributing strategy.
func (c Contribution) Rank() int { return c.rank }

// RawScore returns the strategy-local score, kept for diagnostics only.
func (c Contribution) RawScore() float64 { return c.rawScore }

// Contribution returns the 1/(k+rank) term added to the fused score.
func (c Contribution) Contribution() float64 { return c.contribution }

// Result is one document after rank fusion.
type Result struct {
	id         string
	score      float64
	breakdown  map[strategy.Strategy]Contribution
	multiplier float64
	boosted    float64
	matchRatio float64
	listing    listing.Listing
}

// New creates a fused result with no boost applied yet (multiplier 1.0).
func New(
	id string, score float64,
	breakdown map[strategy.Strategy]Contribution,
	l listing.Listing,
) Result {
	return Result{
		id:         id,
		score:      score,
		breakdown:  breakdown,
		multiplier: 1.0,
		boosted:    score,
		listing:    l,
	}
}

// ID returns the document identifier.
func (r *Result) ID() string { return r.id }

// Score returns the total RRF score.
func (r *Result) Score() float64 { return r.score }

// Breakdown returns the per-strategy contribution for st, if the document was
// retrieved by it.
func (r *Result) Breakdown(st strategy.Strategy) (Contribution, bool) {
	c, ok := r.breakdown[st]
	return c, ok
}

// Sources returns the contributing strategies in deterministic order.
func (r *Result) Sources() []strategy.Strategy {
	out := make([]strategy.Strategy, 0, len(r.breakdown))
	for st := range r.breakdown {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SourceCount returns how many strategies retrieved the document.
func (r *Result) SourceCount() int { return len(r.breakdown) }

// BoostMultiplier returns the tag-boost multiplier applied (1.0 = no boost).
func (r Result) BoostMultiplier() float64 { return r.multiplier }

// BoostedScore returns the final post-boost score used for ordering.
func (r *Result) BoostedScore() float64 { return r.boosted }

// MatchRatio returns the fraction of required features the listing satisfies.
func (r Result) MatchRatio() float64 { return r.matchRatio }

// Listing returns the document view.
func (r *Result) Listing() listing.Listing { return r.listing }

// WithBoost returns a copy with the boost multiplier and match ratio applied.
func (r Result) WithBoost(multiplier, matchRatio float64) Result {
	r.multiplier = multiplier
	r.boosted = r.score * multiplier
	r.matchRatio = matchRatio
	return r
}

// SortStable orders results best-first by the given score accessor, breaking
// ties by document identifier ascending so output is reproducible across runs.
func SortStable(results []Result, score func(*Result) float64) {
	sort.Slice(results, func(i, j int) bool {
		si, sj := score(&results[i]), score(&results[j])
		if si != sj {
			return si > sj
		}
		return results[i].id < results[j].id
	})
}
