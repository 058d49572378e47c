// Package boost adjusts fused scores by how many required and optional
// features a listing actually carries. Boosting is multiplicative and soft:
// a listing matching nothing keeps its fused score, it is never penalized.
package boost

import (
	"go.uber.org/zap"

	"github.com/openhaus/propsearch/internal/domain/constraint"
	"github.com/openhaus/propsearch/internal/domain/fused"
	"github.com/openhaus/propsearch/internal/domain/listing"
)

// Engine applies tag-match boosting to fused results.
type Engine struct {
	maxBoost        float64
	mustHaveBoost   float64
	niceToHaveBoost float64
	logger          *zap.Logger
}

// New creates a boost engine. maxBoost caps the total multiplier and must be
// at least 1.
func New(maxBoost, mustHaveBoost, niceToHaveBoost float64, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		maxBoost:        maxBoost,
		mustHaveBoost:   mustHaveBoost,
		niceToHaveBoost: niceToHaveBoost,
		logger:          logger,
	}
}

// Apply computes the boost multiplier for every result and re-sorts by the
// boosted score, ties broken by document identifier. With empty constraints
// every multiplier is exactly 1.0 and the input order is preserved.
func (e *Engine) Apply(results []fused.Result, cons constraint.Constraints) []fused.Result {
	mustHave := cons.MustHave()
	niceToHave := cons.NiceToHave()
	styleTags := styleFamily(cons.Style())

	// Style counts as one required slot satisfied by any tag in its family.
	requiredSlots := len(mustHave)
	if len(styleTags) > 0 {
		requiredSlots++
	}

	out := make([]fused.Result, 0, len(results))
	for _, r := range results {
		multiplier, matchRatio := e.multiplier(r.Listing(), mustHave, niceToHave, styleTags, requiredSlots)
		out = append(out, r.WithBoost(multiplier, matchRatio))
	}

	fused.SortStable(out, (*fused.Result).BoostedScore)
	return out
}

// Annotate stamps each result with its match ratio without rescoring or
// reordering. Used after the outer multi-query fusion pass, where every
// sub-query ranking was already boosted.
func (e *Engine) Annotate(results []fused.Result, cons constraint.Constraints) []fused.Result {
	mustHave := cons.MustHave()
	niceToHave := cons.NiceToHave()
	styleTags := styleFamily(cons.Style())

	requiredSlots := len(mustHave)
	if len(styleTags) > 0 {
		requiredSlots++
	}

	out := make([]fused.Result, 0, len(results))
	for _, r := range results {
		_, matchRatio := e.multiplier(r.Listing(), mustHave, niceToHave, styleTags, requiredSlots)
		out = append(out, r.WithBoost(1.0, matchRatio))
	}
	return out
}

func (e *Engine) multiplier(
	l listing.Listing,
	mustHave, niceToHave, styleTags []string,
	requiredSlots int,
) (float64, float64) {
	mustRatio := 0.0
	if requiredSlots > 0 {
		matched := 0
		for _, tag := range mustHave {
			if l.HasTag(tag) {
				matched++
			}
		}
		if len(styleTags) > 0 && hasAnyTag(&l, styleTags) {
			matched++
		}
		mustRatio = float64(matched) / float64(requiredSlots)
	}

	niceRatio := 0.0
	if len(niceToHave) > 0 {
		matched := 0
		for _, tag := range niceToHave {
			if l.HasTag(tag) {
				matched++
			}
		}
		niceRatio = float64(matched) / float64(len(niceToHave))
	}

	multiplier := 1.0 + e.mustHaveBoost*mustRatio + e.niceToHaveBoost*niceRatio
	if multiplier > e.maxBoost {
		multiplier = e.maxBoost
	}

	matchRatio := 1.0
	if requiredSlots > 0 {
		matchRatio = mustRatio
	}
	return multiplier, matchRatio
}

func hasAnyTag(l *listing.Listing, tags []string) bool {
	for _, tag := range tags {
		if l.HasTag(tag) {
			return true
		}
	}
	return false
}
