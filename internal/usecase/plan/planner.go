// Package plan turns a validated query plus extracted constraints into a
// concrete retrieval plan: the lexical query string, the push-down filter
// expression, and per-strategy candidate pool depths.
package plan

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/openhaus/propsearch/internal/domain/constraint"
	"github.com/openhaus/propsearch/internal/domain/filter"
	"github.com/openhaus/propsearch/internal/domain/query"
	"github.com/openhaus/propsearch/internal/domain/strategy"
)

// Candidate pool depth bounds. Deeper pools survive aggressive post-retrieval
// filtering; shallower pools keep latency predictable.
const (
	MinK = 50
	MaxK = 500
)

// Plan is the retrieval plan for one search. QueryVector is filled in by the
// orchestrator once the query text has been embedded; it stays nil when
// embedding is unavailable and only the lexical strategy runs.
type Plan struct {
	Collection   string
	LexicalQuery string
	QueryVector  []float32
	Filters      filter.Expression
	K            map[strategy.Strategy]int
	Size         int
}

// Planner computes retrieval plans.
type Planner struct {
	logger *zap.Logger
}

// New creates a query planner.
func New(logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{logger: logger}
}

// Build computes the retrieval plan for q under cons. Explicit filters on the
// query override anything extracted from text.
func (p *Planner) Build(q query.Query, cons constraint.Constraints) (Plan, error) {
	hard := mergeFilters(q.Filters(), cons.HardFilters())

	expr, err := buildFilterExpression(hard)
	if err != nil {
		return Plan{}, fmt.Errorf("build push-down filter: %w", err)
	}

	k := adaptiveK(q.Size(), hard, cons)
	ks := map[strategy.Strategy]int{
		strategy.Lexical: k,
		strategy.TextKNN: k,
		strategy.ImageKNN: func() int {
			if k/2 > MinK {
				return k / 2
			}
			return MinK
		}(),
	}

	p.logger.Debug("retrieval plan built",
		zap.Int("size", q.Size()),
		zap.Int("k", k),
		zap.Int("hard_filters", hard.Count()),
		zap.Int("must_have", len(cons.MustHave())),
	)

	return Plan{
		Collection:   q.Collection(),
		LexicalQuery: q.Text(),
		Filters:      expr,
		K:            ks,
		Size:         q.Size(),
	}, nil
}

// adaptiveK deepens the candidate pool as the query grows more restrictive.
// Hard filters eliminate candidates at the store, but must-have tags and style
// eliminate after fusion, so both widen the pool. Deterministic and monotone
// in size and restrictiveness.
func adaptiveK(size int, hard constraint.HardFilters, cons constraint.Constraints) int {
	soft := len(cons.MustHave())
	if cons.Style() != "" {
		soft++
	}

	k := 10*size + 25*hard.Count() + 10*soft
	if k < MinK {
		return MinK
	}
	if k > MaxK {
		return MaxK
	}
	return k
}

// mergeFilters overlays explicit query filters on extracted ones. A non-nil
// explicit bound always wins.
func mergeFilters(explicit, extracted constraint.HardFilters) constraint.HardFilters {
	merged := extracted
	if explicit.PriceMin != nil {
		merged.PriceMin = explicit.PriceMin
	}
	if explicit.PriceMax != nil {
		merged.PriceMax = explicit.PriceMax
	}
	if explicit.BedsMin != nil {
		merged.BedsMin = explicit.BedsMin
	}
	if explicit.BathsMin != nil {
		merged.BathsMin = explicit.BathsMin
	}
	if merged.PriceMin != nil && merged.PriceMax != nil && *merged.PriceMin > *merged.PriceMax {
		// Extracted bound conflicts with the explicit one; drop the extracted side.
		if explicit.PriceMin == nil {
			merged.PriceMin = nil
		} else {
			merged.PriceMax = nil
		}
	}
	return merged
}

func buildFilterExpression(hard constraint.HardFilters) (filter.Expression, error) {
	var must []filter.Condition

	if hard.PriceMin != nil || hard.PriceMax != nil {
		r, err := filter.NewRangeFilter(hard.PriceMin, hard.PriceMax)
		if err != nil {
			return filter.Expression{}, err
		}
		cond, err := filter.NewRange("price", r)
		if err != nil {
			return filter.Expression{}, err
		}
		must = append(must, cond)
	}

	if hard.BedsMin != nil {
		gte := float64(*hard.BedsMin)
		r, err := filter.NewRangeFilter(&gte, nil)
		if err != nil {
			return filter.Expression{}, err
		}
		cond, err := filter.NewRange("beds", r)
		if err != nil {
			return filter.Expression{}, err
		}
		must = append(must, cond)
	}

	if hard.BathsMin != nil {
		gte := float64(*hard.BathsMin)
		r, err := filter.NewRangeFilter(&gte, nil)
		if err != nil {
			return filter.Expression{}, err
		}
		cond, err := filter.NewRange("baths", r)
		if err != nil {
			return filter.Expression{}, err
		}
		must = append(must, cond)
	}

	return filter.NewExpression(must, nil, nil)
}
