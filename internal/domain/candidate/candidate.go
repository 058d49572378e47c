// Package candidate holds per-strategy retrieval results prior to fusion.
package candidate

import (
	"sort"

	"github.com/openhaus/propsearch/internal/domain/listing"
	"github.com/openhaus/propsearch/internal/domain/strategy"
)

// Candidate is one document returned by one retrieval strategy.
// The raw score is strategy-local and not comparable across strategies;
// only the 1-based rank feeds fusion.
type Candidate struct {
	id       string
	rawScore float64
	rank     int
	listing  listing.Listing
}

// New creates a retrieval candidate. rank is 1-based.
func New(id string, rawScore float64, rank int, l listing.Listing) Candidate {
	return Candidate{id: id, rawScore: rawScore, rank: rank, listing: l}
}

// ID returns the document identifier.
func (c *Candidate) ID() string { return c.id }

// RawScore returns the strategy-local relevance score.
func (c *Candidate) RawScore() float64 { return c.rawScore }

// Rank returns the 1-based position within the strategy's ranked list.
func (c *Candidate) Rank() int { return c.rank }

// Listing returns the document view.
func (c *Candidate) Listing() listing.Listing { return c.listing }

// Set collects ranked candidate lists per strategy, recording per-strategy
// failures explicitly so a degraded search is distinguishable from an empty one.
type Set struct {
	lists    map[strategy.Strategy][]Candidate
	failures map[strategy.Strategy]error
}

// NewSet creates an empty candidate set.
func NewSet() *Set {
	return &Set{
		lists:    make(map[strategy.Strategy][]Candidate),
		failures: make(map[strategy.Strategy]error),
	}
}

// Add records a strategy's ranked candidate list.
func (s *Set) Add(st strategy.Strategy, candidates []Candidate) {
	s.lists[st] = candidates
}

// Fail records a strategy failure. The strategy contributes nothing to fusion.
func (s *Set) Fail(st strategy.Strategy, err error) {
	s.failures[st] = err
}

// List returns the ranked candidates for a strategy.
func (s *Set) List(st strategy.Strategy) []Candidate { return s.lists[st] }

// Strategies returns the strategies that completed, in deterministic order.
func (s *Set) Strategies() []strategy.Strategy {
	out := make([]strategy.Strategy, 0, len(s.lists))
	for st := range s.lists {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Failures returns the per-strategy failures, in deterministic order.
func (s *Set) Failures() map[strategy.Strategy]error { return s.failures }

// FailedStrategies returns the failed strategies in deterministic order.
func (s *Set) FailedStrategies() []strategy.Strategy {
	out := make([]strategy.Strategy, 0, len(s.failures))
	for st := range s.failures {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AllFailed reports whether no strategy completed.
func (s *Set) AllFailed() bool {
	return len(s.lists) == 0 && len(s.failures) > 0
}
