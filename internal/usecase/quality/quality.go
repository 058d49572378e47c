// Package quality computes the per-search result quality summary over the top
// of the final ranked list. The summary is diagnostic only and never feeds
// back into ranking.
package quality

import (
	"github.com/openhaus/propsearch/internal/domain/fused"
	"github.com/openhaus/propsearch/internal/domain/quality"
	"github.com/openhaus/propsearch/internal/metrics"
)

// WindowSize is how many top results the summary covers.
const WindowSize = 10

// Scorer computes quality metrics.
type Scorer struct{}

// New creates a quality scorer.
func New() *Scorer { return &Scorer{} }

// Score summarizes the top WindowSize results. An empty result list yields
// zero-valued metrics.
func (s *Scorer) Score(results []fused.Result) quality.Metrics {
	window := results
	if len(window) > WindowSize {
		window = window[:WindowSize]
	}

	m := quality.Metrics{Evaluated: len(window)}
	if len(window) == 0 {
		return m
	}

	var scoreSum, ratioSum float64
	for i := range window {
		r := &window[i]
		scoreSum += r.BoostedScore()
		ratioSum += r.MatchRatio()

		switch ratio := r.MatchRatio(); {
		case ratio >= 1.0:
			m.PerfectMatches++
		case ratio > 0:
			m.PartialMatches++
		default:
			m.NoMatches++
		}

		switch sources := r.SourceCount(); {
		case sources >= 3:
			m.AllSources++
		case sources == 2:
			m.MultiSource++
		default:
			m.SingleSource++
		}
	}

	n := float64(len(window))
	m.AvgScore = scoreSum / n
	m.AvgMatchRatio = ratioSum / n

	var varSum float64
	for i := range window {
		d := window[i].BoostedScore() - m.AvgScore
		varSum += d * d
	}
	m.ScoreVariance = varSum / n

	metrics.QualityMatchRatio.Observe(m.AvgMatchRatio)
	return m
}
