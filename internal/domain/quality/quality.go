// Package quality defines the read-only result-quality summary computed once
// per search for observability. It never influences ranking.
package quality

// Metrics summarizes the top-N fused results of one search.
type Metrics struct {
	// Evaluated is how many results the window covered (at most 10).
	Evaluated int
	// AvgScore is the mean post-boost score over the window.
	AvgScore float64
	// ScoreVariance is the population variance of post-boost scores.
	ScoreVariance float64
	// AvgMatchRatio is the mean required-feature match ratio.
	AvgMatchRatio float64
	// PerfectMatches counts results with match ratio 1.0 (or searches with no
	// required features, where every result is a perfect match).
	PerfectMatches int
	// PartialMatches counts results with match ratio in (0, 1).
	PartialMatches int
	// NoMatches counts results with match ratio 0 when required features were requested.
	NoMatches int
	// SingleSource counts results retrieved by exactly one strategy.
	SingleSource int
	// MultiSource counts results retrieved by two strategies.
	MultiSource int
	// AllSources counts results retrieved by three or more strategies.
	AllSources int
}
