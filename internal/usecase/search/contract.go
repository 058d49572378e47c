package search

import (
	"github.com/openhaus/propsearch/internal/domain/constraint"
	"github.com/openhaus/propsearch/internal/domain/fused"
	"github.com/openhaus/propsearch/internal/domain/quality"
)

// State tracks how far a search request progressed through the pipeline.
type State string

// Pipeline states in order of progression. Failed is terminal.
const (
	StateReceived             State = "RECEIVED"
	StateConstraintsExtracted State = "CONSTRAINTS_EXTRACTED"
	StateExpanded             State = "EXPANDED"
	StateRetrieved            State = "RETRIEVED"
	StateFused                State = "FUSED"
	StateBoosted              State = "BOOSTED"
	StateScored               State = "SCORED"
	StateReturned             State = "RETURNED"
	StateFailed               State = "FAILED"
)

// Issue records a non-fatal problem encountered during one search. A degraded
// search still returns results alongside its issues.
type Issue struct {
	Stage    string
	Strategy string
	Message  string
}

// Response is the outcome of one search.
type Response struct {
	Results     []fused.Result
	Total       int
	Quality     quality.Metrics
	Constraints constraint.Constraints
	State       State
	MultiQuery  bool
	Warnings    []Issue
}
