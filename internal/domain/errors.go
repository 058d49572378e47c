package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuery signals malformed search parameters; no retrieval is attempted.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrCollectionNotFound signals an unknown listing collection.
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrStrategyFailed signals a single retrieval strategy failure.
	ErrStrategyFailed = errors.New("retrieval strategy failed")
	// ErrAllStrategiesFailed signals that no retrieval strategy survived.
	// Distinct from a legitimate zero-match search.
	ErrAllStrategiesFailed = errors.New("all retrieval strategies failed")
	// ErrRateLimited signals external throttling by a collaborator.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrExtractionUnavailable signals that the NLU constraint parser is unreachable.
	// Always recoverable via the keyword fallback.
	ErrExtractionUnavailable = errors.New("constraint extraction unavailable")
	// ErrExpansionUnavailable signals that the query expansion service is unreachable.
	// Always recoverable via single-query execution.
	ErrExpansionUnavailable = errors.New("query expansion unavailable")
)

// StrategyError wraps ErrStrategyFailed with the failing strategy name.
type StrategyError struct {
	Strategy string
	Err      error
}

func (e *StrategyError) Error() string {
	return fmt.Sprintf("strategy %s: %v", e.Strategy, e.Err)
}

func (e *StrategyError) Unwrap() error { return ErrStrategyFailed }

// NewStrategyError creates a strategy failure error.
func NewStrategyError(strategy string, err error) error {
	return &StrategyError{Strategy: strategy, Err: err}
}
