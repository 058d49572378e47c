// Package query defines the validated search request.
package query

import (
	"fmt"
	"strings"

	"github.com/openhaus/propsearch/internal/domain"
	"github.com/openhaus/propsearch/internal/domain/constraint"
)

// Search parameter limits.
const (
	// MaxTextLength is the maximum allowed query text length.
	MaxTextLength = 1024
	DefaultSize   = 10
	MaxSize       = 50
)

// Query is a validated, immutable search request. It lives for the duration
// of one search call.
type Query struct {
	text       string
	size       int
	filters    constraint.HardFilters
	multiQuery bool
	collection string
}

// New validates and normalizes search parameters.
// Defaults: size=10. Explicit filters override anything extracted from text.
func New(
	text string,
	size int,
	filters constraint.HardFilters,
	multiQuery bool,
	collection string,
) (Query, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Query{}, fmt.Errorf("%w: query text is required", domain.ErrInvalidQuery)
	}
	if len(text) > MaxTextLength {
		return Query{}, fmt.Errorf("%w: query text too long (max %d chars)", domain.ErrInvalidQuery, MaxTextLength)
	}
	if size < 0 {
		return Query{}, fmt.Errorf("%w: size must not be negative", domain.ErrInvalidQuery)
	}
	if size == 0 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}
	if collection == "" {
		return Query{}, fmt.Errorf("%w: collection is required", domain.ErrInvalidQuery)
	}
	if f := filters; f.PriceMin != nil && f.PriceMax != nil && *f.PriceMin > *f.PriceMax {
		return Query{}, fmt.Errorf("%w: price_min exceeds price_max", domain.ErrInvalidQuery)
	}

	return Query{
		text:       text,
		size:       size,
		filters:    filters,
		multiQuery: multiQuery,
		collection: collection,
	}, nil
}

// Text returns the raw query text.
func (q *Query) Text() string { return q.text }

// Size returns the requested final result count.
func (q *Query) Size() int { return q.size }

// Filters returns the explicit numeric filter overrides.
func (q *Query) Filters() constraint.HardFilters { return q.filters }

// MultiQuery reports whether query expansion was requested.
func (q *Query) MultiQuery() bool { return q.multiQuery }

// Collection returns the target listing collection identifier.
func (q *Query) Collection() string { return q.collection }
