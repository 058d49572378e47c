package expand

import "context"

// Expander is the external service that rewrites one query into several
// focused sub-queries. Failures are never fatal; the search falls back to the
// original query.
type Expander interface {
	Expand(ctx context.Context, text string, max int) ([]string, error)
}
