package retrieve

import (
	"context"

	"github.com/openhaus/propsearch/internal/domain/candidate"
	"github.com/openhaus/propsearch/internal/domain/filter"
)

// Store is the consumer interface for ranked retrieval (ISP).
type Store interface {
	SearchLexical(ctx context.Context, collection, query string, filters filter.Expression, k int) ([]candidate.Candidate, error)
	SearchTextKNN(ctx context.Context, collection string, vector []float32, filters filter.Expression, k int) ([]candidate.Candidate, error)
	SearchImageKNN(ctx context.Context, collection string, vector []float32, filters filter.Expression, k int) ([]candidate.Candidate, error)
}
