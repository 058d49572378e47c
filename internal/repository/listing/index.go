package listing

import (
	"context"
	"errors"
	"fmt"

	"github.com/openhaus/propsearch/internal/db"
)

// HNSWConfig holds vector index build parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// IndexDefinition builds the listings index schema for one collection:
// BM25 over descriptions, tag and numeric filters, and two HNSW vector
// fields (text and image embeddings).
func IndexDefinition(keyPrefix, collection string, vectorDim int, hnsw HNSWConfig) *db.IndexDefinition {
	name := fmt.Sprintf("%s%s:idx", keyPrefix, collection)
	prefix := fmt.Sprintf("%s%s:", keyPrefix, collection)

	return db.NewIndex(name).
		Prefix(prefix).
		Text(FieldDescription).
		Tag(FieldTags, TagSeparator).
		Numeric(FieldPrice).
		Numeric(FieldBeds).
		Numeric(FieldBaths).
		Numeric(FieldImageCount).
		VectorHNSW(FieldTextVector, vectorDim, db.DistanceCosine, hnsw.M, hnsw.EFConstruct).
		VectorHNSW(FieldImageVector, vectorDim, db.DistanceCosine, hnsw.M, hnsw.EFConstruct).
		MustBuild()
}

// EnsureIndex creates the listings index if it does not exist yet.
func EnsureIndex(
	ctx context.Context, mgr db.IndexManager,
	keyPrefix, collection string, vectorDim int, hnsw HNSWConfig,
) error {
	def := IndexDefinition(keyPrefix, collection, vectorDim, hnsw)
	if err := mgr.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create listings index: %w", err)
	}
	return nil
}
