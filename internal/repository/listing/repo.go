// Package listing maps document store search hits into domain retrieval
// candidates with typed listing views.
package listing

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/openhaus/propsearch/internal/db"
	"github.com/openhaus/propsearch/internal/domain/candidate"
	"github.com/openhaus/propsearch/internal/domain/filter"
	domlisting "github.com/openhaus/propsearch/internal/domain/listing"
)

// Indexed hash field names for listing documents.
const (
	FieldDescription = "description"
	FieldAddress     = "address"
	FieldPrice       = "price"
	FieldBeds        = "beds"
	FieldBaths       = "baths"
	FieldImageCount  = "image_count"
	FieldTags        = "tags"
	FieldTextVector  = "text_vec"
	FieldImageVector = "image_vec"
)

// TagSeparator joins tags inside the indexed TAG field.
const TagSeparator = ","

// returnFields are the display/boost fields fetched with every hit.
var returnFields = []string{
	FieldDescription, FieldAddress, FieldPrice, FieldBeds,
	FieldBaths, FieldImageCount, FieldTags,
}

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchBM25(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

// Repo implements retrieval over the listings index.
type Repo struct {
	store     store
	keyPrefix string
}

// New creates a listing repository.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix}
}

// SearchLexical performs a BM25 keyword search over listing descriptions.
func (r *Repo) SearchLexical(
	ctx context.Context, collection, query string,
	filters filter.Expression, k int,
) ([]candidate.Candidate, error) {
	q := &db.TextQuery{
		IndexName:    r.indexName(collection),
		TextField:    FieldDescription,
		Query:        query,
		Filters:      filters,
		TopK:         k,
		ReturnFields: returnFields,
	}

	sr, err := r.store.SearchBM25(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search lexical %s: %w", collection, err)
	}

	return r.toCandidates(sr, collection), nil
}

// SearchVector performs a kNN search against the given vector field
// (text or image embeddings) with filter pre-filtering.
func (r *Repo) SearchVector(
	ctx context.Context, collection string, vector []float32,
	vectorField string, filters filter.Expression, k int,
) ([]candidate.Candidate, error) {
	q := &db.KNNQuery{
		IndexName:    r.indexName(collection),
		VectorField:  vectorField,
		Filters:      filters,
		Vector:       vector,
		K:            k,
		ReturnFields: returnFields,
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search vector %s @%s: %w", collection, vectorField, err)
	}

	return r.toCandidates(sr, collection), nil
}

// SearchTextKNN performs a kNN search against the text embedding field.
func (r *Repo) SearchTextKNN(
	ctx context.Context, collection string, vector []float32,
	filters filter.Expression, k int,
) ([]candidate.Candidate, error) {
	return r.SearchVector(ctx, collection, vector, FieldTextVector, filters, k)
}

// SearchImageKNN performs a kNN search against the image embedding field.
// The query vector is the text embedding; text and image vectors share one
// embedding space.
func (r *Repo) SearchImageKNN(
	ctx context.Context, collection string, vector []float32,
	filters filter.Expression, k int,
) ([]candidate.Candidate, error) {
	return r.SearchVector(ctx, collection, vector, FieldImageVector, filters, k)
}

func (r *Repo) indexName(collection string) string {
	return fmt.Sprintf("%s%s:idx", r.keyPrefix, collection)
}

// toCandidates converts store entries into ranked candidates. Ranks are
// 1-based in hit order.
func (r *Repo) toCandidates(sr *db.SearchResult, collection string) []candidate.Candidate {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}

	prefix := fmt.Sprintf("%s%s:", r.keyPrefix, collection)
	out := make([]candidate.Candidate, 0, len(sr.Entries))

	for i, entry := range sr.Entries {
		docID := strings.TrimPrefix(entry.Key, prefix)
		l := parseListing(docID, entry.Fields)
		out = append(out, candidate.New(docID, entry.Score, i+1, l))
	}

	return out
}

// parseListing builds a typed listing view from flat hash fields.
// Unparseable numerics stay unset rather than zero.
func parseListing(docID string, fields map[string]string) domlisting.Listing {
	var price *float64
	var beds, baths *int

	if v, ok := fields[FieldPrice]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			price = &f
		}
	}
	if v, ok := fields[FieldBeds]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			beds = &n
		}
	}
	if v, ok := fields[FieldBaths]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			baths = &n
		}
	}

	imageCount := 0
	if v, ok := fields[FieldImageCount]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			imageCount = n
		}
	}

	var tags []string
	if v, ok := fields[FieldTags]; ok && v != "" {
		tags = strings.Split(v, TagSeparator)
	}

	return domlisting.New(
		docID,
		fields[FieldDescription],
		fields[FieldAddress],
		price, beds, baths,
		imageCount, tags,
	)
}
