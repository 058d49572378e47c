// Package strategy enumerates the retrieval strategies that feed rank fusion.
package strategy

import "fmt"

// Strategy identifies one ranked source in a fusion pass.
type Strategy string

// Retrieval strategy constants.
const (
	// Lexical is BM25 keyword search over listing descriptions.
	Lexical Strategy = "lexical"
	// TextKNN is vector similarity over text embeddings.
	TextKNN Strategy = "text_knn"
	// ImageKNN is vector similarity over image embeddings.
	ImageKNN Strategy = "image_knn"
)

// All returns the retrieval strategies in canonical order.
func All() []Strategy {
	return []Strategy{Lexical, TextKNN, ImageKNN}
}

// IsValid checks if the strategy is one of the retrieval strategies.
func (s Strategy) IsValid() bool {
	return s == Lexical || s == TextKNN || s == ImageKNN
}

// SubQuery names the ranked source contributed by sub-query i in the outer
// fusion pass of multi-query expansion.
func SubQuery(i int) Strategy {
	return Strategy(fmt.Sprintf("sub_query_%d", i))
}
