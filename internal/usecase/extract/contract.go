package extract

import "context"

// Parser is the optional external NLU collaborator that turns free text into
// structured constraints. Its output is untrusted and sanitized before use.
type Parser interface {
	Parse(ctx context.Context, text string) (Parsed, error)
}

// Parsed is the raw NLU service output before sanitization.
type Parsed struct {
	MustHave        []string
	NiceToHave      []string
	PriceMin        *float64
	PriceMax        *float64
	BedsMin         *int
	BathsMin        *int
	Style           string
	ProximityPOI    string
	MaxDriveTimeMin *int
}
