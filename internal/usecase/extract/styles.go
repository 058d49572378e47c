package extract

// styleKeywords is the ordered architecture style list for fallback
// detection. First match wins; multi-word phrases come before their
// single-word suffixes.
var styleKeywords = []struct {
	phrase string
	style  string
}{
	{"mid century modern", "mid_century_modern"},
	{"cape cod", "cape_cod"},
	{"contemporary", "contemporary"},
	{"craftsman", "craftsman"},
	{"victorian", "victorian"},
	{"colonial", "colonial"},
	{"farmhouse", "farmhouse"},
	{"ranch", "ranch"},
	{"tudor", "tudor"},
	{"mediterranean", "mediterranean"},
	{"spanish", "spanish"},
	{"modern", "modern"},
	{"traditional", "traditional"},
}

var knownStyles = func() map[string]struct{} {
	m := make(map[string]struct{}, len(styleKeywords))
	for _, s := range styleKeywords {
		m[s.style] = struct{}{}
	}
	return m
}()

// isKnownStyle reports whether the normalized style tag is recognized.
// Unknown styles from the NLU service are dropped rather than indexed.
func isKnownStyle(style string) bool {
	_, ok := knownStyles[style]
	return ok
}
