package boost

// styleFamilies maps a requested architecture style to the tag set that
// satisfies it. Listings are tagged with specific styles, so a broad request
// like "modern" accepts its close relatives.
var styleFamilies = map[string][]string{
	"modern":             {"modern", "contemporary", "mid_century_modern"},
	"contemporary":       {"contemporary", "modern"},
	"mid_century_modern": {"mid_century_modern"},
	"craftsman":          {"craftsman", "bungalow"},
	"victorian":          {"victorian", "queen_anne"},
	"colonial":           {"colonial", "cape_cod", "georgian"},
	"cape_cod":           {"cape_cod"},
	"farmhouse":          {"farmhouse", "ranch"},
	"ranch":              {"ranch"},
	"tudor":              {"tudor"},
	"mediterranean":      {"mediterranean", "spanish"},
	"spanish":            {"spanish", "mediterranean"},
	"traditional":        {"traditional", "colonial", "craftsman"},
}

// styleFamily returns the tags satisfying a style requirement, or nil when no
// style was requested. Unrecognized styles match only themselves.
func styleFamily(style string) []string {
	if style == "" {
		return nil
	}
	if family, ok := styleFamilies[style]; ok {
		return family
	}
	return []string{style}
}
