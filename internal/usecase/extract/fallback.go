package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/openhaus/propsearch/internal/domain/constraint"
)

// extractFallback applies deterministic keyword and regex rules over a
// lower-cased copy of the query text. It is the only extraction path when no
// NLU service is configured and must stay testable without collaborators.
func extractFallback(text string) constraint.Constraints {
	normalized := normalizeText(text)

	features := detectFeatures(normalized)
	style := detectStyle(normalized)
	prox := detectProximity(normalized)

	return constraint.New(features, nil, constraint.HardFilters{}, style, prox)
}

// normalizeText lower-cases the query and flattens punctuation to spaces so
// phrase matching works on word boundaries ("mid-century" == "mid century").
func normalizeText(text string) string {
	var b strings.Builder
	b.Grow(len(text) + 2)
	b.WriteByte(' ')
	for _, r := range strings.ToLower(text) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	b.WriteByte(' ')
	return strings.Join(strings.Fields(b.String()), " ")
}

// containsPhrase matches phrase on word boundaries within normalized text.
func containsPhrase(normalized, phrase string) bool {
	return strings.Contains(" "+normalized+" ", " "+phrase+" ")
}

type featureRule struct {
	keyword string
	tag     string
}

// featureRules map single feature keywords to normalized tags.
var featureRules = []featureRule{
	{"pool", "pool"},
	{"island", "kitchen_island"},
	{"backyard", "backyard"},
	{"balcony", "balcony"},
	{"fence", "fence"},
	{"fenced", "fence"},
	{"garage", "garage"},
	{"fireplace", "fireplace"},
	{"granite", "granite_countertops"},
	{"hardwood", "hardwood_floors"},
	{"deck", "deck"},
	{"patio", "patio"},
	{"basement", "basement"},
	{"garden", "garden"},
	{"vaulted", "vaulted_ceilings"},
}

type compoundRule struct {
	color    string
	contexts []string
	tag      string
}

// compoundRules combine a color word with a context word into one tag.
var compoundRules = []compoundRule{
	{"white", []string{"fence"}, "white_fence"},
	{"white", []string{"kitchen"}, "white_kitchen"},
	{"white", []string{"exterior", "house", "houses", "home", "homes"}, "white_exterior"},
	{"blue", []string{"exterior", "house", "houses", "home", "homes"}, "blue_exterior"},
	{"black", []string{"exterior", "house", "houses", "home", "homes"}, "black_exterior"},
	{"gray", []string{"exterior", "house", "houses", "home", "homes"}, "gray_exterior"},
	{"red", []string{"brick"}, "red_brick"},
}

func detectFeatures(normalized string) []string {
	var tags []string

	for _, rule := range featureRules {
		if containsPhrase(normalized, rule.keyword) {
			tags = append(tags, rule.tag)
		}
	}

	for _, rule := range compoundRules {
		if !containsPhrase(normalized, rule.color) {
			continue
		}
		for _, ctx := range rule.contexts {
			if containsPhrase(normalized, ctx) {
				tags = append(tags, rule.tag)
				break
			}
		}
	}

	return tags
}

// detectStyle returns the first matching architecture style. Multi-word
// styles are listed first so "mid century modern" never resolves to "modern".
func detectStyle(normalized string) string {
	for _, s := range styleKeywords {
		if containsPhrase(normalized, s.phrase) {
			return s.style
		}
	}
	return ""
}

// proximityTriggers signal a proximity requirement when combined with a
// point-of-interest keyword.
var proximityTriggers = []string{"near", "close to", "within", "from"}

// poiKeywords are ordered most-specific first: "elementary school" must map
// to elementary_school, not plain school.
var poiKeywords = []struct {
	phrase string
	poi    string
}{
	{"elementary school", "elementary_school"},
	{"middle school", "middle_school"},
	{"high school", "high_school"},
	{"grocery store", "grocery_store"},
	{"grocery", "grocery_store"},
	{"supermarket", "grocery_store"},
	{"gym", "gym"},
	{"park", "park"},
	{"office", "office"},
	{"downtown", "downtown"},
	{"school", "school"},
}

var driveTimeRe = regexp.MustCompile(`(\d+) minute`)

func detectProximity(normalized string) *constraint.Proximity {
	triggered := false
	for _, t := range proximityTriggers {
		if containsPhrase(normalized, t) {
			triggered = true
			break
		}
	}
	if !triggered {
		return nil
	}

	for _, p := range poiKeywords {
		if !containsPhrase(normalized, p.phrase) {
			continue
		}

		var drive *int
		if m := driveTimeRe.FindStringSubmatch(normalized); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
				drive = &n
			}
		}

		prox := constraint.NewProximity(p.poi, drive)
		return &prox
	}

	return nil
}
