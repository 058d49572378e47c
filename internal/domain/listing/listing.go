// Package listing defines the typed view of a property document as stored in
// the search index: a fixed core schema plus an open-ended tag set.
package listing

import (
	"sort"
	"strings"
)

// Listing is a read-only property document view.
// Numeric fields are optional: a missing value is representable, not a zero.
type Listing struct {
	id          string
	description string
	address     string
	price       *float64
	beds        *int
	baths       *int
	imageCount  int
	tags        []string
}

// New creates a listing view. Tags are normalized, deduplicated, and sorted.
func New(
	id, description, address string,
	price *float64, beds, baths *int,
	imageCount int, tags []string,
) Listing {
	return Listing{
		id:          id,
		description: description,
		address:     address,
		price:       price,
		beds:        beds,
		baths:       baths,
		imageCount:  imageCount,
		tags:        NormalizeTags(tags),
	}
}

// ID returns the listing identifier.
func (l *Listing) ID() string { return l.id }

// Description returns the listing description text.
func (l *Listing) Description() string { return l.description }

// Address returns the listing address.
func (l *Listing) Address() string { return l.address }

// Price returns the asking price, if known.
func (l *Listing) Price() (float64, bool) {
	if l.price == nil {
		return 0, false
	}
	return *l.price, true
}

// Beds returns the bedroom count, if known.
func (l *Listing) Beds() (int, bool) {
	if l.beds == nil {
		return 0, false
	}
	return *l.beds, true
}

// Baths returns the bathroom count, if known.
func (l *Listing) Baths() (int, bool) {
	if l.baths == nil {
		return 0, false
	}
	return *l.baths, true
}

// ImageCount returns the number of indexed listing images.
func (l *Listing) ImageCount() int { return l.imageCount }

// Tags returns the normalized tag set (feature tags plus image-derived tags).
func (l *Listing) Tags() []string { return l.tags }

// HasTag reports whether the listing carries the given normalized tag.
func (l *Listing) HasTag(tag string) bool {
	tag = NormalizeTag(tag)
	i := sort.SearchStrings(l.tags, tag)
	return i < len(l.tags) && l.tags[i] == tag
}

// NormalizeTag lower-cases a tag and joins words with underscores.
func NormalizeTag(tag string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(tag))), "_")
}

// NormalizeTags normalizes, deduplicates, and sorts a tag list.
// Empty tags are dropped. Always returns a non-nil slice.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		n := NormalizeTag(t)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
