// Package constraint defines the structured search constraints derived from a
// free-text query: required feature tags, hard numeric filters, architecture
// style, and proximity requirements.
package constraint

import "github.com/openhaus/propsearch/internal/domain/listing"

// HardFilters are numeric constraints pushed down to the document store.
// Nil means no bound.
type HardFilters struct {
	PriceMin *float64
	PriceMax *float64
	BedsMin  *int
	BathsMin *int
}

// Count returns the number of active bounds.
func (h HardFilters) Count() int {
	n := 0
	if h.PriceMin != nil {
		n++
	}
	if h.PriceMax != nil {
		n++
	}
	if h.BedsMin != nil {
		n++
	}
	if h.BathsMin != nil {
		n++
	}
	return n
}

// IsEmpty reports whether no bound is set.
func (h HardFilters) IsEmpty() bool { return h.Count() == 0 }

// Proximity is a point-of-interest requirement, optionally with a maximum
// drive time in minutes.
type Proximity struct {
	poiType      string
	maxDriveTime *int
}

// NewProximity creates a proximity requirement. maxDriveTime may be nil.
func NewProximity(poiType string, maxDriveTime *int) Proximity {
	return Proximity{poiType: listing.NormalizeTag(poiType), maxDriveTime: maxDriveTime}
}

// POIType returns the point-of-interest type, e.g. "elementary_school".
func (p *Proximity) POIType() string { return p.poiType }

// MaxDriveTimeMin returns the maximum drive time in minutes, if requested.
func (p *Proximity) MaxDriveTimeMin() (int, bool) {
	if p.maxDriveTime == nil {
		return 0, false
	}
	return *p.maxDriveTime, true
}

// Constraints are the structured constraints extracted from one query.
// Tag sets are normalized: lower-case, underscore-separated, deduplicated.
type Constraints struct {
	mustHave   []string
	niceToHave []string
	hard       HardFilters
	style      string
	proximity  *Proximity
}

// New creates Constraints, normalizing both tag sets and the style tag.
func New(
	mustHave, niceToHave []string,
	hard HardFilters,
	style string,
	proximity *Proximity,
) Constraints {
	return Constraints{
		mustHave:   listing.NormalizeTags(mustHave),
		niceToHave: listing.NormalizeTags(niceToHave),
		hard:       hard,
		style:      listing.NormalizeTag(style),
		proximity:  proximity,
	}
}

// Empty returns constraints with nothing detected.
func Empty() Constraints {
	return Constraints{mustHave: []string{}, niceToHave: []string{}}
}

// MustHave returns the required feature tags.
func (c *Constraints) MustHave() []string { return c.mustHave }

// NiceToHave returns the optional feature tags.
func (c *Constraints) NiceToHave() []string { return c.niceToHave }

// HardFilters returns the numeric push-down filters.
func (c *Constraints) HardFilters() HardFilters { return c.hard }

// Style returns the architecture style tag, or "" when none was detected.
func (c *Constraints) Style() string { return c.style }

// Proximity returns the proximity requirement, or nil.
func (c *Constraints) Proximity() *Proximity { return c.proximity }

// Restrictiveness counts how many post-retrieval eliminations the constraints
// imply; the query planner deepens candidate pools as this grows.
func (c *Constraints) Restrictiveness() int {
	n := c.hard.Count() + len(c.mustHave)
	if c.style != "" {
		n++
	}
	return n
}

// IsEmpty reports whether nothing was extracted from the query.
func (c Constraints) IsEmpty() bool {
	return len(c.mustHave) == 0 && len(c.niceToHave) == 0 &&
		c.hard.IsEmpty() && c.style == "" && c.proximity == nil
}
