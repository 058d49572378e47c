// Package extract turns free-text property queries into structured search
// constraints. The primary path delegates to an external NLU service; a
// deterministic keyword fallback covers its absence or failure, so extraction
// never fails outright.
package extract

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/openhaus/propsearch/internal/domain/constraint"
	"github.com/openhaus/propsearch/internal/domain/listing"
)

// Service extracts constraints from query text.
type Service struct {
	parser  Parser // nil disables the NLU path
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a constraint extractor. parser may be nil.
func New(parser Parser, timeout time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{parser: parser, timeout: timeout, logger: logger}
}

// Extract returns best-effort constraints for the query text. Malformed input
// yields empty constraints, never an error.
func (s *Service) Extract(ctx context.Context, text string) constraint.Constraints {
	if s.parser != nil {
		pctx, cancel := context.WithTimeout(ctx, s.timeout)
		parsed, err := s.parser.Parse(pctx, text)
		cancel()
		if err == nil {
			return sanitize(parsed)
		}
		s.logger.Warn("nlu parse failed, using keyword fallback", zap.Error(err))
	}

	return extractFallback(text)
}

// sanitize validates and cleans untrusted NLU output: tags are normalized,
// unknown styles dropped, numeric filters coerced to sane bounds.
func sanitize(p Parsed) constraint.Constraints {
	hard := constraint.HardFilters{}
	if p.PriceMin != nil && *p.PriceMin > 0 {
		hard.PriceMin = p.PriceMin
	}
	if p.PriceMax != nil && *p.PriceMax > 0 {
		hard.PriceMax = p.PriceMax
	}
	if hard.PriceMin != nil && hard.PriceMax != nil && *hard.PriceMin > *hard.PriceMax {
		hard.PriceMin, hard.PriceMax = nil, nil
	}
	if p.BedsMin != nil && *p.BedsMin > 0 {
		hard.BedsMin = p.BedsMin
	}
	if p.BathsMin != nil && *p.BathsMin > 0 {
		hard.BathsMin = p.BathsMin
	}

	style := listing.NormalizeTag(p.Style)
	if !isKnownStyle(style) {
		style = ""
	}

	var prox *constraint.Proximity
	if poi := listing.NormalizeTag(p.ProximityPOI); poi != "" {
		drive := p.MaxDriveTimeMin
		if drive != nil && *drive <= 0 {
			drive = nil
		}
		px := constraint.NewProximity(poi, drive)
		prox = &px
	}

	return constraint.New(p.MustHave, p.NiceToHave, hard, style, prox)
}
