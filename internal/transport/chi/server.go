// Package chi implements the HTTP API: natural-language search over property
// listings plus health reporting.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/openhaus/propsearch/internal/domain"
	"github.com/openhaus/propsearch/internal/domain/constraint"
	"github.com/openhaus/propsearch/internal/domain/fused"
	"github.com/openhaus/propsearch/internal/domain/query"
	"github.com/openhaus/propsearch/internal/domain/strategy"
	healthuc "github.com/openhaus/propsearch/internal/usecase/health"
	searchuc "github.com/openhaus/propsearch/internal/usecase/search"
)

// Error response codes.
const (
	codeBadRequest      = "bad_request"
	codeInvalidQuery    = "invalid_query"
	codeRateLimited     = "rate_limited"
	codeEmbeddingError  = "embedding_provider_error"
	codeRetrievalFailed = "retrieval_failed"
	codeInternalError   = "internal_error"
)

// Server exposes the search pipeline over HTTP.
type Server struct {
	search            *searchuc.Service
	health            *healthuc.Service
	defaultCollection string
	logger            *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(search *searchuc.Service, health *healthuc.Service, defaultCollection string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		search:            search,
		health:            health,
		defaultCollection: defaultCollection,
		logger:            logger,
	}
}

// Routes mounts the API handlers on r.
func (s *Server) Routes(r chi.Router) {
	r.Post("/v1/search", s.handleSearch)
	r.Get("/health", s.handleHealth)
}

type searchFilters struct {
	PriceMin *float64 `json:"price_min,omitempty"`
	PriceMax *float64 `json:"price_max,omitempty"`
	BedsMin  *int     `json:"beds_min,omitempty"`
	BathsMin *int     `json:"baths_min,omitempty"`
}

type searchRequest struct {
	Query      string         `json:"query"`
	Size       int            `json:"size,omitempty"`
	Collection string         `json:"collection,omitempty"`
	MultiQuery bool           `json:"multi_query,omitempty"`
	Filters    *searchFilters `json:"filters,omitempty"`
}

type contributionDTO struct {
	Rank         int     `json:"rank"`
	RawScore     float64 `json:"raw_score"`
	Contribution float64 `json:"contribution"`
}

type listingDTO struct {
	Description string   `json:"description"`
	Address     string   `json:"address"`
	Price       *float64 `json:"price"`
	Beds        *int     `json:"beds"`
	Baths       *int     `json:"baths"`
	ImageCount  int      `json:"image_count"`
	Tags        []string `json:"tags"`
}

type hitDTO struct {
	ID              string                      `json:"id"`
	Score           float64                     `json:"score"`
	FusedScore      float64                     `json:"fused_score"`
	BoostMultiplier float64                     `json:"boost_multiplier"`
	MatchRatio      float64                     `json:"match_ratio"`
	Breakdown       map[string]*contributionDTO `json:"breakdown"`
	Listing         listingDTO                  `json:"listing"`
}

type qualityDTO struct {
	Evaluated      int     `json:"evaluated"`
	AvgScore       float64 `json:"avg_score"`
	ScoreVariance  float64 `json:"score_variance"`
	AvgMatchRatio  float64 `json:"avg_match_ratio"`
	PerfectMatches int     `json:"perfect_matches"`
	PartialMatches int     `json:"partial_matches"`
	NoMatches      int     `json:"no_matches"`
	SingleSource   int     `json:"single_source"`
	MultiSource    int     `json:"multi_source"`
	AllSources     int     `json:"all_sources"`
}

type issueDTO struct {
	Stage    string `json:"stage"`
	Strategy string `json:"strategy,omitempty"`
	Message  string `json:"message"`
}

type constraintsDTO struct {
	MustHave        []string `json:"must_have"`
	NiceToHave      []string `json:"nice_to_have"`
	PriceMin        *float64 `json:"price_min,omitempty"`
	PriceMax        *float64 `json:"price_max,omitempty"`
	BedsMin         *int     `json:"beds_min,omitempty"`
	BathsMin        *int     `json:"baths_min,omitempty"`
	Style           string   `json:"style,omitempty"`
	ProximityPOI    string   `json:"proximity_poi,omitempty"`
	MaxDriveTimeMin *int     `json:"max_drive_time_min,omitempty"`
}

type searchResponse struct {
	Results     []hitDTO       `json:"results"`
	Total       int            `json:"total"`
	MultiQuery  bool           `json:"multi_query"`
	Quality     qualityDTO     `json:"quality"`
	Constraints constraintsDTO `json:"constraints"`
	Warnings    []issueDTO     `json:"warnings,omitempty"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}

	collection := req.Collection
	if collection == "" {
		collection = s.defaultCollection
	}
	filters := constraint.HardFilters{}
	if req.Filters != nil {
		filters = constraint.HardFilters{
			PriceMin: req.Filters.PriceMin,
			PriceMax: req.Filters.PriceMax,
			BedsMin:  req.Filters.BedsMin,
			BathsMin: req.Filters.BathsMin,
		}
	}

	q, err := query.New(req.Query, req.Size, filters, req.MultiQuery, collection)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidQuery, safeDomainMessage(err))
		return
	}

	resp, err := s.search.Search(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSearchResponse(&resp))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidQuery):
		writeError(w, http.StatusBadRequest, codeInvalidQuery, safeDomainMessage(err))
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, codeRateLimited, safeDomainMessage(err))
	case errors.Is(err, domain.ErrAllStrategiesFailed):
		writeError(w, http.StatusBadGateway, codeRetrievalFailed, safeDomainMessage(err))
	case errors.Is(err, domain.ErrEmbeddingProviderError):
		writeError(w, http.StatusBadGateway, codeEmbeddingError, safeDomainMessage(err))
	default:
		s.logger.Error("unhandled search error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

func toSearchResponse(resp *searchuc.Response) searchResponse {
	out := searchResponse{
		Results:     make([]hitDTO, 0, len(resp.Results)),
		Total:       resp.Total,
		MultiQuery:  resp.MultiQuery,
		Quality:     toQualityDTO(resp),
		Constraints: toConstraintsDTO(&resp.Constraints),
	}
	for i := range resp.Results {
		out.Results = append(out.Results, toHitDTO(&resp.Results[i], resp.MultiQuery))
	}
	for _, issue := range resp.Warnings {
		out.Warnings = append(out.Warnings, issueDTO{
			Stage:    issue.Stage,
			Strategy: issue.Strategy,
			Message:  issue.Message,
		})
	}
	return out
}

// toHitDTO flattens one fused result. Single-query breakdowns carry an entry
// per retrieval strategy, null when the strategy never returned the document.
// Multi-query breakdowns are keyed by sub-query instead.
func toHitDTO(r *fused.Result, multiQuery bool) hitDTO {
	breakdown := make(map[string]*contributionDTO)
	if multiQuery {
		for _, st := range r.Sources() {
			c, _ := r.Breakdown(st)
			breakdown[string(st)] = toContributionDTO(c)
		}
	} else {
		for _, st := range strategy.All() {
			if c, ok := r.Breakdown(st); ok {
				breakdown[string(st)] = toContributionDTO(c)
			} else {
				breakdown[string(st)] = nil
			}
		}
	}

	l := r.Listing()
	dto := listingDTO{
		Description: l.Description(),
		Address:     l.Address(),
		ImageCount:  l.ImageCount(),
		Tags:        l.Tags(),
	}
	if price, ok := l.Price(); ok {
		dto.Price = &price
	}
	if beds, ok := l.Beds(); ok {
		dto.Beds = &beds
	}
	if baths, ok := l.Baths(); ok {
		dto.Baths = &baths
	}

	return hitDTO{
		ID:              r.ID(),
		Score:           r.BoostedScore(),
		FusedScore:      r.Score(),
		BoostMultiplier: r.BoostMultiplier(),
		MatchRatio:      r.MatchRatio(),
		Breakdown:       breakdown,
		Listing:         dto,
	}
}

func toContributionDTO(c fused.Contribution) *contributionDTO {
	return &contributionDTO{
		Rank:         c.Rank(),
		RawScore:     c.RawScore(),
		Contribution: c.Contribution(),
	}
}

func toQualityDTO(resp *searchuc.Response) qualityDTO {
	q := resp.Quality
	return qualityDTO{
		Evaluated:      q.Evaluated,
		AvgScore:       q.AvgScore,
		ScoreVariance:  q.ScoreVariance,
		AvgMatchRatio:  q.AvgMatchRatio,
		PerfectMatches: q.PerfectMatches,
		PartialMatches: q.PartialMatches,
		NoMatches:      q.NoMatches,
		SingleSource:   q.SingleSource,
		MultiSource:    q.MultiSource,
		AllSources:     q.AllSources,
	}
}

func toConstraintsDTO(c *constraint.Constraints) constraintsDTO {
	hard := c.HardFilters()
	dto := constraintsDTO{
		MustHave:   c.MustHave(),
		NiceToHave: c.NiceToHave(),
		PriceMin:   hard.PriceMin,
		PriceMax:   hard.PriceMax,
		BedsMin:    hard.BedsMin,
		BathsMin:   hard.BathsMin,
		Style:      c.Style(),
	}
	if prox := c.Proximity(); prox != nil {
		dto.ProximityPOI = prox.POIType()
		if drive, ok := prox.MaxDriveTimeMin(); ok {
			dto.MaxDriveTimeMin = &drive
		}
	}
	return dto
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidQuery,
		domain.ErrCollectionNotFound,
		domain.ErrRateLimited,
		domain.ErrAllStrategiesFailed,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return err.Error()
		}
	}
	return "request failed"
}
