package handler

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/octobees/venue-finder/internal/dto"
	"github.com/octobees/venue-finder/internal/entity"
	"github.com/octobees/venue-finder/internal/geo"
	"github.com/octobees/venue-finder/internal/service/search"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 60
)

// PlaceSearcher runs the aggregated venue search.
type PlaceSearcher interface {
	Search(ctx context.Context, p search.Params) ([]entity.Place, error)
}

// LanguageResolver maps client language codes onto supported ones.
type LanguageResolver interface {
	Resolve(code string) string
}

// SearchHandler exposes the venue search to operators.
type SearchHandler struct {
	searcher  PlaceSearcher
	languages LanguageResolver
	logger    *slog.Logger
}

// NewSearchHandler constructs a SearchHandler.
func NewSearchHandler(searcher PlaceSearcher, languages LanguageResolver, logger *slog.Logger) *SearchHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchHandler{searcher: searcher, languages: languages, logger: logger}
}

// Search handles POST /api/search requests.
func (h *SearchHandler) Search(c echo.Context) error {
	var req dto.SearchRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	if fields := validateSearch(&req); len(fields) > 0 {
		return ValidationError(c, fields)
	}

	lang := h.languages.Resolve(req.Language)
	origin := entity.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude}
	found, err := h.searcher.Search(c.Request().Context(), search.Params{
		Location:     origin,
		RadiusMeters: req.RadiusMeters,
		RatingMin:    req.RatingMin,
		RatingMax:    req.RatingMax,
		Language:     lang,
	})
	if err != nil {
		h.logger.Error("operator search failed", "error", err)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Error(c, http.StatusGatewayTimeout, "search timed out")
		}
		return Error(c, http.StatusBadGateway, "places provider unavailable")
	}

	top := search.Top(found, req.Limit)
	resp := dto.SearchResponse{
		Language: lang,
		Total:    len(found),
		Places:   make([]dto.PlaceResult, 0, len(top)),
	}
	for _, p := range top {
		resp.Places = append(resp.Places, toPlaceResult(origin, p))
	}

	return Success(c, http.StatusOK, "search completed", resp)
}

func validateSearch(req *dto.SearchRequest) map[string]string {
	fields := map[string]string{}
	if req.Latitude == nil || math.IsNaN(*req.Latitude) || *req.Latitude < -90 || *req.Latitude > 90 {
		fields["latitude"] = "must be between -90 and 90"
	}
	if req.Longitude == nil || math.IsNaN(*req.Longitude) || *req.Longitude < -180 || *req.Longitude > 180 {
		fields["longitude"] = "must be between -180 and 180"
	}
	if err := entity.ValidateRadius(req.RadiusMeters); err != nil {
		fields["radius_meters"] = err.Error()
	}
	if err := entity.ValidateRatingBand(req.RatingMin, req.RatingMax); err != nil {
		fields["rating"] = err.Error()
	}
	switch {
	case req.Limit == 0:
		req.Limit = defaultSearchLimit
	case req.Limit < 0 || req.Limit > maxSearchLimit:
		fields["limit"] = "must be between 1 and 60"
	}
	return fields
}

func toPlaceResult(origin entity.Coordinate, p entity.Place) dto.PlaceResult {
	bearing := geo.Bearing(origin.Latitude, origin.Longitude, p.Location.Latitude, p.Location.Longitude)
	return dto.PlaceResult{
		ID:             p.ID,
		Name:           p.Name,
		Address:        p.Address,
		Category:       p.Category,
		Rating:         p.Rating,
		RatingCount:    p.RatingCount,
		Latitude:       p.Location.Latitude,
		Longitude:      p.Location.Longitude,
		DistanceMeters: geo.Distance(origin.Latitude, origin.Longitude, p.Location.Latitude, p.Location.Longitude),
		Direction:      geo.BearingToDirection(bearing).String(),
		MapsURL:        p.MapsURL(),
	}
}
