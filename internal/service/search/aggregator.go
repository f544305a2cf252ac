// Package search fans a place query out across venue categories and merges the
// per-category results into one ranked list.
package search

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/octobees/venue-finder/internal/entity"
	"github.com/octobees/venue-finder/internal/places"
)

const tracerName = "github.com/octobees/venue-finder/internal/service/search"

// DefaultCategories is the category order used when none is configured.
var DefaultCategories = []string{"restaurant", "cafe", "bar"}

// categoryPriority decides which provider type labels a place.
var categoryPriority = []string{
	"restaurant",
	"cafe",
	"bar",
	"bakery",
	"meal_takeaway",
	"meal_delivery",
	"food",
	"point_of_interest",
	"establishment",
}

const defaultCategory = "food"

// CategoryFetcher loads raw provider records for one category.
type CategoryFetcher interface {
	FetchCategory(ctx context.Context, q places.Query) ([]places.RawPlace, error)
}

// Params are the frozen search parameters of one request.
type Params struct {
	Location     entity.Coordinate
	RadiusMeters int
	RatingMin    float64
	RatingMax    float64
	Language     string
}

// Aggregator queries every configured category concurrently.
type Aggregator struct {
	fetcher    CategoryFetcher
	categories []string
	logger     *slog.Logger
	tracer     trace.Tracer
}

// NewAggregator creates a new Aggregator. An empty category list falls back to DefaultCategories.
func NewAggregator(fetcher CategoryFetcher, categories []string, logger *slog.Logger) *Aggregator {
	if len(categories) == 0 {
		categories = DefaultCategories
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		fetcher:    fetcher,
		categories: append([]string(nil), categories...),
		logger:     logger,
		tracer:     otel.Tracer(tracerName),
	}
}

// Categories returns the configured category order.
func (a *Aggregator) Categories() []string {
	return append([]string(nil), a.categories...)
}

// Search returns every place inside the rating band, best first.
//
// All categories run to completion before merging. If any category fails, the
// joined error is returned and the partial results are discarded.
func (a *Aggregator) Search(ctx context.Context, p Params) ([]entity.Place, error) {
	ctx, span := a.tracer.Start(ctx, "search.Aggregate", trace.WithAttributes(
		attribute.Int("search.radius", p.RadiusMeters),
		attribute.Float64("search.rating_min", p.RatingMin),
		attribute.Float64("search.rating_max", p.RatingMax),
		attribute.Int("search.categories", len(a.categories)),
	))
	defer span.End()

	type slot struct {
		records []places.RawPlace
		err     error
	}

	var (
		wg    sync.WaitGroup
		slots = make([]slot, len(a.categories))
	)

	for i, category := range a.categories {
		wg.Go(func() {
			records, err := a.fetcher.FetchCategory(ctx, places.Query{
				Latitude:     p.Location.Latitude,
				Longitude:    p.Location.Longitude,
				RadiusMeters: p.RadiusMeters,
				Category:     category,
				Language:     p.Language,
			})
			slots[i] = slot{records: records, err: err}
		})
	}

	wg.Wait()

	var errs []error
	merged := make([]places.RawPlace, 0)
	for i, s := range slots {
		if s.err != nil {
			a.logger.Error("category search failed", "category", a.categories[i], "error", s.err)
			errs = append(errs, s.err)
			continue
		}
		merged = append(merged, s.records...)
	}
	if len(errs) > 0 {
		err := errors.Join(errs...)
		span.RecordError(err)
		span.SetStatus(codes.Error, "category search failed")
		return nil, err
	}

	result := Rank(Filter(Normalize(Dedup(merged)), p.RatingMin, p.RatingMax))

	a.logger.Info("search completed",
		"radius", p.RadiusMeters,
		"rating_min", p.RatingMin,
		"rating_max", p.RatingMax,
		"raw", len(merged),
		"results", len(result),
	)
	span.SetAttributes(attribute.Int("search.results", len(result)))
	return result, nil
}

// Dedup keeps the first record for every place id. Records without an id are dropped.
func Dedup(records []places.RawPlace) []places.RawPlace {
	seen := make(map[string]struct{}, len(records))
	out := make([]places.RawPlace, 0, len(records))
	for _, r := range records {
		id := strings.TrimSpace(r.PlaceID)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Normalize converts raw records into places.
func Normalize(records []places.RawPlace) []entity.Place {
	out := make([]entity.Place, 0, len(records))
	for _, r := range records {
		out = append(out, entity.Place{
			ID:          strings.TrimSpace(r.PlaceID),
			Name:        strings.TrimSpace(r.Name),
			Address:     r.Address(),
			Rating:      r.RatingValue(),
			RatingCount: r.RatingCount(),
			Location: entity.Coordinate{
				Latitude:  r.Geometry.Location.Lat,
				Longitude: r.Geometry.Location.Lng,
			},
			Category: primaryCategory(r.Types),
		})
	}
	return out
}

// Filter keeps places whose rating lies inside [ratingMin, ratingMax].
func Filter(list []entity.Place, ratingMin, ratingMax float64) []entity.Place {
	out := make([]entity.Place, 0, len(list))
	for _, p := range list {
		if p.Rating >= ratingMin && p.Rating <= ratingMax {
			out = append(out, p)
		}
	}
	return out
}

// Rank orders places by rating, then rating count, both descending. Equal places keep
// their merge order.
func Rank(list []entity.Place) []entity.Place {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Rating != list[j].Rating {
			return list[i].Rating > list[j].Rating
		}
		return list[i].RatingCount > list[j].RatingCount
	})
	return list
}

// Top returns at most n places from the head of a ranked list.
func Top(list []entity.Place, n int) []entity.Place {
	if n <= 0 {
		return []entity.Place{}
	}
	if len(list) <= n {
		return list
	}
	return list[:n]
}

func primaryCategory(types []string) string {
	for _, candidate := range categoryPriority {
		for _, t := range types {
			if t == candidate {
				return candidate
			}
		}
	}
	return defaultCategory
}
