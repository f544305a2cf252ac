package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/octobees/venue-finder/internal/dto"
	"github.com/octobees/venue-finder/internal/entity"
	"github.com/octobees/venue-finder/internal/i18n"
	"github.com/octobees/venue-finder/internal/service/search"
)

type stubSearcher struct {
	places []entity.Place
	err    error
	got    *search.Params
}

func (s *stubSearcher) Search(ctx context.Context, p search.Params) ([]entity.Place, error) {
	s.got = &p
	return s.places, s.err
}

func newSearchHandler(t *testing.T, searcher *stubSearcher) *SearchHandler {
	t.Helper()
	tr, err := i18n.New(i18n.DefaultLanguage)
	if err != nil {
		t.Fatalf("load translator: %v", err)
	}
	return NewSearchHandler(searcher, tr, nil)
}

func TestSearchHandler_Validation(t *testing.T) {
	e := echo.New()

	tests := map[string]struct {
		body       string
		expectCode int
		field      string
	}{
		"invalid payload":   {body: "{", expectCode: http.StatusBadRequest},
		"missing latitude":  {body: `{"longitude":37.6,"radius_meters":100,"rating_min":4,"rating_max":5}`, expectCode: http.StatusUnprocessableEntity, field: "latitude"},
		"bad longitude":     {body: `{"latitude":55.7,"longitude":190,"radius_meters":100,"rating_min":4,"rating_max":5}`, expectCode: http.StatusUnprocessableEntity, field: "longitude"},
		"radius too large":  {body: `{"latitude":55.7,"longitude":37.6,"radius_meters":7000,"rating_min":4,"rating_max":5}`, expectCode: http.StatusUnprocessableEntity, field: "radius_meters"},
		"inverted band":     {body: `{"latitude":55.7,"longitude":37.6,"radius_meters":100,"rating_min":4.8,"rating_max":4.0}`, expectCode: http.StatusUnprocessableEntity, field: "rating"},
		"limit above max":   {body: `{"latitude":55.7,"longitude":37.6,"radius_meters":100,"rating_min":4,"rating_max":5,"limit":61}`, expectCode: http.StatusUnprocessableEntity, field: "limit"},
		"negative limit":    {body: `{"latitude":55.7,"longitude":37.6,"radius_meters":100,"rating_min":4,"rating_max":5,"limit":-1}`, expectCode: http.StatusUnprocessableEntity, field: "limit"},
		"zero rating floor": {body: `{"latitude":55.7,"longitude":37.6,"radius_meters":100,"rating_min":0,"rating_max":5}`, expectCode: http.StatusUnprocessableEntity, field: "rating"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			searcher := &stubSearcher{}
			c, rec := postJSON(e, "/api/search", tt.body)
			if err := newSearchHandler(t, searcher).Search(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != tt.expectCode {
				t.Fatalf("expected %d, got %d: %s", tt.expectCode, rec.Code, rec.Body.String())
			}
			if searcher.got != nil {
				t.Fatalf("searcher must not run for invalid input")
			}
			if tt.field == "" {
				return
			}
			var payload APIResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if _, ok := payload.Errors[tt.field]; !ok {
				t.Fatalf("expected error for %s, got %+v", tt.field, payload.Errors)
			}
		})
	}
}

func TestSearchHandler_Success(t *testing.T) {
	e := echo.New()
	searcher := &stubSearcher{places: []entity.Place{
		{ID: "a", Name: "North Cafe", Rating: 4.9, RatingCount: 10, Location: entity.Coordinate{Latitude: 55.7518, Longitude: 37.61}, Category: "cafe"},
		{ID: "b", Name: "East Bar", Rating: 4.6, RatingCount: 5, Location: entity.Coordinate{Latitude: 55.75, Longitude: 37.6132}, Category: "bar"},
		{ID: "c", Name: "Third", Rating: 4.5, RatingCount: 1, Location: entity.Coordinate{Latitude: 55.75, Longitude: 37.61}, Category: "food"},
	}}

	c, rec := postJSON(e, "/api/search", `{"latitude":55.75,"longitude":37.61,"radius_meters":500,"rating_min":4.5,"rating_max":5,"language":"en-GB","limit":2}`)
	if err := newSearchHandler(t, searcher).Search(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	want := search.Params{
		Location:     entity.Coordinate{Latitude: 55.75, Longitude: 37.61},
		RadiusMeters: 500,
		RatingMin:    4.5,
		RatingMax:    5,
		Language:     "en",
	}
	if searcher.got == nil || *searcher.got != want {
		t.Fatalf("unexpected search params: %+v", searcher.got)
	}

	var payload struct {
		Data dto.SearchResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	got := payload.Data
	if got.Total != 3 || len(got.Places) != 2 || got.Language != "en" {
		t.Fatalf("unexpected response: %+v", got)
	}
	if got.Places[0].ID != "a" || got.Places[0].Direction != "N" || got.Places[0].DistanceMeters != 200 {
		t.Fatalf("unexpected first place: %+v", got.Places[0])
	}
	if got.Places[1].Direction != "E" || got.Places[1].MapsURL == "" {
		t.Fatalf("unexpected second place: %+v", got.Places[1])
	}
}

func TestSearchHandler_DefaultLimitAndFailures(t *testing.T) {
	e := echo.New()
	body := `{"latitude":0,"longitude":0,"radius_meters":100,"rating_min":1,"rating_max":5}`

	places := make([]entity.Place, 25)
	for i := range places {
		places[i] = entity.Place{ID: string(rune('a' + i)), Rating: 4}
	}
	c, rec := postJSON(e, "/api/search", body)
	if err := newSearchHandler(t, &stubSearcher{places: places}).Search(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var payload struct {
		Data dto.SearchResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Data.Places) != defaultSearchLimit || payload.Data.Language != i18n.DefaultLanguage {
		t.Fatalf("expected default limit and language, got %d %q", len(payload.Data.Places), payload.Data.Language)
	}

	tests := map[string]struct {
		err        error
		expectCode int
	}{
		"provider error": {err: errors.New("malformed"), expectCode: http.StatusBadGateway},
		"timeout":        {err: context.DeadlineExceeded, expectCode: http.StatusGatewayTimeout},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			c, rec := postJSON(e, "/api/search", body)
			if err := newSearchHandler(t, &stubSearcher{err: tt.err}).Search(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != tt.expectCode {
				t.Fatalf("expected %d, got %d", tt.expectCode, rec.Code)
			}
		})
	}
}
