package entity

import (
	"fmt"
	"net/url"
)

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Place represents a venue returned by the provider after normalization.
type Place struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Address     string     `json:"address"`
	Rating      float64    `json:"rating"`
	RatingCount int        `json:"rating_count"`
	Location    Coordinate `json:"location"`
	Category    string     `json:"category"`
}

// MapsURL links to the place on Google Maps.
func (p Place) MapsURL() string {
	q := url.Values{}
	q.Set("api", "1")
	q.Set("query", fmt.Sprintf("%.6f,%.6f", p.Location.Latitude, p.Location.Longitude))
	if p.ID != "" {
		q.Set("query_place_id", p.ID)
	}
	return "https://www.google.com/maps/search/?" + q.Encode()
}
