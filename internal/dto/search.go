package dto

// SearchRequest is the operator search payload. Coordinates are pointers so a
// missing field can be told apart from the equator or the prime meridian.
type SearchRequest struct {
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	RadiusMeters int      `json:"radius_meters"`
	RatingMin    float64  `json:"rating_min"`
	RatingMax    float64  `json:"rating_max"`
	Language     string   `json:"language"`
	Limit        int      `json:"limit"`
}

// PlaceResult is one ranked venue relative to the search origin.
type PlaceResult struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Address        string  `json:"address"`
	Category       string  `json:"category"`
	Rating         float64 `json:"rating"`
	RatingCount    int     `json:"rating_count"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	DistanceMeters int     `json:"distance_meters"`
	Direction      string  `json:"direction"`
	MapsURL        string  `json:"maps_url"`
}

// SearchResponse wraps ranked results.
type SearchResponse struct {
	Language string        `json:"language"`
	Total    int           `json:"total"`
	Places   []PlaceResult `json:"places"`
}
