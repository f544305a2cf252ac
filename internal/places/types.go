package places

// Nearby Search response statuses.
const (
	StatusOK          = "OK"
	StatusZeroResults = "ZERO_RESULTS"
)

// NearbySearchResponse is one page of a Nearby Search call.
type NearbySearchResponse struct {
	HTMLAttributions []string   `json:"html_attributions"`
	NextPageToken    string     `json:"next_page_token"`
	Results          []RawPlace `json:"results"`
	Status           string     `json:"status"`
	ErrorMessage     string     `json:"error_message,omitempty"`
}

// RawPlace is a provider record as returned by the API, before normalization.
type RawPlace struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	Vicinity         string   `json:"vicinity,omitempty"`
	FormattedAddress string   `json:"formatted_address,omitempty"`
	Rating           *float64 `json:"rating,omitempty"`
	UserRatingsTotal *int     `json:"user_ratings_total,omitempty"`
	Types            []string `json:"types"`
	Geometry         Geometry `json:"geometry"`
	BusinessStatus   string   `json:"business_status,omitempty"`
	PriceLevel       *int     `json:"price_level,omitempty"`
}

// Geometry wraps the place coordinates.
type Geometry struct {
	Location LatLng `json:"location"`
}

// LatLng is the provider's coordinate encoding.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RatingValue returns the rating, treating an absent rating as zero.
func (p RawPlace) RatingValue() float64 {
	if p.Rating == nil {
		return 0
	}
	return *p.Rating
}

// RatingCount returns the number of ratings, treating an absent count as zero.
func (p RawPlace) RatingCount() int {
	if p.UserRatingsTotal == nil || *p.UserRatingsTotal < 0 {
		return 0
	}
	return *p.UserRatingsTotal
}

// Address prefers the short vicinity and falls back to the formatted address.
func (p RawPlace) Address() string {
	if p.Vicinity != "" {
		return p.Vicinity
	}
	return p.FormattedAddress
}
