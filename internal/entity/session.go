package entity

import "errors"

// State is a position in the search dialog.
type State string

// Dialog states.
const (
	StateInit              State = "init"
	StateAwaitLanguage     State = "await_language"
	StateAwaitLocation     State = "await_location"
	StateAwaitRadius       State = "await_radius"
	StateAwaitManualRadius State = "await_manual_radius"
	StateAwaitRating       State = "await_rating"
	StateAwaitManualRating State = "await_manual_rating"
	StateSearching         State = "searching"
	StateAwaitFeedback     State = "await_feedback"
)

// Search parameter bounds.
const (
	MinRadiusMeters = 1
	MaxRadiusMeters = 5000
	MinRating       = 1.0
	MaxRating       = 5.0
)

var (
	// ErrRadiusOutOfRange is returned when a radius falls outside [MinRadiusMeters, MaxRadiusMeters].
	ErrRadiusOutOfRange = errors.New("radius out of range")
	// ErrRatingOutOfRange is returned when a rating band is outside [MinRating, MaxRating] or inverted.
	ErrRatingOutOfRange = errors.New("rating out of range")
)

// SearchSession is the per-conversation record threaded through the dialog.
type SearchSession struct {
	ChatID       int64       `json:"chat_id"`
	UserID       int64       `json:"user_id"`
	Language     string      `json:"language"`
	Location     *Coordinate `json:"location,omitempty"`
	RadiusMeters int         `json:"radius_meters,omitempty"`
	RatingMin    float64     `json:"rating_min,omitempty"`
	RatingMax    float64     `json:"rating_max,omitempty"`
	State        State       `json:"state"`
}

// NewSearchSession returns a session in the initial state.
func NewSearchSession(chatID, userID int64, language string) SearchSession {
	return SearchSession{
		ChatID:   chatID,
		UserID:   userID,
		Language: language,
		State:    StateInit,
	}
}

// Reset clears every collected parameter and returns to StateInit.
// Identity and language survive.
func (s SearchSession) Reset() SearchSession {
	return NewSearchSession(s.ChatID, s.UserID, s.Language)
}

// ValidateRadius checks the session-level radius bounds.
func ValidateRadius(radius int) error {
	if radius < MinRadiusMeters || radius > MaxRadiusMeters {
		return ErrRadiusOutOfRange
	}
	return nil
}

// ValidateRatingBand checks a rating band against the allowed range.
func ValidateRatingBand(ratingMin, ratingMax float64) error {
	// written as negated ranges so NaN is rejected
	if !(ratingMin >= MinRating && ratingMin <= MaxRating) || !(ratingMax >= MinRating && ratingMax <= MaxRating) {
		return ErrRatingOutOfRange
	}
	if ratingMin > ratingMax {
		return ErrRatingOutOfRange
	}
	return nil
}
