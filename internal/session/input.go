package session

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/octobees/venue-finder/internal/entity"
)

// Button payloads.
const (
	payloadLanguagePrefix = "lang_"
	payloadManualRadius   = "manual_radius_input"
	payloadManualRating   = "manual_rating_input"
	payloadNewSearch      = "new_search"
)

// Commands.
const (
	cmdStart     = "/start"
	cmdLanguage  = "/language"
	cmdFeedback  = "/feedback"
	cmdRestart   = "/restart"
	cmdCancel    = "/cancel"
	cmdNewSearch = "/newsearch"
)

// ErrInvalidFormat is wrapped by InputError when free text cannot be parsed.
var ErrInvalidFormat = errors.New("invalid number format")

// InputError describes rejected user input. Key names the localized message shown to the user.
type InputError struct {
	Key string
	Err error
}

// Error implements the error interface.
func (e InputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Key, e.Err)
	}
	return e.Key
}

// Unwrap exposes the underlying cause.
func (e InputError) Unwrap() error {
	return e.Err
}

// RadiusPreset is a one-tap radius choice.
type RadiusPreset struct {
	Meters  int
	Payload string
}

// RatingPreset is a one-tap rating band.
type RatingPreset struct {
	Min, Max float64
	Payload  string
	LabelKey string
}

// RadiusPresets are offered on the radius keyboard.
var RadiusPresets = []RadiusPreset{
	{Meters: 50, Payload: "radius_50"},
	{Meters: 100, Payload: "radius_100"},
	{Meters: 200, Payload: "radius_200"},
}

// RatingPresets are contiguous, non-overlapping bands; the last one ends at MaxRating.
var RatingPresets = []RatingPreset{
	{Min: 4.0, Max: 4.49, Payload: "rating_4.0_4.49", LabelKey: "rating_range_1"},
	{Min: 4.5, Max: 4.79, Payload: "rating_4.5_4.79", LabelKey: "rating_range_2"},
	{Min: 4.8, Max: 5.0, Payload: "rating_4.8_5.0", LabelKey: "rating_range_3"},
}

func findRadiusPreset(payload string) (RadiusPreset, bool) {
	for _, p := range RadiusPresets {
		if p.Payload == payload {
			return p, true
		}
	}
	return RadiusPreset{}, false
}

func findRatingPreset(payload string) (RatingPreset, bool) {
	for _, p := range RatingPresets {
		if p.Payload == payload {
			return p, true
		}
	}
	return RatingPreset{}, false
}

// ParseManualRadius parses a typed radius in whole meters.
func ParseManualRadius(text string) (int, error) {
	radius, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, InputError{Key: "invalid_radius_format", Err: ErrInvalidFormat}
	}
	if err := entity.ValidateRadius(radius); err != nil {
		return 0, InputError{Key: "invalid_radius_range", Err: err}
	}
	return radius, nil
}

// ParseManualRating parses a typed minimum rating. Both '.' and ',' are accepted as the
// decimal separator.
func ParseManualRating(text string) (float64, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	rating, err := strconv.ParseFloat(normalized, 64)
	if err != nil || math.IsNaN(rating) || math.IsInf(rating, 0) {
		return 0, InputError{Key: "invalid_rating_format", Err: ErrInvalidFormat}
	}
	if err := entity.ValidateRatingBand(rating, entity.MaxRating); err != nil {
		return 0, InputError{Key: "invalid_rating_range", Err: err}
	}
	return rating, nil
}

// normalizeCommand turns "/Start@venue_bot payload" into "/start".
func normalizeCommand(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	cmd := fields[0]
	if at := strings.IndexByte(cmd, '@'); at >= 0 {
		cmd = cmd[:at]
	}
	return strings.ToLower(cmd)
}
