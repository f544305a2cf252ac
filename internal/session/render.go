package session

import (
	"html"
	"strconv"
	"strings"

	"github.com/octobees/venue-finder/internal/chat"
	"github.com/octobees/venue-finder/internal/entity"
	"github.com/octobees/venue-finder/internal/geo"
	"github.com/octobees/venue-finder/internal/i18n"
)

var languageLabels = map[string]string{
	"en": "🇬🇧 English",
	"ru": "🇷🇺 Русский",
	"zh": "🇨🇳 简体中文",
}

// languageKeyboard lists the supported languages in a fixed order.
func languageKeyboard(codes []string) chat.Keyboard {
	ordered := make([]string, 0, len(codes))
	for _, code := range []string{"en", "ru", "zh"} {
		for _, c := range codes {
			if c == code {
				ordered = append(ordered, c)
			}
		}
	}
	for _, c := range codes {
		if _, known := languageLabels[c]; !known {
			ordered = append(ordered, c)
		}
	}

	kb := make(chat.Keyboard, 0, len(ordered))
	for _, code := range ordered {
		label, ok := languageLabels[code]
		if !ok {
			label = strings.ToUpper(code)
		}
		kb = append(kb, []chat.Button{{Text: label, Data: payloadLanguagePrefix + code}})
	}
	return kb
}

func radiusKeyboard(tr *i18n.Translator, lang string) chat.Keyboard {
	kb := make(chat.Keyboard, 0, len(RadiusPresets)+1)
	for _, p := range RadiusPresets {
		kb = append(kb, []chat.Button{{
			Text: tr.Translate("radius_btn", lang, i18n.Params{"radius": p.Meters}),
			Data: p.Payload,
		}})
	}
	kb = append(kb, []chat.Button{{Text: tr.Translate("manual_input_btn", lang, nil), Data: payloadManualRadius}})
	return kb
}

func ratingKeyboard(tr *i18n.Translator, lang string) chat.Keyboard {
	kb := make(chat.Keyboard, 0, len(RatingPresets)+1)
	for _, p := range RatingPresets {
		kb = append(kb, []chat.Button{{Text: tr.Translate(p.LabelKey, lang, nil), Data: p.Payload}})
	}
	kb = append(kb, []chat.Button{{Text: tr.Translate("manual_input_btn", lang, nil), Data: payloadManualRating}})
	return kb
}

func newSearchKeyboard(tr *i18n.Translator, lang string) chat.Keyboard {
	return chat.Keyboard{{{Text: tr.Translate("new_search_btn", lang, nil), Data: payloadNewSearch}}}
}

// placeCard renders one result relative to the user's position.
func placeCard(tr *i18n.Translator, lang string, origin entity.Coordinate, p entity.Place) chat.Message {
	distance := geo.Distance(origin.Latitude, origin.Longitude, p.Location.Latitude, p.Location.Longitude)
	bearing := geo.Bearing(origin.Latitude, origin.Longitude, p.Location.Latitude, p.Location.Longitude)
	direction := geo.BearingToDirection(bearing)

	name := p.Name
	if name == "" {
		name = "—"
	}
	address := p.Address
	if address == "" {
		address = "—"
	}

	lines := []string{
		"📍 <b>" + html.EscapeString(name) + "</b>",
		tr.Translate("card_rating", lang, i18n.Params{
			"rating": tr.Decimal(lang, p.Rating, 1),
			"count":  tr.Number(lang, p.RatingCount),
		}),
		tr.Translate("card_distance", lang, i18n.Params{
			"distance":  tr.Number(lang, distance),
			"direction": tr.Translate(direction.Key(), lang, nil),
		}),
		html.EscapeString(tr.Translate("card_address", lang, i18n.Params{"address": address})),
	}
	if p.Category != "" {
		lines = append(lines, tr.Translate("card_category", lang, i18n.Params{
			"category": tr.Translate("category_"+p.Category, lang, nil),
		}))
	}

	return chat.Message{
		Text: strings.Join(lines, "\n"),
		HTML: true,
		Keyboard: chat.Keyboard{{
			{Text: tr.Translate("open_map_btn", lang, nil), URL: p.MapsURL()},
		}},
	}
}

func ratingFeatureValue(ratingMin, ratingMax float64) string {
	return strconv.FormatFloat(ratingMin, 'f', -1, 64) + "-" + strconv.FormatFloat(ratingMax, 'f', -1, 64)
}
