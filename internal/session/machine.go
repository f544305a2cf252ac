// Package session drives the search dialog: it collects a location, a radius and a
// rating band from the user, then runs the search and renders the results.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/octobees/venue-finder/internal/chat"
	"github.com/octobees/venue-finder/internal/entity"
	"github.com/octobees/venue-finder/internal/i18n"
	"github.com/octobees/venue-finder/internal/repository"
	"github.com/octobees/venue-finder/internal/service/search"
	"github.com/octobees/venue-finder/internal/service/usage"
)

// DefaultResultLimit is how many places are shown per search.
const DefaultResultLimit = 3

// Searcher runs a place search.
type Searcher interface {
	Search(ctx context.Context, p search.Params) ([]entity.Place, error)
}

// LanguageKey is the store key holding a user's language.
func LanguageKey(userID int64) string {
	return "user_lang:" + strconv.FormatInt(userID, 10)
}

// Options tune optional machine behaviour.
type Options struct {
	// AdminChatID receives relayed feedback. Zero disables the relay.
	AdminChatID int64
	ResultLimit int
}

// Machine applies one inbound event to a session.
type Machine struct {
	searcher    Searcher
	sender      chat.Sender
	tr          *i18n.Translator
	prefs       repository.KVStore
	usage       *usage.Tracker
	adminChatID int64
	resultLimit int
	logger      *slog.Logger
}

// NewMachine wires the dialog dependencies.
func NewMachine(searcher Searcher, sender chat.Sender, tr *i18n.Translator, prefs repository.KVStore, tracker *usage.Tracker, opts Options, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	if tracker == nil {
		tracker = usage.NewTracker(prefs, logger)
	}
	limit := opts.ResultLimit
	if limit <= 0 {
		limit = DefaultResultLimit
	}
	return &Machine{
		searcher:    searcher,
		sender:      sender,
		tr:          tr,
		prefs:       prefs,
		usage:       tracker,
		adminChatID: opts.AdminChatID,
		resultLimit: limit,
		logger:      logger,
	}
}

// Handle applies ev to s and returns the next session value.
//
// The returned session is always valid and should be stored even when an error is
// returned; errors report delivery failures only. Commands are evaluated before any
// state-specific handling.
func (m *Machine) Handle(ctx context.Context, s entity.SearchSession, ev chat.Event) (entity.SearchSession, error) {
	if ev.Kind == chat.KindCommand {
		if next, handled, err := m.handleCommand(ctx, s, normalizeCommand(ev.Payload)); handled {
			return next, err
		}
	}
	if ev.Kind == chat.KindButton && ev.Payload == payloadNewSearch {
		return m.startNewSearch(ctx, s)
	}

	switch s.State {
	case entity.StateAwaitLanguage:
		return m.onLanguage(ctx, s, ev)
	case entity.StateAwaitLocation:
		return m.onLocation(ctx, s, ev)
	case entity.StateAwaitRadius:
		return m.onRadius(ctx, s, ev)
	case entity.StateAwaitManualRadius:
		return m.onManualRadius(ctx, s, ev)
	case entity.StateAwaitRating:
		return m.onRating(ctx, s, ev)
	case entity.StateAwaitManualRating:
		return m.onManualRating(ctx, s, ev)
	case entity.StateAwaitFeedback:
		return m.onFeedback(ctx, s, ev)
	default:
		return s, m.send(ctx, s, chat.Message{Text: m.t(s, "unexpected_input", nil)})
	}
}

func (m *Machine) handleCommand(ctx context.Context, s entity.SearchSession, cmd string) (entity.SearchSession, bool, error) {
	switch cmd {
	case cmdStart, cmdLanguage:
		m.usage.User(ctx, s.UserID)
		next := s.Reset()
		next.State = entity.StateAwaitLanguage
		return next, true, m.send(ctx, next, chat.Message{
			Text:     m.t(next, "select_language", nil),
			Keyboard: languageKeyboard(m.tr.Supported()),
		})
	case cmdRestart, cmdCancel:
		next := s.Reset()
		return next, true, m.send(ctx, next, chat.Message{Text: m.t(next, "restarted", nil), RemoveKeyboard: true})
	case cmdFeedback:
		m.usage.Feedback(ctx)
		next := s.Reset()
		next.State = entity.StateAwaitFeedback
		return next, true, m.send(ctx, next, chat.Message{Text: m.t(next, "feedback_prompt", nil), RemoveKeyboard: true})
	case cmdNewSearch:
		next, err := m.startNewSearch(ctx, s)
		return next, true, err
	default:
		// unknown commands fall through to state handling, so feedback may start with "/"
		return s, false, nil
	}
}

func (m *Machine) startNewSearch(ctx context.Context, s entity.SearchSession) (entity.SearchSession, error) {
	m.usage.User(ctx, s.UserID)
	next := s.Reset()
	next.State = entity.StateAwaitLocation
	return next, m.requestLocation(ctx, next, "request_location")
}

func (m *Machine) onLanguage(ctx context.Context, s entity.SearchSession, ev chat.Event) (entity.SearchSession, error) {
	code, ok := strings.CutPrefix(ev.Payload, payloadLanguagePrefix)
	if ev.Kind != chat.KindButton || !ok || !m.tr.IsSupported(code) {
		return s, m.send(ctx, s, chat.Message{
			Text:     m.t(s, "select_language", nil),
			Keyboard: languageKeyboard(m.tr.Supported()),
		})
	}

	s.Language = code
	if err := m.prefs.Set(ctx, LanguageKey(s.UserID), code); err != nil {
		m.logger.Error("persist language failed", "user_id", s.UserID, "error", err)
	}
	s.State = entity.StateAwaitLocation
	return s, m.requestLocation(ctx, s, "request_location")
}

func (m *Machine) onLocation(ctx context.Context, s entity.SearchSession, ev chat.Event) (entity.SearchSession, error) {
	if ev.Kind != chat.KindLocation || ev.Location == nil {
		return s, m.requestLocation(ctx, s, "location_expected")
	}

	loc := *ev.Location
	s.Location = &loc
	s.State = entity.StateAwaitRadius
	return s, m.sendAll(ctx, s,
		chat.Message{Text: m.t(s, "location_received", nil), RemoveKeyboard: true},
		chat.Message{Text: m.t(s, "select_radius", nil), Keyboard: radiusKeyboard(m.tr, s.Language)},
	)
}

func (m *Machine) onRadius(ctx context.Context, s entity.SearchSession, ev chat.Event) (entity.SearchSession, error) {
	if ev.Kind == chat.KindButton {
		if ev.Payload == payloadManualRadius {
			s.State = entity.StateAwaitManualRadius
			return s, m.send(ctx, s, chat.Message{Text: m.t(s, "enter_manual_radius", radiusBounds())})
		}
		if preset, ok := findRadiusPreset(ev.Payload); ok {
			return m.acceptRadius(ctx, s, preset.Meters)
		}
	}
	return s, m.send(ctx, s, chat.Message{Text: m.t(s, "select_radius", nil), Keyboard: radiusKeyboard(m.tr, s.Language)})
}

func (m *Machine) onManualRadius(ctx context.Context, s entity.SearchSession, ev chat.Event) (entity.SearchSession, error) {
	if ev.Kind != chat.KindText {
		return s, m.send(ctx, s, chat.Message{Text: m.t(s, "enter_manual_radius", radiusBounds())})
	}
	radius, err := ParseManualRadius(ev.Payload)
	if err != nil {
		return s, m.reject(ctx, s, err, radiusBounds())
	}
	return m.acceptRadius(ctx, s, radius)
}

func (m *Machine) acceptRadius(ctx context.Context, s entity.SearchSession, radius int) (entity.SearchSession, error) {
	m.usage.Feature(ctx, usage.FeatureRadius, radius)
	s.RadiusMeters = radius
	s.State = entity.StateAwaitRating
	return s, m.send(ctx, s, chat.Message{Text: m.t(s, "select_rating_range", nil), Keyboard: ratingKeyboard(m.tr, s.Language)})
}

func (m *Machine) onRating(ctx context.Context, s entity.SearchSession, ev chat.Event) (entity.SearchSession, error) {
	if ev.Kind == chat.KindButton {
		if ev.Payload == payloadManualRating {
			s.State = entity.StateAwaitManualRating
			return s, m.send(ctx, s, chat.Message{Text: m.t(s, "enter_manual_rating", ratingBounds())})
		}
		if preset, ok := findRatingPreset(ev.Payload); ok {
			return m.runSearch(ctx, s, preset.Min, preset.Max)
		}
	}
	return s, m.send(ctx, s, chat.Message{Text: m.t(s, "select_rating_range", nil), Keyboard: ratingKeyboard(m.tr, s.Language)})
}

func (m *Machine) onManualRating(ctx context.Context, s entity.SearchSession, ev chat.Event) (entity.SearchSession, error) {
	if ev.Kind != chat.KindText {
		return s, m.send(ctx, s, chat.Message{Text: m.t(s, "enter_manual_rating", ratingBounds())})
	}
	rating, err := ParseManualRating(ev.Payload)
	if err != nil {
		return s, m.reject(ctx, s, err, ratingBounds())
	}
	return m.runSearch(ctx, s, rating, entity.MaxRating)
}

func (m *Machine) onFeedback(ctx context.Context, s entity.SearchSession, ev chat.Event) (entity.SearchSession, error) {
	text := strings.TrimSpace(ev.Payload)
	if (ev.Kind != chat.KindText && ev.Kind != chat.KindCommand) || text == "" {
		return s, m.send(ctx, s, chat.Message{Text: m.t(s, "feedback_prompt", nil)})
	}

	if m.adminChatID == 0 {
		m.logger.Warn("feedback relay skipped, no admin chat configured", "user_id", s.UserID)
	} else {
		relay := chat.Message{Text: m.tr.Translate("feedback_relay", m.tr.Default(), i18n.Params{
			"user_id": s.UserID,
			"text":    text,
		})}
		if err := m.sender.Send(ctx, m.adminChatID, relay); err != nil {
			m.logger.Error("feedback relay failed", "user_id", s.UserID, "error", err)
		}
	}

	next := s.Reset()
	return next, m.send(ctx, next, chat.Message{Text: m.t(next, "feedback_thanks", nil)})
}

// runSearch clears the session before searching so a repeated event cannot start
// a second search for the same parameters.
func (m *Machine) runSearch(ctx context.Context, s entity.SearchSession, ratingMin, ratingMax float64) (entity.SearchSession, error) {
	cleared := s.Reset()

	if s.Location == nil || entity.ValidateRadius(s.RadiusMeters) != nil || entity.ValidateRatingBand(ratingMin, ratingMax) != nil {
		m.logger.Error("incomplete search parameters", "chat_id", s.ChatID, "state", s.State)
		return cleared, m.send(ctx, cleared, chat.Message{Text: m.t(cleared, "unexpected_input", nil)})
	}

	params := search.Params{
		Location:     *s.Location,
		RadiusMeters: s.RadiusMeters,
		RatingMin:    ratingMin,
		RatingMax:    ratingMax,
		Language:     s.Language,
	}
	searchID := uuid.NewString()
	logger := m.logger.With("search_id", searchID, "chat_id", s.ChatID)
	m.usage.Feature(ctx, usage.FeatureRating, ratingFeatureValue(ratingMin, ratingMax))

	if err := m.send(ctx, cleared, chat.Message{Text: m.t(cleared, "searching", nil)}); err != nil {
		return cleared, err
	}

	logger.Info("search started",
		"radius", params.RadiusMeters,
		"rating_min", params.RatingMin,
		"rating_max", params.RatingMax,
		"lang", params.Language,
	)
	found, err := m.searcher.Search(ctx, params)
	if err != nil {
		logger.Error("search failed", "error", err)
		return cleared, m.send(ctx, cleared, chat.Message{Text: m.t(cleared, "search_failed", nil)})
	}
	m.usage.Search(ctx)

	top := search.Top(found, m.resultLimit)
	logger.Info("search finished", "found", len(found), "shown", len(top))
	if len(top) == 0 {
		m.usage.EmptyResult(ctx)
		return cleared, m.send(ctx, cleared, chat.Message{
			Text:     m.t(cleared, "no_results", nil) + "\n" + m.t(cleared, "try_another_range", nil),
			Keyboard: newSearchKeyboard(m.tr, cleared.Language),
		})
	}

	msgs := make([]chat.Message, 0, len(top)+2)
	msgs = append(msgs, chat.Message{Text: m.t(cleared, "results_header", i18n.Params{"radius": params.RadiusMeters})})
	for _, p := range top {
		msgs = append(msgs, placeCard(m.tr, cleared.Language, params.Location, p))
	}
	msgs = append(msgs, chat.Message{
		Text:     m.t(cleared, "search_again", nil),
		Keyboard: newSearchKeyboard(m.tr, cleared.Language),
	})
	return cleared, m.sendAll(ctx, cleared, msgs...)
}

func (m *Machine) requestLocation(ctx context.Context, s entity.SearchSession, key string) error {
	return m.send(ctx, s, chat.Message{
		Text:            m.t(s, key, nil),
		RequestLocation: m.t(s, "send_location_btn", nil),
	})
}

func (m *Machine) reject(ctx context.Context, s entity.SearchSession, err error, params i18n.Params) error {
	var inputErr InputError
	if !errors.As(err, &inputErr) {
		return fmt.Errorf("unexpected input error: %w", err)
	}
	m.logger.Debug("input rejected", "chat_id", s.ChatID, "state", s.State, "reason", inputErr.Error())
	return m.send(ctx, s, chat.Message{Text: m.t(s, inputErr.Key, params)})
}

func (m *Machine) t(s entity.SearchSession, key string, params i18n.Params) string {
	return m.tr.Translate(key, s.Language, params)
}

func (m *Machine) send(ctx context.Context, s entity.SearchSession, msg chat.Message) error {
	if err := m.sender.Send(ctx, s.ChatID, msg); err != nil {
		return fmt.Errorf("send to chat %d: %w", s.ChatID, err)
	}
	return nil
}

func (m *Machine) sendAll(ctx context.Context, s entity.SearchSession, msgs ...chat.Message) error {
	var errs []error
	for _, msg := range msgs {
		if err := m.send(ctx, s, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func radiusBounds() i18n.Params {
	return i18n.Params{"min": entity.MinRadiusMeters, "max": entity.MaxRadiusMeters}
}

func ratingBounds() i18n.Params {
	return i18n.Params{"min": "1.0", "max": "5.0"}
}
