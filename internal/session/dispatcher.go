package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/octobees/venue-finder/internal/chat"
	"github.com/octobees/venue-finder/internal/entity"
	"github.com/octobees/venue-finder/internal/i18n"
	"github.com/octobees/venue-finder/internal/repository"
)

// Handler applies an event to a session.
type Handler interface {
	Handle(ctx context.Context, s entity.SearchSession, ev chat.Event) (entity.SearchSession, error)
}

// Dispatcher serializes events per chat and persists the resulting sessions.
// Different chats are handled in parallel.
type Dispatcher struct {
	handler Handler
	store   Store
	prefs   repository.KVStore
	tr      *i18n.Translator
	locks   *chatLocks
	logger  *slog.Logger
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(handler Handler, store Store, prefs repository.KVStore, tr *i18n.Translator, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		handler: handler,
		store:   store,
		prefs:   prefs,
		tr:      tr,
		locks:   newChatLocks(),
		logger:  logger,
	}
}

// Dispatch handles one inbound event to completion.
//
// The event context is detached from its caller's cancellation: once a search has
// started it runs to the end even if the webhook request that triggered it goes away.
func (d *Dispatcher) Dispatch(ctx context.Context, ev chat.Event) error {
	ctx = context.WithoutCancel(ctx)

	unlock := d.locks.lock(ev.ChatID)
	defer unlock()

	s, ok, err := d.store.Load(ctx, ev.ChatID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if !ok {
		s = entity.NewSearchSession(ev.ChatID, ev.UserID, d.language(ctx, ev.UserID))
	}
	if s.UserID == 0 {
		s.UserID = ev.UserID
	}

	next, handleErr := d.handler.Handle(ctx, s, ev)
	if handleErr != nil {
		d.logger.Error("handle event failed",
			"chat_id", ev.ChatID,
			"kind", ev.Kind,
			"state", s.State,
			"error", handleErr,
		)
	}
	if err := d.store.Save(ctx, next); err != nil {
		return errors.Join(handleErr, fmt.Errorf("save session: %w", err))
	}
	d.logger.Debug("event handled", "chat_id", ev.ChatID, "kind", ev.Kind, "from", s.State, "to", next.State)
	return handleErr
}

// language returns the persisted language of a user, or the default.
func (d *Dispatcher) language(ctx context.Context, userID int64) string {
	code, err := d.prefs.Get(ctx, LanguageKey(userID))
	if err != nil {
		if !errors.Is(err, repository.ErrKeyNotFound) {
			d.logger.Warn("load language failed", "user_id", userID, "error", err)
		}
		return d.tr.Default()
	}
	if !d.tr.IsSupported(code) {
		return d.tr.Default()
	}
	return code
}
