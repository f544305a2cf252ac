package telegram

import (
	"context"
	"log/slog"
	"sync"

	"github.com/octobees/venue-finder/internal/chat"
)

// Dispatcher consumes chat events.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev chat.Event) error
}

// CallbackAnswerer acknowledges button presses.
type CallbackAnswerer interface {
	AnswerCallback(ctx context.Context, callbackID string) error
}

// UpdateHandler turns updates into events. Updates of one chat are processed in
// arrival order; different chats run concurrently.
type UpdateHandler struct {
	dispatcher Dispatcher
	answerer   CallbackAnswerer
	logger     *slog.Logger

	mu     sync.Mutex
	queues map[int64][]Update
	wg     sync.WaitGroup
}

// NewUpdateHandler creates a new UpdateHandler.
func NewUpdateHandler(dispatcher Dispatcher, answerer CallbackAnswerer, logger *slog.Logger) *UpdateHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UpdateHandler{
		dispatcher: dispatcher,
		answerer:   answerer,
		logger:     logger,
		queues:     make(map[int64][]Update),
	}
}

// HandleUpdate processes one update synchronously.
func (h *UpdateHandler) HandleUpdate(ctx context.Context, u Update) {
	if cb := u.CallbackQuery; cb != nil && h.answerer != nil {
		if err := h.answerer.AnswerCallback(ctx, cb.ID); err != nil {
			h.logger.Warn("answer callback failed", "update_id", u.UpdateID, "error", err)
		}
	}

	ev, ok := u.Event()
	if !ok {
		h.logger.Debug("update ignored", "update_id", u.UpdateID)
		return
	}
	if err := h.dispatcher.Dispatch(ctx, ev); err != nil {
		h.logger.Error("dispatch failed", "update_id", u.UpdateID, "chat_id", ev.ChatID, "error", err)
	}
}

// Submit queues an update and returns immediately.
func (h *UpdateHandler) Submit(ctx context.Context, u Update) {
	ev, ok := u.Event()
	if !ok {
		// nothing to order against; still acknowledge stray callbacks
		h.HandleUpdate(ctx, u)
		return
	}
	ctx = context.WithoutCancel(ctx)

	h.mu.Lock()
	defer h.mu.Unlock()
	queue, running := h.queues[ev.ChatID]
	h.queues[ev.ChatID] = append(queue, u)
	if !running {
		h.wg.Go(func() { h.drain(ctx, ev.ChatID) })
	}
}

// Wait blocks until every submitted update has been processed.
func (h *UpdateHandler) Wait() {
	h.wg.Wait()
}

func (h *UpdateHandler) drain(ctx context.Context, chatID int64) {
	for {
		h.mu.Lock()
		queue := h.queues[chatID]
		if len(queue) == 0 {
			delete(h.queues, chatID)
			h.mu.Unlock()
			return
		}
		next := queue[0]
		h.queues[chatID] = queue[1:]
		h.mu.Unlock()

		h.HandleUpdate(ctx, next)
	}
}
