// Package usage records daily usage counters. Counters are written only; nothing
// in the bot reads them back.
package usage

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/octobees/venue-finder/internal/repository"
)

// Feature names tracked per value.
const (
	FeatureRadius = "radius"
	FeatureRating = "rating"
)

// Tracker writes counters through a KVStore. Store failures are logged and swallowed.
type Tracker struct {
	store  repository.KVStore
	logger *slog.Logger
	now    func() time.Time
}

// NewTracker creates a new Tracker.
func NewTracker(store repository.KVStore, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{store: store, logger: logger, now: time.Now}
}

// User marks a user as active today.
func (t *Tracker) User(ctx context.Context, userID int64) {
	key := "stats:users:daily:" + t.today()
	if _, err := t.store.AddToSet(ctx, key, strconv.FormatInt(userID, 10)); err != nil {
		t.logger.Warn("track user failed", "key", key, "error", err)
	}
}

// Search counts a completed search.
func (t *Tracker) Search(ctx context.Context) {
	t.incr(ctx, "stats:searches:daily:"+t.today())
}

// EmptyResult counts a search that found nothing.
func (t *Tracker) EmptyResult(ctx context.Context) {
	t.incr(ctx, "stats:empty_results:daily:"+t.today())
}

// Feedback counts a feedback request.
func (t *Tracker) Feedback(ctx context.Context) {
	t.incr(ctx, "stats:feedback:daily:"+t.today())
}

// Feature counts one use of a feature value, e.g. radius 200.
func (t *Tracker) Feature(ctx context.Context, feature string, value any) {
	t.incr(ctx, fmt.Sprintf("stats:features:%s:%s:%v", feature, t.today(), value))
}

func (t *Tracker) incr(ctx context.Context, key string) {
	if _, err := t.store.Increment(ctx, key, 1); err != nil {
		t.logger.Warn("track counter failed", "key", key, "error", err)
	}
}

func (t *Tracker) today() string {
	return t.now().UTC().Format(time.DateOnly)
}
