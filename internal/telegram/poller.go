package telegram

import (
	"context"
	"log/slog"
	"time"
)

// Poller receives updates with getUpdates long polling.
type Poller struct {
	client  *Client
	handler *UpdateHandler
	timeout time.Duration
	backoff time.Duration
	logger  *slog.Logger
}

// NewPoller creates a new Poller.
func NewPoller(client *Client, handler *UpdateHandler, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		client:  client,
		handler: handler,
		timeout: 50 * time.Second,
		backoff: 3 * time.Second,
		logger:  logger,
	}
}

// Run polls until ctx is cancelled, then waits for in-flight updates.
func (p *Poller) Run(ctx context.Context) error {
	defer p.handler.Wait()

	if err := p.client.DeleteWebhook(ctx, false); err != nil {
		p.logger.Warn("delete webhook failed", "error", err)
	}
	p.logger.Info("polling for updates")

	var offset int64
	for {
		updates, err := p.client.GetUpdates(ctx, offset, p.timeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.logger.Error("get updates failed", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(p.backoff):
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			p.handler.Submit(ctx, u)
		}
	}
}
