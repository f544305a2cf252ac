package chat

import (
	"context"
	"sync"
)

// Sent is a message captured by Recorder.
type Sent struct {
	ChatID  int64
	Message Message
}

// Recorder is an in-memory Sender for tests and dry runs.
type Recorder struct {
	mu   sync.Mutex
	sent []Sent
	Err  error
}

// Send records the message.
func (r *Recorder) Send(_ context.Context, chatID int64, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.sent = append(r.sent, Sent{ChatID: chatID, Message: msg})
	return nil
}

// Messages returns a copy of everything sent so far.
func (r *Recorder) Messages() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sent(nil), r.sent...)
}

// Reset forgets recorded messages.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.sent = nil
	r.mu.Unlock()
}
