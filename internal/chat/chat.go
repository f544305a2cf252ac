// Package chat defines the transport-neutral shapes exchanged between the dialog
// and a messaging platform.
package chat

import (
	"context"

	"github.com/octobees/venue-finder/internal/entity"
)

// EventKind classifies an inbound event.
type EventKind string

// Inbound event kinds.
const (
	KindCommand  EventKind = "command"
	KindText     EventKind = "text"
	KindLocation EventKind = "location"
	KindButton   EventKind = "button"
)

// Event is one inbound user action.
type Event struct {
	ChatID       int64
	UserID       int64
	Kind         EventKind
	Payload      string
	Location     *entity.Coordinate
	LanguageCode string
}

// Button is an inline keyboard button. Either Data or URL is set.
type Button struct {
	Text string `json:"text"`
	Data string `json:"callback_data,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Keyboard is a grid of inline buttons.
type Keyboard [][]Button

// Message is one outbound message.
type Message struct {
	Text     string
	HTML     bool
	Keyboard Keyboard
	// RequestLocation, when set, is the label of a one-time button asking for the
	// user's location.
	RequestLocation string
	RemoveKeyboard  bool
}

// Sender delivers outbound messages.
type Sender interface {
	Send(ctx context.Context, chatID int64, msg Message) error
}
