package telegram

import (
	"encoding/json"
	"strings"

	"github.com/octobees/venue-finder/internal/chat"
	"github.com/octobees/venue-finder/internal/entity"
)

// Update is one inbound Bot API update. Only the fields the bot reacts to are decoded.
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

// Message is an inbound chat message.
type Message struct {
	MessageID int64     `json:"message_id"`
	From      *User     `json:"from,omitempty"`
	Chat      Chat      `json:"chat"`
	Text      string    `json:"text,omitempty"`
	Location  *Location `json:"location,omitempty"`
}

// User is a Telegram account.
type User struct {
	ID           int64  `json:"id"`
	IsBot        bool   `json:"is_bot"`
	FirstName    string `json:"first_name"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

// Chat identifies a conversation.
type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// Location is a shared geo point.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// CallbackQuery is an inline button press.
type CallbackQuery struct {
	ID      string   `json:"id"`
	From    User     `json:"from"`
	Message *Message `json:"message,omitempty"`
	Data    string   `json:"data,omitempty"`
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	Description string          `json:"description,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
}

type inlineKeyboardMarkup struct {
	InlineKeyboard [][]chat.Button `json:"inline_keyboard"`
}

type keyboardButton struct {
	Text            string `json:"text"`
	RequestLocation bool   `json:"request_location,omitempty"`
}

type replyKeyboardMarkup struct {
	Keyboard        [][]keyboardButton `json:"keyboard"`
	ResizeKeyboard  bool               `json:"resize_keyboard"`
	OneTimeKeyboard bool               `json:"one_time_keyboard"`
}

type replyKeyboardRemove struct {
	RemoveKeyboard bool `json:"remove_keyboard"`
}

type sendMessageRequest struct {
	ChatID      int64  `json:"chat_id"`
	Text        string `json:"text"`
	ParseMode   string `json:"parse_mode,omitempty"`
	ReplyMarkup any    `json:"reply_markup,omitempty"`
}

func newSendMessageRequest(chatID int64, msg chat.Message) sendMessageRequest {
	req := sendMessageRequest{ChatID: chatID, Text: msg.Text}
	if msg.HTML {
		req.ParseMode = "HTML"
	}
	switch {
	case len(msg.Keyboard) > 0:
		req.ReplyMarkup = inlineKeyboardMarkup{InlineKeyboard: msg.Keyboard}
	case msg.RequestLocation != "":
		req.ReplyMarkup = replyKeyboardMarkup{
			Keyboard:        [][]keyboardButton{{{Text: msg.RequestLocation, RequestLocation: true}}},
			ResizeKeyboard:  true,
			OneTimeKeyboard: true,
		}
	case msg.RemoveKeyboard:
		req.ReplyMarkup = replyKeyboardRemove{RemoveKeyboard: true}
	}
	return req
}

// Event converts an update into a chat event. ok is false for updates the bot ignores.
func (u Update) Event() (chat.Event, bool) {
	if cb := u.CallbackQuery; cb != nil {
		if cb.Message == nil {
			return chat.Event{}, false
		}
		return chat.Event{
			ChatID:       cb.Message.Chat.ID,
			UserID:       cb.From.ID,
			Kind:         chat.KindButton,
			Payload:      cb.Data,
			LanguageCode: cb.From.LanguageCode,
		}, true
	}

	m := u.Message
	if m == nil {
		return chat.Event{}, false
	}
	ev := chat.Event{ChatID: m.Chat.ID}
	if m.From != nil {
		ev.UserID = m.From.ID
		ev.LanguageCode = m.From.LanguageCode
	}

	switch {
	case m.Location != nil:
		ev.Kind = chat.KindLocation
		ev.Location = &entity.Coordinate{Latitude: m.Location.Latitude, Longitude: m.Location.Longitude}
	case strings.HasPrefix(m.Text, "/"):
		ev.Kind = chat.KindCommand
		ev.Payload = m.Text
	case m.Text != "":
		ev.Kind = chat.KindText
		ev.Payload = m.Text
	default:
		return chat.Event{}, false
	}
	return ev, true
}
