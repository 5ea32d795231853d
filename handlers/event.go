package handlers

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"shopbot/models"
	"shopbot/states"
)

// Kind classifies an inbound event.
type Kind string

const (
	KindCommand  Kind = "command"
	KindText     Kind = "text"
	KindCallback Kind = "callback"
	KindPhoto    Kind = "photo"
	KindContact  Kind = "contact"
)

// Event is the normalized form of a Telegram update: every handler sees
// the same shape regardless of whether the user typed, pressed a reply
// button, shared a contact or tapped an inline button. The conversation
// state is decoded once, here at the boundary.
type Event struct {
	Kind       Kind
	ChatID     int64
	MessageID  int
	CallbackID string

	User  *models.User
	State states.State

	Text         string
	Command      string
	CommandArgs  string
	Token        string
	PhotoFileID  string
	ContactPhone string
}

// NewEvent builds an Event from a Telegram update. It returns nil for
// update types the engine does not handle.
func NewEvent(update tgbotapi.Update, user *models.User, st states.State) *Event {
	switch {
	case update.CallbackQuery != nil:
		cq := update.CallbackQuery
		ev := &Event{
			Kind:       KindCallback,
			CallbackID: cq.ID,
			User:       user,
			State:      st,
			Token:      cq.Data,
		}
		if cq.Message != nil {
			ev.ChatID = cq.Message.Chat.ID
			ev.MessageID = cq.Message.MessageID
		}
		return ev

	case update.Message != nil:
		msg := update.Message
		ev := &Event{
			ChatID:    msg.Chat.ID,
			MessageID: msg.MessageID,
			User:      user,
			State:     st,
			Text:      msg.Text,
		}
		switch {
		case msg.IsCommand():
			ev.Kind = KindCommand
			ev.Command = msg.Command()
			ev.CommandArgs = msg.CommandArguments()
		case msg.Contact != nil:
			ev.Kind = KindContact
			ev.ContactPhone = msg.Contact.PhoneNumber
		case len(msg.Photo) > 0:
			ev.Kind = KindPhoto
			// Telegram sends several sizes; the last one is the largest.
			ev.PhotoFileID = msg.Photo[len(msg.Photo)-1].FileID
			ev.Text = msg.Caption
		default:
			ev.Kind = KindText
		}
		return ev
	}
	return nil
}

// escape tokens reset any wizard; they are never treated as wizard input.
var escapeTokens = map[string]bool{
	"cancel": true,
	"back":   true,
}

// IsEscape reports whether the event is the universal cancel token.
func (ev *Event) IsEscape() bool {
	if ev.Kind == KindCommand && ev.Command == "cancel" {
		return true
	}
	if ev.Kind != KindText {
		return false
	}
	return escapeTokens[strings.ToLower(strings.TrimSpace(ev.Text))]
}

// SenderID is the Telegram id of the user the event belongs to.
func (ev *Event) SenderID() int64 {
	return ev.User.ID
}
