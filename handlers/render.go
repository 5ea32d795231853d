package handlers

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Render is the single outgoing instruction a handler produces. The
// dispatcher hands it to the MessageSink; handlers never talk to the
// Telegram API directly.
type Render struct {
	ChatID      int64
	Text        string
	ParseMode   string
	Inline      *tgbotapi.InlineKeyboardMarkup
	Reply       interface{}
	PhotoFileID string
	// Notice is flashed in the callback answer popup, if any.
	Notice string
}

// MessageSink delivers renders to the chat platform.
type MessageSink interface {
	Send(ctx context.Context, r *Render) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

type telegramSink struct {
	bot    *tgbotapi.BotAPI
	logger *zap.Logger
}

// NewTelegramSink wraps a bot API client as a MessageSink.
func NewTelegramSink(bot *tgbotapi.BotAPI, logger *zap.Logger) MessageSink {
	return &telegramSink{bot: bot, logger: logger}
}

func (s *telegramSink) Send(ctx context.Context, r *Render) error {
	if r == nil || r.ChatID == 0 {
		return nil
	}

	var msg tgbotapi.Chattable
	if r.PhotoFileID != "" {
		photo := tgbotapi.NewPhoto(r.ChatID, tgbotapi.FileID(r.PhotoFileID))
		photo.Caption = r.Text
		photo.ParseMode = r.ParseMode
		if r.Inline != nil {
			photo.ReplyMarkup = *r.Inline
		}
		msg = photo
	} else {
		text := tgbotapi.NewMessage(r.ChatID, r.Text)
		text.ParseMode = r.ParseMode
		switch {
		case r.Inline != nil:
			text.ReplyMarkup = *r.Inline
		case r.Reply != nil:
			text.ReplyMarkup = r.Reply
		}
		msg = text
	}

	if _, err := s.bot.Send(msg); err != nil {
		s.logger.Error("send failed", zap.Int64("chat_id", r.ChatID), zap.Error(err))
		return err
	}
	return nil
}

func (s *telegramSink) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if callbackID == "" {
		return nil
	}
	_, err := s.bot.Request(tgbotapi.NewCallback(callbackID, text))
	if err != nil {
		s.logger.Warn("callback answer failed", zap.Error(err))
	}
	return err
}
