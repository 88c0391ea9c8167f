// internal/infra/telegram/sink.go
package telegram

import (
	"context"
	"fmt"

	"medicine_reminder/internal/domain/notification"
	domaintelegram "medicine_reminder/internal/domain/telegram"

	"gopkg.in/telebot.v3"
)

// Sink delivers reminders to one Telegram chat with the notification's
// action buttons attached.
type Sink struct {
	client domaintelegram.Client
	chatID int64
}

func NewSink(client domaintelegram.Client, chatID int64) *Sink {
	return &Sink{client: client, chatID: chatID}
}

func (s *Sink) Name() string { return "telegram" }

// Granted is true once a chat is configured; Telegram needs no local permission.
func (s *Sink) Granted(context.Context) bool { return s.chatID != 0 }

func (s *Sink) Notify(_ context.Context, msg notification.Message) error {
	text := fmt.Sprintf("%s\n\n%s", msg.Title, msg.Body)

	opts := &telebot.SendOptions{ParseMode: telebot.ModeDefault}
	if len(msg.Actions) > 0 {
		opts.ReplyMarkup = actionKeyboard(msg)
	}
	if err := s.client.SendMessage(s.chatID, text, opts); err != nil {
		return fmt.Errorf("failed to send reminder to chat %d: %w", s.chatID, err)
	}
	return nil
}

func actionKeyboard(msg notification.Message) *telebot.ReplyMarkup {
	replyMarkup := &telebot.ReplyMarkup{}
	btns := make([]telebot.Btn, 0, len(msg.Actions))
	for _, a := range msg.Actions {
		btns = append(btns, replyMarkup.Data(a.Title, string(a.Action), msg.ScheduleID))
	}
	replyMarkup.Inline(replyMarkup.Row(btns...))
	return replyMarkup
}
