// internal/infra/telegram/action_handlers.go
package telegram

import (
	"context"

	"medicine_reminder/internal/domain/acknowledgement"
	"medicine_reminder/internal/domain/notification"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// ActionHandler routes a pressed notification action.
type ActionHandler interface {
	Handle(ctx context.Context, action, scheduleID string) (*acknowledgement.Record, error)
}

var actionReplies = map[string]string{
	string(notification.ActionTake):   "Marked as taken",
	string(notification.ActionSnooze): "Snoozed",
}

// RegisterActionHandlers wires the inline buttons attached by Sink. Presses
// from chats other than chatID are ignored.
func RegisterActionHandlers(ctx context.Context, b *telebot.Bot, chatID int64, actions ActionHandler, baseLogger *logrus.Entry) {
	for _, btn := range notification.DefaultActions {
		action := string(btn.Action)
		b.Handle(&telebot.Btn{Unique: action}, func(c telebot.Context) error {
			scheduleID := c.Callback().Data
			logCtx := baseLogger.WithField("action", action).WithField("schedule_id", scheduleID)

			if chat := c.Chat(); chat == nil || chat.ID != chatID {
				logCtx.Warn("Ignoring action from an unknown chat")
				return c.Respond(&telebot.CallbackResponse{Text: "This chat does not receive reminders."})
			}

			if _, err := actions.Handle(ctx, action, scheduleID); err != nil {
				logCtx.WithError(err).Error("Failed to handle Telegram action")
				return c.Respond(&telebot.CallbackResponse{Text: "Could not save, please try again."})
			}
			reply, ok := actionReplies[action]
			if !ok {
				reply = "OK"
			}
			return c.Respond(&telebot.CallbackResponse{Text: reply})
		})
	}
}
