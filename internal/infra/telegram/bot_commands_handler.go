// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// QueueCounter reports how many acknowledgements await sync.
type QueueCounter interface {
	Count(ctx context.Context) (int, error)
}

// SyncTrigger requests an immediate sync attempt.
type SyncTrigger interface {
	Trigger()
}

const helpText = `Medicine reminders are sent to this chat.
/pending - acknowledgements waiting to be synced
/sync - sync acknowledgements now
/help - this message`

func RegisterBotCommands(
	ctx context.Context,
	b *telebot.Bot,
	chatID int64,
	queue QueueCounter,
	trigger SyncTrigger,
	baseLogger *logrus.Entry,
) {
	cmdLogger := baseLogger.WithField("handler_group", "commands")

	b.Handle("/start", func(c telebot.Context) error {
		logCtx := cmdLogger.WithField("command", "/start").WithField("chat_id", c.Chat().ID)
		logCtx.Info("Processing /start command")
		return c.Send(startReply(c.Chat().ID, chatID))
	})

	b.Handle("/help", func(c telebot.Context) error {
		return c.Send(helpText)
	})

	b.Handle("/pending", func(c telebot.Context) error {
		if c.Chat().ID != chatID {
			return nil
		}
		n, err := queue.Count(ctx)
		if err != nil {
			cmdLogger.WithError(err).Error("Failed to count pending acknowledgements")
			return c.Send("Could not read the acknowledgement queue.")
		}
		return c.Send(fmt.Sprintf("%d acknowledgement(s) waiting to be synced.", n))
	})

	b.Handle("/sync", func(c telebot.Context) error {
		if c.Chat().ID != chatID {
			return nil
		}
		trigger.Trigger()
		cmdLogger.WithField("command", "/sync").Info("Sync requested from Telegram")
		return c.Send("Sync requested.")
	})
}

func startReply(current, configured int64) string {
	if current == configured {
		return "Hi! Medicine reminders are delivered to this chat. Use /help for commands."
	}
	return fmt.Sprintf("Hi! This chat's id is %d. Set TELEGRAM_CHAT_ID=%d on the reminder agent to receive reminders here.", current, current)
}
