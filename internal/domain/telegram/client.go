package telegram

import "gopkg.in/telebot.v3"

// Client sends reminder messages to a Telegram chat.
// Implemented by the telebot adapter in infra; faked in tests.
type Client interface {
	SendMessage(chatID int64, text string, options *telebot.SendOptions) error
}
