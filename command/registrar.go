package command

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Register publishes the command list to Telegram so clients show the menu.
func Register(bot *tgbotapi.BotAPI) error {
	cfg := tgbotapi.NewSetMyCommands(Definitions()...)
	if _, err := bot.Request(cfg); err != nil {
		return fmt.Errorf("failed to register bot commands: %w", err)
	}
	return nil
}
