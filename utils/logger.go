package utils

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/viper"
)

var (
	session     *tgbotapi.BotAPI
	adminChatID int64
)

// InitLogger wires the log mirror to a Telegram admin chat. With no
// bot.adminChatId configured, everything stays on stdout only.
func InitLogger(bot *tgbotapi.BotAPI) {
	session = bot
	adminChatID = viper.GetInt64("bot.adminChatId")
	if adminChatID == 0 {
		log.Println("Warning: bot.adminChatId is not set. Logging to admin chat will be disabled.")
	}
}

// Log writes a structured entry to stdout and mirrors WARN/ERROR entries to
// the admin chat.
func Log(level, module, operation, details string) {
	log.Printf("[%s] Module: %s, Operation: %s, Details: %s", level, module, operation, details)

	if session == nil || adminChatID == 0 || level == "INFO" {
		return
	}

	var icon string
	switch level {
	case "WARN":
		icon = "⚠️"
	case "ERROR":
		icon = "❌"
	default:
		icon = "ℹ️"
	}

	text := fmt.Sprintf("%s *%s* — %s / %s\n%s", icon, level, module, operation, details)
	msg := tgbotapi.NewMessage(adminChatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := session.Send(msg); err != nil {
		log.Printf("Error mirroring log message to admin chat: %v", err)
	}
}

// Info logs an informational message.
func Info(module, operation, details string) {
	Log("INFO", module, operation, details)
}

// Warn logs a warning message.
func Warn(module, operation, details string) {
	Log("WARN", module, operation, details)
}

// Error logs an error message.
func Error(module, operation, details string) {
	Log("ERROR", module, operation, details)
}
