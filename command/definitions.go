package command

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// Definitions lists the commands the bot advertises through setMyCommands.
func Definitions() []tgbotapi.BotCommand {
	return []tgbotapi.BotCommand{
		{
			Command:     "start",
			Description: "Botni ishga tushirish",
		},
		{
			Command:     "help",
			Description: "Yordam olish",
		},
		{
			Command:     "status",
			Description: "Bot statusini ko'rish (adminlar uchun)",
		},
		{
			Command:     "repost",
			Description: "Eski postlarni qayta joylash (adminlar uchun)",
		},
		{
			Command:     "addadmin",
			Description: "Admin qo'shish (adminlar uchun)",
		},
	}
}
