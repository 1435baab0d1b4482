package main

import "github.com/aziz-turgunoff/kitob-tg-bot/bot"

func main() {
	bot.Run()
}
