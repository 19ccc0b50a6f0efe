package main

import (
	"skullboard-bot/bot"
	"skullboard-bot/command"
	"skullboard-bot/handlers"
)

func main() {
	bot.Run(handlers.Register, command.GetCommandDefinitions())
}
