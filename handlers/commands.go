package handlers

import (
	"log"

	"skullboard-bot/bot"

	"github.com/bwmarrin/discordgo"
)

// CommandDispatcher is the central handler for all application command
// interactions. It dispatches the interaction to the appropriate handler.
func CommandDispatcher(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	commandName := i.ApplicationCommandData().Name

	switch commandName {
	case "skullboard":
		HandleSkullboard(b, s, i)
	case "skullboard-admin":
		HandleSkullboardAdmin(b, s, i)
	case "ping":
		HandlePing(s, i)
	default:
		log.Printf("Received unknown command: %s", commandName)
		respondText(s, i, "Unknown command.", true)
	}
}

// HandlePing handles the logic for the /ping command.
func HandlePing(s *discordgo.Session, i *discordgo.InteractionCreate) {
	respondText(s, i, "Pong!", true)
}

// respondText sends a plain text interaction response.
func respondText(s *discordgo.Session, i *discordgo.InteractionCreate, content string, ephemeral bool) {
	data := &discordgo.InteractionResponseData{Content: content}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		log.Printf("Failed to respond to interaction: %v", err)
	}
}

// respondEmbed sends an embed interaction response.
func respondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
	if err != nil {
		log.Printf("Failed to respond to interaction: %v", err)
	}
}
