package handlers

import (
	"fmt"
	"log"
	"strconv"

	"skullboard-bot/bot"
	"skullboard-bot/database"

	"github.com/bwmarrin/discordgo"
)

// HandleSkullboardAdmin handles the logic for the /skullboard-admin command.
func HandleSkullboardAdmin(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID := i.GuildID
	if guildID == "" {
		respondText(s, i, "This command only works inside a server.", true)
		return
	}

	sub := i.ApplicationCommandData().Options[0]
	switch sub.Name {
	case "threshold":
		count := sub.Options[0].IntValue()
		if count < 0 {
			respondText(s, i, "The threshold must be zero or higher.", true)
			return
		}
		if err := b.Settings.Set(guildID, database.SettingThreshold, strconv.FormatInt(count, 10)); err != nil {
			log.Printf("Failed to store threshold for guild %s: %v", guildID, err)
			respondText(s, i, "Failed to store the new threshold.", true)
			return
		}
		respondText(s, i, fmt.Sprintf("Skullboard threshold set to %d reactions.", count), true)

	case "channel":
		channel := sub.Options[0].ChannelValue(s)
		if err := b.Settings.Set(guildID, database.SettingBoardChannel, channel.ID); err != nil {
			log.Printf("Failed to store board channel for guild %s: %v", guildID, err)
			respondText(s, i, "Failed to store the skullboard channel.", true)
			return
		}
		respondText(s, i, fmt.Sprintf("Skullboard channel set to <#%s>.", channel.ID), true)

	case "expire":
		// Respond to the interaction immediately and run the cycle in the
		// background; it can take a while on large guilds.
		respondText(s, i, "Running an expiry cycle...", true)
		go func() {
			if err := b.Skullboard.Expire(); err != nil {
				log.Printf("Manual expiry cycle failed: %v", err)
				s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
					Content: "The expiry cycle finished with errors, check the logs.",
				})
				return
			}
			s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
				Content: "Expiry cycle complete.",
			})
		}()

	default:
		respondText(s, i, "Unknown subcommand.", true)
	}
}
