package handlers

import (
	"log"

	"skullboard-bot/bot"
	"skullboard-bot/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/viper"
)

// ReactionAdd handles skull reactions being added to a message.
func ReactionAdd(b *bot.Bot) func(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	return func(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
		handleReaction(b, s, r.GuildID, r.ChannelID, r.MessageID, r.Emoji.Name)
	}
}

// ReactionRemove handles skull reactions being removed from a message.
func ReactionRemove(b *bot.Bot) func(s *discordgo.Session, r *discordgo.MessageReactionRemove) {
	return func(s *discordgo.Session, r *discordgo.MessageReactionRemove) {
		handleReaction(b, s, r.GuildID, r.ChannelID, r.MessageID, r.Emoji.Name)
	}
}

// handleReaction records a post's current skull count. Add and remove events
// are handled identically: rather than trusting the event's direction, the
// message is re-fetched and its authoritative reaction count stored, so
// out-of-order or lost events self-correct on the next reaction. Errors are
// logged and the event dropped; the next reaction re-upserts the latest count.
func handleReaction(b *bot.Bot, s *discordgo.Session, guildID, channelID, messageID, emojiName string) {
	emoji := viper.GetString("skullboard.emoji")
	if emojiName != emoji || guildID == "" {
		return
	}

	msg, err := s.ChannelMessage(channelID, messageID)
	if err != nil {
		log.Printf("Failed to fetch message %s for reaction update: %v", messageID, err)
		return
	}
	// Ignore reactions to the bot's own messages.
	if msg.Author == nil || msg.Author.ID == s.State.User.ID {
		return
	}

	count := 0
	for _, reaction := range msg.Reactions {
		if reaction.Emoji.Name == emoji {
			count = reaction.Count
			break
		}
	}

	day := utils.DayFromTime(msg.Timestamp)
	if err := b.Skullboard.UpdatePost(guildID, msg.ID, msg.Author.ID, channelID, day, count); err != nil {
		log.Printf("Failed to update skull count for post %s: %v", msg.ID, err)
		return
	}

	updateBoardMessage(b, s, guildID, msg, count)
}
