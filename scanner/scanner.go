package scanner

import (
	"log"
	"time"

	"skullboard-bot/database"
	"skullboard-bot/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/viper"
)

// messagesPerChannel caps how far back the backfill walks a channel.
const messagesPerChannel = 200

// Backfill walks the recent history of every text channel the bot can see and
// re-records the current skull reaction count of each post still inside the
// tracking window. Upserts are last-write-wins, so running this after downtime
// simply corrects any counts the bot missed.
func Backfill(s *discordgo.Session, sdb *database.SkullboardDB) {
	log.Println("Starting reaction backfill...")
	emoji := viper.GetString("skullboard.emoji")
	cutoff := time.Now().AddDate(0, 0, -7)

	scanned := 0
	for _, guild := range s.State.Guilds {
		channels, err := s.GuildChannels(guild.ID)
		if err != nil {
			log.Printf("Failed to get channels for guild %s: %v", guild.ID, err)
			continue
		}

		for _, channel := range channels {
			if channel.Type != discordgo.ChannelTypeGuildText {
				continue
			}
			scanned += backfillChannel(s, sdb, guild.ID, channel.ID, emoji, cutoff)
		}
	}
	log.Printf("Reaction backfill finished, %d posts updated.", scanned)
}

// backfillChannel pages backwards through one channel until it runs out of
// messages older than the cutoff. Returns how many posts were updated.
func backfillChannel(s *discordgo.Session, sdb *database.SkullboardDB, guildID, channelID, emoji string, cutoff time.Time) int {
	updated := 0
	beforeID := ""

	for fetched := 0; fetched < messagesPerChannel; {
		messages, err := s.ChannelMessages(channelID, 100, beforeID, "", "")
		if err != nil {
			log.Printf("Failed to fetch messages for channel %s: %v", channelID, err)
			return updated
		}
		if len(messages) == 0 {
			return updated
		}

		for _, msg := range messages {
			fetched++
			beforeID = msg.ID
			if msg.Timestamp.Before(cutoff) {
				return updated
			}
			if msg.Author == nil || msg.Author.ID == s.State.User.ID {
				continue
			}

			count := 0
			for _, reaction := range msg.Reactions {
				if reaction.Emoji.Name == emoji {
					count = reaction.Count
					break
				}
			}
			if count == 0 {
				continue
			}

			day := utils.DayFromTime(msg.Timestamp)
			if err := sdb.UpdatePost(guildID, msg.ID, msg.Author.ID, channelID, day, count); err != nil {
				log.Printf("Failed to backfill post %s: %v", msg.ID, err)
				continue
			}
			updated++
		}
	}
	return updated
}
