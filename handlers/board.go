package handlers

import (
	"fmt"
	"log"
	"sync"
	"time"

	"skullboard-bot/bot"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/viper"
)

// boardMessages maps original message IDs to the mirror message the bot sent
// in the skullboard channel. In-memory only: after a restart the bot posts a
// fresh mirror instead of editing the old one.
var boardMessages = struct {
	sync.Mutex
	m map[string]string
}{m: make(map[string]string)}

// updateBoardMessage keeps the skullboard channel's mirror of a post in sync
// with its reaction count: posted when the count reaches the guild threshold,
// edited as it changes, deleted if it drops back below.
func updateBoardMessage(b *bot.Bot, s *discordgo.Session, guildID string, msg *discordgo.Message, count int) {
	boardChannelID := b.Settings.BoardChannel(guildID)
	if boardChannelID == "" {
		return
	}
	threshold := b.Settings.Threshold(guildID)

	boardMessages.Lock()
	defer boardMessages.Unlock()
	mirrorID, mirrored := boardMessages.m[msg.ID]

	if threshold <= 0 || count < threshold {
		if mirrored {
			if err := s.ChannelMessageDelete(boardChannelID, mirrorID); err != nil {
				log.Printf("Failed to delete skullboard mirror for post %s: %v", msg.ID, err)
			}
			delete(boardMessages.m, msg.ID)
		}
		return
	}

	embed := boardEmbed(s, guildID, msg, count)
	if mirrored {
		if _, err := s.ChannelMessageEditEmbed(boardChannelID, mirrorID, embed); err != nil {
			log.Printf("Failed to edit skullboard mirror for post %s: %v", msg.ID, err)
		}
		return
	}

	mirror, err := s.ChannelMessageSendEmbed(boardChannelID, embed)
	if err != nil {
		log.Printf("Failed to mirror post %s to skullboard channel: %v", msg.ID, err)
		return
	}
	boardMessages.m[msg.ID] = mirror.ID
}

// boardEmbed renders the mirror embed for a qualifying post.
func boardEmbed(s *discordgo.Session, guildID string, msg *discordgo.Message, count int) *discordgo.MessageEmbed {
	emoji := viper.GetString("skullboard.emoji")

	channelName := msg.ChannelID
	if channel, err := s.State.Channel(msg.ChannelID); err == nil {
		channelName = channel.Name
	}

	jumpURL := fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, msg.ChannelID, msg.ID)
	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("%d %s | #%s", count, emoji, channelName),
		Description: fmt.Sprintf("%s\n\n%s\n\n[Click to go to message!](%s)",
			msg.Author.Mention(), msg.Content, jumpURL),
		Timestamp: msg.Timestamp.Format(time.RFC3339),
	}
}
