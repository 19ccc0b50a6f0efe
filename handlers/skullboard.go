package handlers

import (
	"fmt"
	"log"
	"strings"

	"skullboard-bot/bot"
	"skullboard-bot/models"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/viper"
)

const (
	weeklyTopCount = 5
	rankingsCount  = 10
	hallOfFameSize = 10
)

// HandleSkullboard handles the logic for the /skullboard command.
func HandleSkullboard(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID := i.GuildID
	if guildID == "" {
		respondText(s, i, "The skullboard only works inside a server.", true)
		return
	}

	sub := i.ApplicationCommandData().Options[0]
	emoji := viper.GetString("skullboard.emoji")

	switch sub.Name {
	case "week":
		posts, err := b.Skullboard.TopThisWeek(guildID, weeklyTopCount)
		if err != nil {
			log.Printf("Failed to fetch weekly top posts: %v", err)
			respondText(s, i, "Something went wrong fetching the weekly top posts.", true)
			return
		}
		if len(posts) == 0 {
			respondText(s, i, "No skullboard posts this week yet.", false)
			return
		}
		respondEmbed(s, i, postListEmbed(fmt.Sprintf("Top posts this week %s", emoji), guildID, emoji, posts))

	case "halloffame":
		posts, err := b.Skullboard.HallOfFame(guildID, hallOfFameSize)
		if err != nil {
			log.Printf("Failed to fetch hall of fame: %v", err)
			respondText(s, i, "Something went wrong fetching the hall of fame.", true)
			return
		}
		if len(posts) == 0 {
			respondText(s, i, "The hall of fame is empty so far.", false)
			return
		}
		respondEmbed(s, i, postListEmbed(fmt.Sprintf("Hall of Fame %s", emoji), guildID, emoji, posts))

	case "rankings":
		ranks, err := b.Skullboard.UserRankings(guildID, rankingsCount)
		if err != nil {
			log.Printf("Failed to fetch user rankings: %v", err)
			respondText(s, i, "Something went wrong fetching the rankings.", true)
			return
		}
		if len(ranks) == 0 {
			respondText(s, i, "No ranked users yet.", false)
			return
		}
		var sb strings.Builder
		for n, r := range ranks {
			fmt.Fprintf(&sb, "%d. <@%s> — %d posts\n", n+1, r.UserID, r.Frequency)
		}
		respondEmbed(s, i, &discordgo.MessageEmbed{
			Title:       fmt.Sprintf("Skullboard rankings %s", emoji),
			Description: sb.String(),
		})

	case "me":
		userID := i.Member.User.ID
		standing, err := b.Skullboard.UserStanding(guildID, userID)
		if err != nil {
			log.Printf("Failed to fetch standing for user %s: %v", userID, err)
			respondText(s, i, "Something went wrong fetching your standing.", true)
			return
		}
		if standing.Frequency == 0 {
			respondText(s, i, "You have no skullboard posts yet.", true)
			return
		}
		respondText(s, i, fmt.Sprintf(
			"You have %d skullboard post(s) %s — more than %.0f%% of the %d ranked users.",
			standing.Frequency, emoji, standing.Percentile, standing.Ranked), true)

	case "histogram":
		window := sub.Options[0].StringValue()
		bins, err := b.Skullboard.Histogram(guildID, window)
		if err != nil {
			log.Printf("Failed to fetch %s histogram: %v", window, err)
			respondText(s, i, "Something went wrong fetching the histogram.", true)
			return
		}
		if len(bins) == 0 {
			respondText(s, i, "No reaction data for that window yet.", false)
			return
		}
		respondEmbed(s, i, histogramEmbed(window, emoji, bins))

	default:
		respondText(s, i, "Unknown subcommand.", true)
	}
}

// postListEmbed renders a ranked list of posts with jump links.
func postListEmbed(title, guildID, emoji string, posts []models.SkullPost) *discordgo.MessageEmbed {
	var sb strings.Builder
	for n, p := range posts {
		jumpURL := fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, p.ChannelID, p.PostID)
		fmt.Fprintf(&sb, "%d. %d %s — <@%s> [message](%s)\n", n+1, p.Frequency, emoji, p.UserID, jumpURL)
	}
	return &discordgo.MessageEmbed{Title: title, Description: sb.String()}
}

// histogramEmbed renders an exact reaction-count frequency table.
func histogramEmbed(window, emoji string, bins []models.HistogramBin) *discordgo.MessageEmbed {
	windowNames := map[string]string{
		"7d":   "last 7 days",
		"30d":  "last 30 days",
		"365d": "last 365 days",
		"all":  "all time",
	}
	var sb strings.Builder
	for _, b := range bins {
		fmt.Fprintf(&sb, "%d %s × %d posts\n", b.Bucket, emoji, b.Frequency)
	}
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Skull distribution (%s)", windowNames[window]),
		Description: sb.String(),
	}
}
