package command

import "github.com/bwmarrin/discordgo"

// SkullboardCommand defines the structure for the /skullboard command.
type SkullboardCommand struct{}

// Definition returns the application command definition.
func (c *SkullboardCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "skullboard",
		Description: "Skullboard leaderboards and statistics",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "week",
				Description: "Top skullboard posts of the last 7 days",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
			},
			{
				Name:        "halloffame",
				Description: "The top skullboard posts of all time",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
			},
			{
				Name:        "rankings",
				Description: "Users with the most skullboard posts",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
			},
			{
				Name:        "me",
				Description: "Your skullboard post count and percentile",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
			},
			{
				Name:        "histogram",
				Description: "Distribution of skull reaction counts",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "window",
						Description: "The time window to look at",
						Type:        discordgo.ApplicationCommandOptionString,
						Required:    true,
						Choices: []*discordgo.ApplicationCommandOptionChoice{
							{Name: "Last 7 days", Value: "7d"},
							{Name: "Last 30 days", Value: "30d"},
							{Name: "Last 365 days", Value: "365d"},
							{Name: "All time", Value: "all"},
						},
					},
				},
			},
		},
	}
}

// SkullboardAdminCommand defines the structure for the /skullboard-admin command.
type SkullboardAdminCommand struct{}

// Definition returns the application command definition. The command is only
// visible to members with Manage Server.
func (c *SkullboardAdminCommand) Definition() *discordgo.ApplicationCommand {
	manageServer := int64(discordgo.PermissionManageServer)
	return &discordgo.ApplicationCommand{
		Name:                     "skullboard-admin",
		Description:              "Configure the skullboard for this server",
		DefaultMemberPermissions: &manageServer,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "threshold",
				Description: "Set the minimum skull reactions for a post to qualify",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "count",
						Description: "Minimum reaction count",
						Type:        discordgo.ApplicationCommandOptionInteger,
						Required:    true,
					},
				},
			},
			{
				Name:        "channel",
				Description: "Set the channel qualifying posts are mirrored to",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "channel",
						Description: "The skullboard channel",
						Type:        discordgo.ApplicationCommandOptionChannel,
						Required:    true,
					},
				},
			},
			{
				Name:        "expire",
				Description: "Run an expiry cycle now",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
			},
		},
	}
}

// PingCommand defines the structure for the /ping command.
type PingCommand struct{}

// Definition returns the application command definition.
func (c *PingCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "ping",
		Description: "Pong!",
	}
}
