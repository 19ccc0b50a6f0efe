package models

// SkullPost represents a post tracked by the skullboard, either live in the
// posts table (less than 7 days old) or retained in the hall of fame.
type SkullPost struct {
	GuildID   string `db:"guildId"`
	PostID    string `db:"postId"` // Unique per guild
	UserID    string `db:"userId"`
	ChannelID string `db:"channelId"`
	Day       int    `db:"day"` // Day index when the post was made
	Frequency int    `db:"frequency"`
}

// UserRank is one row of the user leaderboard: how many of a user's posts
// ever reached the skull reaction threshold.
type UserRank struct {
	UserID    string `db:"userId"`
	Frequency int    `db:"frequency"`
}

// HistogramBin is one row of a reaction-count frequency table. Bucket is an
// exact reaction count, not a binned range.
type HistogramBin struct {
	Bucket    int `db:"bucket"`
	Frequency int `db:"frequency"`
}

// UserStanding is one user's position in the skullboard rankings: their
// qualifying post count and the percentage of ranked users they beat.
type UserStanding struct {
	Frequency  int
	Percentile float64
	Ranked     int
}
