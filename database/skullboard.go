package database

import (
	"database/sql"
	"fmt"

	"skullboard-bot/models"
	"skullboard-bot/utils"
)

// Retention windows, in days.
const (
	trackedDays = 7   // posts younger than this stay live in the posts table
	bucketDays  = 365 // day buckets older than this fold into the alltime table
	hofCapacity = 100 // hall of fame keeps this many posts per guild
)

// maxFrequency caps a post's stored reaction count.
const maxFrequency = 255

// SkullboardDB manages the skullboard ledger and its long-term retention
// tables. Posts younger than 7 days are "tracked": reaction events keep
// overwriting their counts. Older posts are migrated once into the retention
// tables by Expire and removed from the ledger.
type SkullboardDB struct {
	db       *sql.DB
	settings *SettingsDB

	// currentDay is swappable so tests can pin the clock.
	currentDay func() int
}

// NewSkullboardDB creates a skullboard manager on top of an open database.
func NewSkullboardDB(db *sql.DB, settings *SettingsDB) *SkullboardDB {
	return &SkullboardDB{
		db:         db,
		settings:   settings,
		currentDay: utils.CurrentDay,
	}
}

// UpdatePost records the current skull reaction count for a post, inserting
// it if unseen. The count is clamped to [0, 255]. Events for posts already
// older than the tracking window are dropped rather than resurrecting the
// post in the ledger; re-applying the same count is a no-op.
func (s *SkullboardDB) UpdatePost(guildID, postID, userID, channelID string, day, count int) error {
	// Do not update posts older than 7 days.
	if day <= s.currentDay()-trackedDays {
		return nil
	}

	if count < 0 {
		count = 0
	} else if count > maxFrequency {
		count = maxFrequency
	}

	_, err := s.db.Exec(
		`INSERT INTO posts (guildId, postId, userId, channelId, day, frequency)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT(guildId, postId) DO UPDATE SET frequency = excluded.frequency`,
		guildID, postID, userID, channelID, day, count,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert post %s in guild %s: %w", postID, guildID, err)
	}
	return nil
}

// TopThisWeek returns the top tracked posts of the last 7 days, highest
// reaction count first. Equal counts rank the older post first so today's
// posts don't crowd out earlier ones.
func (s *SkullboardDB) TopThisWeek(guildID string, limit int) ([]models.SkullPost, error) {
	rows, err := s.db.Query(
		`SELECT postId, userId, channelId, day, frequency
         FROM posts
         WHERE guildId = ?
         ORDER BY frequency DESC, day ASC
         LIMIT ?`,
		guildID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query weekly top posts for guild %s: %w", guildID, err)
	}
	defer rows.Close()

	return scanPosts(rows, guildID)
}

// HallOfFame returns the top posts of all time that reached the guild's
// threshold: the stored hall of fame plus any tracked post already qualifying
// before its expiry, ordered by reaction count with newer posts winning ties.
func (s *SkullboardDB) HallOfFame(guildID string, limit int) ([]models.SkullPost, error) {
	threshold := s.settings.Threshold(guildID)

	rows, err := s.db.Query(
		`SELECT postId, userId, channelId, day, frequency
         FROM (
             SELECT postId, userId, channelId, day, frequency
             FROM posts
             WHERE guildId = ? AND frequency >= ?

             UNION ALL

             SELECT postId, userId, channelId, day, frequency
             FROM hof
             WHERE guildId = ?
         )
         ORDER BY frequency DESC, day DESC
         LIMIT ?`,
		guildID, threshold, guildID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query hall of fame for guild %s: %w", guildID, err)
	}
	defer rows.Close()

	return scanPosts(rows, guildID)
}

// UserRankings returns users ordered by how many of their posts ever reached
// the guild's threshold. Tracked posts are counted fresh (one per qualifying
// post); expired posts come pre-aggregated from the users table, so the query
// never rescans history.
func (s *SkullboardDB) UserRankings(guildID string, limit int) ([]models.UserRank, error) {
	threshold := s.settings.Threshold(guildID)

	rows, err := s.db.Query(
		`SELECT userId, SUM(frequency) AS total_frequency
         FROM (
             SELECT userId, COUNT(*) AS frequency
             FROM posts
             WHERE guildId = ? AND frequency >= ?
             GROUP BY userId

             UNION ALL

             SELECT userId, frequency
             FROM users
             WHERE guildId = ?
         )
         GROUP BY userId
         ORDER BY total_frequency DESC
         LIMIT ?`,
		guildID, threshold, guildID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query user rankings for guild %s: %w", guildID, err)
	}
	defer rows.Close()

	var ranks []models.UserRank
	for rows.Next() {
		var r models.UserRank
		if err := rows.Scan(&r.UserID, &r.Frequency); err != nil {
			return nil, fmt.Errorf("failed to scan user ranking row: %w", err)
		}
		ranks = append(ranks, r)
	}
	return ranks, rows.Err()
}

// UserStanding returns one user's qualifying post count together with the
// share of ranked users they beat, for "where do I sit" statistics. The
// percentile is computed over the same live-plus-retained totals the rankings
// use. A user with no qualifying posts gets a zero standing.
func (s *SkullboardDB) UserStanding(guildID, userID string) (models.UserStanding, error) {
	threshold := s.settings.Threshold(guildID)

	rows, err := s.db.Query(
		`SELECT userId, SUM(frequency) AS total_frequency
         FROM (
             SELECT userId, COUNT(*) AS frequency
             FROM posts
             WHERE guildId = ? AND frequency >= ?
             GROUP BY userId

             UNION ALL

             SELECT userId, frequency
             FROM users
             WHERE guildId = ?
         )
         GROUP BY userId`,
		guildID, threshold, guildID,
	)
	if err != nil {
		return models.UserStanding{}, fmt.Errorf("failed to query user totals for guild %s: %w", guildID, err)
	}
	defer rows.Close()

	// One row per ranked user; small enough to finish the math here.
	var standing models.UserStanding
	totals := make(map[string]int)
	for rows.Next() {
		var id string
		var total int
		if err := rows.Scan(&id, &total); err != nil {
			return models.UserStanding{}, fmt.Errorf("failed to scan user total row: %w", err)
		}
		totals[id] = total
	}
	if err := rows.Err(); err != nil {
		return models.UserStanding{}, err
	}

	standing.Ranked = len(totals)
	standing.Frequency = totals[userID]
	if standing.Frequency == 0 || standing.Ranked == 0 {
		return models.UserStanding{Ranked: standing.Ranked}, nil
	}

	below := 0
	for _, total := range totals {
		if total < standing.Frequency {
			below++
		}
	}
	standing.Percentile = 100 * float64(below) / float64(standing.Ranked)
	return standing, nil
}

// Histogram window names accepted by Histogram.
const (
	Window7Days   = "7d"
	Window30Days  = "30d"
	Window365Days = "365d"
	WindowAllTime = "all"
)

// Histogram returns the distribution of skull reaction counts over a window.
// Buckets are exact reaction counts; zero-reaction posts are excluded. The 7d
// window reads only the live ledger, the larger windows add the retained day
// buckets, and the all-time window adds the folded alltime buckets too.
func (s *SkullboardDB) Histogram(guildID, window string) ([]models.HistogramBin, error) {
	var (
		query string
		args  []any
	)

	switch window {
	case Window7Days:
		query = `
            SELECT frequency AS bucket, COUNT(*) AS count
            FROM posts
            WHERE guildId = ? AND frequency > 0
            GROUP BY bucket
            ORDER BY bucket`
		args = []any{guildID}

	case Window30Days:
		monthAgo := s.currentDay() - 31
		query = `
            SELECT bucket, SUM(count) AS count
            FROM (
                SELECT bucket, SUM(frequency) AS count
                FROM days
                WHERE guildId = ? AND day > ?
                GROUP BY bucket

                UNION ALL

                SELECT frequency AS bucket, COUNT(*) AS count
                FROM posts
                WHERE guildId = ?
                GROUP BY frequency
            ) AS t
            WHERE bucket > 0
            GROUP BY bucket
            ORDER BY bucket`
		args = []any{guildID, monthAgo, guildID}

	case Window365Days:
		// The days table only holds buckets younger than a year; anything
		// older was folded into alltime. No day filter needed.
		query = `
            SELECT bucket, SUM(count) AS count
            FROM (
                SELECT bucket, SUM(frequency) AS count
                FROM days
                WHERE guildId = ?
                GROUP BY bucket

                UNION ALL

                SELECT frequency AS bucket, COUNT(*) AS count
                FROM posts
                WHERE guildId = ?
                GROUP BY frequency
            ) AS t
            WHERE bucket > 0
            GROUP BY bucket
            ORDER BY bucket`
		args = []any{guildID, guildID}

	case WindowAllTime:
		query = `
            SELECT bucket, SUM(count) AS count
            FROM (
                SELECT bucket, SUM(frequency) AS count
                FROM days
                WHERE guildId = ?
                GROUP BY bucket

                UNION ALL

                SELECT frequency AS bucket, COUNT(*) AS count
                FROM posts
                WHERE guildId = ?
                GROUP BY frequency

                UNION ALL

                SELECT bucket, frequency AS count
                FROM alltime
                WHERE guildId = ?
            ) AS t
            WHERE bucket > 0
            GROUP BY bucket
            ORDER BY bucket`
		args = []any{guildID, guildID, guildID}

	default:
		return nil, fmt.Errorf("unknown histogram window %q", window)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s histogram for guild %s: %w", window, guildID, err)
	}
	defer rows.Close()

	var bins []models.HistogramBin
	for rows.Next() {
		var b models.HistogramBin
		if err := rows.Scan(&b.Bucket, &b.Frequency); err != nil {
			return nil, fmt.Errorf("failed to scan histogram row: %w", err)
		}
		bins = append(bins, b)
	}
	return bins, rows.Err()
}

// scanPosts reads post rows in the (postId, userId, channelId, day, frequency)
// column order shared by the posts and hof queries.
func scanPosts(rows *sql.Rows, guildID string) ([]models.SkullPost, error) {
	var posts []models.SkullPost
	for rows.Next() {
		p := models.SkullPost{GuildID: guildID}
		if err := rows.Scan(&p.PostID, &p.UserID, &p.ChannelID, &p.Day, &p.Frequency); err != nil {
			return nil, fmt.Errorf("failed to scan post row: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}
