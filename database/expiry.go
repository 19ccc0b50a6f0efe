package database

import (
	"fmt"
	"log"

	"skullboard-bot/utils"
)

// Expire migrates posts older than 7 days out of the live ledger into the
// retention tables, then compacts them: the hall of fame is truncated to its
// top 100 per guild, and day buckets older than a year are folded into the
// alltime table. Safe to call redundantly; a run that finds nothing to migrate
// changes nothing.
//
// Each guild is migrated in its own transaction so one guild's bad data never
// blocks expiry for the others. Within a guild the ledger delete commits
// atomically with the absorbing inserts, so a crash leaves either the old
// state or the fully migrated state, never a double count.
func (s *SkullboardDB) Expire() error {
	curr := s.currentDay()
	weekAgo := curr - trackedDays
	yearAgo := curr - bucketDays

	guilds, err := s.knownGuilds()
	if err != nil {
		return fmt.Errorf("failed to enumerate guilds for expiry: %w", err)
	}

	failures := 0
	for _, guildID := range guilds {
		threshold := s.settings.Threshold(guildID)
		if err := s.expireGuild(guildID, threshold, weekAgo, yearAgo); err != nil {
			log.Printf("Expiry failed for guild %s: %v", guildID, err)
			utils.Error("Skullboard", "Expire", fmt.Sprintf("guild %s: %v", guildID, err))
			failures++
			continue
		}
	}

	if failures > 0 {
		return fmt.Errorf("expiry cycle failed for %d of %d guilds", failures, len(guilds))
	}
	return nil
}

// knownGuilds returns every guild present in any skullboard table.
func (s *SkullboardDB) knownGuilds() ([]string, error) {
	rows, err := s.db.Query(`
        SELECT DISTINCT guildId FROM posts
        UNION
        SELECT DISTINCT guildId FROM hof
        UNION
        SELECT DISTINCT guildId FROM days
        UNION
        SELECT DISTINCT guildId FROM alltime`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var guilds []string
	for rows.Next() {
		var guildID string
		if err := rows.Scan(&guildID); err != nil {
			return nil, err
		}
		guilds = append(guilds, guildID)
	}
	return guilds, rows.Err()
}

// expireGuild runs one guild's full migration and compaction in a single
// transaction. Ordering matters: the ledger rows are deleted only after every
// retention table has absorbed them.
func (s *SkullboardDB) expireGuild(guildID string, threshold, weekAgo, yearAgo int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin expiry transaction: %w", err)
	}
	defer tx.Rollback()

	// Expired posts meeting the threshold enter the hall of fame.
	if _, err := tx.Exec(
		`INSERT INTO hof (guildId, postId, userId, channelId, day, frequency)
         SELECT guildId, postId, userId, channelId, day, frequency
         FROM posts
         WHERE guildId = ? AND day <= ? AND frequency >= ?`,
		guildID, weekAgo, threshold,
	); err != nil {
		return fmt.Errorf("failed to absorb posts into hall of fame: %w", err)
	}

	// Credit each author with their qualifying expired posts. Additive, never
	// an overwrite, so replays and later cycles accumulate correctly.
	if _, err := tx.Exec(
		`INSERT INTO users (guildId, userId, frequency)
         SELECT guildId, userId, COUNT(*) AS frequency
         FROM posts
         WHERE guildId = ? AND day <= ? AND frequency >= ?
         GROUP BY userId
         ON CONFLICT(guildId, userId) DO UPDATE SET frequency = users.frequency + excluded.frequency`,
		guildID, weekAgo, threshold,
	); err != nil {
		return fmt.Errorf("failed to credit users for expired posts: %w", err)
	}

	// Record the reaction-count distribution of the expired posts, including
	// sub-threshold ones. Zero-reaction posts carry no histogram weight.
	if _, err := tx.Exec(
		`INSERT INTO days (guildId, day, bucket, frequency)
         SELECT guildId, day, frequency AS bucket, COUNT(*) AS frequency
         FROM posts
         WHERE guildId = ? AND day <= ? AND frequency > 0
         GROUP BY day, frequency
         ON CONFLICT(guildId, day, bucket) DO UPDATE SET frequency = days.frequency + excluded.frequency`,
		guildID, weekAgo,
	); err != nil {
		return fmt.Errorf("failed to record expired reaction distribution: %w", err)
	}

	// Only now is it safe to drop the migrated rows from the ledger.
	result, err := tx.Exec(
		"DELETE FROM posts WHERE guildId = ? AND day <= ?",
		guildID, weekAgo,
	)
	if err != nil {
		return fmt.Errorf("failed to delete expired posts: %w", err)
	}
	migrated, _ := result.RowsAffected()

	// Keep only the guild's top 100 hall of fame posts. Entries falling out
	// of the top 100 are gone for good.
	if _, err := tx.Exec(
		`DELETE FROM hof
         WHERE guildId = ? AND postId NOT IN (
             SELECT postId FROM hof
             WHERE guildId = ?
             ORDER BY frequency DESC, day DESC
             LIMIT ?
         )`,
		guildID, guildID, hofCapacity,
	); err != nil {
		return fmt.Errorf("failed to compact hall of fame: %w", err)
	}

	// Fold day buckets older than a year into the alltime table. Per-day
	// granularity is permanently lost once folded.
	if _, err := tx.Exec(
		`INSERT INTO alltime (guildId, bucket, frequency)
         SELECT guildId, bucket, SUM(frequency) AS frequency
         FROM days
         WHERE guildId = ? AND day < ?
         GROUP BY bucket
         ON CONFLICT(guildId, bucket) DO UPDATE SET frequency = alltime.frequency + excluded.frequency`,
		guildID, yearAgo,
	); err != nil {
		return fmt.Errorf("failed to fold old day buckets: %w", err)
	}
	if _, err := tx.Exec(
		"DELETE FROM days WHERE guildId = ? AND day < ?",
		guildID, yearAgo,
	); err != nil {
		return fmt.Errorf("failed to delete folded day buckets: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit expiry transaction: %w", err)
	}

	if migrated > 0 {
		log.Printf("Expired %d posts for guild %s", migrated, guildID)
	}
	return nil
}
