package database

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/spf13/viper"
)

// Setting keys stored per guild.
const (
	SettingThreshold    = "skullboard_threshold"
	SettingBoardChannel = "skullboard_channel"
)

// SettingsDB manages per-guild skullboard settings. Settings are read fresh
// on every query so an admin changing the threshold takes effect immediately.
type SettingsDB struct {
	db *sql.DB
}

// NewSettingsDB creates a settings manager on top of an open database.
func NewSettingsDB(db *sql.DB) *SettingsDB {
	return &SettingsDB{db: db}
}

// Get returns the value for a key in a guild, or "" if it is not set.
func (sdb *SettingsDB) Get(guildID, key string) (string, error) {
	var value string
	err := sdb.db.QueryRow(
		"SELECT value FROM settings WHERE key = ? AND guildId = ?",
		key, guildID,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read setting %s for guild %s: %w", key, guildID, err)
	}
	return value, nil
}

// Set stores a value for a key in a guild, overwriting any previous value.
func (sdb *SettingsDB) Set(guildID, key, value string) error {
	_, err := sdb.db.Exec(
		`INSERT INTO settings (key, guildId, value) VALUES (?, ?, ?)
         ON CONFLICT(key, guildId) DO UPDATE SET value = excluded.value`,
		key, guildID, value,
	)
	if err != nil {
		return fmt.Errorf("failed to store setting %s for guild %s: %w", key, guildID, err)
	}
	return nil
}

// Threshold returns the minimum skull reaction count for a post to qualify
// for the skullboard in a guild. Falls back to the configured default, then 0,
// so a missing setting never makes queries fail.
func (sdb *SettingsDB) Threshold(guildID string) int {
	value, err := sdb.Get(guildID, SettingThreshold)
	if err != nil || value == "" {
		return viper.GetInt("skullboard.defaultThreshold")
	}
	threshold, err := strconv.Atoi(value)
	if err != nil || threshold < 0 {
		return viper.GetInt("skullboard.defaultThreshold")
	}
	return threshold
}

// BoardChannel returns the channel the guild mirrors qualifying posts to,
// or "" if mirroring is not configured.
func (sdb *SettingsDB) BoardChannel(guildID string) string {
	value, err := sdb.Get(guildID, SettingBoardChannel)
	if err != nil {
		return ""
	}
	return value
}
