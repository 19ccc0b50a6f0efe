package database

import (
	"database/sql"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func newTestSettings(t *testing.T) *SettingsDB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, createTables(db))
	return NewSettingsDB(db)
}

func TestSettingsRoundTrip(t *testing.T) {
	sdb := newTestSettings(t)

	value, err := sdb.Get(testGuild, SettingBoardChannel)
	require.NoError(t, err)
	require.Empty(t, value)

	require.NoError(t, sdb.Set(testGuild, SettingBoardChannel, "111"))
	require.NoError(t, sdb.Set(testGuild, SettingBoardChannel, "222"))

	value, err = sdb.Get(testGuild, SettingBoardChannel)
	require.NoError(t, err)
	require.Equal(t, "222", value)

	// Other guilds are unaffected.
	value, err = sdb.Get("other", SettingBoardChannel)
	require.NoError(t, err)
	require.Empty(t, value)
}

func TestThresholdFallsBackToDefault(t *testing.T) {
	sdb := newTestSettings(t)

	viper.Set("skullboard.defaultThreshold", 3)
	t.Cleanup(func() { viper.Set("skullboard.defaultThreshold", 0) })

	require.Equal(t, 3, sdb.Threshold(testGuild))

	require.NoError(t, sdb.Set(testGuild, SettingThreshold, "7"))
	require.Equal(t, 7, sdb.Threshold(testGuild))

	// Garbage values fall back rather than erroring out a query.
	require.NoError(t, sdb.Set(testGuild, SettingThreshold, "lots"))
	require.Equal(t, 3, sdb.Threshold(testGuild))
}
