package database

import (
	"database/sql"
	"fmt"
	"testing"

	"skullboard-bot/models"

	"github.com/stretchr/testify/require"
)

const testGuild = "200000000000000000"

// newTestDB returns a skullboard manager on an in-memory database with the
// clock pinned to a fixed day.
func newTestDB(t *testing.T, day int) *SkullboardDB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// Every pooled connection would otherwise see its own empty :memory: db.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, createTables(db))

	sdb := NewSkullboardDB(db, NewSettingsDB(db))
	sdb.currentDay = func() int { return day }
	return sdb
}

func setDay(sdb *SkullboardDB, day int) {
	sdb.currentDay = func() int { return day }
}

func setThreshold(t *testing.T, sdb *SkullboardDB, threshold int) {
	t.Helper()
	require.NoError(t, sdb.settings.Set(testGuild, SettingThreshold, fmt.Sprint(threshold)))
}

func TestUpdatePostIdempotent(t *testing.T) {
	sdb := newTestDB(t, 100)

	require.NoError(t, sdb.UpdatePost(testGuild, "p1", "u1", "c1", 99, 5))
	require.NoError(t, sdb.UpdatePost(testGuild, "p1", "u1", "c1", 99, 5))

	posts, err := sdb.TopThisWeek(testGuild, 10)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, 5, posts[0].Frequency)
}

func TestUpdatePostOverwritesCount(t *testing.T) {
	sdb := newTestDB(t, 100)

	require.NoError(t, sdb.UpdatePost(testGuild, "p1", "u1", "c1", 99, 5))
	require.NoError(t, sdb.UpdatePost(testGuild, "p1", "u1", "c1", 99, 2))

	posts, err := sdb.TopThisWeek(testGuild, 10)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, 2, posts[0].Frequency)
}

func TestUpdatePostClamping(t *testing.T) {
	sdb := newTestDB(t, 100)

	require.NoError(t, sdb.UpdatePost(testGuild, "high", "u1", "c1", 99, 300))
	require.NoError(t, sdb.UpdatePost(testGuild, "low", "u1", "c1", 99, -10))

	posts, err := sdb.TopThisWeek(testGuild, 10)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	require.Equal(t, "high", posts[0].PostID)
	require.Equal(t, 255, posts[0].Frequency)
	require.Equal(t, "low", posts[1].PostID)
	require.Equal(t, 0, posts[1].Frequency)
}

func TestUpdatePostDropsStaleEvents(t *testing.T) {
	sdb := newTestDB(t, 100)

	// day 93 is exactly 7 days old: no longer tracked.
	require.NoError(t, sdb.UpdatePost(testGuild, "stale", "u1", "c1", 93, 5))
	// day 94 is still inside the window.
	require.NoError(t, sdb.UpdatePost(testGuild, "fresh", "u1", "c1", 94, 5))

	posts, err := sdb.TopThisWeek(testGuild, 10)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, "fresh", posts[0].PostID)
}

func TestWeeklyTopTieBreaksOlderFirst(t *testing.T) {
	sdb := newTestDB(t, 103)

	require.NoError(t, sdb.UpdatePost(testGuild, "newer", "u1", "c1", 100, 5))
	require.NoError(t, sdb.UpdatePost(testGuild, "older", "u2", "c1", 98, 5))

	posts, err := sdb.TopThisWeek(testGuild, 10)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	require.Equal(t, "older", posts[0].PostID)
	require.Equal(t, "newer", posts[1].PostID)
}

func TestExpireMovesQualifyingPostsToHallOfFame(t *testing.T) {
	sdb := newTestDB(t, 100)
	setThreshold(t, sdb, 3)

	require.NoError(t, sdb.UpdatePost(testGuild, "keeper", "u1", "c1", 100, 5))
	require.NoError(t, sdb.UpdatePost(testGuild, "dud", "u2", "c1", 100, 1))

	setDay(sdb, 108)
	require.NoError(t, sdb.Expire())

	// The ledger no longer holds either post.
	posts, err := sdb.TopThisWeek(testGuild, 10)
	require.NoError(t, err)
	require.Empty(t, posts)

	// The qualifying post is in the hall of fame, the sub-threshold one is not.
	hof, err := sdb.HallOfFame(testGuild, 10)
	require.NoError(t, err)
	require.Len(t, hof, 1)
	require.Equal(t, "keeper", hof[0].PostID)
	require.Equal(t, 5, hof[0].Frequency)
}

func TestExpireDoesNotDoubleCountUsers(t *testing.T) {
	sdb := newTestDB(t, 100)
	setThreshold(t, sdb, 3)

	require.NoError(t, sdb.UpdatePost(testGuild, "p1", "u1", "c1", 100, 5))
	require.NoError(t, sdb.UpdatePost(testGuild, "p2", "u1", "c1", 100, 4))

	setDay(sdb, 108)
	require.NoError(t, sdb.Expire())

	ranks, err := sdb.UserRankings(testGuild, 10)
	require.NoError(t, err)
	require.Len(t, ranks, 1)
	require.Equal(t, 2, ranks[0].Frequency)

	// A redundant cycle must not count the migrated posts again.
	require.NoError(t, sdb.Expire())
	ranks, err = sdb.UserRankings(testGuild, 10)
	require.NoError(t, err)
	require.Equal(t, 2, ranks[0].Frequency)
}

func TestUserRankingsMergeLiveAndRetained(t *testing.T) {
	sdb := newTestDB(t, 100)
	setThreshold(t, sdb, 3)

	// Retained history: u1 already has 5 qualifying posts on record.
	_, err := sdb.db.Exec(
		"INSERT INTO users (guildId, userId, frequency) VALUES (?, ?, ?)",
		testGuild, "u1", 5,
	)
	require.NoError(t, err)

	// Live ledger: two more qualifying posts and one below threshold.
	require.NoError(t, sdb.UpdatePost(testGuild, "p1", "u1", "c1", 99, 4))
	require.NoError(t, sdb.UpdatePost(testGuild, "p2", "u1", "c1", 99, 3))
	require.NoError(t, sdb.UpdatePost(testGuild, "p3", "u1", "c1", 99, 2))

	ranks, err := sdb.UserRankings(testGuild, 10)
	require.NoError(t, err)
	require.Len(t, ranks, 1)
	require.Equal(t, 7, ranks[0].Frequency)
}

func TestUserStanding(t *testing.T) {
	sdb := newTestDB(t, 100)
	setThreshold(t, sdb, 3)

	// Three ranked users with totals 1, 2 and 3.
	require.NoError(t, sdb.UpdatePost(testGuild, "p1", "u1", "c1", 99, 5))
	require.NoError(t, sdb.UpdatePost(testGuild, "p2", "u2", "c1", 99, 5))
	require.NoError(t, sdb.UpdatePost(testGuild, "p3", "u2", "c1", 99, 5))
	_, err := sdb.db.Exec(
		"INSERT INTO users (guildId, userId, frequency) VALUES (?, ?, ?), (?, ?, ?)",
		testGuild, "u3", 3,
		testGuild, "u2", 0,
	)
	require.NoError(t, err)

	standing, err := sdb.UserStanding(testGuild, "u2")
	require.NoError(t, err)
	require.Equal(t, 2, standing.Frequency)
	require.Equal(t, 3, standing.Ranked)
	require.InDelta(t, 100.0/3, standing.Percentile, 0.01)

	// Unknown users get a zero standing, not an error.
	standing, err = sdb.UserStanding(testGuild, "nobody")
	require.NoError(t, err)
	require.Zero(t, standing.Frequency)
	require.Zero(t, standing.Percentile)
}

func TestHallOfFameIncludesLiveQualifiers(t *testing.T) {
	sdb := newTestDB(t, 100)
	setThreshold(t, sdb, 3)

	// Still tracked, but already over the threshold: rankable before expiry.
	require.NoError(t, sdb.UpdatePost(testGuild, "live", "u1", "c1", 100, 9))

	hof, err := sdb.HallOfFame(testGuild, 10)
	require.NoError(t, err)
	require.Len(t, hof, 1)
	require.Equal(t, "live", hof[0].PostID)
}

func TestHallOfFameCap(t *testing.T) {
	sdb := newTestDB(t, 100)
	setThreshold(t, sdb, 1)

	// First batch: 75 posts on day 100 with counts 1..75.
	for n := 0; n < 75; n++ {
		postID := fmt.Sprintf("a%d", n)
		require.NoError(t, sdb.UpdatePost(testGuild, postID, "u1", "c1", 100, n+1))
	}
	setDay(sdb, 108)
	require.NoError(t, sdb.Expire())

	// Second batch: 75 posts on day 108 with counts 76..150.
	for n := 0; n < 75; n++ {
		postID := fmt.Sprintf("b%d", n)
		require.NoError(t, sdb.UpdatePost(testGuild, postID, "u1", "c1", 108, n+76))
	}
	setDay(sdb, 116)
	require.NoError(t, sdb.Expire())

	hof, err := sdb.HallOfFame(testGuild, 1000)
	require.NoError(t, err)
	require.Len(t, hof, 100)

	// The survivors are the globally highest 100 counts (51..150), descending.
	require.Equal(t, 150, hof[0].Frequency)
	require.Equal(t, 51, hof[99].Frequency)
	for n := 1; n < len(hof); n++ {
		require.GreaterOrEqual(t, hof[n-1].Frequency, hof[n].Frequency)
	}
}

func TestHallOfFameTieBreaksNewerFirst(t *testing.T) {
	sdb := newTestDB(t, 100)
	setThreshold(t, sdb, 1)

	require.NoError(t, sdb.UpdatePost(testGuild, "older", "u1", "c1", 98, 5))
	require.NoError(t, sdb.UpdatePost(testGuild, "newer", "u2", "c1", 100, 5))

	hof, err := sdb.HallOfFame(testGuild, 10)
	require.NoError(t, err)
	require.Len(t, hof, 2)
	require.Equal(t, "newer", hof[0].PostID)
	require.Equal(t, "older", hof[1].PostID)
}

func TestHistogram7DayConservation(t *testing.T) {
	sdb := newTestDB(t, 100)

	counts := []int{3, 3, 5, 1, 0, 2}
	withReactions := 0
	for n, count := range counts {
		postID := fmt.Sprintf("p%d", n)
		require.NoError(t, sdb.UpdatePost(testGuild, postID, "u1", "c1", 96+n%5, count))
		if count > 0 {
			withReactions++
		}
	}

	bins, err := sdb.Histogram(testGuild, Window7Days)
	require.NoError(t, err)

	total := 0
	for _, bin := range bins {
		require.Greater(t, bin.Bucket, 0)
		total += bin.Frequency
	}
	require.Equal(t, withReactions, total)
}

func TestHistogramWindowsUnionRetainedData(t *testing.T) {
	sdb := newTestDB(t, 500)

	// Live post with 2 skulls, retained day buckets inside and outside the
	// 30-day cut, and a folded all-time bucket.
	require.NoError(t, sdb.UpdatePost(testGuild, "live", "u1", "c1", 499, 2))
	_, err := sdb.db.Exec(
		"INSERT INTO days (guildId, day, bucket, frequency) VALUES (?, ?, ?, ?), (?, ?, ?, ?)",
		testGuild, 480, 2, 3, // 20 days ago
		testGuild, 400, 2, 4, // 100 days ago
	)
	require.NoError(t, err)
	_, err = sdb.db.Exec(
		"INSERT INTO alltime (guildId, bucket, frequency) VALUES (?, ?, ?)",
		testGuild, 2, 10,
	)
	require.NoError(t, err)

	week, err := sdb.Histogram(testGuild, Window7Days)
	require.NoError(t, err)
	require.Equal(t, []models.HistogramBin{{Bucket: 2, Frequency: 1}}, week)

	month, err := sdb.Histogram(testGuild, Window30Days)
	require.NoError(t, err)
	require.Equal(t, []models.HistogramBin{{Bucket: 2, Frequency: 4}}, month)

	year, err := sdb.Histogram(testGuild, Window365Days)
	require.NoError(t, err)
	require.Equal(t, []models.HistogramBin{{Bucket: 2, Frequency: 8}}, year)

	all, err := sdb.Histogram(testGuild, WindowAllTime)
	require.NoError(t, err)
	require.Equal(t, []models.HistogramBin{{Bucket: 2, Frequency: 18}}, all)
}

func TestHistogramRejectsUnknownWindow(t *testing.T) {
	sdb := newTestDB(t, 100)

	_, err := sdb.Histogram(testGuild, "90d")
	require.Error(t, err)
}

func TestExpireRecordsSubThresholdDistribution(t *testing.T) {
	sdb := newTestDB(t, 100)
	setThreshold(t, sdb, 10)

	// Below threshold but nonzero: still counted in the histogram buckets.
	require.NoError(t, sdb.UpdatePost(testGuild, "p1", "u1", "c1", 100, 2))
	require.NoError(t, sdb.UpdatePost(testGuild, "p2", "u2", "c1", 100, 2))
	// Zero reactions never reach the buckets.
	require.NoError(t, sdb.UpdatePost(testGuild, "p3", "u3", "c1", 100, 0))

	setDay(sdb, 108)
	require.NoError(t, sdb.Expire())

	bins, err := sdb.Histogram(testGuild, Window365Days)
	require.NoError(t, err)
	require.Equal(t, []models.HistogramBin{{Bucket: 2, Frequency: 2}}, bins)

	// Nothing qualified for the hall of fame or the user rankings.
	hof, err := sdb.HallOfFame(testGuild, 10)
	require.NoError(t, err)
	require.Empty(t, hof)
}

func TestExpireFoldsYearOldDaysIntoAllTime(t *testing.T) {
	sdb := newTestDB(t, 500)

	_, err := sdb.db.Exec(
		"INSERT INTO days (guildId, day, bucket, frequency) VALUES (?, ?, ?, ?)",
		testGuild, 100, 4, 7, // 400 days old
	)
	require.NoError(t, err)
	// The target bucket pre-exists: folding must add, not overwrite.
	_, err = sdb.db.Exec(
		"INSERT INTO alltime (guildId, bucket, frequency) VALUES (?, ?, ?)",
		testGuild, 4, 10,
	)
	require.NoError(t, err)

	require.NoError(t, sdb.Expire())

	var remaining int
	require.NoError(t, sdb.db.QueryRow(
		"SELECT COUNT(*) FROM days WHERE guildId = ? AND day = 100", testGuild,
	).Scan(&remaining))
	require.Zero(t, remaining)

	var frequency int
	require.NoError(t, sdb.db.QueryRow(
		"SELECT frequency FROM alltime WHERE guildId = ? AND bucket = 4", testGuild,
	).Scan(&frequency))
	require.Equal(t, 17, frequency)
}

func TestExpireIsolatesGuilds(t *testing.T) {
	sdb := newTestDB(t, 108)
	otherGuild := "300000000000000000"

	setDay(sdb, 100)
	require.NoError(t, sdb.UpdatePost(testGuild, "p1", "u1", "c1", 100, 5))
	require.NoError(t, sdb.UpdatePost(otherGuild, "p1", "u9", "c9", 100, 8))

	setDay(sdb, 108)
	require.NoError(t, sdb.Expire())

	hof, err := sdb.HallOfFame(testGuild, 10)
	require.NoError(t, err)
	require.Len(t, hof, 1)
	require.Equal(t, "u1", hof[0].UserID)
	require.Equal(t, 5, hof[0].Frequency)

	hof, err = sdb.HallOfFame(otherGuild, 10)
	require.NoError(t, err)
	require.Len(t, hof, 1)
	require.Equal(t, "u9", hof[0].UserID)
	require.Equal(t, 8, hof[0].Frequency)
}
