package ranking

import (
	"fmt"
	"testing"
	"time"

	"github.com/jacl-coder/PixelStorm-PvP/internal/models"
	"github.com/jacl-coder/PixelStorm-PvP/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEpoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestRanking(t *testing.T) (*PvPRanking, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(testEpoch)
	return NewPvPRanking(DefaultConfig(), clk, nil), clk
}

func outcome(winner, loser string) models.BattleOutcome {
	return models.BattleOutcome{
		BattleID:   fmt.Sprintf("%s-vs-%s", winner, loser),
		WinnerID:   winner,
		WinnerName: "name-" + winner,
		LoserID:    loser,
		LoserName:  "name-" + loser,
	}
}

func record(t *testing.T, r *PvPRanking, winner, loser string, times int) {
	t.Helper()
	for i := 0; i < times; i++ {
		_, err := r.RecordBattle(outcome(winner, loser))
		require.NoError(t, err)
	}
}

func TestRecordBattleFirstMatch(t *testing.T) {
	r, _ := newTestRanking(t)

	change, err := r.RecordBattle(outcome("alice", "bob"))
	require.NoError(t, err)

	assert.Equal(t, 16, change.WinnerChange)
	assert.Equal(t, -16, change.LoserChange)
	assert.Equal(t, 1016, change.NewWinnerRating)
	assert.Equal(t, 984, change.NewLoserRating)

	alice, ok := r.GetPlayerStats("alice")
	require.True(t, ok)
	assert.Equal(t, 1, alice.Wins)
	assert.Equal(t, 1, alice.WinStreak)
	assert.Equal(t, 1016, alice.MaxRating)
	assert.Equal(t, "name-alice", alice.PlayerName)
	require.Len(t, alice.BattleRecords, 1)
	assert.Equal(t, r.CurrentSeason(), alice.BattleRecords[0].Season)

	bob, ok := r.GetPlayerStats("bob")
	require.True(t, ok)
	assert.Equal(t, 1, bob.Losses)
	assert.Equal(t, 0, bob.WinStreak)
	assert.Equal(t, 1000, bob.MaxRating)
}

func TestRecordBattleInvalidOutcome(t *testing.T) {
	r, _ := newTestRanking(t)

	_, err := r.RecordBattle(outcome("alice", "alice"))
	assert.ErrorIs(t, err, ErrInvalidOutcome)

	_, err = r.RecordBattle(outcome("", "bob"))
	assert.ErrorIs(t, err, ErrInvalidOutcome)

	assert.Equal(t, 0, r.GetStatistics().TotalPlayers)
}

func TestRatingNeverNegative(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialRating = 10
	r := NewPvPRanking(cfg, clock.NewManual(testEpoch), nil)

	record(t, r, "alice", "bob", 3)

	bob, ok := r.GetPlayerStats("bob")
	require.True(t, ok)
	assert.Equal(t, 0, bob.Rating)
	assert.Equal(t, 0, bob.SeasonRating)
}

func TestWinStreakTracking(t *testing.T) {
	r, _ := newTestRanking(t)

	record(t, r, "alice", "bob", 3)
	record(t, r, "bob", "alice", 1)
	record(t, r, "alice", "bob", 1)

	alice, _ := r.GetPlayerStats("alice")
	assert.Equal(t, 1, alice.WinStreak)
	assert.Equal(t, 3, alice.MaxWinStreak)
}

func TestRankingRequiresMinBattles(t *testing.T) {
	r, _ := newTestRanking(t)

	record(t, r, "alice", "bob", 4)
	assert.Empty(t, r.GetRanking(10, false))

	record(t, r, "alice", "carol", 1)
	ranking := r.GetRanking(10, false)
	require.Len(t, ranking, 1)
	assert.Equal(t, "alice", ranking[0].PlayerID)
	assert.Equal(t, 1, ranking[0].Rank)
	assert.InDelta(t, 100.0, ranking[0].WinRate, 1e-9)

	// bob 只有4场，carol 只有1场
	assert.Nil(t, r.GetPlayerRanking("carol", false).Rank)
}

func TestRankingOrder(t *testing.T) {
	r, _ := newTestRanking(t)

	record(t, r, "alice", "bob", 5)
	record(t, r, "carol", "dave", 3)
	record(t, r, "dave", "carol", 2)

	ranking := r.GetRanking(10, false)
	require.Len(t, ranking, 4)
	for i := 1; i < len(ranking); i++ {
		assert.GreaterOrEqual(t, ranking[i-1].Rating, ranking[i].Rating)
		assert.Equal(t, i+1, ranking[i].Rank)
	}
	assert.Equal(t, "alice", ranking[0].PlayerID)
	assert.Equal(t, "bob", ranking[3].PlayerID)
}

func TestRankingLimitAppliedAfterCache(t *testing.T) {
	r, _ := newTestRanking(t)

	record(t, r, "alice", "bob", 5)
	record(t, r, "carol", "dave", 5)

	top := r.GetRanking(1, false)
	require.Len(t, top, 1)

	// 同一缓存周期内更大的 limit 仍返回完整结果
	all := r.GetRanking(10, false)
	assert.Len(t, all, 4)
	assert.Equal(t, top[0], all[0])
}

func TestRankingCacheInvalidatedOnRecord(t *testing.T) {
	r, clk := newTestRanking(t)

	record(t, r, "alice", "bob", 5)
	before := r.GetRanking(10, false)
	require.Len(t, before, 2)

	clk.Advance(time.Second)
	record(t, r, "carol", "dave", 5)

	after := r.GetRanking(10, false)
	assert.Len(t, after, 4)
}

func TestRankingCacheExpires(t *testing.T) {
	r, clk := newTestRanking(t)

	record(t, r, "alice", "bob", 5)
	first := r.GetRanking(10, false)

	clk.Advance(2 * time.Minute)
	second := r.GetRanking(10, false)

	assert.Equal(t, first, second)
	assert.True(t, r.isRankingCacheValid())
	clk.Advance(2 * time.Minute)
	assert.False(t, r.isRankingCacheValid())
}

func TestGetPlayerRanking(t *testing.T) {
	r, _ := newTestRanking(t)

	assert.Nil(t, r.GetPlayerRanking("ghost", false))

	record(t, r, "alice", "bob", 5)

	alice := r.GetPlayerRanking("alice", false)
	require.NotNil(t, alice)
	require.NotNil(t, alice.Rank)
	assert.Equal(t, 1, *alice.Rank)
	assert.False(t, alice.IsSeason)

	bob := r.GetPlayerRanking("bob", true)
	require.NotNil(t, bob)
	require.NotNil(t, bob.Rank)
	assert.Equal(t, 2, *bob.Rank)
	assert.True(t, bob.IsSeason)
	assert.InDelta(t, 0.0, bob.WinRate, 1e-9)
}

func TestSeasonRollover(t *testing.T) {
	r, clk := newTestRanking(t)

	record(t, r, "alice", "bob", 2)
	firstSeason := r.CurrentSeason()
	alice, _ := r.GetPlayerStats("alice")
	assert.Equal(t, 2, alice.SeasonWins)

	clk.Advance(DefaultConfig().SeasonLength)
	require.NotEqual(t, firstSeason, r.CurrentSeason())

	record(t, r, "alice", "bob", 1)
	alice, _ = r.GetPlayerStats("alice")
	assert.Equal(t, r.CurrentSeason(), alice.Season)
	assert.Equal(t, 1, alice.SeasonWins)
	assert.Equal(t, 3, alice.Wins)
	// 新赛季从当时的积分开始，此后同步变化
	assert.Equal(t, alice.Rating, alice.SeasonRating)
}

func TestGetSeasonRankings(t *testing.T) {
	r, clk := newTestRanking(t)

	record(t, r, "alice", "bob", 3)
	record(t, r, "bob", "alice", 2)
	oldSeason := r.CurrentSeason()

	clk.Advance(DefaultConfig().SeasonLength)
	record(t, r, "carol", "alice", 1)

	rankings := r.GetSeasonRankings(oldSeason, 10)
	require.Len(t, rankings, 2)
	assert.Equal(t, "alice", rankings[0].PlayerID)
	assert.Equal(t, 3, rankings[0].Wins)
	assert.Equal(t, 2, rankings[0].Losses)
	assert.Equal(t, 5, rankings[0].Battles)
	assert.InDelta(t, 60.0, rankings[0].WinRate, 1e-9)
	assert.Equal(t, "bob", rankings[1].PlayerID)
	assert.Equal(t, 2, rankings[1].Rank)

	assert.Empty(t, r.GetSeasonRankings(r.CurrentSeason(), 10))
	assert.Len(t, r.GetSeasonRankings(oldSeason, 1), 1)
}

func TestGetPlayerRecentBattles(t *testing.T) {
	r, _ := newTestRanking(t)

	assert.Empty(t, r.GetPlayerRecentBattles("ghost", 5))

	for i := 0; i < 12; i++ {
		_, err := r.RecordBattle(models.BattleOutcome{
			BattleID: fmt.Sprintf("battle-%d", i),
			WinnerID: "alice",
			LoserID:  "bob",
		})
		require.NoError(t, err)
	}

	recent := r.GetPlayerRecentBattles("alice", 0)
	require.Len(t, recent, DefaultRecentLimit)
	assert.Equal(t, "battle-2", recent[0].BattleID)
	assert.Equal(t, "battle-11", recent[len(recent)-1].BattleID)
}

func TestBattleRecordHistoryCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HistoryLimit = 3
	r := NewPvPRanking(cfg, clock.NewManual(testEpoch), nil)

	record(t, r, "alice", "bob", 5)

	alice, _ := r.GetPlayerStats("alice")
	assert.Len(t, alice.BattleRecords, 3)
	assert.Equal(t, 5, alice.TotalBattles)
	assert.Equal(t, 5, r.GetStatistics().TotalBattles)
}

func TestBattleDateFromOutcome(t *testing.T) {
	r, _ := newTestRanking(t)
	ended := testEpoch.Add(-time.Hour)

	o := outcome("alice", "bob")
	o.EndedAt = ended
	_, err := r.RecordBattle(o)
	require.NoError(t, err)

	recent := r.GetPlayerRecentBattles("bob", 1)
	require.Len(t, recent, 1)
	assert.True(t, ended.Equal(recent[0].BattleDate))
}

func TestRankingStatistics(t *testing.T) {
	r, _ := newTestRanking(t)

	record(t, r, "alice", "bob", 5)
	record(t, r, "carol", "dave", 1)

	stats := r.GetStatistics()
	assert.Equal(t, 4, stats.TotalPlayers)
	assert.Equal(t, 4, stats.ActivePlayers)
	assert.Equal(t, 6, stats.TotalBattles)
	assert.Equal(t, r.CurrentSeason(), stats.CurrentSeason)

	alice, _ := r.Snapshot("alice")
	bob, _ := r.Snapshot("bob")
	assert.InDelta(t, float64(alice.Rating+bob.Rating)/2, stats.AverageRating, 1e-9)

	_, ok := r.Snapshot("ghost")
	assert.False(t, ok)
}

func TestZeroConfigFallsBackToDefaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.KFactor = 0
	cfg.MaxChange = 0
	cfg.SeasonLength = 0
	cfg.HistoryLimit = 0
	r := NewPvPRanking(cfg, clock.NewManual(testEpoch), nil)

	assert.Equal(t, "season_671", r.CurrentSeason())

	change, err := r.RecordBattle(outcome("alice", "bob"))
	require.NoError(t, err)
	assert.Equal(t, 16, change.WinnerChange)
	assert.Equal(t, -16, change.LoserChange)

	recent := r.GetPlayerRecentBattles("alice", 5)
	require.Len(t, recent, 1)
	assert.Equal(t, "season_671", recent[0].Season)
}

func TestTotalBattlesCountsPastHistoryLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HistoryLimit = 2
	r := NewPvPRanking(cfg, clock.NewManual(testEpoch), nil)

	record(t, r, "alice", "bob", 150)
	record(t, r, "carol", "dave", 1)

	assert.Equal(t, 151, r.GetStatistics().TotalBattles)
	alice, _ := r.GetPlayerStats("alice")
	assert.Len(t, alice.BattleRecords, 2)
}
