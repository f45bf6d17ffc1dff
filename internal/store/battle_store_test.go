package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jacl-coder/PixelStorm-PvP/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEnded = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestArchive(t *testing.T) (*BattleArchive, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewBattleArchive(conn), mock
}

func completedReport() *models.BattleReport {
	return &models.BattleReport{
		Outcome: models.BattleOutcome{
			BattleID:   "battle-1",
			WinnerID:   "A",
			WinnerName: "Alice",
			LoserID:    "B",
			LoserName:  "Bob",
			Turns:      5,
			EndedAt:    testEnded,
		},
		Season: "season_7",
		Rating: models.RatingChange{WinnerChange: 16, LoserChange: -16, NewWinnerRating: 1016, NewLoserRating: 984},
		Rewards: models.BattleRewards{
			Winner: models.RewardResult{PlayerID: "A", Result: models.ResultWin, TotalCoins: 50, TotalExp: 20, BonusMultiplier: 1, ReceivedAt: testEnded},
			Loser:  models.RewardResult{PlayerID: "B", Result: models.ResultLose, TotalExp: 5, BonusMultiplier: 1, ReceivedAt: testEnded},
		},
	}
}

func TestArchiveBattleTransaction(t *testing.T) {
	archive, mock := newTestArchive(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO pvp_battles").
		WithArgs("battle-1", "A", "Alice", "B", "Bob", sqlmock.AnyArg(), "season_7",
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), testEnded).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO pvp_rewards").
		WithArgs("battle-1", "A", "win", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), testEnded).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO pvp_rewards").
		WithArgs("battle-1", "B", "lose", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), testEnded).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	require.NoError(t, archive.ArchiveBattle(context.Background(), completedReport()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArchiveBattleRollsBackOnError(t *testing.T) {
	archive, mock := newTestArchive(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO pvp_battles").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO pvp_rewards").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := archive.ArchiveBattle(context.Background(), completedReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentBattles(t *testing.T) {
	archive, mock := newTestArchive(t)

	rows := sqlmock.NewRows([]string{
		"id", "winner_id", "winner_name", "loser_id", "loser_name", "turns", "season",
		"winner_rating_change", "loser_rating_change", "ended_at",
	}).
		AddRow("battle-2", "B", "Bob", "A", "Alice", 7, "season_7", 17, -17, testEnded.Add(time.Hour)).
		AddRow("battle-1", "A", "Alice", "B", "Bob", 5, "season_7", 16, -16, testEnded)
	mock.ExpectQuery("SELECT (.+) FROM pvp_battles").
		WithArgs("A", sqlmock.AnyArg()).
		WillReturnRows(rows)

	battles, err := archive.RecentBattles(context.Background(), "A", 10)
	require.NoError(t, err)
	require.Len(t, battles, 2)
	assert.Equal(t, "battle-2", battles[0].BattleID)
	assert.Equal(t, -17, battles[0].LoserRatingChange)
	assert.Equal(t, 5, battles[1].Turns)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlayerRewardTotals(t *testing.T) {
	archive, mock := newTestArchive(t)

	mock.ExpectQuery("SELECT (.+) FROM pvp_rewards").
		WithArgs("A").
		WillReturnRows(sqlmock.NewRows([]string{"coins", "exp"}).AddRow(260, 104))

	totals, err := archive.PlayerRewardTotals(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, models.RewardTotals{Coins: 260, Exp: 104}, totals)
	assert.NoError(t, mock.ExpectationsWereMet())
}
