package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jacl-coder/PixelStorm-PvP/internal/models"
)

// ArchivedBattle 数据库中的对战记录
type ArchivedBattle struct {
	BattleID           string    `json:"battle_id"`
	WinnerID           string    `json:"winner_id"`
	WinnerName         string    `json:"winner_name"`
	LoserID            string    `json:"loser_id"`
	LoserName          string    `json:"loser_name"`
	Turns              int       `json:"turns"`
	Season             string    `json:"season"`
	WinnerRatingChange int       `json:"winner_rating_change"`
	LoserRatingChange  int       `json:"loser_rating_change"`
	EndedAt            time.Time `json:"ended_at"`
}

// BattleArchive 对战和奖励的PostgreSQL归档
type BattleArchive struct {
	db *sql.DB
}

// NewBattleArchive 创建对战归档
func NewBattleArchive(db *sql.DB) *BattleArchive {
	return &BattleArchive{db: db}
}

const insertBattleSQL = `
INSERT INTO pvp_battles (
    id, winner_id, winner_name, loser_id, loser_name, turns, season,
    winner_rating_change, loser_rating_change, winner_rating, loser_rating, ended_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (id) DO NOTHING`

const insertRewardSQL = `
INSERT INTO pvp_rewards (
    battle_id, player_id, result, coins, exp, win_streak, bonus_multiplier, received_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (battle_id, player_id) DO NOTHING`

// ArchiveBattle 在一个事务中写入对战和双方奖励
func (a *BattleArchive) ArchiveBattle(ctx context.Context, report *models.BattleReport) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("开始事务失败: %w", err)
	}
	defer tx.Rollback()

	o := report.Outcome
	if _, err := tx.ExecContext(ctx, insertBattleSQL,
		o.BattleID, o.WinnerID, o.WinnerName, o.LoserID, o.LoserName, o.Turns, report.Season,
		report.Rating.WinnerChange, report.Rating.LoserChange,
		report.Rating.NewWinnerRating, report.Rating.NewLoserRating, o.EndedAt,
	); err != nil {
		return fmt.Errorf("写入对战记录失败: %w", err)
	}

	for _, r := range []models.RewardResult{report.Rewards.Winner, report.Rewards.Loser} {
		if _, err := tx.ExecContext(ctx, insertRewardSQL,
			o.BattleID, r.PlayerID, string(r.Result), r.TotalCoins, r.TotalExp,
			r.WinStreak, r.BonusMultiplier, r.ReceivedAt,
		); err != nil {
			return fmt.Errorf("写入奖励记录失败: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}
	return nil
}

// RecentBattles 玩家最近的 limit 场对战，按结束时间倒序
func (a *BattleArchive) RecentBattles(ctx context.Context, playerID string, limit int) ([]ArchivedBattle, error) {
	query := `
		SELECT id, winner_id, winner_name, loser_id, loser_name, turns, season,
		       winner_rating_change, loser_rating_change, ended_at
		FROM pvp_battles
		WHERE winner_id = $1 OR loser_id = $1
		ORDER BY ended_at DESC
		LIMIT $2
	`

	rows, err := a.db.QueryContext(ctx, query, playerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	battles := make([]ArchivedBattle, 0)
	for rows.Next() {
		var b ArchivedBattle
		if err := rows.Scan(
			&b.BattleID, &b.WinnerID, &b.WinnerName, &b.LoserID, &b.LoserName, &b.Turns, &b.Season,
			&b.WinnerRatingChange, &b.LoserRatingChange, &b.EndedAt,
		); err != nil {
			return nil, err
		}
		battles = append(battles, b)
	}
	return battles, rows.Err()
}

// PlayerRewardTotals 玩家历史奖励合计
func (a *BattleArchive) PlayerRewardTotals(ctx context.Context, playerID string) (models.RewardTotals, error) {
	query := `
		SELECT COALESCE(SUM(coins), 0), COALESCE(SUM(exp), 0)
		FROM pvp_rewards
		WHERE player_id = $1
	`

	var totals models.RewardTotals
	err := a.db.QueryRowContext(ctx, query, playerID).Scan(&totals.Coins, &totals.Exp)
	return totals, err
}
