// stats.go

package models

import (
	"time"
)

// BattleResult 对战结果
type BattleResult string

const (
	// ResultWin 胜利
	ResultWin BattleResult = "win"
	// ResultLose 失败
	ResultLose BattleResult = "lose"
	// ResultDraw 平局
	ResultDraw BattleResult = "draw"
)

// BattleRecord 对战记录，写入双方历史
type BattleRecord struct {
	ID         string    `json:"id"`
	BattleID   string    `json:"battle_id"`
	WinnerID   string    `json:"winner_id"`
	LoserID    string    `json:"loser_id"`
	BattleDate time.Time `json:"battle_date"`
	Season     string    `json:"season"`
}

// RatingChange 一场对战后的积分变化
type RatingChange struct {
	WinnerChange    int `json:"winner_change"`
	LoserChange     int `json:"loser_change"`
	NewWinnerRating int `json:"new_winner_rating"`
	NewLoserRating  int `json:"new_loser_rating"`
}

// RankingEntry 排行榜条目
type RankingEntry struct {
	Rank         int     `json:"rank"`
	PlayerID     string  `json:"player_id"`
	PlayerName   string  `json:"player_name"`
	Rating       int     `json:"rating"`
	TotalBattles int     `json:"total_battles"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	WinRate      float64 `json:"win_rate"` // 胜率(%)
	WinStreak    int     `json:"win_streak"`
	MaxWinStreak int     `json:"max_win_streak"`
}

// SeasonRankingEntry 指定赛季的排行榜条目
type SeasonRankingEntry struct {
	Rank       int     `json:"rank"`
	PlayerID   string  `json:"player_id"`
	PlayerName string  `json:"player_name"`
	Season     string  `json:"season"`
	Battles    int     `json:"battles"`
	Wins       int     `json:"wins"`
	Losses     int     `json:"losses"`
	WinRate    float64 `json:"win_rate"`
}

// RatingSnapshot 玩家积分快照
type RatingSnapshot struct {
	PlayerID     string  `json:"player_id"`
	PlayerName   string  `json:"player_name"`
	Rating       int     `json:"rating"`
	MaxRating    int     `json:"max_rating"`
	Season       string  `json:"season"`
	SeasonRating int     `json:"season_rating"`
	TotalBattles int     `json:"total_battles"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	WinRate      float64 `json:"win_rate"`
	WinStreak    int     `json:"win_streak"`
}

// RankingStatistics 积分模块统计
type RankingStatistics struct {
	TotalPlayers  int     `json:"total_players"`
	TotalBattles  int     `json:"total_battles"`
	CurrentSeason string  `json:"current_season"`
	ActivePlayers int     `json:"active_players"`
	AverageRating float64 `json:"average_rating"`
}
