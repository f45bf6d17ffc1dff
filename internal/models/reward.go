// reward.go

package models

import "time"

// RewardResult 一名玩家的单场奖励
type RewardResult struct {
	PlayerID        string       `json:"player_id"`
	PlayerName      string       `json:"player_name"`
	Result          BattleResult `json:"result"`
	Coins           int          `json:"coins"`
	Exp             int          `json:"exp"`
	WinStreak       int          `json:"win_streak"`
	WinStreakBonus  bool         `json:"win_streak_bonus"`
	BonusMultiplier float64      `json:"bonus_multiplier"`
	TotalCoins      int          `json:"total_coins"`
	TotalExp        int          `json:"total_exp"`
	ReceivedAt      time.Time    `json:"received_at"`
}

// RewardSummary 奖励摘要，金币和经验为加成后的数值
type RewardSummary struct {
	PlayerID       string       `json:"player_id"`
	PlayerName     string       `json:"player_name"`
	Result         BattleResult `json:"result"`
	Coins          int          `json:"coins"`
	Exp            int          `json:"exp"`
	WinStreak      int          `json:"win_streak"`
	WinStreakBonus bool         `json:"win_streak_bonus"`
}

// Summary 生成奖励摘要
func (r *RewardResult) Summary() RewardSummary {
	return RewardSummary{
		PlayerID:       r.PlayerID,
		PlayerName:     r.PlayerName,
		Result:         r.Result,
		Coins:          r.TotalCoins,
		Exp:            r.TotalExp,
		WinStreak:      r.WinStreak,
		WinStreakBonus: r.WinStreakBonus,
	}
}

// BattleRewards 一场对战双方的奖励
type BattleRewards struct {
	Winner RewardResult `json:"winner"`
	Loser  RewardResult `json:"loser"`
}

// PlayerRewardTotals 玩家一段时间内的奖励汇总
type PlayerRewardTotals struct {
	PlayerID    string  `json:"player_id"`
	Period      string  `json:"period"`
	TotalCoins  int     `json:"total_coins"`
	TotalExp    int     `json:"total_exp"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	WinRate     float64 `json:"win_rate"`
	BattleCount int     `json:"battle_count"`
}

// RewardLeaderboardEntry 收益排行榜条目
type RewardLeaderboardEntry struct {
	Rank        int     `json:"rank"`
	PlayerID    string  `json:"player_id"`
	PlayerName  string  `json:"player_name"`
	TotalCoins  int     `json:"total_coins"`
	TotalExp    int     `json:"total_exp"`
	Wins        int     `json:"wins"`
	BattleCount int     `json:"battle_count"`
	WinRate     float64 `json:"win_rate"`
}

// RewardTotals 金币与经验合计
type RewardTotals struct {
	Coins int `json:"coins"`
	Exp   int `json:"exp"`
}

// RewardStatistics 奖励模块统计
type RewardStatistics struct {
	TotalRewards            RewardTotals `json:"total_rewards"`
	TotalDistributions      int          `json:"total_distributions"`
	TotalWins               int          `json:"total_wins"`
	TotalLoses              int          `json:"total_loses"`
	TotalPlayersWithHistory int          `json:"total_players_with_history"`
	WinStreakBonusesAwarded int          `json:"win_streak_bonuses_awarded"`
}
