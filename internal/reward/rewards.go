// rewards.go

package reward

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/jacl-coder/PixelStorm-PvP/internal/models"
	"github.com/jacl-coder/PixelStorm-PvP/pkg/clock"
	"go.uber.org/zap"
)

// ErrInvalidOutcome 胜负双方缺失或相同
var ErrInvalidOutcome = errors.New("reward: invalid battle outcome")

const (
	// DefaultHistoryLimit 默认返回的奖励记录条数
	DefaultHistoryLimit = 10
	// DefaultPeriodDays 汇总与排行榜默认统计天数
	DefaultPeriodDays = 7
	// DefaultLeaderboardLimit 收益排行榜默认条数
	DefaultLeaderboardLimit = 50
)

// Config 奖励参数
type Config struct {
	WinCoins        int
	WinExp          int
	LoseExp         int
	StreakThreshold int     // 连胜加成起始场数
	StreakStep      float64 // 每多一场连胜增加的倍率
	MaxMultiplier   float64
	StreakWindow    int // 计算连胜时回看的记录数
	HistoryLimit    int // 每名玩家保留的奖励记录数
}

// DefaultConfig 默认奖励参数
func DefaultConfig() Config {
	return Config{
		WinCoins:        50,
		WinExp:          20,
		LoseExp:         5,
		StreakThreshold: 3,
		StreakStep:      0.2,
		MaxMultiplier:   3.0,
		StreakWindow:    10,
		HistoryLimit:    100,
	}
}

// withDefaults 非正的窗口、历史上限与倍率上限回落到默认值
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MaxMultiplier <= 0 {
		c.MaxMultiplier = def.MaxMultiplier
	}
	if c.StreakWindow <= 0 {
		c.StreakWindow = def.StreakWindow
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = def.HistoryLimit
	}
	return c
}

// StreakMultiplier 连胜倍率: 未达门槛为1，之后每场加 StreakStep，不超过 MaxMultiplier
func (c Config) StreakMultiplier(streak int) float64 {
	if streak < c.StreakThreshold {
		return 1.0
	}
	return math.Min(1.0+float64(streak-c.StreakThreshold)*c.StreakStep, c.MaxMultiplier)
}

// BattleRewards 对战奖励计算与发放记录
type BattleRewards struct {
	cfg     Config
	history map[string][]models.RewardResult // 玩家ID -> 奖励记录
	mutex   sync.RWMutex

	clock  clock.Clock
	logger *zap.Logger
}

// NewBattleRewards 创建奖励模块
func NewBattleRewards(cfg Config, clk clock.Clock, logger *zap.Logger) *BattleRewards {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BattleRewards{
		cfg:     cfg.withDefaults(),
		history: make(map[string][]models.RewardResult),
		clock:   clk,
		logger:  logger,
	}
}

// CalculateRewards 计算双方奖励，不写入记录
func (br *BattleRewards) CalculateRewards(outcome models.BattleOutcome) (*models.BattleRewards, error) {
	if outcome.WinnerID == "" || outcome.LoserID == "" || outcome.WinnerID == outcome.LoserID {
		return nil, ErrInvalidOutcome
	}

	br.mutex.RLock()
	defer br.mutex.RUnlock()

	return br.calculate(outcome), nil
}

// calculate 调用方需持有锁
func (br *BattleRewards) calculate(outcome models.BattleOutcome) *models.BattleRewards {
	now := br.clock.Now()

	streak := br.playerWinStreak(outcome.WinnerID)
	multiplier := br.cfg.StreakMultiplier(streak)
	winner := models.RewardResult{
		PlayerID:        outcome.WinnerID,
		PlayerName:      outcome.WinnerName,
		Result:          models.ResultWin,
		Coins:           br.cfg.WinCoins,
		Exp:             br.cfg.WinExp,
		WinStreak:       streak,
		WinStreakBonus:  streak >= br.cfg.StreakThreshold,
		BonusMultiplier: multiplier,
		TotalCoins:      applyMultiplier(br.cfg.WinCoins, multiplier),
		TotalExp:        applyMultiplier(br.cfg.WinExp, multiplier),
		ReceivedAt:      now,
	}

	// 失败方只有经验，连胜清零
	loser := models.RewardResult{
		PlayerID:        outcome.LoserID,
		PlayerName:      outcome.LoserName,
		Result:          models.ResultLose,
		Coins:           0,
		Exp:             br.cfg.LoseExp,
		BonusMultiplier: 1.0,
		TotalCoins:      0,
		TotalExp:        br.cfg.LoseExp,
		ReceivedAt:      now,
	}

	return &models.BattleRewards{Winner: winner, Loser: loser}
}

// applyMultiplier 向下取整，容忍浮点误差
func applyMultiplier(base int, multiplier float64) int {
	return int(math.Floor(float64(base)*multiplier + 1e-9))
}

// playerWinStreak 从奖励记录末尾向前数连续胜场，最多回看 StreakWindow 条
func (br *BattleRewards) playerWinStreak(playerID string) int {
	history := br.history[playerID]
	streak := 0
	for i := len(history) - 1; i >= max(0, len(history)-br.cfg.StreakWindow); i-- {
		if history[i].Result != models.ResultWin {
			break
		}
		streak++
	}
	return streak
}

// DistributeRewards 计算并记录双方奖励
func (br *BattleRewards) DistributeRewards(outcome models.BattleOutcome) (*models.BattleRewards, error) {
	if outcome.WinnerID == "" || outcome.LoserID == "" || outcome.WinnerID == outcome.LoserID {
		return nil, ErrInvalidOutcome
	}

	br.mutex.Lock()
	defer br.mutex.Unlock()

	rewards := br.calculate(outcome)
	br.recordReward(rewards.Winner)
	br.recordReward(rewards.Loser)

	br.logger.Info("奖励已发放",
		zap.String("battle_id", outcome.BattleID),
		zap.String("winner_id", outcome.WinnerID),
		zap.Int("coins", rewards.Winner.TotalCoins),
		zap.Int("win_streak", rewards.Winner.WinStreak),
		zap.Float64("multiplier", rewards.Winner.BonusMultiplier))
	return rewards, nil
}

// RecordReward 写入一条奖励记录
func (br *BattleRewards) RecordReward(result models.RewardResult) {
	br.mutex.Lock()
	defer br.mutex.Unlock()

	br.recordReward(result)
}

// recordReward 超出上限时丢弃最早的记录，调用方需持有写锁
func (br *BattleRewards) recordReward(result models.RewardResult) {
	history := append(br.history[result.PlayerID], result)
	if over := len(history) - br.cfg.HistoryLimit; over > 0 {
		history = append([]models.RewardResult(nil), history[over:]...)
	}
	br.history[result.PlayerID] = history
}

// since 统计窗口的起点
func (br *BattleRewards) since(days int) time.Time {
	return br.clock.Now().Add(-time.Duration(days) * 24 * time.Hour)
}

func recentRewards(history []models.RewardResult, cutoff time.Time) []models.RewardResult {
	recent := make([]models.RewardResult, 0, len(history))
	for _, r := range history {
		if !r.ReceivedAt.Before(cutoff) {
			recent = append(recent, r)
		}
	}
	return recent
}

// GetPlayerTotalRewards 最近 days 天的奖励汇总
func (br *BattleRewards) GetPlayerTotalRewards(playerID string, days int) models.PlayerRewardTotals {
	if days <= 0 {
		days = DefaultPeriodDays
	}

	br.mutex.RLock()
	defer br.mutex.RUnlock()

	totals := models.PlayerRewardTotals{
		PlayerID: playerID,
		Period:   fmt.Sprintf("%d days", days),
	}
	for _, r := range recentRewards(br.history[playerID], br.since(days)) {
		totals.TotalCoins += r.TotalCoins
		totals.TotalExp += r.TotalExp
		totals.BattleCount++
		switch r.Result {
		case models.ResultWin:
			totals.Wins++
		case models.ResultLose:
			totals.Losses++
		}
	}
	if decided := totals.Wins + totals.Losses; decided > 0 {
		totals.WinRate = float64(totals.Wins) / float64(decided) * 100
	}
	return totals
}

// GetPlayerRewardHistory 最近 limit 条奖励摘要
func (br *BattleRewards) GetPlayerRewardHistory(playerID string, limit int) []models.RewardSummary {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	br.mutex.RLock()
	defer br.mutex.RUnlock()

	history := br.history[playerID]
	start := max(0, len(history)-limit)
	summaries := make([]models.RewardSummary, 0, len(history)-start)
	for i := start; i < len(history); i++ {
		summaries = append(summaries, history[i].Summary())
	}
	return summaries
}

// GetRewardLeaderboard 最近 days 天按金币排序的收益排行榜
func (br *BattleRewards) GetRewardLeaderboard(days, limit int) []models.RewardLeaderboardEntry {
	if days <= 0 {
		days = DefaultPeriodDays
	}
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}

	br.mutex.RLock()
	defer br.mutex.RUnlock()

	cutoff := br.since(days)
	entries := make([]models.RewardLeaderboardEntry, 0, len(br.history))
	for playerID, history := range br.history {
		recent := recentRewards(history, cutoff)
		if len(recent) == 0 {
			continue
		}

		entry := models.RewardLeaderboardEntry{
			PlayerID:    playerID,
			PlayerName:  recent[len(recent)-1].PlayerName,
			BattleCount: len(recent),
		}
		for _, r := range recent {
			entry.TotalCoins += r.TotalCoins
			entry.TotalExp += r.TotalExp
			if r.Result == models.ResultWin {
				entry.Wins++
			}
		}
		entry.WinRate = float64(entry.Wins) / float64(entry.BattleCount) * 100
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalCoins != entries[j].TotalCoins {
			return entries[i].TotalCoins > entries[j].TotalCoins
		}
		return entries[i].PlayerID < entries[j].PlayerID
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// GetStatistics 奖励模块统计
func (br *BattleRewards) GetStatistics() models.RewardStatistics {
	br.mutex.RLock()
	defer br.mutex.RUnlock()

	stats := models.RewardStatistics{TotalPlayersWithHistory: len(br.history)}
	for _, history := range br.history {
		for _, r := range history {
			stats.TotalDistributions++
			stats.TotalRewards.Coins += r.TotalCoins
			stats.TotalRewards.Exp += r.TotalExp
			switch r.Result {
			case models.ResultWin:
				stats.TotalWins++
			case models.ResultLose:
				stats.TotalLoses++
			}
			if r.WinStreakBonus {
				stats.WinStreakBonusesAwarded++
			}
		}
	}
	return stats
}

// ClearPlayerHistory 删除玩家的奖励记录
func (br *BattleRewards) ClearPlayerHistory(playerID string) {
	br.mutex.Lock()
	defer br.mutex.Unlock()

	delete(br.history, playerID)
}

// ClearAllHistory 删除全部奖励记录
func (br *BattleRewards) ClearAllHistory() {
	br.mutex.Lock()
	defer br.mutex.Unlock()

	br.history = make(map[string][]models.RewardResult)
}
