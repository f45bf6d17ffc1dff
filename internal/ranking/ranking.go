// ranking.go

package ranking

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jacl-coder/PixelStorm-PvP/internal/models"
	"github.com/jacl-coder/PixelStorm-PvP/pkg/clock"
	"go.uber.org/zap"
)

// ErrInvalidOutcome 胜负双方缺失或相同
var ErrInvalidOutcome = errors.New("ranking: invalid battle outcome")

const (
	// DefaultRankingLimit 排行榜默认条数
	DefaultRankingLimit = 100
	// DefaultRecentLimit 最近对战默认条数
	DefaultRecentLimit = 10
)

// Config 积分参数
type Config struct {
	InitialRating int
	KFactor       int
	MaxChange     int
	MinBattles    int           // 进入排行榜的最少场次
	CacheTTL      time.Duration // 排行榜缓存时长
	SeasonLength  time.Duration
	HistoryLimit  int // 每名玩家保留的对战记录数
}

// DefaultConfig 默认积分参数
func DefaultConfig() Config {
	return Config{
		InitialRating: 1000,
		KFactor:       32,
		MaxChange:     50,
		MinBattles:    5,
		CacheTTL:      time.Minute,
		SeasonLength:  30 * 24 * time.Hour,
		HistoryLimit:  100,
	}
}

// withDefaults 非正的上限与赛季时长回落到默认值
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.KFactor <= 0 {
		c.KFactor = def.KFactor
	}
	if c.MaxChange <= 0 {
		c.MaxChange = def.MaxChange
	}
	if c.SeasonLength < time.Millisecond {
		c.SeasonLength = def.SeasonLength
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = def.HistoryLimit
	}
	return c
}

// PlayerRanking 玩家数据及排名，未上榜时 Rank 为空
type PlayerRanking struct {
	PlayerPvPStats
	WinRate  float64 `json:"win_rate"`
	Rank     *int    `json:"rank"`
	IsSeason bool    `json:"is_season"`
}

// PvPRanking 积分与排行榜
type PvPRanking struct {
	cfg          Config
	playerStats  map[string]*PlayerPvPStats
	totalBattles int
	mutex        sync.RWMutex

	// 完整排序结果的缓存，按 limit 截取
	rankingCache     []models.RankingEntry
	rankingCacheTime time.Time
	rankingCached    bool

	clock  clock.Clock
	logger *zap.Logger
}

// NewPvPRanking 创建积分模块
func NewPvPRanking(cfg Config, clk clock.Clock, logger *zap.Logger) *PvPRanking {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PvPRanking{
		cfg:         cfg.withDefaults(),
		playerStats: make(map[string]*PlayerPvPStats),
		clock:       clk,
		logger:      logger,
	}
}

// CurrentSeason 当前赛季
func (r *PvPRanking) CurrentSeason() string {
	return SeasonID(r.clock.Now(), r.cfg.SeasonLength)
}

// getOrCreatePlayerStats 调用方需持有写锁
func (r *PvPRanking) getOrCreatePlayerStats(playerID, playerName string) *PlayerPvPStats {
	stats, exists := r.playerStats[playerID]
	if !exists {
		stats = newPlayerStats(playerID, playerName, r.cfg.InitialRating, r.CurrentSeason())
		r.playerStats[playerID] = stats
	}
	return stats
}

// RecordBattle 记录对战结果并更新双方积分
func (r *PvPRanking) RecordBattle(outcome models.BattleOutcome) (*models.RatingChange, error) {
	if outcome.WinnerID == "" || outcome.LoserID == "" || outcome.WinnerID == outcome.LoserID {
		return nil, ErrInvalidOutcome
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	season := r.CurrentSeason()
	winner := r.getOrCreatePlayerStats(outcome.WinnerID, outcome.WinnerName)
	loser := r.getOrCreatePlayerStats(outcome.LoserID, outcome.LoserName)

	winner.checkSeason(season)
	loser.checkSeason(season)

	winnerChange, loserChange := CalculateRatingChange(winner.Rating, loser.Rating, r.cfg.KFactor, r.cfg.MaxChange)
	winner.addWin(winnerChange)
	loser.addLose(loserChange)

	battleDate := outcome.EndedAt
	if battleDate.IsZero() {
		battleDate = r.clock.Now()
	}
	record := models.BattleRecord{
		ID:         uuid.New().String(),
		BattleID:   outcome.BattleID,
		WinnerID:   outcome.WinnerID,
		LoserID:    outcome.LoserID,
		BattleDate: battleDate,
		Season:     season,
	}
	winner.addBattleRecord(record, r.cfg.HistoryLimit)
	loser.addBattleRecord(record, r.cfg.HistoryLimit)
	r.totalBattles++

	r.invalidateRankingCache()

	r.logger.Info("积分已更新",
		zap.String("battle_id", outcome.BattleID),
		zap.String("winner_id", outcome.WinnerID),
		zap.Int("winner_change", winnerChange),
		zap.String("loser_id", outcome.LoserID),
		zap.Int("loser_change", loserChange))

	return &models.RatingChange{
		WinnerChange:    winnerChange,
		LoserChange:     loserChange,
		NewWinnerRating: winner.Rating,
		NewLoserRating:  loser.Rating,
	}, nil
}

// GetRanking 排行榜，season 为 true 时使用赛季积分且不走缓存
func (r *PvPRanking) GetRanking(limit int, season bool) []models.RankingEntry {
	if limit <= 0 {
		limit = DefaultRankingLimit
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	ranking := r.fullRanking(season)
	if len(ranking) > limit {
		ranking = ranking[:limit]
	}
	return append([]models.RankingEntry(nil), ranking...)
}

// fullRanking 完整排行榜，非赛季结果带缓存，调用方需持有写锁
func (r *PvPRanking) fullRanking(season bool) []models.RankingEntry {
	if season {
		return r.buildRanking(true)
	}
	if !r.isRankingCacheValid() {
		r.rankingCache = r.buildRanking(false)
		r.rankingCacheTime = r.clock.Now()
		r.rankingCached = true
	}
	return r.rankingCache
}

// buildRanking 按积分降序、胜率降序排序，调用方需持有锁
func (r *PvPRanking) buildRanking(season bool) []models.RankingEntry {
	entries := make([]models.RankingEntry, 0, len(r.playerStats))
	for _, stats := range r.playerStats {
		if stats.TotalBattles < r.cfg.MinBattles {
			continue
		}
		rating := stats.Rating
		if season {
			rating = stats.SeasonRating
		}
		entries = append(entries, models.RankingEntry{
			PlayerID:     stats.PlayerID,
			PlayerName:   stats.PlayerName,
			Rating:       rating,
			TotalBattles: stats.TotalBattles,
			Wins:         stats.Wins,
			Losses:       stats.Losses,
			WinRate:      stats.WinRate(),
			WinStreak:    stats.WinStreak,
			MaxWinStreak: stats.MaxWinStreak,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Rating != entries[j].Rating {
			return entries[i].Rating > entries[j].Rating
		}
		if entries[i].WinRate != entries[j].WinRate {
			return entries[i].WinRate > entries[j].WinRate
		}
		return entries[i].PlayerID < entries[j].PlayerID
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

func (r *PvPRanking) isRankingCacheValid() bool {
	if !r.rankingCached {
		return false
	}
	return r.clock.Since(r.rankingCacheTime) < r.cfg.CacheTTL
}

func (r *PvPRanking) invalidateRankingCache() {
	r.rankingCache = nil
	r.rankingCacheTime = time.Time{}
	r.rankingCached = false
}

// GetPlayerRanking 玩家数据与排名，玩家不存在时返回 nil
func (r *PvPRanking) GetPlayerRanking(playerID string, season bool) *PlayerRanking {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	stats, exists := r.playerStats[playerID]
	if !exists {
		return nil
	}

	result := &PlayerRanking{
		PlayerPvPStats: stats.clone(),
		WinRate:        stats.WinRate(),
		IsSeason:       season,
	}
	for _, entry := range r.fullRanking(season) {
		if entry.PlayerID == playerID {
			rank := entry.Rank
			result.Rank = &rank
			break
		}
	}
	return result
}

// GetPlayerStats 玩家数据副本
func (r *PvPRanking) GetPlayerStats(playerID string) (PlayerPvPStats, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	stats, exists := r.playerStats[playerID]
	if !exists {
		return PlayerPvPStats{}, false
	}
	return stats.clone(), true
}

// Snapshot 玩家积分快照
func (r *PvPRanking) Snapshot(playerID string) (models.RatingSnapshot, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	stats, exists := r.playerStats[playerID]
	if !exists {
		return models.RatingSnapshot{}, false
	}
	return stats.snapshot(), true
}

// GetPlayerRecentBattles 玩家最近的对战记录，玩家不存在时为空
func (r *PvPRanking) GetPlayerRecentBattles(playerID string, limit int) []models.BattleRecord {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	stats, exists := r.playerStats[playerID]
	if !exists {
		return []models.BattleRecord{}
	}
	return stats.RecentBattles(limit)
}

// GetSeasonRankings 指定赛季的排行榜，按胜场降序
func (r *PvPRanking) GetSeasonRankings(season string, limit int) []models.SeasonRankingEntry {
	if limit <= 0 {
		limit = DefaultRankingLimit
	}

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	entries := make([]models.SeasonRankingEntry, 0)
	for _, stats := range r.playerStats {
		battles, wins := 0, 0
		for _, record := range stats.BattleRecords {
			if record.Season != season {
				continue
			}
			battles++
			if record.WinnerID == stats.PlayerID {
				wins++
			}
		}
		if battles < r.cfg.MinBattles {
			continue
		}
		entries = append(entries, models.SeasonRankingEntry{
			PlayerID:   stats.PlayerID,
			PlayerName: stats.PlayerName,
			Season:     season,
			Battles:    battles,
			Wins:       wins,
			Losses:     battles - wins,
			WinRate:    float64(wins) / float64(battles) * 100,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Wins != entries[j].Wins {
			return entries[i].Wins > entries[j].Wins
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

// GetStatistics 积分模块统计
func (r *PvPRanking) GetStatistics() models.RankingStatistics {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	stats := models.RankingStatistics{
		TotalPlayers:  len(r.playerStats),
		TotalBattles:  r.totalBattles,
		CurrentSeason: r.CurrentSeason(),
	}

	ranked, sum := 0, 0
	for _, p := range r.playerStats {
		if p.TotalBattles >= 1 {
			stats.ActivePlayers++
		}
		if p.TotalBattles >= r.cfg.MinBattles {
			ranked++
			sum += p.Rating
		}
	}
	if ranked > 0 {
		stats.AverageRating = float64(sum) / float64(ranked)
	}
	return stats
}
