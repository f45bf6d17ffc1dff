// stats.go

package ranking

import (
	"github.com/jacl-coder/PixelStorm-PvP/internal/models"
)

// PlayerPvPStats 玩家对战数据
type PlayerPvPStats struct {
	PlayerID      string                `json:"player_id"`
	PlayerName    string                `json:"player_name"`
	TotalBattles  int                   `json:"total_battles"`
	Wins          int                   `json:"wins"`
	Losses        int                   `json:"losses"`
	Draws         int                   `json:"draws"`
	Rating        int                   `json:"rating"`
	MaxRating     int                   `json:"max_rating"`
	WinStreak     int                   `json:"win_streak"`
	MaxWinStreak  int                   `json:"max_win_streak"`
	BattleRecords []models.BattleRecord `json:"battle_records"`
	Season        string                `json:"season"`
	SeasonRating  int                   `json:"season_rating"`
	SeasonWins    int                   `json:"season_wins"`
	SeasonLosses  int                   `json:"season_losses"`
}

func newPlayerStats(playerID, playerName string, rating int, season string) *PlayerPvPStats {
	return &PlayerPvPStats{
		PlayerID:      playerID,
		PlayerName:    playerName,
		Rating:        rating,
		MaxRating:     rating,
		SeasonRating:  rating,
		Season:        season,
		BattleRecords: make([]models.BattleRecord, 0),
	}
}

// checkSeason 赛季变化时以当前积分作为新赛季积分
func (p *PlayerPvPStats) checkSeason(current string) {
	if p.Season == current {
		return
	}
	p.Season = current
	p.SeasonRating = p.Rating
	p.SeasonWins = 0
	p.SeasonLosses = 0
}

func (p *PlayerPvPStats) addWin(change int) {
	p.TotalBattles++
	p.Wins++
	p.WinStreak++
	p.MaxWinStreak = max(p.MaxWinStreak, p.WinStreak)

	p.Rating += change
	p.MaxRating = max(p.MaxRating, p.Rating)

	p.SeasonWins++
	p.SeasonRating += change
}

// addLose 积分不低于0
func (p *PlayerPvPStats) addLose(change int) {
	p.TotalBattles++
	p.Losses++
	p.WinStreak = 0

	p.Rating = max(0, p.Rating+change)

	p.SeasonLosses++
	p.SeasonRating = max(0, p.SeasonRating+change)
}

// WinRate 胜率(%)，没有对战时为0
func (p *PlayerPvPStats) WinRate() float64 {
	if p.TotalBattles == 0 {
		return 0
	}
	return float64(p.Wins) / float64(p.TotalBattles) * 100
}

// addBattleRecord 追加对战记录，超出上限时丢弃最早的
func (p *PlayerPvPStats) addBattleRecord(record models.BattleRecord, limit int) {
	p.BattleRecords = append(p.BattleRecords, record)
	if over := len(p.BattleRecords) - limit; over > 0 {
		p.BattleRecords = append([]models.BattleRecord(nil), p.BattleRecords[over:]...)
	}
}

// RecentBattles 最近 limit 场对战记录
func (p *PlayerPvPStats) RecentBattles(limit int) []models.BattleRecord {
	start := max(0, len(p.BattleRecords)-limit)
	return append([]models.BattleRecord(nil), p.BattleRecords[start:]...)
}

func (p *PlayerPvPStats) clone() PlayerPvPStats {
	c := *p
	c.BattleRecords = append([]models.BattleRecord(nil), p.BattleRecords...)
	return c
}

func (p *PlayerPvPStats) snapshot() models.RatingSnapshot {
	return models.RatingSnapshot{
		PlayerID:     p.PlayerID,
		PlayerName:   p.PlayerName,
		Rating:       p.Rating,
		MaxRating:    p.MaxRating,
		Season:       p.Season,
		SeasonRating: p.SeasonRating,
		TotalBattles: p.TotalBattles,
		Wins:         p.Wins,
		Losses:       p.Losses,
		WinRate:      p.WinRate(),
		WinStreak:    p.WinStreak,
	}
}
