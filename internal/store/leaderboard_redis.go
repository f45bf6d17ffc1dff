package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jacl-coder/PixelStorm-PvP/internal/models"
)

// 排行榜Redis键名
const (
	RatingLeaderboardKey = "pvp:leaderboard:rating"

	// 赛季排行榜键前缀
	SeasonLeaderboardPrefix = "pvp:leaderboard:season:"

	// 玩家详细信息键前缀
	PlayerInfoPrefix = "pvp:player:info:"

	// 玩家信息缓存时间
	DefaultInfoTTL = 5 * time.Minute
)

// MirrorEntry Redis排行榜条目
type MirrorEntry struct {
	Rank     int                    `json:"rank"`
	PlayerID string                 `json:"player_id"`
	Score    float64                `json:"score"`
	Info     *models.RatingSnapshot `json:"info,omitempty"`
}

// RatingLeaderboard 积分排行榜在Redis中的镜像
type RatingLeaderboard struct {
	client  *redis.Client
	infoTTL time.Duration
}

// NewRatingLeaderboard 创建Redis排行榜镜像
func NewRatingLeaderboard(client *redis.Client, infoTTL time.Duration) *RatingLeaderboard {
	if infoTTL <= 0 {
		infoTTL = DefaultInfoTTL
	}
	return &RatingLeaderboard{
		client:  client,
		infoTTL: infoTTL,
	}
}

// SeasonKey 赛季排行榜键名
func SeasonKey(season string) string {
	return SeasonLeaderboardPrefix + season
}

// PlayerInfoKey 玩家信息键名
func PlayerInfoKey(playerID string) string {
	return PlayerInfoPrefix + playerID
}

// ArchiveBattle 写入双方积分、赛季积分和玩家信息
func (rl *RatingLeaderboard) ArchiveBattle(ctx context.Context, report *models.BattleReport) error {
	snapshots := []models.RatingSnapshot{report.WinnerStats, report.LoserStats}

	payloads := make([][]byte, len(snapshots))
	for i, snap := range snapshots {
		data, err := json.Marshal(snap)
		if err != nil {
			return err
		}
		payloads[i] = data
	}

	_, err := rl.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, snap := range snapshots {
			if snap.PlayerID == "" {
				continue
			}
			pipe.ZAdd(ctx, RatingLeaderboardKey, &redis.Z{
				Score:  float64(snap.Rating),
				Member: snap.PlayerID,
			})
			if snap.Season != "" {
				pipe.ZAdd(ctx, SeasonKey(snap.Season), &redis.Z{
					Score:  float64(snap.SeasonRating),
					Member: snap.PlayerID,
				})
			}
			pipe.Set(ctx, PlayerInfoKey(snap.PlayerID), payloads[i], rl.infoTTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("更新Redis排行榜失败: %w", err)
	}
	return nil
}

// TopRatings 积分最高的 limit 名玩家
func (rl *RatingLeaderboard) TopRatings(ctx context.Context, limit int) ([]MirrorEntry, error) {
	return rl.top(ctx, RatingLeaderboardKey, limit)
}

// SeasonTop 赛季积分最高的 limit 名玩家
func (rl *RatingLeaderboard) SeasonTop(ctx context.Context, season string, limit int) ([]MirrorEntry, error) {
	return rl.top(ctx, SeasonKey(season), limit)
}

func (rl *RatingLeaderboard) top(ctx context.Context, key string, limit int) ([]MirrorEntry, error) {
	if limit <= 0 {
		return []MirrorEntry{}, nil
	}

	// 按分数降序
	members, err := rl.client.ZRevRangeWithScores(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]MirrorEntry, 0, len(members))
	for i, member := range members {
		playerID, ok := member.Member.(string)
		if !ok {
			continue
		}

		entry := MirrorEntry{
			Rank:     i + 1,
			PlayerID: playerID,
			Score:    member.Score,
		}
		// 玩家信息过期时只返回分数
		info, err := rl.PlayerInfo(ctx, playerID)
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, err
		}
		entry.Info = info
		entries = append(entries, entry)
	}
	return entries, nil
}

// PlayerInfo 从Redis获取玩家信息
func (rl *RatingLeaderboard) PlayerInfo(ctx context.Context, playerID string) (*models.RatingSnapshot, error) {
	data, err := rl.client.Get(ctx, PlayerInfoKey(playerID)).Bytes()
	if err != nil {
		return nil, err
	}

	var snap models.RatingSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// PlayerRank 玩家在积分榜的名次，从1开始，不在榜上时为 -1
func (rl *RatingLeaderboard) PlayerRank(ctx context.Context, playerID string) (int, error) {
	rank, err := rl.client.ZRevRank(ctx, RatingLeaderboardKey, playerID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return -1, nil
		}
		return -1, err
	}
	return int(rank) + 1, nil
}

// resetScanCount 每次 SCAN 的建议返回数量
const resetScanCount = 100

// Reset 清空积分榜、所有赛季榜与玩家信息缓存
func (rl *RatingLeaderboard) Reset(ctx context.Context) error {
	keys := []string{RatingLeaderboardKey}
	for _, pattern := range []string{SeasonLeaderboardPrefix + "*", PlayerInfoPrefix + "*"} {
		iter := rl.client.Scan(ctx, 0, pattern, resetScanCount).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("扫描排行榜键失败: %w", err)
		}
	}
	return rl.client.Del(ctx, keys...).Err()
}
