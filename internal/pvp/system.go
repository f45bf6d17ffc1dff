// system.go

package pvp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jacl-coder/PixelStorm-PvP/config"
	"github.com/jacl-coder/PixelStorm-PvP/internal/game"
	"github.com/jacl-coder/PixelStorm-PvP/internal/models"
	"github.com/jacl-coder/PixelStorm-PvP/internal/ranking"
	"github.com/jacl-coder/PixelStorm-PvP/internal/reward"
	"github.com/jacl-coder/PixelStorm-PvP/internal/skill"
	"github.com/jacl-coder/PixelStorm-PvP/pkg/clock"
	"github.com/jacl-coder/PixelStorm-PvP/pkg/logger"
	"go.uber.org/zap"
)

// comboBattleNotFound 对战不存在时的连招校验结果
const comboBattleNotFound = "Battle not found"

// Config 对战系统参数
type Config struct {
	Ranking     ranking.Config
	Rewards     reward.Config
	IdleTimeout time.Duration // 0 表示不自动取消
}

// DefaultConfig 默认参数
func DefaultConfig() Config {
	return Config{
		Ranking: ranking.DefaultConfig(),
		Rewards: reward.DefaultConfig(),
	}
}

// ConfigFromSettings 由配置文件中的 pvp 段生成参数
func ConfigFromSettings(c config.PvPConfig) Config {
	return Config{
		Ranking: ranking.Config{
			InitialRating: c.Ranking.InitialRating,
			KFactor:       c.Ranking.KFactor,
			MaxChange:     c.Ranking.MaxRatingChange,
			MinBattles:    c.Ranking.MinBattles,
			CacheTTL:      c.Ranking.CacheTTL,
			SeasonLength:  c.Ranking.SeasonLength(),
			HistoryLimit:  c.Ranking.HistoryLimit,
		},
		Rewards: reward.Config{
			WinCoins:        c.Rewards.WinCoins,
			WinExp:          c.Rewards.WinExp,
			LoseExp:         c.Rewards.LoseExp,
			StreakThreshold: c.Rewards.StreakThreshold,
			StreakStep:      c.Rewards.StreakStep,
			MaxMultiplier:   c.Rewards.MaxMultiplier,
			StreakWindow:    c.Rewards.StreakWindow,
			HistoryLimit:    c.Rewards.HistoryLimit,
		},
		IdleTimeout: c.IdleTimeout,
	}
}

// ActionResult 一次行动的结算结果，对战结束时附带积分和奖励
type ActionResult struct {
	Battle    game.BattleView       `json:"battle"`
	Action    models.ActionRecord   `json:"action"`
	Completed bool                  `json:"completed"`
	Outcome   *models.BattleOutcome `json:"outcome,omitempty"`
	Ranking   *models.RatingChange  `json:"ranking,omitempty"`
	Rewards   *models.BattleRewards `json:"rewards,omitempty"`
}

// Statistics 各模块统计
type Statistics struct {
	Battles models.BattleStatistics  `json:"battles"`
	Skills  models.SkillStatistics   `json:"skills"`
	Ranking models.RankingStatistics `json:"ranking"`
	Rewards models.RewardStatistics  `json:"rewards"`
}

// System 对战系统入口，串联对战、技能、积分和奖励
type System struct {
	cfg       Config
	battles   *game.BattleManager
	skills    *skill.Integration
	ranking   *ranking.PvPRanking
	rewards   *reward.BattleRewards
	archivers []Archiver

	// 串行化对战生命周期的写操作
	mutex sync.Mutex

	rng    game.Random
	clock  clock.Clock
	logger *zap.Logger
}

// Option 对战系统选项
type Option func(*System)

// WithRandom 设置随机数来源
func WithRandom(r game.Random) Option {
	return func(s *System) { s.rng = r }
}

// WithClock 设置时钟
func WithClock(c clock.Clock) Option {
	return func(s *System) { s.clock = c }
}

// WithLogger 设置日志器
func WithLogger(l *zap.Logger) Option {
	return func(s *System) { s.logger = l }
}

// WithArchiver 添加对战归档
func WithArchiver(a Archiver) Option {
	return func(s *System) {
		if a != nil {
			s.archivers = append(s.archivers, a)
		}
	}
}

// NewSystem 创建对战系统
func NewSystem(cfg Config, opts ...Option) *System {
	s := &System{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = game.NewDiceRoller(0)
	}
	if s.clock == nil {
		s.clock = clock.Real()
	}
	s.logger = logger.OrNop(s.logger)

	s.skills = skill.NewIntegration(s.rng, s.logger.Named("skill"))
	s.battles = game.NewBattleManager(
		game.WithRandom(s.rng),
		game.WithClock(s.clock),
		game.WithSkillResolver(s.skills),
		game.WithLogger(s.logger.Named("battle")),
	)
	s.ranking = ranking.NewPvPRanking(cfg.Ranking, s.clock, s.logger.Named("ranking"))
	s.rewards = reward.NewBattleRewards(cfg.Rewards, s.clock, s.logger.Named("reward"))
	return s
}

// CreateBattle 创建对战并初始化双方技能冷却
func (s *System) CreateBattle(p1, p2 *models.Player) (game.BattleView, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	battle, err := s.battles.CreateBattle(p1, p2)
	if err != nil {
		return game.BattleView{}, err
	}
	s.skills.InitializeCooldowns(battle, battle.Player1ID)
	s.skills.InitializeCooldowns(battle, battle.Player2ID)
	return battle.Snapshot(), nil
}

// StartBattle 开始对战
func (s *System) StartBattle(battleID string) (game.BattleView, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	battle, err := s.battles.StartBattle(battleID)
	if err != nil {
		return game.BattleView{}, err
	}
	return battle.Snapshot(), nil
}

// ExecuteAction 执行行动。对战结束时依次更新积分、发放奖励、清理技能冷却并归档
func (s *System) ExecuteAction(ctx context.Context, battleID string, action models.Action) (*ActionResult, error) {
	result, report, err := s.executeAction(battleID, action)
	if err != nil {
		return nil, err
	}
	if report != nil {
		s.archive(ctx, report)
	}
	return result, nil
}

func (s *System) executeAction(battleID string, action models.Action) (*ActionResult, *models.BattleReport, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	battle, record, err := s.battles.ExecuteAction(battleID, action)
	if err != nil {
		return nil, nil, err
	}

	result := &ActionResult{
		Battle:    battle.Snapshot(),
		Action:    record,
		Completed: battle.Status == models.BattleCompleted,
	}
	if !result.Completed {
		s.skills.ReduceCooldowns(battle, battle.Opponent(action.PlayerID))
		return result, nil, nil
	}

	report, err := s.completeBattle(battle)
	if err != nil {
		return nil, nil, err
	}
	result.Outcome = &report.Outcome
	result.Ranking = &report.Rating
	result.Rewards = &report.Rewards
	return result, report, nil
}

// completeBattle 结算已结束的对战，调用方需持有锁
func (s *System) completeBattle(battle *game.Battle) (*models.BattleReport, error) {
	defer s.skills.CleanupBattle(battle.ID)

	outcome, err := battle.Outcome()
	if err != nil {
		return nil, err
	}
	change, err := s.ranking.RecordBattle(outcome)
	if err != nil {
		return nil, fmt.Errorf("record battle: %w", err)
	}
	rewards, err := s.rewards.DistributeRewards(outcome)
	if err != nil {
		return nil, fmt.Errorf("distribute rewards: %w", err)
	}

	report := &models.BattleReport{
		Outcome: outcome,
		Rating:  *change,
		Rewards: *rewards,
	}
	report.WinnerStats, _ = s.ranking.Snapshot(outcome.WinnerID)
	report.LoserStats, _ = s.ranking.Snapshot(outcome.LoserID)
	report.Season = report.WinnerStats.Season

	s.logger.Info("对战结算完成",
		zap.String("battle_id", outcome.BattleID),
		zap.String("winner_id", outcome.WinnerID),
		zap.String("loser_id", outcome.LoserID),
		zap.Int("turns", outcome.Turns),
		zap.Int("rating_change", change.WinnerChange),
		zap.Int("coins", rewards.Winner.TotalCoins))
	return report, nil
}

// archive 归档失败只记录日志
func (s *System) archive(ctx context.Context, report *models.BattleReport) {
	for _, a := range s.archivers {
		if err := a.ArchiveBattle(ctx, report); err != nil {
			s.logger.Error("对战归档失败",
				zap.String("battle_id", report.Outcome.BattleID),
				zap.String("archiver", fmt.Sprintf("%T", a)),
				zap.Error(err))
		}
	}
}

// CancelBattle 取消对战并清理技能冷却
func (s *System) CancelBattle(battleID string) (game.BattleView, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	battle, err := s.battles.CancelBattle(battleID)
	if err != nil {
		return game.BattleView{}, err
	}
	s.skills.CleanupBattle(battleID)
	return battle.Snapshot(), nil
}

// GetBattle 活跃对战的摘要
func (s *System) GetBattle(battleID string) (models.BattleSummary, bool) {
	var summary models.BattleSummary
	err := s.battles.ViewBattle(battleID, func(b *game.Battle) {
		summary = b.Summary()
	})
	return summary, err == nil
}

// BattleView 活跃对战的完整状态
func (s *System) BattleView(battleID string) (game.BattleView, error) {
	var view game.BattleView
	err := s.battles.ViewBattle(battleID, func(b *game.Battle) {
		view = b.Snapshot()
	})
	return view, err
}

// GetPlayerBattle 玩家当前所在对战的完整状态
func (s *System) GetPlayerBattle(playerID string) (game.BattleView, bool) {
	battle, ok := s.battles.GetPlayerBattle(playerID)
	if !ok {
		return game.BattleView{}, false
	}
	view, err := s.BattleView(battle.ID)
	return view, err == nil
}

// CanUseSkill 技能当前是否可用，对战不存在时为 false
func (s *System) CanUseSkill(battleID, playerID, skillID string) bool {
	usable := false
	_ = s.battles.ViewBattle(battleID, func(b *game.Battle) {
		usable = s.skills.ValidateSkill(b, playerID, skillID) == nil
	})
	return usable
}

// GetSkillCooldown 技能剩余冷却回合
func (s *System) GetSkillCooldown(battleID, playerID, skillID string) (int, error) {
	cooldown := 0
	err := s.battles.ViewBattle(battleID, func(b *game.Battle) {
		cooldown = s.skills.GetSkillCooldown(b, playerID, skillID)
	})
	return cooldown, err
}

// GetAllSkillCooldowns 玩家全部技能的剩余冷却
func (s *System) GetAllSkillCooldowns(battleID, playerID string) (map[string]int, error) {
	var cooldowns map[string]int
	err := s.battles.ViewBattle(battleID, func(b *game.Battle) {
		cooldowns = s.skills.GetAllSkillCooldowns(b, playerID)
	})
	return cooldowns, err
}

// CheckCombo 连招校验
func (s *System) CheckCombo(battleID, playerID, skillID string) models.ComboCheck {
	check := models.ComboCheck{Valid: false, Reason: comboBattleNotFound}
	_ = s.battles.ViewBattle(battleID, func(b *game.Battle) {
		check = s.skills.CheckCombo(b, playerID, skillID)
	})
	return check
}

// GetAllActiveBattles 所有活跃对战的摘要
func (s *System) GetAllActiveBattles() []models.BattleSummary {
	return s.battles.GetAllActiveBattles()
}

// GetRanking 积分排行榜
func (s *System) GetRanking(limit int, season bool) []models.RankingEntry {
	return s.ranking.GetRanking(limit, season)
}

// GetPlayerRanking 玩家积分及排名，玩家不存在时为 nil
func (s *System) GetPlayerRanking(playerID string, season bool) *ranking.PlayerRanking {
	return s.ranking.GetPlayerRanking(playerID, season)
}

// GetPlayerRecentBattles 玩家最近的对战记录
func (s *System) GetPlayerRecentBattles(playerID string, limit int) []models.BattleRecord {
	return s.ranking.GetPlayerRecentBattles(playerID, limit)
}

// GetSeasonRankings 指定赛季的排行榜
func (s *System) GetSeasonRankings(season string, limit int) []models.SeasonRankingEntry {
	return s.ranking.GetSeasonRankings(season, limit)
}

// CurrentSeason 当前赛季
func (s *System) CurrentSeason() string {
	return s.ranking.CurrentSeason()
}

// GetPlayerRewardHistory 玩家最近的奖励记录
func (s *System) GetPlayerRewardHistory(playerID string, limit int) []models.RewardSummary {
	return s.rewards.GetPlayerRewardHistory(playerID, limit)
}

// GetPlayerTotalRewards 玩家最近 days 天的奖励汇总
func (s *System) GetPlayerTotalRewards(playerID string, days int) models.PlayerRewardTotals {
	return s.rewards.GetPlayerTotalRewards(playerID, days)
}

// GetRewardLeaderboard 收益排行榜
func (s *System) GetRewardLeaderboard(days, limit int) []models.RewardLeaderboardEntry {
	return s.rewards.GetRewardLeaderboard(days, limit)
}

// GetStatistics 各模块统计
func (s *System) GetStatistics() Statistics {
	return Statistics{
		Battles: s.battles.GetStatistics(),
		Skills:  s.skills.GetStatistics(),
		Ranking: s.ranking.GetStatistics(),
		Rewards: s.rewards.GetStatistics(),
	}
}

// IsNotFound 错误是否表示对战不存在
func IsNotFound(err error) bool {
	return errors.Is(err, game.ErrBattleNotFound)
}
