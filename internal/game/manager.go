// manager.go

package game

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jacl-coder/PixelStorm-PvP/internal/models"
	"github.com/jacl-coder/PixelStorm-PvP/pkg/clock"
	"go.uber.org/zap"
)

// BattleManager 对战注册表，保证每名玩家同时只有一场进行中的对战
type BattleManager struct {
	activeBattles map[string]*Battle // 对战ID -> 对战
	playerBattles map[string]string  // 玩家ID -> 对战ID
	mutex         sync.RWMutex

	rng    Random
	clock  clock.Clock
	skills SkillResolver
	logger *zap.Logger
}

// Option 对战管理器选项
type Option func(*BattleManager)

// WithRandom 设置随机数来源
func WithRandom(r Random) Option {
	return func(m *BattleManager) { m.rng = r }
}

// WithClock 设置时钟
func WithClock(c clock.Clock) Option {
	return func(m *BattleManager) { m.clock = c }
}

// WithSkillResolver 设置技能结算器
func WithSkillResolver(s SkillResolver) Option {
	return func(m *BattleManager) { m.skills = s }
}

// WithLogger 设置日志器
func WithLogger(l *zap.Logger) Option {
	return func(m *BattleManager) { m.logger = l }
}

// NewBattleManager 创建对战管理器
func NewBattleManager(opts ...Option) *BattleManager {
	m := &BattleManager{
		activeBattles: make(map[string]*Battle),
		playerBattles: make(map[string]string),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.rng == nil {
		m.rng = NewDiceRoller(0)
	}
	if m.clock == nil {
		m.clock = clock.Real()
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	return m
}

// CreateBattle 创建对战
func (m *BattleManager) CreateBattle(p1, p2 *models.Player) (*Battle, error) {
	if p1 == nil || p2 == nil || p1.ID == "" || p2.ID == "" {
		return nil, ErrPlayersRequired
	}
	if p1.ID == p2.ID {
		return nil, ErrSelfBattle
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.playerBattles[p1.ID]; exists {
		return nil, fmt.Errorf("player 1: %w", ErrPlayerInBattle)
	}
	if _, exists := m.playerBattles[p2.ID]; exists {
		return nil, fmt.Errorf("player 2: %w", ErrPlayerInBattle)
	}

	battle := NewBattle(p1, p2, m.rng, m.clock)
	m.activeBattles[battle.ID] = battle
	m.playerBattles[p1.ID] = battle.ID
	m.playerBattles[p2.ID] = battle.ID

	m.logger.Info("创建对战",
		zap.String("battle_id", battle.ID),
		zap.String("player1_id", p1.ID),
		zap.String("player2_id", p2.ID))
	return battle, nil
}

// StartBattle 开始对战
func (m *BattleManager) StartBattle(battleID string) (*Battle, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	battle, exists := m.activeBattles[battleID]
	if !exists {
		return nil, ErrBattleNotFound
	}
	if err := battle.Start(); err != nil {
		return nil, err
	}

	m.logger.Info("对战开始",
		zap.String("battle_id", battleID),
		zap.String("first_player", battle.CurrentPlayer))
	return battle, nil
}

// ExecuteAction 执行行动，对战结束后从注册表移除
func (m *BattleManager) ExecuteAction(battleID string, action models.Action) (*Battle, models.ActionRecord, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	battle, exists := m.activeBattles[battleID]
	if !exists {
		return nil, models.ActionRecord{}, ErrBattleNotFound
	}

	record, err := battle.ExecuteAttack(action, m.skills)
	if err != nil {
		return nil, models.ActionRecord{}, err
	}

	m.logger.Debug("行动已结算",
		zap.String("battle_id", battleID),
		zap.String("player_id", action.PlayerID),
		zap.String("type", string(action.Type)),
		zap.Int("damage", record.Damage))

	if battle.Status == models.BattleCompleted {
		m.logger.Info("对战结束",
			zap.String("battle_id", battleID),
			zap.String("winner_id", battle.Winner),
			zap.Int("turn", battle.Turn))
		m.cleanupBattle(battle)
	}
	return battle, record, nil
}

// CancelBattle 取消对战
func (m *BattleManager) CancelBattle(battleID string) (*Battle, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	battle, exists := m.activeBattles[battleID]
	if !exists {
		return nil, ErrBattleNotFound
	}
	if err := battle.Cancel(); err != nil {
		return nil, err
	}
	m.cleanupBattle(battle)

	m.logger.Info("对战已取消", zap.String("battle_id", battleID))
	return battle, nil
}

// cleanupBattle 释放已结束或已取消对战的索引，调用方需持有写锁
func (m *BattleManager) cleanupBattle(battle *Battle) {
	if !battle.Status.IsTerminal() {
		return
	}
	if m.playerBattles[battle.Player1ID] == battle.ID {
		delete(m.playerBattles, battle.Player1ID)
	}
	if m.playerBattles[battle.Player2ID] == battle.ID {
		delete(m.playerBattles, battle.Player2ID)
	}
	delete(m.activeBattles, battle.ID)
}

// GetBattle 获取对战
func (m *BattleManager) GetBattle(battleID string) (*Battle, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	battle, exists := m.activeBattles[battleID]
	return battle, exists
}

// GetPlayerBattle 获取玩家所在的对战
func (m *BattleManager) GetPlayerBattle(playerID string) (*Battle, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	battleID, exists := m.playerBattles[playerID]
	if !exists {
		return nil, false
	}
	battle, exists := m.activeBattles[battleID]
	return battle, exists
}

// ViewBattle 在读锁内访问对战
func (m *BattleManager) ViewBattle(battleID string, fn func(*Battle)) error {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	battle, exists := m.activeBattles[battleID]
	if !exists {
		return ErrBattleNotFound
	}
	fn(battle)
	return nil
}

// GetAllActiveBattles 所有活跃对战的摘要，按创建时间排序
func (m *BattleManager) GetAllActiveBattles() []models.BattleSummary {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	summaries := make([]models.BattleSummary, 0, len(m.activeBattles))
	for _, battle := range m.activeBattles {
		summaries = append(summaries, battle.Summary())
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].ID < summaries[j].ID
		}
		return summaries[i].CreatedAt.Before(summaries[j].CreatedAt)
	})
	return summaries
}

// IdleBattles 返回最后一次行动早于 now-maxIdle 的对战ID
func (m *BattleManager) IdleBattles(now time.Time, maxIdle time.Duration) []string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var ids []string
	for id, battle := range m.activeBattles {
		if now.Sub(battle.LastActivityAt) >= maxIdle {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// GetStatistics 对战统计
func (m *BattleManager) GetStatistics() models.BattleStatistics {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	stats := models.BattleStatistics{TotalActive: len(m.activeBattles)}
	for _, battle := range m.activeBattles {
		switch battle.Status {
		case models.BattlePreparing:
			stats.ByStatus.Preparing++
		case models.BattleInProgress:
			stats.ByStatus.InProgress++
		case models.BattleCompleted:
			stats.ByStatus.Completed++
		case models.BattleCancelled:
			stats.ByStatus.Cancelled++
		}
	}
	return stats
}
