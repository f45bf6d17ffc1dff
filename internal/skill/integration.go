// integration.go

package skill

import (
	"fmt"
	"sort"
	"sync"

	"github.com/jacl-coder/PixelStorm-PvP/internal/game"
	"github.com/jacl-coder/PixelStorm-PvP/internal/models"
	"go.uber.org/zap"
)

// DefaultCooldown 技能未配置冷却时使用的回合数
const DefaultCooldown = 3

// cooldownKey 冷却表的键
type cooldownKey struct {
	BattleID string
	PlayerID string
	SkillID  string
}

// Integration 技能冷却表与效果结算
type Integration struct {
	cooldowns map[cooldownKey]int
	mutex     sync.RWMutex

	rng    game.Random
	logger *zap.Logger
}

// NewIntegration 创建技能模块，rng 为空时使用随机种子
func NewIntegration(rng game.Random, logger *zap.Logger) *Integration {
	if rng == nil {
		rng = game.NewDiceRoller(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Integration{
		cooldowns: make(map[cooldownKey]int),
		rng:       rng,
		logger:    logger,
	}
}

// InitializeCooldowns 为玩家的每个技能建立冷却记录
func (s *Integration) InitializeCooldowns(b *game.Battle, playerID string) {
	player, ok := b.Players[playerID]
	if !ok {
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, sk := range player.Skills {
		s.cooldowns[cooldownKey{b.ID, playerID, sk.ID}] = 0
	}
}

// CanUseSkill 冷却为0时技能可用
func (s *Integration) CanUseSkill(b *game.Battle, playerID, skillID string) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.cooldowns[cooldownKey{b.ID, playerID, skillID}] == 0
}

// ValidateSkill 检查技能存在且不在冷却中
func (s *Integration) ValidateSkill(b *game.Battle, playerID, skillID string) error {
	player, ok := b.Players[playerID]
	if !ok {
		return game.ErrSkillNotFound
	}
	if _, ok := player.FindSkill(skillID); !ok {
		return game.ErrSkillNotFound
	}
	if !s.CanUseSkill(b, playerID, skillID) {
		return game.ErrSkillOnCooldown
	}
	return nil
}

// UseSkill 使用技能，等同于校验后结算
func (s *Integration) UseSkill(b *game.Battle, playerID, skillID string) ([]models.EffectResult, error) {
	return s.ApplySkill(b, playerID, skillID)
}

// ApplySkill 设置冷却并按顺序结算技能效果，之后双方的状态效果持续回合减一
func (s *Integration) ApplySkill(b *game.Battle, playerID, skillID string) ([]models.EffectResult, error) {
	if err := s.ValidateSkill(b, playerID, skillID); err != nil {
		return nil, err
	}

	attacker := b.Players[playerID]
	defender := b.Players[b.Opponent(playerID)]
	sk, _ := attacker.FindSkill(skillID)

	cooldown := sk.Cooldown
	if cooldown == 0 {
		cooldown = DefaultCooldown
	}
	s.mutex.Lock()
	s.cooldowns[cooldownKey{b.ID, playerID, skillID}] = cooldown
	s.mutex.Unlock()

	results := make([]models.EffectResult, 0, len(sk.Effects))
	for _, effect := range sk.Effects {
		value, description := s.applyEffect(b, attacker, defender, effect)
		results = append(results, models.EffectResult{
			Type:        effect.Type,
			Target:      effect.Target,
			Value:       value,
			Description: description,
		})
	}

	reduceStatusEffects(attacker)
	reduceStatusEffects(defender)

	b.AddLog(models.LogSkill, fmt.Sprintf("%s used skill: %s", attacker.Name, sk.Name))

	s.logger.Debug("技能已结算",
		zap.String("battle_id", b.ID),
		zap.String("player_id", playerID),
		zap.String("skill_id", skillID),
		zap.Int("cooldown", cooldown))
	return results, nil
}

// ReduceCooldowns 玩家所有未就绪技能的冷却减一
func (s *Integration) ReduceCooldowns(b *game.Battle, playerID string) {
	player, ok := b.Players[playerID]
	if !ok {
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, sk := range player.Skills {
		key := cooldownKey{b.ID, playerID, sk.ID}
		if s.cooldowns[key] > 0 {
			s.cooldowns[key]--
		}
	}
}

// GetSkillCooldown 技能剩余冷却回合
func (s *Integration) GetSkillCooldown(b *game.Battle, playerID, skillID string) int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.cooldowns[cooldownKey{b.ID, playerID, skillID}]
}

// GetAllSkillCooldowns 玩家全部技能的剩余冷却
func (s *Integration) GetAllSkillCooldowns(b *game.Battle, playerID string) map[string]int {
	result := make(map[string]int)
	player, ok := b.Players[playerID]
	if !ok {
		return result
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, sk := range player.Skills {
		result[sk.ID] = s.cooldowns[cooldownKey{b.ID, playerID, sk.ID}]
	}
	return result
}

// CheckCombo 连招校验，只看对战中的上一条行动
func (s *Integration) CheckCombo(b *game.Battle, playerID, skillID string) models.ComboCheck {
	player, ok := b.Players[playerID]
	if !ok {
		return models.ComboCheck{Valid: false, Reason: "No combo configured"}
	}

	sk, ok := player.FindSkill(skillID)
	if !ok || sk.Combo == nil {
		return models.ComboCheck{Valid: false, Reason: "No combo configured"}
	}

	if len(b.Actions) == 0 {
		return models.ComboCheck{Valid: false, Reason: "No previous action"}
	}
	last := b.Actions[len(b.Actions)-1]
	if last.PlayerID != playerID {
		return models.ComboCheck{Valid: false, Reason: "No previous action"}
	}

	lastSkill, ok := player.FindSkill(last.SkillID)
	if !ok {
		return models.ComboCheck{Valid: false, Reason: "Previous action was not a skill"}
	}

	for _, id := range sk.Combo.RequiredSkillIDs {
		if id == lastSkill.ID {
			return models.ComboCheck{Valid: true, Reason: "Combo valid"}
		}
	}
	return models.ComboCheck{Valid: false, Reason: "Skill sequence not valid"}
}

// CleanupBattle 清除对战的冷却记录
func (s *Integration) CleanupBattle(battleID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	removed := 0
	for key := range s.cooldowns {
		if key.BattleID == battleID {
			delete(s.cooldowns, key)
			removed++
		}
	}

	if removed > 0 {
		s.logger.Debug("清理技能冷却", zap.String("battle_id", battleID), zap.Int("entries", removed))
	}
}

// TrackedBattles 有冷却记录的对战ID
func (s *Integration) TrackedBattles() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	seen := make(map[string]struct{})
	for key := range s.cooldowns {
		seen[key.BattleID] = struct{}{}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// GetStatistics 技能模块统计
func (s *Integration) GetStatistics() models.SkillStatistics {
	battles := len(s.TrackedBattles())

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return models.SkillStatistics{
		TotalCooldowns: len(s.cooldowns),
		TrackedBattles: battles,
	}
}
