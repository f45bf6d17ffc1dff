// skill.go

package models

import "time"

// EffectType 技能效果类型
type EffectType string

const (
	// EffectDamage 伤害
	EffectDamage EffectType = "damage"
	// EffectHeal 治疗
	EffectHeal EffectType = "heal"
	// EffectBuff 增益
	EffectBuff EffectType = "buff"
	// EffectDebuff 减益
	EffectDebuff EffectType = "debuff"
	// EffectBuffDelete 驱散减益
	EffectBuffDelete EffectType = "buff_delete"
)

// EffectTarget 效果目标
type EffectTarget string

const (
	// TargetSelf 施法者
	TargetSelf EffectTarget = "self"
	// TargetEnemy 对手
	TargetEnemy EffectTarget = "enemy"
)

// Effect 技能效果
type Effect struct {
	Type     EffectType   `json:"type"`
	Target   EffectTarget `json:"target"`
	Value    int          `json:"value"`
	Name     string       `json:"name,omitempty"`
	Duration int          `json:"duration,omitempty"` // 持续回合数
}

// Combo 连招配置
type Combo struct {
	RequiredSkillIDs []string `json:"required_skill_ids"`
}

// Skill 技能模型
type Skill struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Power    int      `json:"power,omitempty"`
	Cooldown int      `json:"cooldown"` // 冷却回合数
	Effects  []Effect `json:"effects"`
	Combo    *Combo   `json:"combo,omitempty"`
}

// Clone 深拷贝技能
func (s Skill) Clone() Skill {
	c := s
	c.Effects = append([]Effect(nil), s.Effects...)
	if s.Combo != nil {
		c.Combo = &Combo{RequiredSkillIDs: append([]string(nil), s.Combo.RequiredSkillIDs...)}
	}
	return c
}

// StatusType 状态效果类型
type StatusType string

const (
	// StatusBuff 增益状态
	StatusBuff StatusType = "buff"
	// StatusDebuff 减益状态
	StatusDebuff StatusType = "debuff"
)

// StatusEffect 持续若干回合的增益或减益
type StatusEffect struct {
	ID        string     `json:"id"`
	Type      StatusType `json:"type"`
	Name      string     `json:"name"`
	Duration  int        `json:"duration"`
	Value     int        `json:"value"`
	AppliedAt time.Time  `json:"applied_at"`
}

// Reduce 持续回合减一，返回是否已到期
func (e *StatusEffect) Reduce() bool {
	e.Duration--
	return e.Duration <= 0
}

// EffectResult 单个效果的结算结果
type EffectResult struct {
	Type        EffectType   `json:"type"`
	Target      EffectTarget `json:"target"`
	Value       int          `json:"value"`
	Description string       `json:"description"`
}

// ComboCheck 连招校验结果
type ComboCheck struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason"`
}

// SkillStatistics 技能模块统计
type SkillStatistics struct {
	TotalCooldowns int `json:"total_cooldowns"`
	TrackedBattles int `json:"tracked_battles"`
}
