// effects.go

package skill

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jacl-coder/PixelStorm-PvP/internal/game"
	"github.com/jacl-coder/PixelStorm-PvP/internal/models"
)

const (
	defaultStatusDuration = 3
	defaultBuffName       = "Unknown Buff"
	defaultDebuffName     = "Unknown Debuff"
)

// applyEffect 结算单个效果，返回效果值和描述
func (s *Integration) applyEffect(b *game.Battle, caster, target *models.PlayerState, effect models.Effect) (int, string) {
	switch effect.Type {
	case models.EffectDamage:
		return s.applyDamage(caster, target, effect)
	case models.EffectHeal:
		return applyHeal(caster, effect)
	case models.EffectBuff:
		return applyStatus(b, caster, models.StatusBuff, effect)
	case models.EffectDebuff:
		return applyStatus(b, target, models.StatusDebuff, effect)
	case models.EffectBuffDelete:
		return removeDebuff(target)
	default:
		return 0, "Unknown effect"
	}
}

// applyDamage 伤害至少为1，作用于对手
func (s *Integration) applyDamage(caster, target *models.PlayerState, effect models.Effect) (int, string) {
	base := effect.Value
	if base == 0 {
		base = 1
	}
	damage := max(1, game.ScaledDamage(base, caster.Attack, target.Defense, s.rng))
	target.HP = max(0, target.HP-damage)

	return damage, fmt.Sprintf("%s took %d damage", target.Name, damage)
}

// applyHeal 为施法者回复生命，不超过上限
func applyHeal(caster *models.PlayerState, effect models.Effect) (int, string) {
	amount := effect.Value
	caster.HP = max(0, min(caster.MaxHP, caster.HP+amount))

	return amount, fmt.Sprintf("%s healed %d HP", caster.Name, amount)
}

func applyStatus(b *game.Battle, holder *models.PlayerState, statusType models.StatusType, effect models.Effect) (int, string) {
	name := effect.Name
	duration := effect.Duration
	if duration == 0 {
		duration = defaultStatusDuration
	}

	status := models.StatusEffect{
		ID:        uuid.New().String(),
		Type:      statusType,
		Duration:  duration,
		Value:     effect.Value,
		AppliedAt: b.Now(),
	}

	if statusType == models.StatusBuff {
		if name == "" {
			name = defaultBuffName
		}
		status.Name = name
		holder.Buffs = append(holder.Buffs, status)
		return status.Value, fmt.Sprintf("%s gained buff: %s (+%d)", holder.Name, name, status.Value)
	}

	if name == "" {
		name = defaultDebuffName
	}
	status.Name = name
	holder.Debuffs = append(holder.Debuffs, status)
	return status.Value, fmt.Sprintf("%s gained debuff: %s (-%d)", holder.Name, name, status.Value)
}

// removeDebuff 移除最早的一个减益
func removeDebuff(target *models.PlayerState) (int, string) {
	if len(target.Debuffs) == 0 {
		return 0, fmt.Sprintf("%s has no debuffs to remove", target.Name)
	}

	removed := target.Debuffs[0]
	target.Debuffs = target.Debuffs[1:]
	return 1, fmt.Sprintf("%s removed debuff: %s", target.Name, removed.Name)
}

// reduceStatusEffects 持续回合减一，移除到期的效果
func reduceStatusEffects(player *models.PlayerState) {
	player.Buffs = tickStatuses(player.Buffs)
	player.Debuffs = tickStatuses(player.Debuffs)
}

func tickStatuses(statuses []models.StatusEffect) []models.StatusEffect {
	kept := make([]models.StatusEffect, 0, len(statuses))
	for _, st := range statuses {
		if expired := st.Reduce(); !expired {
			kept = append(kept, st)
		}
	}
	return kept
}
