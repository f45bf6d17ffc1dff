package skill

import (
	"testing"
	"time"

	"github.com/jacl-coder/PixelStorm-PvP/internal/game"
	"github.com/jacl-coder/PixelStorm-PvP/internal/models"
	"github.com/jacl-coder/PixelStorm-PvP/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var testEpoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fixedRandom struct {
	f float64
}

func (r fixedRandom) Intn(n int) int     { return 0 }
func (r fixedRandom) Float64() float64 { return r.f }

func caster(skills ...models.Skill) *models.Player {
	return &models.Player{
		ID:     "A",
		Name:   "Caster",
		Stats:  models.CombatStats{HP: 50, MaxHP: 100, Attack: 30, Defense: 10, Speed: 10},
		Skills: skills,
	}
}

func target() *models.Player {
	return &models.Player{
		ID:    "B",
		Name:  "Target",
		Stats: models.CombatStats{HP: 80, MaxHP: 80, Attack: 18, Defense: 5, Speed: 8},
		Skills: []models.Skill{
			{ID: "bite", Name: "Bite", Cooldown: 1, Effects: []models.Effect{{Type: models.EffectDamage, Target: models.TargetEnemy, Value: 50}}},
		},
	}
}

func newTestSetup(t *testing.T, skills ...models.Skill) (*Integration, *game.Battle) {
	t.Helper()
	rng := fixedRandom{f: 0.5}
	b := game.NewBattle(caster(skills...), target(), rng, clock.NewManual(testEpoch))
	require.NoError(t, b.Start())

	s := NewIntegration(rng, nil)
	s.InitializeCooldowns(b, "A")
	s.InitializeCooldowns(b, "B")
	return s, b
}

func TestInitializeCooldowns(t *testing.T) {
	s, b := newTestSetup(t, models.Skill{ID: "fire", Name: "Fire"}, models.Skill{ID: "ice", Name: "Ice"})

	assert.Equal(t, map[string]int{"fire": 0, "ice": 0}, s.GetAllSkillCooldowns(b, "A"))
	assert.True(t, s.CanUseSkill(b, "A", "fire"))
	assert.Equal(t, models.SkillStatistics{TotalCooldowns: 3, TrackedBattles: 1}, s.GetStatistics())
	assert.Empty(t, s.GetAllSkillCooldowns(b, "ghost"))
}

func TestUseSkillSetsCooldown(t *testing.T) {
	s, b := newTestSetup(t,
		models.Skill{ID: "fire", Name: "Fire", Cooldown: 2},
		models.Skill{ID: "basic", Name: "Basic"},
	)

	_, err := s.UseSkill(b, "A", "fire")
	require.NoError(t, err)
	assert.Equal(t, 2, s.GetSkillCooldown(b, "A", "fire"))

	_, err = s.UseSkill(b, "A", "fire")
	assert.ErrorIs(t, err, game.ErrSkillOnCooldown)

	_, err = s.UseSkill(b, "A", "basic")
	require.NoError(t, err)
	assert.Equal(t, DefaultCooldown, s.GetSkillCooldown(b, "A", "basic"))

	s.ReduceCooldowns(b, "A")
	assert.Equal(t, 1, s.GetSkillCooldown(b, "A", "fire"))
	assert.Equal(t, 2, s.GetSkillCooldown(b, "A", "basic"))
	assert.ErrorIs(t, s.ValidateSkill(b, "A", "fire"), game.ErrSkillOnCooldown)

	s.ReduceCooldowns(b, "A")
	s.ReduceCooldowns(b, "A")
	assert.NoError(t, s.ValidateSkill(b, "A", "fire"))
	assert.Equal(t, 0, s.GetSkillCooldown(b, "A", "fire"))
	assert.Equal(t, 0, s.GetSkillCooldown(b, "A", "basic"))

	_, err = s.UseSkill(b, "A", "missing")
	assert.ErrorIs(t, err, game.ErrSkillNotFound)
}

func TestCooldownNeedsExactlyCooldownReductions(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		cooldown := rapid.IntRange(1, 10).Draw(rt, "cooldown")
		s, b := newTestSetup(t, models.Skill{ID: "fire", Name: "Fire", Cooldown: cooldown})

		if _, err := s.UseSkill(b, "A", "fire"); err != nil {
			rt.Fatal(err)
		}
		for i := 0; i < cooldown; i++ {
			if s.CanUseSkill(b, "A", "fire") {
				rt.Fatalf("usable after %d of %d reductions", i, cooldown)
			}
			s.ReduceCooldowns(b, "A")
		}
		if !s.CanUseSkill(b, "A", "fire") {
			rt.Fatalf("not usable after %d reductions", cooldown)
		}
	})
}

func TestDamageEffect(t *testing.T) {
	s, b := newTestSetup(t, models.Skill{ID: "fire", Name: "Fire", Effects: []models.Effect{
		{Type: models.EffectDamage, Target: models.TargetEnemy, Value: 100},
		{Type: models.EffectDamage, Target: models.TargetEnemy},
	}})

	results, err := s.UseSkill(b, "A", "fire")
	require.NoError(t, err)
	require.Len(t, results, 2)

	// floor(100 × 1.0 × 30 / 100 − 5 × 0.5) = 27
	assert.Equal(t, 27, results[0].Value)
	assert.Equal(t, "Target took 27 damage", results[0].Description)
	// 数值为空时按1计算，伤害至少为1
	assert.Equal(t, 1, results[1].Value)
	assert.Equal(t, 80-28, b.Players["B"].HP)
	assert.Equal(t, 50, b.Players["A"].HP)

	last := b.Logs[len(b.Logs)-1]
	assert.Equal(t, models.LogSkill, last.Type)
	assert.Equal(t, "Caster used skill: Fire", last.Message)
}

func TestHealEffectClamped(t *testing.T) {
	s, b := newTestSetup(t, models.Skill{ID: "heal", Name: "Heal", Effects: []models.Effect{
		{Type: models.EffectHeal, Target: models.TargetSelf, Value: 80},
	}})

	results, err := s.UseSkill(b, "A", "heal")
	require.NoError(t, err)

	assert.Equal(t, 80, results[0].Value)
	assert.Equal(t, "Caster healed 80 HP", results[0].Description)
	assert.Equal(t, 100, b.Players["A"].HP)
}

func TestBuffAndDebuff(t *testing.T) {
	s, b := newTestSetup(t, models.Skill{ID: "war", Name: "War Cry", Effects: []models.Effect{
		{Type: models.EffectBuff, Target: models.TargetSelf, Value: 5},
		{Type: models.EffectDebuff, Target: models.TargetEnemy, Value: 3, Name: "Poison", Duration: 4},
		{Type: models.EffectDebuff, Target: models.TargetEnemy, Value: 1, Name: "Daze", Duration: 1},
	}})

	results, err := s.UseSkill(b, "A", "war")
	require.NoError(t, err)

	assert.Equal(t, "Caster gained buff: Unknown Buff (+5)", results[0].Description)
	assert.Equal(t, "Target gained debuff: Poison (-3)", results[1].Description)

	buffs := b.Players["A"].Buffs
	require.Len(t, buffs, 1)
	assert.Equal(t, "Unknown Buff", buffs[0].Name)
	// 默认3回合，结算后减一
	assert.Equal(t, 2, buffs[0].Duration)
	assert.Equal(t, testEpoch, buffs[0].AppliedAt)
	assert.NotEmpty(t, buffs[0].ID)

	// 持续1回合的减益在本次结算后立即到期
	debuffs := b.Players["B"].Debuffs
	require.Len(t, debuffs, 1)
	assert.Equal(t, "Poison", debuffs[0].Name)
	assert.Equal(t, 3, debuffs[0].Duration)
	assert.Empty(t, b.Players["A"].Debuffs)
}

func TestBuffDeleteRemovesOldestDebuff(t *testing.T) {
	s, b := newTestSetup(t, models.Skill{ID: "purge", Name: "Purge", Effects: []models.Effect{
		{Type: models.EffectBuffDelete, Target: models.TargetEnemy},
	}})
	b.Players["B"].Debuffs = []models.StatusEffect{
		{ID: "1", Type: models.StatusDebuff, Name: "Burn", Duration: 5},
		{ID: "2", Type: models.StatusDebuff, Name: "Slow", Duration: 5},
	}

	results, err := s.UseSkill(b, "A", "purge")
	require.NoError(t, err)

	assert.Equal(t, 1, results[0].Value)
	assert.Equal(t, "Target removed debuff: Burn", results[0].Description)
	require.Len(t, b.Players["B"].Debuffs, 1)
	assert.Equal(t, "Slow", b.Players["B"].Debuffs[0].Name)
	assert.Equal(t, 4, b.Players["B"].Debuffs[0].Duration)
}

func TestBuffDeleteWithoutDebuffs(t *testing.T) {
	s, b := newTestSetup(t, models.Skill{ID: "purge", Name: "Purge", Effects: []models.Effect{
		{Type: models.EffectBuffDelete, Target: models.TargetEnemy},
		{Type: "teleport", Target: models.TargetSelf, Value: 9},
	}})

	results, err := s.UseSkill(b, "A", "purge")
	require.NoError(t, err)

	assert.Equal(t, 0, results[0].Value)
	assert.Equal(t, "Target has no debuffs to remove", results[0].Description)
	assert.Equal(t, 0, results[1].Value)
	assert.Equal(t, "Unknown effect", results[1].Description)
}

func TestSkillThroughBattle(t *testing.T) {
	s, b := newTestSetup(t, models.Skill{ID: "fire", Name: "Fire", Cooldown: 2, Effects: []models.Effect{
		{Type: models.EffectDamage, Target: models.TargetEnemy, Value: 100},
	}})

	record, err := b.ExecuteAttack(models.Action{PlayerID: "A", Type: models.ActionSkill, SkillID: "fire"}, s)
	require.NoError(t, err)

	assert.Equal(t, 27, record.Damage)
	assert.Equal(t, 53, b.Players["B"].HP)
	assert.Equal(t, 2, s.GetSkillCooldown(b, "A", "fire"))
	assert.Equal(t, "B", b.CurrentPlayer)
}

func TestCheckCombo(t *testing.T) {
	s, b := newTestSetup(t,
		models.Skill{ID: "jab", Name: "Jab"},
		models.Skill{ID: "hook", Name: "Hook"},
		models.Skill{ID: "finisher", Name: "Finisher", Combo: &models.Combo{RequiredSkillIDs: []string{"jab"}}},
	)

	check := func(skillID string) models.ComboCheck {
		return s.CheckCombo(b, "A", skillID)
	}

	assert.Equal(t, models.ComboCheck{Reason: "No combo configured"}, check("jab"))
	assert.Equal(t, models.ComboCheck{Reason: "No combo configured"}, check("missing"))
	assert.Equal(t, models.ComboCheck{Reason: "No previous action"}, check("finisher"))

	b.Actions = append(b.Actions, models.ActionRecord{PlayerID: "B", Type: models.ActionNormalAttack})
	assert.Equal(t, models.ComboCheck{Reason: "No previous action"}, check("finisher"))

	b.Actions = append(b.Actions, models.ActionRecord{PlayerID: "A", Type: models.ActionNormalAttack})
	assert.Equal(t, models.ComboCheck{Reason: "Previous action was not a skill"}, check("finisher"))

	b.Actions = append(b.Actions, models.ActionRecord{PlayerID: "A", Type: models.ActionSkill, SkillID: "hook"})
	assert.Equal(t, models.ComboCheck{Reason: "Skill sequence not valid"}, check("finisher"))

	b.Actions = append(b.Actions, models.ActionRecord{PlayerID: "A", Type: models.ActionSkill, SkillID: "jab"})
	assert.Equal(t, models.ComboCheck{Valid: true, Reason: "Combo valid"}, check("finisher"))
}

func TestCleanupBattle(t *testing.T) {
	s, b := newTestSetup(t, models.Skill{ID: "fire", Name: "Fire"})
	other := game.NewBattle(caster(models.Skill{ID: "ice", Name: "Ice"}), target(), fixedRandom{}, clock.NewManual(testEpoch))
	s.InitializeCooldowns(other, "A")

	assert.ElementsMatch(t, []string{b.ID, other.ID}, s.TrackedBattles())

	s.CleanupBattle(b.ID)
	assert.Equal(t, []string{other.ID}, s.TrackedBattles())
	assert.Equal(t, 1, s.GetStatistics().TotalCooldowns)

	s.CleanupBattle("missing")
	assert.Equal(t, 1, s.GetStatistics().TrackedBattles)
}

func TestDamageEffectAtLeastOneWithDiceRoller(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		value := rapid.IntRange(0, 300).Draw(t, "value")
		a := caster(models.Skill{ID: "hit", Name: "Hit", Effects: []models.Effect{
			{Type: models.EffectDamage, Target: models.TargetEnemy, Value: value},
		}})
		a.Stats.Attack = rapid.IntRange(0, 120).Draw(t, "attack")
		b := target()
		b.Stats.HP, b.Stats.MaxHP = 10000, 10000
		b.Stats.Defense = rapid.IntRange(0, 120).Draw(t, "defense")

		rng := game.NewDiceRoller(rapid.Int64Range(1, 1<<40).Draw(t, "seed"))
		battle := game.NewBattle(a, b, rng, clock.NewManual(testEpoch))
		if err := battle.Start(); err != nil {
			t.Fatal(err)
		}
		s := NewIntegration(rng, nil)
		s.InitializeCooldowns(battle, "A")

		results, err := s.UseSkill(battle, "A", "hit")
		if err != nil {
			t.Fatal(err)
		}
		if len(results) != 1 || results[0].Value < 1 {
			t.Fatalf("damage results %+v, want a single value >= 1", results)
		}
		if hp := battle.Players["B"].HP; hp != 10000-results[0].Value {
			t.Fatalf("target hp %d after %d damage", hp, results[0].Value)
		}
	})
}
