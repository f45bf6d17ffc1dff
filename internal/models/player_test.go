package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPlayerStateClampsHP(t *testing.T) {
	cases := []struct {
		name      string
		hp, maxHP int
		wantHP    int
		wantMaxHP int
	}{
		{"正常", 80, 100, 80, 100},
		{"超过上限", 120, 100, 100, 100},
		{"缺少上限", 90, 0, 90, 90},
		{"负生命", -5, 100, 0, 100},
		{"负生命且缺少上限", -5, 0, 0, 0},
		{"负上限", 50, -10, 50, 50},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			state := NewPlayerState(&Player{ID: "p", Stats: CombatStats{HP: tc.hp, MaxHP: tc.maxHP}})
			assert.Equal(t, tc.wantHP, state.HP)
			assert.Equal(t, tc.wantMaxHP, state.MaxHP)
			assert.GreaterOrEqual(t, state.MaxHP, 0)
			assert.LessOrEqual(t, state.HP, state.MaxHP)
		})
	}
}

func TestNewPlayerStateCopiesSkills(t *testing.T) {
	p := &Player{ID: "p", Stats: CombatStats{HP: 10, MaxHP: 10}, Skills: []Skill{
		{ID: "fire", Effects: []Effect{{Type: EffectDamage, Value: 10}}},
	}}

	state := NewPlayerState(p)
	state.Skills[0].Effects[0].Value = 99

	assert.Equal(t, 10, p.Skills[0].Effects[0].Value)
}
