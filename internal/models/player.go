// player.go

package models

// CombatStats 玩家进入对战时的属性
type CombatStats struct {
	HP      int `json:"hp"`
	MaxHP   int `json:"max_hp"`
	MP      int `json:"mp"`
	MaxMP   int `json:"max_mp"`
	Attack  int `json:"attack"`
	Defense int `json:"defense"`
	Speed   int `json:"speed"`
}

// Player 参战玩家
type Player struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Stats  CombatStats `json:"stats"`
	Skills []Skill     `json:"skills"`
}

// PlayerState 对战中的玩家状态快照
type PlayerState struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	HP      int            `json:"hp"`
	MaxHP   int            `json:"max_hp"`
	MP      int            `json:"mp"`
	MaxMP   int            `json:"max_mp"`
	Attack  int            `json:"attack"`
	Defense int            `json:"defense"`
	Speed   int            `json:"speed"`
	Skills  []Skill        `json:"skills"`
	Buffs   []StatusEffect `json:"buffs"`
	Debuffs []StatusEffect `json:"debuffs"`
}

// NewPlayerState 从玩家数据创建状态快照，技能做深拷贝
func NewPlayerState(p *Player) *PlayerState {
	maxHP := p.Stats.MaxHP
	if maxHP <= 0 {
		maxHP = max(0, p.Stats.HP)
	}
	hp := min(max(0, p.Stats.HP), maxHP)

	skills := make([]Skill, len(p.Skills))
	for i := range p.Skills {
		skills[i] = p.Skills[i].Clone()
	}

	return &PlayerState{
		ID:      p.ID,
		Name:    p.Name,
		HP:      hp,
		MaxHP:   maxHP,
		MP:      p.Stats.MP,
		MaxMP:   p.Stats.MaxMP,
		Attack:  p.Stats.Attack,
		Defense: p.Stats.Defense,
		Speed:   p.Stats.Speed,
		Skills:  skills,
		Buffs:   make([]StatusEffect, 0),
		Debuffs: make([]StatusEffect, 0),
	}
}

// FindSkill 按ID查找技能
func (s *PlayerState) FindSkill(skillID string) (*Skill, bool) {
	for i := range s.Skills {
		if s.Skills[i].ID == skillID {
			return &s.Skills[i], true
		}
	}
	return nil, false
}

// Clone 深拷贝玩家状态
func (s *PlayerState) Clone() *PlayerState {
	c := *s
	c.Skills = make([]Skill, len(s.Skills))
	for i := range s.Skills {
		c.Skills[i] = s.Skills[i].Clone()
	}
	c.Buffs = append([]StatusEffect(nil), s.Buffs...)
	c.Debuffs = append([]StatusEffect(nil), s.Debuffs...)
	return &c
}
