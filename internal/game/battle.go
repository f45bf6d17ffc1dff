// battle.go

package game

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jacl-coder/PixelStorm-PvP/internal/models"
	"github.com/jacl-coder/PixelStorm-PvP/pkg/clock"
)

// SkillResolver 技能结算器，对战中的技能行动交由它处理
type SkillResolver interface {
	// ValidateSkill 检查技能当前是否可用，不修改任何状态
	ValidateSkill(b *Battle, playerID, skillID string) error
	// ApplySkill 进入冷却并依次结算技能效果
	ApplySkill(b *Battle, playerID, skillID string) ([]models.EffectResult, error)
}

// Battle 一场回合制对战
type Battle struct {
	ID             string
	Player1ID      string
	Player2ID      string
	Players        map[string]*models.PlayerState
	Status         models.BattleStatus
	Turn           int
	CurrentPlayer  string
	Winner         string
	Actions        []models.ActionRecord
	Logs           []models.LogEntry
	CreatedAt      time.Time
	StartedAt      *time.Time
	EndedAt        *time.Time
	LastActivityAt time.Time

	rng   Random
	clock clock.Clock
}

// BattleView 对战的只读副本
type BattleView struct {
	models.BattleSummary
	Player1ID     string                         `json:"player1_id"`
	Player2ID     string                         `json:"player2_id"`
	CurrentPlayer string                         `json:"current_player"`
	Players       map[string]*models.PlayerState `json:"players"`
	Actions       []models.ActionRecord          `json:"actions"`
	Logs          []models.LogEntry              `json:"logs"`
}

// NewBattle 创建对战，双方属性在此刻快照
func NewBattle(p1, p2 *models.Player, rng Random, clk clock.Clock) *Battle {
	now := clk.Now()
	return &Battle{
		ID:        uuid.New().String(),
		Player1ID: p1.ID,
		Player2ID: p2.ID,
		Players: map[string]*models.PlayerState{
			p1.ID: models.NewPlayerState(p1),
			p2.ID: models.NewPlayerState(p2),
		},
		Status:         models.BattlePreparing,
		Actions:        make([]models.ActionRecord, 0),
		Logs:           make([]models.LogEntry, 0),
		CreatedAt:      now,
		LastActivityAt: now,
		rng:            rng,
		clock:          clk,
	}
}

// Start 开始对战，速度高的一方先手，速度相同时玩家1先手
func (b *Battle) Start() error {
	if b.Status != models.BattlePreparing {
		return ErrBattleAlreadyStarted
	}

	now := b.clock.Now()
	b.Status = models.BattleInProgress
	b.StartedAt = &now
	b.LastActivityAt = now
	b.Turn = 1

	p1 := b.Players[b.Player1ID]
	p2 := b.Players[b.Player2ID]
	if p1.Speed >= p2.Speed {
		b.CurrentPlayer = b.Player1ID
	} else {
		b.CurrentPlayer = b.Player2ID
	}

	b.AddLog(models.LogBattle, fmt.Sprintf("Battle %s started between %s and %s", b.ID, p1.Name, p2.Name))
	return nil
}

// ExecuteAttack 结算当前玩家的行动。所有校验都在修改状态之前完成
func (b *Battle) ExecuteAttack(action models.Action, skills SkillResolver) (models.ActionRecord, error) {
	if b.Status != models.BattleInProgress {
		return models.ActionRecord{}, ErrBattleNotInProgress
	}
	if action.PlayerID != b.CurrentPlayer {
		return models.ActionRecord{}, ErrNotYourTurn
	}

	attackerID := action.PlayerID
	defenderID := b.Opponent(attackerID)
	attacker := b.Players[attackerID]
	defender := b.Players[defenderID]

	var skill *models.Skill
	switch action.Type {
	case models.ActionNormalAttack:
	case models.ActionSkill:
		s, ok := attacker.FindSkill(action.SkillID)
		if !ok {
			return models.ActionRecord{}, ErrSkillNotFound
		}
		if skills != nil {
			if err := skills.ValidateSkill(b, attackerID, s.ID); err != nil {
				return models.ActionRecord{}, err
			}
		}
		skill = s
	default:
		return models.ActionRecord{}, ErrInvalidAction
	}

	record := models.ActionRecord{
		Turn:     b.Turn,
		PlayerID: attackerID,
		Type:     action.Type,
		TargetID: defenderID,
	}

	switch {
	case skill == nil:
		record.Damage = NormalAttackDamage(attacker.Attack, defender.Defense, b.rng)
		defender.HP = max(0, defender.HP-record.Damage)
	case skills != nil:
		record.SkillID = skill.ID
		effects, err := skills.ApplySkill(b, attackerID, skill.ID)
		if err != nil {
			return models.ActionRecord{}, err
		}
		record.Effects = effects
		for _, e := range effects {
			if e.Type == models.EffectDamage {
				record.Damage += e.Value
			}
		}
	default:
		record.SkillID = skill.ID
		record.Damage = SkillFallbackDamage(skill, attacker, defender, b.rng)
		defender.HP = max(0, defender.HP-record.Damage)
	}

	b.Actions = append(b.Actions, record)
	b.LastActivityAt = b.clock.Now()
	b.AddLog(models.LogAction, fmt.Sprintf("%s dealt %d damage to %s", attacker.Name, record.Damage, defender.Name))

	if defender.HP <= 0 {
		b.end(attackerID)
		return record, nil
	}

	b.nextTurn()
	return record, nil
}

// nextTurn 轮到对手行动；对手已倒下时直接判负
func (b *Battle) nextTurn() {
	b.CurrentPlayer = b.Opponent(b.CurrentPlayer)

	if b.Players[b.CurrentPlayer].HP <= 0 {
		b.end(b.Opponent(b.CurrentPlayer))
		return
	}

	b.Turn++
}

func (b *Battle) end(winnerID string) {
	now := b.clock.Now()
	b.Status = models.BattleCompleted
	b.Winner = winnerID
	b.EndedAt = &now

	loserID := b.Opponent(winnerID)
	b.AddLog(models.LogBattle, fmt.Sprintf("Battle %s ended. Winner: %s, Loser: %s",
		b.ID, b.Players[winnerID].Name, b.Players[loserID].Name))
}

// Cancel 取消对战，已结束的对战不能取消
func (b *Battle) Cancel() error {
	switch b.Status {
	case models.BattleCompleted:
		return ErrCannotCancelCompleted
	case models.BattleCancelled:
		return nil
	}

	now := b.clock.Now()
	b.Status = models.BattleCancelled
	b.EndedAt = &now
	b.AddLog(models.LogBattle, fmt.Sprintf("Battle %s cancelled", b.ID))
	return nil
}

// Opponent 返回对手ID
func (b *Battle) Opponent(playerID string) string {
	if playerID == b.Player1ID {
		return b.Player2ID
	}
	return b.Player1ID
}

// HasPlayer 玩家是否参与该对战
func (b *Battle) HasPlayer(playerID string) bool {
	return playerID == b.Player1ID || playerID == b.Player2ID
}

// AddLog 追加对战日志
func (b *Battle) AddLog(logType models.LogType, message string) {
	b.Logs = append(b.Logs, models.LogEntry{
		Type:      logType,
		Message:   message,
		Timestamp: b.clock.Now(),
	})
}

// Now 对战使用的当前时间
func (b *Battle) Now() time.Time {
	return b.clock.Now()
}

// Random 对战使用的随机数来源
func (b *Battle) Random() Random {
	return b.rng
}

// Loser 返回败者ID，对战未结束时为空
func (b *Battle) Loser() string {
	if b.Status != models.BattleCompleted {
		return ""
	}
	return b.Opponent(b.Winner)
}

// Summary 生成对战摘要
func (b *Battle) Summary() models.BattleSummary {
	summary := models.BattleSummary{
		ID:        b.ID,
		Status:    b.Status,
		Turn:      b.Turn,
		Player1:   b.Players[b.Player1ID].Name,
		Player2:   b.Players[b.Player2ID].Name,
		CreatedAt: b.CreatedAt,
		StartedAt: b.StartedAt,
		EndedAt:   b.EndedAt,
	}
	if b.Winner != "" {
		name := b.Players[b.Winner].Name
		summary.Winner = &name
	}
	return summary
}

// Outcome 返回已结束对战的胜负结果
func (b *Battle) Outcome() (models.BattleOutcome, error) {
	if b.Status != models.BattleCompleted {
		return models.BattleOutcome{}, ErrBattleNotCompleted
	}

	loserID := b.Loser()
	return models.BattleOutcome{
		BattleID:   b.ID,
		WinnerID:   b.Winner,
		WinnerName: b.Players[b.Winner].Name,
		LoserID:    loserID,
		LoserName:  b.Players[loserID].Name,
		Turns:      b.Turn,
		EndedAt:    *b.EndedAt,
	}, nil
}

// Snapshot 深拷贝对战状态，供锁外读取
func (b *Battle) Snapshot() BattleView {
	players := make(map[string]*models.PlayerState, len(b.Players))
	for id, p := range b.Players {
		players[id] = p.Clone()
	}

	return BattleView{
		BattleSummary: b.Summary(),
		Player1ID:     b.Player1ID,
		Player2ID:     b.Player2ID,
		CurrentPlayer: b.CurrentPlayer,
		Players:       players,
		Actions:       append([]models.ActionRecord(nil), b.Actions...),
		Logs:          append([]models.LogEntry(nil), b.Logs...),
	}
}

// NormalAttackDamage 普通攻击伤害: max(1, 攻击 - 防御 + [0,4])
func NormalAttackDamage(attack, defense int, r Random) int {
	return max(1, attack-defense+r.Intn(5))
}

// ScaledDamage floor(基础值 × U(0.9,1.1) × 攻击 / 100 − 防御 × 0.5)，结果可能为负
func ScaledDamage(base, attack, defense int, r Random) int {
	factor := Uniform(r, 0.9, 1.1)
	return int(math.Floor(float64(base)*factor*float64(attack)/100 - float64(defense)*0.5))
}

// SkillFallbackDamage 未接入技能结算器时的技能伤害
func SkillFallbackDamage(skill *models.Skill, attacker, defender *models.PlayerState, r Random) int {
	power := skill.Power
	if power == 0 {
		power = 1
	}
	return max(0, ScaledDamage(power, attacker.Attack, defender.Defense, r))
}
