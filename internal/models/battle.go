// battle.go

package models

import "time"

// BattleStatus 对战状态
type BattleStatus string

const (
	// BattlePreparing 准备中
	BattlePreparing BattleStatus = "preparing"
	// BattleInProgress 进行中
	BattleInProgress BattleStatus = "in_progress"
	// BattleCompleted 已结束
	BattleCompleted BattleStatus = "completed"
	// BattleCancelled 已取消
	BattleCancelled BattleStatus = "cancelled"
)

// IsTerminal 是否为终止状态
func (s BattleStatus) IsTerminal() bool {
	return s == BattleCompleted || s == BattleCancelled
}

// ActionType 行动类型
type ActionType string

const (
	// ActionNormalAttack 普通攻击
	ActionNormalAttack ActionType = "normal_attack"
	// ActionSkill 使用技能
	ActionSkill ActionType = "skill"
)

// Action 玩家提交的行动
type Action struct {
	PlayerID string     `json:"player_id"`
	Type     ActionType `json:"type"`
	SkillID  string     `json:"skill_id,omitempty"`
}

// ActionRecord 已结算的行动
type ActionRecord struct {
	Turn     int            `json:"turn"`
	PlayerID string         `json:"player_id"`
	Type     ActionType     `json:"type"`
	SkillID  string         `json:"skill_id,omitempty"`
	TargetID string         `json:"target_id"`
	Damage   int            `json:"damage"`
	Effects  []EffectResult `json:"effects,omitempty"`
}

// LogType 对战日志类型
type LogType string

const (
	LogBattle LogType = "battle"
	LogAction LogType = "action"
	LogSkill  LogType = "skill"
)

// LogEntry 对战日志
type LogEntry struct {
	Type      LogType   `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// BattleSummary 对战摘要
type BattleSummary struct {
	ID        string       `json:"id"`
	Status    BattleStatus `json:"status"`
	Turn      int          `json:"turn"`
	Player1   string       `json:"player1"`
	Player2   string       `json:"player2"`
	Winner    *string      `json:"winner"`
	CreatedAt time.Time    `json:"created_at"`
	StartedAt *time.Time   `json:"started_at"`
	EndedAt   *time.Time   `json:"ended_at"`
}

// BattleOutcome 已结束对战的胜负结果
type BattleOutcome struct {
	BattleID   string    `json:"battle_id"`
	WinnerID   string    `json:"winner_id"`
	WinnerName string    `json:"winner_name"`
	LoserID    string    `json:"loser_id"`
	LoserName  string    `json:"loser_name"`
	Turns      int       `json:"turns"`
	EndedAt    time.Time `json:"ended_at"`
}

// StatusCounts 各状态对战数量
type StatusCounts struct {
	Preparing  int `json:"preparing"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Cancelled  int `json:"cancelled"`
}

// BattleStatistics 对战管理统计
type BattleStatistics struct {
	TotalActive int          `json:"total_active"`
	ByStatus    StatusCounts `json:"by_status"`
}

// BattleReport 对战归档数据
type BattleReport struct {
	Outcome     BattleOutcome  `json:"outcome"`
	Season      string         `json:"season"`
	Rating      RatingChange   `json:"rating"`
	Rewards     BattleRewards  `json:"rewards"`
	WinnerStats RatingSnapshot `json:"winner_stats"`
	LoserStats  RatingSnapshot `json:"loser_stats"`
}
