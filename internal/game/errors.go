// errors.go

package game

import "errors"

var (
	ErrPlayersRequired       = errors.New("both players are required")
	ErrSelfBattle            = errors.New("cannot battle with yourself")
	ErrPlayerInBattle        = errors.New("player already in a battle")
	ErrBattleNotFound        = errors.New("battle not found")
	ErrBattleAlreadyStarted  = errors.New("battle is already started or completed")
	ErrBattleNotInProgress   = errors.New("battle is not in progress")
	ErrBattleNotCompleted    = errors.New("battle is not completed")
	ErrNotYourTurn           = errors.New("not your turn")
	ErrCannotCancelCompleted = errors.New("cannot cancel completed battle")
	ErrInvalidAction         = errors.New("invalid action type")
	ErrSkillNotFound         = errors.New("skill not found")
	ErrSkillOnCooldown       = errors.New("skill on cooldown")
)
