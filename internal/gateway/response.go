package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/jacl-coder/PixelStorm-PvP/internal/game"
	"github.com/jacl-coder/PixelStorm-PvP/internal/ranking"
	"github.com/jacl-coder/PixelStorm-PvP/internal/reward"
)

// Response 统一响应格式
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Code    string      `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// sendSuccess 发送成功响应
func sendSuccess(w http.ResponseWriter, message string, data interface{}) {
	writeJSON(w, http.StatusOK, Response{Success: true, Message: message, Data: data})
}

// sendError 发送错误响应
func sendError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Response{Success: false, Message: message, Code: code})
}

// sendDomainError 按错误类型映射状态码
func sendDomainError(w http.ResponseWriter, err error) {
	status, code := errorStatus(err)
	sendError(w, status, code, err.Error())
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, game.ErrBattleNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, game.ErrPlayersRequired),
		errors.Is(err, game.ErrSelfBattle),
		errors.Is(err, game.ErrInvalidAction),
		errors.Is(err, game.ErrSkillNotFound),
		errors.Is(err, ranking.ErrInvalidOutcome),
		errors.Is(err, reward.ErrInvalidOutcome):
		return http.StatusBadRequest, "BAD_REQUEST"
	case errors.Is(err, game.ErrPlayerInBattle),
		errors.Is(err, game.ErrBattleAlreadyStarted),
		errors.Is(err, game.ErrBattleNotInProgress),
		errors.Is(err, game.ErrBattleNotCompleted),
		errors.Is(err, game.ErrNotYourTurn),
		errors.Is(err, game.ErrCannotCancelCompleted),
		errors.Is(err, game.ErrSkillOnCooldown):
		return http.StatusConflict, "CONFLICT"
	case errors.Is(err, ErrMissingToken), errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized, "UNAUTHORIZED"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// queryInt 读取整数查询参数，缺省或非法时返回 def
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func queryBool(r *http.Request, name string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return v
}
