package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jacl-coder/PixelStorm-PvP/internal/game"
	"github.com/jacl-coder/PixelStorm-PvP/internal/models"
	"github.com/jacl-coder/PixelStorm-PvP/internal/ranking"
	"github.com/jacl-coder/PixelStorm-PvP/internal/reward"
	"github.com/jacl-coder/PixelStorm-PvP/internal/store"
	"go.uber.org/zap"
)

// LeaderboardMirror Redis 积分榜镜像的只读接口
type LeaderboardMirror interface {
	TopRatings(ctx context.Context, limit int) ([]store.MirrorEntry, error)
	SeasonTop(ctx context.Context, season string, limit int) ([]store.MirrorEntry, error)
}

// CreateBattleRequest 创建对战请求
type CreateBattleRequest struct {
	Player1 *models.Player `json:"player1"`
	Player2 *models.Player `json:"player2"`
}

// ActionRequest 行动请求，行动者取自令牌
type ActionRequest struct {
	Type    models.ActionType `json:"type"`
	SkillID string            `json:"skill_id,omitempty"`
}

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	sendSuccess(w, "ok", map[string]interface{}{
		"season":         g.system.CurrentSeason(),
		"active_battles": len(g.system.GetAllActiveBattles()),
	})
}

// requireParticipant 令牌中的玩家必须是对战一方
func (g *Gateway) requireParticipant(w http.ResponseWriter, r *http.Request, battleID string) (string, bool) {
	playerID, _ := PlayerIDFromContext(r.Context())
	view, err := g.system.BattleView(battleID)
	if err != nil {
		sendDomainError(w, err)
		return "", false
	}
	if view.Player1ID != playerID && view.Player2ID != playerID {
		sendError(w, http.StatusForbidden, "FORBIDDEN", "不是该对战的参与者")
		return "", false
	}
	return playerID, true
}

func (g *Gateway) createBattle(w http.ResponseWriter, r *http.Request) {
	var req CreateBattleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "BAD_REQUEST", "无效的请求数据")
		return
	}
	if req.Player1 == nil || req.Player2 == nil {
		sendDomainError(w, game.ErrPlayersRequired)
		return
	}

	playerID, _ := PlayerIDFromContext(r.Context())
	if req.Player1.ID != playerID && req.Player2.ID != playerID {
		sendError(w, http.StatusForbidden, "FORBIDDEN", "只能创建自己参与的对战")
		return
	}

	view, err := g.system.CreateBattle(req.Player1, req.Player2)
	if err != nil {
		sendDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, Response{Success: true, Message: "对战已创建", Data: view})
}

func (g *Gateway) listBattles(w http.ResponseWriter, r *http.Request) {
	sendSuccess(w, "获取成功", g.system.GetAllActiveBattles())
}

func (g *Gateway) getBattle(w http.ResponseWriter, r *http.Request) {
	view, err := g.system.BattleView(chi.URLParam(r, "battleID"))
	if err != nil {
		sendDomainError(w, err)
		return
	}
	sendSuccess(w, "获取成功", view)
}

func (g *Gateway) startBattle(w http.ResponseWriter, r *http.Request) {
	battleID := chi.URLParam(r, "battleID")
	if _, ok := g.requireParticipant(w, r, battleID); !ok {
		return
	}

	view, err := g.system.StartBattle(battleID)
	if err != nil {
		sendDomainError(w, err)
		return
	}
	g.hub.Broadcast(battleID, MsgBattleState, view)
	sendSuccess(w, "对战已开始", view)
}

func (g *Gateway) executeAction(w http.ResponseWriter, r *http.Request) {
	battleID := chi.URLParam(r, "battleID")
	playerID, ok := g.requireParticipant(w, r, battleID)
	if !ok {
		return
	}

	var req ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "BAD_REQUEST", "无效的请求数据")
		return
	}

	result, err := g.system.ExecuteAction(r.Context(), battleID, models.Action{
		PlayerID: playerID,
		Type:     req.Type,
		SkillID:  req.SkillID,
	})
	if err != nil {
		sendDomainError(w, err)
		return
	}
	g.hub.Broadcast(battleID, MsgActionResult, result)
	sendSuccess(w, "行动已执行", result)
}

func (g *Gateway) cancelBattle(w http.ResponseWriter, r *http.Request) {
	battleID := chi.URLParam(r, "battleID")
	if _, ok := g.requireParticipant(w, r, battleID); !ok {
		return
	}

	view, err := g.system.CancelBattle(battleID)
	if err != nil {
		sendDomainError(w, err)
		return
	}
	g.hub.Broadcast(battleID, MsgBattleState, view)
	sendSuccess(w, "对战已取消", view)
}

func (g *Gateway) getCooldowns(w http.ResponseWriter, r *http.Request) {
	cooldowns, err := g.system.GetAllSkillCooldowns(chi.URLParam(r, "battleID"), chi.URLParam(r, "playerID"))
	if err != nil {
		sendDomainError(w, err)
		return
	}
	sendSuccess(w, "获取成功", cooldowns)
}

func (g *Gateway) checkCombo(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	playerID, skillID := q.Get("player_id"), q.Get("skill_id")
	if playerID == "" || skillID == "" {
		sendError(w, http.StatusBadRequest, "BAD_REQUEST", "缺少 player_id 或 skill_id")
		return
	}
	sendSuccess(w, "获取成功", g.system.CheckCombo(chi.URLParam(r, "battleID"), playerID, skillID))
}

func (g *Gateway) getPlayerBattle(w http.ResponseWriter, r *http.Request) {
	view, ok := g.system.GetPlayerBattle(chi.URLParam(r, "playerID"))
	if !ok {
		sendError(w, http.StatusNotFound, "NOT_FOUND", "玩家不在对战中")
		return
	}
	sendSuccess(w, "获取成功", view)
}

func (g *Gateway) getPlayerRanking(w http.ResponseWriter, r *http.Request) {
	result := g.system.GetPlayerRanking(chi.URLParam(r, "playerID"), queryBool(r, "season"))
	if result == nil {
		sendError(w, http.StatusNotFound, "NOT_FOUND", "玩家没有对战记录")
		return
	}
	sendSuccess(w, "获取成功", result)
}

func (g *Gateway) getPlayerBattles(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", ranking.DefaultRecentLimit)
	sendSuccess(w, "获取成功", g.system.GetPlayerRecentBattles(chi.URLParam(r, "playerID"), limit))
}

func (g *Gateway) getPlayerRewards(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", reward.DefaultHistoryLimit)
	sendSuccess(w, "获取成功", g.system.GetPlayerRewardHistory(chi.URLParam(r, "playerID"), limit))
}

func (g *Gateway) getPlayerTotalRewards(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", reward.DefaultPeriodDays)
	sendSuccess(w, "获取成功", g.system.GetPlayerTotalRewards(chi.URLParam(r, "playerID"), days))
}

func (g *Gateway) getRanking(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", ranking.DefaultRankingLimit)
	sendSuccess(w, "获取成功", g.system.GetRanking(limit, queryBool(r, "season")))
}

// getSeasonRankings season 为 current 时使用当前赛季
func (g *Gateway) getSeasonRankings(w http.ResponseWriter, r *http.Request) {
	season := chi.URLParam(r, "season")
	if season == "current" {
		season = g.system.CurrentSeason()
	}
	limit := queryInt(r, "limit", ranking.DefaultRankingLimit)
	sendSuccess(w, "获取成功", g.system.GetSeasonRankings(season, limit))
}

func (g *Gateway) getMirrorRanking(w http.ResponseWriter, r *http.Request) {
	if g.mirror == nil {
		sendError(w, http.StatusNotFound, "NOT_FOUND", "Redis排行榜未启用")
		return
	}

	limit := queryInt(r, "limit", ranking.DefaultRankingLimit)
	var (
		entries []store.MirrorEntry
		err     error
	)
	if season := r.URL.Query().Get("season"); season != "" {
		entries, err = g.mirror.SeasonTop(r.Context(), season, limit)
	} else {
		entries, err = g.mirror.TopRatings(r.Context(), limit)
	}
	if err != nil {
		g.logger.Error("读取Redis排行榜失败", zap.Error(err))
		sendError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "读取排行榜失败")
		return
	}
	sendSuccess(w, "获取成功", entries)
}

func (g *Gateway) getRewardLeaderboard(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", reward.DefaultPeriodDays)
	limit := queryInt(r, "limit", reward.DefaultLeaderboardLimit)
	sendSuccess(w, "获取成功", g.system.GetRewardLeaderboard(days, limit))
}

func (g *Gateway) getStatistics(w http.ResponseWriter, r *http.Request) {
	sendSuccess(w, "获取成功", g.system.GetStatistics())
}
