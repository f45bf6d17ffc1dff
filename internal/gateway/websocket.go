package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jacl-coder/PixelStorm-PvP/internal/models"
	"github.com/jacl-coder/PixelStorm-PvP/internal/pvp"
	"go.uber.org/zap"
)

const (
	// 写入超时时间
	writeWait = 10 * time.Second

	// 读取超时时间
	pongWait = 60 * time.Second

	// 发送 ping 的间隔时间
	pingPeriod = (pongWait * 9) / 10

	// 最大消息大小
	maxMessageSize = 64 * 1024

	sendBufferSize = 32
)

// 消息类型
const (
	MsgAction       = "action"
	MsgBattleState  = "battle_state"
	MsgActionResult = "action_result"
	MsgError        = "error"
)

// Message 客户端消息
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// outgoingMessage 推送给客户端的消息
type outgoingMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Hub 按对战分组的 WebSocket 连接
type Hub struct {
	system   *pvp.System
	auth     *TokenAuth
	logger   *zap.Logger
	upgrader websocket.Upgrader

	clients map[string]map[*wsClient]struct{} // 对战ID -> 连接
	mutex   sync.RWMutex
}

type wsClient struct {
	id       string
	playerID string
	battleID string
	conn     *websocket.Conn
	send     chan []byte
	hub      *Hub
}

// NewHub 创建连接中心
func NewHub(system *pvp.System, auth *TokenAuth, logger *zap.Logger) *Hub {
	return &Hub{
		system: system,
		auth:   auth,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 允许所有跨域请求
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients: make(map[string]map[*wsClient]struct{}),
	}
}

// ServeWS 订阅对战，令牌通过 token 查询参数传入
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	battleID := chi.URLParam(r, "battleID")
	playerID, err := h.auth.ParseToken(r.URL.Query().Get("token"))
	if err != nil {
		sendDomainError(w, err)
		return
	}

	view, err := h.system.BattleView(battleID)
	if err != nil {
		sendDomainError(w, err)
		return
	}
	if view.Player1ID != playerID && view.Player2ID != playerID {
		sendError(w, http.StatusForbidden, "FORBIDDEN", "不是该对战的参与者")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket升级失败", zap.Error(err))
		return
	}

	c := &wsClient{
		id:       uuid.New().String(),
		playerID: playerID,
		battleID: battleID,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		hub:      h,
	}
	h.register(c)
	h.logger.Info("WebSocket已连接",
		zap.String("client_id", c.id),
		zap.String("battle_id", battleID),
		zap.String("player_id", playerID))

	h.sendTo(c, MsgBattleState, view)

	go c.writePump()
	go c.readPump()
}

func (h *Hub) register(c *wsClient) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	group, ok := h.clients[c.battleID]
	if !ok {
		group = make(map[*wsClient]struct{})
		h.clients[c.battleID] = group
	}
	group[c] = struct{}{}
}

// unregister 移除连接并关闭发送通道，writePump 随后关闭连接
func (h *Hub) unregister(c *wsClient) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	group, ok := h.clients[c.battleID]
	if !ok {
		return
	}
	if _, ok := group[c]; !ok {
		return
	}
	delete(group, c)
	close(c.send)
	if len(group) == 0 {
		delete(h.clients, c.battleID)
	}
}

// Broadcast 向对战的所有订阅者推送消息，发送缓冲已满的连接会被断开
func (h *Hub) Broadcast(battleID, msgType string, payload interface{}) {
	data, err := json.Marshal(outgoingMessage{Type: msgType, Payload: payload})
	if err != nil {
		h.logger.Error("编码推送消息失败", zap.String("type", msgType), zap.Error(err))
		return
	}

	var slow []*wsClient
	h.mutex.RLock()
	for c := range h.clients[battleID] {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mutex.RUnlock()

	for _, c := range slow {
		h.logger.Warn("客户端发送缓冲已满，断开连接", zap.String("client_id", c.id))
		h.unregister(c)
	}
}

// sendTo 只推送给单个连接
func (h *Hub) sendTo(c *wsClient, msgType string, payload interface{}) {
	data, err := json.Marshal(outgoingMessage{Type: msgType, Payload: payload})
	if err != nil {
		h.logger.Error("编码推送消息失败", zap.String("type", msgType), zap.Error(err))
		return
	}

	h.mutex.RLock()
	defer h.mutex.RUnlock()
	if _, ok := h.clients[c.battleID][c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// Subscribers 对战当前的连接数
func (h *Hub) Subscribers(battleID string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients[battleID])
}

// Close 断开所有连接
func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for battleID, group := range h.clients {
		for c := range group {
			close(c.send)
		}
		delete(h.clients, battleID)
	}
}

// handleMessage 处理客户端消息
func (h *Hub) handleMessage(c *wsClient, msg Message) {
	switch msg.Type {
	case MsgAction:
		var req ActionRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			h.sendTo(c, MsgError, map[string]string{"message": "无效的行动数据"})
			return
		}
		result, err := h.system.ExecuteAction(context.Background(), c.battleID, models.Action{
			PlayerID: c.playerID,
			Type:     req.Type,
			SkillID:  req.SkillID,
		})
		if err != nil {
			h.sendTo(c, MsgError, map[string]string{"message": err.Error()})
			return
		}
		h.Broadcast(c.battleID, MsgActionResult, result)
	default:
		h.sendTo(c, MsgError, map[string]string{"message": "未知的消息类型: " + msg.Type})
	}
}

// readPump 读取客户端消息
func (c *wsClient) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
		c.hub.logger.Info("WebSocket已断开", zap.String("client_id", c.id))
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("WebSocket读取错误", zap.String("client_id", c.id), zap.Error(err))
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.hub.sendTo(c, MsgError, map[string]string{"message": "无效的消息格式"})
			continue
		}
		c.hub.handleMessage(c, msg)
	}
}

// writePump 向客户端发送消息
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// 通道已关闭
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
