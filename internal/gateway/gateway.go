package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jacl-coder/PixelStorm-PvP/config"
	"github.com/jacl-coder/PixelStorm-PvP/internal/pvp"
	"github.com/jacl-coder/PixelStorm-PvP/pkg/clock"
	"github.com/jacl-coder/PixelStorm-PvP/pkg/logger"
	"go.uber.org/zap"
)

// requestTimeout HTTP 接口的处理超时，不作用于 WebSocket
const requestTimeout = 30 * time.Second

// Gateway 对战系统的 HTTP/WebSocket 网关
type Gateway struct {
	cfg     config.ServerConfig
	system  *pvp.System
	auth    *TokenAuth
	mirror  LeaderboardMirror
	hub     *Hub
	limiter *RateLimiter
	logger  *zap.Logger
	clock   clock.Clock

	httpServer *http.Server
}

// Option 网关选项
type Option func(*Gateway)

// WithMirror 启用 Redis 排行榜查询
func WithMirror(m LeaderboardMirror) Option {
	return func(g *Gateway) { g.mirror = m }
}

// WithLogger 设置日志器
func WithLogger(l *zap.Logger) Option {
	return func(g *Gateway) { g.logger = l }
}

// WithClock 设置限流使用的时钟
func WithClock(c clock.Clock) Option {
	return func(g *Gateway) { g.clock = c }
}

// NewGateway 创建网关
func NewGateway(cfg config.ServerConfig, system *pvp.System, auth *TokenAuth, opts ...Option) *Gateway {
	g := &Gateway{
		cfg:    cfg,
		system: system,
		auth:   auth,
		logger: zap.NewNop(),
		clock:  clock.Real(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = logger.OrNop(g.logger)
	g.hub = NewHub(system, auth, g.logger.Named("ws"))
	g.limiter = NewRateLimiter(cfg.RequestsPerMinute, g.clock)
	g.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           g.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return g
}

// Hub WebSocket 连接中心
func (g *Gateway) Hub() *Hub {
	return g.hub
}

// Handler 路由
func (g *Gateway) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(g.logger))
	r.Use(SecurityHeaders)
	r.Use(CORS)
	r.Use(g.limiter.Middleware)

	r.Get("/health", g.handleHealth)

	r.Route("/api/pvp", func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		r.Route("/battles", func(r chi.Router) {
			r.Get("/", g.listBattles)
			r.With(g.auth.Middleware).Post("/", g.createBattle)

			r.Route("/{battleID}", func(r chi.Router) {
				r.Get("/", g.getBattle)
				r.Get("/cooldowns/{playerID}", g.getCooldowns)
				r.Get("/combo", g.checkCombo)

				r.Group(func(r chi.Router) {
					r.Use(g.auth.Middleware)
					r.Post("/start", g.startBattle)
					r.Post("/actions", g.executeAction)
					r.Post("/cancel", g.cancelBattle)
				})
			})
		})

		r.Route("/players/{playerID}", func(r chi.Router) {
			r.Get("/battle", g.getPlayerBattle)
			r.Get("/ranking", g.getPlayerRanking)
			r.Get("/battles", g.getPlayerBattles)
			r.Get("/rewards", g.getPlayerRewards)
			r.Get("/rewards/total", g.getPlayerTotalRewards)
		})

		r.Get("/ranking", g.getRanking)
		r.Get("/ranking/seasons/{season}", g.getSeasonRankings)
		r.Get("/ranking/mirror", g.getMirrorRanking)
		r.Get("/rewards/leaderboard", g.getRewardLeaderboard)
		r.Get("/statistics", g.getStatistics)
	})

	r.Get("/ws/battles/{battleID}", g.hub.ServeWS)
	return r
}

// ListenAndServe 启动网关并阻塞，Stop 后返回 nil
func (g *Gateway) ListenAndServe() error {
	g.logger.Info("网关已启动", zap.Int("port", g.cfg.Port))
	if err := g.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("网关服务器错误: %w", err)
	}
	return nil
}

// Stop 停止网关，断开所有 WebSocket 连接
func (g *Gateway) Stop(ctx context.Context) error {
	g.hub.Close()
	if err := g.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("关闭网关失败: %w", err)
	}
	g.logger.Info("网关已停止")
	return nil
}
