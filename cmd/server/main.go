// main.go

package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jacl-coder/PixelStorm-PvP/config"
	"github.com/jacl-coder/PixelStorm-PvP/internal/game"
	"github.com/jacl-coder/PixelStorm-PvP/internal/gateway"
	"github.com/jacl-coder/PixelStorm-PvP/internal/pvp"
	"github.com/jacl-coder/PixelStorm-PvP/internal/store"
	"github.com/jacl-coder/PixelStorm-PvP/pkg/db"
	"github.com/jacl-coder/PixelStorm-PvP/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// 解析命令行参数
	configPath := flag.String("config", "config/config.yaml", "配置文件路径")
	issueToken := flag.String("issue-token", "", "为指定玩家签发令牌后退出")
	flag.Parse()

	// 加载配置
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	zlog, err := logger.New(cfg.Server.LogLevel, cfg.Server.Debug)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	auth, err := gateway.NewTokenAuth(cfg.Auth, nil)
	if err != nil {
		zlog.Fatal("初始化令牌认证失败", zap.Error(err))
	}
	if *issueToken != "" {
		token, err := auth.IssueToken(*issueToken)
		if err != nil {
			zlog.Fatal("签发令牌失败", zap.Error(err))
		}
		fmt.Println(token)
		return
	}
	if cfg.Auth.JWTSecret == "" {
		zlog.Warn("未配置 auth.jwt_secret，使用随机密钥，重启后令牌失效")
	}

	if err := run(cfg, auth, zlog); err != nil {
		zlog.Fatal("服务器异常退出", zap.Error(err))
	}
	zlog.Info("服务器已安全关闭")
}

func run(cfg *config.Config, auth *gateway.TokenAuth, zlog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []pvp.Option{
		pvp.WithRandom(game.NewDiceRoller(cfg.PvP.RandomSeed)),
		pvp.WithLogger(zlog),
	}
	var gwOpts []gateway.Option

	// 初始化数据库连接
	if cfg.Database.Enabled {
		conn, err := db.InitPostgres(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("初始化PostgreSQL失败: %w", err)
		}
		defer closeDB(conn, zlog)

		if err := db.InitPvPTables(ctx, conn); err != nil {
			return fmt.Errorf("初始化对战表失败: %w", err)
		}
		opts = append(opts, pvp.WithArchiver(store.NewBattleArchive(conn)))
		zlog.Info("PostgreSQL归档已启用")
	}

	// 初始化Redis连接
	if cfg.Redis.Enabled {
		client, err := db.InitRedis(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("初始化Redis失败: %w", err)
		}
		defer closeRedis(client, zlog)

		mirror := store.NewRatingLeaderboard(client, cfg.Redis.InfoTTL)
		opts = append(opts, pvp.WithArchiver(mirror))
		gwOpts = append(gwOpts, gateway.WithMirror(mirror))
		zlog.Info("Redis排行榜已启用")
	}

	system := pvp.NewSystem(pvp.ConfigFromSettings(cfg.PvP), opts...)
	gw := gateway.NewGateway(cfg.Server, system, auth,
		append(gwOpts, gateway.WithLogger(zlog.Named("gateway")))...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(gw.ListenAndServe)
	g.Go(func() error {
		return system.RunIdleReaper(gctx, cfg.PvP.IdleCheckInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		zlog.Info("接收到关闭信号，正在关闭服务器...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg.Server))
		defer cancel()
		return gw.Stop(shutdownCtx)
	})
	return g.Wait()
}

func shutdownTimeout(cfg config.ServerConfig) time.Duration {
	if cfg.ShutdownTimeout <= 0 {
		return 5 * time.Second
	}
	return cfg.ShutdownTimeout
}

func closeDB(conn *sql.DB, zlog *zap.Logger) {
	if err := conn.Close(); err != nil {
		zlog.Warn("关闭PostgreSQL连接失败", zap.Error(err))
	}
}

func closeRedis(client *redis.Client, zlog *zap.Logger) {
	if err := client.Close(); err != nil {
		zlog.Warn("关闭Redis连接失败", zap.Error(err))
	}
}
