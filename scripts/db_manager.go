// db_manager.go

package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/jacl-coder/PixelStorm-PvP/config"
	"github.com/jacl-coder/PixelStorm-PvP/internal/store"
	"github.com/jacl-coder/PixelStorm-PvP/pkg/db"
)

func main() {
	// 解析命令行参数
	configPath := flag.String("config", "config/config.yaml", "配置文件路径")
	action := flag.String("action", "help", "操作类型: reset, init, player, reset-leaderboard, help")
	playerID := flag.String("player", "", "player 操作查询的玩家ID")
	limit := flag.Int("limit", 10, "player 操作显示的对战条数")
	flag.Parse()

	// 显示帮助信息
	if *action == "help" {
		showHelp()
		return
	}

	// 加载配置
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if *action == "reset-leaderboard" {
		resetLeaderboard(ctx, cfg)
		return
	}

	// 初始化数据库连接
	conn, err := db.InitPostgres(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("初始化PostgreSQL失败: %v", err)
	}
	defer conn.Close()

	// 执行操作
	switch *action {
	case "reset":
		log.Println("⚠️  正在删除对战归档表...")
		if err := db.DropPvPTables(ctx, conn); err != nil {
			log.Fatalf("重置数据库失败: %v", err)
		}
		log.Println("✅ 数据库重置完成")
	case "init":
		log.Println("🚀 正在初始化数据库...")
		if err := db.InitPvPTables(ctx, conn); err != nil {
			log.Fatalf("初始化数据库表失败: %v", err)
		}
		log.Println("✅ 数据库初始化完成，已创建 pvp_battles、pvp_rewards")
	case "player":
		if *playerID == "" {
			log.Fatal("player 操作需要 -player 参数")
		}
		showPlayer(ctx, store.NewBattleArchive(conn), *playerID, *limit)
	default:
		log.Fatalf("未知操作: %s", *action)
	}
}

// showPlayer 显示玩家的归档对战和奖励合计
func showPlayer(ctx context.Context, archive *store.BattleArchive, playerID string, limit int) {
	totals, err := archive.PlayerRewardTotals(ctx, playerID)
	if err != nil {
		log.Fatalf("查询奖励失败: %v", err)
	}
	log.Printf("玩家 %s 累计奖励: %d 金币, %d 经验", playerID, totals.Coins, totals.Exp)

	battles, err := archive.RecentBattles(ctx, playerID, limit)
	if err != nil {
		log.Fatalf("查询对战失败: %v", err)
	}
	for _, b := range battles {
		log.Printf("  %s [%s] %s(%+d) 胜 %s(%+d), %d 回合, %s",
			b.BattleID, b.Season, b.WinnerName, b.WinnerRatingChange,
			b.LoserName, b.LoserRatingChange, b.Turns, b.EndedAt.Format(time.RFC3339))
	}
}

// resetLeaderboard 清空 Redis 中的积分榜、赛季榜与玩家信息
func resetLeaderboard(ctx context.Context, cfg *config.Config) {
	client, err := db.InitRedis(ctx, cfg.Redis)
	if err != nil {
		log.Fatalf("初始化Redis失败: %v", err)
	}
	defer client.Close()

	log.Println("⚠️  正在清空Redis排行榜...")
	if err := store.NewRatingLeaderboard(client, cfg.Redis.InfoTTL).Reset(ctx); err != nil {
		log.Fatalf("清空排行榜失败: %v", err)
	}
	log.Println("✅ 排行榜已清空")
}

// showHelp 显示帮助信息
func showHelp() {
	log.Println("PixelStorm PvP 数据库管理工具")
	log.Println("")
	log.Println("用法:")
	log.Println("  go run scripts/db_manager.go -action=<操作> [-config=<配置文件>]")
	log.Println("")
	log.Println("操作:")
	log.Println("  reset   - 删除对战归档表")
	log.Println("  init    - 创建对战归档表")
	log.Println("  player  - 显示玩家的归档对战 (-player=<ID> [-limit=N])")
	log.Println("  reset-leaderboard - 清空Redis排行榜与玩家信息")
	log.Println("  help    - 显示此帮助信息")
}
