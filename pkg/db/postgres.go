package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jacl-coder/PixelStorm-PvP/config"
	_ "github.com/lib/pq"
)

// InitPostgres 打开PostgreSQL连接并测试连通性
func InitPostgres(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	conn, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	conn.SetMaxOpenConns(20)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(30 * time.Minute)

	// 测试连接
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("数据库Ping失败: %w", err)
	}
	return conn, nil
}
