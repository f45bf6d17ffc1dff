// schema.go

package db

import (
	"context"
	"database/sql"
)

// 对战归档的表结构定义

// CreatePvPTablesSQL 创建对战归档表的SQL语句
const CreatePvPTablesSQL = `
-- 对战记录表
CREATE TABLE IF NOT EXISTS pvp_battles (
    id VARCHAR(64) PRIMARY KEY,
    winner_id VARCHAR(64) NOT NULL,
    winner_name VARCHAR(100) NOT NULL DEFAULT '',
    loser_id VARCHAR(64) NOT NULL,
    loser_name VARCHAR(100) NOT NULL DEFAULT '',
    turns INT NOT NULL DEFAULT 0,
    season VARCHAR(32) NOT NULL DEFAULT '',

    -- 积分变化
    winner_rating_change INT NOT NULL DEFAULT 0,
    loser_rating_change INT NOT NULL DEFAULT 0,
    winner_rating INT NOT NULL DEFAULT 0,
    loser_rating INT NOT NULL DEFAULT 0,

    ended_at TIMESTAMP WITH TIME ZONE NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
);

-- 对战奖励表
CREATE TABLE IF NOT EXISTS pvp_rewards (
    id SERIAL PRIMARY KEY,
    battle_id VARCHAR(64) NOT NULL REFERENCES pvp_battles(id) ON DELETE CASCADE,
    player_id VARCHAR(64) NOT NULL,
    result VARCHAR(10) NOT NULL,
    coins INT NOT NULL DEFAULT 0,
    exp INT NOT NULL DEFAULT 0,
    win_streak INT NOT NULL DEFAULT 0,
    bonus_multiplier DECIMAL(4,2) NOT NULL DEFAULT 1.0,
    received_at TIMESTAMP WITH TIME ZONE NOT NULL,
    UNIQUE (battle_id, player_id)
);

-- 创建索引以提高查询性能
CREATE INDEX IF NOT EXISTS idx_pvp_battles_winner_id ON pvp_battles(winner_id);
CREATE INDEX IF NOT EXISTS idx_pvp_battles_loser_id ON pvp_battles(loser_id);
CREATE INDEX IF NOT EXISTS idx_pvp_battles_ended_at ON pvp_battles(ended_at);
CREATE INDEX IF NOT EXISTS idx_pvp_rewards_player_id ON pvp_rewards(player_id);
`

// DropPvPTablesSQL 删除对战归档表
const DropPvPTablesSQL = `
DROP TABLE IF EXISTS pvp_rewards CASCADE;
DROP TABLE IF EXISTS pvp_battles CASCADE;
`

// InitPvPTables 初始化对战归档表
func InitPvPTables(ctx context.Context, conn *sql.DB) error {
	_, err := conn.ExecContext(ctx, CreatePvPTablesSQL)
	return err
}

// DropPvPTables 删除对战归档表
func DropPvPTables(ctx context.Context, conn *sql.DB) error {
	_, err := conn.ExecContext(ctx, DropPvPTablesSQL)
	return err
}
