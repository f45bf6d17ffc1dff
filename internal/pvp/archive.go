// archive.go

package pvp

import (
	"context"

	"github.com/jacl-coder/PixelStorm-PvP/internal/models"
)

// Archiver 接收已结束对战的归档数据，如数据库或 Redis 排行榜
type Archiver interface {
	ArchiveBattle(ctx context.Context, report *models.BattleReport) error
}

// ArchiverFunc 函数形式的 Archiver
type ArchiverFunc func(ctx context.Context, report *models.BattleReport) error

// ArchiveBattle 调用函数本身
func (f ArchiverFunc) ArchiveBattle(ctx context.Context, report *models.BattleReport) error {
	return f(ctx, report)
}
