// reaper.go

package pvp

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// CancelIdleBattles 取消 now 之前超过 IdleTimeout 没有行动的对战，返回被取消的对战ID
func (s *System) CancelIdleBattles(now time.Time) []string {
	if s.cfg.IdleTimeout <= 0 {
		return nil
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	var cancelled []string
	for _, id := range s.battles.IdleBattles(now, s.cfg.IdleTimeout) {
		if _, err := s.battles.CancelBattle(id); err != nil {
			s.logger.Warn("取消空闲对战失败", zap.String("battle_id", id), zap.Error(err))
			continue
		}
		s.skills.CleanupBattle(id)
		cancelled = append(cancelled, id)
	}

	if len(cancelled) > 0 {
		s.logger.Info("已取消空闲对战",
			zap.Int("count", len(cancelled)),
			zap.Duration("idle_timeout", s.cfg.IdleTimeout))
	}
	return cancelled
}

// RunIdleReaper 定期取消空闲对战，直到 ctx 结束。IdleTimeout 为 0 时直接返回
func (s *System) RunIdleReaper(ctx context.Context, interval time.Duration) error {
	if s.cfg.IdleTimeout <= 0 {
		return nil
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.CancelIdleBattles(s.clock.Now())
		case <-ctx.Done():
			return nil
		}
	}
}
