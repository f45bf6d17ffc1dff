// clock.go

package clock

import (
	"sync"
	"time"
)

// Clock 时间来源，对战、排行榜和奖励都通过它取当前时间
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
}

type realClock struct{}

// Real 返回系统时钟
func Real() Clock {
	return realClock{}
}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Since(t time.Time) time.Duration { return time.Since(t) }

// Manual 手动推进的时钟，用于测试
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual 创建起始于 t 的手动时钟
func NewManual(t time.Time) *Manual {
	return &Manual{now: t}
}

// Now 返回当前时间
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Since 返回自 t 以来经过的时间
func (m *Manual) Since(t time.Time) time.Duration {
	return m.Now().Sub(t)
}

// Advance 向前推进时钟
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

// Set 直接设置当前时间
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}
