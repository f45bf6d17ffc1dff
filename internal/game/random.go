// random.go

package game

import (
	"math/rand"
	"sync"
	"time"
)

// Random 伤害公式使用的随机数来源
type Random interface {
	// Intn 返回 [0, n) 内的整数
	Intn(n int) int
	// Float64 返回 [0, 1) 内的浮点数
	Float64() float64
}

// DiceRoller 基于 math/rand 的随机数来源，可并发使用
type DiceRoller struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewDiceRoller 创建随机数来源，seed 为 0 时使用当前时间
func NewDiceRoller(seed int64) *DiceRoller {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &DiceRoller{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Intn 返回 [0, n) 内的整数
func (dr *DiceRoller) Intn(n int) int {
	dr.mu.Lock()
	defer dr.mu.Unlock()
	return dr.rng.Intn(n)
}

// Float64 返回 [0, 1) 内的浮点数
func (dr *DiceRoller) Float64() float64 {
	dr.mu.Lock()
	defer dr.mu.Unlock()
	return dr.rng.Float64()
}

// Roll 掷一个 sides 面骰子，结果为 [1, sides]
func (dr *DiceRoller) Roll(sides int) int {
	return dr.Intn(sides) + 1
}

// Uniform 返回 [min, max) 内均匀分布的浮点数
func Uniform(r Random, min, max float64) float64 {
	return min + r.Float64()*(max-min)
}
