// elo.go

package ranking

import (
	"fmt"
	"math"
	"time"
)

// ExpectedScore Elo 期望得分
func ExpectedScore(rating, opponentRating int) float64 {
	return 1 / (1 + math.Pow(10, float64(opponentRating-rating)/400))
}

// CalculateRatingChange 计算胜负双方的积分变化，均限制在 [-maxChange, maxChange]
func CalculateRatingChange(winnerRating, loserRating, k, maxChange int) (winnerChange, loserChange int) {
	expectedWinner := ExpectedScore(winnerRating, loserRating)
	expectedLoser := ExpectedScore(loserRating, winnerRating)

	winnerChange = int(math.Floor(float64(k) * (1 - expectedWinner)))
	loserChange = int(math.Floor(float64(k) * (0 - expectedLoser)))

	return clamp(winnerChange, -maxChange, maxChange), clamp(loserChange, -maxChange, maxChange)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

// SeasonID 按固定时长划分赛季，编号为 floor(unix毫秒 / 赛季毫秒)
func SeasonID(t time.Time, length time.Duration) string {
	ms := length.Milliseconds()
	if ms <= 0 {
		ms = DefaultConfig().SeasonLength.Milliseconds()
	}
	return fmt.Sprintf("season_%d", t.UnixMilli()/ms)
}
