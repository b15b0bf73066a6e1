package strategy

import (
	"sort"

	"crypto-backtest-go/internal/models"
)

// level 是一个被确认的支撑或阻力位
type level struct {
	Price   float64
	Touches int
}

// detectLevels 在 bars[from:to] 的滑动窗口内检测支撑位和阻力位。
//
// 第一步找分形极值点：某根K线的最高价高于两侧各 strength 根K线的最高价，
// 则它是一个局部高点（阻力候选）；最低价同理给出局部低点（支撑候选）。
// 第二步把相互距离在 tolerancePct 以内的极值点聚成一簇，
// 只有触碰次数达到 minTouches 的簇才被确认为价位，取簇内均价作为价位。
func detectLevels(bars []models.PriceBar, from, to, strength int, tolerancePct float64, minTouches int) (supports, resistances []level) {
	if from < 0 {
		from = 0
	}
	if to > len(bars) {
		to = len(bars)
	}
	if to-from < 2*strength+1 {
		return nil, nil
	}

	var highs, lows []float64
	for i := from + strength; i < to-strength; i++ {
		isHigh, isLow := true, true
		for j := i - strength; j <= i+strength; j++ {
			if j == i {
				continue
			}
			if bars[j].High > bars[i].High {
				isHigh = false
			}
			if bars[j].Low < bars[i].Low {
				isLow = false
			}
			if !isHigh && !isLow {
				break
			}
		}
		if isHigh {
			highs = append(highs, bars[i].High)
		}
		if isLow {
			lows = append(lows, bars[i].Low)
		}
	}

	return clusterLevels(lows, tolerancePct, minTouches), clusterLevels(highs, tolerancePct, minTouches)
}

// clusterLevels 对极值价格做贪心聚类：排序后从低到高扫描，
// 与当前簇首价格偏差在 tolerancePct 以内的归入同簇，否则开新簇。
func clusterLevels(prices []float64, tolerancePct float64, minTouches int) []level {
	if len(prices) == 0 {
		return nil
	}
	sorted := make([]float64, len(prices))
	copy(sorted, prices)
	sort.Float64s(sorted)

	var out []level
	clusterStart := sorted[0]
	sum, count := sorted[0], 1

	flush := func() {
		if count >= minTouches {
			out = append(out, level{Price: sum / float64(count), Touches: count})
		}
	}

	for _, p := range sorted[1:] {
		if clusterStart > 0 && (p-clusterStart)/clusterStart*100 <= tolerancePct {
			sum += p
			count++
			continue
		}
		flush()
		clusterStart = p
		sum, count = p, 1
	}
	flush()
	return out
}

// nearestBelow 返回低于 price 的最高价位，没有则返回 false
func nearestBelow(levels []level, price float64) (level, bool) {
	var best level
	found := false
	for _, l := range levels {
		if l.Price < price && (!found || l.Price > best.Price) {
			best = l
			found = true
		}
	}
	return best, found
}

// nearestAbove 返回高于 price 的最低价位，没有则返回 false
func nearestAbove(levels []level, price float64) (level, bool) {
	var best level
	found := false
	for _, l := range levels {
		if l.Price > price && (!found || l.Price < best.Price) {
			best = l
			found = true
		}
	}
	return best, found
}
