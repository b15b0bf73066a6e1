package strategy

import (
	"fmt"

	"crypto-backtest-go/internal/models"
)

// supportResistanceRuleSet 基于检测到的支撑/阻力位交易：
// 向上突破阻力位或在支撑位企稳反弹时买入；
// 跌破支撑位时卖出，或在持有盈利仓位时于阻力位受阻回落时卖出。
// 价位检测每根K线在滑动回看窗口上重新执行一次。
type supportResistanceRuleSet struct {
	lookback     int
	strength     int
	tolerancePct float64
	minTouches   int
	breakPct     float64
}

func newSupportResistanceRuleSet(_ []models.PriceBar, params map[string]float64) *supportResistanceRuleSet {
	return &supportResistanceRuleSet{
		lookback:     intParam(params, "lookback_period"),
		strength:     intParam(params, "pivot_strength"),
		tolerancePct: params["cluster_tolerance"],
		minTouches:   intParam(params, "min_touches"),
		breakPct:     params["break_threshold"],
	}
}

func (s *supportResistanceRuleSet) Name() string { return "Support/Resistance" }

func (s *supportResistanceRuleSet) WarmupBars() int { return s.lookback + 1 }

func (s *supportResistanceRuleSet) Decide(i int, bars []models.PriceBar, pos *models.Position) Decision {
	if i < s.lookback {
		return hold
	}

	// 价位只能由当前K线之前的历史推导，否则会引入前视偏差
	supports, resistances := detectLevels(bars, i-s.lookback, i, s.strength, s.tolerancePct, s.minTouches)
	if len(supports) == 0 && len(resistances) == 0 {
		return hold
	}

	bar := bars[i]
	closePrice := bar.Close

	if !pos.IsOpen {
		// 突破：收盘价越过阻力位 break_threshold% 以上
		if r, ok := nearestBelow(resistances, closePrice); ok {
			breakout := r.Price * (1 + s.breakPct/100)
			if closePrice >= breakout {
				return Decision{Action: Enter, Reason: fmt.Sprintf("broke above resistance %.4f by %.2f%%", r.Price, s.breakPct)}
			}
		}
		// 反弹：最低价探至支撑位附近，收盘价收回支撑位之上
		if sup, ok := nearestBelow(supports, closePrice); ok {
			touch := sup.Price * (1 + s.breakPct/100)
			if bar.Low <= touch && closePrice > sup.Price {
				return Decision{Action: Enter, Reason: fmt.Sprintf("bounced off support %.4f (%d touches)", sup.Price, sup.Touches)}
			}
		}
		return hold
	}

	// 跌破支撑：收盘价低于支撑位 break_threshold% 以上
	if sup, ok := nearestBelow(supports, pos.EntryPrice); ok {
		breakdown := sup.Price * (1 - s.breakPct/100)
		if closePrice <= breakdown {
			return Decision{Action: Exit, Reason: fmt.Sprintf("broke below support %.4f by %.2f%%", sup.Price, s.breakPct)}
		}
	}
	// 阻力位受阻：最高价触及阻力位但收盘回落，且当前仓位有盈利
	if closePrice > pos.EntryPrice {
		if r, ok := nearestAbove(resistances, pos.EntryPrice); ok {
			if bar.High >= r.Price && closePrice < r.Price {
				return Decision{Action: Exit, Reason: fmt.Sprintf("rejected at resistance %.4f while in profit", r.Price)}
			}
		}
	}
	return hold
}
