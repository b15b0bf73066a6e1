package strategy

import (
	"fmt"
	"math"

	"crypto-backtest-go/internal/models"
)

// momentumRuleSet 在价格于回看窗口内上涨超过阈值时追涨买入，
// 之后按自身的止盈/止损阈值离场。
type momentumRuleSet struct {
	buyThresholdPct float64
	windowBars      int
	sellProfitPct   float64
	stopLossPct     float64
}

func newMomentumRuleSet(bars []models.PriceBar, params map[string]float64) *momentumRuleSet {
	windowHours := params["buy_window_hours"]

	// 把小时数换算成K线数量；周期未知时按1小时处理
	barDuration := models.Interval1h.Duration()
	if len(bars) > 0 && bars[0].Interval.Valid() {
		barDuration = bars[0].Interval.Duration()
	}
	windowBars := int(math.Ceil(windowHours * float64(models.Interval1h.Duration()) / float64(barDuration)))
	if windowBars < 1 {
		windowBars = 1
	}

	return &momentumRuleSet{
		buyThresholdPct: params["buy_threshold"],
		windowBars:      windowBars,
		sellProfitPct:   params["sell_profit_threshold"],
		stopLossPct:     params["stop_loss_threshold"],
	}
}

func (s *momentumRuleSet) Name() string { return "Momentum" }

func (s *momentumRuleSet) WarmupBars() int { return s.windowBars + 1 }

func (s *momentumRuleSet) Decide(i int, bars []models.PriceBar, pos *models.Position) Decision {
	cur := bars[i].Close

	if pos.IsOpen {
		changePct := (cur - pos.EntryPrice) / pos.EntryPrice * 100
		if changePct >= s.sellProfitPct {
			return Decision{Action: Exit, Reason: fmt.Sprintf("profit %.2f%% reached target %.2f%%", changePct, s.sellProfitPct)}
		}
		if changePct <= -s.stopLossPct {
			return Decision{Action: Exit, Reason: fmt.Sprintf("loss %.2f%% breached stop %.2f%%", -changePct, s.stopLossPct)}
		}
		return hold
	}

	if i < s.windowBars {
		return hold
	}
	ref := bars[i-s.windowBars].Close
	if ref <= 0 {
		return hold
	}
	risePct := (cur - ref) / ref * 100
	if risePct >= s.buyThresholdPct {
		return Decision{Action: Enter, Reason: fmt.Sprintf("rose %.2f%% over last %d bars", risePct, s.windowBars)}
	}
	return hold
}
