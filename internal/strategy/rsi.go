package strategy

import (
	"fmt"
	"math"

	"crypto-backtest-go/internal/indicators"
	"crypto-backtest-go/internal/models"
)

// rsiRuleSet 在 RSI 跌破超卖阈值时买入，升破超买阈值时卖出
type rsiRuleSet struct {
	period     int
	oversold   float64
	overbought float64
	rsi        []float64
}

func newRSIRuleSet(bars []models.PriceBar, params map[string]float64) *rsiRuleSet {
	period := intParam(params, "period")
	return &rsiRuleSet{
		period:     period,
		oversold:   params["oversold_threshold"],
		overbought: params["overbought_threshold"],
		rsi:        indicators.RSI(closesOf(bars), period),
	}
}

func (s *rsiRuleSet) Name() string { return "RSI Buy/Sell" }

// WarmupBars Wilder 平滑需要 period 个变化量，即 period+1 根K线
func (s *rsiRuleSet) WarmupBars() int { return s.period + 1 }

func (s *rsiRuleSet) Decide(i int, bars []models.PriceBar, pos *models.Position) Decision {
	v := s.rsi[i]
	if math.IsNaN(v) {
		return hold
	}

	if !pos.IsOpen && v < s.oversold {
		return Decision{Action: Enter, Reason: fmt.Sprintf("rsi %.2f below oversold %.2f", v, s.oversold)}
	}
	if pos.IsOpen && v > s.overbought {
		return Decision{Action: Exit, Reason: fmt.Sprintf("rsi %.2f above overbought %.2f", v, s.overbought)}
	}
	return hold
}
