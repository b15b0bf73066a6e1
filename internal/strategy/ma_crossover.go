package strategy

import (
	"fmt"
	"math"

	"crypto-backtest-go/internal/indicators"
	"crypto-backtest-go/internal/models"
)

// maCrossoverRuleSet 在短期均线上穿长期均线时买入，下穿时卖出。
// 交叉的判定需要比较当前K线和前一根K线，两根K线的均线都必须有效。
type maCrossoverRuleSet struct {
	shortPeriod int
	longPeriod  int
	smaShort    []float64
	smaLong     []float64
}

func newMACrossoverRuleSet(bars []models.PriceBar, params map[string]float64) *maCrossoverRuleSet {
	closes := closesOf(bars)
	shortPeriod := intParam(params, "short_period")
	longPeriod := intParam(params, "long_period")
	return &maCrossoverRuleSet{
		shortPeriod: shortPeriod,
		longPeriod:  longPeriod,
		smaShort:    indicators.SMA(closes, shortPeriod),
		smaLong:     indicators.SMA(closes, longPeriod),
	}
}

func (s *maCrossoverRuleSet) Name() string { return "MA Crossover" }

// WarmupBars 长均线就绪后还需要一根K线才能观察到交叉
func (s *maCrossoverRuleSet) WarmupBars() int { return s.longPeriod + 1 }

func (s *maCrossoverRuleSet) Decide(i int, bars []models.PriceBar, pos *models.Position) Decision {
	if i == 0 {
		return hold
	}
	curShort, curLong := s.smaShort[i], s.smaLong[i]
	prevShort, prevLong := s.smaShort[i-1], s.smaLong[i-1]
	if math.IsNaN(curShort) || math.IsNaN(curLong) || math.IsNaN(prevShort) || math.IsNaN(prevLong) {
		return hold
	}

	// 金叉：本根 >=，前一根 <
	if !pos.IsOpen && curShort >= curLong && prevShort < prevLong {
		return Decision{Action: Enter, Reason: fmt.Sprintf("sma%d crossed above sma%d", s.shortPeriod, s.longPeriod)}
	}
	// 死叉：本根 <，前一根 >=
	if pos.IsOpen && curShort < curLong && prevShort >= prevLong {
		return Decision{Action: Exit, Reason: fmt.Sprintf("sma%d crossed below sma%d", s.shortPeriod, s.longPeriod)}
	}
	return hold
}
