package strategy

import (
	"fmt"
	"math"

	"crypto-backtest-go/internal/indicators"
	"crypto-backtest-go/internal/models"
)

// bollingerRuleSet 在收盘价触及下轨时买入，触及上轨时卖出
type bollingerRuleSet struct {
	period int
	stdDev float64
	upper  []float64
	lower  []float64
}

func newBollingerRuleSet(bars []models.PriceBar, params map[string]float64) *bollingerRuleSet {
	period := intParam(params, "period")
	stdDev := params["std_dev"]
	_, upper, lower := indicators.BollingerBands(closesOf(bars), period, stdDev)
	return &bollingerRuleSet{
		period: period,
		stdDev: stdDev,
		upper:  upper,
		lower:  lower,
	}
}

func (s *bollingerRuleSet) Name() string { return "Bollinger Bands" }

func (s *bollingerRuleSet) WarmupBars() int { return s.period }

func (s *bollingerRuleSet) Decide(i int, bars []models.PriceBar, pos *models.Position) Decision {
	upper, lower := s.upper[i], s.lower[i]
	if math.IsNaN(upper) || math.IsNaN(lower) {
		return hold
	}

	close := bars[i].Close
	if !pos.IsOpen && close <= lower {
		return Decision{Action: Enter, Reason: fmt.Sprintf("close %.4f at or below lower band %.4f", close, lower)}
	}
	if pos.IsOpen && close >= upper {
		return Decision{Action: Exit, Reason: fmt.Sprintf("close %.4f at or above upper band %.4f", close, upper)}
	}
	return hold
}
