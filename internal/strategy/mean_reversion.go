package strategy

import (
	"fmt"
	"math"

	"crypto-backtest-go/internal/indicators"
	"crypto-backtest-go/internal/models"
)

// meanReversionRuleSet 在价格向下偏离均线超过阈值时买入，
// 价格回到均线阈值带以内时卖出。
type meanReversionRuleSet struct {
	maPeriod     int
	deviationPct float64
	sma          []float64
}

func newMeanReversionRuleSet(bars []models.PriceBar, params map[string]float64) *meanReversionRuleSet {
	period := intParam(params, "ma_period")
	return &meanReversionRuleSet{
		maPeriod:     period,
		deviationPct: params["deviation_threshold"],
		sma:          indicators.SMA(closesOf(bars), period),
	}
}

func (s *meanReversionRuleSet) Name() string { return "Mean Reversion" }

func (s *meanReversionRuleSet) WarmupBars() int { return s.maPeriod }

func (s *meanReversionRuleSet) Decide(i int, bars []models.PriceBar, pos *models.Position) Decision {
	ma := s.sma[i]
	if math.IsNaN(ma) || ma <= 0 {
		return hold
	}

	// 向下偏离为正
	deviationPct := (ma - bars[i].Close) / ma * 100

	if !pos.IsOpen && deviationPct >= s.deviationPct {
		return Decision{Action: Enter, Reason: fmt.Sprintf("close %.2f%% below sma%d", deviationPct, s.maPeriod)}
	}
	if pos.IsOpen && deviationPct < s.deviationPct {
		return Decision{Action: Exit, Reason: fmt.Sprintf("close back within %.2f%% of sma%d", s.deviationPct, s.maPeriod)}
	}
	return hold
}
