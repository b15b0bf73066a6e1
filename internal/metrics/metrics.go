// Package metrics 把交易流水和组合价值时间线归并成回测统计指标
package metrics

import (
	"math"

	"crypto-backtest-go/internal/models"
)

// Fill 计算所有汇总指标并写入 result。
// 调用前 result 中必须已填好 InitialInvestment、Interval、
// Trades 和 PortfolioValues。
func Fill(result *models.BacktestResult, bars []models.PriceBar) {
	result.FinalValue = result.InitialInvestment
	if n := len(result.PortfolioValues); n > 0 {
		result.FinalValue = result.PortfolioValues[n-1].Value
	}

	if result.InitialInvestment != 0 {
		result.TotalReturnPct = (result.FinalValue - result.InitialInvestment) / result.InitialInvestment * 100
	}

	// 买入持有基线：首根K线收盘价到末根K线收盘价，完全忽略策略
	if len(bars) > 1 && bars[0].Close != 0 {
		first, last := bars[0].Close, bars[len(bars)-1].Close
		result.BuyAndHoldReturnPct = (last - first) / first * 100
	}

	result.MaxDrawdownPct = maxDrawdown(result.PortfolioValues) * 100
	result.SharpeRatio = sharpeRatio(result.PortfolioValues, result.Interval)

	tallyTrades(result)
}

// tallyTrades 把 BUY/SELL 配对成完整交易并统计盈亏。
// 一对交易盈利的判定包含双向手续费：卖出净得 > 买入总成本。
func tallyTrades(result *models.BacktestResult) {
	var entryCost float64
	inPair := false

	for _, t := range result.Trades {
		result.TotalFees += t.Fee
		switch t.Action {
		case models.ActionBuy:
			entryCost = t.Value + t.Fee
			inPair = true
		case models.ActionSell:
			if !inPair {
				continue
			}
			exitNet := t.Value - t.Fee
			result.TotalTrades++
			if exitNet > entryCost {
				result.ProfitableTrades++
			} else {
				result.LosingTrades++
			}
			inPair = false
		}
	}
}

// maxDrawdown 单次前向扫描，跟踪运行峰值，返回最大的峰谷回撤比例
func maxDrawdown(points []models.PortfolioPoint) float64 {
	if len(points) < 2 {
		return 0
	}
	peak := points[0].Value
	maxDD := 0.0
	for _, p := range points {
		if p.Value > peak {
			peak = p.Value
		}
		if peak > 0 {
			dd := (peak - p.Value) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// sharpeRatio 基于逐K线收益率的均值/标准差，按 sqrt(每年K线数) 年化。
// 波动为零（比如从未交易）时返回 0。
func sharpeRatio(points []models.PortfolioPoint, interval models.Interval) float64 {
	if len(points) < 3 {
		return 0
	}

	returns := make([]float64, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		prev := points[i-1].Value
		if prev <= 0 {
			return 0
		}
		returns = append(returns, points[i].Value/prev-1)
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns) - 1)

	stdDev := math.Sqrt(variance)
	if stdDev == 0 {
		return 0
	}
	return mean / stdDev * math.Sqrt(interval.BarsPerYear())
}
