// Package simulator 实现单资产、只做多的交易模拟状态机。
// 模拟器拥有组合状态（现金、持仓），逐根K线应用策略决策，
// 并统一强制执行止损、冷却和手续费规则。
package simulator

import (
	"fmt"
	"time"

	"crypto-backtest-go/internal/models"
	"crypto-backtest-go/internal/strategy"
)

// Simulator 维护一次回测运行的全部可变状态。
// 一次运行只使用一个实例，运行之间没有任何共享可变状态，
// 因此多个回测可以安全地并行执行。
type Simulator struct {
	cash         float64
	position     models.Position
	feeRate      float64
	stopLossRate float64
	cooldown     time.Duration
	closeAtEnd   bool

	trades    []models.Trade
	portfolio []models.PortfolioPoint
	totalFees float64
}

// New 创建一个模拟器。手续费在买卖双向按相同费率收取。
func New(initialInvestment float64, cfg *models.Config) *Simulator {
	return &Simulator{
		cash:         initialInvestment,
		feeRate:      cfg.TakerFeeRate,
		stopLossRate: cfg.StopLossRate,
		cooldown:     time.Duration(cfg.CooldownHours * float64(time.Hour)),
		closeAtEnd:   cfg.CloseOpenPosition,
		trades:       make([]models.Trade, 0, 64),
		portfolio:    make([]models.PortfolioPoint, 0, 4096),
	}
}

// Position 返回当前持仓状态的只读视图，供策略规则集做决策
func (s *Simulator) Position() *models.Position {
	return &s.position
}

// ProcessBar 对一根K线应用策略决策。
// 止损检查先于策略自身的离场逻辑执行，优先级更高；
// 冷却期内的 ENTER 决策会被直接丢弃。
// 无论是否发生交易，每根K线都会记录一次组合价值。
func (s *Simulator) ProcessBar(bar models.PriceBar, decision strategy.Decision) {
	if s.position.IsOpen {
		lossRate := (s.position.EntryPrice - bar.Close) / s.position.EntryPrice
		if s.stopLossRate > 0 && lossRate >= s.stopLossRate {
			s.exit(bar, fmt.Sprintf("stop loss: down %.2f%% from entry %.4f", lossRate*100, s.position.EntryPrice))
			s.recordValue(bar)
			return
		}
	}

	switch decision.Action {
	case strategy.Enter:
		if !s.position.IsOpen && !s.position.InCooldown(bar.Timestamp) && s.cash > 0 {
			s.enter(bar, decision.Reason)
		}
	case strategy.Exit:
		if s.position.IsOpen {
			s.exit(bar, decision.Reason)
		}
	}

	s.recordValue(bar)
}

// Finish 在最后一根K线处理完后调用。
// 默认策略是未平仓位只按收盘价估值、不生成合成交易；
// 配置开启 close_open_position 时会在最后一根K线强制平仓。
func (s *Simulator) Finish(lastBar models.PriceBar) {
	if s.closeAtEnd && s.position.IsOpen {
		s.exit(lastBar, "backtest window ended")
		// 覆盖最后一个采样点，使时间线反映平仓后的组合价值
		if len(s.portfolio) > 0 {
			s.portfolio[len(s.portfolio)-1].Value = s.PortfolioValue(lastBar.Close)
		}
	}
}

// enter 开仓：投入全部可用现金，手续费从本金中先行扣除
func (s *Simulator) enter(bar models.PriceBar, reason string) {
	spend := s.cash
	fee := spend * s.feeRate
	quantity := (spend - fee) / bar.Close

	s.cash = 0
	s.totalFees += fee
	s.position = models.Position{
		IsOpen:        true,
		EntryPrice:    bar.Close,
		Quantity:      quantity,
		EntryTime:     bar.Timestamp,
		CooldownUntil: s.position.CooldownUntil,
	}

	s.trades = append(s.trades, models.Trade{
		Timestamp:           bar.Timestamp,
		Action:              models.ActionBuy,
		Price:               bar.Close,
		Quantity:            quantity,
		Value:               quantity * bar.Close,
		Fee:                 fee,
		Reason:              reason,
		PortfolioValueAfter: s.PortfolioValue(bar.Close),
	})
}

// exit 平仓：按收盘价卖出全部持仓，手续费从卖出所得中扣除，
// 并从平仓时刻起设置冷却计时器。
func (s *Simulator) exit(bar models.PriceBar, reason string) {
	gross := s.position.Quantity * bar.Close
	fee := gross * s.feeRate

	s.cash += gross - fee
	s.totalFees += fee
	quantity := s.position.Quantity
	s.position = models.Position{
		CooldownUntil: bar.Timestamp.Add(s.cooldown),
	}

	s.trades = append(s.trades, models.Trade{
		Timestamp:           bar.Timestamp,
		Action:              models.ActionSell,
		Price:               bar.Close,
		Quantity:            quantity,
		Value:               gross,
		Fee:                 fee,
		Reason:              reason,
		PortfolioValueAfter: s.PortfolioValue(bar.Close),
	})
}

func (s *Simulator) recordValue(bar models.PriceBar) {
	s.portfolio = append(s.portfolio, models.PortfolioPoint{
		Timestamp: bar.Timestamp,
		Value:     s.PortfolioValue(bar.Close),
	})
}

// PortfolioValue 返回给定价格下的组合总价值：现金 + 持仓市值
func (s *Simulator) PortfolioValue(price float64) float64 {
	return s.cash + s.position.Quantity*price
}

// Cash 返回当前可用现金
func (s *Simulator) Cash() float64 { return s.cash }

// TotalFees 返回累计手续费
func (s *Simulator) TotalFees() float64 { return s.totalFees }

// Trades 返回完整的交易流水
func (s *Simulator) Trades() []models.Trade { return s.trades }

// PortfolioValues 返回逐K线的组合价值时间线
func (s *Simulator) PortfolioValues() []models.PortfolioPoint { return s.portfolio }
