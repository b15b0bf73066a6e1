// Package strategy 实现六种内置交易策略的规则集。
// 所有规则集共享同一个接口：逐根K线给出 ENTER / EXIT / HOLD 决策，
// 指标热身期内一律给出 HOLD。止损和冷却由模拟器统一强制执行，不在规则集内处理。
package strategy

import (
	"fmt"

	"crypto-backtest-go/internal/models"
)

// Action 是规则集给出的决策动作
type Action int

const (
	Hold Action = iota
	Enter
	Exit
)

func (a Action) String() string {
	switch a {
	case Enter:
		return "ENTER"
	case Exit:
		return "EXIT"
	default:
		return "HOLD"
	}
}

// Decision 是规则集对单根K线的完整决策，Reason 用于交易流水的审计
type Decision struct {
	Action Action
	Reason string
}

var hold = Decision{Action: Hold}

// RuleSet 是所有策略变体共享的接口。
// Decide 查看第 i 根K线、预先算好的指标序列和当前持仓状态，给出决策。
type RuleSet interface {
	// Name 返回策略的展示名称
	Name() string

	// WarmupBars 返回产生第一个有效信号之前所需的最少K线数量
	WarmupBars() int

	// Decide 对第 i 根K线做出决策。i 之前的所有K线均可用作历史。
	Decide(i int, bars []models.PriceBar, pos *models.Position) Decision
}

// definitions 是六种内置策略的静态参考数据
var definitions = []models.StrategyDefinition{
	{ID: 1, Name: "RSI Buy/Sell", Type: models.StrategyRSI},
	{ID: 2, Name: "MA Crossover", Type: models.StrategyMACrossover},
	{ID: 3, Name: "Momentum", Type: models.StrategyMomentum},
	{ID: 4, Name: "Support/Resistance", Type: models.StrategySupportResistance},
	{ID: 5, Name: "Bollinger Bands", Type: models.StrategyBollingerBands},
	{ID: 6, Name: "Mean Reversion", Type: models.StrategyMeanReversion},
}

// Definitions 返回全部内置策略的定义，按 ID 升序
func Definitions() []models.StrategyDefinition {
	out := make([]models.StrategyDefinition, len(definitions))
	copy(out, definitions)
	return out
}

// Lookup 按类型查找策略定义
func Lookup(t models.StrategyType) (models.StrategyDefinition, error) {
	for _, def := range definitions {
		if def.Type == t {
			return def, nil
		}
	}
	return models.StrategyDefinition{}, &models.UnknownStrategyError{Strategy: t}
}

// LookupByID 按数字ID查找策略定义，供以ID寻址策略的外部调用方使用
func LookupByID(id int) (models.StrategyDefinition, error) {
	for _, def := range definitions {
		if def.ID == id {
			return def, nil
		}
	}
	return models.StrategyDefinition{}, &models.UnknownStrategyError{Strategy: models.StrategyType(fmt.Sprintf("id:%d", id))}
}

// New 根据策略类型构造规则集。params 必须是已经通过 NormalizeParams
// 校验并补齐默认值后的参数表。未知的策略类型返回 UnknownStrategyError，
// 绝不静默回退到某个默认策略。
func New(t models.StrategyType, bars []models.PriceBar, params map[string]float64) (RuleSet, error) {
	switch t {
	case models.StrategyRSI:
		return newRSIRuleSet(bars, params), nil
	case models.StrategyMACrossover:
		return newMACrossoverRuleSet(bars, params), nil
	case models.StrategyMomentum:
		return newMomentumRuleSet(bars, params), nil
	case models.StrategySupportResistance:
		return newSupportResistanceRuleSet(bars, params), nil
	case models.StrategyBollingerBands:
		return newBollingerRuleSet(bars, params), nil
	case models.StrategyMeanReversion:
		return newMeanReversionRuleSet(bars, params), nil
	default:
		return nil, &models.UnknownStrategyError{Strategy: t}
	}
}

// closesOf 提取收盘价序列，供各规则集的构造函数使用
func closesOf(bars []models.PriceBar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
