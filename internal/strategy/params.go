package strategy

import (
	"fmt"
	"math"

	"crypto-backtest-go/internal/models"
)

// parameterSpecs 定义了每个策略的合法参数空间，
// 对应数据库中的 crypto_strategy_parameters 参考数据。
var parameterSpecs = map[models.StrategyType][]models.ParameterSpec{
	models.StrategyRSI: {
		{Name: "period", Type: models.ParamInteger, Default: 14, Min: 2, Max: 100, Description: "RSI 计算周期", DisplayOrder: 1},
		{Name: "oversold_threshold", Type: models.ParamNumber, Default: 30, Min: 1, Max: 50, Description: "超卖阈值，RSI 低于该值时买入", DisplayOrder: 2},
		{Name: "overbought_threshold", Type: models.ParamNumber, Default: 70, Min: 50, Max: 99, Description: "超买阈值，RSI 高于该值时卖出", DisplayOrder: 3},
	},
	models.StrategyMACrossover: {
		{Name: "short_period", Type: models.ParamInteger, Default: 10, Min: 2, Max: 200, Description: "短期均线周期", DisplayOrder: 1},
		{Name: "long_period", Type: models.ParamInteger, Default: 50, Min: 5, Max: 500, Description: "长期均线周期", DisplayOrder: 2},
	},
	models.StrategyMomentum: {
		{Name: "buy_threshold", Type: models.ParamPercentage, Default: 3, Min: 0.1, Max: 50, Description: "触发买入的涨幅百分比", DisplayOrder: 1},
		{Name: "buy_window_hours", Type: models.ParamInteger, Default: 24, Min: 1, Max: 720, Description: "衡量涨幅的回看窗口（小时）", DisplayOrder: 2},
		{Name: "sell_profit_threshold", Type: models.ParamPercentage, Default: 5, Min: 0.1, Max: 100, Description: "止盈百分比", DisplayOrder: 3},
		{Name: "stop_loss_threshold", Type: models.ParamPercentage, Default: 3, Min: 0.1, Max: 50, Description: "策略自身的止损百分比", DisplayOrder: 4},
	},
	models.StrategySupportResistance: {
		{Name: "lookback_period", Type: models.ParamInteger, Default: 50, Min: 10, Max: 500, Description: "检测支撑/阻力位的回看窗口", DisplayOrder: 1},
		{Name: "pivot_strength", Type: models.ParamInteger, Default: 2, Min: 1, Max: 10, Description: "局部极值两侧需要比较的K线数量", DisplayOrder: 2},
		{Name: "cluster_tolerance", Type: models.ParamPercentage, Default: 2, Min: 0.1, Max: 10, Description: "极值点聚类的容差百分比", DisplayOrder: 3},
		{Name: "min_touches", Type: models.ParamInteger, Default: 2, Min: 1, Max: 10, Description: "确认一个价位所需的最少触碰次数", DisplayOrder: 4},
		{Name: "break_threshold", Type: models.ParamPercentage, Default: 1, Min: 0.1, Max: 10, Description: "突破确认的百分比", DisplayOrder: 5},
	},
	models.StrategyBollingerBands: {
		{Name: "period", Type: models.ParamInteger, Default: 20, Min: 2, Max: 200, Description: "布林带中轨周期", DisplayOrder: 1},
		{Name: "std_dev", Type: models.ParamNumber, Default: 2, Min: 0.5, Max: 5, Description: "标准差倍数", DisplayOrder: 2},
	},
	models.StrategyMeanReversion: {
		{Name: "ma_period", Type: models.ParamInteger, Default: 20, Min: 2, Max: 200, Description: "均值回归参考的均线周期", DisplayOrder: 1},
		{Name: "deviation_threshold", Type: models.ParamPercentage, Default: 5, Min: 0.1, Max: 50, Description: "偏离均线多少百分比时入场", DisplayOrder: 2},
	},
}

// ParameterSpecs 返回指定策略的参数规格，按 DisplayOrder 排列
func ParameterSpecs(t models.StrategyType) ([]models.ParameterSpec, error) {
	specs, ok := parameterSpecs[t]
	if !ok {
		return nil, &models.UnknownStrategyError{Strategy: t}
	}
	out := make([]models.ParameterSpec, len(specs))
	copy(out, specs)
	return out, nil
}

// NormalizeParams 用参数规格校验用户提供的原始参数表：
// 未知参数名或越界取值返回 InvalidParameterError（绝不静默截断），
// 缺失的参数用默认值补齐。返回的新参数表包含全部参数。
func NormalizeParams(t models.StrategyType, raw map[string]float64) (map[string]float64, error) {
	specs, ok := parameterSpecs[t]
	if !ok {
		return nil, &models.UnknownStrategyError{Strategy: t}
	}

	byName := make(map[string]models.ParameterSpec, len(specs))
	for _, spec := range specs {
		byName[spec.Name] = spec
	}

	for name, value := range raw {
		spec, known := byName[name]
		if !known {
			return nil, &models.InvalidParameterError{Strategy: t, Name: name, Reason: "unknown parameter"}
		}
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return nil, &models.InvalidParameterError{Strategy: t, Name: name, Reason: "value is not a finite number"}
		}
		if value < spec.Min || value > spec.Max {
			return nil, &models.InvalidParameterError{
				Strategy: t,
				Name:     name,
				Reason:   fmt.Sprintf("value %g outside [%g, %g]", value, spec.Min, spec.Max),
			}
		}
		if spec.Type == models.ParamInteger && value != math.Trunc(value) {
			return nil, &models.InvalidParameterError{Strategy: t, Name: name, Reason: fmt.Sprintf("value %g is not an integer", value)}
		}
	}

	normalized := make(map[string]float64, len(specs))
	for _, spec := range specs {
		if value, provided := raw[spec.Name]; provided {
			normalized[spec.Name] = value
		} else {
			normalized[spec.Name] = spec.Default
		}
	}

	// 跨参数约束：均线交叉要求短周期严格小于长周期
	if t == models.StrategyMACrossover && normalized["short_period"] >= normalized["long_period"] {
		return nil, &models.InvalidParameterError{
			Strategy: t,
			Name:     "short_period",
			Reason:   "short_period must be less than long_period",
		}
	}

	return normalized, nil
}

func intParam(params map[string]float64, name string) int {
	return int(params[name])
}
