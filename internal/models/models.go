package models

import (
	"time"
)

// Config 结构体定义了回测引擎的所有配置参数
type Config struct {
	DBPath            string    `json:"db_path"`            // K线数据库文件路径
	CachePath         string    `json:"cache_path"`         // 回测结果缓存数据库路径
	TakerFeeRate      float64   `json:"taker_fee_rate"`     // 吃单手续费率，买卖双向收取
	StopLossRate      float64   `json:"stop_loss_rate"`     // 止损率，0.05 表示亏损 5% 时强制平仓
	CooldownHours     float64   `json:"cooldown_hours"`     // 平仓后的冷却时间（小时），冷却期内禁止开仓
	CloseOpenPosition bool      `json:"close_open_position"` // 回测结束时是否强制平掉未平仓位
	LogConfig         LogConfig `json:"log"`                // 日志配置
}

// LogConfig 定义了日志相关的配置
type LogConfig struct {
	Level      string `json:"level"`       // 日志级别, e.g., "debug", "info", "warn", "error"
	Output     string `json:"output"`      // 输出模式: "console", "file", "both"
	File       string `json:"file"`        // 日志文件路径
	MaxSize    int    `json:"max_size"`    // 单个日志文件的最大大小 (MB)
	MaxBackups int    `json:"max_backups"` // 保留的旧日志文件最大数量
	MaxAge     int    `json:"max_age"`     // 旧日志文件的最大保留天数
	Compress   bool   `json:"compress"`    // 是否压缩旧日志文件
}

// Interval 定义了K线的时间周期
type Interval string

const (
	Interval1m  Interval = "1m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
	Interval1h  Interval = "1h"
	Interval4h  Interval = "4h"
	Interval1d  Interval = "1d"
)

// intervalDurations 是合法周期的白名单，同时给出每个周期对应的时长。
// 周期字符串会被用于参数化数据库查询，因此必须先经过白名单校验。
var intervalDurations = map[Interval]time.Duration{
	Interval1m:  time.Minute,
	Interval5m:  5 * time.Minute,
	Interval15m: 15 * time.Minute,
	Interval30m: 30 * time.Minute,
	Interval1h:  time.Hour,
	Interval4h:  4 * time.Hour,
	Interval1d:  24 * time.Hour,
}

// Valid 检查周期是否在白名单内
func (i Interval) Valid() bool {
	_, ok := intervalDurations[i]
	return ok
}

// Duration 返回该周期对应的时长。非法周期返回 0。
func (i Interval) Duration() time.Duration {
	return intervalDurations[i]
}

// BarsPerYear 返回该周期下一年大约包含的K线数量，用于夏普比率的年化。
func (i Interval) BarsPerYear() float64 {
	d := i.Duration()
	if d <= 0 {
		return 0
	}
	return float64(365*24*time.Hour) / float64(d)
}

// StrategyType 是六种内置策略的封闭枚举
type StrategyType string

const (
	StrategyRSI               StrategyType = "rsi"
	StrategyMACrossover       StrategyType = "ma_crossover"
	StrategyMomentum          StrategyType = "momentum"
	StrategySupportResistance StrategyType = "support_resistance"
	StrategyBollingerBands    StrategyType = "bollinger_bands"
	StrategyMeanReversion     StrategyType = "mean_reversion"
)

// StrategyDefinition 定义了一个策略的静态元信息，属于不可变的参考数据
type StrategyDefinition struct {
	ID   int          `json:"id"`
	Name string       `json:"name"`
	Type StrategyType `json:"type"`
}

// ParamType 定义了策略参数的取值类型
type ParamType string

const (
	ParamInteger    ParamType = "integer"
	ParamNumber     ParamType = "number"
	ParamPercentage ParamType = "percentage"
	ParamText       ParamType = "text"
)

// ParameterSpec 定义了单个策略参数的合法取值空间。
// 编排器必须在计算开始前用它拒绝未知参数名和越界取值，绝不静默截断。
type ParameterSpec struct {
	Name         string    `json:"name"`
	Type         ParamType `json:"type"`
	Default      float64   `json:"default"`
	Min          float64   `json:"min"`
	Max          float64   `json:"max"`
	Description  string    `json:"description"`
	DisplayOrder int       `json:"display_order"`
}

// BacktestRequest 是一次回测的完整输入，由外部（HTTP层）构造，核心负责校验
type BacktestRequest struct {
	Strategy          StrategyType       `json:"strategy"`
	Symbol            string             `json:"symbol"`   // 交易对，如 "BTCUSDT"
	Interval          Interval           `json:"interval"` // K线周期
	Start             time.Time          `json:"start"`
	End               time.Time          `json:"end"`
	InitialInvestment float64            `json:"initial_investment"` // 初始投资额 (USDT)
	Parameters        map[string]float64 `json:"parameters"`         // 策略参数，缺省值由参数规格补齐
}

// PriceBar 是一根K线。由外部数据采集器产出，核心只读。
// 同一 (symbol, timestamp, interval) 的K线是唯一的，序列按时间戳升序排列。
type PriceBar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
	Interval  Interval  `json:"interval"`
}

// Position 是模拟器内部的持仓状态。同一时刻最多只有一个多头仓位。
type Position struct {
	IsOpen        bool      `json:"is_open"`
	EntryPrice    float64   `json:"entry_price"`
	Quantity      float64   `json:"quantity"`
	EntryTime     time.Time `json:"entry_time"`
	CooldownUntil time.Time `json:"cooldown_until"` // 上次平仓后设置，冷却结束前禁止开仓
}

// InCooldown 判断给定时刻是否仍处于冷却期
func (p *Position) InCooldown(t time.Time) bool {
	return t.Before(p.CooldownUntil)
}

// TradeAction 定义了成交方向
type TradeAction string

const (
	ActionBuy  TradeAction = "BUY"
	ActionSell TradeAction = "SELL"
)

// Trade 是交易流水中的一条记录，只追加，从不修改
type Trade struct {
	Timestamp           time.Time   `json:"timestamp"`
	Action              TradeAction `json:"action"`
	Price               float64     `json:"price"`
	Quantity            float64     `json:"quantity"`
	Value               float64     `json:"value"` // 成交额 price*quantity
	Fee                 float64     `json:"fee"`
	Reason              string      `json:"reason"` // 触发本次成交的策略原因，用于审计
	PortfolioValueAfter float64     `json:"portfolio_value_after"`
}

// PortfolioPoint 是组合价值时间线上的一个采样点，每根K线记录一次
type PortfolioPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// BacktestResult 是一次回测的完整产出
type BacktestResult struct {
	Strategy             StrategyType       `json:"strategy"`
	Symbol               string             `json:"symbol"`
	Interval             Interval           `json:"interval"`
	Start                time.Time          `json:"start"`
	End                  time.Time          `json:"end"`
	Parameters           map[string]float64 `json:"parameters"`
	ParameterHash        string             `json:"parameter_hash"`
	InitialInvestment    float64            `json:"initial_investment"`
	FinalValue           float64            `json:"final_value"`
	TotalReturnPct       float64            `json:"total_return_pct"`
	BuyAndHoldReturnPct  float64            `json:"buy_and_hold_return_pct"`
	MaxDrawdownPct       float64            `json:"max_drawdown_pct"`
	SharpeRatio          float64            `json:"sharpe_ratio"`
	TotalTrades          int                `json:"total_trades"` // 完整的买卖配对数
	ProfitableTrades     int                `json:"profitable_trades"`
	LosingTrades         int                `json:"losing_trades"`
	TotalFees            float64            `json:"total_fees"`
	EndingCash           float64            `json:"ending_cash"`
	EndingPositionQty    float64            `json:"ending_position_qty"`
	EndingPositionValue  float64            `json:"ending_position_value"` // 未平仓位按最后一根K线收盘价估值
	Trades               []Trade            `json:"trades"`
	PortfolioValues      []PortfolioPoint   `json:"portfolio_values"`
	Persisted            bool               `json:"persisted"` // 结果是否已成功写入缓存
}
