package models

import "fmt"

// InvalidParameterError 表示请求中的某个策略参数未知或越界。
// 该错误在任何计算开始之前同步返回，参数绝不会被静默截断。
type InvalidParameterError struct {
	Strategy StrategyType
	Name     string
	Reason   string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %q for strategy %s: %s", e.Name, e.Strategy, e.Reason)
}

// InsufficientDataError 表示可用K线数量少于策略最长回看窗口的要求。
// 引擎不会返回部分结果。
type InsufficientDataError struct {
	Required int
	Got      int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient price data: strategy requires at least %d bars, got %d", e.Required, e.Got)
}

// UnknownStrategyError 表示策略标识无法被分发器识别。
// 这是致命错误，绝不回退到任何默认策略。
type UnknownStrategyError struct {
	Strategy StrategyType
}

func (e *UnknownStrategyError) Error() string {
	return fmt.Sprintf("unknown strategy %q", e.Strategy)
}

// PersistenceError 表示结果写入缓存/存储失败。
// 已经算好的内存结果不受影响，仍会返回给调用方。
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// InvalidIntervalError 表示请求的K线周期不在白名单内
type InvalidIntervalError struct {
	Interval Interval
}

func (e *InvalidIntervalError) Error() string {
	return fmt.Sprintf("invalid interval %q", e.Interval)
}
