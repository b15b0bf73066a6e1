package engine

import (
	"context"
	"fmt"
	"time"

	"crypto-backtest-go/internal/cache"
	"crypto-backtest-go/internal/logger"
	"crypto-backtest-go/internal/metrics"
	"crypto-backtest-go/internal/models"
	"crypto-backtest-go/internal/simulator"
	"crypto-backtest-go/internal/store"
	"crypto-backtest-go/internal/strategy"
)

// Engine 是回测流程的总调度器，串联数据读取、策略决策、
// 交易模拟、指标计算和结果缓存
type Engine struct {
	cfg   *models.Config
	bars  store.BarStore
	cache cache.ResultCache
}

// NewEngine 创建回测引擎
func NewEngine(cfg *models.Config, bars store.BarStore, resultCache cache.ResultCache) *Engine {
	return &Engine{
		cfg:   cfg,
		bars:  bars,
		cache: resultCache,
	}
}

// Run 执行一次完整的回测。命中缓存时直接返回已保存的结果。
// 缓存写入失败不影响本次回测结果，只把 Persisted 置为 false。
func (e *Engine) Run(ctx context.Context, req *models.BacktestRequest) (*models.BacktestResult, error) {
	if _, err := strategy.Lookup(req.Strategy); err != nil {
		return nil, err
	}
	if !req.Interval.Valid() {
		return nil, &models.InvalidIntervalError{Interval: req.Interval}
	}
	if req.InitialInvestment <= 0 {
		return nil, fmt.Errorf("初始投资额必须为正数，实际为 %.2f", req.InitialInvestment)
	}
	if !req.End.After(req.Start) {
		return nil, fmt.Errorf("结束时间 %s 必须晚于开始时间 %s",
			req.End.Format(time.RFC3339), req.Start.Format(time.RFC3339))
	}

	params, err := strategy.NormalizeParams(req.Strategy, req.Parameters)
	if err != nil {
		return nil, err
	}

	// 哈希基于补齐默认值后的参数表计算，但不回写调用方的请求
	hashReq := *req
	hashReq.Parameters = params
	hash := cache.Hash(&hashReq)
	if cached, err := e.cache.Get(hash); err != nil {
		logger.S().Warnf("读取结果缓存失败，继续执行回测: %v", err)
	} else if cached != nil {
		logger.S().Infof("命中结果缓存: %s %s %s (hash=%s)",
			req.Strategy, req.Symbol, req.Interval, hash)
		return cached, nil
	}

	bars, err := e.bars.GetBars(req.Symbol, req.Interval, req.Start, req.End)
	if err != nil {
		return nil, fmt.Errorf("读取K线数据失败: %w", err)
	}

	rs, err := strategy.New(req.Strategy, bars, params)
	if err != nil {
		return nil, err
	}
	if len(bars) < rs.WarmupBars() {
		return nil, &models.InsufficientDataError{Required: rs.WarmupBars(), Got: len(bars)}
	}

	logger.S().Infof("开始回测: 策略=%s 交易对=%s 周期=%s K线数=%d 初始资金=%.2f",
		req.Strategy, req.Symbol, req.Interval, len(bars), req.InitialInvestment)

	sim := simulator.New(req.InitialInvestment, e.cfg)
	for i, bar := range bars {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("回测在第 %d 根K线处被取消: %w", i, err)
		}
		decision := rs.Decide(i, bars, sim.Position())
		sim.ProcessBar(bar, decision)
	}

	lastBar := bars[len(bars)-1]
	sim.Finish(lastBar)

	pos := sim.Position()
	result := &models.BacktestResult{
		Strategy:            req.Strategy,
		Symbol:              req.Symbol,
		Interval:            req.Interval,
		Start:               req.Start,
		End:                 req.End,
		Parameters:          params,
		ParameterHash:       hash,
		InitialInvestment:   req.InitialInvestment,
		EndingCash:          sim.Cash(),
		EndingPositionQty:   pos.Quantity,
		EndingPositionValue: pos.Quantity * lastBar.Close,
		Trades:              sim.Trades(),
		PortfolioValues:     sim.PortfolioValues(),
	}
	metrics.Fill(result, bars)

	if err := e.cache.Put(hash, result); err != nil {
		perr := &models.PersistenceError{Op: "put", Err: err}
		logger.S().Warnf("结果缓存写入失败: %v", perr)
		result.Persisted = false
	} else {
		result.Persisted = true
	}

	logger.S().Infof("回测完成: 最终价值=%.2f 收益率=%.2f%% 交易次数=%d",
		result.FinalValue, result.TotalReturnPct, result.TotalTrades)
	return result, nil
}
