package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"crypto-backtest-go/internal/cache"
	"crypto-backtest-go/internal/config"
	"crypto-backtest-go/internal/engine"
	"crypto-backtest-go/internal/logger"
	"crypto-backtest-go/internal/models"
	"crypto-backtest-go/internal/reporter"
	"crypto-backtest-go/internal/store"
	"crypto-backtest-go/internal/strategy"
)

// parseParams 解析 "key=value,key=value" 形式的策略参数
func parseParams(raw string) (map[string]float64, error) {
	params := make(map[string]float64)
	if raw == "" {
		return params, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("无效的参数格式: %q，期望 key=value", pair)
		}
		value, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("参数 %s 的值 %q 不是有效数字", parts[0], parts[1])
		}
		params[parts[0]] = value
	}
	return params, nil
}

// parseDate 支持 YYYY-MM-DD 和 RFC3339 两种时间格式
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(time.RFC3339, value)
}

// extractSymbolFromPath 从数据文件路径中提取交易对名称
// 例如: "data/BTCUSDT-1h-2024.csv" -> "BTCUSDT"
func extractSymbolFromPath(path string) string {
	name := strings.TrimSuffix(path, ".csv")
	parts := strings.Split(name, "/")
	fileName := parts[len(parts)-1]
	symbolParts := strings.Split(fileName, "-")
	if len(symbolParts) > 0 {
		return strings.ToUpper(symbolParts[0])
	}
	return ""
}

func main() {
	// --- 命令行参数定义 ---
	configPath := flag.String("config", "config.json", "path to the config file")
	strategyID := flag.String("strategy", "", "strategy to run (e.g., rsi, ma_crossover)")
	symbol := flag.String("symbol", "", "symbol to backtest (e.g., BTCUSDT)")
	interval := flag.String("interval", "1h", "candlestick interval (1m/5m/15m/30m/1h/4h/1d)")
	startDate := flag.String("start", "", "start date (YYYY-MM-DD or RFC3339)")
	endDate := flag.String("end", "", "end date (YYYY-MM-DD or RFC3339)")
	investment := flag.Float64("investment", 10000, "initial investment in USDT")
	paramStr := flag.String("params", "", "strategy parameters as key=value,key=value")
	dataPath := flag.String("data", "", "optional CSV file to import before running")
	listStrategies := flag.Bool("list", false, "list available strategies and exit")
	flag.Parse()

	// 提前用默认配置初始化日志，保证加载配置阶段也有日志输出
	logger.InitLogger(models.LogConfig{Level: "info", Output: "console"})

	if *listStrategies {
		printStrategies()
		return
	}

	// --- 加载 .env 文件 ---
	if err := godotenv.Load(); err != nil {
		logger.S().Debug("未找到 .env 文件，将从系统环境变量中读取。")
	}

	// --- 加载 JSON 配置 ---
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.S().Infof("配置文件 %s 不存在，使用默认配置。", *configPath)
			cfg = config.Default()
		} else {
			logger.S().Fatalf("无法加载配置文件: %v", err)
		}
	}

	// 环境变量优先于配置文件中的路径
	if v := os.Getenv("BACKTEST_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("BACKTEST_CACHE_PATH"); v != "" {
		cfg.CachePath = v
	}

	// --- 使用文件中的配置重新初始化日志 ---
	logger.InitLogger(cfg.LogConfig)
	defer logger.S().Sync()

	if err := run(cfg, *strategyID, *symbol, *interval, *startDate, *endDate,
		*investment, *paramStr, *dataPath); err != nil {
		logger.S().Fatalf("回测失败: %v", err)
	}
}

func run(cfg *models.Config, strategyID, symbol, interval, startDate, endDate string,
	investment float64, paramStr, dataPath string) error {

	barInterval := models.Interval(interval)
	if !barInterval.Valid() {
		return &models.InvalidIntervalError{Interval: barInterval}
	}

	barStore, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("无法打开K线数据库: %w", err)
	}
	defer barStore.Close()

	// 如果指定了数据文件，先导入数据库再回测
	if dataPath != "" {
		if symbol == "" {
			symbol = extractSymbolFromPath(dataPath)
		}
		if symbol == "" {
			return fmt.Errorf("无法从数据文件路径推断交易对，请用 -symbol 指定")
		}
		count, err := barStore.ImportCSV(dataPath, symbol, barInterval)
		if err != nil {
			return fmt.Errorf("导入历史数据失败: %w", err)
		}
		logger.S().Infof("已从 %s 导入 %d 根K线 (%s %s)", dataPath, count, symbol, barInterval)
	}

	if strategyID == "" || symbol == "" || startDate == "" || endDate == "" {
		return fmt.Errorf("参数不完整: -strategy, -symbol, -start, -end 均为必填")
	}
	start, err := parseDate(startDate)
	if err != nil {
		return fmt.Errorf("无效的开始时间 %q: %w", startDate, err)
	}
	end, err := parseDate(endDate)
	if err != nil {
		return fmt.Errorf("无效的结束时间 %q: %w", endDate, err)
	}

	params, err := parseParams(paramStr)
	if err != nil {
		return err
	}

	resultCache, err := cache.NewBadgerCache(cfg.CachePath)
	if err != nil {
		return fmt.Errorf("无法打开结果缓存: %w", err)
	}
	defer resultCache.Close()

	// 支持 Ctrl+C 取消长时间回测
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eng := engine.NewEngine(cfg, barStore, resultCache)
	result, err := eng.Run(ctx, &models.BacktestRequest{
		Strategy:          models.StrategyType(strategyID),
		Symbol:            symbol,
		Interval:          barInterval,
		Start:             start,
		End:               end,
		InitialInvestment: investment,
		Parameters:        params,
	})
	if err != nil {
		return err
	}

	reporter.PrintReport(os.Stdout, result)
	return nil
}

func printStrategies() {
	for _, def := range strategy.Definitions() {
		fmt.Printf("%-20s %s\n", def.Type, def.Name)
		specs, _ := strategy.ParameterSpecs(def.Type)
		for _, spec := range specs {
			fmt.Printf("    %-20s %-10s default=%-8g range=[%g, %g]\n",
				spec.Name, spec.Type, spec.Default, spec.Min, spec.Max)
		}
	}
}
