package config

import (
	"encoding/json"
	"fmt"
	"os"

	"crypto-backtest-go/internal/models"
)

// LoadConfig 从指定路径加载JSON配置文件并解析到Config结构体中。
// 缺失的关键字段会被填上保守的默认值。
func LoadConfig(path string) (*models.Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	config := &models.Config{}
	if err := json.NewDecoder(file).Decode(config); err != nil {
		return nil, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
	}

	applyDefaults(config)
	return config, nil
}

// Default 返回一份带默认值的配置，供未提供配置文件的调用方使用。
func Default() *models.Config {
	cfg := &models.Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *models.Config) {
	if cfg.DBPath == "" {
		cfg.DBPath = "data/bars.db"
	}
	if cfg.CachePath == "" {
		cfg.CachePath = "data/result_cache"
	}
	if cfg.TakerFeeRate == 0 {
		cfg.TakerFeeRate = 0.001 // 0.1%，币安现货默认费率
	}
	if cfg.StopLossRate == 0 {
		cfg.StopLossRate = 0.05
	}
	if cfg.CooldownHours == 0 {
		cfg.CooldownHours = 4
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.LogConfig.Output == "" {
		cfg.LogConfig.Output = "console"
	}
}
