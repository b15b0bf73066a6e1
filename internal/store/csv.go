package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"crypto-backtest-go/internal/models"
)

// ReadCSV 从CSV文件读取K线数据。文件格式与K线导出工具一致：
// 第一行为表头，之后每行依次为
// open_time(毫秒), open, high, low, close, volume, ...（多余的列被忽略）
func ReadCSV(path string, interval models.Interval) ([]models.PriceBar, error) {
	if !interval.Valid() {
		return nil, &models.InvalidIntervalError{Interval: interval}
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("无法打开历史数据文件: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // 列数不固定
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("无法读取CSV记录: %w", err)
	}
	if len(records) <= 1 {
		return nil, fmt.Errorf("历史数据文件 %s 为空或只有表头", path)
	}

	bars := make([]models.PriceBar, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) < 6 {
			return nil, fmt.Errorf("CSV记录列数不足: %v", record)
		}
		ts, errT := strconv.ParseInt(record[0], 10, 64)
		open, errO := strconv.ParseFloat(record[1], 64)
		high, errH := strconv.ParseFloat(record[2], 64)
		low, errL := strconv.ParseFloat(record[3], 64)
		closePrice, errC := strconv.ParseFloat(record[4], 64)
		volume, errV := strconv.ParseFloat(record[5], 64)
		if errT != nil || errO != nil || errH != nil || errL != nil || errC != nil || errV != nil {
			return nil, fmt.Errorf("无法解析CSV记录: %v", record)
		}

		bars = append(bars, models.PriceBar{
			Timestamp: time.UnixMilli(ts).UTC(),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    volume,
			Interval:  interval,
		})
	}
	return bars, nil
}

// ImportCSV 把CSV文件中的K线导入数据库，返回导入的K线数量
func (s *SQLBarStore) ImportCSV(path, symbol string, interval models.Interval) (int, error) {
	bars, err := ReadCSV(path, interval)
	if err != nil {
		return 0, err
	}
	if err := s.SaveBars(symbol, bars); err != nil {
		return 0, err
	}
	return len(bars), nil
}
