// Package indicators 提供基于收盘价序列的技术指标计算。
// 所有函数都是纯函数：输入一个价格序列，输出一个等长的指标序列，
// 热身期内（历史数据不足）的位置用 NaN 标记，调用方应将 NaN 视为无信号。
package indicators

import "math"

// SMA 计算简单移动平均。前 period-1 个位置为 NaN。
func SMA(closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	if period <= 0 || len(closes) < period {
		return out
	}

	var sum float64
	for i, c := range closes {
		sum += c
		if i >= period {
			sum -= closes[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// EMA 计算指数移动平均，用前 period 个收盘价的均值作为种子。
// 前 period-1 个位置为 NaN。
func EMA(closes []float64, period int) []float64 {
	return emaFrom(closes, 0, period)
}

// emaFrom 从 start 位置开始计算EMA，start 之前的位置保持 NaN。
// MACD 的信号线需要在一段前导 NaN 之后起算，因此单独抽出这个辅助函数。
func emaFrom(values []float64, start, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values)-start < period {
		return out
	}

	var seed float64
	for i := start; i < start+period; i++ {
		seed += values[i]
	}
	seed /= float64(period)
	out[start+period-1] = seed

	multiplier := 2.0 / float64(period+1)
	prev := seed
	for i := start + period; i < len(values); i++ {
		prev = (values[i]-prev)*multiplier + prev
		out[i] = prev
	}
	return out
}

// RSI 使用 Wilder 平滑法计算相对强弱指数。
// 前 period 个位置为 NaN；平均亏损为零时 RSI 按定义取 100，而不是抛错。
func RSI(closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	if period <= 0 || len(closes) < period+1 {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// BollingerBands 计算布林带。中轨为 SMA(period)，
// 上下轨为中轨 ± multiplier 倍的滚动标准差。
func BollingerBands(closes []float64, period int, multiplier float64) (middle, upper, lower []float64) {
	middle = SMA(closes, period)
	upper = nanSlice(len(closes))
	lower = nanSlice(len(closes))
	if period <= 0 || len(closes) < period {
		return middle, upper, lower
	}

	for i := period - 1; i < len(closes); i++ {
		mean := middle[i]
		var variance float64
		for j := i - period + 1; j <= i; j++ {
			d := closes[j] - mean
			variance += d * d
		}
		stdDev := math.Sqrt(variance / float64(period))
		upper[i] = mean + multiplier*stdDev
		lower[i] = mean - multiplier*stdDev
	}
	return middle, upper, lower
}

// MACD 计算 MACD 线和信号线。
// macd = EMA(fast) - EMA(slow)，signal = macd 的 EMA(signalPeriod)。
func MACD(closes []float64, fast, slow, signalPeriod int) (macd, signal []float64) {
	macd = nanSlice(len(closes))
	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)
	for i := range closes {
		if !math.IsNaN(emaFast[i]) && !math.IsNaN(emaSlow[i]) {
			macd[i] = emaFast[i] - emaSlow[i]
		}
	}

	// 信号线从 macd 第一个有效值处起算
	signal = emaFrom(macd, firstValid(macd), signalPeriod)
	return macd, signal
}

func firstValid(values []float64) int {
	for i, v := range values {
		if !math.IsNaN(v) {
			return i
		}
	}
	return len(values)
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
