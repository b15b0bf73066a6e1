package reporter

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"crypto-backtest-go/internal/models"
)

// PrintReport 把回测结果渲染成可读的报告，写入给定的输出流
func PrintReport(w io.Writer, result *models.BacktestResult) {
	printSummary(w, result)
	printAssetBreakdown(w, result)
	if len(result.Trades) > 0 {
		printTradeLedger(w, result.Trades)
	}
}

func printSummary(w io.Writer, r *models.BacktestResult) {
	winRate := 0.0
	if r.TotalTrades > 0 {
		winRate = float64(r.ProfitableTrades) / float64(r.TotalTrades) * 100
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("回测结果报告")
	t.AppendRows([]table.Row{
		{"策略", string(r.Strategy)},
		{"交易对", r.Symbol},
		{"K线周期", string(r.Interval)},
		{"回测周期", fmt.Sprintf("%s 到 %s",
			r.Start.Format("2006-01-02 15:04"), r.End.Format("2006-01-02 15:04"))},
		{"参数哈希", r.ParameterHash},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"初始资金", fmt.Sprintf("%.2f USDT", r.InitialInvestment)},
		{"最终资金", fmt.Sprintf("%.2f USDT", r.FinalValue)},
		{"收益率", fmt.Sprintf("%.2f%%", r.TotalReturnPct)},
		{"买入持有收益率", fmt.Sprintf("%.2f%%", r.BuyAndHoldReturnPct)},
		{"最大回撤", fmt.Sprintf("%.2f%%", r.MaxDrawdownPct)},
		{"夏普比率", fmt.Sprintf("%.2f", r.SharpeRatio)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"完整交易次数", r.TotalTrades},
		{"盈利次数", r.ProfitableTrades},
		{"亏损次数", r.LosingTrades},
		{"胜率", fmt.Sprintf("%.2f%%", winRate)},
		{"总手续费", fmt.Sprintf("%.4f USDT", r.TotalFees)},
	})
	t.Render()
}

func printAssetBreakdown(w io.Writer, r *models.BacktestResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("期末资产分析")
	t.AppendRows([]table.Row{
		{"期末现金", fmt.Sprintf("%.2f USDT", r.EndingCash)},
		{"期末持仓数量", fmt.Sprintf("%.6f", r.EndingPositionQty)},
		{"期末持仓市值", fmt.Sprintf("%.2f USDT", r.EndingPositionValue)},
	})
	t.Render()
}

func printTradeLedger(w io.Writer, trades []models.Trade) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("交易明细")
	t.AppendHeader(table.Row{"#", "时间", "方向", "价格", "数量", "金额", "手续费", "原因", "组合价值"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
		{Number: 9, Align: text.AlignRight},
	})
	for i, tr := range trades {
		t.AppendRow(table.Row{
			i + 1,
			tr.Timestamp.Format(time.DateTime),
			string(tr.Action),
			fmt.Sprintf("%.4f", tr.Price),
			fmt.Sprintf("%.6f", tr.Quantity),
			fmt.Sprintf("%.2f", tr.Value),
			fmt.Sprintf("%.4f", tr.Fee),
			tr.Reason,
			fmt.Sprintf("%.2f", tr.PortfolioValueAfter),
		})
	}
	t.Render()
}
