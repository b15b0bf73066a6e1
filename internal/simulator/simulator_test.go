package simulator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crypto-backtest-go/internal/models"
	"crypto-backtest-go/internal/strategy"
)

func testConfig() *models.Config {
	return &models.Config{
		TakerFeeRate:  0.001,
		StopLossRate:  0.05,
		CooldownHours: 4,
	}
}

func barAt(hour int, close float64) models.PriceBar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return models.PriceBar{
		Timestamp: start.Add(time.Duration(hour) * time.Hour),
		Open:      close,
		High:      close,
		Low:       close,
		Close:     close,
		Volume:    100,
		Interval:  models.Interval1h,
	}
}

func enter(reason string) strategy.Decision {
	return strategy.Decision{Action: strategy.Enter, Reason: reason}
}

func exit(reason string) strategy.Decision {
	return strategy.Decision{Action: strategy.Exit, Reason: reason}
}

var holdDecision = strategy.Decision{Action: strategy.Hold}

func TestEnterSpendsAllCashWithFeeOffTheTop(t *testing.T) {
	sim := New(10000, testConfig())
	sim.ProcessBar(barAt(0, 100), enter("test entry"))

	pos := sim.Position()
	require.True(t, pos.IsOpen)
	assert.Equal(t, 0.0, sim.Cash())
	// Fee is deducted from the principal before sizing the position.
	assert.InDelta(t, 99.9, pos.Quantity, 1e-9)
	assert.InDelta(t, 10.0, sim.TotalFees(), 1e-9)

	require.Len(t, sim.Trades(), 1)
	trade := sim.Trades()[0]
	assert.Equal(t, models.ActionBuy, trade.Action)
	assert.Equal(t, "test entry", trade.Reason)
	assert.InDelta(t, 9990.0, trade.Value, 1e-9)
}

func TestPortfolioValueInvariantEveryBar(t *testing.T) {
	sim := New(10000, testConfig())
	closes := []float64{100, 102, 101, 103, 104}
	decisions := []strategy.Decision{enter("e"), holdDecision, holdDecision, exit("x"), holdDecision}

	for i, c := range closes {
		sim.ProcessBar(barAt(i, c), decisions[i])
		// cash + quantity*close must equal the recorded portfolio value.
		points := sim.PortfolioValues()
		require.Len(t, points, i+1)
		assert.InDelta(t, sim.Cash()+sim.Position().Quantity*c, points[i].Value, 1e-9)
	}
}

func TestExitReturnsProceedsMinusFee(t *testing.T) {
	sim := New(10000, testConfig())
	sim.ProcessBar(barAt(0, 100), enter("e"))
	qty := sim.Position().Quantity

	sim.ProcessBar(barAt(1, 110), exit("x"))

	require.False(t, sim.Position().IsOpen)
	gross := qty * 110
	expectedCash := gross - gross*0.001
	assert.InDelta(t, expectedCash, sim.Cash(), 1e-9)

	require.Len(t, sim.Trades(), 2)
	sell := sim.Trades()[1]
	assert.Equal(t, models.ActionSell, sell.Action)
	assert.InDelta(t, gross, sell.Value, 1e-9)
}

func TestStopLossTakesPrecedenceOverStrategyDecision(t *testing.T) {
	sim := New(10000, testConfig())
	sim.ProcessBar(barAt(0, 100), enter("e"))

	// 5% drop hits the stop exactly; the strategy's ENTER is irrelevant.
	sim.ProcessBar(barAt(1, 95), enter("should be ignored"))

	require.False(t, sim.Position().IsOpen)
	require.Len(t, sim.Trades(), 2)
	assert.Equal(t, models.ActionSell, sim.Trades()[1].Action)
	assert.Contains(t, sim.Trades()[1].Reason, "stop loss")
}

func TestStopLossNotTriggeredAboveThreshold(t *testing.T) {
	sim := New(10000, testConfig())
	sim.ProcessBar(barAt(0, 100), enter("e"))

	// 4.9% drop stays above the 5% stop.
	sim.ProcessBar(barAt(1, 95.1), holdDecision)
	assert.True(t, sim.Position().IsOpen)
}

func TestCooldownBlocksReentry(t *testing.T) {
	sim := New(10000, testConfig())
	sim.ProcessBar(barAt(0, 100), enter("e"))
	sim.ProcessBar(barAt(1, 110), exit("x"))

	// 3 hours after the exit: still cooling down, the entry is dropped.
	sim.ProcessBar(barAt(4, 100), enter("too early"))
	assert.False(t, sim.Position().IsOpen)
	require.Len(t, sim.Trades(), 2)

	// 5 hours after the exit: cooldown expired.
	sim.ProcessBar(barAt(6, 100), enter("after cooldown"))
	assert.True(t, sim.Position().IsOpen)
	require.Len(t, sim.Trades(), 3)
}

func TestEnterIgnoredWhileAlreadyOpen(t *testing.T) {
	sim := New(10000, testConfig())
	sim.ProcessBar(barAt(0, 100), enter("e"))
	sim.ProcessBar(barAt(1, 101), enter("duplicate"))

	require.Len(t, sim.Trades(), 1)
}

func TestExitIgnoredWhileFlat(t *testing.T) {
	sim := New(10000, testConfig())
	sim.ProcessBar(barAt(0, 100), exit("nothing to sell"))

	assert.Empty(t, sim.Trades())
	assert.Equal(t, 10000.0, sim.Cash())
}

func TestFinishMarksToMarketByDefault(t *testing.T) {
	sim := New(10000, testConfig())
	sim.ProcessBar(barAt(0, 100), enter("e"))
	last := barAt(1, 120)
	sim.ProcessBar(last, holdDecision)
	sim.Finish(last)

	// Position stays open, no synthetic SELL.
	assert.True(t, sim.Position().IsOpen)
	require.Len(t, sim.Trades(), 1)

	points := sim.PortfolioValues()
	assert.InDelta(t, sim.Position().Quantity*120, points[len(points)-1].Value, 1e-9)
}

func TestFinishForceClosesWhenConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.CloseOpenPosition = true
	sim := New(10000, cfg)
	sim.ProcessBar(barAt(0, 100), enter("e"))
	last := barAt(1, 120)
	sim.ProcessBar(last, holdDecision)
	sim.Finish(last)

	require.False(t, sim.Position().IsOpen)
	require.Len(t, sim.Trades(), 2)
	assert.Equal(t, models.ActionSell, sim.Trades()[1].Action)

	// The last timeline point reflects the post-close cash value.
	points := sim.PortfolioValues()
	assert.InDelta(t, sim.Cash(), points[len(points)-1].Value, 1e-9)
}

func TestZeroStopLossDisablesStop(t *testing.T) {
	cfg := testConfig()
	cfg.StopLossRate = 0
	sim := New(10000, cfg)
	sim.ProcessBar(barAt(0, 100), enter("e"))
	sim.ProcessBar(barAt(1, 50), holdDecision)

	assert.True(t, sim.Position().IsOpen)
}
