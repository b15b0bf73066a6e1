package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crypto-backtest-go/internal/models"
)

func sampleRequest() *models.BacktestRequest {
	return &models.BacktestRequest{
		Strategy:          models.StrategyRSI,
		Symbol:            "BTCUSDT",
		Interval:          models.Interval1h,
		Start:             time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:               time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		InitialInvestment: 10000,
		Parameters: map[string]float64{
			"period":               14,
			"oversold_threshold":   30,
			"overbought_threshold": 70,
		},
	}
}

func TestHashDeterministic(t *testing.T) {
	a := Hash(sampleRequest())
	b := Hash(sampleRequest())
	assert.Equal(t, a, b)
	assert.NotEmpty(t, a)
}

func TestHashIgnoresParameterMapOrder(t *testing.T) {
	// Go map iteration order is random; the hash must not depend on it.
	req := sampleRequest()
	for i := 0; i < 10; i++ {
		assert.Equal(t, Hash(sampleRequest()), Hash(req))
	}
}

func TestHashSensitiveToEveryField(t *testing.T) {
	base := Hash(sampleRequest())

	mutations := map[string]func(*models.BacktestRequest){
		"strategy":   func(r *models.BacktestRequest) { r.Strategy = models.StrategyMomentum },
		"symbol":     func(r *models.BacktestRequest) { r.Symbol = "ETHUSDT" },
		"interval":   func(r *models.BacktestRequest) { r.Interval = models.Interval4h },
		"start":      func(r *models.BacktestRequest) { r.Start = r.Start.Add(time.Hour) },
		"end":        func(r *models.BacktestRequest) { r.End = r.End.Add(time.Hour) },
		"investment": func(r *models.BacktestRequest) { r.InitialInvestment = 20000 },
		"parameter":  func(r *models.BacktestRequest) { r.Parameters["period"] = 21 },
	}

	for name, mutate := range mutations {
		req := sampleRequest()
		mutate(req)
		assert.NotEqual(t, base, Hash(req), "mutation %q should change the hash", name)
	}
}

func TestHashEquivalentTimezones(t *testing.T) {
	req := sampleRequest()
	shanghai := time.FixedZone("CST", 8*3600)
	req.Start = req.Start.In(shanghai)
	req.End = req.End.In(shanghai)

	// Same instants expressed in a different zone hash identically.
	assert.Equal(t, Hash(sampleRequest()), Hash(req))
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()

	missing, err := c.Get("absent")
	require.NoError(t, err)
	assert.Nil(t, missing)

	result := &models.BacktestResult{
		Strategy:   models.StrategyRSI,
		Symbol:     "BTCUSDT",
		FinalValue: 12345.67,
	}
	require.NoError(t, c.Put("key", result))

	got, err := c.Get("key")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, result.FinalValue, got.FinalValue)

	// The cache hands out copies, not aliases to its internal state.
	got.FinalValue = 0
	again, err := c.Get("key")
	require.NoError(t, err)
	assert.Equal(t, 12345.67, again.FinalValue)
}

func TestBadgerCacheRoundTrip(t *testing.T) {
	c, err := NewBadgerCache(t.TempDir())
	require.NoError(t, err)
	defer c.Close()

	missing, err := c.Get("absent")
	require.NoError(t, err)
	assert.Nil(t, missing)

	result := &models.BacktestResult{
		Strategy:       models.StrategyBollingerBands,
		Symbol:         "ETHUSDT",
		Interval:       models.Interval4h,
		FinalValue:     9876.5,
		TotalReturnPct: -1.235,
		Trades: []models.Trade{
			{Action: models.ActionBuy, Price: 2000, Quantity: 5, Value: 10000, Fee: 10},
		},
	}
	require.NoError(t, c.Put("key", result))

	got, err := c.Get("key")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, result.FinalValue, got.FinalValue)
	assert.Equal(t, result.TotalReturnPct, got.TotalReturnPct)
	require.Len(t, got.Trades, 1)
	assert.Equal(t, models.ActionBuy, got.Trades[0].Action)
}
