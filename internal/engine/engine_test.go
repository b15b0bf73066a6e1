package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crypto-backtest-go/internal/cache"
	"crypto-backtest-go/internal/models"
)

// mockBarStore serves a fixed bar series and counts how often it is queried.
type mockBarStore struct {
	bars     []models.PriceBar
	err      error
	getCalls int
}

func (m *mockBarStore) GetBars(symbol string, interval models.Interval, start, end time.Time) ([]models.PriceBar, error) {
	m.getCalls++
	return m.bars, m.err
}

// countingCache wraps the in-memory cache and counts Get/Put calls.
type countingCache struct {
	inner    cache.ResultCache
	getCalls int
	putCalls int
	putErr   error
}

func newCountingCache() *countingCache {
	return &countingCache{inner: cache.NewMemoryCache()}
}

func (c *countingCache) Get(hash string) (*models.BacktestResult, error) {
	c.getCalls++
	return c.inner.Get(hash)
}

func (c *countingCache) Put(hash string, result *models.BacktestResult) error {
	c.putCalls++
	if c.putErr != nil {
		return c.putErr
	}
	return c.inner.Put(hash, result)
}

func (c *countingCache) Close() error { return c.inner.Close() }

func testBars(closes []float64) []models.PriceBar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = models.PriceBar{
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Open:      c,
			High:      c * 1.001,
			Low:       c * 0.999,
			Close:     c,
			Volume:    100,
			Interval:  models.Interval1h,
		}
	}
	return bars
}

// rsiCloses produces a series that triggers one RSI(2) entry and one exit.
func rsiCloses() []float64 {
	return []float64{100, 99, 98, 97, 98, 99, 100, 101, 102, 103}
}

func testRequest() *models.BacktestRequest {
	return &models.BacktestRequest{
		Strategy:          models.StrategyRSI,
		Symbol:            "BTCUSDT",
		Interval:          models.Interval1h,
		Start:             time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:               time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		InitialInvestment: 10000,
		Parameters:        map[string]float64{"period": 2},
	}
}

func testEngine(bars []models.PriceBar) (*Engine, *mockBarStore, *countingCache) {
	store := &mockBarStore{bars: bars}
	resultCache := newCountingCache()
	cfg := &models.Config{
		TakerFeeRate:  0.001,
		StopLossRate:  0.5, // loose stop so the strategy drives all exits
		CooldownHours: 1,
	}
	return NewEngine(cfg, store, resultCache), store, resultCache
}

func TestRunProducesResult(t *testing.T) {
	eng, _, resultCache := testEngine(testBars(rsiCloses()))

	result, err := eng.Run(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, models.StrategyRSI, result.Strategy)
	assert.Equal(t, "BTCUSDT", result.Symbol)
	assert.NotEmpty(t, result.ParameterHash)
	assert.True(t, result.Persisted)
	assert.Len(t, result.PortfolioValues, 10)
	// Defaults were filled in next to the provided override.
	assert.Equal(t, 2.0, result.Parameters["period"])
	assert.Equal(t, 30.0, result.Parameters["oversold_threshold"])
	assert.Equal(t, 1, resultCache.putCalls)
}

func TestRunUnknownStrategy(t *testing.T) {
	eng, store, _ := testEngine(testBars(rsiCloses()))
	req := testRequest()
	req.Strategy = models.StrategyType("arbitrage")

	_, err := eng.Run(context.Background(), req)
	var unknownErr *models.UnknownStrategyError
	require.ErrorAs(t, err, &unknownErr)
	assert.Zero(t, store.getCalls)
}

func TestRunInvalidInterval(t *testing.T) {
	eng, _, _ := testEngine(testBars(rsiCloses()))
	req := testRequest()
	req.Interval = models.Interval("2h")

	_, err := eng.Run(context.Background(), req)
	var intervalErr *models.InvalidIntervalError
	require.ErrorAs(t, err, &intervalErr)
}

func TestRunInvalidParameter(t *testing.T) {
	eng, store, _ := testEngine(testBars(rsiCloses()))
	req := testRequest()
	req.Parameters = map[string]float64{"period": 9999}

	_, err := eng.Run(context.Background(), req)
	var invalidErr *models.InvalidParameterError
	require.ErrorAs(t, err, &invalidErr)
	assert.Zero(t, store.getCalls)
}

func TestRunInsufficientData(t *testing.T) {
	eng, _, _ := testEngine(testBars([]float64{100, 101}))
	req := testRequest()
	req.Parameters = map[string]float64{"period": 14}

	_, err := eng.Run(context.Background(), req)
	var dataErr *models.InsufficientDataError
	require.ErrorAs(t, err, &dataErr)
	assert.Equal(t, 15, dataErr.Required)
	assert.Equal(t, 2, dataErr.Got)
}

func TestRunBarStoreError(t *testing.T) {
	eng, store, _ := testEngine(nil)
	store.err = errors.New("disk gone")

	_, err := eng.Run(context.Background(), testRequest())
	require.Error(t, err)
	assert.ErrorContains(t, err, "disk gone")
}

func TestRunCacheHitSkipsSimulation(t *testing.T) {
	eng, store, resultCache := testEngine(testBars(rsiCloses()))
	req := testRequest()

	first, err := eng.Run(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 1, store.getCalls)

	second, err := eng.Run(context.Background(), testRequest())
	require.NoError(t, err)

	// Second run is served from the cache without touching the bar store.
	assert.Equal(t, 1, store.getCalls)
	assert.Equal(t, 2, resultCache.getCalls)
	assert.Equal(t, 1, resultCache.putCalls)
	assert.Equal(t, first.FinalValue, second.FinalValue)
	assert.Equal(t, first.ParameterHash, second.ParameterHash)
}

func TestRunDeterministicAcrossColdCaches(t *testing.T) {
	req := testRequest()
	engA, _, _ := testEngine(testBars(rsiCloses()))
	engB, _, _ := testEngine(testBars(rsiCloses()))

	a, err := engA.Run(context.Background(), req)
	require.NoError(t, err)
	b, err := engB.Run(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, a.FinalValue, b.FinalValue)
	assert.Equal(t, a.TotalTrades, b.TotalTrades)
	assert.Equal(t, a.Trades, b.Trades)
	assert.Equal(t, a.ParameterHash, b.ParameterHash)
}

func TestRunDoesNotMutateRequestParameters(t *testing.T) {
	eng, _, _ := testEngine(testBars(rsiCloses()))
	req := testRequest()

	result, err := eng.Run(context.Background(), req)
	require.NoError(t, err)

	// The caller's map keeps only what it supplied; defaults appear solely
	// in the result.
	assert.Equal(t, map[string]float64{"period": 2}, req.Parameters)
	assert.Equal(t, 30.0, result.Parameters["oversold_threshold"])
}

func TestRunPersistFailureStillReturnsResult(t *testing.T) {
	eng, _, resultCache := testEngine(testBars(rsiCloses()))
	resultCache.putErr = errors.New("cache full")

	result, err := eng.Run(context.Background(), testRequest())
	require.NoError(t, err)
	assert.False(t, result.Persisted)
	assert.Equal(t, 1, resultCache.putCalls)
}

func TestRunCancelledContext(t *testing.T) {
	eng, _, _ := testEngine(testBars(rsiCloses()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := eng.Run(ctx, testRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunRejectsNonPositiveInvestment(t *testing.T) {
	eng, _, _ := testEngine(testBars(rsiCloses()))
	req := testRequest()
	req.InitialInvestment = 0

	_, err := eng.Run(context.Background(), req)
	require.Error(t, err)
}

func TestRunRejectsInvertedWindow(t *testing.T) {
	eng, _, _ := testEngine(testBars(rsiCloses()))
	req := testRequest()
	req.Start, req.End = req.End, req.Start

	_, err := eng.Run(context.Background(), req)
	require.Error(t, err)
}
