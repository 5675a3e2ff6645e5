package marketdata

import (
	"testing"
	"time"

	"github.com/luxfi/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/chronos/pkg/lx"
)

func TestUpdateCandlesTracksOHLCV(t *testing.T) {
	a := NewAggregator(log.Root(), nil)

	a.updateCandles(Trade{Symbol: "AAPL", Timestamp: 0, Price: 1000, Qty: 10, AggressorSide: lx.Buy})
	a.updateCandles(Trade{Symbol: "AAPL", Timestamp: 10 * time.Millisecond, Price: 1050, Qty: 5, AggressorSide: lx.Buy})
	a.updateCandles(Trade{Symbol: "AAPL", Timestamp: 20 * time.Millisecond, Price: 990, Qty: 3, AggressorSide: lx.Sell})

	candle := a.GetLatestCandle(Interval1s)
	require.NotNil(t, candle)
	assert.Equal(t, uint64(1000), candle.Open)
	assert.Equal(t, uint64(1050), candle.High)
	assert.Equal(t, uint64(990), candle.Low)
	assert.Equal(t, uint64(990), candle.Close)
	assert.Equal(t, uint64(18), candle.Volume)
	assert.Equal(t, 3, candle.Trades)
}

func TestUpdateCandlesRollsBucketOnIntervalCrossing(t *testing.T) {
	a := NewAggregator(log.Root(), nil)

	a.updateCandles(Trade{Symbol: "AAPL", Timestamp: 0, Price: 1000, Qty: 1, AggressorSide: lx.Buy})
	a.updateCandles(Trade{Symbol: "AAPL", Timestamp: 2 * time.Second, Price: 1100, Qty: 1, AggressorSide: lx.Buy})

	candle := a.GetLatestCandle(Interval1s)
	require.NotNil(t, candle)
	assert.Equal(t, uint64(1100), candle.Open, "new bucket after crossing 1s boundary")
	assert.Equal(t, 1, candle.Trades, "fresh bucket")
}

func TestAlignToInterval(t *testing.T) {
	assert.Equal(t, 2*time.Second, alignToInterval(2500*time.Millisecond, time.Second))
}

func TestVolumeWeightedAveragePrice(t *testing.T) {
	a := NewAggregator(log.Root(), nil)

	a.updateCandles(Trade{Symbol: "AAPL", Timestamp: 0, Price: 1000, Qty: 10, AggressorSide: lx.Buy})
	a.updateCandles(Trade{Symbol: "AAPL", Timestamp: 10 * time.Millisecond, Price: 2000, Qty: 30, AggressorSide: lx.Buy})

	// (1000*10 + 2000*30) / 40 = 1750
	assert.Equal(t, float64(1750), a.VolumeWeightedAveragePrice(Interval1s))
}

func TestVolumeWeightedAveragePriceEmptyCandle(t *testing.T) {
	a := NewAggregator(log.Root(), nil)
	assert.Equal(t, float64(0), a.VolumeWeightedAveragePrice(Interval1s))
}

func TestAddTradeBuffersAndDrainBuildsCandle(t *testing.T) {
	a := NewAggregator(log.Root(), nil)
	a.AddTrade(Trade{Symbol: "AAPL", Price: 1000, Qty: 1})

	stats := a.GetStats()
	assert.Equal(t, uint64(1), stats["total_trades"])
	assert.Nil(t, a.GetLatestCandle(Interval1s), "candle should not exist before the buffer drains")

	a.drainTradeBuffer()

	assert.NotNil(t, a.GetLatestCandle(Interval1s), "candle should exist after the buffer drains")
}
