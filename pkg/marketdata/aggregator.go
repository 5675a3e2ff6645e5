// Package marketdata aggregates replayed fills into OHLCV candles.
// Adapted from the teacher's float64/multi-symbol Aggregator
// (pkg/marketdata/aggregator.go): this version consumes the single
// instrument a replay session decodes, in integer price ticks, and
// times candles off the ITCH header's nanoseconds-since-midnight field
// rather than wall-clock time, since a capture replay has no live
// clock to align against.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/luxfi/database"
	"github.com/luxfi/log"

	"github.com/luxfi/chronos/pkg/lx"
)

// Trade is one fill surfaced from an lx.FillReport, timestamped with
// the originating ITCH message's nanoseconds-since-midnight field.
type Trade struct {
	Symbol        string
	Timestamp     time.Duration // nanoseconds since midnight
	Price         uint64        // ticks
	Qty           uint32
	AggressorSide lx.Side
}

// Candle is one OHLCV bar, priced in ticks.
type Candle struct {
	Symbol    string        `json:"symbol"`
	Interval  Interval      `json:"interval"`
	OpenTime  time.Duration `json:"openTime"`
	CloseTime time.Duration `json:"closeTime"`
	Open      uint64        `json:"open"`
	High      uint64        `json:"high"`
	Low       uint64        `json:"low"`
	Close     uint64        `json:"close"`
	Volume    uint64        `json:"volume"`
	// QuoteVolume is the running sum of price*qty across every trade in
	// the bucket, kept alongside Volume so VolumeWeightedAveragePrice
	// never has to replay the trade history to compute it.
	QuoteVolume uint64 `json:"quoteVolume"`
	Trades      int    `json:"trades"`
	Complete    bool   `json:"complete"`
}

// Interval is a candle bucket width.
type Interval string

const (
	Interval1s  Interval = "1s"
	Interval5s  Interval = "5s"
	Interval1m  Interval = "1m"
	Interval5m  Interval = "5m"
	Interval1h  Interval = "1h"
)

// Duration returns the bucket width for an interval.
func (i Interval) Duration() time.Duration {
	switch i {
	case Interval1s:
		return time.Second
	case Interval5s:
		return 5 * time.Second
	case Interval1m:
		return time.Minute
	case Interval5m:
		return 5 * time.Minute
	case Interval1h:
		return time.Hour
	default:
		return time.Minute
	}
}

// AllIntervals returns every interval the aggregator tracks.
func AllIntervals() []Interval {
	return []Interval{Interval1s, Interval5s, Interval1m, Interval5m, Interval1h}
}

// Aggregator buffers trades and builds OHLCV candles for one symbol
// across every tracked interval, persisting completed candles to db
// and fanning them out to subscribers.
type Aggregator struct {
	logger log.Logger
	db     database.Database

	candlesMu sync.RWMutex
	candles   map[Interval]*Candle

	tradesMu sync.Mutex
	trades   []Trade

	subMu       sync.RWMutex
	subscribers map[Interval][]chan *Candle

	totalTrades  uint64
	totalCandles uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewAggregator constructs an Aggregator. Call Start to begin its
// background candle-completion loop and Stop to drain it.
func NewAggregator(logger log.Logger, db database.Database) *Aggregator {
	ctx, cancel := context.WithCancel(context.Background())

	return &Aggregator{
		logger:      logger,
		db:          db,
		candles:     make(map[Interval]*Candle),
		trades:      make([]Trade, 0, 1000),
		subscribers: make(map[Interval][]chan *Candle),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start launches the background trade-processing loop.
func (a *Aggregator) Start() error {
	a.wg.Add(1)
	go a.processTrades()

	a.logger.Info("market data aggregator started")
	return nil
}

// Stop cancels the background loop and waits for it to exit.
func (a *Aggregator) Stop() {
	a.logger.Info("stopping market data aggregator")
	a.cancel()
	a.wg.Wait()
}

// AddTrade buffers a trade for the next processing tick. Safe to call
// from the replay driver's hot decode loop.
func (a *Aggregator) AddTrade(trade Trade) {
	a.tradesMu.Lock()
	a.trades = append(a.trades, trade)
	a.totalTrades++
	a.tradesMu.Unlock()
}

func (a *Aggregator) processTrades() {
	defer a.wg.Done()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-a.ctx.Done():
			a.drainTradeBuffer()
			return
		case <-ticker.C:
			a.drainTradeBuffer()
		}
	}
}

func (a *Aggregator) drainTradeBuffer() {
	a.tradesMu.Lock()
	if len(a.trades) == 0 {
		a.tradesMu.Unlock()
		return
	}
	trades := a.trades
	a.trades = make([]Trade, 0, 1000)
	a.tradesMu.Unlock()

	for _, trade := range trades {
		a.updateCandles(trade)
	}
}

// updateCandles folds one trade into every interval's open candle,
// completing and persisting the prior bucket when the trade falls
// into a new one.
func (a *Aggregator) updateCandles(trade Trade) {
	a.candlesMu.Lock()
	defer a.candlesMu.Unlock()

	for _, interval := range AllIntervals() {
		openTime := alignToInterval(trade.Timestamp, interval.Duration())
		closeTime := openTime + interval.Duration()

		candle := a.candles[interval]
		if candle == nil || candle.OpenTime != openTime {
			if candle != nil && !candle.Complete {
				candle.Complete = true
				a.publishCandle(candle)
				a.storeCandle(candle)
			}

			candle = &Candle{
				Symbol:    trade.Symbol,
				Interval:  interval,
				OpenTime:  openTime,
				CloseTime: closeTime,
				Open:      trade.Price,
				High:      trade.Price,
				Low:       trade.Price,
				Close:     trade.Price,
				Volume:      uint64(trade.Qty),
				QuoteVolume: trade.Price * uint64(trade.Qty),
				Trades:      1,
			}
			a.candles[interval] = candle
			a.totalCandles++
			continue
		}

		if trade.Price > candle.High {
			candle.High = trade.Price
		}
		if trade.Price < candle.Low {
			candle.Low = trade.Price
		}
		candle.Close = trade.Price
		candle.Volume += uint64(trade.Qty)
		candle.QuoteVolume += trade.Price * uint64(trade.Qty)
		candle.Trades++
	}
}

// alignToInterval floors a nanoseconds-since-midnight timestamp to the
// start of its bucket.
func alignToInterval(t time.Duration, width time.Duration) time.Duration {
	if width <= 0 {
		return t
	}
	return (t / width) * width
}

func (a *Aggregator) publishCandle(candle *Candle) {
	a.subMu.RLock()
	subscribers := a.subscribers[candle.Interval]
	a.subMu.RUnlock()

	for _, ch := range subscribers {
		select {
		case ch <- candle:
		default:
		}
	}
}

func (a *Aggregator) storeCandle(candle *Candle) {
	if a.db == nil {
		return
	}
	key := fmt.Sprintf("candle:%s:%s:%d", candle.Symbol, candle.Interval, candle.OpenTime)

	value, err := json.Marshal(candle)
	if err != nil {
		a.logger.Error("failed to marshal candle", "error", err)
		return
	}
	if err := a.db.Put([]byte(key), value); err != nil {
		a.logger.Error("failed to store candle", "error", err)
	}
}

// Subscribe returns a channel receiving every completed candle at
// interval.
func (a *Aggregator) Subscribe(interval Interval) <-chan *Candle {
	ch := make(chan *Candle, 100)
	a.subMu.Lock()
	a.subscribers[interval] = append(a.subscribers[interval], ch)
	a.subMu.Unlock()
	return ch
}

// GetLatestCandle returns the in-progress or most recently completed
// candle at interval.
func (a *Aggregator) GetLatestCandle(interval Interval) *Candle {
	a.candlesMu.RLock()
	defer a.candlesMu.RUnlock()
	return a.candles[interval]
}

// GetStats returns running aggregator counters.
func (a *Aggregator) GetStats() map[string]uint64 {
	return map[string]uint64{
		"total_trades":  a.totalTrades,
		"total_candles": a.totalCandles,
	}
}

// VolumeWeightedAveragePrice returns QuoteVolume/Volume for the single
// live candle at interval — replay sessions build history forward in
// time, so this reports the running value of the bucket currently in
// progress rather than reading back a stored window.
func (a *Aggregator) VolumeWeightedAveragePrice(interval Interval) float64 {
	candle := a.GetLatestCandle(interval)
	if candle == nil || candle.Volume == 0 {
		return 0
	}
	return float64(candle.QuoteVolume) / float64(candle.Volume)
}
