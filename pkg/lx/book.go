package lx

import "sort"

// Trade records one match produced while processing an aggressive
// AddOrder: the incoming (aggressor) order consuming resting liquidity
// from RestingID at Price for Qty shares. AddOrder returns the full
// set of trades from a sweep so callers — metrics, market-data
// publishing — never have to infer fill counts from book-size deltas,
// which undercounts whenever a single incoming order sweeps more than
// one resting price level.
type Trade struct {
	AggressorID   uint64
	RestingID     uint64
	Price         uint64
	Qty           uint32
	AggressorSide Side
}

// FillReport summarises the outcome of one AddOrder call.
type FillReport struct {
	Trades    []Trade
	Remaining uint32 // quantity left over after matching; 0 if fully filled
	Rested    bool   // whether Remaining was actually posted to the book
}

// DepthLevel is one row of a order-book depth snapshot.
type DepthLevel struct {
	Price uint64
	Qty   uint64
}

// OrderBook is a fixed-capacity, single-symbol limit order book. All
// operations are synchronous and deterministic. Orders live in the
// fixed pool, so adding or cancelling an order allocates no order
// record; the per-call Trade slice in FillReport and the priceLevel
// (with its map and heap entries) created the first time a price
// appears on a side are heap allocations.
// OrderBook is not safe for concurrent use; callers serialise access
// the way the decoder/dispatcher already serialise message delivery.
type OrderBook struct {
	pool  *pool
	bids  *ladder
	asks  *ladder
	index map[uint64]int32
}

// NewOrderBook constructs a book over a pool of the given fixed order
// capacity. Capacity is always a caller-supplied parameter, never a
// hardcoded constant, so tests and small replays aren't forced to pay
// for a production-sized pool.
func NewOrderBook(capacity int) *OrderBook {
	return &OrderBook{
		pool:  newPool(capacity),
		bids:  newLadder(Buy),
		asks:  newLadder(Sell),
		index: make(map[uint64]int32, capacity),
	}
}

func (b *OrderBook) ladderFor(s Side) *ladder {
	if s == Buy {
		return b.bids
	}
	return b.asks
}

func isAggressive(side Side, price, oppBest uint64) bool {
	if side == Buy {
		return price >= oppBest
	}
	return price <= oppBest
}

// AddOrder inserts a new order, matching it against resting liquidity
// first in strict price-time priority. It returns false, without
// mutating the book, if qty is zero or id is
// already present. Pool exhaustion on the residual-insert step is also
// reported as false; any fills already applied before that point still
// took effect and are reflected in the returned FillReport.
func (b *OrderBook) AddOrder(id, price uint64, qty uint32, side Side) (FillReport, bool) {
	var report FillReport

	if qty == 0 {
		return report, false
	}
	if _, exists := b.index[id]; exists {
		return report, false
	}

	opposite := b.ladderFor(side.Opposite())

	for qty > 0 {
		lvl, ok := opposite.best()
		if !ok || !isAggressive(side, price, lvl.price) {
			break
		}

		restingIdx := lvl.head
		resting := &b.pool.slots[restingIdx]

		fillQty := qty
		if resting.qty < fillQty {
			fillQty = resting.qty
		}
		resting.qty -= fillQty
		qty -= fillQty
		lvl.aggregateQty -= uint64(fillQty)

		report.Trades = append(report.Trades, Trade{
			AggressorID:   id,
			RestingID:     resting.id,
			Price:         lvl.price,
			Qty:           fillQty,
			AggressorSide: side,
		})

		if resting.qty == 0 {
			levelRemove(b.pool, lvl, restingIdx)
			delete(b.index, resting.id)
			b.pool.free(restingIdx)
			opposite.removeIfEmpty(lvl)
		}
	}

	if qty == 0 {
		return report, true
	}

	idx, ok := b.pool.alloc(id, price, qty, side)
	if !ok {
		report.Remaining = qty
		return report, false
	}

	lvl := b.ladderFor(side).getOrCreate(price)
	levelAppend(b.pool, lvl, idx)
	b.index[id] = idx

	report.Remaining = qty
	report.Rested = true
	return report, true
}

// CancelOrder removes a live order entirely, reporting false if id is
// unknown (already cancelled, already fully matched, or never added).
func (b *OrderBook) CancelOrder(id uint64) bool {
	idx, ok := b.index[id]
	if !ok {
		return false
	}

	o := &b.pool.slots[idx]
	side := o.side
	lvl, ok := b.ladderFor(side).levelFor(o.price)
	if !ok {
		return false
	}

	levelRemove(b.pool, lvl, idx)
	delete(b.index, id)
	b.pool.free(idx)
	b.ladderFor(side).removeIfEmpty(lvl)
	return true
}

// BestBid returns the highest resting buy price, if any order rests.
func (b *OrderBook) BestBid() (uint64, bool) {
	lvl, ok := b.bids.best()
	if !ok {
		return 0, false
	}
	return lvl.price, true
}

// BestAsk returns the lowest resting sell price, if any order rests.
func (b *OrderBook) BestAsk() (uint64, bool) {
	lvl, ok := b.asks.best()
	if !ok {
		return 0, false
	}
	return lvl.price, true
}

// Spread returns best ask minus best bid, when both sides have resting
// liquidity.
func (b *OrderBook) Spread() (uint64, bool) {
	bid, okBid := b.BestBid()
	ask, okAsk := b.BestAsk()
	if !okBid || !okAsk {
		return 0, false
	}
	return ask - bid, true
}

func (b *OrderBook) OrderCount() int    { return b.pool.liveCount() }
func (b *OrderBook) BidLevelCount() int { return b.bids.levelCount() }
func (b *OrderBook) AskLevelCount() int { return b.asks.levelCount() }
func (b *OrderBook) Capacity() int      { return b.pool.capacity() }
func (b *OrderBook) FreeSlots() int     { return b.pool.freeSlots() }

// Depth returns up to n best-first levels per side. n <= 0 returns the
// full ladder on each side.
func (b *OrderBook) Depth(n int) (bids, asks []DepthLevel) {
	return snapshotSide(b.bids, n), snapshotSide(b.asks, n)
}

func snapshotSide(l *ladder, n int) []DepthLevel {
	prices := make([]uint64, 0, len(l.levels))
	for p := range l.levels {
		prices = append(prices, p)
	}
	sort.Slice(prices, func(i, j int) bool { return l.heap.less(prices[i], prices[j]) })
	if n > 0 && len(prices) > n {
		prices = prices[:n]
	}
	out := make([]DepthLevel, len(prices))
	for i, p := range prices {
		out[i] = DepthLevel{Price: p, Qty: l.levels[p].aggregateQty}
	}
	return out
}
