package lx

import "container/heap"

// priceHeap is a binary heap over price levels' keys, ordered by a
// side-specific comparison (descending for bids, ascending for asks).
// It is never the source of truth for which prices are live — ladder
// uses lazy deletion, so a price may linger in the heap after its
// level has been removed from ladder.levels; best() filters those out
// as it encounters them, mirroring the teacher's MaxPriceHeap /
// MinPriceHeap (backend/pkg/lx/orderbook.go) adapted from float64 keys
// and immediate removal to uint64 ticks and lazy cleanup, which keeps
// level deletion O(1) instead of O(log L).
type priceHeap struct {
	prices []uint64
	less   func(a, b uint64) bool
}

func (h *priceHeap) Len() int            { return len(h.prices) }
func (h *priceHeap) Less(i, j int) bool  { return h.less(h.prices[i], h.prices[j]) }
func (h *priceHeap) Swap(i, j int)       { h.prices[i], h.prices[j] = h.prices[j], h.prices[i] }
func (h *priceHeap) Push(x interface{})  { h.prices = append(h.prices, x.(uint64)) }
func (h *priceHeap) Pop() interface{} {
	n := len(h.prices)
	v := h.prices[n-1]
	h.prices = h.prices[:n-1]
	return v
}

// ladder is the ordered collection of price levels for one side of
// the book. Bid ladders order descending (best = highest price first);
// ask ladders order ascending (best = lowest price first).
type ladder struct {
	side   Side
	levels map[uint64]*priceLevel
	heap   *priceHeap
}

func newLadder(side Side) *ladder {
	var less func(a, b uint64) bool
	if side == Buy {
		less = func(a, b uint64) bool { return a > b }
	} else {
		less = func(a, b uint64) bool { return a < b }
	}
	h := &priceHeap{less: less}
	heap.Init(h)
	return &ladder{side: side, levels: make(map[uint64]*priceLevel), heap: h}
}

// levelFor returns the existing level at price, if any.
func (l *ladder) levelFor(price uint64) (*priceLevel, bool) {
	lvl, ok := l.levels[price]
	return lvl, ok
}

// getOrCreate returns the level at price, creating and indexing an
// empty one (and pushing it onto the heap) if absent.
func (l *ladder) getOrCreate(price uint64) *priceLevel {
	if lvl, ok := l.levels[price]; ok {
		return lvl
	}
	lvl := &priceLevel{price: price, head: noSlot, tail: noSlot}
	l.levels[price] = lvl
	heap.Push(l.heap, price)
	return lvl
}

// removeIfEmpty drops lvl from the level map once its list has no
// remaining orders, satisfying invariant 3. The stale price is left in
// the heap and reaped lazily by best().
func (l *ladder) removeIfEmpty(lvl *priceLevel) {
	if lvl.head == noSlot {
		delete(l.levels, lvl.price)
	}
}

// best returns the top-of-book level, discarding any stale heap
// entries left behind by removeIfEmpty along the way.
func (l *ladder) best() (*priceLevel, bool) {
	for l.heap.Len() > 0 {
		price := l.heap.prices[0]
		lvl, ok := l.levels[price]
		if !ok {
			heap.Pop(l.heap)
			continue
		}
		return lvl, true
	}
	return nil, false
}

func (l *ladder) levelCount() int { return len(l.levels) }
