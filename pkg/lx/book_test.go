package lx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNonCrossingInserts exercises S4: two orders on opposite sides
// that don't cross both rest.
func TestNonCrossingInserts(t *testing.T) {
	b := NewOrderBook(16)

	mustAdd(t, b, 1, 1000, 100, Buy)
	mustAdd(t, b, 2, 1010, 50, Sell)

	bid, _ := b.BestBid()
	ask, _ := b.BestAsk()
	spread, _ := b.Spread()

	assert.Equal(t, uint64(1000), bid)
	assert.Equal(t, uint64(1010), ask)
	assert.Equal(t, uint64(10), spread)
	assert.Equal(t, 2, b.OrderCount())
}

// TestFullMatch exercises S5: an incoming buy at the resting ask price
// for less than the resting quantity partially fills the resting order
// and fully fills the aggressor.
func TestFullMatch(t *testing.T) {
	b := NewOrderBook(16)
	mustAdd(t, b, 1, 1000, 100, Buy)
	mustAdd(t, b, 2, 1010, 50, Sell)

	report, ok := b.AddOrder(3, 1010, 40, Buy)
	require.True(t, ok)
	require.Len(t, report.Trades, 1)

	tr := report.Trades[0]
	assert.Equal(t, uint64(2), tr.RestingID)
	assert.Equal(t, uint64(1010), tr.Price)
	assert.Equal(t, uint32(40), tr.Qty)
	assert.False(t, report.Rested, "order 3 fully filled, should not rest")
	assert.Zero(t, report.Remaining)

	ask, _ := b.BestAsk()
	assert.Equal(t, uint64(1010), ask, "order 2 still resting with 10 left")
	assert.Equal(t, 2, b.OrderCount(), "order 1 and partially-filled order 2")
}

// TestSweepAcrossLevels exercises S6: an aggressive buy sweeps two ask
// levels, leaving residual quantity at the second.
func TestSweepAcrossLevels(t *testing.T) {
	b := NewOrderBook(16)
	mustAdd(t, b, 1, 1010, 20, Sell)
	mustAdd(t, b, 2, 1020, 30, Sell)

	report, ok := b.AddOrder(7, 1020, 45, Buy)
	require.True(t, ok)
	require.Len(t, report.Trades, 2)

	assert.Equal(t, uint64(1010), report.Trades[0].Price)
	assert.Equal(t, uint32(20), report.Trades[0].Qty)
	assert.Equal(t, uint64(1020), report.Trades[1].Price)
	assert.Equal(t, uint32(25), report.Trades[1].Qty)
	assert.Zero(t, report.Remaining)

	assert.Equal(t, 1, b.OrderCount())
	assert.Equal(t, 1, b.AskLevelCount())

	bids, asks := b.Depth(0)
	assert.Empty(t, bids)
	require.Len(t, asks, 1)
	assert.Equal(t, DepthLevel{Price: 1020, Qty: 5}, asks[0])
}

func TestZeroQtyIsNoOp(t *testing.T) {
	b := NewOrderBook(4)
	_, ok := b.AddOrder(1, 1000, 0, Buy)
	assert.False(t, ok)
	assert.Zero(t, b.OrderCount(), "zero-qty add should not touch the book")
}

func TestDuplicateIDRejected(t *testing.T) {
	b := NewOrderBook(4)
	mustAdd(t, b, 1, 1000, 10, Buy)
	_, ok := b.AddOrder(1, 2000, 5, Sell)
	assert.False(t, ok)
	assert.Equal(t, 1, b.OrderCount(), "duplicate id must not mutate the book")
}

func TestCancelIdempotence(t *testing.T) {
	b := NewOrderBook(4)
	mustAdd(t, b, 1, 1000, 10, Buy)

	assert.True(t, b.CancelOrder(1))
	assert.False(t, b.CancelOrder(1), "second cancel of the same id should fail")
	assert.False(t, b.CancelOrder(999))
}

func TestCancelRemovesEmptyLevel(t *testing.T) {
	b := NewOrderBook(4)
	mustAdd(t, b, 1, 1000, 10, Buy)
	require.Equal(t, 1, b.BidLevelCount())

	b.CancelOrder(1)
	assert.Zero(t, b.BidLevelCount())

	_, ok := b.BestBid()
	assert.False(t, ok)
}

func TestPoolConservation(t *testing.T) {
	const capacity = 8
	b := NewOrderBook(capacity)

	mustAdd(t, b, 1, 1000, 10, Buy)
	mustAdd(t, b, 2, 1001, 10, Buy)
	b.CancelOrder(1)
	mustAdd(t, b, 3, 1002, 10, Buy)

	assert.Equal(t, capacity, b.OrderCount()+b.FreeSlots())
}

func TestPoolExhaustion(t *testing.T) {
	b := NewOrderBook(1)
	mustAdd(t, b, 1, 1000, 10, Buy)

	_, ok := b.AddOrder(2, 1000, 10, Buy)
	assert.False(t, ok, "AddOrder beyond capacity should fail")
}

func TestFIFOFillOrder(t *testing.T) {
	b := NewOrderBook(8)
	mustAdd(t, b, 1, 1000, 10, Sell)
	mustAdd(t, b, 2, 1000, 10, Sell)
	mustAdd(t, b, 3, 1000, 10, Sell)

	report, ok := b.AddOrder(4, 1000, 15, Buy)
	require.True(t, ok)
	require.Len(t, report.Trades, 2)

	assert.Equal(t, uint64(1), report.Trades[0].RestingID)
	assert.Equal(t, uint32(10), report.Trades[0].Qty)
	assert.Equal(t, uint64(2), report.Trades[1].RestingID)
	assert.Equal(t, uint32(5), report.Trades[1].Qty)
}

func TestLadderOrderingAcrossManyLevels(t *testing.T) {
	b := NewOrderBook(32)
	prices := []uint64{1005, 1001, 1010, 995, 1020}
	for i, p := range prices {
		mustAdd(t, b, uint64(i+1), p, 1, Buy)
	}
	bid, _ := b.BestBid()
	assert.Equal(t, uint64(1020), bid, "highest of %v", prices)

	b2 := NewOrderBook(32)
	for i, p := range prices {
		mustAdd(t, b2, uint64(i+1), p, 1, Sell)
	}
	ask, _ := b2.BestAsk()
	assert.Equal(t, uint64(995), ask, "lowest of %v", prices)
}

func mustAdd(t *testing.T, b *OrderBook, id, price uint64, qty uint32, side Side) {
	t.Helper()
	_, ok := b.AddOrder(id, price, qty, side)
	require.True(t, ok, "AddOrder(%d, %d, %d, %v) should succeed", id, price, qty, side)
}
