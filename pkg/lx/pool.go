// Package lx implements a fixed-capacity, pool-allocated limit-order
// book and price-time-priority matching engine. It is adapted from the
// teacher's map/heap-based OrderTree (backend/pkg/lx/orderbook.go) to
// integer tick prices and pool-index storage instead of float64 prices
// and pointer-keyed maps, so that order slots are claimed and released
// in O(1) from a fixed capacity N without a heap allocation per order.
package lx

// Side identifies which side of the book an order rests on.
type Side uint8

const (
	Buy Side = iota
	Sell
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

func (s Side) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

// orderSlot is one pool-owned order record. Free slots reuse next as
// the free-list link; live slots use prev/next as the intrusive
// doubly-linked-list pointers within their price level.
type orderSlot struct {
	id         uint64
	price      uint64
	qty        uint32
	side       Side
	prev, next int32
	live       bool
}

const noSlot int32 = -1

// pool is a dense, fixed-capacity array of order slots with an
// intrusive free list threaded through the unused slots' next field.
// Allocation and release are both O(1); the pool never grows.
type pool struct {
	slots     []orderSlot
	freeHead  int32
	freeCount int
}

func newPool(capacity int) *pool {
	slots := make([]orderSlot, capacity)
	for i := range slots {
		if i == len(slots)-1 {
			slots[i].next = noSlot
		} else {
			slots[i].next = int32(i + 1)
		}
	}
	freeHead := noSlot
	if capacity > 0 {
		freeHead = 0
	}
	return &pool{slots: slots, freeHead: freeHead, freeCount: capacity}
}

// alloc claims a free slot and initialises it as a live order. It
// reports false without mutating anything if the pool is exhausted.
func (p *pool) alloc(id, price uint64, qty uint32, side Side) (int32, bool) {
	if p.freeHead == noSlot {
		return noSlot, false
	}
	idx := p.freeHead
	p.freeHead = p.slots[idx].next
	p.freeCount--
	p.slots[idx] = orderSlot{id: id, price: price, qty: qty, side: side, prev: noSlot, next: noSlot, live: true}
	return idx, true
}

// free returns idx to the pool. The caller must have already unlinked
// it from any price-level list and the id index.
func (p *pool) free(idx int32) {
	p.slots[idx].live = false
	p.slots[idx].next = p.freeHead
	p.freeHead = idx
	p.freeCount++
}

func (p *pool) capacity() int  { return len(p.slots) }
func (p *pool) freeSlots() int { return p.freeCount }
func (p *pool) liveCount() int { return len(p.slots) - p.freeCount }
