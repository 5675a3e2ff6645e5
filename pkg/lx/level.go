package lx

// priceLevel is an insertion-ordered doubly linked list of live orders
// at one price, threaded through the owning pool's orderSlot.prev/next
// fields — no separate node allocation. head/tail are pool slot
// indices, or noSlot when the level is empty (which the ladder removes
// immediately, per invariant 3).
type priceLevel struct {
	price        uint64
	aggregateQty uint64
	head, tail   int32
}

// levelAppend appends idx's order to the tail of lvl's list and adds
// its quantity to the aggregate, preserving FIFO time priority.
func levelAppend(p *pool, lvl *priceLevel, idx int32) {
	o := &p.slots[idx]
	o.prev = lvl.tail
	o.next = noSlot
	if lvl.tail != noSlot {
		p.slots[lvl.tail].next = idx
	} else {
		lvl.head = idx
	}
	lvl.tail = idx
	lvl.aggregateQty += uint64(o.qty)
}

// levelRemove unlinks idx's order from lvl's list and subtracts its
// current quantity from the aggregate. It does not free the slot or
// remove an emptied level from its ladder — callers do that.
func levelRemove(p *pool, lvl *priceLevel, idx int32) {
	o := &p.slots[idx]
	if o.prev != noSlot {
		p.slots[o.prev].next = o.next
	} else {
		lvl.head = o.next
	}
	if o.next != noSlot {
		p.slots[o.next].prev = o.prev
	} else {
		lvl.tail = o.prev
	}
	lvl.aggregateQty -= uint64(o.qty)
}
