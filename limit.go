package lob

import (
	"github.com/shopspring/decimal"
)

// Limit aggregates every resting order at one price on one side. It plays
// two structural roles at once: FIFO queue endpoints for its orders
// (intrusive links through the order arena) and AVL node for the side's
// price tree (parent/child links through the limit arena).
type Limit struct {
	Price      decimal.Decimal `json:"price"`
	TotalSize  decimal.Decimal `json:"total_size"` // sum of sizes of linked orders
	OrderCount int64           `json:"order_count"`
	Side       Side            `json:"side"`

	// FIFO endpoints, order-arena handles.
	head int32
	tail int32

	// Tree linkage, limit-arena handles.
	parent int32
	left   int32
	right  int32
	height int32
}

// IsEmpty reports whether no orders remain at this level. An empty level
// never stays in its tree.
func (l *Limit) IsEmpty() bool {
	return l.OrderCount == 0
}

// clone returns a copy of the level with the structural links cleared, so
// callers never see live arena handles.
func (l *Limit) clone() Limit {
	out := *l
	out.head = nullIndex
	out.tail = nullIndex
	out.parent = nullIndex
	out.left = nullIndex
	out.right = nullIndex
	out.height = 0
	return out
}

// limitArena stores price levels in reusable slots addressed by int32
// handles. The free list is threaded through the left link of released
// slots.
type limitArena struct {
	slots []Limit
	free  int32
	live  int
}

func (a *limitArena) alloc(l Limit) int32 {
	a.live++
	if a.free != nullIndex {
		idx := a.free
		a.free = a.slots[idx].left
		a.slots[idx] = l
		return idx
	}
	a.slots = append(a.slots, l)
	return int32(len(a.slots) - 1)
}

func (a *limitArena) release(idx int32) {
	a.slots[idx] = Limit{left: a.free, right: nullIndex, parent: nullIndex, head: nullIndex, tail: nullIndex}
	a.free = idx
	a.live--
}

// at returns the slot for direct field access. The pointer must not be
// held across a call that can alloc: append may move the backing array.
func (a *limitArena) at(idx int32) *Limit {
	return &a.slots[idx]
}

// appendOrder links order oi to the tail of level li's FIFO and updates
// the level's aggregates. Arrival order is what FIFO position means here;
// timestamps are bookkeeping, not ordering.
func (b *OrderBook) appendOrder(li, oi int32) {
	l := b.limits.at(li)
	o := b.orders.at(oi)

	o.limit = li
	o.prev = l.tail
	o.next = nullIndex
	if l.tail != nullIndex {
		b.orders.at(l.tail).next = oi
	} else {
		l.head = oi
	}
	l.tail = oi

	l.TotalSize = l.TotalSize.Add(o.Size)
	l.OrderCount++
}

// unlinkOrder splices order oi out of its level's FIFO and rolls the
// aggregates back. It returns the level handle; the caller decides what
// happens to the level if it is now empty.
func (b *OrderBook) unlinkOrder(oi int32) int32 {
	o := b.orders.at(oi)
	li := o.limit
	l := b.limits.at(li)

	if o.prev != nullIndex {
		b.orders.at(o.prev).next = o.next
	} else {
		l.head = o.next
	}
	if o.next != nullIndex {
		b.orders.at(o.next).prev = o.prev
	} else {
		l.tail = o.prev
	}

	// Clear the links so a recycled slot never carries stale handles.
	o.next = nullIndex
	o.prev = nullIndex
	o.limit = nullIndex

	l.TotalSize = l.TotalSize.Sub(o.Size)
	l.OrderCount--
	return li
}

// resizeOrder changes order oi's size in place, adjusting the level's
// aggregate by the delta. FIFO position is unchanged.
func (b *OrderBook) resizeOrder(oi int32, newSize decimal.Decimal) {
	o := b.orders.at(oi)
	l := b.limits.at(o.limit)

	l.TotalSize = l.TotalSize.Add(newSize.Sub(o.Size))
	o.Size = newSize
	o.EventTime = b.now
}
