package lob

import (
	"github.com/shopspring/decimal"
)

// Order represents the state of a single resting or in-flight order.
// Orders are owned by the book's order arena; the FIFO neighbors and the
// owning price level refer to them through int32 handles rather than
// pointers, so arena growth never invalidates a relationship.
type Order struct {
	ID        string          `json:"id"`
	Side      Side            `json:"side"`
	Price     decimal.Decimal `json:"price"`
	Size      decimal.Decimal `json:"size"`
	EntryTime int64           `json:"entry_time"` // set once when the order enters the book
	EventTime int64           `json:"event_time"` // refreshed on every fill or size change

	// Intrusive FIFO links and the owning level, all arena handles.
	next  int32
	prev  int32
	limit int32
}

// NewOrder builds an order ready for submission. Price and size must both
// be positive and the side must be Buy or Sell.
func NewOrder(id string, side Side, price, size decimal.Decimal) (Order, error) {
	if side != Buy && side != Sell {
		return Order{}, ErrInvalidOrder
	}
	if !price.IsPositive() || !size.IsPositive() {
		return Order{}, ErrInvalidOrder
	}

	return Order{
		ID:    id,
		Side:  side,
		Price: price,
		Size:  size,
		next:  nullIndex,
		prev:  nullIndex,
		limit: nullIndex,
	}, nil
}

// clone returns a copy of the order with the intrusive links cleared.
// Every public operation that hands an order out goes through this, so
// callers never see live arena handles.
func (o *Order) clone() Order {
	out := *o
	out.next = nullIndex
	out.prev = nullIndex
	out.limit = nullIndex
	return out
}

// orderArena stores orders in reusable slots addressed by int32 handles.
// The free list is threaded through the next link of released slots.
type orderArena struct {
	slots []Order
	free  int32
	live  int
}

// alloc places o into a recycled or appended slot and returns its handle.
func (a *orderArena) alloc(o Order) int32 {
	a.live++
	if a.free != nullIndex {
		idx := a.free
		a.free = a.slots[idx].next
		a.slots[idx] = o
		return idx
	}
	a.slots = append(a.slots, o)
	return int32(len(a.slots) - 1)
}

// release returns a slot to the free list. The caller must have unlinked
// the order from its level's FIFO and the id map first.
func (a *orderArena) release(idx int32) {
	a.slots[idx] = Order{next: a.free, prev: nullIndex, limit: nullIndex}
	a.free = idx
	a.live--
}

// at returns the slot for direct field access. The pointer must not be
// held across a call that can alloc: append may move the backing array.
func (a *orderArena) at(idx int32) *Order {
	return &a.slots[idx]
}

func (a *orderArena) len() int {
	return a.live
}
