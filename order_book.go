package lob

import (
	"iter"

	"github.com/shopspring/decimal"
)

// OrderBook owns the resting-order state for one instrument: the order
// and limit arenas, the id index, one AVL price tree per side, and the
// cached best level of each side. It exposes pure data operations only;
// crossing logic lives in MatchingEngine.
//
// The book performs no locking. All access must be serialized by the
// caller, typically by confining one book to one goroutine. Every
// operation either completes fully or returns an error without leaving a
// partial mutation behind.
type OrderBook struct {
	orders orderArena
	limits limitArena
	ids    map[string]int32

	bids priceLevelTree
	asks priceLevelTree

	// Cached best level per side, maintained incrementally and recomputed
	// by an extremal walk only when the cached level is removed.
	bestBid int32
	bestAsk int32

	now int64
}

// Option configures an OrderBook at construction.
type Option func(*OrderBook)

// WithOrderCapacity pre-sizes the order arena for n resting orders.
func WithOrderCapacity(n int) Option {
	return func(b *OrderBook) {
		if n > 0 {
			b.orders.slots = make([]Order, 0, n)
		}
	}
}

// WithLimitCapacity pre-sizes the limit arena for n price levels.
func WithLimitCapacity(n int) Option {
	return func(b *OrderBook) {
		if n > 0 {
			b.limits.slots = make([]Limit, 0, n)
		}
	}
}

// NewOrderBook creates an empty book with its clock at zero.
func NewOrderBook(opts ...Option) *OrderBook {
	b := &OrderBook{
		ids:     make(map[string]int32),
		bestBid: nullIndex,
		bestAsk: nullIndex,
	}
	b.orders.free = nullIndex
	b.limits.free = nullIndex
	b.bids = newPriceLevelTree(&b.limits, Buy)
	b.asks = newPriceLevelTree(&b.limits, Sell)

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// SetTime sets the timestamp stamped into EntryTime/EventTime by
// subsequent mutations. Monotonic non-decrease is the caller's
// responsibility; the book never reads a wall clock.
func (b *OrderBook) SetTime(t int64) {
	b.now = t
}

// Now returns the book's current timestamp.
func (b *OrderBook) Now() int64 {
	return b.now
}

func (b *OrderBook) tree(side Side) *priceLevelTree {
	if side == Buy {
		return &b.bids
	}
	return &b.asks
}

func (b *OrderBook) bestHandle(side Side) *int32 {
	if side == Buy {
		return &b.bestBid
	}
	return &b.bestAsk
}

// moreExtreme reports whether price beats best from side's point of view.
func moreExtreme(side Side, price, best decimal.Decimal) bool {
	if side == Buy {
		return price.GreaterThan(best)
	}
	return price.LessThan(best)
}

// AddOrder places a new resting order. The book stamps EntryTime and
// EventTime from its own clock; a caller-supplied entry time is
// overwritten.
func (b *OrderBook) AddOrder(o Order) error {
	if o.Side != Buy && o.Side != Sell {
		return ErrInvalidOrder
	}
	if !o.Price.IsPositive() || !o.Size.IsPositive() {
		return ErrInvalidOrder
	}
	if _, ok := b.ids[o.ID]; ok {
		return ErrDuplicateOrderID
	}

	o.EntryTime = b.now
	o.EventTime = b.now
	o.next = nullIndex
	o.prev = nullIndex
	o.limit = nullIndex

	oi := b.orders.alloc(o)
	li, _ := b.tree(o.Side).findOrCreate(o.Price)
	b.appendOrder(li, oi)
	b.ids[o.ID] = oi

	best := b.bestHandle(o.Side)
	if *best == nullIndex || moreExtreme(o.Side, o.Price, b.limits.at(*best).Price) {
		*best = li
	}

	return nil
}

// RemoveOrder cancels the resting order with the given id and returns its
// final state. If its level empties, the level leaves the tree; if that
// level was the cached best, the cache is recomputed by an extremal walk.
func (b *OrderBook) RemoveOrder(id string) (Order, error) {
	oi, ok := b.ids[id]
	if !ok {
		return Order{}, ErrOrderNotFound
	}

	out := b.orders.at(oi).clone()
	out.EventTime = b.now

	li := b.unlinkOrder(oi)
	delete(b.ids, id)
	b.orders.release(oi)

	if b.limits.at(li).IsEmpty() {
		t := b.tree(out.Side)
		best := b.bestHandle(out.Side)
		wasBest := li == *best
		t.remove(b.limits.at(li).Price)
		if wasBest {
			*best = t.first()
		}
	}

	return out, nil
}

// UpdateOrder changes a resting order's size in place. The order keeps
// its FIFO position and its price; changing price requires cancel plus
// re-add. A newSize of zero behaves exactly as RemoveOrder.
func (b *OrderBook) UpdateOrder(id string, newSize decimal.Decimal) error {
	oi, ok := b.ids[id]
	if !ok {
		return ErrOrderNotFound
	}
	if newSize.IsZero() {
		_, err := b.RemoveOrder(id)
		return err
	}
	if newSize.IsNegative() {
		return ErrInvalidOrder
	}

	b.resizeOrder(oi, newSize)
	return nil
}

// ProcessOrder is the single smart entry point over the data operations:
// an unseen id with positive size adds, a seen id with positive size
// updates in place, a seen id with zero size removes, and an unseen id
// with zero size is a no-op. The submitted price never amends a resting
// order.
func (b *OrderBook) ProcessOrder(o Order) error {
	if _, ok := b.ids[o.ID]; ok {
		return b.UpdateOrder(o.ID, o.Size)
	}
	if o.Size.IsZero() {
		return nil
	}
	return b.AddOrder(o)
}

// BestBid returns the highest bid level, comma-ok style.
func (b *OrderBook) BestBid() (Limit, bool) {
	if b.bestBid == nullIndex {
		return Limit{}, false
	}
	return b.limits.at(b.bestBid).clone(), true
}

// BestAsk returns the lowest ask level, comma-ok style.
func (b *OrderBook) BestAsk() (Limit, bool) {
	if b.bestAsk == nullIndex {
		return Limit{}, false
	}
	return b.limits.at(b.bestAsk).clone(), true
}

// PeekBestOrder returns the order at the front of the best level on the
// given side: the next maker under price-time priority.
func (b *OrderBook) PeekBestOrder(side Side) (Order, bool) {
	best := *b.bestHandle(side)
	if best == nullIndex {
		return Order{}, false
	}
	return b.orders.at(b.limits.at(best).head).clone(), true
}

// Spread returns best ask minus best bid, floored at zero if raw data
// operations have crossed the book. Reports false if either side is
// empty.
func (b *OrderBook) Spread() (decimal.Decimal, bool) {
	ask, okAsk := b.BestAsk()
	bid, okBid := b.BestBid()
	if !okAsk || !okBid {
		return decimal.Zero, false
	}

	s := ask.Price.Sub(bid.Price)
	if s.IsNegative() {
		return decimal.Zero, true
	}
	return s, true
}

// MidPrice returns the midpoint of best bid and best ask. Reports false
// if either side is empty.
func (b *OrderBook) MidPrice() (decimal.Decimal, bool) {
	ask, okAsk := b.BestAsk()
	bid, okBid := b.BestBid()
	if !okAsk || !okBid {
		return decimal.Zero, false
	}
	return bid.Price.Add(ask.Price).Div(decimal.NewFromInt(2)), true
}

// Levels yields up to depth (price, total size) pairs on one side, best
// to worst, walking the tree one successor step per pair from the cached
// best. The walk is lazy and restartable and costs O(depth), not
// O(levels). Mutating the book while ranging is undefined.
func (b *OrderBook) Levels(side Side, depth int) iter.Seq2[decimal.Decimal, decimal.Decimal] {
	return func(yield func(decimal.Decimal, decimal.Decimal) bool) {
		t := b.tree(side)
		h := *b.bestHandle(side)
		for i := 0; i < depth && h != nullIndex; i++ {
			price, size := t.at(h).Price, t.at(h).TotalSize
			if !yield(price, size) {
				return
			}
			h = t.next(h)
		}
	}
}

// VolumeAtPrice returns the aggregate resting size at a price on one
// side, zero (not an error) when no such level exists.
func (b *OrderBook) VolumeAtPrice(side Side, price decimal.Decimal) decimal.Decimal {
	h := b.tree(side).find(price)
	if h == nullIndex {
		return decimal.Zero
	}
	return b.limits.at(h).TotalSize
}

// OrdersAtPrice returns the number of resting orders at a price on one
// side, zero when no such level exists.
func (b *OrderBook) OrdersAtPrice(side Side, price decimal.Decimal) int64 {
	h := b.tree(side).find(price)
	if h == nullIndex {
		return 0
	}
	return b.limits.at(h).OrderCount
}

// Contains reports whether an order with the given id is resting.
func (b *OrderBook) Contains(id string) bool {
	_, ok := b.ids[id]
	return ok
}

// GetOrder returns a copy of the resting order with the given id.
func (b *OrderBook) GetOrder(id string) (Order, bool) {
	oi, ok := b.ids[id]
	if !ok {
		return Order{}, false
	}
	return b.orders.at(oi).clone(), true
}

// TotalOrders returns the number of resting orders across both sides.
func (b *OrderBook) TotalOrders() int {
	return len(b.ids)
}

// TotalLevels returns the number of price levels on one side.
func (b *OrderBook) TotalLevels(side Side) int {
	return b.tree(side).len()
}

// Snapshot returns every resting order on one side in match priority:
// best price first, FIFO order within a level. The slice holds copies.
func (b *OrderBook) Snapshot(side Side) []Order {
	out := make([]Order, 0, b.orders.len())
	t := b.tree(side)
	for h := *b.bestHandle(side); h != nullIndex; h = t.next(h) {
		for oi := t.at(h).head; oi != nullIndex; oi = b.orders.at(oi).next {
			out = append(out, b.orders.at(oi).clone())
		}
	}
	return out
}
