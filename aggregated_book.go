package lob

import (
	"github.com/igrmk/treemap/v2"
	"github.com/shopspring/decimal"
)

// DepthItem is one aggregated price level in a depth view.
type DepthItem struct {
	Price decimal.Decimal `json:"price"`
	Size  decimal.Decimal `json:"size"`
}

// AggregatedBook maintains a simplified view of the order book, tracking
// only price levels and their aggregated sizes. It is meant for
// downstream consumers that mirror depth from a DepthChange stream
// instead of holding the book itself.
type AggregatedBook struct {
	ask *treemap.TreeMap[decimal.Decimal, decimal.Decimal]
	bid *treemap.TreeMap[decimal.Decimal, decimal.Decimal]
}

// NewAggregatedBook creates an AggregatedBook with empty ask and bid sides.
func NewAggregatedBook() *AggregatedBook {
	return &AggregatedBook{
		ask: treemap.NewWithKeyCompare[decimal.Decimal, decimal.Decimal](func(a, b decimal.Decimal) bool {
			return a.LessThan(b)
		}),
		bid: treemap.NewWithKeyCompare[decimal.Decimal, decimal.Decimal](func(a, b decimal.Decimal) bool {
			return a.LessThan(b)
		}),
	}
}

func (ab *AggregatedBook) sideMap(side Side) *treemap.TreeMap[decimal.Decimal, decimal.Decimal] {
	if side == Buy {
		return ab.bid
	}
	return ab.ask
}

// Apply folds one depth change into the view. A level whose size reaches
// zero is dropped entirely, matching the book's rule that empty levels
// never persist.
func (ab *AggregatedBook) Apply(ch DepthChange) {
	if ch.Side != Buy && ch.Side != Sell {
		logger.Warn("depth change with unknown side dropped", "side", int8(ch.Side))
		return
	}

	m := ab.sideMap(ch.Side)
	cur, _ := m.Get(ch.Price)
	next := cur.Add(ch.SizeDiff)
	if next.IsPositive() {
		m.Set(ch.Price, next)
		return
	}
	m.Del(ch.Price)
}

// Depth returns the aggregated size at a price level for the given side,
// zero when the level does not exist.
func (ab *AggregatedBook) Depth(side Side, price decimal.Decimal) decimal.Decimal {
	size, _ := ab.sideMap(side).Get(price)
	return size
}

// Len returns the number of price levels tracked on one side.
func (ab *AggregatedBook) Len(side Side) int {
	return ab.sideMap(side).Len()
}

// Levels returns up to depth levels on one side, best to worst: bids
// from the highest price down, asks from the lowest price up.
func (ab *AggregatedBook) Levels(side Side, depth int) []DepthItem {
	if depth <= 0 {
		return nil
	}

	out := make([]DepthItem, 0, depth)
	m := ab.sideMap(side)

	if side == Buy {
		for it := m.Reverse(); it.Valid() && len(out) < depth; it.Next() {
			out = append(out, DepthItem{Price: it.Key(), Size: it.Value()})
		}
		return out
	}
	for it := m.Iterator(); it.Valid() && len(out) < depth; it.Next() {
		out = append(out, DepthItem{Price: it.Key(), Size: it.Value()})
	}
	return out
}

// Rebuild resets the view and seeds it from the book's current levels.
// Call it once before replaying a DepthChange stream.
func (ab *AggregatedBook) Rebuild(book *OrderBook) {
	ab.bid.Clear()
	ab.ask.Clear()

	for price, size := range book.Levels(Buy, book.TotalLevels(Buy)) {
		ab.bid.Set(price, size)
	}
	for price, size := range book.Levels(Sell, book.TotalLevels(Sell)) {
		ab.ask.Set(price, size)
	}
}
