package lob

import (
	"github.com/shopspring/decimal"
)

// DepthChange represents one signed change to the aggregate size at a
// price level. A stream of these is enough for a downstream consumer to
// mirror the book's depth without holding the book itself.
type DepthChange struct {
	Side     Side            `json:"side"`
	Price    decimal.Decimal `json:"price"`
	SizeDiff decimal.Decimal `json:"size_diff"`
}

// OpenChange is the depth delta of an order entering the book.
func OpenChange(o Order) DepthChange {
	return DepthChange{
		Side:     o.Side,
		Price:    o.Price,
		SizeDiff: o.Size,
	}
}

// CancelChange is the depth delta of an order leaving the book unfilled.
func CancelChange(o Order) DepthChange {
	return DepthChange{
		Side:     o.Side,
		Price:    o.Price,
		SizeDiff: o.Size.Neg(),
	}
}

// ReduceChange is the depth delta of an in-place size change. The diff is
// new minus old, so both shrinking and growing an order report correctly.
func ReduceChange(o Order, oldSize decimal.Decimal) DepthChange {
	return DepthChange{
		Side:     o.Side,
		Price:    o.Price,
		SizeDiff: o.Size.Sub(oldSize),
	}
}

// TradeChange is the depth delta of a fill. A match consumes liquidity
// from the maker's side, the opposite of the taker's, at the maker's
// resting price.
func TradeChange(t Trade, takerSide Side) DepthChange {
	return DepthChange{
		Side:     takerSide.Opposite(),
		Price:    t.Price,
		SizeDiff: t.Size.Neg(),
	}
}
