package lob

import (
	"github.com/shopspring/decimal"
)

// MatchingEngine crosses incoming orders against a book under price-time
// priority. It is stateless and drives the book through its public
// operations only, which keeps matching policy swappable and testable
// apart from the data structure.
type MatchingEngine struct{}

func NewMatchingEngine() *MatchingEngine {
	return &MatchingEngine{}
}

// crosses reports whether an incoming limit price meets the best
// opposing price.
func crosses(side Side, limit, best decimal.Decimal) bool {
	if side == Buy {
		return limit.GreaterThanOrEqual(best)
	}
	return limit.LessThanOrEqual(best)
}

// Match executes an incoming limit order against the book and returns
// the fills it produced, earliest first.
//
// While the incoming order has size left and the best opposing order
// crosses, the FIFO head of the best opposing level is the maker; the
// fill is the smaller remaining size and executes at the maker's resting
// price. A fully filled maker leaves the book, advancing the FIFO or
// tearing the level down. Whatever remains of the incoming order
// afterwards rests via AddOrder, so submitting an id that is already
// resting surfaces ErrDuplicateOrderID at that step.
//
// If the maker at the front is the incoming order's own id, matching
// stops with ErrSelfTrade: the fills already made are returned and the
// remainder is not rested. Skipping the order instead would loop forever
// against the same id.
func (e *MatchingEngine) Match(book *OrderBook, incoming Order) ([]Trade, error) {
	if incoming.Side != Buy && incoming.Side != Sell {
		return nil, ErrInvalidOrder
	}
	if !incoming.Price.IsPositive() || !incoming.Size.IsPositive() {
		return nil, ErrInvalidOrder
	}

	var trades []Trade
	remaining := incoming.Size
	opposite := incoming.Side.Opposite()

	for remaining.IsPositive() {
		maker, ok := book.PeekBestOrder(opposite)
		if !ok || !crosses(incoming.Side, incoming.Price, maker.Price) {
			break
		}
		if maker.ID == incoming.ID {
			return trades, ErrSelfTrade
		}

		fill := decimal.Min(remaining, maker.Size)
		trades = append(trades, Trade{
			MakerID:   maker.ID,
			TakerID:   incoming.ID,
			Price:     maker.Price,
			Size:      fill,
			Timestamp: book.Now(),
		})

		remaining = remaining.Sub(fill)
		if maker.Size.Equal(fill) {
			if _, err := book.RemoveOrder(maker.ID); err != nil {
				return trades, err
			}
		} else {
			if err := book.UpdateOrder(maker.ID, maker.Size.Sub(fill)); err != nil {
				return trades, err
			}
		}
	}

	if remaining.IsPositive() {
		rest := incoming
		rest.Size = remaining
		if err := book.AddOrder(rest); err != nil {
			return trades, err
		}
	}

	return trades, nil
}
