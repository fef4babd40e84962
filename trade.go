package lob

import (
	"github.com/shopspring/decimal"
)

// Trade records one fill between a resting maker and an incoming taker.
// Trades are handed to the caller in execution order and never retained
// by the engine; publishing or persisting them is the caller's concern.
type Trade struct {
	MakerID   string          `json:"maker_id"`
	TakerID   string          `json:"taker_id"`
	Price     decimal.Decimal `json:"price"`
	Size      decimal.Decimal `json:"size"`
	Timestamp int64           `json:"timestamp"`
}

// Value returns the notional amount of the fill (price times size).
func (t Trade) Value() decimal.Decimal {
	return t.Price.Mul(t.Size)
}
