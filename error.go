package lob

import "errors"

var (
	ErrInvalidOrder     = errors.New("order price and size must be positive")
	ErrDuplicateOrderID = errors.New("order id already exists in the book")
	ErrOrderNotFound    = errors.New("order not found")
	ErrSelfTrade        = errors.New("order would trade against itself")
)
