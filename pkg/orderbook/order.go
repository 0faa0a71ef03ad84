package orderbook

import (
	"sort"
	"time"
)

type Side string

const (
	BUY  Side = "buy"
	SELL Side = "sell"
)

// Opposite returns the side an order of this side matches against.
func (s Side) Opposite() Side {
	if s == BUY {
		return SELL
	}
	return BUY
}

type Kind string

const (
	LIMIT  Kind = "limit"
	MARKET Kind = "market"
)

// OrderType carries the pricing terms of an order. The only implementations
// are Limit and Market.
type OrderType interface {
	Kind() Kind
	sealed()
}

// Limit orders carry a price in minor currency units and may rest in the book.
type Limit struct {
	Price int64
}

func (Limit) Kind() Kind { return LIMIT }
func (Limit) sealed()    {}

// Market orders sweep available liquidity and never rest.
type Market struct{}

func (Market) Kind() Kind { return MARKET }
func (Market) sealed()    {}

type Status string

const (
	OPEN      Status = "open"
	PARTIAL   Status = "partial"
	FILLED    Status = "filled"
	CANCELLED Status = "cancelled"
)

// StatusOf derives an order status from its quantities and whether the order
// sits (or will sit) in the book.
func StatusOf(remaining, original int64, rests bool) Status {
	switch {
	case remaining == 0:
		return FILLED
	case rests && remaining == original:
		return OPEN
	case rests:
		return PARTIAL
	case remaining < original:
		return PARTIAL
	default:
		return CANCELLED
	}
}

type Order struct {
	ID           string
	UserID       string
	Symbol       string
	SymbolID     string
	Side         Side
	Type         OrderType
	OriginalQty  int64
	RemainingQty int64
	Status       Status
	CreatedAt    time.Time
}

// LimitPrice returns the order price when the order is a limit order.
func (o *Order) LimitPrice() (int64, bool) {
	if l, ok := o.Type.(Limit); ok {
		return l.Price, true
	}
	return 0, false
}

// Filled is the quantity matched so far.
func (o *Order) Filled() int64 {
	return o.OriginalQty - o.RemainingQty
}

// Crosses reports whether the order may trade against a resting order at
// price. Market orders cross any price.
func (o *Order) Crosses(price int64) bool {
	switch t := o.Type.(type) {
	case Market:
		return true
	case Limit:
		if o.Side == BUY {
			return t.Price >= price
		}
		return t.Price <= price
	default:
		return false
	}
}

// SortByCreation orders resting orders oldest first. Orders created at the
// same instant keep their relative order.
func SortByCreation(orders []*Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})
}
