package matching

import (
	"context"
	"time"

	"github.com/joripage/matching-engine/pkg/orderbook"
)

// SymbolInfo names a tradable symbol and its key in the store.
type SymbolInfo struct {
	Symbol         string
	ID             string
	LastTradePrice int64
}

// FillSide is one participant of a fill, with its remaining quantity after
// the fill is applied.
type FillSide struct {
	OrderID   string
	UserID    string
	Remaining int64
	Status    orderbook.Status
}

// Fill is one matched quantity between a buy and a sell order.
type Fill struct {
	Symbol    string
	SymbolID  string
	Buy       FillSide
	Sell      FillSide
	Quantity  int64
	Price     int64
	Timestamp time.Time
}

// TradedValue is quantity times price in minor currency units.
func (f Fill) TradedValue() int64 {
	return f.Quantity * f.Price
}

type Trade struct {
	BuyOrderID  string    `json:"buy_order_id"`
	SellOrderID string    `json:"sell_order_id"`
	Symbol      string    `json:"symbol"`
	Price       int64     `json:"price"`
	Quantity    int64     `json:"quantity"`
	Timestamp   time.Time `json:"timestamp"`
}

// PriceUpdate is emitted once per trade for live price streaming.
type PriceUpdate struct {
	Symbol    string `json:"symbol"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
	Timestamp int64  `json:"timestamp"`
}

// MatchResult reports what one MatchOrder call did to the incoming order.
type MatchResult struct {
	OrderID      string           `json:"order_id"`
	Symbol       string           `json:"symbol"`
	Status       orderbook.Status `json:"status"`
	OriginalQty  int64            `json:"original_quantity"`
	RemainingQty int64            `json:"remaining_quantity"`
	Rested       bool             `json:"rested"`
	Trades       []Trade          `json:"trades"`
}

// MatchedQty sums the quantity of every trade in the result.
func (r *MatchResult) MatchedQty() int64 {
	var total int64
	for _, t := range r.Trades {
		total += t.Quantity
	}
	return total
}

// Settler applies one fill to the durable store atomically.
type Settler interface {
	Settle(ctx context.Context, fill Fill) error
}

// Notifier receives a price update for every settled trade.
type Notifier interface {
	PublishPrice(ctx context.Context, update PriceUpdate) error
}

// OrderStore persists the final state of orders that end without resting.
type OrderStore interface {
	Finalize(ctx context.Context, orderID string, remaining int64, status orderbook.Status) error
}

// Notifiers fans a price update out to several notifiers and returns the
// first error.
type Notifiers []Notifier

func (ns Notifiers) PublishPrice(ctx context.Context, update PriceUpdate) error {
	var first error
	for _, n := range ns {
		if err := n.PublishPrice(ctx, update); err != nil && first == nil {
			first = err
		}
	}
	return first
}
