package model

import (
	"fmt"
	"time"

	"github.com/joripage/matching-engine/pkg/orderbook"
)

type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

type OrderType string

const (
	OrderTypeLimit  OrderType = "limit"
	OrderTypeMarket OrderType = "market"
)

type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "open"
	OrderStatusPartial   OrderStatus = "partial"
	OrderStatusFilled    OrderStatus = "filled"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type Order struct {
	ID                string      `gorm:"primaryKey;size:64"`
	UserID            string      `gorm:"size:64;index"`
	SymbolID          string      `gorm:"size:64;index"`
	Side              OrderSide   `gorm:"size:8"`
	Type              OrderType   `gorm:"size:8"`
	Price             *int64      // nil for market orders
	Quantity          int64
	RemainingQuantity int64
	Status            OrderStatus `gorm:"size:16;index"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ToBook converts a stored row into an engine order. symbol is the ticker
// the row's SymbolID resolves to.
func (o *Order) ToBook(symbol string) (*orderbook.Order, error) {
	var typ orderbook.OrderType
	switch o.Type {
	case OrderTypeLimit:
		if o.Price == nil {
			return nil, fmt.Errorf("order %s: %w", o.ID, orderbook.ErrInvalidOrderPrice)
		}
		typ = orderbook.Limit{Price: *o.Price}
	case OrderTypeMarket:
		typ = orderbook.Market{}
	default:
		return nil, fmt.Errorf("order %s: unknown type %q", o.ID, o.Type)
	}

	var side orderbook.Side
	switch o.Side {
	case OrderSideBuy:
		side = orderbook.BUY
	case OrderSideSell:
		side = orderbook.SELL
	default:
		return nil, fmt.Errorf("order %s: unknown side %q", o.ID, o.Side)
	}

	return &orderbook.Order{
		ID:           o.ID,
		UserID:       o.UserID,
		Symbol:       symbol,
		SymbolID:     o.SymbolID,
		Side:         side,
		Type:         typ,
		OriginalQty:  o.Quantity,
		RemainingQty: o.RemainingQuantity,
		Status:       StatusToBook(o.Status),
		CreatedAt:    o.CreatedAt,
	}, nil
}

func StatusToBook(s OrderStatus) orderbook.Status {
	switch s {
	case OrderStatusPartial:
		return orderbook.PARTIAL
	case OrderStatusFilled:
		return orderbook.FILLED
	case OrderStatusCancelled:
		return orderbook.CANCELLED
	default:
		return orderbook.OPEN
	}
}

func StatusFromBook(s orderbook.Status) OrderStatus {
	switch s {
	case orderbook.PARTIAL:
		return OrderStatusPartial
	case orderbook.FILLED:
		return OrderStatusFilled
	case orderbook.CANCELLED:
		return OrderStatusCancelled
	default:
		return OrderStatusOpen
	}
}
