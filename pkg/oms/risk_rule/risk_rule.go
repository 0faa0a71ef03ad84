package riskrule

import (
	"context"
	"errors"

	"github.com/joripage/matching-engine/pkg/model"
)

var (
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientHoldings = errors.New("insufficient holdings")
	ErrInvalidTickSize      = errors.New("invalid tick size")
	ErrNoReferencePrice     = errors.New("no reference price for market order")
)

// Order is what a rule sees of an order about to be placed.
type Order struct {
	User     *model.User
	Symbol   *model.Symbol
	Side     model.OrderSide
	Type     model.OrderType
	Price    *int64
	Quantity int64
}

// ReferencePrice is the limit price, or the last trade price for a market
// order.
func (o *Order) ReferencePrice() int64 {
	if o.Price != nil {
		return *o.Price
	}
	return o.Symbol.LastTradePrice
}

type RiskRule interface {
	Check(ctx context.Context, order *Order) error
}
