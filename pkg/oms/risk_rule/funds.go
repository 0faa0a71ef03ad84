package riskrule

import (
	"context"
	"fmt"

	"github.com/joripage/matching-engine/pkg/model"
)

// FundsRule rejects buys that cost more than the buyer's wallet holds. Bots
// are exempt.
type FundsRule struct{}

func (FundsRule) Check(_ context.Context, order *Order) error {
	if order.Side != model.OrderSideBuy || order.User.IsBot() {
		return nil
	}
	price := order.ReferencePrice()
	if price <= 0 {
		return ErrNoReferencePrice
	}
	cost := price * order.Quantity
	if cost > order.User.WalletBalance {
		return fmt.Errorf("%w: need %d, have %d", ErrInsufficientFunds, cost, order.User.WalletBalance)
	}
	return nil
}
