package riskrule

import (
	"context"
	"errors"
	"fmt"

	"github.com/joripage/matching-engine/pkg/model"
	"github.com/joripage/matching-engine/pkg/repo"
)

// HoldingsRule rejects sells larger than the seller's position less what the
// seller's resting sell orders already commit. Bots are exempt.
type HoldingsRule struct {
	holdings repo.IHolding
	orders   repo.IOrder
}

func NewHoldingsRule(holdings repo.IHolding, orders repo.IOrder) *HoldingsRule {
	return &HoldingsRule{holdings: holdings, orders: orders}
}

func (r *HoldingsRule) Check(ctx context.Context, order *Order) error {
	if order.Side != model.OrderSideSell || order.User.IsBot() {
		return nil
	}
	var held int64
	h, err := r.holdings.Get(ctx, order.User.ID, order.Symbol.ID)
	switch {
	case errors.Is(err, repo.ErrNotFound):
	case err != nil:
		return err
	default:
		held = h.Quantity
	}
	committed, err := r.orders.CommittedSellQuantity(ctx, order.User.ID, order.Symbol.ID)
	if err != nil {
		return err
	}
	if available := held - committed; order.Quantity > available {
		return fmt.Errorf("%w: selling %d, holding %d, %d on resting sells",
			ErrInsufficientHoldings, order.Quantity, held, committed)
	}
	return nil
}
