package repo

import (
	"context"

	"github.com/joripage/matching-engine/pkg/matching"
	"github.com/joripage/matching-engine/pkg/model"
	"github.com/joripage/matching-engine/pkg/orderbook"
)

// OrderStore persists the final state of orders that leave the engine
// without resting.
type OrderStore struct {
	orders IOrder
}

var _ matching.OrderStore = (*OrderStore)(nil)

func NewOrderStore(orders IOrder) *OrderStore {
	return &OrderStore{orders: orders}
}

func (s *OrderStore) Finalize(ctx context.Context, orderID string, remaining int64, status orderbook.Status) error {
	return s.orders.Finalize(ctx, orderID, remaining, model.StatusFromBook(status))
}
