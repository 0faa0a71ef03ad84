package repo

import (
	"context"

	"github.com/joripage/matching-engine/pkg/model"
)

type IOrder interface {
	Create(ctx context.Context, record *model.Order) (*model.Order, error)
	Get(ctx context.Context, id string) (*model.Order, error)
	// LoadResting returns every open or partial limit order, oldest first.
	LoadResting(ctx context.Context) ([]*model.Order, error)
	Finalize(ctx context.Context, id string, remaining int64, status model.OrderStatus) error
	// ListByUser returns one page of the user's orders, newest first, and
	// the user's total order count.
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]*model.Order, int64, error)
	// CommittedSellQuantity sums the remaining quantity of the user's
	// resting sell orders on a symbol.
	CommittedSellQuantity(ctx context.Context, userID, symbolID string) (int64, error)
}

type ISymbol interface {
	List(ctx context.Context) ([]*model.Symbol, error)
	GetBySymbol(ctx context.Context, symbol string) (*model.Symbol, error)
}

type IUser interface {
	Get(ctx context.Context, id string) (*model.User, error)
}

type IHolding interface {
	Get(ctx context.Context, userID, symbolID string) (*model.Holding, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Holding, error)
}

type ITrade interface {
	ListBySymbol(ctx context.Context, symbolID string, limit int) ([]*model.Trade, error)
}
