package recovery

import (
	"context"
	"fmt"

	"github.com/joripage/matching-engine/pkg/logging"
	"github.com/joripage/matching-engine/pkg/matching"
	"github.com/joripage/matching-engine/pkg/orderbook"
	"github.com/joripage/matching-engine/pkg/repo"
	"go.uber.org/zap"
)

// Initializer is the part of the engine a Loader drives.
type Initializer interface {
	Initialize(symbols []matching.SymbolInfo, resting []*orderbook.Order) error
}

// Loader rebuilds in-memory books from persisted orders at startup.
type Loader struct {
	repo   repo.IRepo
	logger *logging.Logger
}

func NewLoader(r repo.IRepo, logger *logging.Logger) *Loader {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Loader{
		repo:   r,
		logger: logger,
	}
}

// Recover loads every symbol and every open or partial limit order and hands
// them to the engine. Rows that cannot rest in a book are skipped and logged.
func (l *Loader) Recover(ctx context.Context, engine Initializer) error {
	rows, err := l.repo.Symbol().List(ctx)
	if err != nil {
		return fmt.Errorf("load symbols: %w", err)
	}
	symbols := make([]matching.SymbolInfo, 0, len(rows))
	tickers := make(map[string]string, len(rows))
	for _, s := range rows {
		symbols = append(symbols, matching.SymbolInfo{
			Symbol:         s.Symbol,
			ID:             s.ID,
			LastTradePrice: s.LastTradePrice,
		})
		tickers[s.ID] = s.Symbol
	}

	orders, err := l.repo.Order().LoadResting(ctx)
	if err != nil {
		return fmt.Errorf("load resting orders: %w", err)
	}

	resting := make([]*orderbook.Order, 0, len(orders))
	for _, row := range orders {
		ticker, ok := tickers[row.SymbolID]
		if !ok {
			l.logger.Warn(ctx, "skip order with unknown symbol",
				zap.String("order_id", row.ID), zap.String("symbol_id", row.SymbolID))
			continue
		}
		o, err := row.ToBook(ticker)
		if err != nil {
			l.logger.Warn(ctx, "skip unreadable order", zap.String("order_id", row.ID), zap.Error(err))
			continue
		}
		if price, _ := o.LimitPrice(); price <= 0 || o.RemainingQty <= 0 || o.RemainingQty > o.OriginalQty {
			l.logger.Warn(ctx, "skip order that cannot rest",
				zap.String("order_id", row.ID),
				zap.Int64("remaining", o.RemainingQty), zap.Int64("quantity", o.OriginalQty))
			continue
		}
		resting = append(resting, o)
	}

	if err := engine.Initialize(symbols, resting); err != nil {
		return fmt.Errorf("initialize engine: %w", err)
	}
	l.logger.Info(ctx, "recovered order books",
		zap.Int("symbols", len(symbols)),
		zap.Int("resting_orders", len(resting)),
		zap.Int("skipped", len(orders)-len(resting)))
	return nil
}
