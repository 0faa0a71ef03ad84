package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joripage/matching-engine/pkg/metrics"
	"github.com/joripage/matching-engine/pkg/orderbook"
	"go.uber.org/zap"
)

// match runs one match cycle on the book's shard. Each fill is settled
// before the book is touched, so a failed settlement leaves the book exactly
// as durable as the store.
func (e *Engine) match(ctx context.Context, book *orderbook.OrderBook, in *orderbook.Order) (*MatchResult, error) {
	start := time.Now()
	defer func() {
		metrics.MatchDuration.WithLabelValues(book.Symbol).Observe(time.Since(start).Seconds())
	}()

	res := &MatchResult{
		OrderID:     in.ID,
		Symbol:      book.Symbol,
		OriginalQty: in.OriginalQty,
	}
	target := book.Opposite(in.Side)

	var matchErr error
	for in.RemainingQty > 0 {
		price, ok := target.BestPrice()
		if !ok || !in.Crosses(price) {
			break
		}

		resting, ok := target.HeadAt(price)
		if !ok || resting.RemainingQty <= 0 {
			matchErr = fmt.Errorf("%w: no live head at %s price %d", orderbook.ErrInvariant, target.Side(), price)
			break
		}

		qty := min(in.RemainingQty, resting.RemainingQty)
		fill := e.newFill(book, in, resting, qty, price)
		if err := e.settler.Settle(ctx, fill); err != nil {
			metrics.SettlementFailures.WithLabelValues(book.Symbol).Inc()
			matchErr = fmt.Errorf("%w: %w", ErrSettlementFailed, err)
			break
		}

		in.RemainingQty -= qty
		resting.RemainingQty -= qty
		in.Status = settledStatus(in)
		resting.Status = settledStatus(resting)
		book.SetLastTradePrice(price)

		trade := Trade{
			BuyOrderID:  fill.Buy.OrderID,
			SellOrderID: fill.Sell.OrderID,
			Symbol:      book.Symbol,
			Price:       price,
			Quantity:    qty,
			Timestamp:   fill.Timestamp,
		}
		res.Trades = append(res.Trades, trade)
		metrics.TradesTotal.WithLabelValues(book.Symbol).Inc()
		metrics.TradedQuantity.WithLabelValues(book.Symbol).Add(float64(qty))
		e.publish(ctx, trade)

		if resting.RemainingQty == 0 {
			if err := target.RemoveFilledHead(price, resting.ID); err != nil {
				matchErr = err
				break
			}
		}
	}

	if matchErr != nil {
		// the remainder is neither rested nor finalized: the order stays in
		// the state its last settled fill committed
		msg := "settlement failed, stopping match"
		if errors.Is(matchErr, orderbook.ErrInvariant) {
			msg = "match cycle aborted"
		}
		e.logger.Error(ctx, msg,
			zap.String("symbol", book.Symbol), zap.String("order_id", in.ID),
			zap.String("status", string(in.Status)), zap.Int64("remaining", in.RemainingQty), zap.Error(matchErr))
		res.Status = in.Status
		res.RemainingQty = in.RemainingQty
		return res, matchErr
	}

	return res, e.dispose(ctx, book, in, res)
}

// dispose rests a limit remainder or closes out a market order. Market orders
// are immediate-or-cancel and never rest.
func (e *Engine) dispose(ctx context.Context, book *orderbook.OrderBook, in *orderbook.Order, res *MatchResult) error {
	var err error

	switch in.Type.(type) {
	case orderbook.Limit:
		if in.RemainingQty > 0 {
			if err = book.Side(in.Side).Insert(in); err != nil {
				e.logger.Error(ctx, "rest remainder failed",
					zap.String("symbol", book.Symbol), zap.String("order_id", in.ID), zap.Error(err))
			} else {
				res.Rested = true
			}
		}
		in.Status = orderbook.StatusOf(in.RemainingQty, in.OriginalQty, res.Rested)
	case orderbook.Market:
		in.Status = orderbook.StatusOf(in.RemainingQty, in.OriginalQty, false)
		if in.RemainingQty > 0 {
			err = e.finalize(ctx, in)
		}
	}

	res.Status = in.Status
	res.RemainingQty = in.RemainingQty
	return err
}

// finalize persists the state of an order that leaves the engine without
// resting. Fully filled orders were already written by settlement.
func (e *Engine) finalize(ctx context.Context, in *orderbook.Order) error {
	if e.store == nil {
		return nil
	}
	err := e.store.Finalize(ctx, in.ID, in.RemainingQty, in.Status)
	if err != nil {
		e.logger.Error(ctx, "finalize order failed",
			zap.String("order_id", in.ID), zap.String("status", string(in.Status)), zap.Error(err))
	}
	return err
}

func (e *Engine) newFill(book *orderbook.OrderBook, in, resting *orderbook.Order, qty, price int64) Fill {
	buy, sell := in, resting
	if in.Side == orderbook.SELL {
		buy, sell = resting, in
	}
	return Fill{
		Symbol:    book.Symbol,
		SymbolID:  book.SymbolID,
		Buy:       fillSide(buy, qty),
		Sell:      fillSide(sell, qty),
		Quantity:  qty,
		Price:     price,
		Timestamp: e.now(),
	}
}

func fillSide(o *orderbook.Order, qty int64) FillSide {
	remaining := o.RemainingQty - qty
	return FillSide{
		OrderID:   o.ID,
		UserID:    o.UserID,
		Remaining: remaining,
		Status:    orderbook.StatusOf(remaining, o.OriginalQty, true),
	}
}

// settledStatus is the status written by settlement: partial until filled.
func settledStatus(o *orderbook.Order) orderbook.Status {
	return orderbook.StatusOf(o.RemainingQty, o.OriginalQty, true)
}

func (e *Engine) publish(ctx context.Context, t Trade) {
	if e.notifier == nil {
		return
	}
	update := PriceUpdate{
		Symbol:    t.Symbol,
		Price:     t.Price,
		Quantity:  t.Quantity,
		Timestamp: t.Timestamp.UnixMilli(),
	}
	if err := e.notifier.PublishPrice(ctx, update); err != nil {
		e.logger.Warn(ctx, "publish price update failed",
			zap.String("symbol", t.Symbol), zap.Int64("price", t.Price), zap.Error(err))
	}
}
