package matching

import (
	"context"
	"fmt"

	"github.com/joripage/matching-engine/pkg/metrics"
	"github.com/joripage/matching-engine/pkg/orderbook"
)

// job is one unit of work on a book. The submitter blocks on done until the
// shard worker has run or skipped it.
type job struct {
	ctx  context.Context
	book *orderbook.OrderBook
	run  func(ctx context.Context, book *orderbook.OrderBook)
	err  error
	done chan struct{}
}

// process is the shard queue handler. Jobs are routed by symbol, so every
// job of one book runs on the same shard goroutine in submission order.
func (e *Engine) process(msg interface{}) error {
	j, ok := msg.(*job)
	if !ok {
		return fmt.Errorf("unexpected shard message %T", msg)
	}
	defer e.pending.Done()
	defer close(j.done)

	select {
	case <-e.quit:
		j.err = ErrEngineStopped
		return nil
	default:
	}
	// a caller that gave up before its turn does not get matched
	if err := j.ctx.Err(); err != nil {
		j.err = err
		return nil
	}

	j.run(context.WithoutCancel(j.ctx), j.book)
	observe(j.book)
	return nil
}

// submit queues fn on the book's shard and waits for it to finish. Once a
// job has started it runs to completion even if ctx is cancelled meanwhile.
func (e *Engine) submit(ctx context.Context, book *orderbook.OrderBook, fn func(context.Context, *orderbook.OrderBook)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	j := &job{ctx: ctx, book: book, run: fn, done: make(chan struct{})}

	e.stopMu.RLock()
	if e.stopped {
		e.stopMu.RUnlock()
		return ErrEngineStopped
	}
	e.pending.Add(1)
	e.queue.Shard(book.Symbol, j)
	e.stopMu.RUnlock()

	<-j.done
	return j.err
}

func observe(book *orderbook.OrderBook) {
	symbol := book.Symbol
	metrics.BookDepth.WithLabelValues(symbol, string(orderbook.BUY)).Set(float64(book.Bids.Depth()))
	metrics.BookDepth.WithLabelValues(symbol, string(orderbook.SELL)).Set(float64(book.Asks.Depth()))
	metrics.RestingOrders.WithLabelValues(symbol, string(orderbook.BUY)).Set(float64(book.Bids.Len()))
	metrics.RestingOrders.WithLabelValues(symbol, string(orderbook.SELL)).Set(float64(book.Asks.Len()))
}
