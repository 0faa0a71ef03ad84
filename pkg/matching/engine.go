package matching

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/joripage/go_util/pkg/shardqueue"
	"github.com/joripage/matching-engine/pkg/logging"
	"github.com/joripage/matching-engine/pkg/metrics"
	"github.com/joripage/matching-engine/pkg/orderbook"
	"go.uber.org/zap"
)

const (
	defaultShards    = 16
	defaultQueueSize = 1024
)

type Config struct {
	// Shards is the number of worker goroutines symbols are hashed onto.
	Shards int
	// QueueSize bounds the number of pending jobs per shard.
	QueueSize int
}

type Option func(*Engine)

func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

func WithOrderStore(s OrderStore) Option {
	return func(e *Engine) { e.store = s }
}

func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Engine owns every order book. Jobs are sharded by symbol, so matching for
// one symbol is serialized end to end, including settlement I/O, while
// symbols on different shards match in parallel.
type Engine struct {
	cfg      Config
	settler  Settler
	notifier Notifier
	store    OrderStore
	logger   *logging.Logger
	now      func() time.Time

	symbols []SymbolInfo
	books   map[string]*orderbook.OrderBook

	mu      sync.Mutex
	started bool
	queue   *shardqueue.Shardqueue
	pending sync.WaitGroup

	stopMu  sync.RWMutex
	stopped bool
	quit    chan struct{}
}

func NewEngine(cfg Config, settler Settler, opts ...Option) *Engine {
	if cfg.Shards <= 0 {
		cfg.Shards = defaultShards
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	e := &Engine{
		cfg:     cfg,
		settler: settler,
		logger:  logging.NewNop(),
		now:     time.Now,
		quit:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Initialize creates one empty book per symbol and replays resting limit
// orders into them oldest first. Replay inserts directly into the book
// sides; resting orders are never matched against each other.
func (e *Engine) Initialize(symbols []SymbolInfo, resting []*orderbook.Order) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.books != nil {
		return errAlreadyInitialized
	}

	books := make(map[string]*orderbook.OrderBook, len(symbols))
	for _, s := range symbols {
		if _, ok := books[s.Symbol]; ok {
			return fmt.Errorf("duplicate symbol %s", s.Symbol)
		}
		book := orderbook.NewOrderBook(s.Symbol, s.ID)
		if s.LastTradePrice > 0 {
			book.SetLastTradePrice(s.LastTradePrice)
		}
		books[s.Symbol] = book
	}

	replay := slices.Clone(resting)
	orderbook.SortByCreation(replay)
	for _, o := range replay {
		book, ok := books[o.Symbol]
		if !ok {
			return fmt.Errorf("%w: %s (order %s)", ErrUnknownSymbol, o.Symbol, o.ID)
		}
		if o.RemainingQty <= 0 || o.RemainingQty > o.OriginalQty {
			return fmt.Errorf("%w: resting order %s has remaining %d of %d", ErrInvalidOrder, o.ID, o.RemainingQty, o.OriginalQty)
		}
		if o.SymbolID == "" {
			o.SymbolID = book.SymbolID
		}
		o.Status = orderbook.StatusOf(o.RemainingQty, o.OriginalQty, true)
		if err := book.Side(o.Side).Insert(o); err != nil {
			return fmt.Errorf("replay order %s: %w", o.ID, err)
		}
	}

	e.symbols = slices.Clone(symbols)
	e.books = books
	for _, book := range books {
		observe(book)
		e.warnIfCrossed(book)
	}

	e.logger.Info(context.Background(), "order books initialized",
		zap.Int("symbols", len(symbols)), zap.Int("resting_orders", len(replay)))
	return nil
}

// warnIfCrossed logs a replayed book whose best bid reaches its best ask.
// Crossed resting orders are never matched against each other.
func (e *Engine) warnIfCrossed(book *orderbook.OrderBook) {
	bid, okBid := book.Bids.BestPrice()
	ask, okAsk := book.Asks.BestPrice()
	if okBid && okAsk && bid >= ask {
		e.logger.Warn(context.Background(), "order book crossed after replay",
			zap.String("symbol", book.Symbol), zap.Int64("best_bid", bid), zap.Int64("best_ask", ask))
	}
}

// Start launches the shard workers. They run until Stop is called or ctx is
// done.
func (e *Engine) Start(ctx context.Context) error {
	e.stopMu.Lock()
	defer e.stopMu.Unlock()
	if e.stopped {
		return ErrEngineStopped
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.books == nil {
		return ErrNotInitialized
	}
	if e.started {
		return errAlreadyStarted
	}
	e.started = true

	e.queue = shardqueue.NewShardQueue(e.cfg.Shards, e.cfg.QueueSize)
	e.queue.Start(e.process)

	go func() {
		select {
		case <-ctx.Done():
			e.shutdown()
		case <-e.quit:
		}
	}()
	return nil
}

// Stop lets the running jobs finish, fails the queued ones with
// ErrEngineStopped and waits until every submitter has been released.
func (e *Engine) Stop() {
	e.shutdown()
	e.pending.Wait()
}

func (e *Engine) shutdown() {
	e.stopMu.Lock()
	defer e.stopMu.Unlock()
	if e.stopped {
		return
	}
	e.stopped = true
	close(e.quit)
	if e.queue != nil {
		e.queue.Stop()
	}
}

func (e *Engine) Symbols() []SymbolInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.symbols)
}

func (e *Engine) lookup(symbol string) (*orderbook.OrderBook, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.books == nil {
		return nil, ErrNotInitialized
	}
	book, ok := e.books[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	if !e.started {
		return nil, ErrNotInitialized
	}
	return book, nil
}

// MatchOrder matches a pre-validated incoming order against its symbol's
// book, settles every fill, and rests or finalizes the remainder. The call
// returns once the whole cycle, including settlement, has finished.
//
// A non-nil result may accompany an error: fills settled before a
// settlement failure stay applied and are reported.
func (e *Engine) MatchOrder(ctx context.Context, in *orderbook.Order) (*MatchResult, error) {
	if err := checkIncoming(in); err != nil {
		return nil, err
	}
	book, err := e.lookup(in.Symbol)
	if err != nil {
		return nil, err
	}
	if in.SymbolID == "" {
		in.SymbolID = book.SymbolID
	}
	metrics.OrdersTotal.WithLabelValues(in.Symbol, string(in.Side), string(in.Type.Kind())).Inc()

	var (
		res      *MatchResult
		matchErr error
	)
	err = e.submit(ctx, book, func(ctx context.Context, book *orderbook.OrderBook) {
		res, matchErr = e.match(ctx, book, in)
	})
	if err != nil {
		return nil, err
	}
	return res, matchErr
}

// Snapshot returns an aggregated view of a symbol's book, taken on the
// symbol's shard between match cycles.
func (e *Engine) Snapshot(ctx context.Context, symbol string, depth int) (orderbook.Snapshot, error) {
	book, err := e.lookup(symbol)
	if err != nil {
		return orderbook.Snapshot{}, err
	}
	var snap orderbook.Snapshot
	err = e.submit(ctx, book, func(_ context.Context, book *orderbook.OrderBook) {
		snap = book.Snapshot(depth)
	})
	if err != nil {
		return orderbook.Snapshot{}, err
	}
	return snap, nil
}

func checkIncoming(in *orderbook.Order) error {
	if in == nil || in.Type == nil {
		return fmt.Errorf("%w: missing order type", ErrInvalidOrder)
	}
	if in.Side != orderbook.BUY && in.Side != orderbook.SELL {
		return fmt.Errorf("%w: side %q", ErrInvalidOrder, in.Side)
	}
	if in.OriginalQty <= 0 || in.RemainingQty <= 0 || in.RemainingQty > in.OriginalQty {
		return fmt.Errorf("%w: quantity %d of %d", ErrInvalidOrder, in.RemainingQty, in.OriginalQty)
	}
	if price, ok := in.LimitPrice(); ok && price <= 0 {
		return fmt.Errorf("%w: order %s", orderbook.ErrInvalidOrderPrice, in.ID)
	}
	return nil
}
