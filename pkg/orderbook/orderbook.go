package orderbook

// OrderBook pairs the bid and ask sides of one symbol.
type OrderBook struct {
	Symbol   string
	SymbolID string

	Bids *BookSide
	Asks *BookSide

	lastTradePrice int64
	traded         bool
}

// Snapshot is an aggregated (L2) view of a book.
type Snapshot struct {
	Symbol         string      `json:"symbol"`
	Bids           []LevelView `json:"bids"`
	Asks           []LevelView `json:"asks"`
	LastTradePrice *int64      `json:"last_trade_price,omitempty"`
}

func NewOrderBook(symbol, symbolID string) *OrderBook {
	return &OrderBook{
		Symbol:   symbol,
		SymbolID: symbolID,
		Bids:     NewBookSide(BUY),
		Asks:     NewBookSide(SELL),
	}
}

// Side returns the side an order of the given side rests on.
func (ob *OrderBook) Side(side Side) *BookSide {
	if side == BUY {
		return ob.Bids
	}
	return ob.Asks
}

// Opposite returns the side an order of the given side matches against.
func (ob *OrderBook) Opposite(side Side) *BookSide {
	return ob.Side(side.Opposite())
}

func (ob *OrderBook) SetLastTradePrice(price int64) {
	ob.lastTradePrice = price
	ob.traded = true
}

func (ob *OrderBook) LastTradePrice() (int64, bool) {
	return ob.lastTradePrice, ob.traded
}

func (ob *OrderBook) Snapshot(depth int) Snapshot {
	snap := Snapshot{
		Symbol: ob.Symbol,
		Bids:   ob.Bids.Levels(depth),
		Asks:   ob.Asks.Levels(depth),
	}
	if price, ok := ob.LastTradePrice(); ok {
		snap.LastTradePrice = &price
	}
	return snap
}
