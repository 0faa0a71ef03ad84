package orderbook

import (
	"fmt"
	"slices"
	"sort"
)

type orderLocation struct {
	price int64
	order *Order
}

// LevelView is an aggregated price level as seen from outside the book.
type LevelView struct {
	Price    int64 `json:"price"`
	Quantity int64 `json:"quantity"`
	Orders   int   `json:"orders"`
}

// BookSide is one side of one symbol's book. Prices are kept sorted best
// first: descending for bids, ascending for asks.
type BookSide struct {
	side   Side
	prices []int64
	levels map[int64]*priceLevel
	index  map[string]orderLocation
}

func NewBookSide(side Side) *BookSide {
	return &BookSide{
		side:   side,
		levels: make(map[int64]*priceLevel),
		index:  make(map[string]orderLocation),
	}
}

func (s *BookSide) Side() Side {
	return s.side
}

// better reports whether price a ranks ahead of price b on this side.
func (s *BookSide) better(a, b int64) bool {
	if s.side == BUY {
		return a > b
	}
	return a < b
}

func (s *BookSide) insertIndex(price int64) int {
	return sort.Search(len(s.prices), func(i int) bool {
		return s.better(price, s.prices[i])
	})
}

func (s *BookSide) BestPrice() (int64, bool) {
	if len(s.prices) == 0 {
		return 0, false
	}
	return s.prices[0], true
}

// Insert appends a limit order to the tail of its price level, creating the
// level when it does not exist yet.
func (s *BookSide) Insert(order *Order) error {
	price, ok := order.LimitPrice()
	if !ok || price <= 0 {
		return fmt.Errorf("%w: order %s", ErrInvalidOrderPrice, order.ID)
	}
	if _, ok := s.index[order.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateOrder, order.ID)
	}

	level, ok := s.levels[price]
	if !ok {
		level = newPriceLevel(price)
		s.levels[price] = level
		s.prices = slices.Insert(s.prices, s.insertIndex(price), price)
	}
	level.push(order)
	s.index[order.ID] = orderLocation{price: price, order: order}
	return nil
}

// HeadAt returns the oldest order at price without removing it.
func (s *BookSide) HeadAt(price int64) (*Order, bool) {
	level, ok := s.levels[price]
	if !ok {
		return nil, false
	}
	head := level.head()
	return head, head != nil
}

// RemoveFilledHead pops the fully filled head order at price. An emptied
// level is dropped from both the level map and the price slice.
func (s *BookSide) RemoveFilledHead(price int64, orderID string) error {
	level, ok := s.levels[price]
	if !ok {
		return fmt.Errorf("%w: no %s level at %d", ErrInvariant, s.side, price)
	}
	head := level.head()
	if head == nil {
		return fmt.Errorf("%w: empty %s level at %d", ErrInvariant, s.side, price)
	}
	if head.ID != orderID {
		return fmt.Errorf("%w: head at %d is %s, expected %s", ErrInvariant, price, head.ID, orderID)
	}
	if head.RemainingQty != 0 {
		return fmt.Errorf("%w: head %s still has %d remaining", ErrInvariant, head.ID, head.RemainingQty)
	}

	level.popHead()
	delete(s.index, orderID)

	if level.len() == 0 {
		delete(s.levels, price)
		i, found := slices.BinarySearchFunc(s.prices, price, s.comparePrices)
		if !found {
			return fmt.Errorf("%w: price %d missing from %s index", ErrInvariant, price, s.side)
		}
		s.prices = slices.Delete(s.prices, i, i+1)
	}
	return nil
}

// comparePrices orders prices the way the price slice is sorted.
func (s *BookSide) comparePrices(a, b int64) int {
	switch {
	case a == b:
		return 0
	case s.better(a, b):
		return -1
	default:
		return 1
	}
}

// Len is the number of resting orders.
func (s *BookSide) Len() int {
	return len(s.index)
}

// Depth is the number of distinct price levels.
func (s *BookSide) Depth() int {
	return len(s.prices)
}

func (s *BookSide) Prices() []int64 {
	return slices.Clone(s.prices)
}

func (s *BookSide) Contains(orderID string) bool {
	_, ok := s.index[orderID]
	return ok
}

// Volume is the total remaining quantity resting on this side.
func (s *BookSide) Volume() int64 {
	var total int64
	for _, level := range s.levels {
		total += level.volume()
	}
	return total
}

// Levels aggregates the best depth levels. depth <= 0 returns every level.
func (s *BookSide) Levels(depth int) []LevelView {
	n := len(s.prices)
	if depth > 0 && depth < n {
		n = depth
	}
	views := make([]LevelView, 0, n)
	for _, price := range s.prices[:n] {
		level := s.levels[price]
		views = append(views, LevelView{
			Price:    price,
			Quantity: level.volume(),
			Orders:   level.len(),
		})
	}
	return views
}
