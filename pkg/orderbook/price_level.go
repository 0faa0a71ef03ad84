package orderbook

import "github.com/gammazero/deque"

// priceLevel holds the orders resting at one exact price, oldest at the front.
type priceLevel struct {
	price  int64
	orders deque.Deque[*Order]
}

func newPriceLevel(price int64) *priceLevel {
	return &priceLevel{price: price}
}

func (l *priceLevel) push(order *Order) {
	l.orders.PushBack(order)
}

func (l *priceLevel) head() *Order {
	if l.orders.Len() == 0 {
		return nil
	}
	return l.orders.Front()
}

func (l *priceLevel) popHead() *Order {
	return l.orders.PopFront()
}

func (l *priceLevel) len() int {
	return l.orders.Len()
}

// volume sums the remaining quantity of every order at this level.
func (l *priceLevel) volume() int64 {
	var total int64
	for i := 0; i < l.orders.Len(); i++ {
		total += l.orders.At(i).RemainingQty
	}
	return total
}
