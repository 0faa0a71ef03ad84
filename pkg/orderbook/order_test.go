package orderbook

import (
	"testing"
	"time"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		name                string
		remaining, original int64
		rests               bool
		want                Status
	}{
		{"filled", 0, 10, true, FILLED},
		{"untouched resting", 10, 10, true, OPEN},
		{"partially filled resting", 4, 10, true, PARTIAL},
		{"market partial", 5, 15, false, PARTIAL},
		{"market unfilled", 15, 15, false, CANCELLED},
		{"market filled", 0, 15, false, FILLED},
	}
	for _, c := range cases {
		if got := StatusOf(c.remaining, c.original, c.rests); got != c.want {
			t.Errorf("%s: expected %s, got %s", c.name, c.want, got)
		}
	}
}

func TestCrosses(t *testing.T) {
	buy := &Order{Side: BUY, Type: Limit{Price: 100}}
	if !buy.Crosses(100) || !buy.Crosses(99) || buy.Crosses(101) {
		t.Fatalf("limit buy at 100 must cross asks at or below 100 only")
	}

	sell := &Order{Side: SELL, Type: Limit{Price: 90}}
	if !sell.Crosses(90) || !sell.Crosses(95) || sell.Crosses(89) {
		t.Fatalf("limit sell at 90 must cross bids at or above 90 only")
	}

	market := &Order{Side: BUY, Type: Market{}}
	if !market.Crosses(1) || !market.Crosses(1_000_000) {
		t.Fatalf("market orders cross any price")
	}
	if _, ok := market.LimitPrice(); ok {
		t.Fatalf("market orders have no limit price")
	}
}

func TestSortByCreationIsStable(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	orders := []*Order{
		{ID: "c", CreatedAt: t0.Add(2 * time.Second)},
		{ID: "a1", CreatedAt: t0},
		{ID: "b", CreatedAt: t0.Add(time.Second)},
		{ID: "a2", CreatedAt: t0},
	}
	SortByCreation(orders)

	want := []string{"a1", "a2", "b", "c"}
	for i, o := range orders {
		if o.ID != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], o.ID)
		}
	}
}
