package orderbook

import (
	"errors"
	"fmt"
	"testing"
)

func limitOrder(id string, side Side, price, qty int64) *Order {
	return &Order{
		ID: id, UserID: "u1", Symbol: "ABC", Side: side,
		Type: Limit{Price: price}, OriginalQty: qty, RemainingQty: qty, Status: OPEN,
	}
}

func TestBidPricesDescending(t *testing.T) {
	bids := NewBookSide(BUY)
	for i, p := range []int64{100, 105, 95, 103, 105} {
		if err := bids.Insert(limitOrder(fmt.Sprintf("B%d", i), BUY, p, 1)); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	want := []int64{105, 103, 100, 95}
	got := bids.Prices()
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("expected prices %v, got %v", want, got)
	}
	if best, _ := bids.BestPrice(); best != 105 {
		t.Fatalf("expected best bid 105, got %d", best)
	}
	if bids.Len() != 5 || bids.Depth() != 4 {
		t.Fatalf("expected 5 orders on 4 levels, got %d on %d", bids.Len(), bids.Depth())
	}
}

func TestAskPricesAscending(t *testing.T) {
	asks := NewBookSide(SELL)
	for i, p := range []int64{100, 105, 95, 103} {
		if err := asks.Insert(limitOrder(fmt.Sprintf("S%d", i), SELL, p, 1)); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	want := []int64{95, 100, 103, 105}
	if got := asks.Prices(); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("expected prices %v, got %v", want, got)
	}
}

func TestEmptySideHasNoBestPrice(t *testing.T) {
	asks := NewBookSide(SELL)
	if _, ok := asks.BestPrice(); ok {
		t.Fatalf("expected no best price on empty side")
	}
	if _, ok := asks.HeadAt(100); ok {
		t.Fatalf("expected no head on empty side")
	}
}

func TestHeadIsOldestAtLevel(t *testing.T) {
	asks := NewBookSide(SELL)
	a := limitOrder("A", SELL, 100, 5)
	b := limitOrder("B", SELL, 100, 5)
	_ = asks.Insert(a)
	_ = asks.Insert(b)

	head, ok := asks.HeadAt(100)
	if !ok || head.ID != "A" {
		t.Fatalf("expected head A, got %+v", head)
	}

	a.RemainingQty = 0
	if err := asks.RemoveFilledHead(100, "A"); err != nil {
		t.Fatalf("remove head: %v", err)
	}

	head, _ = asks.HeadAt(100)
	if head.ID != "B" {
		t.Fatalf("expected head B after removal, got %s", head.ID)
	}
	if asks.Contains("A") {
		t.Fatalf("A should be removed from the id index")
	}
}

func TestRemoveLastOrderDropsLevel(t *testing.T) {
	bids := NewBookSide(BUY)
	o1 := limitOrder("B1", BUY, 101, 3)
	o2 := limitOrder("B2", BUY, 99, 3)
	_ = bids.Insert(o1)
	_ = bids.Insert(o2)

	o1.RemainingQty = 0
	if err := bids.RemoveFilledHead(101, "B1"); err != nil {
		t.Fatalf("remove head: %v", err)
	}

	if bids.Depth() != 1 {
		t.Fatalf("expected 1 level, got %d", bids.Depth())
	}
	if _, ok := bids.levels[101]; ok {
		t.Fatalf("level 101 should be deleted from the level map")
	}
	if best, _ := bids.BestPrice(); best != 99 {
		t.Fatalf("expected best bid 99, got %d", best)
	}
	if len(bids.levels) != len(bids.prices) {
		t.Fatalf("level map and price slice out of sync: %d vs %d", len(bids.levels), len(bids.prices))
	}
}

func TestRemoveFromMiddleLevel(t *testing.T) {
	asks := NewBookSide(SELL)
	orders := []*Order{
		limitOrder("S1", SELL, 100, 1),
		limitOrder("S2", SELL, 101, 1),
		limitOrder("S3", SELL, 102, 1),
	}
	for _, o := range orders {
		_ = asks.Insert(o)
	}

	orders[1].RemainingQty = 0
	if err := asks.RemoveFilledHead(101, "S2"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got := asks.Prices(); fmt.Sprint(got) != "[100 102]" {
		t.Fatalf("expected [100 102], got %v", got)
	}
}

func TestRemoveFilledHeadInvariants(t *testing.T) {
	asks := NewBookSide(SELL)
	a := limitOrder("A", SELL, 100, 5)
	_ = asks.Insert(a)

	if err := asks.RemoveFilledHead(101, "A"); !errors.Is(err, ErrInvariant) {
		t.Fatalf("expected invariant error for missing level, got %v", err)
	}

	a.RemainingQty = 0
	if err := asks.RemoveFilledHead(100, "X"); !errors.Is(err, ErrInvariant) {
		t.Fatalf("expected invariant error for head mismatch, got %v", err)
	}

	a.RemainingQty = 2
	if err := asks.RemoveFilledHead(100, "A"); !errors.Is(err, ErrInvariant) {
		t.Fatalf("expected invariant error for unfilled head, got %v", err)
	}
	if !asks.Contains("A") {
		t.Fatalf("a rejected removal must leave the order in place")
	}
}

func TestInsertRejectsMarketAndDuplicates(t *testing.T) {
	bids := NewBookSide(BUY)

	market := &Order{ID: "M", Side: BUY, Type: Market{}, OriginalQty: 1, RemainingQty: 1}
	if err := bids.Insert(market); !errors.Is(err, ErrInvalidOrderPrice) {
		t.Fatalf("expected invalid price error, got %v", err)
	}

	o := limitOrder("B1", BUY, 100, 1)
	if err := bids.Insert(o); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := bids.Insert(o); !errors.Is(err, ErrDuplicateOrder) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if bids.Len() != 1 {
		t.Fatalf("expected a single resting order, got %d", bids.Len())
	}
}

func TestLevelsAggregate(t *testing.T) {
	bids := NewBookSide(BUY)
	_ = bids.Insert(limitOrder("B1", BUY, 100, 5))
	_ = bids.Insert(limitOrder("B2", BUY, 100, 7))
	_ = bids.Insert(limitOrder("B3", BUY, 98, 1))

	levels := bids.Levels(1)
	if len(levels) != 1 {
		t.Fatalf("expected 1 level, got %d", len(levels))
	}
	if levels[0] != (LevelView{Price: 100, Quantity: 12, Orders: 2}) {
		t.Fatalf("unexpected level %+v", levels[0])
	}
	if all := bids.Levels(0); len(all) != 2 {
		t.Fatalf("expected all 2 levels, got %d", len(all))
	}
	if bids.Volume() != 13 {
		t.Fatalf("expected volume 13, got %d", bids.Volume())
	}
}

func BenchmarkInsert(b *testing.B) {
	bids := NewBookSide(BUY)
	for i := 0; i < b.N; i++ {
		_ = bids.Insert(limitOrder(fmt.Sprintf("B-%d", i), BUY, int64(10_000+i%500), 10))
	}
}
