package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joripage/matching-engine/pkg/matching"
	"github.com/joripage/matching-engine/pkg/orderbook"
)

const (
	minPrice = 10_000
	maxPrice = 20_000
	minQty   = 1
	maxQty   = 100
)

type noopSettler struct{}

func (noopSettler) Settle(context.Context, matching.Fill) error { return nil }

func randomOrder(rng *rand.Rand, id int, symbol string, marketRatio float64) *orderbook.Order {
	side := orderbook.BUY
	if rng.Intn(2) == 0 {
		side = orderbook.SELL
	}
	qty := int64(rng.Intn(maxQty-minQty+1) + minQty)

	var typ orderbook.OrderType = orderbook.Limit{Price: int64(minPrice + rng.Intn(maxPrice-minPrice+1))}
	if rng.Float64() < marketRatio {
		typ = orderbook.Market{}
	}

	return &orderbook.Order{
		ID:           fmt.Sprintf("ORD-%s-%07d", symbol, id),
		UserID:       "bench",
		Symbol:       symbol,
		Side:         side,
		Type:         typ,
		OriginalQty:  qty,
		RemainingQty: qty,
		Status:       orderbook.OPEN,
		CreatedAt:    time.Now(),
	}
}

func main() {
	numOrders := flag.Int("orders", 1_000_000, "orders per symbol")
	numSymbols := flag.Int("symbols", 4, "number of symbols")
	marketRatio := flag.Float64("market-ratio", 0.1, "share of market orders")
	flag.Parse()

	symbols := make([]matching.SymbolInfo, *numSymbols)
	for i := range symbols {
		symbols[i] = matching.SymbolInfo{Symbol: fmt.Sprintf("SYM%d", i), ID: fmt.Sprintf("%d", i)}
	}

	engine := matching.NewEngine(matching.Config{QueueSize: 4096}, noopSettler{})
	if err := engine.Initialize(symbols, nil); err != nil {
		panic(err)
	}
	ctx := context.Background()
	if err := engine.Start(ctx); err != nil {
		panic(err)
	}
	defer engine.Stop()

	var totalTrades, totalQty, totalErrors int64
	start := time.Now()

	var wg sync.WaitGroup
	for i, s := range symbols {
		wg.Add(1)
		go func(seed int64, symbol string) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for n := 0; n < *numOrders; n++ {
				res, err := engine.MatchOrder(ctx, randomOrder(rng, n+1, symbol, *marketRatio))
				if err != nil {
					atomic.AddInt64(&totalErrors, 1)
					continue
				}
				atomic.AddInt64(&totalTrades, int64(len(res.Trades)))
				atomic.AddInt64(&totalQty, res.MatchedQty())
			}
		}(time.Now().UnixNano()+int64(i), s.Symbol)
	}
	wg.Wait()

	elapsed := time.Since(start)
	total := *numOrders * *numSymbols

	fmt.Println("--------")
	fmt.Printf("Total Orders     : %d\n", total)
	fmt.Printf("Total Trades     : %d\n", totalTrades)
	fmt.Printf("Total Matched Qty: %d\n", totalQty)
	fmt.Printf("Errors           : %d\n", totalErrors)
	fmt.Printf("Time Taken       : %s\n", elapsed)
	fmt.Printf("Throughput       : %.0f orders/s\n", float64(total)/elapsed.Seconds())
}
