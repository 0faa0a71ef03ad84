package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	redis_wrapper "github.com/joripage/matching-engine/pkg/infra/redis"
	"github.com/joripage/matching-engine/pkg/marketdata"
	"github.com/joripage/matching-engine/pkg/matching"
)

func main() {
	url := flag.String("redis-url", "redis://localhost:6379/0", "Redis connection URL")
	totalOps := flag.Int("ops", 100_000, "price updates to publish")
	workers := flag.Int("workers", 10, "concurrent publishers")
	symbols := flag.Int("symbols", 4, "number of symbols")
	flag.Parse()

	ctx := context.Background()
	client, err := redis_wrapper.InitRedis(ctx, &redis_wrapper.RedisConfig{
		ConnectionURL: *url,
		PoolSize:      *workers * 2,
	})
	if err != nil {
		log.Fatalf("connect redis: %v", err)
	}
	defer client.Close()

	publisher := marketdata.NewRedisPublisher(client, marketdata.RedisConfig{Channel: "bench-price-updates"})
	opsPerWorker := *totalOps / *workers

	var failures int64
	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(*workers)
	for w := 0; w < *workers; w++ {
		go func(workerID int) {
			defer wg.Done()
			for i := 0; i < opsPerWorker; i++ {
				update := matching.PriceUpdate{
					Symbol:    fmt.Sprintf("BENCH%d", (workerID+i)%*symbols),
					Price:     int64(10_000 + i%500),
					Quantity:  int64(1 + i%100),
					Timestamp: time.Now().UnixMilli(),
				}
				if err := publisher.PublishPrice(ctx, update); err != nil {
					atomic.AddInt64(&failures, 1)
				}
			}
		}(w)
	}
	wg.Wait()
	duration := time.Since(start)

	done := opsPerWorker * *workers
	fmt.Printf("Published %d price updates in %s (%.2f ops/sec), %d failed\n",
		done, duration, float64(done)/duration.Seconds(), failures)

	for s := 0; s < *symbols; s++ {
		symbol := fmt.Sprintf("BENCH%d", s)
		history, err := publisher.History(ctx, symbol, 0)
		if err != nil {
			log.Fatalf("read history %s: %v", symbol, err)
		}
		fmt.Printf("%s history length: %d\n", symbol, len(history))
	}
}
