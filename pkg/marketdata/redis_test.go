package marketdata

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/joripage/matching-engine/pkg/matching"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	require.NoError(t, client.Ping(context.Background()).Err())
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisPublisherKeepsBoundedHistory(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()
	symbol := fmt.Sprintf("TEST%d", time.Now().UnixNano())
	t.Cleanup(func() { client.Del(ctx, historyKey(symbol), latestKey(symbol)) })

	p := NewRedisPublisher(client, RedisConfig{Channel: "test-" + symbol, HistoryLimit: 3})
	sub := p.Subscribe(ctx)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	for i := int64(1); i <= 5; i++ {
		require.NoError(t, p.PublishPrice(ctx, matching.PriceUpdate{Symbol: symbol, Price: 100 + i, Quantity: i, Timestamp: i}))
	}

	h, err := p.History(ctx, symbol, 0)
	require.NoError(t, err)
	require.Len(t, h, 3)
	assert.Equal(t, int64(105), h[0].Price)
	assert.Equal(t, int64(103), h[2].Price)

	latest, ok, err := p.Latest(ctx, symbol)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(105), latest.Price)

	select {
	case msg := <-sub.Channel():
		assert.Contains(t, msg.Payload, `"price":101`)
	case <-time.After(2 * time.Second):
		t.Fatal("no pub/sub message received")
	}
}

func TestRedisPublisherLatestMissing(t *testing.T) {
	client := newTestRedis(t)
	p := NewRedisPublisher(client, RedisConfig{})

	_, ok, err := p.Latest(context.Background(), fmt.Sprintf("NONE%d", time.Now().UnixNano()))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRelayFiltersBySymbol(t *testing.T) {
	msgs := make(chan *redis.Message, 4)
	msgs <- &redis.Message{Payload: `{"symbol":"XYZ","price":40}`}
	msgs <- &redis.Message{Payload: `not json`}
	msgs <- &redis.Message{Payload: `{"symbol":"ABC","price":101,"quantity":2,"timestamp":7}`}
	close(msgs)

	out := make(chan matching.PriceUpdate, 4)
	relay(context.Background(), msgs, "ABC", out)

	var got []matching.PriceUpdate
	for u := range out {
		got = append(got, u)
	}
	assert.Equal(t, []matching.PriceUpdate{{Symbol: "ABC", Price: 101, Quantity: 2, Timestamp: 7}}, got)
}

func TestRelayStopsOnContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan matching.PriceUpdate)
	done := make(chan struct{})
	go func() {
		relay(ctx, make(chan *redis.Message), "", out)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("relay did not return after cancel")
	}
	_, open := <-out
	assert.False(t, open)
}

func TestRedisPublisherStream(t *testing.T) {
	client := newTestRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	symbol := fmt.Sprintf("TEST%d", time.Now().UnixNano())
	t.Cleanup(func() { client.Del(context.Background(), historyKey(symbol), latestKey(symbol)) })

	p := NewRedisPublisher(client, RedisConfig{Channel: "stream-" + symbol})
	updates, err := p.Stream(ctx, symbol)
	require.NoError(t, err)

	require.NoError(t, p.PublishPrice(ctx, matching.PriceUpdate{Symbol: "OTHER", Price: 1}))
	require.NoError(t, p.PublishPrice(ctx, matching.PriceUpdate{Symbol: symbol, Price: 77}))

	select {
	case u := <-updates:
		assert.Equal(t, symbol, u.Symbol)
		assert.Equal(t, int64(77), u.Price)
	case <-time.After(2 * time.Second):
		t.Fatal("no streamed update")
	}
	client.Del(ctx, historyKey("OTHER"), latestKey("OTHER"))
}
