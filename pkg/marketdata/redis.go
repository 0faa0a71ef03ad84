package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/joripage/matching-engine/pkg/matching"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultChannel      = "price-updates"
	DefaultHistoryLimit = 200

	historyKeyPrefix = "price-history:"
	latestKeyPrefix  = "latest-price:"
)

type RedisConfig struct {
	Channel      string `yaml:"channel"`
	HistoryLimit int    `yaml:"history_limit"`
}

// RedisPublisher streams price updates over pub/sub and keeps a bounded,
// newest-first history plus the latest price per symbol.
type RedisPublisher struct {
	client       *redis.Client
	channel      string
	historyLimit int64
}

var _ matching.Notifier = (*RedisPublisher)(nil)

func NewRedisPublisher(client *redis.Client, cfg RedisConfig) *RedisPublisher {
	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}
	return &RedisPublisher{
		client:       client,
		channel:      cfg.Channel,
		historyLimit: int64(cfg.HistoryLimit),
	}
}

func historyKey(symbol string) string { return historyKeyPrefix + symbol }

func latestKey(symbol string) string { return latestKeyPrefix + symbol }

func (p *RedisPublisher) PublishPrice(ctx context.Context, u matching.PriceUpdate) error {
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Publish(ctx, p.channel, b)
		pipe.LPush(ctx, historyKey(u.Symbol), b)
		pipe.LTrim(ctx, historyKey(u.Symbol), 0, p.historyLimit-1)
		pipe.Set(ctx, latestKey(u.Symbol), b, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("publish price %s: %w", u.Symbol, err)
	}
	return nil
}

// Latest returns the last published update for symbol. ok is false when
// nothing has been published yet.
func (p *RedisPublisher) Latest(ctx context.Context, symbol string) (u matching.PriceUpdate, ok bool, err error) {
	b, err := p.client.Get(ctx, latestKey(symbol)).Bytes()
	if errors.Is(err, redis.Nil) {
		return u, false, nil
	}
	if err != nil {
		return u, false, err
	}
	if err := json.Unmarshal(b, &u); err != nil {
		return u, false, err
	}
	return u, true, nil
}

// History returns up to limit recent updates for symbol, newest first.
func (p *RedisPublisher) History(ctx context.Context, symbol string, limit int) ([]matching.PriceUpdate, error) {
	if limit <= 0 || int64(limit) > p.historyLimit {
		limit = int(p.historyLimit)
	}
	raw, err := p.client.LRange(ctx, historyKey(symbol), 0, int64(limit)-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]matching.PriceUpdate, 0, len(raw))
	for _, s := range raw {
		var u matching.PriceUpdate
		if err := json.Unmarshal([]byte(s), &u); err != nil {
			return nil, fmt.Errorf("decode price history %s: %w", symbol, err)
		}
		out = append(out, u)
	}
	return out, nil
}

// Subscribe opens a pub/sub subscription on the price channel.
func (p *RedisPublisher) Subscribe(ctx context.Context) *redis.PubSub {
	return p.client.Subscribe(ctx, p.channel)
}

// Stream delivers price updates published after the call. An empty symbol
// streams every symbol. The channel is closed once ctx is done.
func (p *RedisPublisher) Stream(ctx context.Context, symbol string) (<-chan matching.PriceUpdate, error) {
	sub := p.Subscribe(ctx)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", p.channel, err)
	}

	out := make(chan matching.PriceUpdate)
	go func() {
		defer sub.Close()
		relay(ctx, sub.Channel(), symbol, out)
	}()
	return out, nil
}

// relay decodes pub/sub payloads onto out until ctx is done or msgs closes,
// then closes out. Undecodable payloads are dropped.
func relay(ctx context.Context, msgs <-chan *redis.Message, symbol string, out chan<- matching.PriceUpdate) {
	defer close(out)
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-msgs:
			if !ok {
				return
			}
			var u matching.PriceUpdate
			if err := json.Unmarshal([]byte(m.Payload), &u); err != nil {
				continue
			}
			if symbol != "" && u.Symbol != symbol {
				continue
			}
			select {
			case out <- u:
			case <-ctx.Done():
				return
			}
		}
	}
}
