// Package kafkawrapper publishes trade prints to Kafka.
package kafkawrapper

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/joripage/matching-engine/pkg/matching"
	kafka "github.com/segmentio/kafka-go"
)

var errProducerNotInitialized = errors.New("producer not initialized")

type ProducerConfig struct {
	Brokers      []string       `yaml:"brokers"`
	BatchSize    int            `yaml:"batch_size"`
	BatchBytes   int64          `yaml:"batch_bytes"`
	BatchTimeout time.Duration  `yaml:"batch_timeout"`
	Balancer     kafka.Balancer `yaml:"-"`
}

// messageWriter is the subset of *kafka.Writer the producer uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	w messageWriter
}

func NewProducer(cfg ProducerConfig) *Producer {
	if cfg.Balancer == nil {
		cfg.Balancer = &kafka.Hash{}
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.BatchBytes == 0 {
		cfg.BatchBytes = 1 << 20
	}
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = 50 * time.Millisecond
	}
	wr := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               cfg.Balancer,
		BatchSize:              cfg.BatchSize,
		BatchBytes:             cfg.BatchBytes,
		BatchTimeout:           cfg.BatchTimeout,
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
		Async:                  true,
	}
	return &Producer{w: wr}
}

func (p *Producer) Publish(ctx context.Context, topic string, key []byte, value []byte, headers map[string]string) error {
	if p == nil || p.w == nil {
		return errProducerNotInitialized
	}
	var kh []kafka.Header
	for k, v := range headers {
		kh = append(kh, kafka.Header{Key: k, Value: []byte(v)})
	}
	return p.w.WriteMessages(ctx, kafka.Message{
		Topic:   topic,
		Key:     key,
		Value:   value,
		Headers: kh,
		Time:    time.Now(),
	})
}

func (p *Producer) PublishJSON(ctx context.Context, topic string, key string, v any, headers map[string]string) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.Publish(ctx, topic, []byte(key), b, headers)
}

func (p *Producer) Close() error {
	if p == nil || p.w == nil {
		return nil
	}
	return p.w.Close()
}

// TradePublisher writes one message per trade to a topic, keyed by symbol so
// a symbol's prints stay ordered within a partition.
type TradePublisher struct {
	producer *Producer
	topic    string
}

var _ matching.Notifier = (*TradePublisher)(nil)

func NewTradePublisher(producer *Producer, topic string) *TradePublisher {
	return &TradePublisher{
		producer: producer,
		topic:    topic,
	}
}

func (t *TradePublisher) PublishPrice(ctx context.Context, u matching.PriceUpdate) error {
	return t.producer.PublishJSON(ctx, t.topic, u.Symbol, u, map[string]string{"event": "trade"})
}
