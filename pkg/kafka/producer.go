// Package kafka publishes keyed JSON events to Kafka/Redpanda with franz-go.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"

	"github.com/werewolfcoder/OrderingSystem/pkg/logger"
)

// Event is a message with a partitioning key
type Event interface {
	Key() string
}

// Producer publishes events to a topic
type Producer interface {
	Publish(ctx context.Context, topic string, event Event) error
	Close()
}

// Config holds producer settings
type Config struct {
	Brokers  []string
	ClientID string
	// ProduceTimeout bounds how long a buffered record may wait for its ack.
	ProduceTimeout time.Duration
	// MaxBufferedRecords caps records awaiting delivery. Records beyond it
	// are failed immediately instead of blocking Publish.
	MaxBufferedRecords int
	// OnError receives records that could not be delivered. Defaults to a
	// warning on the global logger.
	OnError func(record *kgo.Record, err error)
}

// KgoProducer buffers records with franz-go and delivers them in the
// background. Publish never waits on a broker.
type KgoProducer struct {
	client  *kgo.Client
	timeout time.Duration
	onError func(record *kgo.Record, err error)
}

// NewProducer creates a producer. franz-go connects lazily, so this does not
// fail when brokers are down; Ping can be used to check reachability.
func NewProducer(cfg Config) (*KgoProducer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: no brokers configured")
	}

	timeout := cfg.ProduceTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	buffered := cfg.MaxBufferedRecords
	if buffered <= 0 {
		buffered = 10000
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
		kgo.AllowAutoTopicCreation(),
		kgo.ProducerLinger(5*time.Millisecond),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.RecordDeliveryTimeout(timeout),
		kgo.MaxBufferedRecords(buffered),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka: new client: %w", err)
	}

	onError := cfg.OnError
	if onError == nil {
		onError = logDeliveryError
	}
	return &KgoProducer{client: client, timeout: timeout, onError: onError}, nil
}

func logDeliveryError(record *kgo.Record, err error) {
	logger.Warn("kafka delivery failed",
		zap.String("topic", record.Topic),
		zap.ByteString("key", record.Key),
		zap.Error(err),
	)
}

// Ping checks that at least one broker answers
func (p *KgoProducer) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

// Publish JSON-encodes event and hands it to the client buffer without
// waiting for an ack. Delivery failures, a full buffer included, go to
// OnError; only encoding errors are returned. The record outlives ctx
// cancellation but not ProduceTimeout.
func (p *KgoProducer) Publish(ctx context.Context, topic string, event Event) error {
	record, err := NewRecord(topic, event)
	if err != nil {
		return err
	}

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	p.client.TryProduce(rctx, record, func(r *kgo.Record, err error) {
		cancel()
		if err != nil {
			p.onError(r, err)
		}
	})
	return nil
}

// Close flushes pending records for up to ProduceTimeout and closes the client
func (p *KgoProducer) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	_ = p.client.Flush(ctx)
	p.client.Close()
}

// NewRecord builds the record Publish sends
func NewRecord(topic string, event Event) (*kgo.Record, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("kafka: encode event: %w", err)
	}
	return &kgo.Record{
		Topic: topic,
		Key:   []byte(event.Key()),
		Value: value,
	}, nil
}

// NoopProducer drops every event. Used when Kafka is disabled.
type NoopProducer struct{}

func (NoopProducer) Publish(context.Context, string, Event) error {
	return nil
}

func (NoopProducer) Close() {}
