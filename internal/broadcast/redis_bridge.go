package broadcast

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/werewolfcoder/OrderingSystem/pkg/logger"
	pkgredis "github.com/werewolfcoder/OrderingSystem/pkg/redis"
)

// DefaultRedisChannel carries frames between instances
const DefaultRedisChannel = "ordering:broadcast"

// relayEnvelope wraps a frame with its origin so an instance can skip its
// own messages when they come back from Redis.
type relayEnvelope struct {
	Origin string          `json:"origin"`
	Topic  string          `json:"topic"`
	Frame  json.RawMessage `json:"frame"`
}

// RedisBridge relays hub frames over one Redis Pub/Sub channel
type RedisBridge struct {
	client  *pkgredis.Client
	hub     *Hub
	channel string
	origin  string
	log     *logger.Logger
}

// NewRedisBridge creates a bridge with a fresh origin id
func NewRedisBridge(client *pkgredis.Client, hub *Hub, channel string, log *logger.Logger) *RedisBridge {
	if channel == "" {
		channel = DefaultRedisChannel
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &RedisBridge{
		client:  client,
		hub:     hub,
		channel: channel,
		origin:  uuid.NewString(),
		log:     log,
	}
}

// Origin identifies this instance on the channel
func (b *RedisBridge) Origin() string {
	return b.origin
}

// Relay publishes frame for peer instances
func (b *RedisBridge) Relay(ctx context.Context, topic string, frame []byte) error {
	msg, err := json.Marshal(relayEnvelope{Origin: b.origin, Topic: topic, Frame: frame})
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, msg).Err()
}

// Run subscribes to the channel and delivers peer frames to local
// subscribers until ctx is done.
func (b *RedisBridge) Run(ctx context.Context) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	// Wait for the subscription to be confirmed
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	b.log.Info("broadcast bridge subscribed",
		zap.String("channel", b.channel),
		zap.String("origin", b.origin),
	)

	msgChan := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgChan:
			if !ok {
				return nil
			}
			b.handle(ctx, []byte(msg.Payload))
		}
	}
}

func (b *RedisBridge) handle(ctx context.Context, payload []byte) {
	var env relayEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		b.log.Warn("invalid broadcast relay message", zap.Error(err))
		return
	}
	if env.Origin == b.origin {
		return
	}
	b.hub.Deliver(ctx, env.Topic, env.Frame)
}
