package broadcast

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/werewolfcoder/OrderingSystem/pkg/logger"
	"github.com/werewolfcoder/OrderingSystem/pkg/telemetry"
)

// DefaultSendBuffer is the per-client queue length used when none is configured
const DefaultSendBuffer = 64

// Client is one connected subscriber. Frames are queued on a bounded
// channel; a client whose queue is full is removed instead of blocking the
// publisher.
type Client struct {
	ID       string
	TenantID string

	send    chan []byte
	removed bool // guarded by Hub.mu
}

// Send returns the queue the connection writer drains. It is closed when
// the client is removed from the hub.
func (c *Client) Send() <-chan []byte {
	return c.send
}

// Relay forwards locally published frames to other instances
type Relay interface {
	Relay(ctx context.Context, topic string, frame []byte) error
}

// Hub is the in-process topic registry
type Hub struct {
	log        *logger.Logger
	metrics    *telemetry.Metrics
	sendBuffer int

	mu      sync.RWMutex
	topics  map[string]map[*Client]struct{}
	clients map[*Client]map[string]struct{}

	relayMu sync.RWMutex
	relay   Relay
}

// HubOption configures a Hub
type HubOption func(*Hub)

// WithHubLogger sets the hub logger
func WithHubLogger(l *logger.Logger) HubOption {
	return func(h *Hub) { h.log = l }
}

// WithHubMetrics records drops and live connections
func WithHubMetrics(m *telemetry.Metrics) HubOption {
	return func(h *Hub) {
		if m != nil {
			h.metrics = m
		}
	}
}

// WithSendBuffer sets the per-client queue length
func WithSendBuffer(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.sendBuffer = n
		}
	}
}

// NewHub creates an empty hub
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		log:        logger.NewNop(),
		metrics:    &telemetry.Metrics{},
		sendBuffer: DefaultSendBuffer,
		topics:     make(map[string]map[*Client]struct{}),
		clients:    make(map[*Client]map[string]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SetRelay installs a cross-instance relay. Pass nil to remove it.
func (h *Hub) SetRelay(r Relay) {
	h.relayMu.Lock()
	h.relay = r
	h.relayMu.Unlock()
}

// Register adds a connection with no subscriptions
func (h *Hub) Register(ctx context.Context, id, tenantID string) *Client {
	c := &Client{ID: id, TenantID: tenantID, send: make(chan []byte, h.sendBuffer)}

	h.mu.Lock()
	h.clients[c] = make(map[string]struct{})
	h.mu.Unlock()

	h.metrics.LiveConnections.Add(ctx, 1, telemetry.TenantIDAttr(tenantID))
	return c
}

// Subscribe adds c to topic. Subscribing twice has no further effect.
func (h *Hub) Subscribe(c *Client, topic string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.clients[c]
	if !ok {
		return fmt.Errorf("client %s is not connected", c.ID)
	}
	subs[topic] = struct{}{}

	members, ok := h.topics[topic]
	if !ok {
		members = make(map[*Client]struct{})
		h.topics[topic] = members
	}
	members[c] = struct{}{}
	return nil
}

// Unsubscribe removes c from topic. Unknown pairs are ignored.
func (h *Hub) Unsubscribe(c *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.unsubscribeLocked(c, topic)
}

func (h *Hub) unsubscribeLocked(c *Client, topic string) {
	if subs, ok := h.clients[c]; ok {
		delete(subs, topic)
	}
	if members, ok := h.topics[topic]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.topics, topic)
		}
	}
}

// Remove drops every subscription of c and closes its queue. Safe to call
// more than once.
func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	if c.removed {
		h.mu.Unlock()
		return
	}
	for topic := range h.clients[c] {
		h.unsubscribeLocked(c, topic)
	}
	delete(h.clients, c)
	c.removed = true
	close(c.send)
	h.mu.Unlock()

	h.metrics.LiveConnections.Add(context.Background(), -1, telemetry.TenantIDAttr(c.TenantID))
}

// Subscribers returns the number of clients on topic
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Publish delivers event to every current subscriber of topic and hands the
// frame to the relay. Delivery is best-effort: an error is returned only
// when payload cannot be encoded or the relay fails.
func (h *Hub) Publish(ctx context.Context, topic, event string, payload any) error {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", event, err)
	}

	h.Deliver(ctx, topic, frame)

	h.relayMu.RLock()
	relay := h.relay
	h.relayMu.RUnlock()
	if relay != nil {
		if err := relay.Relay(ctx, topic, frame); err != nil {
			return fmt.Errorf("relay %s: %w", topic, err)
		}
	}
	return nil
}

// SendTo queues frame for c alone. It reports false when c is gone or its
// queue is full.
func (h *Hub) SendTo(c *Client, frame []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if c.removed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// Deliver pushes an encoded frame to local subscribers only
func (h *Hub) Deliver(ctx context.Context, topic string, frame []byte) int {
	var slow []*Client
	delivered := 0

	h.mu.RLock()
	for c := range h.topics[topic] {
		select {
		case c.send <- frame:
			delivered++
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.metrics.BroadcastDropped.Inc(ctx, telemetry.TopicAttr(topic))
		h.log.WarnContext(ctx, "dropping slow subscriber",
			zap.String("client_id", c.ID),
			zap.String("topic", topic),
		)
		h.Remove(c)
	}
	return delivered
}
