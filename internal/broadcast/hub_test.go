package broadcast

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/werewolfcoder/OrderingSystem/pkg/telemetry"
)

func recv(t *testing.T, c *Client) Frame {
	t.Helper()
	select {
	case raw, ok := <-c.Send():
		require.True(t, ok, "client queue closed")
		var f Frame
		require.NoError(t, json.Unmarshal(raw, &f))
		return f
	case <-time.After(time.Second):
		t.Fatal("no frame received")
		return Frame{}
	}
}

func assertEmpty(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw := <-c.Send():
		t.Fatalf("unexpected frame %s", raw)
	default:
	}
}

func TestHub_PublishReachesOnlyTopicSubscribers(t *testing.T) {
	ctx := context.Background()
	h := NewHub()

	x := h.Register(ctx, "guest-x", "cafeluna")
	y := h.Register(ctx, "guest-y", "cafeluna")
	require.NoError(t, h.Subscribe(x, OrderTopic("X")))
	require.NoError(t, h.Subscribe(y, OrderTopic("Y")))

	update := StatusUpdate{OrderID: "X", Status: "served", UpdatedAt: time.Now().UTC()}
	require.NoError(t, h.Publish(ctx, OrderTopic("X"), EventOrderStatusUpdate, update))

	f := recv(t, x)
	assert.Equal(t, EventOrderStatusUpdate, f.Event)
	var got StatusUpdate
	require.NoError(t, json.Unmarshal(f.Data, &got))
	assert.Equal(t, "X", got.OrderID)
	assert.Equal(t, "served", got.Status)

	assertEmpty(t, y)
}

func TestHub_SubscribeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	h := NewHub()
	c := h.Register(ctx, "chef", "cafeluna")

	require.NoError(t, h.Subscribe(c, KitchenTopic("cafeluna")))
	require.NoError(t, h.Subscribe(c, KitchenTopic("cafeluna")))
	assert.Equal(t, 1, h.Subscribers(KitchenTopic("cafeluna")))

	require.NoError(t, h.Publish(ctx, KitchenTopic("cafeluna"), EventNewOrder, map[string]string{"id": "o1"}))
	recv(t, c)
	assertEmpty(t, c)

	h.Unsubscribe(c, KitchenTopic("cafeluna"))
	h.Unsubscribe(c, KitchenTopic("cafeluna"))
	assert.Equal(t, 0, h.Subscribers(KitchenTopic("cafeluna")))
}

func TestHub_RemoveDropsAllSubscriptions(t *testing.T) {
	ctx := context.Background()
	h := NewHub()
	c := h.Register(ctx, "guest", "cafeluna")

	require.NoError(t, h.Subscribe(c, OrderTopic("a")))
	require.NoError(t, h.Subscribe(c, OrderTopic("b")))
	assert.Equal(t, 1, h.Subscribers(OrderTopic("a")))
	assert.Equal(t, 1, h.Subscribers(OrderTopic("b")))

	h.Remove(c)
	h.Remove(c)

	assert.Equal(t, 0, h.Subscribers(OrderTopic("a")))
	assert.Equal(t, 0, h.Subscribers(OrderTopic("b")))
	_, ok := <-c.Send()
	assert.False(t, ok, "queue must be closed")
	assert.Error(t, h.Subscribe(c, OrderTopic("a")))
	assert.False(t, h.SendTo(c, []byte("{}")))
}

func TestHub_PublishWithoutSubscribers(t *testing.T) {
	h := NewHub()
	assert.NoError(t, h.Publish(context.Background(), OrderTopic("nobody"), EventOrderStatusUpdate, StatusUpdate{}))
}

func TestHub_SlowSubscriberIsDropped(t *testing.T) {
	ctx := context.Background()
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	m, err := telemetry.NewMetrics(provider.Meter("test"))
	require.NoError(t, err)

	h := NewHub(WithSendBuffer(2), WithHubMetrics(m))
	slow := h.Register(ctx, "slow", "cafeluna")
	fast := h.Register(ctx, "fast", "cafeluna")
	topic := KitchenTopic("cafeluna")
	require.NoError(t, h.Subscribe(slow, topic))
	require.NoError(t, h.Subscribe(fast, topic))

	for i := 0; i < 3; i++ {
		require.NoError(t, h.Publish(ctx, topic, EventNewOrder, i))
		// fast keeps up
		recv(t, fast)
	}

	assert.Equal(t, 1, h.Subscribers(topic))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	assert.Equal(t, int64(1), sumOf(t, rm, "broadcast_dropped_total"))
	assert.Equal(t, int64(1), sumOf(t, rm, "realtime_connections"))
}

func sumOf(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, mt := range sm.Metrics {
			if mt.Name != name {
				continue
			}
			sum, ok := mt.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

type recordingRelay struct {
	mu     sync.Mutex
	topics []string
}

func (r *recordingRelay) Relay(ctx context.Context, topic string, frame []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
	return nil
}

func TestHub_PublishRelays(t *testing.T) {
	h := NewHub()
	relay := &recordingRelay{}
	h.SetRelay(relay)

	require.NoError(t, h.Publish(context.Background(), OrderTopic("o1"), EventOrderStatusUpdate, StatusUpdate{OrderID: "o1"}))
	assert.Equal(t, []string{"order_o1"}, relay.topics)
}

func TestHub_ConcurrentPublishAndRemove(t *testing.T) {
	ctx := context.Background()
	h := NewHub(WithSendBuffer(1))
	topic := KitchenTopic("busy")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		c := h.Register(ctx, "c", "busy")
		require.NoError(t, h.Subscribe(c, topic))
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = h.Publish(ctx, topic, EventNewOrder, "x")
		}()
		go func() {
			defer wg.Done()
			h.Remove(c)
		}()
	}
	wg.Wait()
}

func TestTopics(t *testing.T) {
	assert.Equal(t, "kitchen_cafeluna", KitchenTopic("cafeluna"))
	assert.Equal(t, "order_42", OrderTopic("42"))
}

func TestParseOrderID(t *testing.T) {
	id, err := parseOrderID(json.RawMessage(`"abc"`))
	require.NoError(t, err)
	assert.Equal(t, "abc", id)

	id, err = parseOrderID(json.RawMessage(`{"orderId":"def"}`))
	require.NoError(t, err)
	assert.Equal(t, "def", id)

	for _, bad := range []string{``, `""`, `{}`, `42`} {
		_, err := parseOrderID(json.RawMessage(bad))
		assert.Error(t, err, bad)
	}
}

func TestRedisBridge_SkipsOwnOrigin(t *testing.T) {
	ctx := context.Background()
	h := NewHub()
	c := h.Register(ctx, "guest", "cafeluna")
	require.NoError(t, h.Subscribe(c, OrderTopic("o1")))

	b := NewRedisBridge(nil, h, "", nil)
	frame, err := encodeFrame(EventOrderStatusUpdate, StatusUpdate{OrderID: "o1", Status: "preparing"})
	require.NoError(t, err)

	own, _ := json.Marshal(relayEnvelope{Origin: b.Origin(), Topic: OrderTopic("o1"), Frame: frame})
	b.handle(ctx, own)
	assertEmpty(t, c)

	peer, _ := json.Marshal(relayEnvelope{Origin: "other-instance", Topic: OrderTopic("o1"), Frame: frame})
	b.handle(ctx, peer)
	f := recv(t, c)
	assert.Equal(t, EventOrderStatusUpdate, f.Event)

	b.handle(ctx, []byte("not json"))
	assertEmpty(t, c)
}
