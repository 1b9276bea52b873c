package broadcast

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newWSServer upgrades every request into a guest connection of tenant "t1"
func newWSServer(t *testing.T, h *Hub, canJoin JoinAuthorizer) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := h.Register(r.Context(), "guest", "t1")
		NewConn(h, client, ws, ConnConfig{PingInterval: time.Second}, canJoin, nil).Run(context.Background())
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func readFrame(t *testing.T, ws *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f Frame
	require.NoError(t, ws.ReadJSON(&f))
	return f
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	assert.Eventually(t, cond, 2*time.Second, 10*time.Millisecond)
}

func TestConn_JoinReceiveLeave(t *testing.T) {
	h := NewHub()
	srv := newWSServer(t, h, func(ctx context.Context, c *Client, orderID string) error { return nil })
	ws := dial(t, srv)
	topic := OrderTopic("o1")

	require.NoError(t, ws.WriteJSON(map[string]any{"event": EventJoinOrderRoom, "data": "o1"}))
	waitFor(t, func() bool { return h.Subscribers(topic) == 1 })

	require.NoError(t, h.Publish(context.Background(), topic, EventOrderStatusUpdate, StatusUpdate{OrderID: "o1", Status: "preparing"}))
	f := readFrame(t, ws)
	assert.Equal(t, EventOrderStatusUpdate, f.Event)
	assert.Contains(t, string(f.Data), `"preparing"`)

	require.NoError(t, ws.WriteJSON(map[string]any{"event": EventLeaveOrderRoom, "data": map[string]string{"orderId": "o1"}}))
	waitFor(t, func() bool { return h.Subscribers(topic) == 0 })
}

func TestConn_JoinRejected(t *testing.T) {
	h := NewHub()
	srv := newWSServer(t, h, func(ctx context.Context, c *Client, orderID string) error {
		return errors.New("not your order")
	})
	ws := dial(t, srv)

	require.NoError(t, ws.WriteJSON(map[string]any{"event": EventJoinOrderRoom, "data": "o2"}))
	f := readFrame(t, ws)
	assert.Equal(t, EventError, f.Event)
	assert.Equal(t, 0, h.Subscribers(OrderTopic("o2")))
}

func TestConn_UnknownEvent(t *testing.T) {
	h := NewHub()
	ws := dial(t, newWSServer(t, h, nil))

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(`{"event":"dance"}`)))
	assert.Equal(t, EventError, readFrame(t, ws).Event)

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	assert.Equal(t, EventError, readFrame(t, ws).Event)
}

func TestConn_DisconnectUnsubscribes(t *testing.T) {
	h := NewHub()
	srv := newWSServer(t, h, func(ctx context.Context, c *Client, orderID string) error { return nil })
	ws := dial(t, srv)

	require.NoError(t, ws.WriteJSON(map[string]any{"event": EventJoinOrderRoom, "data": "o1"}))
	waitFor(t, func() bool { return h.Subscribers(OrderTopic("o1")) == 1 })

	ws.Close()
	waitFor(t, func() bool { return h.Subscribers(OrderTopic("o1")) == 0 })
}
