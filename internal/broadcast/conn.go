package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/werewolfcoder/OrderingSystem/pkg/logger"
)

// EventError is sent to a client whose frame was rejected
const EventError = "error"

// ConnConfig holds socket timing
type ConnConfig struct {
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	MaxMessageSize int64
}

// DefaultConnConfig returns the timings used when none are configured
func DefaultConnConfig() ConnConfig {
	return ConnConfig{
		PingInterval:   30 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxMessageSize: 4096,
	}
}

// JoinAuthorizer decides whether the client may watch orderID. A nil
// authorizer rejects every join.
type JoinAuthorizer func(ctx context.Context, c *Client, orderID string) error

// Conn pumps frames between one websocket and the hub
type Conn struct {
	hub     *Hub
	client  *Client
	ws      *websocket.Conn
	cfg     ConnConfig
	canJoin JoinAuthorizer
	log     *logger.Logger
}

// NewConn binds an upgraded websocket to a registered client
func NewConn(hub *Hub, client *Client, ws *websocket.Conn, cfg ConnConfig, canJoin JoinAuthorizer, log *logger.Logger) *Conn {
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = DefaultConnConfig().PingInterval
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultConnConfig().WriteTimeout
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = DefaultConnConfig().MaxMessageSize
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Conn{hub: hub, client: client, ws: ws, cfg: cfg, canJoin: canJoin, log: log}
}

// Run blocks until the peer goes away or ctx is done. The client is removed
// from every topic before Run returns.
func (c *Conn) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.writePump(ctx)
	}()

	c.readPump(ctx)

	c.hub.Remove(c.client)
	cancel()
	<-writerDone
	c.ws.Close()
}

func (c *Conn) readPump(ctx context.Context) {
	pongWait := c.cfg.PingInterval * 2
	c.ws.SetReadLimit(c.cfg.MaxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("websocket read failed", zap.String("client_id", c.client.ID), zap.Error(err))
			}
			return
		}
		c.handleFrame(ctx, raw)
	}
}

func (c *Conn) handleFrame(ctx context.Context, raw []byte) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		c.reject("malformed frame")
		return
	}

	switch f.Event {
	case EventJoinOrderRoom:
		orderID, err := parseOrderID(f.Data)
		if err != nil {
			c.reject(err.Error())
			return
		}
		if c.canJoin == nil {
			c.reject("not allowed to join order rooms")
			return
		}
		if err := c.canJoin(ctx, c.client, orderID); err != nil {
			c.reject("cannot join order " + orderID)
			return
		}
		if err := c.hub.Subscribe(c.client, OrderTopic(orderID)); err != nil {
			return
		}
	case EventLeaveOrderRoom:
		orderID, err := parseOrderID(f.Data)
		if err != nil {
			c.reject(err.Error())
			return
		}
		c.hub.Unsubscribe(c.client, OrderTopic(orderID))
	default:
		c.reject("unknown event " + f.Event)
	}
}

func (c *Conn) reject(msg string) {
	frame, err := encodeFrame(EventError, map[string]string{"message": msg})
	if err != nil {
		return
	}
	c.hub.SendTo(c.client, frame)
}

// parseOrderID accepts "id" or {"orderId":"id"}
func parseOrderID(data json.RawMessage) (string, error) {
	var id string
	if err := json.Unmarshal(data, &id); err != nil {
		var obj struct {
			OrderID string `json:"orderId"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return "", errors.New("orderId is required")
		}
		id = obj.OrderID
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errors.New("orderId is required")
	}
	return id, nil
}

func (c *Conn) writePump(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case frame, ok := <-c.client.Send():
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if !ok {
				// removed by the hub, possibly for being slow
				_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "dropped"))
				c.ws.Close()
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.ws.Close()
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.ws.Close()
				return
			}
		case <-ctx.Done():
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			c.ws.Close()
			return
		}
	}
}
