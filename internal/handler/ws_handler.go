package handler

import (
	"context"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/werewolfcoder/OrderingSystem/internal/broadcast"
	"github.com/werewolfcoder/OrderingSystem/internal/service"
	"github.com/werewolfcoder/OrderingSystem/pkg/auth"
	"github.com/werewolfcoder/OrderingSystem/pkg/logger"
	"github.com/werewolfcoder/OrderingSystem/pkg/middleware"
	"github.com/werewolfcoder/OrderingSystem/pkg/response"
)

// WSHandler upgrades authenticated requests to the real-time channel.
// Kitchen tokens (chef or admin) are subscribed to the tenant's kitchen
// topic; guests join order rooms of their own table.
type WSHandler struct {
	hub          *broadcast.Hub
	tokens       middleware.Verifier
	orderService service.OrderService
	upgrader     websocket.Upgrader
	connCfg      broadcast.ConnConfig
	// sockets outlive the request context; they end with base
	base context.Context
}

// NewWSHandler creates a new WSHandler. allowOrigins follows the CORS
// configuration: empty or "*" accepts any origin.
func NewWSHandler(base context.Context, hub *broadcast.Hub, tokens middleware.Verifier, orderService service.OrderService, allowOrigins []string, connCfg broadcast.ConnConfig) *WSHandler {
	h := &WSHandler{
		hub:          hub,
		tokens:       tokens,
		orderService: orderService,
		connCfg:      connCfg,
		base:         base,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}

// Serve handles GET /ws?token=...
func (h *WSHandler) Serve(c *gin.Context) {
	raw := c.Query("token")
	if raw == "" {
		raw = c.GetHeader("Authorization")
	}

	claims, err := h.verify(raw)
	if err != nil {
		response.Abort(c, wsAuthError(err))
		return
	}

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader already wrote the error response
		return
	}

	ctx := context.WithValue(h.base, logger.TenantKey, claims.TenantID)
	client := h.hub.Register(ctx, uuid.NewString(), claims.TenantID)
	log := logger.Get().WithTenant(claims.TenantID).WithFields(
		zap.String("client_id", client.ID),
		zap.String("role", string(claims.Role)),
	)

	var canJoin broadcast.JoinAuthorizer
	switch claims.Role {
	case auth.KindChef, auth.KindAdmin:
		if err := h.hub.Subscribe(client, broadcast.KitchenTopic(claims.TenantID)); err != nil {
			log.Error("kitchen subscribe failed", zap.Error(err))
		}
		canJoin = h.tenantOrders(0)
	case auth.KindGuest:
		canJoin = h.tenantOrders(claims.TableNumber)
	}

	log.Debug("websocket connected")
	broadcast.NewConn(h.hub, client, ws, h.connCfg, canJoin, log).Run(ctx)
	log.Debug("websocket closed")
}

// verify accepts any of the three token kinds
func (h *WSHandler) verify(raw string) (*auth.Claims, error) {
	var err error
	for _, kind := range []auth.Kind{auth.KindGuest, auth.KindChef, auth.KindAdmin} {
		var claims *auth.Claims
		claims, err = h.tokens.Verify(kind, raw)
		if err == nil {
			return claims, nil
		}
		if auth.KindOf(err) != auth.ErrRoleMismatch {
			return nil, err
		}
	}
	return nil, err
}

// tenantOrders allows joining orders of the client's tenant. A positive
// table narrows that to the orders placed at it.
func (h *WSHandler) tenantOrders(table int) broadcast.JoinAuthorizer {
	return func(ctx context.Context, c *broadcast.Client, orderID string) error {
		_, err := h.orderService.GetOrder(ctx, c.TenantID, orderID, table)
		return err
	}
}

func wsAuthError(err error) *response.Response {
	if auth.KindOf(err) == auth.ErrMissing {
		return response.Error(response.ErrCodeTokenMissing, "Token is required")
	}
	return response.Error(response.ErrCodeTokenInvalid, "Invalid or expired token")
}
