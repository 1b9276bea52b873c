package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/werewolfcoder/OrderingSystem/internal/broadcast"
	"github.com/werewolfcoder/OrderingSystem/internal/repository"
	"github.com/werewolfcoder/OrderingSystem/internal/service"
	"github.com/werewolfcoder/OrderingSystem/internal/storage"
	"github.com/werewolfcoder/OrderingSystem/internal/tenant"
	"github.com/werewolfcoder/OrderingSystem/pkg/auth"
	"github.com/werewolfcoder/OrderingSystem/pkg/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testEnv is the full HTTP surface over memory storage
type testEnv struct {
	router *gin.Engine
	tokens *auth.Manager
	hub    *broadcast.Hub
	orders service.OrderService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tokens := auth.NewManager(auth.Config{Secret: "handler-test-secret", Issuer: "ordering-test"})
	admins := repository.NewMemoryAdminRepository()
	registry := tenant.NewRegistry(tenant.NewMemoryOpener(), tenant.WithKnownTenants(admins.TenantExists))
	t.Cleanup(registry.Close)

	hub := broadcast.NewHub()
	images, err := storage.NewDiskStore(t.TempDir(), "/uploads", 1<<20)
	require.NoError(t, err)

	orders := service.NewOrderService(service.OrderServiceConfig{Partitions: registry, Broadcaster: hub})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	rateLimit := middleware.DefaultRateLimitConfig()
	rateLimit.RequestsPerSecond = 1000
	rateLimit.BurstSize = 1000

	r := &Router{
		Tokens:    tokens,
		RateLimit: rateLimit,
		Admin:     NewAdminHandler(service.NewAdminService(admins, registry, tokens, nil)),
		Chef:      NewChefHandler(service.NewChefService(registry, tokens, nil)),
		Menu:      NewMenuHandler(service.NewMenuService(registry, images, nil), 1<<20),
		Order:     NewOrderHandler(orders),
		QR:        NewQRHandler(service.NewQRService(tokens, "https://menu.example.com/", 0)),
		WS:        NewWSHandler(ctx, hub, tokens, orders, nil, broadcast.DefaultConnConfig()),
		Health:    NewHealthHandler("ordering-test", nil).WithStat("open_partitions", func() int { return len(registry.Open()) }),
	}

	engine := gin.New()
	r.SetupRoutes(engine)
	return &testEnv{router: engine, tokens: tokens, hub: hub, orders: orders}
}

// envelope mirrors response.Response with raw data for typed decoding
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.serve(t, req, token)
}

func (e *testEnv) serve(t *testing.T, req *http.Request, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v), string(env.Data))
	return v
}

// registerHotel creates "Cafe Luna" and returns the admin token
func (e *testEnv) registerHotel(t *testing.T) string {
	t.Helper()
	w, env := e.do(t, http.MethodPost, "/global/register", "", map[string]string{
		"hotelName": "Cafe Luna",
		"adminName": "Sam",
		"email":     "sam@cafeluna.test",
		"password":  "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[struct {
		Token string `json:"token"`
	}](t, env).Token
}

func (e *testEnv) guestToken(t *testing.T, table int) string {
	t.Helper()
	w, env := e.do(t, http.MethodPost, "/user/getTokenFromQR", "", map[string]any{
		"hotelName": "Cafe Luna", "tableNumber": table,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[struct {
		Token string `json:"token"`
	}](t, env).Token
}

func (e *testEnv) chefToken(t *testing.T, adminToken string) string {
	t.Helper()
	w, _ := e.do(t, http.MethodPost, "/admin/chefs", adminToken, map[string]string{
		"chefId": "gordon", "password": "kitchen1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, env := e.do(t, http.MethodPost, "/chef/login", "", map[string]string{
		"hotelName": "Cafe Luna", "chefId": "gordon", "password": "kitchen1",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[struct {
		Token string `json:"token"`
	}](t, env).Token
}

type orderBody struct {
	ID          string  `json:"id"`
	Status      string  `json:"status"`
	TableNumber int     `json:"tableNumber"`
	TotalAmount float64 `json:"totalAmount"`
}

func (e *testEnv) placeOrder(t *testing.T, guestToken string) orderBody {
	t.Helper()
	w, env := e.do(t, http.MethodPost, "/user/placeOrder", guestToken, map[string]any{
		"items":       []map[string]any{{"name": "Pad Thai", "qty": 2, "price": 120}},
		"totalAmount": 240,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[struct {
		Order orderBody `json:"order"`
	}](t, env).Order
}
