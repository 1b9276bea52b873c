package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/werewolfcoder/OrderingSystem/internal/broadcast"
	"github.com/werewolfcoder/OrderingSystem/internal/domain"
	"github.com/werewolfcoder/OrderingSystem/internal/dto"
	"github.com/werewolfcoder/OrderingSystem/pkg/kafka"
	"github.com/werewolfcoder/OrderingSystem/pkg/logger"
)

type orderFixture struct {
	svc    OrderService
	hub    *broadcast.Hub
	events *recordingProducer
}

func newOrderFixture(t *testing.T) *orderFixture {
	hub := broadcast.NewHub()
	events := &recordingProducer{}
	svc := NewOrderService(OrderServiceConfig{
		Partitions:  newTestRegistry(t),
		Broadcaster: hub,
		Events:      events,
		EventsTopic: "order-events",
	})
	return &orderFixture{svc: svc, hub: hub, events: events}
}

func twoDosas() *dto.PlaceOrderRequest {
	return &dto.PlaceOrderRequest{
		Items:       []dto.LineItemRequest{{Name: "Dosa", Qty: 2, Price: 50}},
		TotalAmount: 100,
	}
}

func TestOrderService_PlaceOrder(t *testing.T) {
	f := newOrderFixture(t)
	kitchen := subscribe(t, f.hub, broadcast.KitchenTopic("cafeluna"))
	otherKitchen := subscribe(t, f.hub, broadcast.KitchenTopic("bistro"))

	order, err := f.svc.PlaceOrder(context.Background(), "cafeluna", 5, twoDosas())
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, 5, order.TableNumber)
	assert.False(t, order.CreatedAt.IsZero())

	frame := nextFrame(t, kitchen)
	assert.Equal(t, broadcast.EventNewOrder, frame.Event)
	var sent domain.Order
	require.NoError(t, json.Unmarshal(frame.Data, &sent))
	assert.Equal(t, order.ID, sent.ID)
	noFrame(t, otherKitchen)

	assert.Equal(t, []string{OrderEventPlaced}, f.events.types())
}

func TestOrderService_PlaceOrderRejectsBadInput(t *testing.T) {
	f := newOrderFixture(t)
	kitchen := subscribe(t, f.hub, broadcast.KitchenTopic("cafeluna"))

	cases := map[string]*dto.PlaceOrderRequest{
		"no items":      {TotalAmount: 10},
		"zero quantity": {Items: []dto.LineItemRequest{{Name: "Tea", Qty: 0, Price: 10}}, TotalAmount: 10},
		"wrong total":   {Items: []dto.LineItemRequest{{Name: "Tea", Qty: 1, Price: 10}}, TotalAmount: 99},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.PlaceOrder(context.Background(), "cafeluna", 1, req)
			assert.True(t, domain.IsValidation(err), "got %v", err)
		})
	}

	noFrame(t, kitchen)
	orders, err := f.svc.ListAll(context.Background(), "cafeluna")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestOrderService_UpdateStatusNotifiesOnlyThatOrder(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	x, err := f.svc.PlaceOrder(ctx, "cafeluna", 1, twoDosas())
	require.NoError(t, err)
	y, err := f.svc.PlaceOrder(ctx, "cafeluna", 2, twoDosas())
	require.NoError(t, err)

	watchX := subscribe(t, f.hub, broadcast.OrderTopic(x.ID))
	watchY := subscribe(t, f.hub, broadcast.OrderTopic(y.ID))
	kitchen := subscribe(t, f.hub, broadcast.KitchenTopic("cafeluna"))

	_, err = f.svc.UpdateStatus(ctx, "cafeluna", x.ID, "preparing")
	require.NoError(t, err)
	updated, err := f.svc.UpdateStatus(ctx, "cafeluna", x.ID, "served")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusServed, updated.Status)

	nextFrame(t, watchX)
	frame := nextFrame(t, watchX)
	assert.Equal(t, broadcast.EventOrderStatusUpdate, frame.Event)
	var payload broadcast.StatusUpdate
	require.NoError(t, json.Unmarshal(frame.Data, &payload))
	assert.Equal(t, x.ID, payload.OrderID)
	assert.Equal(t, "served", payload.Status)
	assert.True(t, updated.UpdatedAt.Equal(payload.UpdatedAt))

	noFrame(t, watchY)
	nextFrame(t, kitchen)
	nextFrame(t, kitchen)

	assert.Equal(t, []string{OrderEventPlaced, OrderEventPlaced, OrderEventStatusChanged, OrderEventStatusChanged}, f.events.types())
}

func TestOrderService_UpdateStatusErrors(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order, err := f.svc.PlaceOrder(ctx, "cafeluna", 1, twoDosas())
	require.NoError(t, err)
	watch := subscribe(t, f.hub, broadcast.OrderTopic(order.ID))

	_, err = f.svc.UpdateStatus(ctx, "cafeluna", order.ID, "served")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "pending cannot skip to served")

	_, err = f.svc.UpdateStatus(ctx, "cafeluna", order.ID, "delivered")
	assert.True(t, domain.IsValidation(err))

	_, err = f.svc.UpdateStatus(ctx, "cafeluna", "missing", "preparing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.UpdateStatus(ctx, "bistro", order.ID, "preparing")
	assert.ErrorIs(t, err, domain.ErrNotFound, "orders are invisible to other tenants")

	noFrame(t, watch)

	_, err = f.svc.UpdateStatus(ctx, "cafeluna", order.ID, "cancelled")
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, "cafeluna", order.ID, "pending")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "cancelled is terminal")

	got, err := f.svc.GetOrder(ctx, "cafeluna", order.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, got.Status)
}

func TestOrderService_GetOrderRestrictedToTable(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order, err := f.svc.PlaceOrder(ctx, "cafeluna", 3, twoDosas())
	require.NoError(t, err)

	_, err = f.svc.GetOrder(ctx, "cafeluna", order.ID, 3)
	assert.NoError(t, err)
	_, err = f.svc.GetOrder(ctx, "cafeluna", order.ID, 4)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOrderService_ListActive(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	a, _ := f.svc.PlaceOrder(ctx, "cafeluna", 1, twoDosas())
	b, _ := f.svc.PlaceOrder(ctx, "cafeluna", 2, twoDosas())
	c, _ := f.svc.PlaceOrder(ctx, "cafeluna", 3, twoDosas())
	_, err := f.svc.UpdateStatus(ctx, "cafeluna", b.ID, "cancelled")
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, "cafeluna", c.ID, "preparing")
	require.NoError(t, err)

	active, err := f.svc.ListActive(ctx, "cafeluna")
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, c.ID, active[0].ID)
	assert.Equal(t, a.ID, active[1].ID)

	all, err := f.svc.ListAll(ctx, "cafeluna")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestOrderService_SideEffectFailuresAreSwallowed(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	events := &recordingProducer{err: errors.New("broker unreachable")}
	svc := NewOrderService(OrderServiceConfig{
		Partitions:  newTestRegistry(t),
		Broadcaster: failingPublisher{},
		Events:      events,
		Logger:      logger.FromCore(core, "test"),
	})

	order, err := svc.PlaceOrder(context.Background(), "cafeluna", 1, twoDosas())
	require.NoError(t, err)
	_, err = svc.UpdateStatus(context.Background(), "cafeluna", order.ID, "preparing")
	require.NoError(t, err)

	assert.Equal(t, 3, logs.FilterMessage("broadcast failed").Len())
	assert.Equal(t, 2, logs.FilterMessage("order event not recorded").Len())
}

func TestOrderService_UnreachableEventLogDoesNotDelay(t *testing.T) {
	producer, err := kafka.NewProducer(kafka.Config{
		Brokers:        []string{"127.0.0.1:1"},
		ClientID:       "ordering-test",
		ProduceTimeout: 2 * time.Second,
		OnError:        func(*kgo.Record, error) {},
	})
	require.NoError(t, err)
	t.Cleanup(producer.Close)

	svc := NewOrderService(OrderServiceConfig{
		Partitions:  newTestRegistry(t),
		Events:      producer,
		EventsTopic: "order-events",
	})

	start := time.Now()
	order, err := svc.PlaceOrder(context.Background(), "cafeluna", 1, twoDosas())
	require.NoError(t, err)
	_, err = svc.UpdateStatus(context.Background(), "cafeluna", order.ID, "preparing")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestOrderService_InvalidTenant(t *testing.T) {
	f := newOrderFixture(t)
	_, err := f.svc.PlaceOrder(context.Background(), "Bad Tenant!", 1, twoDosas())
	assert.True(t, domain.IsValidation(err))
}
