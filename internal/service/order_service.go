package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/werewolfcoder/OrderingSystem/internal/broadcast"
	"github.com/werewolfcoder/OrderingSystem/internal/domain"
	"github.com/werewolfcoder/OrderingSystem/internal/dto"
	"github.com/werewolfcoder/OrderingSystem/pkg/kafka"
	"github.com/werewolfcoder/OrderingSystem/pkg/logger"
	"github.com/werewolfcoder/OrderingSystem/pkg/telemetry"
)

// OrderService runs the order lifecycle inside a tenant partition
type OrderService interface {
	// PlaceOrder records a pending order for a table and notifies the kitchen
	PlaceOrder(ctx context.Context, tenantID string, table int, req *dto.PlaceOrderRequest) (*domain.Order, error)
	// UpdateStatus applies a transition and notifies the order's watchers
	UpdateStatus(ctx context.Context, tenantID, orderID, status string) (*domain.Order, error)
	// GetOrder returns one order. A positive table restricts the lookup to
	// orders of that table; others look absent.
	GetOrder(ctx context.Context, tenantID, orderID string, table int) (*domain.Order, error)
	// ListActive returns pending and preparing orders, newest first
	ListActive(ctx context.Context, tenantID string) ([]*domain.Order, error)
	// ListAll returns the order history, newest first
	ListAll(ctx context.Context, tenantID string) ([]*domain.Order, error)
}

// OrderServiceConfig wires an OrderService
type OrderServiceConfig struct {
	Partitions  PartitionSource
	Broadcaster Publisher
	Events      kafka.Producer
	EventsTopic string
	Metrics     *telemetry.Metrics
	Logger      *logger.Logger
}

type orderService struct {
	partitions  PartitionSource
	broadcaster Publisher
	events      kafka.Producer
	eventsTopic string
	metrics     *telemetry.Metrics
	log         *logger.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(cfg OrderServiceConfig) OrderService {
	s := &orderService{
		partitions:  cfg.Partitions,
		broadcaster: cfg.Broadcaster,
		events:      cfg.Events,
		eventsTopic: cfg.EventsTopic,
		metrics:     cfg.Metrics,
		log:         cfg.Logger,
	}
	if s.events == nil {
		s.events = kafka.NoopProducer{}
	}
	if s.metrics == nil {
		s.metrics = &telemetry.Metrics{}
	}
	if s.log == nil {
		s.log = logger.NewNop()
	}
	return s
}

func (s *orderService) PlaceOrder(ctx context.Context, tenantID string, table int, req *dto.PlaceOrderRequest) (order *domain.Order, err error) {
	ctx, span := telemetry.StartSpan(ctx, "order.place", telemetry.TenantIDAttr(tenantID))
	defer func() { telemetry.EndSpan(span, err) }()

	order, err = domain.NewOrder(newID(), table, req.LineItems(), req.TotalAmount, now())
	if err != nil {
		return nil, err
	}

	p, err := s.partitions.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if err := p.Orders.Create(ctx, order); err != nil {
		return nil, storageError(err)
	}

	s.metrics.OrdersPlaced.Inc(ctx, telemetry.TenantIDAttr(tenantID))
	s.log.InfoContext(ctx, "order placed",
		zap.String("tenant_id", tenantID),
		zap.String("order_id", order.ID),
		zap.Int("table", table),
		zap.Float64("total", order.TotalAmount),
	)

	s.publish(ctx, broadcast.KitchenTopic(tenantID), broadcast.EventNewOrder, order)
	s.appendEvent(ctx, newOrderEvent(OrderEventPlaced, tenantID, order))
	return order, nil
}

func (s *orderService) UpdateStatus(ctx context.Context, tenantID, orderID, status string) (order *domain.Order, err error) {
	ctx, span := telemetry.StartSpan(ctx, "order.update_status",
		telemetry.TenantIDAttr(tenantID),
		telemetry.OrderIDAttr(orderID),
		telemetry.OrderStatusAttr(status),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	target, err := domain.ParseOrderStatus(status)
	if err != nil {
		return nil, err
	}

	p, err := s.partitions.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	order, err = p.Orders.Transition(ctx, orderID, target, now())
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			s.metrics.InvalidTransitions.Inc(ctx, telemetry.TenantIDAttr(tenantID), telemetry.OrderStatusAttr(status))
		}
		return nil, storageError(err)
	}

	s.metrics.StatusUpdates.Inc(ctx, telemetry.TenantIDAttr(tenantID), telemetry.OrderStatusAttr(status))
	s.log.InfoContext(ctx, "order status updated",
		zap.String("tenant_id", tenantID),
		zap.String("order_id", orderID),
		zap.String("status", status),
	)

	update := broadcast.StatusUpdate{
		OrderID:   order.ID,
		Status:    string(order.Status),
		UpdatedAt: order.UpdatedAt,
	}
	s.publish(ctx, broadcast.OrderTopic(order.ID), broadcast.EventOrderStatusUpdate, update)
	s.publish(ctx, broadcast.KitchenTopic(tenantID), broadcast.EventOrderStatusUpdate, update)
	s.appendEvent(ctx, newOrderEvent(OrderEventStatusChanged, tenantID, order))
	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, tenantID, orderID string, table int) (*domain.Order, error) {
	p, err := s.partitions.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	order, err := p.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, storageError(err)
	}
	if table > 0 && order.TableNumber != table {
		return nil, domain.ErrNotFound
	}
	return order, nil
}

func (s *orderService) ListActive(ctx context.Context, tenantID string) ([]*domain.Order, error) {
	p, err := s.partitions.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	orders, err := p.Orders.ListByStatus(ctx, domain.OrderStatusPending, domain.OrderStatusPreparing)
	return orders, storageError(err)
}

func (s *orderService) ListAll(ctx context.Context, tenantID string) ([]*domain.Order, error) {
	p, err := s.partitions.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	orders, err := p.Orders.List(ctx)
	return orders, storageError(err)
}

// publish never fails the request; a missed event is recovered by the
// client on its next fetch.
func (s *orderService) publish(ctx context.Context, topic, event string, payload any) {
	if s.broadcaster == nil {
		return
	}
	if err := s.broadcaster.Publish(ctx, topic, event, payload); err != nil {
		s.log.WarnContext(ctx, "broadcast failed",
			zap.String("topic", topic),
			zap.String("event", event),
			zap.Error(err),
		)
	}
}

func (s *orderService) appendEvent(ctx context.Context, ev OrderEvent) {
	if err := s.events.Publish(ctx, s.eventsTopic, ev); err != nil {
		s.log.WarnContext(ctx, "order event not recorded",
			zap.String("type", ev.Type),
			zap.String("order_id", ev.OrderID),
			zap.Error(err),
		)
	}
}
