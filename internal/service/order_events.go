package service

import (
	"time"

	"github.com/werewolfcoder/OrderingSystem/internal/domain"
)

// Order event types written to the order event log
const (
	OrderEventPlaced        = "order.placed"
	OrderEventStatusChanged = "order.status_changed"
)

// OrderEvent is one lifecycle step of an order on the event log
type OrderEvent struct {
	Type        string             `json:"type"`
	TenantID    string             `json:"tenantId"`
	OrderID     string             `json:"orderId"`
	TableNumber int                `json:"tableNumber"`
	Status      domain.OrderStatus `json:"status"`
	TotalAmount float64            `json:"totalAmount"`
	OccurredAt  time.Time          `json:"occurredAt"`
}

// Key keeps every event of one order on the same partition
func (e OrderEvent) Key() string {
	return e.TenantID + "/" + e.OrderID
}

func newOrderEvent(eventType, tenantID string, o *domain.Order) OrderEvent {
	return OrderEvent{
		Type:        eventType,
		TenantID:    tenantID,
		OrderID:     o.ID,
		TableNumber: o.TableNumber,
		Status:      o.Status,
		TotalAmount: o.TotalAmount,
		OccurredAt:  o.UpdatedAt,
	}
}
