// Package broadcast fans order events out to connected kitchen dashboards
// and guest devices.
package broadcast

import (
	"encoding/json"
	"time"
)

// Server to client events
const (
	EventNewOrder          = "new_order"
	EventOrderStatusUpdate = "order_status_update"
)

// Client to server events
const (
	EventJoinOrderRoom  = "join_order_room"
	EventLeaveOrderRoom = "leave_order_room"
)

// KitchenTopic is joined implicitly by every chef connection of tenantID
func KitchenTopic(tenantID string) string {
	return "kitchen_" + tenantID
}

// OrderTopic is joined explicitly by the guest that placed the order
func OrderTopic(orderID string) string {
	return "order_" + orderID
}

// Frame is the JSON envelope exchanged on the wire in both directions
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// StatusUpdate is the payload of order_status_update
type StatusUpdate struct {
	OrderID   string    `json:"orderId"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// encodeFrame marshals payload into a ready-to-send frame
func encodeFrame(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: event, Data: data})
}
