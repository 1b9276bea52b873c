package dto

import "github.com/werewolfcoder/OrderingSystem/internal/domain"

// LineItemRequest is one dish in an order as sent by the guest
type LineItemRequest struct {
	Name  string  `json:"name" binding:"required"`
	Qty   int     `json:"qty" binding:"required,min=1"`
	Price float64 `json:"price" binding:"min=0,max=9999999999.99"`
}

// PlaceOrderRequest represents a guest order. Table and tenant come from
// the guest token, never from the body.
type PlaceOrderRequest struct {
	Items       []LineItemRequest `json:"items" binding:"required,min=1,dive"`
	TotalAmount float64           `json:"totalAmount" binding:"required,gt=0,max=9999999999.99"`
}

// LineItems converts the request into domain snapshots
func (r *PlaceOrderRequest) LineItems() []domain.LineItem {
	items := make([]domain.LineItem, len(r.Items))
	for i, it := range r.Items {
		items[i] = domain.LineItem{Name: it.Name, Qty: it.Qty, Price: it.Price}
	}
	return items
}

// UpdateOrderStatusRequest represents a chef moving an order along
type UpdateOrderStatusRequest struct {
	OrderID string `json:"orderId" binding:"required"`
	Status  string `json:"status" binding:"required"`
}

// OrdersResponse wraps an order list
type OrdersResponse struct {
	Orders []*domain.Order `json:"orders"`
}
