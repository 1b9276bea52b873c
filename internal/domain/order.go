package domain

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusServed    OrderStatus = "served"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// validTransitions maps a status to the statuses it may move to.
// served and cancelled are terminal.
var validTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusPreparing, OrderStatusCancelled},
	OrderStatusPreparing: {OrderStatusServed, OrderStatusCancelled},
	OrderStatusServed:    {},
	OrderStatusCancelled: {},
}

// ParseOrderStatus converts client input into a known status
func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(s)
	if !st.IsValid() {
		return "", NewValidationError("status", fmt.Sprintf("unknown status %q", s))
	}
	return st, nil
}

// IsValid returns true if s is a known status
func (s OrderStatus) IsValid() bool {
	_, ok := validTransitions[s]
	return ok
}

// IsTerminal returns true for served and cancelled
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusServed || s == OrderStatusCancelled
}

// IsActive returns true for statuses shown on the kitchen queue
func (s OrderStatus) IsActive() bool {
	return s == OrderStatusPending || s == OrderStatusPreparing
}

// CanTransitionTo returns true if moving from s to target is allowed
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// LineItem is a snapshot of a dish at order time. It is never re-read from
// the menu, so later price edits do not change past orders.
type LineItem struct {
	Name  string  `json:"name"`
	Qty   int     `json:"qty"`
	Price float64 `json:"price"`
}

// Order belongs to exactly one tenant partition
type Order struct {
	ID          string      `json:"id"`
	Items       []LineItem  `json:"items"`
	TotalAmount float64     `json:"totalAmount"`
	TableNumber int         `json:"tableNumber"`
	Status      OrderStatus `json:"status"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// totalTolerance absorbs float rounding in client-computed totals
const totalTolerance = 0.01

// NewOrder validates line items and returns a pending order
func NewOrder(id string, table int, items []LineItem, total float64, now time.Time) (*Order, error) {
	ve := &ValidationError{}
	if table <= 0 {
		ve.Add("tableNumber", "must be positive")
	}
	if len(items) == 0 {
		ve.Add("items", "must contain at least one item")
	}

	var sum float64
	for i, it := range items {
		field := "items[" + strconv.Itoa(i) + "]"
		switch {
		case it.Name == "":
			ve.Add(field+".name", "is required")
		case it.Qty < 1:
			ve.Add(field+".qty", "must be at least 1")
		case !validAmount(it.Price):
			ve.Add(field+".price", "must be a number between 0 and 9999999999.99")
		}
		sum += float64(it.Qty) * it.Price
	}

	if total <= 0 || !validAmount(total) {
		ve.Add("totalAmount", "must be positive and at most 9999999999.99")
	} else if len(items) > 0 && math.Abs(sum-total) > totalTolerance {
		ve.Add("totalAmount", fmt.Sprintf("does not match items (%.2f)", sum))
	}

	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	snapshot := make([]LineItem, len(items))
	copy(snapshot, items)

	return &Order{
		ID:          id,
		Items:       snapshot,
		TotalAmount: total,
		TableNumber: table,
		Status:      OrderStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// TransitionTo moves the order to target or returns ErrInvalidTransition
func (o *Order) TransitionTo(target OrderStatus, now time.Time) error {
	if !o.Status.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, target)
	}
	o.Status = target
	o.UpdatedAt = now
	return nil
}

// Clone returns a deep copy, so callers cannot mutate stored line items
func (o *Order) Clone() *Order {
	c := *o
	c.Items = make([]LineItem, len(o.Items))
	copy(c.Items, o.Items)
	return &c
}
