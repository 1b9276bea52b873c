package domain

import "time"

// Category groups menu items. Names are unique per tenant, case-insensitively.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// MenuItem is a dish on a tenant's menu
type MenuItem struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	Description string    `json:"description"`
	CategoryID  string    `json:"categoryId"`
	Image       string    `json:"image"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Validate checks the fields an admin supplies
func (m *MenuItem) Validate() error {
	ve := &ValidationError{}
	if m.Name == "" {
		ve.Add("name", "is required")
	}
	if !validAmount(m.Price) {
		ve.Add("price", "must be a number between 0 and 9999999999.99")
	}
	if m.CategoryID == "" {
		ve.Add("category", "is required")
	}
	return ve.OrNil()
}
