package dto

import "github.com/werewolfcoder/OrderingSystem/internal/domain"

// CategoryRequest creates or renames a category
type CategoryRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

// MenuItemRequest is the multipart form of a menu item. The image file is
// read separately from the "image" form field.
type MenuItemRequest struct {
	Name        string   `form:"name" json:"name" binding:"required,max=200"`
	Price       *float64 `form:"price" json:"price" binding:"required,min=0,max=9999999999.99"`
	Description string   `form:"description" json:"description" binding:"max=2000"`
	Category    string   `form:"category" json:"category" binding:"required"`
}

// MenuResponse is what a guest sees after scanning a table QR
type MenuResponse struct {
	Categories []*domain.Category `json:"categories"`
	Items      []*domain.MenuItem `json:"items"`
}
