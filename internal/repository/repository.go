package repository

import (
	"context"
	"time"

	"github.com/werewolfcoder/OrderingSystem/internal/domain"
)

// Lookups return domain.ErrNotFound for absent records and creates return
// domain.ErrConflict on uniqueness violations.

// AdminRepository stores hotel admins in the global (non-tenant) store
type AdminRepository interface {
	// Create fails with ErrConflict when username, email or tenant is taken
	Create(ctx context.Context, admin *domain.Admin) error
	GetByID(ctx context.Context, id string) (*domain.Admin, error)
	GetByUsername(ctx context.Context, username string) (*domain.Admin, error)
	// TenantExists reports whether an admin registered tenantID
	TenantExists(ctx context.Context, tenantID string) (bool, error)
	// ListTenantIDs returns every registered tenant id
	ListTenantIDs(ctx context.Context) ([]string, error)
}

// ChefRepository stores chefs of one tenant
type ChefRepository interface {
	Create(ctx context.Context, chef *domain.Chef) error
	GetByID(ctx context.Context, id string) (*domain.Chef, error)
	GetByChefID(ctx context.Context, chefID string) (*domain.Chef, error)
	List(ctx context.Context) ([]*domain.Chef, error)
	Delete(ctx context.Context, id string) error
}

// CategoryRepository stores categories of one tenant
type CategoryRepository interface {
	// Create fails with ErrConflict on a case-insensitive duplicate name
	Create(ctx context.Context, category *domain.Category) error
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	List(ctx context.Context) ([]*domain.Category, error)
	Rename(ctx context.Context, id, name string) (*domain.Category, error)
	// Delete fails with ErrCategoryInUse while menu items reference it
	Delete(ctx context.Context, id string) error
}

// MenuItemRepository stores menu items of one tenant
type MenuItemRepository interface {
	Create(ctx context.Context, item *domain.MenuItem) error
	GetByID(ctx context.Context, id string) (*domain.MenuItem, error)
	List(ctx context.Context) ([]*domain.MenuItem, error)
	Update(ctx context.Context, item *domain.MenuItem) error
	Delete(ctx context.Context, id string) error
}

// OrderRepository stores orders of one tenant
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// Transition atomically checks the transition table against the stored
	// status and applies it. It returns ErrInvalidTransition when the move is
	// not allowed from the current stored status.
	Transition(ctx context.Context, id string, to domain.OrderStatus, at time.Time) (*domain.Order, error)
	// ListByStatus returns orders in any of statuses, newest first
	ListByStatus(ctx context.Context, statuses ...domain.OrderStatus) ([]*domain.Order, error)
	// List returns all orders, newest first
	List(ctx context.Context) ([]*domain.Order, error)
}
