package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/werewolfcoder/OrderingSystem/internal/domain"
)

// MemoryStore holds one tenant partition in memory. Used by tests and the
// "memory" storage driver.
type MemoryStore struct {
	mu         sync.RWMutex
	chefs      map[string]*domain.Chef
	categories map[string]*domain.Category
	items      map[string]*domain.MenuItem
	orders     map[string]*domain.Order
}

// NewMemoryStore creates an empty partition
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		chefs:      make(map[string]*domain.Chef),
		categories: make(map[string]*domain.Category),
		items:      make(map[string]*domain.MenuItem),
		orders:     make(map[string]*domain.Order),
	}
}

func (s *MemoryStore) Chefs() ChefRepository          { return memoryChefs{s} }
func (s *MemoryStore) Categories() CategoryRepository { return memoryCategories{s} }
func (s *MemoryStore) MenuItems() MenuItemRepository  { return memoryMenuItems{s} }
func (s *MemoryStore) Orders() OrderRepository        { return memoryOrders{s} }

type memoryChefs struct{ s *MemoryStore }

func (r memoryChefs) Create(ctx context.Context, chef *domain.Chef) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, c := range r.s.chefs {
		if c.ChefID == chef.ChefID {
			return domain.ErrConflict
		}
	}
	c := *chef
	r.s.chefs[chef.ID] = &c
	return nil
}

func (r memoryChefs) GetByID(ctx context.Context, id string) (*domain.Chef, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.chefs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r memoryChefs) GetByChefID(ctx context.Context, chefID string) (*domain.Chef, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, c := range r.s.chefs {
		if c.ChefID == chefID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memoryChefs) List(ctx context.Context) ([]*domain.Chef, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*domain.Chef, 0, len(r.s.chefs))
	for _, c := range r.s.chefs {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memoryChefs) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.chefs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.chefs, id)
	return nil
}

type memoryCategories struct{ s *MemoryStore }

func (r memoryCategories) nameTaken(name, exceptID string) bool {
	for id, c := range r.s.categories {
		if id != exceptID && strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

func (r memoryCategories) Create(ctx context.Context, category *domain.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.nameTaken(category.Name, "") {
		return domain.ErrConflict
	}
	c := *category
	r.s.categories[category.ID] = &c
	return nil
}

func (r memoryCategories) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.categories[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r memoryCategories) List(ctx context.Context) ([]*domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*domain.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memoryCategories) Rename(ctx context.Context, id, name string) (*domain.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.categories[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if r.nameTaken(name, id) {
		return nil, domain.ErrConflict
	}
	c.Name = name
	cp := *c
	return &cp, nil
}

func (r memoryCategories) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.categories[id]; !ok {
		return domain.ErrNotFound
	}
	for _, it := range r.s.items {
		if it.CategoryID == id {
			return domain.ErrCategoryInUse
		}
	}
	delete(r.s.categories, id)
	return nil
}

type memoryMenuItems struct{ s *MemoryStore }

func (r memoryMenuItems) Create(ctx context.Context, item *domain.MenuItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.categories[item.CategoryID]; !ok {
		return domain.NewValidationError("category", "does not exist")
	}
	it := *item
	r.s.items[item.ID] = &it
	return nil
}

func (r memoryMenuItems) GetByID(ctx context.Context, id string) (*domain.MenuItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	it, ok := r.s.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *it
	return &cp, nil
}

func (r memoryMenuItems) List(ctx context.Context) ([]*domain.MenuItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*domain.MenuItem, 0, len(r.s.items))
	for _, it := range r.s.items {
		cp := *it
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memoryMenuItems) Update(ctx context.Context, item *domain.MenuItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.items[item.ID]; !ok {
		return domain.ErrNotFound
	}
	if _, ok := r.s.categories[item.CategoryID]; !ok {
		return domain.NewValidationError("category", "does not exist")
	}
	it := *item
	r.s.items[item.ID] = &it
	return nil
}

func (r memoryMenuItems) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.items, id)
	return nil
}

type memoryOrders struct{ s *MemoryStore }

func (r memoryOrders) Create(ctx context.Context, order *domain.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.orders[order.ID]; ok {
		return domain.ErrConflict
	}
	r.s.orders[order.ID] = order.Clone()
	return nil
}

func (r memoryOrders) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	o, ok := r.s.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return o.Clone(), nil
}

func (r memoryOrders) Transition(ctx context.Context, id string, to domain.OrderStatus, at time.Time) (*domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if err := o.TransitionTo(to, at); err != nil {
		return nil, err
	}
	return o.Clone(), nil
}

func (r memoryOrders) ListByStatus(ctx context.Context, statuses ...domain.OrderStatus) ([]*domain.Order, error) {
	want := make(map[domain.OrderStatus]bool, len(statuses))
	for _, st := range statuses {
		want[st] = true
	}
	return r.collect(func(o *domain.Order) bool { return want[o.Status] }), nil
}

func (r memoryOrders) List(ctx context.Context) ([]*domain.Order, error) {
	return r.collect(func(*domain.Order) bool { return true }), nil
}

func (r memoryOrders) collect(keep func(*domain.Order) bool) []*domain.Order {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*domain.Order, 0)
	for _, o := range r.s.orders {
		if keep(o) {
			out = append(out, o.Clone())
		}
	}
	sortNewestFirst(out)
	return out
}

func sortNewestFirst(orders []*domain.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID > orders[j].ID
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}

// MemoryAdminRepository is the in-memory global admin store
type MemoryAdminRepository struct {
	mu     sync.RWMutex
	admins map[string]*domain.Admin
}

// NewMemoryAdminRepository creates an empty admin store
func NewMemoryAdminRepository() *MemoryAdminRepository {
	return &MemoryAdminRepository{admins: make(map[string]*domain.Admin)}
}

func (r *MemoryAdminRepository) Create(ctx context.Context, admin *domain.Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.admins {
		if a.Username == admin.Username || strings.EqualFold(a.Email, admin.Email) || a.TenantID == admin.TenantID {
			return domain.ErrConflict
		}
	}
	a := *admin
	r.admins[admin.ID] = &a
	return nil
}

func (r *MemoryAdminRepository) GetByID(ctx context.Context, id string) (*domain.Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.admins[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *MemoryAdminRepository) GetByUsername(ctx context.Context, username string) (*domain.Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.admins {
		if a.Username == username {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MemoryAdminRepository) TenantExists(ctx context.Context, tenantID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.admins {
		if a.TenantID == tenantID {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryAdminRepository) ListTenantIDs(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.admins))
	for _, a := range r.admins {
		ids = append(ids, a.TenantID)
	}
	sort.Strings(ids)
	return ids, nil
}
