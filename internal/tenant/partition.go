// Package tenant resolves tenant ids to isolated storage partitions.
package tenant

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/werewolfcoder/OrderingSystem/internal/domain"
	"github.com/werewolfcoder/OrderingSystem/internal/repository"
	"github.com/werewolfcoder/OrderingSystem/pkg/database"
)

// Partition is the storage handle of one tenant. Everything reached through
// it is scoped to that tenant only.
type Partition struct {
	TenantID   string
	Chefs      repository.ChefRepository
	Categories repository.CategoryRepository
	MenuItems  repository.MenuItemRepository
	Orders     repository.OrderRepository

	close func()
}

// repositorySet is satisfied by both MemoryStore and PostgresPartition
type repositorySet interface {
	Chefs() repository.ChefRepository
	Categories() repository.CategoryRepository
	MenuItems() repository.MenuItemRepository
	Orders() repository.OrderRepository
}

func newPartition(tenantID string, repos repositorySet, closeFn func()) *Partition {
	return &Partition{
		TenantID:   tenantID,
		Chefs:      repos.Chefs(),
		Categories: repos.Categories(),
		MenuItems:  repos.MenuItems(),
		Orders:     repos.Orders(),
		close:      closeFn,
	}
}

// Close releases the partition's connections
func (p *Partition) Close() {
	if p.close != nil {
		p.close()
	}
}

// Opener creates the partition for an already validated tenant id
type Opener interface {
	Open(ctx context.Context, tenantID string) (*Partition, error)
}

// OpenerFunc adapts a function to Opener
type OpenerFunc func(ctx context.Context, tenantID string) (*Partition, error)

func (f OpenerFunc) Open(ctx context.Context, tenantID string) (*Partition, error) {
	return f(ctx, tenantID)
}

// PostgresOpener opens one pool per tenant with search_path pinned to
// <SchemaPrefix><tenantID> and migrates the schema on first use.
type PostgresOpener struct {
	Base         database.PostgresConfig
	SchemaPrefix string
}

// NewPostgresOpener copies base and sizes tenant pools with maxConns
func NewPostgresOpener(base *database.PostgresConfig, schemaPrefix string, maxConns int32) *PostgresOpener {
	cfg := *base
	if maxConns > 0 {
		cfg.MaxConns = maxConns
		if cfg.MinConns > maxConns {
			cfg.MinConns = 0
		}
	}
	// Fail fast; the registry surfaces the error and retries on the next Get
	cfg.MaxRetries = 0
	return &PostgresOpener{Base: cfg, SchemaPrefix: schemaPrefix}
}

// SchemaName returns the partition selector for tenantID
func (o *PostgresOpener) SchemaName(tenantID string) string {
	return o.SchemaPrefix + tenantID
}

func (o *PostgresOpener) Open(ctx context.Context, tenantID string) (*Partition, error) {
	if err := domain.ValidateTenantID(tenantID); err != nil {
		return nil, err
	}

	cfg := o.Base
	cfg.SearchPath = o.SchemaName(tenantID)

	db, err := database.NewPostgres(ctx, &cfg)
	if err != nil {
		return nil, err
	}
	if err := repository.MigratePartition(ctx, db.Pool(), cfg.SearchPath); err != nil {
		db.Close()
		return nil, err
	}

	return newPartition(tenantID, repository.NewPostgresPartition(db.Pool()), db.Close), nil
}

// MemoryOpener keeps every tenant in process memory. Stores survive
// Invalidate so that reopening a tenant sees its earlier data.
type MemoryOpener struct {
	mu     sync.Mutex
	stores map[string]*repository.MemoryStore
}

// NewMemoryOpener creates an empty in-memory backend
func NewMemoryOpener() *MemoryOpener {
	return &MemoryOpener{
		stores: make(map[string]*repository.MemoryStore),
	}
}

func (o *MemoryOpener) Open(ctx context.Context, tenantID string) (*Partition, error) {
	if err := domain.ValidateTenantID(tenantID); err != nil {
		return nil, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	s, ok := o.stores[tenantID]
	if !ok {
		s = repository.NewMemoryStore()
		o.stores[tenantID] = s
	}
	return newPartition(tenantID, s, nil), nil
}

// defaultOpenTimeout bounds a single partition open
const defaultOpenTimeout = 15 * time.Second

func storageUnavailable(tenantID string, err error) error {
	return fmt.Errorf("%w: tenant %s: %w", domain.ErrStorageUnavailable, tenantID, err)
}
