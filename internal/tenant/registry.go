package tenant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/werewolfcoder/OrderingSystem/internal/domain"
	"github.com/werewolfcoder/OrderingSystem/pkg/logger"
	"github.com/werewolfcoder/OrderingSystem/pkg/telemetry"
)

// ErrRegistryClosed is returned by Get after Close
var ErrRegistryClosed = errors.New("tenant registry closed")

// Registry maps tenant ids to open partitions. The first Get of a tenant
// opens its partition exactly once even under concurrent callers; failed
// opens are not remembered.
type Registry struct {
	opener      Opener
	log         *logger.Logger
	metrics     *telemetry.Metrics
	openTimeout time.Duration
	known       func(ctx context.Context, tenantID string) (bool, error)

	group singleflight.Group

	mu     sync.RWMutex
	parts  map[string]*Partition
	closed bool
}

// Option configures a Registry
type Option func(*Registry)

// WithLogger sets the registry logger
func WithLogger(l *logger.Logger) Option {
	return func(r *Registry) { r.log = l }
}

// WithMetrics records open partitions and open latency
func WithMetrics(m *telemetry.Metrics) Option {
	return func(r *Registry) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithOpenTimeout bounds each partition open
func WithOpenTimeout(d time.Duration) Option {
	return func(r *Registry) { r.openTimeout = d }
}

// WithKnownTenants makes the registry refuse tenants for which known
// reports false, so a forged hotel name never creates storage. The check runs
// only when a partition is not open yet.
func WithKnownTenants(known func(ctx context.Context, tenantID string) (bool, error)) Option {
	return func(r *Registry) { r.known = known }
}

// NewRegistry creates a registry backed by opener
func NewRegistry(opener Opener, opts ...Option) *Registry {
	r := &Registry{
		opener:      opener,
		log:         logger.NewNop(),
		metrics:     &telemetry.Metrics{},
		openTimeout: defaultOpenTimeout,
		parts:       make(map[string]*Partition),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the partition of tenantID, opening it on first use.
// Invalid ids fail with a *domain.ValidationError before any storage access,
// unknown tenants with domain.ErrNotFound, and open failures wrap
// domain.ErrStorageUnavailable.
func (r *Registry) Get(ctx context.Context, tenantID string) (*Partition, error) {
	if err := domain.ValidateTenantID(tenantID); err != nil {
		return nil, err
	}

	if p, err := r.lookup(tenantID); p != nil || err != nil {
		return p, err
	}

	ch := r.group.DoChan(tenantID, func() (any, error) {
		return r.open(ctx, tenantID)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Partition), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *Registry) lookup(tenantID string) (*Partition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, ErrRegistryClosed
	}
	return r.parts[tenantID], nil
}

// open runs once per tenant per flight. It detaches from the caller's
// cancellation so one impatient caller does not fail the others.
func (r *Registry) open(ctx context.Context, tenantID string) (*Partition, error) {
	if p, err := r.lookup(tenantID); p != nil || err != nil {
		return p, err
	}

	openCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.openTimeout)
	defer cancel()

	if r.known != nil {
		ok, err := r.known(openCtx, tenantID)
		if err != nil {
			return nil, storageUnavailable(tenantID, err)
		}
		if !ok {
			return nil, fmt.Errorf("tenant %s: %w", tenantID, domain.ErrNotFound)
		}
	}

	start := time.Now()
	p, err := r.opener.Open(openCtx, tenantID)
	r.metrics.PartitionOpenTime.Record(openCtx, time.Since(start).Seconds(), telemetry.TenantIDAttr(tenantID))
	if err != nil {
		r.log.WarnContext(ctx, "tenant partition open failed",
			zap.String("tenant_id", tenantID),
			zap.Error(err),
		)
		return nil, storageUnavailable(tenantID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		p.Close()
		return nil, ErrRegistryClosed
	}
	r.parts[tenantID] = p
	r.metrics.OpenPartitions.Add(openCtx, 1)

	r.log.InfoContext(ctx, "tenant partition opened",
		zap.String("tenant_id", tenantID),
		zap.Duration("took", time.Since(start)),
	)
	return p, nil
}

// Invalidate closes and forgets the partition of tenantID. The next Get
// opens a fresh one. Unknown tenants are ignored.
func (r *Registry) Invalidate(tenantID string) {
	r.mu.Lock()
	p, ok := r.parts[tenantID]
	delete(r.parts, tenantID)
	r.mu.Unlock()

	if !ok {
		return
	}
	p.Close()
	r.metrics.OpenPartitions.Add(context.Background(), -1)
	r.log.Info("tenant partition invalidated", zap.String("tenant_id", tenantID))
}

// Open returns the tenant ids currently held
func (r *Registry) Open() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.parts))
	for id := range r.parts {
		ids = append(ids, id)
	}
	return ids
}

// Warm opens the partition of every tenant list returns, so schema
// migrations run at startup instead of on a guest's first request. A tenant
// that fails to open is logged and skipped. Warm returns how many opened.
func (r *Registry) Warm(ctx context.Context, list func(ctx context.Context) ([]string, error)) (int, error) {
	ids, err := list(ctx)
	if err != nil {
		return 0, fmt.Errorf("list tenants: %w", err)
	}

	opened := 0
	for _, id := range ids {
		if _, err := r.Get(ctx, id); err != nil {
			if ctx.Err() != nil {
				return opened, ctx.Err()
			}
			r.log.Warn("tenant partition warm-up failed", zap.String("tenant_id", id), zap.Error(err))
			continue
		}
		opened++
	}
	return opened, nil
}

// Close closes every partition. Later Gets fail with ErrRegistryClosed.
func (r *Registry) Close() {
	r.mu.Lock()
	parts := r.parts
	r.parts = make(map[string]*Partition)
	r.closed = true
	r.mu.Unlock()

	for _, p := range parts {
		p.Close()
	}
	r.metrics.OpenPartitions.Add(context.Background(), -int64(len(parts)))
}
