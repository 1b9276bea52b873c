package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/werewolfcoder/OrderingSystem/internal/tenant"
)

// PartitionSource resolves a tenant id to its storage partition
type PartitionSource interface {
	Get(ctx context.Context, tenantID string) (*tenant.Partition, error)
}

// Publisher pushes real-time events to subscribers of a topic
type Publisher interface {
	Publish(ctx context.Context, topic, event string, payload any) error
}

// Clock and ID generation are swappable in tests
var (
	now   = func() time.Time { return time.Now().UTC() }
	newID = func() string { return uuid.New().String() }
)
