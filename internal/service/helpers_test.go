package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/werewolfcoder/OrderingSystem/internal/broadcast"
	"github.com/werewolfcoder/OrderingSystem/internal/tenant"
	"github.com/werewolfcoder/OrderingSystem/pkg/auth"
	"github.com/werewolfcoder/OrderingSystem/pkg/kafka"
)

func init() {
	var seq atomic.Int64
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	// strictly increasing clock and readable ids keep ordering assertions stable
	now = func() time.Time { return base.Add(time.Duration(seq.Add(1)) * time.Second) }
	var ids atomic.Int64
	newID = func() string { return "id-" + strconv.FormatInt(ids.Add(1), 10) }
}

func newTestTokens() *auth.Manager {
	return auth.NewManager(auth.Config{Secret: "test-secret", Issuer: "ordering-test"})
}

func newTestRegistry(t *testing.T) *tenant.Registry {
	t.Helper()
	reg := tenant.NewRegistry(tenant.NewMemoryOpener())
	t.Cleanup(reg.Close)
	return reg
}

// subscribe registers a hub client on topic and returns it
func subscribe(t *testing.T, hub *broadcast.Hub, topic string) *broadcast.Client {
	t.Helper()
	c := hub.Register(context.Background(), topic, "test")
	require.NoError(t, hub.Subscribe(c, topic))
	return c
}

func nextFrame(t *testing.T, c *broadcast.Client) broadcast.Frame {
	t.Helper()
	select {
	case raw := <-c.Send():
		var f broadcast.Frame
		require.NoError(t, json.Unmarshal(raw, &f))
		return f
	case <-time.After(time.Second):
		t.Fatal("no frame")
		return broadcast.Frame{}
	}
}

func noFrame(t *testing.T, c *broadcast.Client) {
	t.Helper()
	select {
	case raw := <-c.Send():
		t.Fatalf("unexpected frame %s", raw)
	default:
	}
}

// recordingProducer captures order events
type recordingProducer struct {
	mu     sync.Mutex
	events []OrderEvent
	err    error
}

func (p *recordingProducer) Publish(ctx context.Context, topic string, event kafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event.(OrderEvent))
	return nil
}

func (p *recordingProducer) Close() {}

func (p *recordingProducer) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// failingPublisher simulates a broken real-time layer
type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, string, string, any) error {
	return errors.New("hub down")
}
