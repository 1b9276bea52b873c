package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricOpts holds options for creating metrics
type MetricOpts struct {
	Name        string
	Description string
	Unit        string
}

// Counter wraps an OTel counter. A nil *Counter is a no-op.
type Counter struct {
	counter metric.Int64Counter
}

// NewCounter creates a counter on meter
func NewCounter(meter metric.Meter, opts MetricOpts) (*Counter, error) {
	c, err := meter.Int64Counter(opts.Name,
		metric.WithDescription(opts.Description),
		metric.WithUnit(opts.Unit),
	)
	if err != nil {
		return nil, err
	}
	return &Counter{counter: c}, nil
}

// Inc increments the counter by 1
func (c *Counter) Inc(ctx context.Context, attrs ...attribute.KeyValue) {
	if c == nil {
		return
	}
	c.counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// UpDownCounter wraps an OTel up-down counter. A nil *UpDownCounter is a no-op.
type UpDownCounter struct {
	counter metric.Int64UpDownCounter
}

// NewUpDownCounter creates an up-down counter on meter
func NewUpDownCounter(meter metric.Meter, opts MetricOpts) (*UpDownCounter, error) {
	c, err := meter.Int64UpDownCounter(opts.Name,
		metric.WithDescription(opts.Description),
		metric.WithUnit(opts.Unit),
	)
	if err != nil {
		return nil, err
	}
	return &UpDownCounter{counter: c}, nil
}

// Add adds value, which may be negative
func (c *UpDownCounter) Add(ctx context.Context, value int64, attrs ...attribute.KeyValue) {
	if c == nil {
		return
	}
	c.counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

// Histogram wraps an OTel float histogram. A nil *Histogram is a no-op.
type Histogram struct {
	histogram metric.Float64Histogram
}

// NewHistogram creates a histogram on meter with optional bucket boundaries
func NewHistogram(meter metric.Meter, opts MetricOpts, boundaries ...float64) (*Histogram, error) {
	options := []metric.Float64HistogramOption{
		metric.WithDescription(opts.Description),
		metric.WithUnit(opts.Unit),
	}
	if len(boundaries) > 0 {
		options = append(options, metric.WithExplicitBucketBoundaries(boundaries...))
	}
	h, err := meter.Float64Histogram(opts.Name, options...)
	if err != nil {
		return nil, err
	}
	return &Histogram{histogram: h}, nil
}

// Record records a value
func (h *Histogram) Record(ctx context.Context, value float64, attrs ...attribute.KeyValue) {
	if h == nil {
		return
	}
	h.histogram.Record(ctx, value, metric.WithAttributes(attrs...))
}

// Metrics is the set of instruments recorded by the ordering service.
// The zero value records nothing.
type Metrics struct {
	OrdersPlaced       *Counter
	StatusUpdates      *Counter
	InvalidTransitions *Counter
	BroadcastDropped   *Counter
	LiveConnections    *UpDownCounter
	OpenPartitions     *UpDownCounter
	PartitionOpenTime  *Histogram
}

// NewMetrics registers all instruments on meter
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m    Metrics
		errs []error
		err  error
	)

	m.OrdersPlaced, err = NewCounter(meter, MetricOpts{
		Name: "orders_placed_total", Description: "Orders accepted from guests", Unit: "{order}",
	})
	errs = append(errs, err)
	m.StatusUpdates, err = NewCounter(meter, MetricOpts{
		Name: "order_status_updates_total", Description: "Applied order status transitions", Unit: "{update}",
	})
	errs = append(errs, err)
	m.InvalidTransitions, err = NewCounter(meter, MetricOpts{
		Name: "order_invalid_transitions_total", Description: "Rejected order status transitions", Unit: "{update}",
	})
	errs = append(errs, err)
	m.BroadcastDropped, err = NewCounter(meter, MetricOpts{
		Name: "broadcast_dropped_total", Description: "Events not delivered to a slow subscriber", Unit: "{event}",
	})
	errs = append(errs, err)
	m.LiveConnections, err = NewUpDownCounter(meter, MetricOpts{
		Name: "realtime_connections", Description: "Open real-time connections", Unit: "{connection}",
	})
	errs = append(errs, err)
	m.OpenPartitions, err = NewUpDownCounter(meter, MetricOpts{
		Name: "tenant_partitions_open", Description: "Tenant partitions held by the registry", Unit: "{partition}",
	})
	errs = append(errs, err)
	m.PartitionOpenTime, err = NewHistogram(meter, MetricOpts{
		Name: "tenant_partition_open_seconds", Description: "Time to open a tenant partition", Unit: "s",
	}, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5)
	errs = append(errs, err)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &m, nil
}

// Attribute keys
const (
	AttrTenantID    = "tenant.id"
	AttrOrderID     = "order.id"
	AttrOrderStatus = "order.status"
	AttrTopic       = "broadcast.topic"
	AttrTokenKind   = "token.kind"
)

func TenantIDAttr(tenantID string) attribute.KeyValue {
	return attribute.String(AttrTenantID, tenantID)
}

func OrderIDAttr(orderID string) attribute.KeyValue {
	return attribute.String(AttrOrderID, orderID)
}

func OrderStatusAttr(status string) attribute.KeyValue {
	return attribute.String(AttrOrderStatus, status)
}

func TopicAttr(topic string) attribute.KeyValue {
	return attribute.String(AttrTopic, topic)
}

func TokenKindAttr(kind string) attribute.KeyValue {
	return attribute.String(AttrTokenKind, kind)
}
