package app

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/otterscale/expirymap/internal/app"

// MapKind names the map implementation under load. It is attached to
// every measurement.
type MapKind string

const (
	MapKindRotating MapKind = "rotating"
	MapKindSliding  MapKind = "sliding"
)

// Metrics holds the instruments recorded while a harness runs.
type Metrics struct {
	meter metric.Meter
	attrs metric.MeasurementOption

	puts        metric.Int64Counter
	hits        metric.Int64Counter
	misses      metric.Int64Counter
	removes     metric.Int64Counter
	expirations metric.Int64Counter
	rotations   metric.Int64Counter
	size        metric.Int64ObservableGauge
}

// NewMetrics creates the harness instruments on provider. Every
// measurement carries the map kind and the run ID.
func NewMetrics(provider metric.MeterProvider, kind MapKind, runID string) (*Metrics, error) {
	meter := provider.Meter(meterName)

	m := &Metrics{
		meter: meter,
		attrs: metric.WithAttributeSet(attribute.NewSet(
			attribute.String("map", string(kind)),
			attribute.String("run_id", runID),
		)),
	}

	var errs []error
	counter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc))
		errs = append(errs, err)
		return c
	}

	m.puts = counter("expirymap.puts", "Entries written")
	m.hits = counter("expirymap.hits", "Reads that found a live entry")
	m.misses = counter("expirymap.misses", "Reads that found nothing")
	m.removes = counter("expirymap.removes", "Entries removed by the caller")
	m.expirations = counter("expirymap.expirations", "Entries expired by rotation or timeout")
	m.rotations = counter("expirymap.rotations", "Rotations of a rotating map")

	size, err := meter.Int64ObservableGauge("expirymap.size", metric.WithDescription("Live entries"))
	errs = append(errs, err)
	m.size = size

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return m, nil
}

// ObserveSize reports size() as the map's live entry count on every
// collection. Unregister the returned registration when the map is
// discarded.
func (m *Metrics) ObserveSize(size func() int) (metric.Registration, error) {
	return m.meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(m.size, int64(size()), m.attrs)
		return nil
	}, m.size)
}

// Expired is an expire callback that counts evictions. It matches
// core.ExpireFunc[string, int64].
func (m *Metrics) Expired(_ string, _ int64) {
	m.expirations.Add(context.Background(), 1, m.attrs)
}

func (m *Metrics) put(ctx context.Context)     { m.puts.Add(ctx, 1, m.attrs) }
func (m *Metrics) hit(ctx context.Context)     { m.hits.Add(ctx, 1, m.attrs) }
func (m *Metrics) miss(ctx context.Context)    { m.misses.Add(ctx, 1, m.attrs) }
func (m *Metrics) removed(ctx context.Context) { m.removes.Add(ctx, 1, m.attrs) }
func (m *Metrics) rotated(ctx context.Context) { m.rotations.Add(ctx, 1, m.attrs) }
