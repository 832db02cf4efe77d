package app

import (
	"context"
	"log/slog"
	"time"

	"k8s.io/utils/clock"

	"github.com/otterscale/expirymap/internal/core"
)

// Rotator paces a caller-driven map by calling Rotate once per
// interval. It implements transport.Listener; the map itself owns no
// goroutine.
type Rotator struct {
	target   core.Rotator
	interval time.Duration
	metrics  *Metrics
	clock    clock.WithTicker
	log      *slog.Logger
}

// RotatorOption configures a Rotator.
type RotatorOption func(*Rotator)

// WithRotatorClock replaces the wall clock driving the rotation ticker.
func WithRotatorClock(c clock.WithTicker) RotatorOption {
	return func(r *Rotator) { r.clock = c }
}

// NewRotator returns a Rotator that rotates target every interval.
func NewRotator(target core.Rotator, interval time.Duration, metrics *Metrics, opts ...RotatorOption) (*Rotator, error) {
	if interval <= 0 {
		return nil, &core.ErrInvalidInput{Field: "interval", Message: "must be positive"}
	}
	r := &Rotator{
		target:   target,
		interval: interval,
		metrics:  metrics,
		clock:    clock.RealClock{},
		log:      slog.Default().With("component", "rotator"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Start rotates the target on every tick until ctx is cancelled.
func (r *Rotator) Start(ctx context.Context) error {
	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.Info("starting", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C():
			r.target.Rotate()
			r.metrics.rotated(ctx)
		}
	}
}

// Stop is a no-op; the rotator stops when its context is cancelled.
func (r *Rotator) Stop(context.Context) error {
	return nil
}
