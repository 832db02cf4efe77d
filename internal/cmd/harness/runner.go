// Package harness assembles one load run: an expiring map, the
// writers and readers driving it, and the ops server exposing its
// health and metrics.
package harness

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/otterscale/expirymap/internal/app"
	"github.com/otterscale/expirymap/internal/core"
	"github.com/otterscale/expirymap/internal/transport"
	"github.com/otterscale/expirymap/internal/transport/http"
)

// OpsConfig holds the ops server parameters.
type OpsConfig struct {
	Address        string
	AllowedOrigins []string
}

// RotatingConfig holds the parameters of a rotating map run.
type RotatingConfig struct {
	Ops        OpsConfig
	Harness    app.HarnessConfig
	Duration   time.Duration
	Buckets    int
	Expiration time.Duration
}

// SlidingConfig holds the parameters of a sliding map run.
type SlidingConfig struct {
	Ops         OpsConfig
	Harness     app.HarnessConfig
	Duration    time.Duration
	Expiration  time.Duration
	MinimumTick time.Duration
	ReadThrough bool
}

// Runner runs a harness against one map until its duration elapses or
// the context is cancelled.
type Runner struct {
	handler *Handler
}

func NewRunner(handler *Handler) *Runner {
	return &Runner{handler: handler}
}

// RunRotating loads a RotatingMap and rotates it every half expiration.
func (r *Runner) RunRotating(ctx context.Context, cfg RotatingConfig) error {
	runID := uuid.NewString()
	log := slog.Default().With("run_id", runID, "map", app.MapKindRotating)

	metrics, err := app.NewMetrics(r.handler.MeterProvider(), app.MapKindRotating, runID)
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}

	m, err := core.NewRotatingMap(cfg.Buckets, metrics.Expired,
		core.WithLogger(log),
	)
	if err != nil {
		return err
	}

	rotator, err := app.NewRotator(m, cfg.Expiration/2, metrics)
	if err != nil {
		return err
	}

	h, err := app.NewHarness(m, metrics, cfg.Harness,
		app.WithHarnessLogger(log.With("component", "harness")),
	)
	if err != nil {
		return err
	}

	return r.serve(ctx, log, metrics, m.Len, cfg.Ops, cfg.Duration, h, rotator)
}

// RunSliding loads a SlidingMap, optionally filling read misses through
// a loader, and shuts the map's reaper down when the run ends.
func (r *Runner) RunSliding(ctx context.Context, cfg SlidingConfig) error {
	runID := uuid.NewString()
	log := slog.Default().With("run_id", runID, "map", app.MapKindSliding)

	metrics, err := app.NewMetrics(r.handler.MeterProvider(), app.MapKindSliding, runID)
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}

	m, err := core.NewSlidingMap(cfg.Expiration, metrics.Expired,
		core.WithLogger(log),
		core.WithMinimumTick(cfg.MinimumTick),
	)
	if err != nil {
		return err
	}
	defer m.Shutdown()
	reaper := &shutdownListener{target: m}

	opts := []app.HarnessOption{
		app.WithHarnessLogger(log.With("component", "harness")),
	}
	if cfg.ReadThrough {
		opts = append(opts, app.WithReadThrough(core.NewLoader(m, app.SequenceLoader())))
	}

	h, err := app.NewHarness(m, metrics, cfg.Harness, opts...)
	if err != nil {
		return err
	}

	return r.serve(ctx, log, metrics, m.Len, cfg.Ops, cfg.Duration, h, reaper)
}

// serve runs the ops server alongside listeners for at most duration.
// A non-positive duration runs until ctx is cancelled.
func (r *Runner) serve(ctx context.Context, log *slog.Logger, metrics *app.Metrics, size func() int, ops OpsConfig, duration time.Duration, listeners ...transport.Listener) error {
	reg, err := metrics.ObserveSize(size)
	if err != nil {
		return fmt.Errorf("failed to observe map size: %w", err)
	}
	defer func() {
		if err := reg.Unregister(); err != nil {
			log.Warn("failed to unregister size callback", "error", err)
		}
	}()

	httpSrv, err := http.NewServer(
		http.WithAddress(ops.Address),
		http.WithAllowedOrigins(ops.AllowedOrigins),
		http.WithMount(r.handler.Mount),
		http.WithHTTPLogger(log.With("component", "ops-server")),
	)
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	log.Info("run started", "duration", duration)
	if err := transport.Serve(ctx, append([]transport.Listener{httpSrv}, listeners...)...); err != nil {
		return err
	}
	log.Info("run finished", "size", size())
	return nil
}
