// Package app drives expiring maps under concurrent load: writers
// refresh a bounded key space, readers probe it, and for the rotating
// map a rotator paces eviction from the caller's side.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/otterscale/expirymap/internal/core"
)

// removeEvery makes every n-th write also remove the key it just wrote.
const removeEvery = 100

// Store is the map under load.
type Store = core.ExpiringMap[string, int64]

// HarnessConfig sizes the load.
type HarnessConfig struct {
	Writers       int
	Readers       int
	KeySpace      int
	WriteInterval time.Duration
	ReadInterval  time.Duration
}

func (c HarnessConfig) validate() error {
	switch {
	case c.Writers < 0:
		return &core.ErrInvalidInput{Field: "writers", Message: "must not be negative"}
	case c.Readers < 0:
		return &core.ErrInvalidInput{Field: "readers", Message: "must not be negative"}
	case c.Writers == 0 && c.Readers == 0:
		return &core.ErrInvalidInput{Field: "writers", Message: "writers and readers must not both be zero"}
	case c.KeySpace < 1:
		return &core.ErrInvalidInput{Field: "keySpace", Message: "must be at least 1"}
	case c.WriteInterval <= 0:
		return &core.ErrInvalidInput{Field: "writeInterval", Message: "must be positive"}
	case c.ReadInterval <= 0:
		return &core.ErrInvalidInput{Field: "readInterval", Message: "must be positive"}
	}
	return nil
}

// HarnessOption configures a Harness.
type HarnessOption func(*Harness)

// WithReadThrough makes readers fill misses through loader.
func WithReadThrough(loader *core.Loader[string, int64]) HarnessOption {
	return func(h *Harness) { h.loader = loader }
}

// WithHarnessLogger configures a structured logger.
func WithHarnessLogger(log *slog.Logger) HarnessOption {
	return func(h *Harness) { h.log = log }
}

// Harness runs writers and readers against a Store until its context
// is cancelled. It implements transport.Listener.
type Harness struct {
	store   Store
	loader  *core.Loader[string, int64]
	metrics *Metrics
	cfg     HarnessConfig
	log     *slog.Logger

	seq atomic.Int64
}

// NewHarness returns a Harness for store.
func NewHarness(store Store, metrics *Metrics, cfg HarnessConfig, opts ...HarnessOption) (*Harness, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	h := &Harness{
		store:   store,
		metrics: metrics,
		cfg:     cfg,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.log == nil {
		h.log = slog.Default().With("component", "harness")
	}
	return h, nil
}

// Start runs the writers and readers and blocks until ctx is done.
func (h *Harness) Start(ctx context.Context) error {
	h.log.Info("starting",
		"writers", h.cfg.Writers,
		"readers", h.cfg.Readers,
		"key_space", h.cfg.KeySpace,
	)

	eg, egCtx := errgroup.WithContext(ctx)
	for range h.cfg.Writers {
		eg.Go(func() error {
			h.every(egCtx, h.cfg.WriteInterval, h.write)
			return nil
		})
	}
	for range h.cfg.Readers {
		eg.Go(func() error {
			h.every(egCtx, h.cfg.ReadInterval, h.read)
			return nil
		})
	}
	err := eg.Wait()

	h.log.Info("stopped", "writes", h.seq.Load(), "size", h.store.Len())
	return err
}

// Stop is a no-op; Start returns when its context is cancelled.
func (h *Harness) Stop(context.Context) error {
	return nil
}

// every calls fn once per interval until ctx is done.
func (h *Harness) every(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

func (h *Harness) write(ctx context.Context) {
	n := h.seq.Add(1)
	key := keyFor(int(n % int64(h.cfg.KeySpace)))

	h.store.Put(key, n)
	h.metrics.put(ctx)

	if n%removeEvery == 0 {
		if _, ok := h.store.Remove(key); ok {
			h.metrics.removed(ctx)
		}
	}
}

func (h *Harness) read(ctx context.Context) {
	key := keyFor(rand.IntN(h.cfg.KeySpace))

	if _, ok := h.store.Get(key); ok {
		h.metrics.hit(ctx)
		return
	}
	h.metrics.miss(ctx)

	if h.loader == nil {
		return
	}
	if _, err := h.loader.Get(ctx, key); err != nil {
		h.log.Warn("read-through load failed", "key", key, "error", err)
	}
}

func keyFor(i int) string {
	return "key-" + strconv.Itoa(i)
}

// SequenceLoader returns a LoadFunc that derives a value from the key
// itself, standing in for a slower backing store. Loaded values are
// negative so they can be told apart from written sequence numbers.
func SequenceLoader() core.LoadFunc[string, int64] {
	return func(_ context.Context, key string) (int64, error) {
		var n int64
		if _, err := fmt.Sscanf(key, "key-%d", &n); err != nil {
			return 0, fmt.Errorf("parse key %q: %w", key, err)
		}
		return -n, nil
	}
}
