package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	testingclock "k8s.io/utils/clock/testing"

	"github.com/otterscale/expirymap/internal/core"
)

type countingRotator struct {
	n atomic.Int32
}

func (c *countingRotator) Rotate() { c.n.Add(1) }

func TestNewRotator_RejectsNonPositiveInterval(t *testing.T) {
	t.Parallel()

	metrics, _ := newTestMetrics(t, MapKindRotating)
	_, err := NewRotator(&countingRotator{}, 0, metrics)
	var invalid *core.ErrInvalidInput
	if !errors.As(err, &invalid) {
		t.Fatalf("NewRotator() error = %v, want *core.ErrInvalidInput", err)
	}
}

func TestRotator_RotatesOnEveryTick(t *testing.T) {
	t.Parallel()

	metrics, reader := newTestMetrics(t, MapKindRotating)
	fc := testingclock.NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	target := &countingRotator{}

	r, err := NewRotator(target, 30*time.Second, metrics, WithRotatorClock(fc))
	if err != nil {
		t.Fatalf("NewRotator() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Start(ctx) }()

	waitFor(t, fc.HasWaiters)
	for i := int32(1); i <= 3; i++ {
		fc.Step(30 * time.Second)
		waitFor(t, func() bool { return target.n.Load() == i })
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if got := collect(t, reader)["expirymap.rotations"]; got != 3 {
		t.Errorf("rotations = %d, want 3", got)
	}
}

func TestRotator_DrivesRotatingMapEviction(t *testing.T) {
	t.Parallel()

	metrics, reader := newTestMetrics(t, MapKindRotating)
	fc := testingclock.NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	m, err := core.NewRotatingMap(3, metrics.Expired)
	if err != nil {
		t.Fatalf("NewRotatingMap: %v", err)
	}
	r, err := NewRotator(m, time.Second, metrics, WithRotatorClock(fc))
	if err != nil {
		t.Fatalf("NewRotator() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = r.Start(ctx) }()
	waitFor(t, fc.HasWaiters)

	m.Put("k", 1)
	for i := int64(1); i <= 3; i++ {
		if !m.ContainsKey("k") {
			t.Fatalf("k evicted after %d rotations", i-1)
		}
		fc.Step(time.Second)
		waitFor(t, func() bool { return collect(t, reader)["expirymap.rotations"] == i })
	}
	if m.ContainsKey("k") {
		t.Fatal("k still present after 3 rotations")
	}
	if got := collect(t, reader)["expirymap.expirations"]; got != 1 {
		t.Errorf("expirations = %d, want 1", got)
	}
}

// waitFor polls cond until it holds or the test times out.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}
