package core

import (
	"log/slog"
	"time"

	"k8s.io/utils/clock"
)

// defaultMinimumTick bounds the reaper interval from below so that a
// tiny expiration does not turn the reaper into a busy loop.
const defaultMinimumTick = time.Second

// Option configures a RotatingMap or a SlidingMap. Options that do
// not apply to a map type are ignored by it.
type Option func(*options)

type options struct {
	log         *slog.Logger
	clock       clock.WithTicker
	minimumTick time.Duration
}

// WithLogger configures the structured logger used to report
// callback and reaper faults.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithClock replaces the wall clock used by SlidingMap for expiry
// timestamps and for the reaper ticker.
func WithClock(c clock.WithTicker) Option {
	return func(o *options) { o.clock = c }
}

// WithMinimumTick sets the lower bound of the SlidingMap reaper
// interval. Defaults to one second.
func WithMinimumTick(d time.Duration) Option {
	return func(o *options) { o.minimumTick = d }
}

func newOptions(component string, opts []Option) *options {
	o := &options{
		clock:       clock.RealClock{},
		minimumTick: defaultMinimumTick,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = slog.Default()
	}
	o.log = o.log.With("component", component)
	return o
}
