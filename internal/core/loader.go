package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// loadTimeout is the maximum time a cache-miss load is allowed to run.
// It uses context.WithoutCancel so that a single caller's cancellation
// does not fail all waiters on the same key.
const loadTimeout = 30 * time.Second

// errLoadAborted is reported to waiters when the load they joined
// panicked instead of returning.
var errLoadAborted = errors.New("load aborted")

// LoadFunc produces the value for a key that is missing from the map.
type LoadFunc[K comparable, V any] func(ctx context.Context, key K) (V, error)

// flight is one in-progress load shared by every caller missing the
// same key.
type flight[V any] struct {
	done  chan struct{}
	value V
	err   error
}

// Loader is a read-through front for a SlidingMap. Misses are filled by
// the LoadFunc and concurrent misses for the same key share one load.
// Failed loads are not cached.
type Loader[K comparable, V any] struct {
	cache *SlidingMap[K, V]
	load  LoadFunc[K, V]

	mu      sync.Mutex
	flights map[K]*flight[V]
}

// NewLoader returns a Loader that fills cache from load.
func NewLoader[K comparable, V any](cache *SlidingMap[K, V], load LoadFunc[K, V]) *Loader[K, V] {
	return &Loader[K, V]{
		cache:   cache,
		load:    load,
		flights: make(map[K]*flight[V]),
	}
}

// Get returns the cached value for key, loading and storing it on a
// miss.
func (l *Loader[K, V]) Get(ctx context.Context, key K) (V, error) {
	if v, ok := l.cache.Get(key); ok {
		return v, nil
	}

	l.mu.Lock()
	f, joined := l.flights[key]
	if !joined {
		f = &flight[V]{done: make(chan struct{})}
		l.flights[key] = f
	}
	l.mu.Unlock()

	if joined {
		<-f.done
	} else {
		l.fill(ctx, key, f)
	}

	if f.err != nil {
		var zero V
		return zero, fmt.Errorf("load %v: %w", key, f.err)
	}
	return f.value, nil
}

// fill runs the load for key and releases every caller waiting on f.
func (l *Loader[K, V]) fill(ctx context.Context, key K, f *flight[V]) {
	defer func() {
		l.mu.Lock()
		delete(l.flights, key)
		l.mu.Unlock()
		close(f.done)
	}()

	loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
	defer cancel()

	f.err = errLoadAborted
	f.value, f.err = l.load(loadCtx, key)
	if f.err == nil {
		l.cache.Put(key, f.value)
	}
}
