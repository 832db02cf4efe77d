package core

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"k8s.io/utils/clock"
)

// slidingEntry pairs a value with the instant it stops being visible.
type slidingEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// SlidingMap expires each entry a fixed duration after its last Put.
// A reaper goroutine owned by the map sweeps expired entries and fires
// the expire callback for them; reads treat an expired entry as absent
// even before the reaper has seen it.
//
// Every entry that expires naturally fires the callback exactly once,
// whichever path (reaper, Get, Put, Remove) physically drops it.
//
// Call Shutdown to stop the reaper. Shutdown must not be called from
// inside the expire callback.
type SlidingMap[K comparable, V any] struct {
	mu         sync.RWMutex
	entries    map[K]slidingEntry[V]
	expiration time.Duration
	onExpire   ExpireFunc[K, V]

	clock    clock.WithTicker
	interval time.Duration
	log      *slog.Logger

	// Reaper ownership.
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSlidingMap returns a SlidingMap whose entries live for expiration
// after their last Put, and starts its reaper. onExpire may be nil.
func NewSlidingMap[K comparable, V any](expiration time.Duration, onExpire ExpireFunc[K, V], opts ...Option) (*SlidingMap[K, V], error) {
	if expiration <= 0 {
		return nil, &ErrInvalidInput{Field: "expiration", Message: "must be positive"}
	}

	o := newOptions("sliding-map", opts)
	if o.minimumTick <= 0 {
		return nil, &ErrInvalidInput{Field: "minimumTick", Message: "must be positive"}
	}

	ctx, cancel := context.WithCancel(context.Background())

	m := &SlidingMap[K, V]{
		entries:    make(map[K]slidingEntry[V]),
		expiration: expiration,
		onExpire:   onExpire,
		clock:      o.clock,
		interval:   max(expiration/2, o.minimumTick),
		log:        o.log,
		cancel:     cancel,
	}

	// The ticker is created before the goroutine starts so that no tick
	// can be missed between construction and the first select.
	ticker := m.clock.NewTicker(m.interval)

	m.wg.Add(1)
	go m.reap(ctx, ticker)

	return m, nil
}

// Interval returns the reaper's sweep cadence.
func (m *SlidingMap[K, V]) Interval() time.Duration {
	return m.interval
}

// Put inserts or refreshes key, resetting its expiry to now plus the
// map's expiration. Overwriting an entry that had already expired
// counts as that entry's expiry.
func (m *SlidingMap[K, V]) Put(key K, value V) {
	m.mu.Lock()
	// Read under the lock so that writes commit in timestamp order.
	now := m.clock.Now()
	old, existed := m.entries[key]
	m.entries[key] = slidingEntry[V]{value: value, expiresAt: now.Add(m.expiration)}
	m.mu.Unlock()

	if existed && !now.Before(old.expiresAt) {
		dispatch(m.log, m.onExpire, []evicted[K, V]{{key: key, value: old.value}})
	}
}

// Get returns the value stored under key if it has not expired.
func (m *SlidingMap[K, V]) Get(key K) (V, bool) {
	now := m.clock.Now()

	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if ok && now.Before(e.expiresAt) {
		return e.value, true
	}
	if ok {
		m.expireKey(key, now)
	}
	var zero V
	return zero, false
}

// ContainsKey reports whether key holds a live entry.
func (m *SlidingMap[K, V]) ContainsKey(key K) bool {
	_, ok := m.Get(key)
	return ok
}

// Remove deletes key. A live entry is returned without firing the
// expire callback; an entry that had already expired is reported as
// absent and dispatched to the callback instead.
func (m *SlidingMap[K, V]) Remove(key K) (V, bool) {
	now := m.clock.Now()

	m.mu.Lock()
	e, ok := m.entries[key]
	if ok {
		delete(m.entries, key)
	}
	m.mu.Unlock()

	var zero V
	if !ok {
		return zero, false
	}
	if !now.Before(e.expiresAt) {
		dispatch(m.log, m.onExpire, []evicted[K, V]{{key: key, value: e.value}})
		return zero, false
	}
	return e.value, true
}

// Len returns the number of live entries. Entries past their expiry
// that the reaper has not dropped yet are not counted.
func (m *SlidingMap[K, V]) Len() int {
	now := m.clock.Now()

	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, e := range m.entries {
		if now.Before(e.expiresAt) {
			n++
		}
	}
	return n
}

// Shutdown stops the reaper and waits for it to exit. It is safe to
// call multiple times. The map stays usable afterwards; expired
// entries are then only dropped lazily.
func (m *SlidingMap[K, V]) Shutdown() {
	m.cancel()
	m.wg.Wait()
}

// expireKey drops key if it is still expired at now. A concurrent Put
// that refreshed the entry wins.
func (m *SlidingMap[K, V]) expireKey(key K, now time.Time) {
	m.mu.Lock()
	e, ok := m.entries[key]
	if !ok || now.Before(e.expiresAt) {
		m.mu.Unlock()
		return
	}
	delete(m.entries, key)
	m.mu.Unlock()

	dispatch(m.log, m.onExpire, []evicted[K, V]{{key: key, value: e.value}})
}

// sweep removes every entry expired at now and fires the callback for
// each of them after releasing the lock. It returns the number of
// entries evicted.
func (m *SlidingMap[K, V]) sweep(now time.Time) int {
	var batch []evicted[K, V]

	m.mu.Lock()
	for key, e := range m.entries {
		if !now.Before(e.expiresAt) {
			batch = append(batch, evicted[K, V]{key: key, value: e.value})
			delete(m.entries, key)
		}
	}
	m.mu.Unlock()

	dispatch(m.log, m.onExpire, batch)
	return len(batch)
}

// reap runs until ctx is cancelled, sweeping on every tick.
func (m *SlidingMap[K, V]) reap(ctx context.Context, ticker clock.Ticker) {
	defer m.wg.Done()
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			m.safeSweep()
		}
	}
}

// safeSweep keeps the reaper alive if a sweep panics.
func (m *SlidingMap[K, V]) safeSweep() {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("reaper sweep panicked", "panic", r)
		}
	}()

	if n := m.sweep(m.clock.Now()); n > 0 {
		m.log.Debug("evicted expired entries", "count", n)
	}
}
