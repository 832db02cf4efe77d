package core

import (
	"container/list"
	"log/slog"
	"sync"
)

// bucket holds the entries written during one rotation period. order
// keeps insertion order so that eviction is reproducible.
type bucket[K comparable, V any] struct {
	index map[K]*list.Element
	order *list.List // of *evicted[K, V]
}

func newBucket[K comparable, V any]() *bucket[K, V] {
	return &bucket[K, V]{
		index: make(map[K]*list.Element),
		order: list.New(),
	}
}

func (b *bucket[K, V]) get(key K) (V, bool) {
	el, ok := b.index[key]
	if !ok {
		var zero V
		return zero, false
	}
	return el.Value.(*evicted[K, V]).value, true
}

func (b *bucket[K, V]) put(key K, value V) {
	b.index[key] = b.order.PushBack(&evicted[K, V]{key: key, value: value})
}

func (b *bucket[K, V]) remove(key K) (V, bool) {
	el, ok := b.index[key]
	if !ok {
		var zero V
		return zero, false
	}
	delete(b.index, key)
	return b.order.Remove(el).(*evicted[K, V]).value, true
}

func (b *bucket[K, V]) drain() []evicted[K, V] {
	out := make([]evicted[K, V], 0, b.order.Len())
	for el := b.order.Front(); el != nil; el = el.Next() {
		out = append(out, *el.Value.(*evicted[K, V]))
	}
	return out
}

// RotatingMap partitions entries into a fixed number of buckets. New
// writes always land in the newest bucket; Rotate drops the oldest
// bucket wholesale and fires the expire callback for its entries.
//
// RotatingMap owns no goroutines. The caller decides when to rotate,
// so an entry lives for between numBuckets-1 and numBuckets rotation
// periods after its last Put.
type RotatingMap[K comparable, V any] struct {
	mu       sync.RWMutex
	buckets  []*bucket[K, V] // oldest first
	onExpire ExpireFunc[K, V]
	log      *slog.Logger
}

// NewRotatingMap returns a RotatingMap with numBuckets empty buckets.
// numBuckets must be at least 2. onExpire may be nil.
func NewRotatingMap[K comparable, V any](numBuckets int, onExpire ExpireFunc[K, V], opts ...Option) (*RotatingMap[K, V], error) {
	if numBuckets < 2 {
		return nil, &ErrInvalidInput{Field: "numBuckets", Message: "must be at least 2"}
	}

	o := newOptions("rotating-map", opts)

	m := &RotatingMap[K, V]{
		buckets:  make([]*bucket[K, V], numBuckets),
		onExpire: onExpire,
		log:      o.log,
	}
	for i := range m.buckets {
		m.buckets[i] = newBucket[K, V]()
	}
	return m, nil
}

// Put inserts or refreshes key. A key already held by an older bucket
// is moved to the newest one.
func (m *RotatingMap[K, V]) Put(key K, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, b := range m.buckets {
		if _, ok := b.remove(key); ok {
			break
		}
	}
	m.buckets[len(m.buckets)-1].put(key, value)
}

// Get returns the value stored under key. Reads do not refresh the
// key's bucket.
func (m *RotatingMap[K, V]) Get(key K) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.buckets) - 1; i >= 0; i-- {
		if v, ok := m.buckets[i].get(key); ok {
			return v, true
		}
	}
	var zero V
	return zero, false
}

// ContainsKey reports whether key is held by any bucket.
func (m *RotatingMap[K, V]) ContainsKey(key K) bool {
	_, ok := m.Get(key)
	return ok
}

// Remove deletes key without firing the expire callback.
func (m *RotatingMap[K, V]) Remove(key K) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, b := range m.buckets {
		if v, ok := b.remove(key); ok {
			return v, true
		}
	}
	var zero V
	return zero, false
}

// Len returns the number of entries across all buckets.
func (m *RotatingMap[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, b := range m.buckets {
		n += len(b.index)
	}
	return n
}

// Rotate evicts the oldest bucket and appends a fresh newest one. The
// expire callback runs after the lock is released, once per evicted
// entry, in the order the entries were written.
func (m *RotatingMap[K, V]) Rotate() {
	m.mu.Lock()
	dead := m.buckets[0]
	copy(m.buckets, m.buckets[1:])
	m.buckets[len(m.buckets)-1] = newBucket[K, V]()
	m.mu.Unlock()

	batch := dead.drain()
	if len(batch) == 0 {
		return
	}
	m.log.Debug("rotated out expired bucket", "count", len(batch))
	dispatch(m.log, m.onExpire, batch)
}
