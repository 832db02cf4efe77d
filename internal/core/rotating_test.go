package core

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
)

// recorder collects expire callbacks in the order they fire.
type recorder[K comparable, V any] struct {
	mu   sync.Mutex
	keys []K
	vals map[K][]V
}

func newRecorder[K comparable, V any]() *recorder[K, V] {
	return &recorder[K, V]{vals: make(map[K][]V)}
}

func (r *recorder[K, V]) expire(key K, value V) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
	r.vals[key] = append(r.vals[key], value)
}

func (r *recorder[K, V]) fired() []K {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.keys)
}

func (r *recorder[K, V]) count(key K) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.vals[key])
}

func TestNewRotatingMap_RejectsTooFewBuckets(t *testing.T) {
	t.Parallel()

	for _, n := range []int{-1, 0, 1} {
		_, err := NewRotatingMap[string, int](n, nil)
		var invalid *ErrInvalidInput
		if !errors.As(err, &invalid) {
			t.Fatalf("NewRotatingMap(%d) error = %v, want *ErrInvalidInput", n, err)
		}
		if invalid.Field != "numBuckets" {
			t.Errorf("got field %q, want numBuckets", invalid.Field)
		}
	}
}

func TestRotatingMap_PutGetRemove(t *testing.T) {
	t.Parallel()

	rec := newRecorder[string, int]()
	m, err := NewRotatingMap(3, rec.expire)
	if err != nil {
		t.Fatalf("NewRotatingMap: %v", err)
	}

	m.Put("a", 1)
	if v, ok := m.Get("a"); !ok || v != 1 {
		t.Fatalf("Get(a) = %v, %v; want 1, true", v, ok)
	}
	if !m.ContainsKey("a") {
		t.Error("expected ContainsKey(a)")
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}

	v, ok := m.Remove("a")
	if !ok || v != 1 {
		t.Fatalf("Remove(a) = %v, %v; want 1, true", v, ok)
	}
	if _, ok := m.Remove("a"); ok {
		t.Error("second Remove should report absence")
	}
	if _, ok := m.Get("missing"); ok {
		t.Error("expected missing key to be absent")
	}
	if m.Len() != 0 {
		t.Errorf("Len() = %d, want 0", m.Len())
	}

	// Explicit removal never expires.
	for range 3 {
		m.Rotate()
	}
	if got := rec.fired(); len(got) != 0 {
		t.Errorf("expected no callbacks, got %v", got)
	}
}

func TestRotatingMap_EvictsAfterNumBucketsRotations(t *testing.T) {
	t.Parallel()

	for _, n := range []int{2, 3, 5} {
		t.Run(fmt.Sprintf("buckets=%d", n), func(t *testing.T) {
			t.Parallel()

			rec := newRecorder[string, int]()
			m, err := NewRotatingMap(n, rec.expire)
			if err != nil {
				t.Fatalf("NewRotatingMap: %v", err)
			}

			m.Put("k", 7)
			for i := 1; i < n; i++ {
				m.Rotate()
				if !m.ContainsKey("k") {
					t.Fatalf("k evicted after %d rotations, want %d", i, n)
				}
			}

			m.Rotate()
			if m.ContainsKey("k") {
				t.Fatalf("k still present after %d rotations", n)
			}
			if c := rec.count("k"); c != 1 {
				t.Fatalf("expire fired %d times for k, want 1", c)
			}
			if rec.vals["k"][0] != 7 {
				t.Errorf("expired value = %d, want 7", rec.vals["k"][0])
			}

			// Further rotations never fire again.
			for range n {
				m.Rotate()
			}
			if c := rec.count("k"); c != 1 {
				t.Errorf("expire fired %d times for k after extra rotations, want 1", c)
			}
		})
	}
}

func TestRotatingMap_PutRefreshesBucket(t *testing.T) {
	t.Parallel()

	rec := newRecorder[string, int]()
	m, err := NewRotatingMap(3, rec.expire)
	if err != nil {
		t.Fatalf("NewRotatingMap: %v", err)
	}

	m.Put("k", 1)
	m.Rotate()
	m.Rotate()
	m.Put("k", 2) // back to the newest bucket
	if m.Len() != 1 {
		t.Fatalf("refresh duplicated the key: Len() = %d", m.Len())
	}

	m.Rotate()
	m.Rotate()
	if v, ok := m.Get("k"); !ok || v != 2 {
		t.Fatalf("Get(k) = %v, %v; want 2, true", v, ok)
	}

	m.Rotate()
	if m.ContainsKey("k") {
		t.Fatal("k should expire three rotations after the refresh")
	}
	if got := rec.vals["k"]; len(got) != 1 || got[0] != 2 {
		t.Errorf("expired values = %v, want [2]", got)
	}
}

func TestRotatingMap_GetDoesNotRefresh(t *testing.T) {
	t.Parallel()

	m, err := NewRotatingMap[string, int](2, nil)
	if err != nil {
		t.Fatalf("NewRotatingMap: %v", err)
	}

	m.Put("k", 1)
	m.Rotate()
	if _, ok := m.Get("k"); !ok {
		t.Fatal("expected k before eviction")
	}
	m.Rotate()
	if _, ok := m.Get("k"); ok {
		t.Fatal("reading k must not delay its eviction")
	}
}

func TestRotatingMap_EvictionFollowsInsertionOrder(t *testing.T) {
	t.Parallel()

	rec := newRecorder[string, int]()
	m, err := NewRotatingMap(2, rec.expire)
	if err != nil {
		t.Fatalf("NewRotatingMap: %v", err)
	}

	keys := []string{"c", "a", "e", "b", "d"}
	for i, k := range keys {
		m.Put(k, i)
	}
	// Re-putting moves "a" to the end of the newest bucket.
	m.Put("a", 99)

	m.Rotate()
	m.Rotate()

	want := []string{"c", "e", "b", "d", "a"}
	if got := rec.fired(); !slices.Equal(got, want) {
		t.Errorf("eviction order = %v, want %v", got, want)
	}
}

func TestRotatingMap_RotateEmptyIsNoop(t *testing.T) {
	t.Parallel()

	calls := 0
	m, err := NewRotatingMap(4, func(string, int) { calls++ })
	if err != nil {
		t.Fatalf("NewRotatingMap: %v", err)
	}
	for range 10 {
		m.Rotate()
	}
	if calls != 0 {
		t.Errorf("expected no callbacks on empty map, got %d", calls)
	}
	if m.Len() != 0 {
		t.Errorf("Len() = %d, want 0", m.Len())
	}
}

func TestRotatingMap_PanickingCallbackIsIsolated(t *testing.T) {
	t.Parallel()

	var got []string
	m, err := NewRotatingMap(2, func(k string, _ int) {
		if k == "bad" {
			panic("boom")
		}
		got = append(got, k)
	})
	if err != nil {
		t.Fatalf("NewRotatingMap: %v", err)
	}

	m.Put("first", 1)
	m.Put("bad", 2)
	m.Put("last", 3)
	m.Rotate()
	m.Rotate()

	if !slices.Equal(got, []string{"first", "last"}) {
		t.Errorf("callbacks after panic = %v, want [first last]", got)
	}

	// The map is still usable.
	m.Put("again", 4)
	if !m.ContainsKey("again") {
		t.Error("map unusable after callback panic")
	}
}

func TestRotatingMap_CallbackMayReenter(t *testing.T) {
	t.Parallel()

	var m *RotatingMap[string, int]
	var err error
	m, err = NewRotatingMap(2, func(k string, v int) {
		if v < 3 {
			m.Put(k, v+1)
		}
	})
	if err != nil {
		t.Fatalf("NewRotatingMap: %v", err)
	}

	m.Put("k", 1)
	m.Rotate()
	m.Rotate() // expires k=1, callback re-inserts k=2

	if v, ok := m.Get("k"); !ok || v != 2 {
		t.Fatalf("Get(k) = %v, %v; want 2, true", v, ok)
	}
}

func TestRotatingMap_ConcurrentWritersAndRotation(t *testing.T) {
	t.Parallel()

	const (
		writers   = 8
		perWriter = 2000
		rotations = 50
	)

	rec := newRecorder[int, int]()
	m, err := NewRotatingMap(3, rec.expire)
	if err != nil {
		t.Fatalf("NewRotatingMap: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(writers + 1)
	for w := range writers {
		go func(w int) {
			defer wg.Done()
			for i := range perWriter {
				key := w*perWriter + i
				m.Put(key, key)
				m.Get(key)
			}
		}(w)
	}
	go func() {
		defer wg.Done()
		for range rotations {
			m.Rotate()
		}
	}()
	wg.Wait()

	present := 0
	for key := range writers * perWriter {
		_, ok := m.Get(key)
		fired := rec.count(key)
		switch {
		case ok && fired != 0:
			t.Fatalf("key %d present and expired %d times", key, fired)
		case !ok && fired != 1:
			t.Fatalf("key %d lost: expired %d times", key, fired)
		}
		if ok {
			present++
		}
	}
	if present != m.Len() {
		t.Errorf("Len() = %d, want %d", m.Len(), present)
	}
}
