package core

import "log/slog"

// ExpireFunc is invoked once for every entry a map evicts on its own
// (rotation or timeout). It is never invoked for entries removed via
// Remove while still live, and never while the map's lock is held, so
// it may call back into the same map.
type ExpireFunc[K comparable, V any] func(key K, value V)

// evicted is a key/value pair detached from the map under the lock
// and handed to the callback after the lock is released.
type evicted[K comparable, V any] struct {
	key   K
	value V
}

// dispatch fires fn for every entry in order. A panicking callback is
// logged and the remaining entries are still dispatched.
func dispatch[K comparable, V any](log *slog.Logger, fn ExpireFunc[K, V], batch []evicted[K, V]) {
	if fn == nil {
		return
	}
	for _, e := range batch {
		invoke(log, fn, e)
	}
}

func invoke[K comparable, V any](log *slog.Logger, fn ExpireFunc[K, V], e evicted[K, V]) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("expire callback panicked", "key", e.key, "panic", r)
		}
	}()
	fn(e.key, e.value)
}
