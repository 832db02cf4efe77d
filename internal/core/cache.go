package core

// ExpiringMap is the mapping surface shared by RotatingMap and
// SlidingMap. Absence is reported through the boolean result, never
// through an error.
type ExpiringMap[K comparable, V any] interface {
	Put(key K, value V)
	Get(key K) (V, bool)
	Remove(key K) (V, bool)
	ContainsKey(key K) bool
	Len() int
}

// Rotator is implemented by maps whose eviction is paced by the
// caller rather than by an internal goroutine.
type Rotator interface {
	Rotate()
}

// Shutdowner is implemented by maps that own background work.
type Shutdowner interface {
	Shutdown()
}

var (
	_ ExpiringMap[string, int] = (*RotatingMap[string, int])(nil)
	_ ExpiringMap[string, int] = (*SlidingMap[string, int])(nil)
	_ Rotator                  = (*RotatingMap[string, int])(nil)
	_ Shutdowner               = (*SlidingMap[string, int])(nil)
)
