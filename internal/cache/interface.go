package cache

import "time"

// Interface is the capability surface of the cache. Callers that only
// consume a cache can depend on this rather than the concrete type.
// Implementations must be safe for concurrent use by multiple goroutines.
type Interface[K comparable, V any] interface {
	Get(key K) (V, bool)
	Has(key K) bool
	Set(key K, value V) error
	Delete(key K) error
	Clear() error
	SetCapacity(n int) error
	SetTTL(ttl time.Duration)
	Len() int
}

var _ Interface[string, bool] = (*Cache[string, bool])(nil)
