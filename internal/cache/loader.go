package cache

import "fmt"

// Fetch returns the live cached value for key, computing it via load on a
// miss and storing the result with the current default TTL. Concurrent
// fetches of the same key are deduplicated: only one load runs, and every
// waiter receives its result. A load error is returned as-is and nothing is
// cached, so the next Fetch retries.
//
// load runs outside the cache's critical section, so it may be slow without
// blocking readers and writers of other keys.
//
// Flights are keyed by the fmt.Sprint rendering of key; distinct keys must
// format distinctly.
func (c *Cache[K, V]) Fetch(key K, load func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(fmt.Sprint(key), func() (any, error) {
		// Re-check: the flight we joined may have been created before our
		// miss, or an earlier flight may have stored the value already.
		if v, ok := c.Get(key); ok {
			return v, nil
		}

		v, err := load()
		if err != nil {
			return nil, err
		}
		if err := c.Set(key, v); err != nil {
			return nil, err
		}
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}
