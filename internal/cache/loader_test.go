package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shoenig/test/must"
)

func TestFetchCachesResult(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, Options{Capacity: 4})

	var calls atomic.Int64
	load := func() (string, error) {
		calls.Add(1)
		return "computed", nil
	}

	v, err := c.Fetch("k", load)
	must.NoError(t, err)
	must.Eq(t, "computed", v)

	// The second fetch is served from the cache.
	v, err = c.Fetch("k", load)
	must.NoError(t, err)
	must.Eq(t, "computed", v)
	must.Eq(t, int64(1), calls.Load())
}

func TestFetchErrorNotCached(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, Options{Capacity: 4})

	boom := errors.New("upstream unavailable")
	var calls atomic.Int64

	_, err := c.Fetch("k", func() (string, error) {
		calls.Add(1)
		return "", boom
	})
	must.ErrorIs(t, err, boom)
	must.False(t, c.Has("k"))

	// A failed load leaves nothing behind; the next fetch retries.
	v, err := c.Fetch("k", func() (string, error) {
		calls.Add(1)
		return "recovered", nil
	})
	must.NoError(t, err)
	must.Eq(t, "recovered", v)
	must.Eq(t, int64(2), calls.Load())
}

func TestFetchDeduplicatesConcurrentLoads(t *testing.T) {
	t.Parallel()

	const waiters = 8

	c := newTestCache(t, Options{Capacity: 4})

	var calls atomic.Int64
	load := func() (string, error) {
		calls.Add(1)
		// Hold the flight open long enough for every waiter to join it.
		time.Sleep(50 * time.Millisecond)
		return "shared", nil
	}

	var wg sync.WaitGroup
	results := make([]string, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.Fetch("k", load)
			if err == nil {
				results[i] = v
			}
		}(i)
	}
	wg.Wait()

	must.Eq(t, int64(1), calls.Load())
	for _, v := range results {
		must.Eq(t, "shared", v)
	}
}

func TestFetchAfterClose(t *testing.T) {
	t.Parallel()

	c, err := New[string, string](Options{Capacity: 1})
	must.NoError(t, err)
	must.NoError(t, c.Close())

	_, err = c.Fetch("k", func() (string, error) {
		return "v", nil
	})
	must.ErrorIs(t, err, ErrClosed)
}
