package cache

import "time"

// sweepLoop periodically scans and removes expired entries.
//
// Why a ticker-based full scan?
//   - It's easy to reason about (correctness-first)
//   - It avoids per-entry goroutines/timers (which are expensive and hard to
//     own)
//
// Lazy expiration already guarantees that an expired value is never served;
// the sweep only reclaims memory for entries nobody touches again.
func (c *Cache[K, V]) sweepLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case now := <-ticker.C:
			c.mu.Lock()
			// If Close raced with the ticker, still safe: Close cancels ctx,
			// notifies loop.
			removed := c.removeExpiredLocked(now)
			c.mu.Unlock()

			if removed > 0 {
				c.logger.Trace("swept expired entries", "removed", removed)
			}
		}
	}
}
