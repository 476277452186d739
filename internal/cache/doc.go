// Package cache implements a single-process, in-memory key-value cache that
// memoizes the outcome of repeated lookups (for example authorization
// decisions keyed by a subject/resource/action tuple) for a bounded time.
//
// Goals for this package:
//   - Make the core data structures explicit (map + doubly-linked list)
//   - Provide O(1) Set/Get/Delete via map index + LRU pointers
//   - Be concurrency-safe (RWMutex) with correctness as the primary goal
//   - Bound the entry count, evicting the least recently used entry first
//   - Expire entries lazily on access, with an optional background sweep
//   - Own and cleanly stop long-lived goroutines (no leaks on shutdown)
package cache
