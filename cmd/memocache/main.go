package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"

	"memocache/internal/cache"
)

func main() {
	// Signal-aware context is the root of ownership for long-lived background
	// work. When SIGINT/SIGTERM arrives, ctx is canceled and we initiate a
	// clean shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "memocache",
		Level: hclog.Trace,
	})

	c, err := cache.New[string, string](cache.Options{
		Capacity:      2,
		SweepInterval: 100 * time.Millisecond,
		Logger:        logger,
	})
	if err != nil {
		logger.Error("failed to construct cache", "error", err)
		os.Exit(1)
	}
	defer func() {
		// Close is idempotent; safe to call in defer.
		if err := c.Close(); err != nil {
			logger.Error("cache close", "error", err)
		}
	}()

	logger.Info("demo starting", "capacity", 2, "sweep_interval", 100*time.Millisecond)

	// -------------------------------------------------------------------
	// 1) LRU eviction demo (capacity=2)
	// -------------------------------------------------------------------
	_ = c.Set("a", "A")
	_ = c.Set("b", "B")

	// Touch "a" so "b" becomes least-recently-used.
	if v, ok := c.Get("a"); ok {
		logger.Info("get", "key", "a", "value", v, "note", "touches a -> MRU")
	}

	// Insert "c" => cache overflows and evicts LRU (expected: "b").
	_ = c.Set("c", "C")
	if !c.Has("b") {
		logger.Info("get miss", "key", "b", "note", "evicted as LRU")
	}
	logger.Info("keys after eviction (MRU->LRU)", "keys", c.Keys())

	// -------------------------------------------------------------------
	// 2) TTL expiration demo (shows background sweep)
	// -------------------------------------------------------------------
	// Add a short-lived key. We intentionally do NOT call Get() after it
	// expires; the sweep goroutine should remove it during its periodic scan.
	c.SetTTL(200 * time.Millisecond)
	_ = c.Set("ttl", "short")
	logger.Info("keys after ttl set (MRU->LRU)", "keys", c.Keys())

	// Wait long enough for expiry + at least one sweep tick.
	wait := time.NewTimer(500 * time.Millisecond)
	defer wait.Stop()

	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
		return
	case <-wait.C:
	}

	logger.Info("keys after ttl + sweep (MRU->LRU)", "keys", c.Keys())
	if !c.Has("ttl") {
		logger.Info("get miss", "key", "ttl", "note", "expired and removed")
	}

	// -------------------------------------------------------------------
	// 3) Memoized fetch demo (single-flight loading)
	// -------------------------------------------------------------------
	c.SetTTL(time.Minute)
	loads := 0
	lookup := func() (string, error) {
		loads++
		time.Sleep(50 * time.Millisecond) // stand-in for an expensive decision
		return "allow", nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.Fetch("alice:/data1:read", lookup)
		if err != nil {
			logger.Error("fetch", "error", err)
			os.Exit(1)
		}
		logger.Info("fetch", "key", "alice:/data1:read", "value", v, "loads_so_far", loads)
	}

	// -------------------------------------------------------------------
	// 4) Capacity shrink demo
	// -------------------------------------------------------------------
	if err := c.SetCapacity(1); err != nil {
		logger.Error("set capacity", "error", err)
		os.Exit(1)
	}
	logger.Info("keys after shrink to 1 (MRU->LRU)", "keys", c.Keys())

	_ = c.Clear()
	logger.Info("done", "len_after_clear", c.Len())
}
