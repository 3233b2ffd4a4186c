// Package cache provides the Redis-backed shared cache used for context
// snapshots, decision caching, execution locks, and the decision log ring.
//
// # Overview
//
// The cache is an optimisation layer, not a source of truth: every caller
// must behave correctly when Redis is unreachable or the cache is disabled.
// Values are stored as JSON strings with per-key TTLs.
//
// # Locks
//
// AcquireLock implements a best-effort mutual exclusion via SET NX with a
// short TTL. It prevents two pipeline workers from driving the same device
// simultaneously; it is not a fencing lock and must not guard anything
// whose corruption matters.
//
// # Usage
//
//	c, err := cache.New(cfg.Cache)
//	if err != nil { ... }
//	defer c.Close()
//
//	ok, err := c.AcquireLock(ctx, "lock:light-living", 5*time.Second)
//	if ok {
//	    defer c.ReleaseLock(ctx, "lock:light-living")
//	    // drive the device
//	}
package cache
