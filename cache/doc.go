// Package cache provides a generic two-tier object cache: a bounded,
// LRU/cost-managed in-memory store backed by a corruption-resilient
// content-addressed disk store. It serves callers that need fast repeated
// access to expensive-to-produce values (decoded images, parsed payloads)
// while surviving process restarts and responding to system memory pressure.
//
// Design
//
//   - Concurrency: all memory-tier mutations run under one lock (single
//     writer). Disk I/O happens outside that lock; concurrent reads of the
//     same cold key are coalesced (singleflight) so one file read serves
//     every waiter.
//
//   - Storage: the memory tier keeps a map[string]*node for lookups and an
//     intrusive MRU↔LRU doubly linked list for ordering; all operations are
//     O(1). The disk tier is one file per key under a per-identifier
//     directory, named by the SHA-256 digest of the key.
//
//   - Eviction: after every Set the tier evicts from the LRU tail until both
//     the entry count limit and the total cost limit hold. Memory-pressure
//     events are an independent trigger: warning sheds half the entries,
//     critical clears the tier. Pressure never touches disk state.
//
//   - Self-healing: unreadable or undecodable disk files are deleted on
//     first contact and reported as misses, never as errors. Disk writes are
//     best-effort whole-file replacements. If the cache directory cannot be
//     created the cache degrades to memory-only.
//
//   - Metrics: Options.Metrics receives Hit/Miss/DiskHit/Evict/Size plus
//     CorruptionPurged and WriteFailure signals. NoopMetrics is the default;
//     plug the Prometheus adapter (metrics/prom) to export them.
//
//   - Logging: pass a *slog.Logger via Options.Logger; by default the cache
//     is silent. There is no global logger state.
//
// Basic usage
//
//	c := cache.New[[]byte](cache.Options[[]byte]{
//	    MaxCount: 500,
//	    ID:       "thumbnails", // share this directory across restarts
//	    Codec:    codec.Bytes{},
//	})
//	defer c.Close()
//
//	c.Set("a", []byte("payload"))
//	if v, ok := c.Get("a"); ok {
//	    _ = v
//	}
//
// Cost-based bounding
//
//	c := cache.New[[]byte](cache.Options[[]byte]{
//	    MaxCount:  10_000,
//	    MaxCostMB: 64, // 64 MiB of encoded bytes
//	    Cost:      func(b []byte) int64 { return int64(len(b)) },
//	    Codec:     codec.Bytes{},
//	})
//
// Memory pressure
//
//	events := make(chan cache.PressureLevel, 1)
//	c := cache.New[string](cache.Options[string]{
//	    Codec:    codec.String{},
//	    Pressure: events,
//	})
//	events <- cache.PressureWarning // sheds the LRU half of the memory tier
//
// With GetOrFetch (singleflight)
//
//	v, err := c.GetOrFetch("key", func() ([]byte, error) {
//	    return render("key") // runs at most once per concurrent burst
//	})
//
// Thread-safety & complexity
//
// All methods on Cache are safe for concurrent use. Memory-tier operations
// are O(1) expected time: one map access and a constant amount of pointer
// fixes. Disk-tier operations cost one file access; cleanup runs off the
// write path.
package cache
