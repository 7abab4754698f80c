package cache

// Cache is a two-tier object cache: a bounded in-memory LRU store backed by
// a content-addressed on-disk fallback. All methods are safe for concurrent
// use by multiple goroutines and never return errors for steady-state
// operations — every failure mode resolves to an absent value plus a log
// record.
//
// Typical complexity is amortized O(1) for memory-tier operations: a map
// lookup plus constant-time list adjustments under one lock.
type Cache[V any] interface {
	// Get returns the value for key and a presence flag. Memory hits promote
	// the entry to most-recently-used. On a memory miss the disk tier is
	// consulted; a disk hit repopulates the memory tier before returning.
	Get(key string) (V, bool)

	// GetOrFetch behaves like Get but on a full miss produces the value via
	// fetch, stores it in both tiers, and returns it. Concurrent fetches for
	// the same key are coalesced so fetch runs at most once. On a closed
	// cache it returns ErrClosed without invoking fetch.
	GetOrFetch(key string, fetch func() (V, error)) (V, error)

	// Contains reports whether key is resident in the memory tier, without
	// altering recency order. A disk-only key reports false: Contains
	// answers "is this immediately available without I/O", not "does this
	// exist anywhere".
	Contains(key string) bool

	// Set stores key→v in the memory tier (evicting as needed) and persists
	// it to the disk tier best-effort.
	Set(key string, v V)

	// Remove deletes key from both tiers and returns the removed in-memory
	// value, if any.
	Remove(key string) (V, bool)

	// RemoveAll clears the memory tier. Disk-resident copies are not
	// proactively deleted; they age out via the disk tier's cleanup.
	RemoveAll()

	// HandlePressure applies the memory-pressure policy: warning sheds the
	// least-recently-used half of the memory tier, critical clears it.
	HandlePressure(lvl PressureLevel)

	// Len returns the number of entries resident in the memory tier.
	Len() int

	// Cost returns the summed cost of memory-resident entries.
	Cost() int64

	// Stats returns a snapshot of the cache counters.
	Stats() Stats

	// Close stops the pressure watcher and the disk janitor and marks the
	// cache closed; further operations are no-ops (GetOrFetch returns
	// ErrClosed).
	Close() error
}
