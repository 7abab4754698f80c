package cache

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/IvanBrykalov/tiercache/diskstore"
	"github.com/IvanBrykalov/tiercache/internal/singleflight"
	"github.com/IvanBrykalov/tiercache/internal/util"
)

// ErrClosed is returned by GetOrFetch on a closed cache. The silent
// operations (Get, Set, Remove, ...) just no-op, but GetOrFetch promises a
// value or an error, and running the caller's fetch against a dead cache
// would do the expensive work only to throw the result away.
var ErrClosed = errors.New("cache: closed")

// errDiskMiss is the internal sentinel a coalesced disk read returns when
// the key has no usable file. It never escapes the package.
var errDiskMiss = errors.New("cache: disk miss")

// cache is the coordinator: it owns the memory store and the disk store,
// routes reads through both tiers, and consumes memory-pressure events.
type cache[V any] struct {
	store *store[V]
	disk  *diskstore.Store[V] // nil when no codec was configured

	// singleflight group coalescing disk reads and fetches per key, so a
	// thundering herd on one cold key does one file read, not N.
	sf singleflight.Group[string, V]

	opt    Options[V]
	log    *slog.Logger
	closed atomic.Bool
	done   chan struct{}

	diskHits util.PaddedAtomicInt64
}

// New constructs a two-tier cache with the provided Options. Defaults are
// documented on Options. If Options.Pressure is non-nil, a single watcher
// goroutine is started; it stops on Close.
//
// The disk tier shares its directory with every instance constructed with
// the same ID and BaseDir, which is what carries values across restarts. If
// the directory cannot be created the cache degrades to memory-only rather
// than failing construction.
func New[V any](opt Options[V]) Cache[V] {
	opt = opt.withDefaults()

	c := &cache[V]{
		store: newStore(opt),
		opt:   opt,
		log:   opt.Logger,
		done:  make(chan struct{}),
	}

	if opt.Codec != nil {
		c.disk = diskstore.New(diskstore.Options{
			ID:         opt.ID,
			BaseDir:    opt.BaseDir,
			Retention:  opt.DiskRetention,
			SweepEvery: opt.CleanupEvery,
			Logger:     opt.Logger,
			OnPurge:    func(string) { opt.Metrics.CorruptionPurged() },
			OnWriteError: func(key string, err error) {
				opt.Metrics.WriteFailure()
			},
		}, opt.Codec)
	}

	if opt.Pressure != nil {
		go c.watchPressure(opt.Pressure)
	}
	return c
}

// Get checks the memory tier first; on a miss it falls back to the disk
// tier and, on a disk hit, repopulates the memory tier before returning.
// Disk reads run outside the memory store's lock and are coalesced per key.
func (c *cache[V]) Get(key string) (V, bool) {
	var zero V
	if c.closed.Load() {
		return zero, false
	}

	if v, ok := c.store.Get(key); ok {
		return v, true
	}
	if c.disk == nil {
		return zero, false
	}

	v, err := c.sf.Do(key, func() (V, error) {
		v, ok := c.disk.Read(key)
		if !ok {
			return v, errDiskMiss
		}
		// Leader-only: followers share the result without repopulating or
		// double-counting the one physical read. Repopulation takes the
		// store's exclusive section like any other Set.
		c.store.Set(key, v, c.costOf(v))
		c.diskHits.Add(1)
		c.opt.Metrics.DiskHit()
		c.log.Debug("disk hit repopulated memory tier", "key", key)
		return v, nil
	})
	if err != nil {
		return zero, false
	}
	return v, true
}

// GetOrFetch returns the value for key, producing it via fetch on a full
// miss. Concurrent fetches for one key are coalesced; the fetched value goes
// through the normal Set path so both tiers see it.
func (c *cache[V]) GetOrFetch(key string, fetch func() (V, error)) (V, error) {
	if c.closed.Load() {
		var zero V
		return zero, ErrClosed
	}
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	return c.sf.Do(key, func() (V, error) {
		// Double-check after flight join.
		if v, ok := c.store.Get(key); ok {
			return v, nil
		}
		v, err := fetch()
		if err == nil {
			c.Set(key, v)
		}
		return v, err
	})
}

// Contains is a memory-tier-only, recency-neutral existence check.
func (c *cache[V]) Contains(key string) bool {
	if c.closed.Load() {
		return false
	}
	return c.store.Contains(key)
}

// Set writes to the memory tier (triggering eviction as needed) and then to
// the disk tier. Disk persistence is best-effort and never gates completion.
func (c *cache[V]) Set(key string, v V) {
	if c.closed.Load() {
		return
	}
	c.store.Set(key, v, c.costOf(v))
	if c.disk != nil {
		c.disk.Write(key, v)
	}
}

// Remove deletes key from both tiers.
func (c *cache[V]) Remove(key string) (V, bool) {
	var zero V
	if c.closed.Load() {
		return zero, false
	}
	v, ok := c.store.Remove(key)
	if c.disk != nil {
		c.disk.Remove(key)
	}
	return v, ok
}

// RemoveAll clears the memory tier only; disk copies age out via cleanup.
func (c *cache[V]) RemoveAll() {
	if c.closed.Load() {
		return
	}
	c.store.RemoveAll(EvictExplicit)
	c.log.Info("memory tier cleared")
}

// Len returns the number of memory-resident entries.
func (c *cache[V]) Len() int { return c.store.Len() }

// Cost returns the total cost of memory-resident entries.
func (c *cache[V]) Cost() int64 { return c.store.Cost() }

// Stats returns a snapshot of the hit/miss/eviction counters.
func (c *cache[V]) Stats() Stats {
	return Stats{
		Hits:      c.store.hits.Load(),
		Misses:    c.store.misses.Load() - c.diskHits.Load(),
		DiskHits:  c.diskHits.Load(),
		Evictions: c.store.evicts.Load(),
		Entries:   c.store.Len(),
		Cost:      c.store.Cost(),
	}
}

// Close stops the pressure watcher and the disk janitor and marks the
// cache closed. Future operations are ignored.
func (c *cache[V]) Close() error {
	if c.closed.CompareAndSwap(false, true) {
		close(c.done)
		if c.disk != nil {
			c.disk.Close()
		}
	}
	return nil
}

// costOf computes the per-entry cost. Without a Cost function every entry
// weighs 1, so MaxCost degenerates into a second entry count limit.
func (c *cache[V]) costOf(v V) int64 {
	if c.opt.Cost == nil {
		return 1
	}
	cost := c.opt.Cost(v)
	if cost < 0 {
		cost = 0
	}
	return cost
}
