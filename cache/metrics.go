package cache

// NoopMetrics is a drop-in Metrics implementation that does nothing.
// It is safe for concurrent use and intended as the default when
// no observability backend is configured.
type NoopMetrics struct{}

func (NoopMetrics) Hit()                         {}
func (NoopMetrics) Miss()                        {}
func (NoopMetrics) DiskHit()                     {}
func (NoopMetrics) Evict(EvictReason)            {}
func (NoopMetrics) Size(entries int, cost int64) {}
func (NoopMetrics) CorruptionPurged()            {}
func (NoopMetrics) WriteFailure()                {}

// Ensure NoopMetrics implements the Metrics interface at compile time.
var _ Metrics = NoopMetrics{}

// Stats is a point-in-time snapshot of the cache counters.
type Stats struct {
	Hits      int64  // memory-tier hits
	Misses    int64  // misses in both tiers
	DiskHits  int64  // misses served by the disk tier
	Evictions uint64 // entries removed from the memory tier by any trigger
	Entries   int    // resident entry count
	Cost      int64  // resident total cost
}
