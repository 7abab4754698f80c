package cache

import (
	"io"
	"log/slog"
	"time"

	"github.com/IvanBrykalov/tiercache/codec"
)

// EvictReason explains why an entry left the memory tier.
type EvictReason int

const (
	// EvictCount — removed to satisfy the entry count limit.
	EvictCount EvictReason = iota
	// EvictCost — removed to satisfy the total cost limit.
	EvictCost
	// EvictPressure — removed in response to a memory-pressure event.
	EvictPressure
	// EvictExplicit — removed by RemoveAll.
	EvictExplicit
)

// String returns a stable label for logs and metrics.
func (r EvictReason) String() string {
	switch r {
	case EvictCount:
		return "count"
	case EvictCost:
		return "cost"
	case EvictPressure:
		return "pressure"
	case EvictExplicit:
		return "explicit"
	default:
		return "unknown"
	}
}

// Metrics exposes cache-level observability hooks covering both tiers.
// A NoopMetrics implementation is provided and used by default.
type Metrics interface {
	Hit()
	Miss()
	DiskHit()
	Evict(reason EvictReason)
	Size(entries int, cost int64)
	CorruptionPurged()
	WriteFailure()
}

const (
	// DefaultMaxCount bounds the memory tier when Options.MaxCount is zero.
	DefaultMaxCount = 500

	// warningEvictFraction is the share of entries dropped on a warning-level
	// memory-pressure event. Critical pressure clears the tier entirely.
	warningEvictFraction = 0.5
)

// Options configures the cache. Zero values are safe; defaults are applied
// in New:
//   - MaxCount <= 0  => DefaultMaxCount
//   - MaxCostMB > 0  => MaxCost = MaxCostMB * 1024 * 1024 (when MaxCost is 0)
//   - nil Metrics    => NoopMetrics
//   - nil Logger     => discard
//   - nil Cost       => every entry costs 1
//   - ID == ""       => fresh UUID: private disk directory, no cross-instance
//     persistence
type Options[V any] struct {
	// MaxCount is the entry count limit of the memory tier.
	MaxCount int

	// MaxCost is the total cost limit of the memory tier (0 = disabled).
	// Costs are whatever unit Cost returns; bytes is typical.
	MaxCost int64

	// MaxCostMB is a megabyte-denominated alternative to MaxCost, converted
	// at construction. Ignored when MaxCost is set.
	MaxCostMB int

	// Cost computes the weight of a value. Nil means every entry weighs 1,
	// making MaxCost an entry count in disguise; set it to the encoded byte
	// length (or anything else) for size-based bounding.
	Cost func(v V) int64

	// ID names the logical cache on disk. Instances sharing an ID (and
	// BaseDir) share persisted values across restarts; an empty ID yields a
	// private store that no other instance can observe.
	ID string

	// BaseDir is the parent of the disk tier's directory ("" = os.TempDir()).
	BaseDir string

	// Codec converts values across the disk boundary. Nil disables the disk
	// tier entirely: the cache runs memory-only.
	Codec codec.Codec[V]

	// DiskRetention is the disk tier's cleanup window (0 = 1 hour).
	DiskRetention time.Duration

	// CleanupEvery triggers a disk cleanup sweep after this many writes
	// (0 = 64). Sweeps run off the write path.
	CleanupEvery int

	// Pressure delivers memory-pressure events. The cache consumes it from
	// a single goroutine started in New; at most one subscription exists per
	// instance. Nil means pressure handling is driven only via
	// HandlePressure calls.
	Pressure <-chan PressureLevel

	// OnEvict is called for every entry leaving the memory tier, under the
	// store lock; keep callbacks lightweight.
	OnEvict func(key string, v V, reason EvictReason)

	Metrics Metrics
	Logger  *slog.Logger
}

// withDefaults validates the options and fills in defaults.
// Negative limits are construction contract violations.
func (o Options[V]) withDefaults() Options[V] {
	if o.MaxCount < 0 || o.MaxCost < 0 || o.MaxCostMB < 0 {
		panic("cache: limits must not be negative")
	}
	if o.MaxCount == 0 {
		o.MaxCount = DefaultMaxCount
	}
	if o.MaxCost == 0 && o.MaxCostMB > 0 {
		o.MaxCost = int64(o.MaxCostMB) * 1024 * 1024
	}
	if o.Metrics == nil {
		o.Metrics = NoopMetrics{}
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}
