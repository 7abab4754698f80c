package cache

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/IvanBrykalov/tiercache/internal/util"
)

// store is the bounded in-memory tier: a map[string]*node for lookups and an
// intrusive doubly linked list (head=MRU, tail=LRU) for recency order. All
// mutations run under a single mutex, which is what gives the coordinator its
// single-writer discipline; a torn prev/next update would corrupt the list
// irrecoverably.
//
// Invariants (checked where cheap, fatal when violated):
//   - every key in m has exactly one list node and vice versa;
//   - head/tail are nil iff len == 0;
//   - cost == Σ node.cost over live nodes, count == len(m).
type store[V any] struct {
	// ---- guarded by mu ----
	mu   sync.RWMutex
	m    map[string]*node[V]
	head *node[V] // MRU
	tail *node[V] // LRU
	len  int      // number of resident entries
	cost int64    // total cost of resident entries

	maxCount int   // entry count limit (> 0)
	maxCost  int64 // total cost limit (0 = disabled)

	log     *slog.Logger
	metrics Metrics
	onEvict func(key string, v V, reason EvictReason)

	// ---- hot counters (separate cache lines to avoid false sharing) ----
	hits   util.PaddedAtomicInt64
	misses util.PaddedAtomicInt64
	evicts util.PaddedAtomicUint64
}

func newStore[V any](opt Options[V]) *store[V] {
	return &store[V]{
		m:        make(map[string]*node[V], opt.MaxCount),
		maxCount: opt.MaxCount,
		maxCost:  opt.MaxCost,
		log:      opt.Logger,
		metrics:  opt.Metrics,
		onEvict:  opt.OnEvict,
	}
}

// Get returns the value for key and promotes the entry to MRU.
func (s *store[V]) Get(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.m[key]
	if !ok {
		s.misses.Add(1)
		s.metrics.Miss()
		var zero V
		return zero, false
	}
	s.moveToFront(n)
	s.hits.Add(1)
	s.metrics.Hit()
	return n.val, true
}

// Contains reports presence without touching recency order. This is the
// "immediately available without I/O" check; it must never promote.
func (s *store[V]) Contains(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.m[key]
	return ok
}

// Set inserts or updates key with the given cost, promotes it to MRU, and
// then evicts from the tail until both the count and cost limits hold.
func (s *store[V]) Set(key string, v V, cost int64) {
	if cost < 0 {
		cost = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if n, ok := s.m[key]; ok {
		// In-place update: adjust the cost delta and promote.
		s.cost += cost - n.cost
		n.val = v
		n.cost = cost
		s.moveToFront(n)
		s.enforceLimitsLocked()
		return
	}

	n := &node[V]{key: key, val: v, cost: cost}
	s.m[key] = n
	s.insertFront(n)
	s.enforceLimitsLocked()
}

// Remove deletes key and returns the removed value, if any.
func (s *store[V]) Remove(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.m[key]
	if !ok {
		var zero V
		return zero, false
	}
	s.removeNode(n)
	delete(s.m, key)
	s.metrics.Size(s.len, s.cost)
	return n.val, true
}

// RemoveAll drops every entry and resets the counters in one exclusive
// section. Safe on an empty store.
func (s *store[V]) RemoveAll(reason EvictReason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeAllLocked(reason)
}

func (s *store[V]) removeAllLocked(reason EvictReason) {
	for n := s.head; n != nil; n = n.next {
		s.metrics.Evict(reason)
		if s.onEvict != nil {
			s.onEvict(n.key, n.val, reason)
		}
	}
	s.evicts.Add(uint64(s.len))
	s.m = make(map[string]*node[V], s.maxCount)
	s.head, s.tail = nil, nil
	s.len, s.cost = 0, 0
	s.metrics.Size(0, 0)
}

// EvictFraction removes floor(len * p) entries, least recently used first.
// p outside [0,1] is a caller contract violation.
func (s *store[V]) EvictFraction(p float64, reason EvictReason) {
	if p < 0 || p > 1 {
		panic(fmt.Sprintf("cache: eviction fraction %v out of [0,1]", p))
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	target := int(math.Floor(float64(s.len) * p))
	for i := 0; i < target; i++ {
		tail := s.tail
		if tail == nil {
			panic("cache: recency list empty while entries remain to evict")
		}
		s.evictNode(tail, reason)
	}
	s.metrics.Size(s.len, s.cost)
}

// Len returns the number of resident entries.
func (s *store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.len
}

// Cost returns the summed cost of resident entries.
func (s *store[V]) Cost() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cost
}

// -------------------- internals (mu held) --------------------

// insertFront inserts n at MRU in O(1).
func (s *store[V]) insertFront(n *node[V]) {
	n.prev = nil
	n.next = s.head
	if s.head != nil {
		s.head.prev = n
	}
	s.head = n
	if s.tail == nil {
		s.tail = n
	}
	s.len++
	s.cost += n.cost
}

// moveToFront promotes n to MRU in O(1).
func (s *store[V]) moveToFront(n *node[V]) {
	if n == s.head {
		return
	}
	// detach
	if n.prev != nil {
		n.prev.next = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}
	if s.tail == n {
		s.tail = n.prev
	}
	// insert at head
	n.prev = nil
	n.next = s.head
	if s.head != nil {
		s.head.prev = n
	}
	s.head = n
	if s.tail == nil {
		s.tail = n
	}
}

// removeNode unlinks n and updates counters in O(1).
func (s *store[V]) removeNode(n *node[V]) {
	if n.prev != nil {
		n.prev.next = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}
	if s.head == n {
		s.head = n.next
	}
	if s.tail == n {
		s.tail = n.prev
	}
	n.prev, n.next = nil, nil
	s.len--
	s.cost -= n.cost
	if s.len == 0 && s.cost != 0 {
		panic(fmt.Sprintf("cache: cost accounting drift: empty store has cost %d", s.cost))
	}
}

// evictNode removes n, updates counters/metrics, and notifies OnEvict.
func (s *store[V]) evictNode(n *node[V], reason EvictReason) {
	s.removeNode(n)
	delete(s.m, n.key)
	s.evicts.Add(1)
	s.metrics.Evict(reason)
	s.log.Debug("entry evicted", "key", n.key, "reason", reason, "cost", n.cost)
	if s.onEvict != nil {
		// Called under the lock; callbacks must stay lightweight.
		s.onEvict(n.key, n.val, reason)
	}
}

// enforceLimitsLocked evicts LRU entries until both limits are satisfied.
// A missing tail while a limit is still exceeded means the list and the map
// disagree; continuing would risk unbounded growth, so it is fatal.
func (s *store[V]) enforceLimitsLocked() {
	for s.len > s.maxCount {
		tail := s.tail
		if tail == nil {
			panic("cache: count limit exceeded but recency list is empty")
		}
		s.evictNode(tail, EvictCount)
	}
	if s.maxCost > 0 {
		for s.cost > s.maxCost {
			tail := s.tail
			if tail == nil {
				panic("cache: cost limit exceeded but recency list is empty")
			}
			s.evictNode(tail, EvictCost)
		}
	}
	s.metrics.Size(s.len, s.cost)
}
