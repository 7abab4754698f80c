package cache

import (
	"fmt"
	"testing"
)

func newTestStore[V any](maxCount int, maxCost int64) *store[V] {
	return newStore(Options[V]{MaxCount: maxCount, MaxCost: maxCost}.withDefaults())
}

// LRU survival: with capacity 5 and uniform costs, touching key1 makes it
// outlive untouched keys when key6 overflows the store.
func TestStore_LRUOrdering(t *testing.T) {
	t.Parallel()

	s := newTestStore[string](5, 0)
	for i := 1; i <= 5; i++ {
		s.Set(fmt.Sprintf("key%d", i), "v", 10)
	}
	if _, ok := s.Get("key1"); !ok { // promote key1 -> MRU
		t.Fatal("expect hit for key1")
	}
	s.Set("key6", "v", 10) // overflow -> evict LRU (key2)

	if s.Contains("key2") {
		t.Fatal("key2 must be evicted")
	}
	for _, k := range []string{"key1", "key3", "key4", "key5", "key6"} {
		if !s.Contains(k) {
			t.Fatalf("%s must be resident", k)
		}
	}
	if s.Len() != 5 {
		t.Fatalf("len want 5, got %d", s.Len())
	}
}

// Cost eviction: limit 100, inserts 40/30/20/15 push the total to 105, so
// the oldest entry goes; a further insert of 10 fits within the limit.
func TestStore_CostEviction(t *testing.T) {
	t.Parallel()

	s := newTestStore[int](100, 100)
	s.Set("key1", 1, 40)
	s.Set("key2", 2, 30)
	s.Set("key3", 3, 20)
	s.Set("key4", 4, 15) // total 105 -> evict key1

	if s.Contains("key1") {
		t.Fatal("key1 must be evicted by the cost limit")
	}
	s.Set("key5", 5, 10)

	if got := s.Cost(); got > 100 {
		t.Fatalf("total cost %d exceeds limit", got)
	}
	if s.Len() != 4 {
		t.Fatalf("len want 4, got %d", s.Len())
	}
}

// Contains must not promote: probing the LRU entry does not save it from
// the next eviction.
func TestStore_ContainsDoesNotPromote(t *testing.T) {
	t.Parallel()

	s := newTestStore[int](2, 0)
	s.Set("a", 1, 1) // LRU = a
	s.Set("b", 2, 1)

	if !s.Contains("a") {
		t.Fatal("a must be present")
	}
	s.Set("c", 3, 1) // overflow -> evict a (Contains did not promote it)

	if s.Contains("a") {
		t.Fatal("a must be evicted; Contains must not alter recency")
	}
	if !s.Contains("b") || !s.Contains("c") {
		t.Fatal("b and c must be resident")
	}
}

// Updating an existing key adjusts the total cost by the delta and keeps
// exactly one entry.
func TestStore_UpdateCostDelta(t *testing.T) {
	t.Parallel()

	s := newTestStore[string](8, 0)
	s.Set("k", "v1", 10)
	s.Set("k", "v2", 3)

	if got := s.Cost(); got != 3 {
		t.Fatalf("cost want 3, got %d", got)
	}
	if s.Len() != 1 {
		t.Fatalf("len want 1, got %d", s.Len())
	}
	if v, ok := s.Get("k"); !ok || v != "v2" {
		t.Fatalf("want v2, got %q ok=%v", v, ok)
	}
}

func TestStore_RemoveReturnsValue(t *testing.T) {
	t.Parallel()

	s := newTestStore[int](8, 0)
	s.Set("k", 42, 7)

	v, ok := s.Remove("k")
	if !ok || v != 42 {
		t.Fatalf("Remove want (42,true), got (%d,%v)", v, ok)
	}
	if _, ok := s.Remove("k"); ok {
		t.Fatal("second Remove must report absent")
	}
	if s.Len() != 0 || s.Cost() != 0 {
		t.Fatalf("counters must be zero, got len=%d cost=%d", s.Len(), s.Cost())
	}
}

// EvictFraction removes floor(len*p) entries from the LRU end.
func TestStore_EvictFraction(t *testing.T) {
	t.Parallel()

	s := newTestStore[int](8, 0)
	for i := 1; i <= 4; i++ {
		s.Set(fmt.Sprintf("k%d", i), i, 1)
	}

	s.EvictFraction(0, EvictPressure) // no-op
	if s.Len() != 4 {
		t.Fatalf("p=0 must be a no-op, len=%d", s.Len())
	}

	s.EvictFraction(0.5, EvictPressure) // drops k1, k2 (LRU first)
	if s.Len() != 2 {
		t.Fatalf("len want 2, got %d", s.Len())
	}
	if s.Contains("k1") || s.Contains("k2") {
		t.Fatal("least recently used entries must go first")
	}
	if !s.Contains("k3") || !s.Contains("k4") {
		t.Fatal("most recently used entries must survive")
	}

	s.EvictFraction(1, EvictPressure)
	if s.Len() != 0 || s.Cost() != 0 {
		t.Fatalf("p=1 must clear the store, len=%d cost=%d", s.Len(), s.Cost())
	}
}

func TestStore_EvictFractionRejectsBadInput(t *testing.T) {
	t.Parallel()

	s := newTestStore[int](8, 0)
	defer func() {
		if recover() == nil {
			t.Fatal("fraction outside [0,1] must panic")
		}
	}()
	s.EvictFraction(1.5, EvictPressure)
}

// RemoveAll on an empty store is a no-op and keeps counters at zero.
func TestStore_RemoveAllIdempotent(t *testing.T) {
	t.Parallel()

	s := newTestStore[int](8, 0)
	s.RemoveAll(EvictExplicit)
	s.RemoveAll(EvictExplicit)

	if s.Len() != 0 || s.Cost() != 0 {
		t.Fatalf("counters must stay zero, got len=%d cost=%d", s.Len(), s.Cost())
	}

	s.Set("k", 1, 5)
	s.RemoveAll(EvictExplicit)
	if s.Len() != 0 || s.Cost() != 0 {
		t.Fatalf("counters must reset, got len=%d cost=%d", s.Len(), s.Cost())
	}
}

// sizeRecorder keeps the last Size gauge values it was handed.
type sizeRecorder struct {
	NoopMetrics
	entries int
	cost    int64
}

func (m *sizeRecorder) Size(entries int, cost int64) {
	m.entries, m.cost = entries, cost
}

// Every removal path refreshes the size gauges, explicit Remove included.
func TestStore_RemoveUpdatesSizeMetrics(t *testing.T) {
	t.Parallel()

	m := &sizeRecorder{}
	s := newStore(Options[int]{MaxCount: 8, Metrics: m}.withDefaults())

	s.Set("a", 1, 5)
	s.Set("b", 2, 7)
	if m.entries != 2 || m.cost != 12 {
		t.Fatalf("after sets want (2,12), got (%d,%d)", m.entries, m.cost)
	}

	s.Remove("a")
	if m.entries != 1 || m.cost != 7 {
		t.Fatalf("after remove want (1,7), got (%d,%d)", m.entries, m.cost)
	}

	s.RemoveAll(EvictExplicit)
	if m.entries != 0 || m.cost != 0 {
		t.Fatalf("after clear want (0,0), got (%d,%d)", m.entries, m.cost)
	}
}

// The OnEvict callback reports the reason for every removal path.
func TestStore_OnEvictReasons(t *testing.T) {
	t.Parallel()

	reasons := map[string]EvictReason{}
	opt := Options[int]{
		MaxCount: 1,
		OnEvict:  func(k string, _ int, r EvictReason) { reasons[k] = r },
	}.withDefaults()
	s := newStore(opt)

	s.Set("a", 1, 1)
	s.Set("b", 2, 1) // evicts a (count)
	s.RemoveAll(EvictExplicit)

	if reasons["a"] != EvictCount {
		t.Fatalf("a want EvictCount, got %v", reasons["a"])
	}
	if reasons["b"] != EvictExplicit {
		t.Fatalf("b want EvictExplicit, got %v", reasons["b"])
	}
}
