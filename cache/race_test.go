package cache

import (
	"math/rand"
	"runtime"
	"strconv"
	"sync"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/IvanBrykalov/tiercache/codec"
)

// A mixed workload of concurrent Set/Get/Contains/Remove on random keys.
// Should pass under `-race` without detector reports.
func TestRace_Basic(t *testing.T) {
	c := New[[]byte](Options[[]byte]{MaxCount: 8_192})
	t.Cleanup(func() { _ = c.Close() })

	workers := 4 * runtime.GOMAXPROCS(0)
	keyspace := 50_000
	deadline := time.Now().Add(2 * time.Second)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(id int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)*9973))
			for time.Now().Before(deadline) {
				k := "k:" + strconv.Itoa(r.Intn(keyspace))
				switch r.Intn(100) {
				case 0, 1, 2, 3, 4: // ~5% — Remove
					c.Remove(k)
				case 5, 6, 7, 8, 9: // ~5% — Contains
					c.Contains(k)
				case 10, 11, 12, 13, 14, 15, 16, 17, 18, 19: // ~10% — Set
					c.Set(k, []byte("x"))
				default: // ~80% — Get
					c.Get(k)
				}
			}
		}(w)
	}
	wg.Wait()
}

// Concurrent pressure events interleaved with writes must leave the tier
// consistent (no panics from list/map disagreement, bounds still hold).
func TestRace_Pressure(t *testing.T) {
	c := New[int](Options[int]{MaxCount: 1_024})
	t.Cleanup(func() { _ = c.Close() })

	deadline := time.Now().Add(time.Second)
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		for i := 0; time.Now().Before(deadline); i++ {
			c.Set("k:"+strconv.Itoa(i%4096), i)
		}
	}()
	go func() {
		defer wg.Done()
		for time.Now().Before(deadline) {
			c.HandlePressure(PressureWarning)
			time.Sleep(time.Millisecond)
		}
	}()
	go func() {
		defer wg.Done()
		for time.Now().Before(deadline) {
			c.HandlePressure(PressureCritical)
			time.Sleep(5 * time.Millisecond)
		}
	}()
	wg.Wait()

	if got := c.Len(); got > 1_024 {
		t.Fatalf("len %d exceeds the count limit", got)
	}
}

// N concurrent writers to disjoint keys followed by N concurrent readers
// must observe every written value exactly once each, and the resident
// count never exceeds MaxCount.
func TestRace_DisjointWritersThenReaders(t *testing.T) {
	const n = 128
	c := New[string](Options[string]{
		MaxCount: n,
		ID:       "disjoint",
		BaseDir:  t.TempDir(),
		Codec:    codec.String{},
	})
	t.Cleanup(func() { _ = c.Close() })

	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			c.Set("k:"+strconv.Itoa(i), "v:"+strconv.Itoa(i))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if got := c.Len(); got > n {
		t.Fatalf("len %d exceeds MaxCount", got)
	}

	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			v, ok := c.Get("k:" + strconv.Itoa(i))
			if !ok || v != "v:"+strconv.Itoa(i) {
				t.Errorf("k:%d want v:%d, got %q ok=%v", i, i, v, ok)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}
