// Package singleflight coalesces concurrent calls for the same key so the
// underlying work (a disk read, a fetch) runs at most once while duplicates
// wait for the shared result.
package singleflight

import "sync"

// Group deduplicates in-flight calls per key.
// The zero value is ready to use.
//
// The first caller for a key becomes the leader and runs fn; followers block
// on the call's done channel. Publishing (val, err) happens-before
// close(done), so followers always observe the final values. There is no
// cancellation: cache operations either complete or fail, they are never
// aborted by a caller deadline.
type Group[K comparable, V any] struct {
	mu sync.Mutex
	m  map[K]*call[V]
}

type call[V any] struct {
	done chan struct{} // closed when val/err are published
	val  V
	err  error
}

// Do runs fn once for key; concurrent calls with the same key wait for and
// share the leader's result.
func (g *Group[K, V]) Do(key K, fn func() (V, error)) (V, error) {
	g.mu.Lock()
	if g.m == nil {
		g.m = make(map[K]*call[V])
	}
	if c, ok := g.m[key]; ok {
		g.mu.Unlock()
		<-c.done
		return c.val, c.err
	}

	c := &call[V]{done: make(chan struct{})}
	g.m[key] = c
	g.mu.Unlock()

	// Leader path: run fn outside the lock, publish, wake followers.
	c.val, c.err = fn()
	close(c.done)

	g.mu.Lock()
	delete(g.m, key)
	g.mu.Unlock()

	return c.val, c.err
}
