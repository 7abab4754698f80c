package diskstore

import (
	"os"
	"path/filepath"
	"time"
)

// Cleanup removes every regular file in the store's directory whose
// last-modified time is older than the retention window, and returns the
// number of files removed. It never touches subdirectories or files it
// cannot stat; those are left for a later sweep.
//
// Cleanup runs at construction and opportunistically after writes
// (see maybeSweep); callers may also invoke it directly.
func (s *Store[V]) Cleanup() int {
	if s.disabled {
		return 0
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.log.Warn("cleanup scan failed", "dir", s.dir, "error", err)
		return 0
	}

	cutoff := time.Now().Add(-s.opt.Retention)
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err == nil {
			removed++
		}
	}

	s.lastSweep.Store(time.Now().UnixNano())
	if removed > 0 {
		s.log.Info("cleanup removed stale cache files",
			"dir", s.dir, "removed", removed, "retention", s.opt.Retention)
	}
	return removed
}

// maybeSweep kicks off a background Cleanup once every SweepEvery writes,
// rate-limited to at most one sweep per minSweepGap. The sweep runs in its
// own goroutine so the write path never pays the directory scan.
func (s *Store[V]) maybeSweep() {
	if s.writes.Load()%uint64(s.opt.SweepEvery) != 0 {
		return
	}
	if time.Since(time.Unix(0, s.lastSweep.Load())) < minSweepGap {
		return
	}
	go s.sweep()
}

// sweep runs one Cleanup, dropping the call if another sweep is in flight.
func (s *Store[V]) sweep() {
	if !s.sweeping.CompareAndSwap(false, true) {
		return
	}
	defer s.sweeping.Store(false)
	s.Cleanup()
}

// janitor sweeps on a wall-clock ticker so retention holds even when the
// store goes idle after its last write. It exits when Close fires.
func (s *Store[V]) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}
