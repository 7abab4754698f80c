// Package diskstore implements a content-addressed, per-identifier file store
// used as the persistent tier of the cache. Each key maps to exactly one file
// whose name is the SHA-256 hex digest of the key, so arbitrary key content
// (unicode, path separators, unbounded length) is always filesystem-safe and
// the same key deterministically resolves to the same path.
//
// The store is a stateless façade over a directory: it keeps no in-memory
// index, tolerates other processes writing the same directory, and treats
// every failure as "not found" (reads) or "best effort" (writes). Corrupted
// files — unreadable or undecodable — are deleted on first contact so a
// subsequent read does not trip over the same bytes again.
package diskstore

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/IvanBrykalov/tiercache/codec"
)

const (
	// DefaultRetention is how long an untouched file survives cleanup sweeps.
	DefaultRetention = time.Hour

	// DefaultSweepEvery is the number of writes between opportunistic sweeps.
	DefaultSweepEvery = 64

	// DefaultSweepInterval is the janitor's wall-clock sweep period.
	DefaultSweepInterval = 5 * time.Minute

	// minSweepGap bounds write-triggered sweep frequency regardless of
	// write rate. The janitor ticker is not subject to it.
	minSweepGap = time.Minute
)

// Options configures a Store. Zero values are safe; defaults are applied
// in New:
//   - ID == ""          => fresh UUID (private, non-shared directory)
//   - BaseDir == ""     => os.TempDir()
//   - Retention <= 0    => DefaultRetention
//   - SweepEvery <= 0   => DefaultSweepEvery
//   - SweepInterval == 0 => DefaultSweepInterval (negative disables the janitor)
//   - Logger == nil     => discard
type Options struct {
	// ID names the logical cache instance. Two stores constructed with the
	// same ID (and BaseDir) share one directory and therefore one key space;
	// distinct IDs never collide on disk.
	ID string

	// BaseDir is the parent under which the store's directory is created.
	BaseDir string

	// Retention is the age past which cleanup removes a file,
	// judged by its last-modified time.
	Retention time.Duration

	// SweepEvery triggers an opportunistic cleanup after this many writes.
	// Sweeps are additionally rate-limited to at most one per minute, so
	// cleanup never becomes a per-write cost.
	SweepEvery int

	// SweepInterval is the period of the background janitor, which keeps
	// sweeping even when the store goes idle after its last write. A
	// negative value disables the janitor; zero means DefaultSweepInterval.
	SweepInterval time.Duration

	Logger *slog.Logger

	// OnPurge is called after a corrupted file is deleted (reason "unreadable"
	// or "undecodable"). Keep it lightweight; it runs on the read path.
	OnPurge func(key string)

	// OnWriteError is called when a best-effort write could not complete.
	OnWriteError func(key string, err error)
}

// Store persists encoded values of type V, one file per key.
// All methods are safe for concurrent use; concurrent writers to the same
// key race with last-write-wins, whole-file-replace semantics.
type Store[V any] struct {
	dir   string
	codec codec.Codec[V]
	opt   Options
	log   *slog.Logger

	// disabled is set when the directory could not be created: the store
	// then degrades to a permanent no-op so the memory tier keeps working.
	disabled bool

	writes    atomic.Uint64
	sweeping  atomic.Bool
	lastSweep atomic.Int64 // UnixNano of the last completed sweep

	stop     chan struct{} // closed by Close; terminates the janitor
	stopOnce sync.Once
}

// New constructs a Store rooted at <BaseDir>/tiercache/<ID>, creating the
// directory (including parents) if absent. The directory is shared by every
// store constructed with the same ID, which is what makes values survive
// instance restarts. If the directory cannot be created the store degrades
// to a no-op instead of failing the whole cache.
//
// A cleanup sweep runs once at construction to drop stale files left behind
// by previous runs.
func New[V any](opt Options, c codec.Codec[V]) *Store[V] {
	if c == nil {
		panic("diskstore: nil codec")
	}
	if opt.ID == "" {
		opt.ID = uuid.NewString()
	}
	if opt.BaseDir == "" {
		opt.BaseDir = os.TempDir()
	}
	if opt.Retention <= 0 {
		opt.Retention = DefaultRetention
	}
	if opt.SweepEvery <= 0 {
		opt.SweepEvery = DefaultSweepEvery
	}
	if opt.SweepInterval == 0 {
		opt.SweepInterval = DefaultSweepInterval
	}
	log := opt.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Store[V]{
		dir:   filepath.Join(opt.BaseDir, "tiercache", opt.ID),
		codec: c,
		opt:   opt,
		log:   log,
		stop:  make(chan struct{}),
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		s.log.Warn("disk tier disabled: cannot create cache directory",
			"dir", s.dir, "error", err)
		s.disabled = true
		return s
	}
	s.Cleanup()
	if opt.SweepInterval > 0 {
		go s.janitor(opt.SweepInterval)
	}
	return s
}

// Close stops the background janitor. Idempotent; the store's read/write
// methods keep working after Close (the directory outlives the instance).
func (s *Store[V]) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Dir returns the store's directory. Empty when the store is disabled.
func (s *Store[V]) Dir() string {
	if s.disabled {
		return ""
	}
	return s.dir
}

// Exists reports whether a file for key is present. Stat only, no reads.
func (s *Store[V]) Exists(key string) bool {
	if s.disabled {
		return false
	}
	_, err := os.Stat(s.path(key))
	return err == nil
}

// Read returns the decoded value for key, or false if the key has no usable
// file. Unreadable or undecodable files are deleted before returning false,
// so the caller never sees the same corruption twice and never sees an error.
func (s *Store[V]) Read(key string) (V, bool) {
	var zero V
	if s.disabled {
		return zero, false
	}

	path := s.path(key)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return zero, false
		}
		s.purge(path, key, "unreadable", err)
		return zero, false
	}

	v, err := s.codec.Decode(b)
	if err != nil {
		s.purge(path, key, "undecodable", err)
		return zero, false
	}
	return v, true
}

// Write encodes v and replaces the file for key. Durability is best effort:
// failures are logged and reported via OnWriteError, never returned. The
// value lands via a temp file plus rename so readers observe either the old
// bytes or the new bytes, never a torn write.
func (s *Store[V]) Write(key string, v V) {
	if s.disabled {
		return
	}

	b, err := s.codec.Encode(v)
	if err != nil {
		s.writeFailed(key, err)
		return
	}

	tmp, err := os.CreateTemp(s.dir, ".write-*")
	if err != nil {
		s.writeFailed(key, err)
		return
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		s.writeFailed(key, err)
		return
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		s.writeFailed(key, err)
		return
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		os.Remove(tmp.Name())
		s.writeFailed(key, err)
		return
	}

	s.writes.Add(1)
	s.maybeSweep()
}

// Remove deletes the file for key if present. Missing files are a no-op.
func (s *Store[V]) Remove(key string) {
	if s.disabled {
		return
	}
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.log.Warn("disk remove failed", "key", key, "error", err)
	}
}

// path derives the file location for key: <dir>/<sha256-hex-of-key>.
func (s *Store[V]) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:]))
}

// purge deletes a corrupted file and notifies the observability hooks.
func (s *Store[V]) purge(path, key, reason string, cause error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.log.Warn("cannot delete corrupted cache file",
			"key", key, "path", path, "error", err)
	}
	s.log.Warn("corrupted cache file deleted",
		"key", key, "reason", reason, "error", cause)
	if cb := s.opt.OnPurge; cb != nil {
		cb(key)
	}
}

func (s *Store[V]) writeFailed(key string, err error) {
	s.log.Warn("disk write failed", "key", key, "error", err)
	if cb := s.opt.OnWriteError; cb != nil {
		cb(key, err)
	}
}
