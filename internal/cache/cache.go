// Package cache provides a persistent, memoizing cache for values that are expensive to compute
// (typically the result of a network call). Values are kept in memory for the life of the Manager
// and persisted to disk as zlib-compressed msgpack so that later runs can reuse them.
package cache

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/klauspost/compress/zlib"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/singleflight"

	"github.com/anchore/ubiforge/internal"
	"github.com/anchore/ubiforge/internal/log"
)

// SchemaVersion tags every persisted entry; entries written with any other schema are discarded.
const SchemaVersion = 1

// Extension is the conventional file suffix for cache files written by a Manager.
const Extension = ".msgpack.z"

// ErrCacheCorrupt indicates that an on-disk entry could not be decoded. It is never returned from
// GetOrTryInit: a corrupt entry is a cache miss.
var ErrCacheCorrupt = errors.New("cache entry is corrupt")

var errStale = errors.New("cache entry is stale")

type envelope[T any] struct {
	Schema int `msgpack:"schema"`
	Value  T   `msgpack:"value"`
}

type Option func(*options)

type options struct {
	freshDuration time.Duration
	now           func() time.Time
}

// WithFreshDuration treats on-disk entries older than d as a miss. Zero (the default) never expires entries.
func WithFreshDuration(d time.Duration) Option {
	return func(o *options) {
		o.freshDuration = d
	}
}

// Manager memoizes a single value of type T, persisted at a fixed path.
type Manager[T any] struct {
	path string
	opts options

	lock   sync.RWMutex
	value  T
	loaded bool
	group  singleflight.Group
}

func New[T any](path string, opts ...Option) *Manager[T] {
	o := options{
		now: time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Manager[T]{
		path: path,
		opts: o,
	}
}

func (m *Manager[T]) Path() string {
	return m.path
}

// GetOrTryInit returns the cached value, calling initFn only when neither the in-memory nor the on-disk
// entry is usable. A failed initFn leaves the cache empty so the next call retries.
func (m *Manager[T]) GetOrTryInit(initFn func() (T, error)) (T, error) {
	if v, ok := m.memo(); ok {
		return v, nil
	}

	result, err, _ := m.group.Do(m.path, func() (any, error) {
		if v, ok := m.memo(); ok {
			return v, nil
		}

		lgr := log.Nested("cache", m.path)

		v, err := m.read()
		switch {
		case err == nil:
			lgr.Trace("cache hit")
			m.remember(v)
			return v, nil
		case errors.Is(err, fs.ErrNotExist):
			lgr.Trace("cache miss")
		case errors.Is(err, errStale):
			lgr.Trace("cache entry is stale")
		default:
			lgr.WithFields("error", err).Debug("discarding unreadable cache entry")
		}

		v, err = initFn()
		if err != nil {
			return nil, err
		}

		if err := m.write(v); err != nil {
			lgr.WithFields("error", err).Warn("unable to persist cache entry")
		}

		m.remember(v)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	return result.(T), nil
}

// Clear drops the in-memory value and removes the on-disk entry.
func (m *Manager[T]) Clear() error {
	m.lock.Lock()
	defer m.lock.Unlock()

	var zero T
	m.value = zero
	m.loaded = false

	if err := os.Remove(m.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("unable to remove cache entry %q: %w", m.path, err)
	}
	return nil
}

func (m *Manager[T]) memo() (T, bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.value, m.loaded
}

func (m *Manager[T]) remember(v T) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.value = v
	m.loaded = true
}

func (m *Manager[T]) read() (T, error) {
	var zero T

	info, err := os.Stat(m.path)
	if err != nil {
		return zero, err
	}

	if m.opts.freshDuration > 0 && m.opts.now().Sub(info.ModTime()) > m.opts.freshDuration {
		return zero, errStale
	}

	fh, err := os.Open(m.path)
	if err != nil {
		return zero, err
	}
	defer fh.Close()

	zr, err := zlib.NewReader(fh)
	if err != nil {
		return zero, fmt.Errorf("%w: %v", ErrCacheCorrupt, err)
	}
	defer zr.Close()

	// read everything so that the zlib checksum is verified
	payload, err := io.ReadAll(zr)
	if err != nil {
		return zero, fmt.Errorf("%w: %v", ErrCacheCorrupt, err)
	}

	var env envelope[T]
	if err := msgpack.Unmarshal(payload, &env); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrCacheCorrupt, err)
	}

	if env.Schema != SchemaVersion {
		return zero, fmt.Errorf("%w: unexpected schema version %d", ErrCacheCorrupt, env.Schema)
	}

	return env.Value, nil
}

// write replaces the entry atomically so that concurrent processes never observe a partial file.
func (m *Manager[T]) write(v T) error {
	payload, err := msgpack.Marshal(envelope[T]{Schema: SchemaVersion, Value: v})
	if err != nil {
		return fmt.Errorf("unable to encode cache entry: %w", err)
	}

	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(payload); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}

	return internal.AtomicWriteFile(m.path, buf.Bytes(), 0o644)
}
