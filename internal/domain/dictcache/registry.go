// Package dictcache implements the per-locale dictionary registries: a
// process-wide mapping from canonical locale key to a reclaimable handle on
// that locale's dictionary instance, one registry per dictionary kind.
//
// The registry guarantees at most one live instance per locale, tolerates
// reclamation of idle instances under memory pressure, and transparently
// reconstructs them on the next request. Entries never expire by time; only
// referents are ever dropped, and the map slot persists for the process.
package dictcache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/kaede/inputcore/internal/ports"
)

// Config holds registry settings.
type Config struct {
	// PoolSize bounds how many live dictionary instances the registry keeps.
	// Beyond it the least recently requested referent is reclaimed. Zero or
	// negative selects the default.
	PoolSize int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{PoolSize: 8}
}

// Registry maps canonical locale keys to reclaimable handles on dictionary
// instances of one kind. Safe for concurrent use: the whole
// check-construct-insert sequence of GetOrCreate runs under one coarse,
// registry-wide mutex. Dictionary construction is the expensive operation
// (disk I/O, large structure build), so deduplicating concurrent
// construction matters more than concurrent reads of different locales.
type Registry[D any] struct {
	kind    string
	newDict ports.Constructor[D]
	onHit   func(D) // runs on cache hit before returning; nil for most kinds
	log     *zap.Logger

	mu      sync.Mutex            // guards the check-construct-insert path
	handles sync.Map              // canonical locale key -> *Handle[D]
	pool    *lru.Cache[string, D] // live referents, bounded, recency-evicted
}

// New creates a registry for one dictionary kind. onHit, when non-nil, runs
// on every cache hit before the instance is returned and never on a freshly
// constructed one; the user-history kind uses it for reload-if-required.
// A nil logger disables logging.
func New[D any](kind string, cfg Config, ctor ports.Constructor[D], onHit func(D), log *zap.Logger) *Registry[D] {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = DefaultConfig().PoolSize
	}
	r := &Registry[D]{
		kind:    kind,
		newDict: ctor,
		onHit:   onHit,
		log:     log,
	}
	// Size is validated above, so the constructor cannot fail.
	r.pool, _ = lru.NewWithEvict(cfg.PoolSize, func(key string, _ D) {
		r.log.Debug("dictionary referent reclaimed",
			zap.String("kind", r.kind),
			zap.String("locale", key))
	})
	return r
}

// GetOrCreate returns the live dictionary for locale, constructing it via
// the registry's constructor when the locale has never been requested or its
// previous instance was reclaimed. Constructor failures are returned to the
// caller unmodified and nothing is cached for the locale.
func (r *Registry[D]) GetOrCreate(env ports.Environment, locale language.Tag) (D, error) {
	key := locale.String()
	r.mu.Lock()
	defer r.mu.Unlock()

	h := r.handle(key)
	if d, ok := h.Get(); ok {
		r.log.Debug("using cached dictionary",
			zap.String("kind", r.kind),
			zap.String("locale", key))
		if r.onHit != nil {
			r.onHit(d)
		}
		return d, nil
	}
	d, err := r.newDict(env, locale)
	if err != nil {
		var zero D
		return zero, err
	}
	h.set(d)
	return d, nil
}

// handle returns the persistent handle for key, creating the map slot on
// first request. Slots are never removed for the life of the process.
func (r *Registry[D]) handle(key string) *Handle[D] {
	if v, ok := r.handles.Load(key); ok {
		return v.(*Handle[D])
	}
	v, _ := r.handles.LoadOrStore(key, &Handle[D]{pool: r.pool, key: key})
	return v.(*Handle[D])
}

// Sweep calls fn on every entry whose referent is still live, skipping
// reclaimed entries silently. It runs without the registry mutex — the
// handle map tolerates concurrent iteration, and referents are read
// defensively via Peek so the sweep does not refresh recency. Sweep never
// constructs dictionaries and never removes entries.
func (r *Registry[D]) Sweep(fn func(locale string, d D)) {
	r.handles.Range(func(key, v any) bool {
		if d, ok := v.(*Handle[D]).Peek(); ok {
			fn(key.(string), d)
		}
		return true
	})
}

// Reclaim drops the live referent for locale, if any, keeping the registry
// entry. The next GetOrCreate for the locale constructs a fresh instance.
func (r *Registry[D]) Reclaim(locale language.Tag) {
	if v, ok := r.handles.Load(locale.String()); ok {
		v.(*Handle[D]).reclaim()
	}
}

// ReclaimAll drops every live referent while keeping all registry entries.
// This is the strongest memory-pressure response: every dictionary is
// rebuilt on its next request.
func (r *Registry[D]) ReclaimAll() {
	r.pool.Purge()
}

// Len returns the number of registry entries (locales ever requested).
func (r *Registry[D]) Len() int {
	n := 0
	r.handles.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// LiveLen returns the number of referents currently live.
func (r *Registry[D]) LiveLen() int {
	return r.pool.Len()
}
