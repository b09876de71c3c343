package dictcache

import lru "github.com/hashicorp/golang-lru/v2"

// Handle is a reclaimable reference to a dictionary instance. The handle
// itself lives in the registry map for the life of the process; its referent
// lives in the registry's bounded recency pool and may be dropped under
// memory pressure at any time. Dereferencing after reclamation reports
// absence rather than failing — that is the expected trigger for transparent
// reconstruction, not an error.
//
// Go has no soft references, so "the runtime may reclaim the referent" is
// approximated by the pool: least-recently-used referents fall out when the
// pool is over capacity or when the pressure monitor purges it.
type Handle[D any] struct {
	pool *lru.Cache[string, D]
	key  string
}

// Get returns the referent if it is still live, marking it recently used so
// actively requested dictionaries survive pressure longest.
func (h *Handle[D]) Get() (D, bool) {
	return h.pool.Get(h.key)
}

// Peek returns the referent without touching recency. Maintenance sweeps use
// this so a decay pass does not keep otherwise idle dictionaries alive.
func (h *Handle[D]) Peek() (D, bool) {
	return h.pool.Peek(h.key)
}

// set stores or replaces the referent.
func (h *Handle[D]) set(d D) {
	h.pool.Add(h.key, d)
}

// reclaim drops the referent, leaving the handle valid.
func (h *Handle[D]) reclaim() {
	h.pool.Remove(h.key)
}
