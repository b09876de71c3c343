// Package ports defines the interfaces (contracts) between the input core
// and its collaborators. The core depends only on these interfaces: the
// dictionary implementations (their load/decay/update algorithms and on-disk
// formats) and the host environment live outside this module entirely.
package ports

import "golang.org/x/text/language"

// Environment is an opaque handle to host-provided configuration and
// storage. The core passes it through to dictionary constructors unexamined.
type Environment any

// UpdateSession is an opaque personalization update session. The core
// forwards it to the prediction dictionary's own registration hook without
// looking inside.
type UpdateSession any

// Constructor builds the dictionary of one kind for one locale.
// Construction may block on local storage I/O; that is acceptable because
// callers serialize construction per registry. A failure is surfaced to the
// requester unmodified and nothing is cached.
type Constructor[D any] func(env Environment, locale language.Tag) (D, error)

// UserHistoryDictionary is the surface the cache needs from a locale's
// user-history dictionary.
type UserHistoryDictionary interface {
	// ReloadIfRequired refreshes the dictionary from its backing store if it
	// has gone stale. The cache calls this on every cache hit, never on a
	// freshly constructed instance.
	ReloadIfRequired()

	// DecayIfNeeded ages the dictionary's internal statistics. Called from
	// periodic maintenance sweeps; implementations should make it cheap when
	// no decay is due. An error marks this entry's sweep as failed but never
	// aborts the sweep as a whole.
	DecayIfNeeded() error
}

// PredictionDictionary is the surface the cache needs from a locale's
// personalization-prediction dictionary.
type PredictionDictionary interface {
	// RegisterUpdateSession attaches a personalization update session to
	// this dictionary.
	RegisterUpdateSession(session UpdateSession)
}
