package dictcache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/kaede/inputcore/internal/ports"
)

// fakeDict is a minimal dictionary collaborator for registry tests.
type fakeDict struct {
	locale  language.Tag
	reloads atomic.Int32
	decays  atomic.Int32
}

func (d *fakeDict) ReloadIfRequired() { d.reloads.Add(1) }
func (d *fakeDict) DecayIfNeeded() error {
	d.decays.Add(1)
	return nil
}

// newCountingRegistry returns a registry over fakeDict plus a pointer to the
// construction counter.
func newCountingRegistry(cfg Config, onHit func(*fakeDict)) (*Registry[*fakeDict], *atomic.Int32) {
	var constructed atomic.Int32
	ctor := func(_ ports.Environment, locale language.Tag) (*fakeDict, error) {
		constructed.Add(1)
		return &fakeDict{locale: locale}, nil
	}
	return New("test", cfg, ctor, onHit, nil), &constructed
}

func TestRegistry_DistinctLocalesDistinctInstances(t *testing.T) {
	r, constructed := newCountingRegistry(DefaultConfig(), nil)

	en, err := r.GetOrCreate(nil, language.AmericanEnglish)
	require.NoError(t, err)
	fr, err := r.GetOrCreate(nil, language.French)
	require.NoError(t, err)

	assert.NotSame(t, en, fr)
	assert.Equal(t, int32(2), constructed.Load())
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, 2, r.LiveLen())
}

func TestRegistry_HitPreservesIdentity(t *testing.T) {
	r, constructed := newCountingRegistry(DefaultConfig(), nil)

	first, err := r.GetOrCreate(nil, language.AmericanEnglish)
	require.NoError(t, err)
	second, err := r.GetOrCreate(nil, language.AmericanEnglish)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), constructed.Load())
}

func TestRegistry_ReclaimThenGetReconstructs(t *testing.T) {
	r, constructed := newCountingRegistry(DefaultConfig(), nil)

	first, err := r.GetOrCreate(nil, language.AmericanEnglish)
	require.NoError(t, err)

	r.Reclaim(language.AmericanEnglish)
	assert.Equal(t, 0, r.LiveLen())
	assert.Equal(t, 1, r.Len(), "reclamation keeps the registry entry")

	second, err := r.GetOrCreate(nil, language.AmericanEnglish)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, int32(2), constructed.Load())
}

func TestRegistry_ConcurrentGetConstructsOnce(t *testing.T) {
	r, constructed := newCountingRegistry(DefaultConfig(), nil)

	const goroutines = 16
	got := make([]*fakeDict, goroutines)
	errs := make([]error, goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i], errs[i] = r.GetOrCreate(nil, language.AmericanEnglish)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), constructed.Load())
	for i := 0; i < goroutines; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, got[0], got[i])
	}
}

func TestRegistry_OnHitRunsOnHitNotOnConstruction(t *testing.T) {
	reload := func(d *fakeDict) { d.ReloadIfRequired() }
	r, _ := newCountingRegistry(DefaultConfig(), reload)

	d, err := r.GetOrCreate(nil, language.AmericanEnglish)
	require.NoError(t, err)
	assert.Equal(t, int32(0), d.reloads.Load(), "fresh construction must not reload")

	_, err = r.GetOrCreate(nil, language.AmericanEnglish)
	require.NoError(t, err)
	assert.Equal(t, int32(1), d.reloads.Load())

	// Reconstruction after reclamation counts as construction, not a hit.
	r.Reclaim(language.AmericanEnglish)
	d2, err := r.GetOrCreate(nil, language.AmericanEnglish)
	require.NoError(t, err)
	assert.Equal(t, int32(0), d2.reloads.Load())
}

func TestRegistry_ConstructorFailurePropagatesVerbatim(t *testing.T) {
	boom := errors.New("dictionary file corrupt")
	fail := true
	ctor := func(_ ports.Environment, locale language.Tag) (*fakeDict, error) {
		if fail {
			return nil, boom
		}
		return &fakeDict{locale: locale}, nil
	}
	r := New("test", DefaultConfig(), ctor, nil, nil)

	_, err := r.GetOrCreate(nil, language.AmericanEnglish)
	assert.Same(t, boom, err, "failure must propagate unwrapped")
	assert.Equal(t, 0, r.LiveLen(), "failed construction must not be cached")

	// The failure is not sticky: the next request retries construction.
	fail = false
	d, err := r.GetOrCreate(nil, language.AmericanEnglish)
	require.NoError(t, err)
	assert.NotNil(t, d)
}

func TestRegistry_SweepSkipsReclaimedEntries(t *testing.T) {
	r, _ := newCountingRegistry(DefaultConfig(), nil)

	live, err := r.GetOrCreate(nil, language.AmericanEnglish)
	require.NoError(t, err)
	gone, err := r.GetOrCreate(nil, language.French)
	require.NoError(t, err)
	r.Reclaim(language.French)

	var visited []string
	r.Sweep(func(locale string, d *fakeDict) {
		visited = append(visited, locale)
		require.NoError(t, d.DecayIfNeeded())
	})

	assert.Equal(t, []string{"en-US"}, visited)
	assert.Equal(t, int32(1), live.decays.Load())
	assert.Equal(t, int32(0), gone.decays.Load())
	assert.Equal(t, 2, r.Len(), "sweep must not remove entries")
	assert.Equal(t, 1, r.LiveLen(), "sweep must not construct")
}

func TestRegistry_SweepDoesNotRefreshRecency(t *testing.T) {
	r, constructed := newCountingRegistry(Config{PoolSize: 2}, nil)

	_, err := r.GetOrCreate(nil, language.AmericanEnglish)
	require.NoError(t, err)
	_, err = r.GetOrCreate(nil, language.French)
	require.NoError(t, err)

	// A sweep touches en-US first in no particular order; either way it must
	// not promote entries. en-US stays the eviction candidate.
	r.Sweep(func(string, *fakeDict) {})

	_, err = r.GetOrCreate(nil, language.German)
	require.NoError(t, err)

	assert.Equal(t, 2, r.LiveLen())
	_, err = r.GetOrCreate(nil, language.French)
	require.NoError(t, err)
	assert.Equal(t, int32(3), constructed.Load(), "fr must still be live after en-US eviction")
}

func TestRegistry_CapacityEvictionReconstructs(t *testing.T) {
	r, constructed := newCountingRegistry(Config{PoolSize: 1}, nil)

	first, err := r.GetOrCreate(nil, language.AmericanEnglish)
	require.NoError(t, err)
	_, err = r.GetOrCreate(nil, language.French)
	require.NoError(t, err)

	assert.Equal(t, 1, r.LiveLen(), "pool capacity bounds live instances")
	assert.Equal(t, 2, r.Len(), "both entries persist")

	again, err := r.GetOrCreate(nil, language.AmericanEnglish)
	require.NoError(t, err)
	assert.NotSame(t, first, again)
	assert.Equal(t, int32(3), constructed.Load())
}

func TestRegistry_ReclaimAllKeepsEntries(t *testing.T) {
	r, _ := newCountingRegistry(DefaultConfig(), nil)

	_, err := r.GetOrCreate(nil, language.AmericanEnglish)
	require.NoError(t, err)
	_, err = r.GetOrCreate(nil, language.French)
	require.NoError(t, err)

	r.ReclaimAll()

	assert.Equal(t, 0, r.LiveLen())
	assert.Equal(t, 2, r.Len())
}
