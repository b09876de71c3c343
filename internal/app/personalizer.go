// Package app wires the per-kind dictionary registries into the surface an
// input-method host embeds: a process-wide Personalizer, a periodic decay
// maintenance loop, and a heap-pressure monitor that reclaims idle
// dictionaries.
package app

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/kaede/inputcore/internal/domain/dictcache"
	"github.com/kaede/inputcore/internal/ports"
)

// Config holds Personalizer settings.
type Config struct {
	UserHistory dictcache.Config
	Prediction  dictcache.Config

	// DecayInterval is how often RunMaintenance sweeps the user-history
	// registry. Zero or negative selects the default.
	DecayInterval time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		UserHistory:   dictcache.DefaultConfig(),
		Prediction:    dictcache.DefaultConfig(),
		DecayInterval: 15 * time.Minute,
	}
}

// Personalizer owns the two dictionary registries — user-history and
// personalization-prediction — and exposes the lifecycle operations the host
// composes with the n-gram context model. One Personalizer per process.
type Personalizer struct {
	userHistory *dictcache.Registry[ports.UserHistoryDictionary]
	prediction  *dictcache.Registry[ports.PredictionDictionary]
	cfg         Config
	log         *zap.Logger
}

// NewPersonalizer creates a Personalizer over the two collaborator
// constructors. A nil logger disables logging.
func NewPersonalizer(
	cfg Config,
	newUserHistory ports.Constructor[ports.UserHistoryDictionary],
	newPrediction ports.Constructor[ports.PredictionDictionary],
	log *zap.Logger,
) *Personalizer {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.DecayInterval <= 0 {
		cfg.DecayInterval = DefaultConfig().DecayInterval
	}
	reloadOnHit := func(d ports.UserHistoryDictionary) { d.ReloadIfRequired() }
	return &Personalizer{
		userHistory: dictcache.New("user-history", cfg.UserHistory, newUserHistory, reloadOnHit, log),
		prediction:  dictcache.New("prediction", cfg.Prediction, newPrediction, nil, log),
		cfg:         cfg,
		log:         log,
	}
}

// UserHistoryDictionary returns the live user-history dictionary for locale,
// constructing it if absent or reclaimed. On a cache hit the instance's
// reload-if-required hook has already run — that refresh responsibility
// belongs to the cache, not the caller.
func (p *Personalizer) UserHistoryDictionary(env ports.Environment, locale language.Tag) (ports.UserHistoryDictionary, error) {
	return p.userHistory.GetOrCreate(env, locale)
}

// PredictionDictionary returns the live personalization-prediction
// dictionary for locale, constructing it if absent or reclaimed.
func (p *Personalizer) PredictionDictionary(env ports.Environment, locale language.Tag) (ports.PredictionDictionary, error) {
	return p.prediction.GetOrCreate(env, locale)
}

// RegisterUpdateSession resolves (creating if needed) the prediction
// dictionary for locale and forwards session to its registration hook.
// Construction failure propagates unmodified.
func (p *Personalizer) RegisterUpdateSession(env ports.Environment, session ports.UpdateSession, locale language.Tag) error {
	d, err := p.prediction.GetOrCreate(env, locale)
	if err != nil {
		return err
	}
	d.RegisterUpdateSession(session)
	return nil
}

// TryDecayAll invokes the decay hook on every live user-history dictionary.
// Reclaimed entries are skipped silently, and one entry's failure never
// aborts the sweep. The sweep neither constructs dictionaries nor removes
// entries.
func (p *Personalizer) TryDecayAll() {
	p.userHistory.Sweep(func(locale string, d ports.UserHistoryDictionary) {
		if err := d.DecayIfNeeded(); err != nil {
			p.log.Warn("user-history decay failed",
				zap.String("locale", locale),
				zap.Error(err))
		}
	})
}

// ReclaimAll drops every live referent in both registries while keeping all
// entries. The pressure monitor calls this when the process crosses its soft
// heap limit.
func (p *Personalizer) ReclaimAll() {
	p.userHistory.ReclaimAll()
	p.prediction.ReclaimAll()
}

// RunMaintenance sweeps the user-history registry every DecayInterval until
// ctx is cancelled. Blocking; run it on its own goroutine.
func (p *Personalizer) RunMaintenance(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.DecayInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.TryDecayAll()
		}
	}
}

// ParseLocale canonicalizes a host-supplied locale identifier into the tag
// used as the registry key. Legacy underscore-separated forms ("en_US") are
// accepted alongside BCP 47, so identifiers that canonicalize to the same
// tag share one cache entry.
func ParseLocale(s string) (language.Tag, error) {
	return language.Parse(strings.ReplaceAll(s, "_", "-"))
}
