package app

import (
	"context"
	"runtime"
	"time"

	"go.uber.org/zap"
)

// PressureConfig controls the heap-pressure monitor.
type PressureConfig struct {
	// SoftLimitBytes is the heap size above which idle dictionaries are
	// reclaimed. Zero or negative fields select defaults.
	SoftLimitBytes uint64

	// Interval between heap samples.
	Interval time.Duration
}

// DefaultPressureConfig returns sensible defaults.
func DefaultPressureConfig() PressureConfig {
	return PressureConfig{
		SoftLimitBytes: 256 << 20, // 256 MB
		Interval:       30 * time.Second,
	}
}

// PressureMonitor samples heap usage and reclaims dictionary referents when
// the process crosses the soft limit. It stands in for GC soft references:
// reclamation is driven by an explicit memory signal instead of the
// collector, while registry entries stay put and dictionaries are rebuilt
// transparently on next use.
type PressureMonitor struct {
	cfg     PressureConfig
	reclaim func()
	memFn   func(*runtime.MemStats)
	log     *zap.Logger
}

// NewPressureMonitor creates a monitor that calls reclaim (typically
// Personalizer.ReclaimAll) whenever a sample crosses the soft limit. A nil
// logger disables logging.
func NewPressureMonitor(cfg PressureConfig, reclaim func(), log *zap.Logger) *PressureMonitor {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.SoftLimitBytes == 0 {
		cfg.SoftLimitBytes = DefaultPressureConfig().SoftLimitBytes
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPressureConfig().Interval
	}
	return &PressureMonitor{
		cfg:     cfg,
		reclaim: reclaim,
		memFn:   runtime.ReadMemStats,
		log:     log,
	}
}

// Run samples heap usage every Interval until ctx is cancelled. Blocking;
// run it on its own goroutine.
func (m *PressureMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.check()
		}
	}
}

// check takes one heap sample and reclaims if it crosses the soft limit.
// Returns whether reclamation ran.
func (m *PressureMonitor) check() bool {
	var ms runtime.MemStats
	m.memFn(&ms)
	if ms.HeapAlloc < m.cfg.SoftLimitBytes {
		return false
	}
	m.log.Info("heap over soft limit, reclaiming idle dictionaries",
		zap.Uint64("heap_alloc", ms.HeapAlloc),
		zap.Uint64("soft_limit", m.cfg.SoftLimitBytes))
	m.reclaim()
	return true
}
