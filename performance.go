package audren

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/opd-ai/audren/limits"
	"github.com/sirupsen/logrus"
)

// PerformanceMetrics is a snapshot of the renderer's mix timings.
type PerformanceMetrics struct {
	AverageMixTime time.Duration
	PeakMixTime    time.Duration
	LastMixTime    time.Duration
	HistorySize    int
	ElapsedFrames  uint64
	DroppedTicks   uint64
	EnqueueErrors  uint64
}

// PerformanceManager records per-tick mix durations.
//
// The history is a ring bounded by the guest's performance manager count;
// with no managers configured only the running average and peak are kept.
type PerformanceManager struct {
	enableDetailedLogging int32 // 0 = disabled, 1 = enabled

	mu       sync.RWMutex
	history  []time.Duration
	next     int
	filled   int
	avg      time.Duration
	peak     time.Duration
	last     time.Duration
	elapsed  uint64
	dropped  uint64
	failures uint64

	timeProvider TimeProvider
}

// NewPerformanceManager creates a manager holding history for count
// performance managers.
func NewPerformanceManager(count int, tp TimeProvider) *PerformanceManager {
	if tp == nil {
		tp = DefaultTimeProvider{}
	}
	pm := &PerformanceManager{
		history:      make([]time.Duration, count*limits.PerformanceHistoryFrames),
		timeProvider: tp,
	}

	logrus.WithFields(logrus.Fields{
		"function":         "NewPerformanceManager",
		"history_capacity": len(pm.history),
	}).Debug("Performance manager created")

	return pm
}

// Begin starts timing a tick.
func (pm *PerformanceManager) Begin() time.Time {
	return pm.timeProvider.Now()
}

// End records the tick started at start.
func (pm *PerformanceManager) End(start time.Time) {
	d := pm.timeProvider.Since(start)

	pm.mu.Lock()
	pm.last = d
	pm.elapsed++
	if pm.avg == 0 {
		pm.avg = d
	} else {
		pm.avg = time.Duration(float64(pm.avg)*0.9 + float64(d)*0.1)
	}
	if d > pm.peak {
		pm.peak = d
	}
	if len(pm.history) > 0 {
		pm.history[pm.next] = d
		pm.next = (pm.next + 1) % len(pm.history)
		if pm.filled < len(pm.history) {
			pm.filled++
		}
	}
	elapsed := pm.elapsed
	pm.mu.Unlock()

	if pm.IsDetailedLoggingEnabled() {
		logrus.WithFields(logrus.Fields{
			"function": "PerformanceManager.End",
			"tick":     elapsed,
			"mix_time": d,
		}).Trace("Tick mixed")
	}
}

// CountDropped records a tick the host track had no room for.
func (pm *PerformanceManager) CountDropped() {
	pm.mu.Lock()
	pm.dropped++
	pm.mu.Unlock()
}

// CountEnqueueError records a tick the host track rejected.
func (pm *PerformanceManager) CountEnqueueError() {
	pm.mu.Lock()
	pm.failures++
	pm.mu.Unlock()
}

// ElapsedFrames returns the number of mixed ticks.
func (pm *PerformanceManager) ElapsedFrames() uint64 {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.elapsed
}

// HistorySize returns the number of ticks currently held in the history.
func (pm *PerformanceManager) HistorySize() int {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.filled
}

// History returns the recorded tick durations, oldest first.
func (pm *PerformanceManager) History() []time.Duration {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	out := make([]time.Duration, 0, pm.filled)
	start := pm.next - pm.filled
	if start < 0 {
		start += len(pm.history)
	}
	for i := 0; i < pm.filled; i++ {
		out = append(out, pm.history[(start+i)%len(pm.history)])
	}
	return out
}

// GetPerformanceMetrics returns a snapshot of the counters.
func (pm *PerformanceManager) GetPerformanceMetrics() PerformanceMetrics {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	return PerformanceMetrics{
		AverageMixTime: pm.avg,
		PeakMixTime:    pm.peak,
		LastMixTime:    pm.last,
		HistorySize:    pm.filled,
		ElapsedFrames:  pm.elapsed,
		DroppedTicks:   pm.dropped,
		EnqueueErrors:  pm.failures,
	}
}

// ResetPerformanceMetrics clears timings and history. The elapsed frame
// count is part of the guest protocol and is kept.
func (pm *PerformanceManager) ResetPerformanceMetrics() {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.avg, pm.peak, pm.last = 0, 0, 0
	pm.next, pm.filled = 0, 0
	pm.dropped, pm.failures = 0, 0

	logrus.WithFields(logrus.Fields{
		"function": "PerformanceManager.ResetPerformanceMetrics",
	}).Debug("Performance metrics reset")
}

// SetDetailedLogging toggles per-tick trace logging at runtime.
func (pm *PerformanceManager) SetDetailedLogging(enabled bool) {
	var value int32
	if enabled {
		value = 1
	}
	atomic.StoreInt32(&pm.enableDetailedLogging, value)

	logrus.WithFields(logrus.Fields{
		"function": "PerformanceManager.SetDetailedLogging",
		"enabled":  enabled,
	}).Info("Detailed logging setting changed")
}

// IsDetailedLoggingEnabled reports whether per-tick logging is on.
func (pm *PerformanceManager) IsDetailedLoggingEnabled() bool {
	return atomic.LoadInt32(&pm.enableDetailedLogging) == 1
}
