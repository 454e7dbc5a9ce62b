package audren

import (
	"testing"
	"time"

	"github.com/opd-ai/audren/limits"
	"github.com/stretchr/testify/assert"
)

func TestPerformanceManagerAverageAndPeak(t *testing.T) {
	tp := &MockTimeProvider{step: time.Millisecond}
	pm := NewPerformanceManager(1, tp)

	pm.End(pm.Begin())
	m := pm.GetPerformanceMetrics()
	assert.Equal(t, time.Millisecond, m.AverageMixTime)
	assert.Equal(t, time.Millisecond, m.PeakMixTime)
	assert.Equal(t, uint64(1), m.ElapsedFrames)

	tp.SetStep(11 * time.Millisecond)
	pm.End(pm.Begin())
	m = pm.GetPerformanceMetrics()
	assert.InDelta(t, float64(2*time.Millisecond), float64(m.AverageMixTime), 1)
	assert.Equal(t, 11*time.Millisecond, m.PeakMixTime)
	assert.Equal(t, 11*time.Millisecond, m.LastMixTime)
	assert.Equal(t, 2, m.HistorySize)
}

func TestPerformanceManagerHistoryIsBounded(t *testing.T) {
	tp := &MockTimeProvider{step: time.Microsecond}
	pm := NewPerformanceManager(1, tp)

	for i := 0; i < limits.PerformanceHistoryFrames+10; i++ {
		tp.SetStep(time.Duration(i) * time.Microsecond)
		pm.End(pm.Begin())
	}

	history := pm.History()
	assert.Len(t, history, limits.PerformanceHistoryFrames)
	assert.Equal(t, 10*time.Microsecond, history[0])
	assert.Equal(t, time.Duration(limits.PerformanceHistoryFrames+9)*time.Microsecond, history[len(history)-1])
	assert.Equal(t, uint64(limits.PerformanceHistoryFrames+10), pm.ElapsedFrames())
}

func TestPerformanceManagerWithoutHistory(t *testing.T) {
	pm := NewPerformanceManager(0, &MockTimeProvider{step: time.Millisecond})
	pm.End(pm.Begin())

	assert.Equal(t, 0, pm.HistorySize())
	assert.Empty(t, pm.History())
	assert.Equal(t, uint64(1), pm.ElapsedFrames())
}

func TestPerformanceManagerCountersAndReset(t *testing.T) {
	pm := NewPerformanceManager(1, &MockTimeProvider{step: time.Millisecond})
	pm.End(pm.Begin())
	pm.CountDropped()
	pm.CountDropped()
	pm.CountEnqueueError()

	m := pm.GetPerformanceMetrics()
	assert.Equal(t, uint64(2), m.DroppedTicks)
	assert.Equal(t, uint64(1), m.EnqueueErrors)

	pm.ResetPerformanceMetrics()
	m = pm.GetPerformanceMetrics()
	assert.Zero(t, m.AverageMixTime)
	assert.Zero(t, m.DroppedTicks)
	assert.Zero(t, m.HistorySize)
	assert.Equal(t, uint64(1), m.ElapsedFrames, "elapsed frames survive a reset")
}

func TestPerformanceManagerDetailedLoggingToggle(t *testing.T) {
	pm := NewPerformanceManager(1, nil)
	assert.False(t, pm.IsDetailedLoggingEnabled())

	pm.SetDetailedLogging(true)
	assert.True(t, pm.IsDetailedLoggingEnabled())
	pm.End(pm.Begin())

	pm.SetDetailedLogging(false)
	assert.False(t, pm.IsDetailedLoggingEnabled())
}
