package testing

import (
	"sync/atomic"
	"testing"

	"github.com/opd-ai/audren/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig() *interfaces.AudioTrackConfig {
	return &interfaces.AudioTrackConfig{
		UseSimulation: true,
		QueueDepth:    2,
	}
}

func TestNewSimulatedAudioTrack(t *testing.T) {
	sim := NewSimulatedAudioTrack(newTestConfig())

	require.NotNil(t, sim)
	assert.True(t, sim.IsSimulation())
	assert.Empty(t, sim.GetEnqueueLog())
}

func TestEnqueueBeforeOpen(t *testing.T) {
	sim := NewSimulatedAudioTrack(newTestConfig())

	err := sim.Enqueue(make([]int16, 4), 2)
	assert.ErrorIs(t, err, interfaces.ErrTrackNotOpen)
}

func TestEnqueueCopiesSamples(t *testing.T) {
	sim := NewSimulatedAudioTrack(newTestConfig())
	require.NoError(t, sim.Open(48000, 2))

	samples := []int16{1, 2, 3, 4}
	require.NoError(t, sim.Enqueue(samples, 2))
	samples[0] = 99

	log := sim.GetEnqueueLog()
	require.Len(t, log, 1)
	assert.Equal(t, []int16{1, 2, 3, 4}, log[0].Samples)
	assert.Equal(t, 2, log[0].Frames)
}

func TestEnqueueQueueFull(t *testing.T) {
	sim := NewSimulatedAudioTrack(newTestConfig())
	require.NoError(t, sim.Open(48000, 2))

	require.NoError(t, sim.Enqueue(make([]int16, 4), 2))
	require.NoError(t, sim.Enqueue(make([]int16, 4), 2))
	assert.ErrorIs(t, sim.Enqueue(make([]int16, 4), 2), interfaces.ErrQueueFull)

	stats := sim.GetTypedStats()
	assert.Equal(t, 2, stats.Enqueued)
	assert.Equal(t, 1, stats.Dropped)
	assert.Equal(t, 2, stats.Queued)
}

func TestReleaseInvokesCallback(t *testing.T) {
	sim := NewSimulatedAudioTrack(newTestConfig())
	require.NoError(t, sim.Open(48000, 2))

	var calls atomic.Int32
	sim.SetReleaseCallback(func() { calls.Add(1) })

	require.NoError(t, sim.Enqueue(make([]int16, 4), 2))
	require.NoError(t, sim.Enqueue(make([]int16, 4), 2))

	assert.Equal(t, 2, sim.Release(5))
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 0, sim.GetTypedStats().Queued)

	// room again after release
	assert.NoError(t, sim.Enqueue(make([]int16, 4), 2))
}

func TestStopFlushesQueue(t *testing.T) {
	sim := NewSimulatedAudioTrack(newTestConfig())
	require.NoError(t, sim.Open(48000, 2))
	require.NoError(t, sim.Start())
	require.NoError(t, sim.Enqueue(make([]int16, 4), 2))

	require.NoError(t, sim.Stop())

	stats := sim.GetTypedStats()
	assert.False(t, stats.IsStarted)
	assert.Equal(t, 0, stats.Queued)
	assert.Equal(t, 1, stats.StartCount)
	assert.Equal(t, 1, stats.StopCount)
}

func TestCloseRejectsEnqueue(t *testing.T) {
	sim := NewSimulatedAudioTrack(newTestConfig())
	require.NoError(t, sim.Open(32000, 2))
	require.NoError(t, sim.Close())

	assert.ErrorIs(t, sim.Enqueue(make([]int16, 4), 2), interfaces.ErrTrackNotOpen)
	assert.True(t, sim.GetTypedStats().IsClosed)
}
