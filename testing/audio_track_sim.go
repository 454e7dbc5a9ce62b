package testing

import (
	"fmt"
	"sync"
	"time"

	"github.com/opd-ai/audren/interfaces"
	"github.com/sirupsen/logrus"
)

// SimulatedAudioTrack implements an in-memory audio track for testing.
// Buffers stay queued until Release is called, standing in for the host
// playback goroutine.
type SimulatedAudioTrack struct {
	config       *interfaces.AudioTrackConfig
	queue        [][]int16
	enqueueLog   []EnqueueRecord
	callback     func()
	sampleRate   uint32
	channelCount int
	opened       bool
	started      bool
	closed       bool
	openCount    int
	startCount   int
	stopCount    int
	released     int
	mu           sync.Mutex
}

// EnqueueRecord represents one Enqueue call for test verification
type EnqueueRecord struct {
	Frames    int
	Samples   []int16
	Timestamp int64
	Dropped   bool
	Error     error
}

// TrackStats summarizes the simulated track state
type TrackStats struct {
	OpenCount    int
	StartCount   int
	StopCount    int
	Queued       int
	Enqueued     int
	Dropped      int
	Released     int
	IsStarted    bool
	IsClosed     bool
	SampleRate   uint32
	ChannelCount int
}

// NewSimulatedAudioTrack creates a new simulation implementation for testing
func NewSimulatedAudioTrack(config *interfaces.AudioTrackConfig) *SimulatedAudioTrack {
	logrus.Warn("SIMULATION FUNCTION - NOT A REAL OPERATION")
	logrus.WithFields(logrus.Fields{
		"function":    "NewSimulatedAudioTrack",
		"queue_depth": config.QueueDepth,
	}).Info("Creating simulated audio track for testing")

	return &SimulatedAudioTrack{
		config:     config,
		queue:      make([][]int16, 0, config.QueueDepth),
		enqueueLog: make([]EnqueueRecord, 0),
	}
}

// Open implements AudioTrack.Open with simulation
func (s *SimulatedAudioTrack) Open(sampleRate uint32, channelCount int) error {
	logrus.WithFields(logrus.Fields{
		"function":      "SimulatedAudioTrack.Open",
		"sample_rate":   sampleRate,
		"channel_count": channelCount,
	}).Info("Simulating audio track open")

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("simulated track closed")
	}
	if sampleRate == 0 || channelCount <= 0 {
		return fmt.Errorf("invalid track format: %d Hz, %d channels", sampleRate, channelCount)
	}

	s.sampleRate = sampleRate
	s.channelCount = channelCount
	s.opened = true
	s.openCount++
	return nil
}

// Enqueue implements AudioTrack.Enqueue with simulation
func (s *SimulatedAudioTrack) Enqueue(samples []int16, frameCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := EnqueueRecord{
		Frames:    frameCount,
		Timestamp: time.Now().UnixNano(),
	}

	if !s.opened || s.closed {
		record.Error = interfaces.ErrTrackNotOpen
		s.enqueueLog = append(s.enqueueLog, record)
		return interfaces.ErrTrackNotOpen
	}

	if len(s.queue) >= s.config.QueueDepth {
		record.Dropped = true
		record.Error = interfaces.ErrQueueFull
		s.enqueueLog = append(s.enqueueLog, record)

		logrus.WithFields(logrus.Fields{
			"function": "SimulatedAudioTrack.Enqueue",
			"queued":   len(s.queue),
			"depth":    s.config.QueueDepth,
		}).Debug("Simulated track queue full")

		return interfaces.ErrQueueFull
	}

	n := frameCount * s.channelCount
	if n > len(samples) {
		n = len(samples)
	}
	buf := make([]int16, n)
	copy(buf, samples[:n])

	s.queue = append(s.queue, buf)
	record.Samples = buf
	s.enqueueLog = append(s.enqueueLog, record)
	return nil
}

// Start implements AudioTrack.Start with simulation
func (s *SimulatedAudioTrack) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.opened {
		return interfaces.ErrTrackNotOpen
	}
	s.started = true
	s.startCount++
	return nil
}

// Stop implements AudioTrack.Stop with simulation; queued buffers are discarded
func (s *SimulatedAudioTrack) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.opened {
		return interfaces.ErrTrackNotOpen
	}
	s.started = false
	s.stopCount++
	s.queue = s.queue[:0]
	return nil
}

// SetReleaseCallback implements AudioTrack.SetReleaseCallback
func (s *SimulatedAudioTrack) SetReleaseCallback(callback func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callback = callback
}

// Close implements AudioTrack.Close with simulation
func (s *SimulatedAudioTrack) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.started = false
	s.queue = nil
	return nil
}

// IsSimulation implements AudioTrack.IsSimulation
func (s *SimulatedAudioTrack) IsSimulation() bool {
	return true
}

// Release plays up to n queued buffers and invokes the release callback once
// per buffer, the way the host playback goroutine would. It returns the
// number of buffers released.
func (s *SimulatedAudioTrack) Release(n int) int {
	s.mu.Lock()
	if n > len(s.queue) {
		n = len(s.queue)
	}
	s.queue = s.queue[n:]
	s.released += n
	callback := s.callback
	s.mu.Unlock()

	if callback != nil {
		for range n {
			callback()
		}
	}
	return n
}

// GetEnqueueLog returns a copy of the enqueue log
func (s *SimulatedAudioTrack) GetEnqueueLog() []EnqueueRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]EnqueueRecord, len(s.enqueueLog))
	copy(out, s.enqueueLog)
	return out
}

// ClearEnqueueLog clears the enqueue log
func (s *SimulatedAudioTrack) ClearEnqueueLog() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enqueueLog = s.enqueueLog[:0]
}

// GetTypedStats returns the simulated track statistics
func (s *SimulatedAudioTrack) GetTypedStats() TrackStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := TrackStats{
		OpenCount:    s.openCount,
		StartCount:   s.startCount,
		StopCount:    s.stopCount,
		Queued:       len(s.queue),
		Released:     s.released,
		IsStarted:    s.started,
		IsClosed:     s.closed,
		SampleRate:   s.sampleRate,
		ChannelCount: s.channelCount,
	}
	for _, r := range s.enqueueLog {
		switch {
		case r.Dropped:
			stats.Dropped++
		case r.Error == nil:
			stats.Enqueued++
		}
	}
	return stats
}
