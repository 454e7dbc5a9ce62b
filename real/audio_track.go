//go:build !headless

package real

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/opd-ai/audren/interfaces"
	"github.com/sirupsen/logrus"
)

// OtoAudioTrack plays renderer output on the host audio device through oto.
// All tracks in a process share one oto context and each owns a player.
//
// oto pulls data from the track through Read on its own goroutine. Queued
// buffers are kept as encoded little-endian bytes; when one is fully read
// the release callback fires from that goroutine.
type OtoAudioTrack struct {
	config       *interfaces.AudioTrackConfig
	player       *oto.Player
	sampleRate   uint32
	deviceRate   uint32
	queue        [][]byte
	callback     func()
	channelCount int

	// queue and callback are accessed by Read via the audio engine and by
	// the renderer in another goroutine
	mu      sync.Mutex
	started bool
	closed  bool
}

// NewOtoAudioTrack creates a host device track. The device itself is opened
// by Open.
func NewOtoAudioTrack(config *interfaces.AudioTrackConfig) *OtoAudioTrack {
	logrus.WithFields(logrus.Fields{
		"function":      "NewOtoAudioTrack",
		"queue_depth":   config.QueueDepth,
		"device_buffer": config.DeviceBufferMillis,
	}).Info("Creating host audio track")

	return &OtoAudioTrack{
		config: config,
		queue:  make([][]byte, 0, config.QueueDepth),
	}
}

// Open implements AudioTrack.Open
func (t *OtoAudioTrack) Open(sampleRate uint32, channelCount int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.player != nil {
		return nil
	}

	dev, err := openDevice(sampleRate, channelCount, time.Duration(t.config.DeviceBufferMillis)*time.Millisecond)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    "OtoAudioTrack.Open",
			"sample_rate": sampleRate,
			"channels":    channelCount,
			"error":       err.Error(),
		}).Error("Failed to open host audio device")
		return err
	}

	t.sampleRate = sampleRate
	t.deviceRate = dev.sampleRate
	t.channelCount = channelCount
	t.player = dev.ctx.NewPlayer(t)

	logrus.WithFields(logrus.Fields{
		"function":    "OtoAudioTrack.Open",
		"sample_rate": sampleRate,
		"device_rate": dev.sampleRate,
		"channels":    channelCount,
	}).Info("Host audio track opened")

	return nil
}

// Enqueue implements AudioTrack.Enqueue
func (t *OtoAudioTrack) Enqueue(samples []int16, frameCount int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.player == nil || t.closed {
		return interfaces.ErrTrackNotOpen
	}
	if len(t.queue) >= t.config.QueueDepth {
		return interfaces.ErrQueueFull
	}

	n := min(frameCount*t.channelCount, len(samples))
	converted := convertRate(samples[:n], t.channelCount, t.sampleRate, t.deviceRate)
	buf := make([]byte, len(converted)*2)
	for i, s := range converted {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	t.queue = append(t.queue, buf)
	return nil
}

// Read feeds the oto player. Unfilled space is silence so the device never
// starves; returning zero bytes makes oto spin.
func (t *OtoAudioTrack) Read(p []byte) (int, error) {
	t.mu.Lock()
	released := 0
	n := 0
	for n < len(p) && len(t.queue) > 0 {
		c := copy(p[n:], t.queue[0])
		n += c
		t.queue[0] = t.queue[0][c:]
		if len(t.queue[0]) == 0 {
			t.queue = t.queue[1:]
			released++
		}
	}
	callback := t.callback
	t.mu.Unlock()

	clear(p[n:])

	if callback != nil {
		for range released {
			callback()
		}
	}
	return len(p), nil
}

// Start implements AudioTrack.Start
func (t *OtoAudioTrack) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.player == nil {
		return interfaces.ErrTrackNotOpen
	}
	if !t.started {
		t.player.Play()
		t.started = true
	}
	return nil
}

// Stop implements AudioTrack.Stop; queued buffers are dropped without release
func (t *OtoAudioTrack) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.player == nil {
		return interfaces.ErrTrackNotOpen
	}
	if t.started {
		t.player.Pause()
		t.started = false
	}
	t.queue = t.queue[:0]
	return nil
}

// SetReleaseCallback implements AudioTrack.SetReleaseCallback
func (t *OtoAudioTrack) SetReleaseCallback(callback func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.callback = callback
}

// Close implements AudioTrack.Close
func (t *OtoAudioTrack) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	t.started = false
	t.queue = nil
	if t.player != nil {
		if err := t.player.Close(); err != nil {
			return fmt.Errorf("close audio player: %w", err)
		}
		t.player = nil
	}
	return nil
}

// IsSimulation implements AudioTrack.IsSimulation
func (t *OtoAudioTrack) IsSimulation() bool {
	return false
}

// BufferedBytes returns the amount of data oto holds ahead of the device.
func (t *OtoAudioTrack) BufferedBytes() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.player == nil {
		return 0
	}
	return t.player.BufferedSize()
}
