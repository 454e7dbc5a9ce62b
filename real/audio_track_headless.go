//go:build headless

package real

import (
	"sync"

	"github.com/opd-ai/audren/interfaces"
	"github.com/sirupsen/logrus"
)

// OtoAudioTrack is the headless stand-in for the host device track. Buffers
// are accepted and released immediately while started.
type OtoAudioTrack struct {
	config   *interfaces.AudioTrackConfig
	callback func()
	opened   bool
	started  bool
	closed   bool
	mu       sync.Mutex
}

// NewOtoAudioTrack creates a headless track.
func NewOtoAudioTrack(config *interfaces.AudioTrackConfig) *OtoAudioTrack {
	logrus.WithFields(logrus.Fields{
		"function": "NewOtoAudioTrack",
	}).Info("Creating headless audio track")
	return &OtoAudioTrack{config: config}
}

// Open implements AudioTrack.Open
func (t *OtoAudioTrack) Open(sampleRate uint32, channelCount int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.opened = true
	return nil
}

// Enqueue implements AudioTrack.Enqueue
func (t *OtoAudioTrack) Enqueue(samples []int16, frameCount int) error {
	t.mu.Lock()
	if !t.opened || t.closed {
		t.mu.Unlock()
		return interfaces.ErrTrackNotOpen
	}
	callback := t.callback
	started := t.started
	t.mu.Unlock()

	if started && callback != nil {
		callback()
	}
	return nil
}

// Start implements AudioTrack.Start
func (t *OtoAudioTrack) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.started = true
	return nil
}

// Stop implements AudioTrack.Stop
func (t *OtoAudioTrack) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.started = false
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
	t.closed = true
	return nil
}

// IsSimulation implements AudioTrack.IsSimulation
func (t *OtoAudioTrack) IsSimulation() bool {
	return false
}

// BufferedBytes is always zero without a device.
func (t *OtoAudioTrack) BufferedBytes() int {
	return 0
}
