package interfaces

import (
	"errors"
	"fmt"
)

// ErrQueueFull is returned by AudioTrack.Enqueue when the track cannot accept
// another buffer. Callers drop the buffer instead of waiting.
var ErrQueueFull = errors.New("audio track queue full")

// ErrTrackNotOpen is returned by track operations before Open succeeded.
var ErrTrackNotOpen = errors.New("audio track not open")

// Track configuration validation errors.
var (
	// ErrInvalidQueueDepth indicates a queue depth outside its bounds
	ErrInvalidQueueDepth = errors.New("invalid queue depth")

	// ErrInvalidDeviceBuffer indicates a device buffer length outside its bounds
	ErrInvalidDeviceBuffer = errors.New("invalid device buffer length")
)

// Validation bounds for AudioTrackConfig.
const (
	MinQueueDepth        = 1
	MaxQueueDepth        = 64
	MinDeviceBufferMilli = 0
	MaxDeviceBufferMilli = 1000
)

// AudioTrack defines the host audio output a renderer feeds. Implementations
// own a playback goroutine that drains queued buffers asynchronously.
type AudioTrack interface {
	// Open prepares the device for interleaved int16 samples
	Open(sampleRate uint32, channelCount int) error

	// Enqueue copies frameCount interleaved frames into the play queue.
	// Returns ErrQueueFull when the queue has no room; it never blocks.
	Enqueue(samples []int16, frameCount int) error

	// Start begins or resumes playback
	Start() error

	// Stop pauses playback and silently discards queued buffers
	Stop() error

	// SetReleaseCallback registers the function called from the playback
	// goroutine each time a queued buffer has been fully played
	SetReleaseCallback(callback func())

	// Close releases the device
	Close() error

	// IsSimulation returns true if this is a simulation implementation
	IsSimulation() bool
}

// GuestMemory is the read capability the renderer uses to fetch wave buffer
// data and ADPCM coefficients from guest memory.
type GuestMemory interface {
	// ReadAt fills p with the bytes starting at the guest address
	ReadAt(p []byte, address uint64) error
}

// AudioTrackConfig holds configuration for audio track implementations
type AudioTrackConfig struct {
	// UseSimulation determines whether to use the in-memory track or the host device
	UseSimulation bool

	// QueueDepth is the number of buffers the track holds before reporting ErrQueueFull
	QueueDepth int

	// DeviceBufferMillis sets the host device buffer length; 0 lets the device decide
	DeviceBufferMillis int
}

// Validate checks the configuration against its bounds.
func (c *AudioTrackConfig) Validate() error {
	if c.QueueDepth < MinQueueDepth || c.QueueDepth > MaxQueueDepth {
		return fmt.Errorf("%w: %d (must be %d-%d)", ErrInvalidQueueDepth, c.QueueDepth, MinQueueDepth, MaxQueueDepth)
	}
	if c.DeviceBufferMillis < MinDeviceBufferMilli || c.DeviceBufferMillis > MaxDeviceBufferMilli {
		return fmt.Errorf("%w: %dms (must be %d-%d)", ErrInvalidDeviceBuffer, c.DeviceBufferMillis, MinDeviceBufferMilli, MaxDeviceBufferMilli)
	}
	return nil
}
