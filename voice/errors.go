package voice

import "errors"

// Voice parameter errors. A voice that fails validation stays acquired but
// renders silence until a later update corrects it.
var (
	// ErrUnsupportedFormat indicates a sample format not available at the renderer revision
	ErrUnsupportedFormat = errors.New("unsupported sample format")

	// ErrInvalidChannelCount indicates a channel count outside 1..6
	ErrInvalidChannelCount = errors.New("invalid voice channel count")

	// ErrInvalidPitch indicates a non-finite or non-positive pitch
	ErrInvalidPitch = errors.New("invalid voice pitch")

	// ErrInvalidSampleRate indicates a zero source sample rate
	ErrInvalidSampleRate = errors.New("invalid voice sample rate")

	// ErrInvalidPlaybackState indicates an unknown playback state
	ErrInvalidPlaybackState = errors.New("invalid voice playback state")
)

// Wave buffer queue errors.
var (
	// ErrWaveBufferOverflow indicates the guest appended past the queue capacity;
	// the oldest buffers were retired to make room
	ErrWaveBufferOverflow = errors.New("wave buffer queue overflow")

	// ErrWaveBufferSequence indicates the appended count went backwards
	ErrWaveBufferSequence = errors.New("wave buffer append count went backwards")
)
