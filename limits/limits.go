// Package limits provides centralized capacity limits and alignment rules for
// the audio renderer protocol. This ensures consistent validation across the
// parser, the entity tables and the renderer.
package limits

import (
	"errors"
	"fmt"
)

const (
	// BufferAlignment is the alignment for all guest audio buffers and for
	// the layout of the produced sample buffer.
	BufferAlignment = 0x40

	// ChannelCount is the number of interleaved channels in the final output.
	ChannelCount = 2

	// MaxSampleCount bounds the number of frames produced per tick.
	MaxSampleCount = 1024

	// MaxMixBuffers is the maximum number of mix buffers a renderer may own.
	// It also bounds the mix-buffer volume matrix of a single mix (24x24).
	MaxMixBuffers = 24

	// MaxVoices is the maximum voice count accepted at construction.
	MaxVoices = 1024

	// MaxEffects is the maximum effect count accepted at construction.
	MaxEffects = 256

	// MaxSubMixes is the maximum sub-mix count accepted at construction.
	MaxSubMixes = 128

	// MaxSinks is the maximum sink count accepted at construction.
	MaxSinks = 16

	// MaxWaveBuffers is the capacity of the per-voice wave buffer queue.
	MaxWaveBuffers = 4

	// MaxVoiceChannels is the maximum channel count of a single voice.
	MaxVoiceChannels = 6

	// MaxErrorInfos is the number of error entries the behavior output holds.
	MaxErrorInfos = 10

	// MaxPerformanceManagers is the maximum performance manager count.
	MaxPerformanceManagers = 4

	// PerformanceHistoryFrames is the number of tick timings kept per
	// performance manager.
	PerformanceHistoryFrames = 64
)

var (
	// ErrEmptyRange indicates an address range of zero length
	ErrEmptyRange = errors.New("empty address range")

	// ErrMisaligned indicates an address or size that is not BufferAlignment aligned
	ErrMisaligned = errors.New("misaligned address range")

	// ErrRangeOverflow indicates an address range that wraps the address space
	ErrRangeOverflow = errors.New("address range overflow")

	// ErrCountExceeded indicates a count above its configured maximum
	ErrCountExceeded = errors.New("count exceeds limit")
)

// IsAligned reports whether v is a multiple of BufferAlignment.
func IsAligned(v uint64) bool {
	return v%BufferAlignment == 0
}

// AlignUp rounds n up to the next multiple of BufferAlignment.
func AlignUp(n int) int {
	return (n + BufferAlignment - 1) &^ (BufferAlignment - 1)
}

// ValidateRange validates a guest address range for use as an audio buffer.
// The range must be non-empty, must not wrap and both ends must be aligned.
func ValidateRange(address, size uint64) error {
	if address == 0 || size == 0 {
		return ErrEmptyRange
	}
	if address+size < address {
		return fmt.Errorf("%w: address 0x%x size 0x%x", ErrRangeOverflow, address, size)
	}
	if !IsAligned(address) || !IsAligned(size) {
		return fmt.Errorf("%w: address 0x%x size 0x%x (alignment 0x%x)", ErrMisaligned, address, size, BufferAlignment)
	}
	return nil
}

// ValidateCount validates a named count against the specified maximum.
// Returns an error with context including the actual and maximum values.
func ValidateCount(name string, count, maxCount uint32) error {
	if count > maxCount {
		return fmt.Errorf("%w: %s %d exceeds limit %d", ErrCountExceeded, name, count, maxCount)
	}
	return nil
}
