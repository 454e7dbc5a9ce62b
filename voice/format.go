package voice

import (
	"fmt"

	"github.com/opd-ai/audren/revision"
)

// SampleFormat is the guest's encoding of wave buffer data.
type SampleFormat uint8

const (
	FormatInvalid SampleFormat = iota
	FormatPcmInt8
	FormatPcmInt16
	FormatPcmInt24
	FormatPcmInt32
	FormatPcmFloat
	FormatAdpcm
)

var formatNames = [...]string{
	FormatInvalid:  "Invalid",
	FormatPcmInt8:  "PcmInt8",
	FormatPcmInt16: "PcmInt16",
	FormatPcmInt24: "PcmInt24",
	FormatPcmInt32: "PcmInt32",
	FormatPcmFloat: "PcmFloat",
	FormatAdpcm:    "Adpcm",
}

func (f SampleFormat) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return fmt.Sprintf("SampleFormat(%d)", uint8(f))
}

// Supported reports whether voices may use the format at this revision.
func (f SampleFormat) Supported(info revision.Info) bool {
	switch f {
	case FormatPcmInt16, FormatAdpcm:
		return true
	case FormatPcmFloat:
		return info.Supports(revision.CapPcmFloat)
	}
	return false
}

// span returns the number of bytes holding the first frames frames.
func (f SampleFormat) span(frames uint32, channels int) uint64 {
	switch f {
	case FormatPcmInt16:
		return uint64(frames) * uint64(channels) * 2
	case FormatPcmFloat:
		return uint64(frames) * uint64(channels) * 4
	case FormatAdpcm:
		return (uint64(frames) + adpcmSamplesPerFrame - 1) / adpcmSamplesPerFrame * adpcmFrameSize
	}
	return 0
}

// PlaybackState is the guest requested playback state of a voice.
type PlaybackState uint8

const (
	StateStarted PlaybackState = iota
	StateStopped
	StatePaused
)

func (s PlaybackState) String() string {
	switch s {
	case StateStarted:
		return "Started"
	case StateStopped:
		return "Stopped"
	case StatePaused:
		return "Paused"
	}
	return fmt.Sprintf("PlaybackState(%d)", uint8(s))
}
