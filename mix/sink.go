package mix

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/opd-ai/audren/limits"
	"github.com/opd-ai/audren/update"
)

// SinkType is the guest's sink kind.
type SinkType uint8

const (
	SinkInvalid SinkType = iota
	SinkDevice
	SinkCircularBuffer
)

func (t SinkType) String() string {
	switch t {
	case SinkInvalid:
		return "Invalid"
	case SinkDevice:
		return "Device"
	case SinkCircularBuffer:
		return "CircularBuffer"
	}
	return fmt.Sprintf("SinkType(%d)", uint8(t))
}

// ErrInvalidSink indicates a sink record the renderer cannot honour.
var ErrInvalidSink = errors.New("invalid sink")

// Sink maps final mix buffers onto an output.
type Sink struct {
	Type   SinkType
	InUse  bool
	NodeID uint32
	Name   string
	Inputs []uint8
}

// Apply takes the guest's record.
func (s *Sink) Apply(in *update.SinkIn) error {
	if in.InputCount > limits.MaxVoiceChannels {
		s.InUse = false
		return fmt.Errorf("%w: %d inputs", ErrInvalidSink, in.InputCount)
	}
	if SinkType(in.Type) > SinkCircularBuffer {
		s.InUse = false
		return fmt.Errorf("%w: type %d", ErrInvalidSink, in.Type)
	}

	s.Type = SinkType(in.Type)
	s.InUse = in.InUse
	s.NodeID = in.NodeID
	name, _, _ := bytes.Cut(in.DeviceName[:], []byte{0})
	s.Name = string(name)
	s.Inputs = append(s.Inputs[:0], in.Inputs[:in.InputCount]...)
	return nil
}

// Device reports whether the sink feeds the host audio track.
func (s *Sink) Device() bool {
	return s.InUse && s.Type == SinkDevice
}

// ChannelMap fills dst, one entry per output channel, with the final mix
// buffer each channel reads, and returns it. A mono sink feeds both channels.
// Without a device sink the final mix buffers map straight through.
func ChannelMap(dst []int, sinks []*Sink) []int {
	for c := range dst {
		dst[c] = c
	}
	for _, s := range sinks {
		if !s.Device() || len(s.Inputs) == 0 {
			continue
		}
		for c := range dst {
			dst[c] = int(s.Inputs[min(c, len(s.Inputs)-1)])
		}
		break
	}
	return dst
}
