package effect

import (
	"encoding/binary"
	"math"

	"github.com/opd-ai/audren/limits"
	"github.com/opd-ai/audren/revision"
)

// Stage is a pluggable DSP kernel behind an effect slot.
//
// Process works in place on the mix buffers of the effect's target mix;
// parameter blocks address buffers relative to that mix.
type Stage interface {
	// Configure decodes a new parameter block, keeping state where possible
	Configure(params []byte) error

	// Process runs one tick over the target mix buffers
	Process(buses [][]float64)

	// Reset clears internal state such as delay lines
	Reset()

	// GetName returns a human-readable name for the stage
	GetName() string
}

// Env is what stages need to know about the renderer.
type Env struct {
	SampleRate  uint32
	SampleCount int
	Info        revision.Info
}

// NewStage builds the stage for t, or nil for TypeInvalid.
func NewStage(t Type, env Env) Stage {
	switch t {
	case TypeBufferMixer:
		return &BufferMixer{}
	case TypeAux:
		return &Aux{}
	case TypeDelay:
		return newDelay(env)
	case TypeReverb:
		return newReverb("Reverb", env)
	case TypeReverb3d:
		return newReverb("Reverb3d", env)
	case TypeBiquadFilter:
		return &Biquad{}
	}
	return nil
}

// channel index helpers shared by the stage parameter layouts

func validBus(buses [][]float64, i uint8) bool {
	return int(i) < len(buses)
}

func getFloat(b []byte) float64 {
	f := float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func putFloat(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}

func clampChannels(n int) int {
	return max(0, min(n, limits.MaxVoiceChannels))
}
