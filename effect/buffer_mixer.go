package effect

import (
	"encoding/binary"
	"fmt"

	"github.com/opd-ai/audren/limits"
)

// BufferMixerParams routes up to 24 mix buffers onto others with a gain.
//
// Layout: Input u8[24] @0x00, Output u8[24] @0x18, Volume f32[24] @0x30,
// MixCount u32 @0x90.
type BufferMixerParams struct {
	Input    [limits.MaxMixBuffers]uint8
	Output   [limits.MaxMixBuffers]uint8
	Volume   [limits.MaxMixBuffers]float32
	MixCount uint32
}

// Put encodes the parameter block.
func (p *BufferMixerParams) Put(b []byte) {
	copy(b[0x00:], p.Input[:])
	copy(b[0x18:], p.Output[:])
	for i, v := range p.Volume {
		putFloat(b[0x30+i*4:], v)
	}
	binary.LittleEndian.PutUint32(b[0x90:], p.MixCount)
}

// BufferMixer adds scaled copies of input buffers into output buffers.
type BufferMixer struct {
	input   [limits.MaxMixBuffers]uint8
	output  [limits.MaxMixBuffers]uint8
	volume  [limits.MaxMixBuffers]float64
	count   int
	scratch []float64
}

// Configure implements Stage.Configure
func (m *BufferMixer) Configure(params []byte) error {
	count := binary.LittleEndian.Uint32(params[0x90:])
	if count > limits.MaxMixBuffers {
		return fmt.Errorf("%w: buffer mixer count %d", ErrInvalidParameters, count)
	}
	copy(m.input[:], params[0x00:0x18])
	copy(m.output[:], params[0x18:0x30])
	for i := range m.volume {
		m.volume[i] = getFloat(params[0x30+i*4:])
	}
	m.count = int(count)
	return nil
}

// Process implements Stage.Process
func (m *BufferMixer) Process(buses [][]float64) {
	for i := range m.count {
		if !validBus(buses, m.input[i]) || !validBus(buses, m.output[i]) {
			continue
		}
		src, dst := buses[m.input[i]], buses[m.output[i]]
		if cap(m.scratch) < len(src) {
			m.scratch = make([]float64, len(src))
		}
		tmp := m.scratch[:len(src)]
		copy(tmp, src)
		for j := range dst {
			dst[j] += tmp[j] * m.volume[i]
		}
	}
}

// Reset implements Stage.Reset
func (m *BufferMixer) Reset() {}

// GetName implements Stage.GetName
func (m *BufferMixer) GetName() string { return "BufferMixer" }
