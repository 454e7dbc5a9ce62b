package effect

import (
	"encoding/binary"

	"github.com/opd-ai/audren/internal/dsp"
	"github.com/opd-ai/audren/limits"
)

// BiquadParams configures the biquad filter effect.
//
// Layout: Input u8[6] @0x00, Output u8[6] @0x06, B i16[3] @0x0C,
// A i16[2] @0x12, ChannelCount u8 @0x16. Coefficients are Q14 with the
// feedback terms stored negated, as for voice biquads.
type BiquadParams struct {
	Input        [limits.MaxVoiceChannels]uint8
	Output       [limits.MaxVoiceChannels]uint8
	B            [3]int16
	A            [2]int16
	ChannelCount uint8
}

// Put encodes the parameter block.
func (p *BiquadParams) Put(b []byte) {
	copy(b[0x00:], p.Input[:])
	copy(b[0x06:], p.Output[:])
	for i, v := range p.B {
		binary.LittleEndian.PutUint16(b[0x0C+i*2:], uint16(v))
	}
	for i, v := range p.A {
		binary.LittleEndian.PutUint16(b[0x12+i*2:], uint16(v))
	}
	b[0x16] = p.ChannelCount
}

// Biquad filters each input buffer into its output buffer.
type Biquad struct {
	input    [limits.MaxVoiceChannels]uint8
	output   [limits.MaxVoiceChannels]uint8
	channels int
	sections [limits.MaxVoiceChannels]dsp.Section
}

// Configure implements Stage.Configure
func (f *Biquad) Configure(params []byte) error {
	var b [3]int16
	var a [2]int16
	for i := range b {
		b[i] = int16(binary.LittleEndian.Uint16(params[0x0C+i*2:]))
	}
	for i := range a {
		a[i] = int16(binary.LittleEndian.Uint16(params[0x12+i*2:]))
	}

	copy(f.input[:], params[0x00:0x06])
	copy(f.output[:], params[0x06:0x0C])
	f.channels = clampChannels(int(params[0x16]))
	coeffs := dsp.NewQ14Section(b, a)
	for c := range f.sections {
		f.sections[c].SetCoefficients(coeffs)
	}
	return nil
}

// Process implements Stage.Process
func (f *Biquad) Process(buses [][]float64) {
	for c := range f.channels {
		if !validBus(buses, f.input[c]) || !validBus(buses, f.output[c]) {
			continue
		}
		out := buses[f.output[c]]
		if f.input[c] != f.output[c] {
			copy(out, buses[f.input[c]])
		}
		f.sections[c].ProcessBlock(out)
	}
}

// Reset implements Stage.Reset
func (f *Biquad) Reset() {
	for c := range f.sections {
		f.sections[c].Reset()
	}
}

// GetName implements Stage.GetName
func (f *Biquad) GetName() string { return "BiquadFilter" }
