package effect

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/opd-ai/audren/limits"
	"github.com/opd-ai/audren/revision"
)

// Pre-delay limits in milliseconds; the long limit applies from REV3.
const (
	MaxPreDelayMillis     = 150
	MaxLongPreDelayMillis = 300
)

// Comb and allpass delays in samples at 48kHz. Prime lengths avoid
// periodic ringing.
var (
	combDelays    = [4]int{1687, 1601, 2053, 2251}
	allpassDelays = [2]int{389, 307}
)

const (
	allpassCoeff      = 0.5
	reverbAttenuation = 0.3
	stereoSpread      = 23
)

// ReverbParams configures the reverb and 3D reverb stages.
//
// Layout: Input u8[6] @0x00, Output u8[6] @0x06, ChannelCount u16 @0x0C,
// PreDelay f32 ms @0x10, DecayTime f32 s @0x14, HighFreqDecay f32 @0x18,
// ReverbGain f32 @0x1C, OutGain f32 @0x20, DryGain f32 @0x24.
type ReverbParams struct {
	Input         [limits.MaxVoiceChannels]uint8
	Output        [limits.MaxVoiceChannels]uint8
	ChannelCount  uint16
	PreDelay      float32
	DecayTime     float32
	HighFreqDecay float32
	ReverbGain    float32
	OutGain       float32
	DryGain       float32
}

// Put encodes the parameter block.
func (p *ReverbParams) Put(b []byte) {
	copy(b[0x00:], p.Input[:])
	copy(b[0x06:], p.Output[:])
	binary.LittleEndian.PutUint16(b[0x0C:], p.ChannelCount)
	putFloat(b[0x10:], p.PreDelay)
	putFloat(b[0x14:], p.DecayTime)
	putFloat(b[0x18:], p.HighFreqDecay)
	putFloat(b[0x1C:], p.ReverbGain)
	putFloat(b[0x20:], p.OutGain)
	putFloat(b[0x24:], p.DryGain)
}

type comb struct {
	buf    []float64
	pos    int
	decay  float64
	filter float64
}

type allpass struct {
	buf []float64
	pos int
}

type reverbChannel struct {
	preDelay []float64
	prePos   int
	combs    [len(combDelays)]comb
	allpass  [len(allpassDelays)]allpass
}

// Reverb is a comb/allpass network: a pre-delay feeds four parallel damped
// comb filters whose sum passes two series allpass filters.
type Reverb struct {
	name       string
	rate       uint32
	longDelay  bool
	input      [limits.MaxVoiceChannels]uint8
	output     [limits.MaxVoiceChannels]uint8
	channels   int
	preDelay   int
	decayTime  float64
	damping    float64
	reverbGain float64
	outGain    float64
	dryGain    float64
	state      [limits.MaxVoiceChannels]reverbChannel
}

func newReverb(name string, env Env) *Reverb {
	r := &Reverb{
		name:      name,
		rate:      env.SampleRate,
		longDelay: env.Info.Supports(revision.CapLongPreDelay),
	}
	maxPre := r.maxPreDelaySamples()
	for c := range r.state {
		ch := &r.state[c]
		ch.preDelay = make([]float64, maxPre+1)
		for i := range ch.combs {
			ch.combs[i].buf = make([]float64, r.scale(combDelays[i]+stereoSpread*c))
		}
		for i := range ch.allpass {
			ch.allpass[i].buf = make([]float64, r.scale(allpassDelays[i]+stereoSpread*c))
		}
	}
	return r
}

func (r *Reverb) scale(samples48k int) int {
	return max(1, samples48k*int(r.rate)/48000)
}

func (r *Reverb) maxPreDelaySamples() int {
	ms := MaxPreDelayMillis
	if r.longDelay {
		ms = MaxLongPreDelayMillis
	}
	return ms * int(r.rate) / 1000
}

// Configure implements Stage.Configure
func (r *Reverb) Configure(params []byte) error {
	pre := getFloat(params[0x10:])
	decay := getFloat(params[0x14:])
	if pre < 0 || decay <= 0 {
		return fmt.Errorf("%w: pre-delay %vms decay %vs", ErrInvalidParameters, pre, decay)
	}

	copy(r.input[:], params[0x00:0x06])
	copy(r.output[:], params[0x06:0x0C])
	r.channels = clampChannels(int(binary.LittleEndian.Uint16(params[0x0C:])))
	r.preDelay = min(int(pre*float64(r.rate)/1000), r.maxPreDelaySamples())
	r.decayTime = decay
	r.damping = max(0, min(1, getFloat(params[0x18:])))
	r.reverbGain = getFloat(params[0x1C:])
	r.outGain = getFloat(params[0x20:])
	r.dryGain = getFloat(params[0x24:])

	// feedback for a 60dB decay over decayTime
	for c := range r.state {
		for i := range r.state[c].combs {
			cb := &r.state[c].combs[i]
			seconds := float64(len(cb.buf)) / float64(r.rate)
			cb.decay = math.Pow(10, -3*seconds/r.decayTime)
		}
	}
	return nil
}

// Process implements Stage.Process
func (r *Reverb) Process(buses [][]float64) {
	if len(buses) == 0 {
		return
	}
	frames := len(buses[0])

	for c := range r.channels {
		if !validBus(buses, r.input[c]) || !validBus(buses, r.output[c]) {
			continue
		}
		in, out := buses[r.input[c]], buses[r.output[c]]
		ch := &r.state[c]
		preLen := len(ch.preDelay)

		for i := range frames {
			x := in[i]

			ch.preDelay[ch.prePos] = x
			delayed := ch.preDelay[(ch.prePos+preLen-r.preDelay)%preLen]
			ch.prePos = (ch.prePos + 1) % preLen

			var wet float64
			for k := range ch.combs {
				cb := &ch.combs[k]
				y := cb.buf[cb.pos]
				cb.filter = y*(1-r.damping) + cb.filter*r.damping
				cb.buf[cb.pos] = delayed + cb.filter*cb.decay
				cb.pos = (cb.pos + 1) % len(cb.buf)
				wet += y
			}

			for k := range ch.allpass {
				ap := &ch.allpass[k]
				y := ap.buf[ap.pos]
				ap.buf[ap.pos] = wet + y*allpassCoeff
				wet = y - wet
				ap.pos = (ap.pos + 1) % len(ap.buf)
			}

			out[i] = r.dryGain*x + r.outGain*r.reverbGain*wet*reverbAttenuation
		}
	}
}

// Reset implements Stage.Reset
func (r *Reverb) Reset() {
	for c := range r.state {
		ch := &r.state[c]
		clear(ch.preDelay)
		ch.prePos = 0
		for i := range ch.combs {
			clear(ch.combs[i].buf)
			ch.combs[i].pos = 0
			ch.combs[i].filter = 0
		}
		for i := range ch.allpass {
			clear(ch.allpass[i].buf)
			ch.allpass[i].pos = 0
		}
	}
}

// GetName implements Stage.GetName
func (r *Reverb) GetName() string { return r.name }
