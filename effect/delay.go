package effect

import (
	"encoding/binary"
	"fmt"

	"github.com/opd-ai/audren/limits"
)

// MaxDelayMillis bounds the delay line allocation.
const MaxDelayMillis = 1000

// DelayParams configures a feedback delay.
//
// Layout: Input u8[6] @0x00, Output u8[6] @0x06, ChannelCount u16 @0x0C,
// DelayTimeMax u32 ms @0x10, DelayTime u32 ms @0x14, InGain f32 @0x18,
// FeedbackGain f32 @0x1C, OutGain f32 @0x20, DryGain f32 @0x24,
// LowPassAmount f32 @0x28.
type DelayParams struct {
	Input         [limits.MaxVoiceChannels]uint8
	Output        [limits.MaxVoiceChannels]uint8
	ChannelCount  uint16
	DelayTimeMax  uint32
	DelayTime     uint32
	InGain        float32
	FeedbackGain  float32
	OutGain       float32
	DryGain       float32
	LowPassAmount float32
}

// Put encodes the parameter block.
func (p *DelayParams) Put(b []byte) {
	copy(b[0x00:], p.Input[:])
	copy(b[0x06:], p.Output[:])
	binary.LittleEndian.PutUint16(b[0x0C:], p.ChannelCount)
	binary.LittleEndian.PutUint32(b[0x10:], p.DelayTimeMax)
	binary.LittleEndian.PutUint32(b[0x14:], p.DelayTime)
	putFloat(b[0x18:], p.InGain)
	putFloat(b[0x1C:], p.FeedbackGain)
	putFloat(b[0x20:], p.OutGain)
	putFloat(b[0x24:], p.DryGain)
	putFloat(b[0x28:], p.LowPassAmount)
}

// Delay is a per-channel feedback delay with a one-pole low pass in the
// feedback path.
type Delay struct {
	rate     uint32
	input    [limits.MaxVoiceChannels]uint8
	output   [limits.MaxVoiceChannels]uint8
	channels int
	maxMs    uint32
	delay    int
	inGain   float64
	feedback float64
	outGain  float64
	dryGain  float64
	lowPass  float64
	lines    [limits.MaxVoiceChannels][]float64
	lp       [limits.MaxVoiceChannels]float64
	write    int
}

func newDelay(env Env) *Delay {
	return &Delay{rate: env.SampleRate}
}

// Configure implements Stage.Configure
func (d *Delay) Configure(params []byte) error {
	maxMs := binary.LittleEndian.Uint32(params[0x10:])
	ms := binary.LittleEndian.Uint32(params[0x14:])
	if maxMs == 0 || maxMs > MaxDelayMillis || ms > maxMs {
		return fmt.Errorf("%w: delay %dms of max %dms", ErrInvalidParameters, ms, maxMs)
	}

	copy(d.input[:], params[0x00:0x06])
	copy(d.output[:], params[0x06:0x0C])
	d.channels = clampChannels(int(binary.LittleEndian.Uint16(params[0x0C:])))
	d.inGain = getFloat(params[0x18:])
	d.feedback = getFloat(params[0x1C:])
	d.outGain = getFloat(params[0x20:])
	d.dryGain = getFloat(params[0x24:])
	d.lowPass = max(0, min(1, getFloat(params[0x28:])))

	length := max(1, int(uint64(maxMs)*uint64(d.rate)/1000))
	if maxMs != d.maxMs || len(d.lines[0]) != length {
		d.maxMs = maxMs
		for c := range d.lines {
			d.lines[c] = make([]float64, length)
		}
		d.Reset()
	}
	d.delay = max(1, min(length, int(uint64(ms)*uint64(d.rate)/1000)))
	return nil
}

// Process implements Stage.Process
func (d *Delay) Process(buses [][]float64) {
	if len(buses) == 0 {
		return
	}
	length := len(d.lines[0])
	frames := len(buses[0])
	w := d.write

	for c := range d.channels {
		if !validBus(buses, d.input[c]) || !validBus(buses, d.output[c]) {
			continue
		}
		in, out := buses[d.input[c]], buses[d.output[c]]
		line := d.lines[c]
		lp := d.lp[c]
		w = d.write
		for i := range frames {
			x := in[i]
			delayed := line[(w+length-d.delay)%length]
			lp = d.lowPass*lp + (1-d.lowPass)*delayed
			line[w] = d.inGain*x + d.feedback*lp
			out[i] = d.dryGain*x + d.outGain*delayed
			w = (w + 1) % length
		}
		d.lp[c] = lp
	}
	d.write = (d.write + frames) % length
}

// Reset implements Stage.Reset
func (d *Delay) Reset() {
	for c := range d.lines {
		clear(d.lines[c])
	}
	d.lp = [limits.MaxVoiceChannels]float64{}
	d.write = 0
}

// GetName implements Stage.GetName
func (d *Delay) GetName() string { return "Delay" }
