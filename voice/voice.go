package voice

import (
	"fmt"
	"math"

	"github.com/opd-ai/audren/interfaces"
	"github.com/opd-ai/audren/internal/dsp"
	"github.com/opd-ai/audren/limits"
	"github.com/opd-ai/audren/memory"
	"github.com/opd-ai/audren/revision"
	"github.com/opd-ai/audren/update"
	"github.com/sirupsen/logrus"
)

const (
	maxChannels = limits.MaxVoiceChannels
	queueSize   = limits.MaxWaveBuffers
)

// MaxVolume is the largest voice volume honoured; larger values are clamped.
const MaxVolume = 128.0

// MaxPitch is the largest voice pitch honoured; larger values are clamped.
const MaxPitch = 16.0

// Voice is one guest voice slot. All state is owned by the renderer and
// mutated only from RequestUpdate.
type Voice struct {
	index int

	acquired    bool
	state       PlaybackState
	format      SampleFormat
	sampleRate  uint32
	pitch       float64
	volume      float64
	prevVolume  float64
	channels    int
	destination int32
	resources   [maxChannels]uint32

	biquadEnable [2]bool
	biquads      [2][maxChannels]dsp.Section

	coeffsAddress uint64
	coeffsSize    uint64
	coeffs        Coefficients

	queue    [queueSize]update.WaveBufferIn
	appended uint32
	retired  uint32
	lastEOS  bool

	valid  bool
	mapped bool

	src     source
	rs      resampler
	scratch [maxChannels][]float64
	gain    *dsp.Gain

	playedSamples uint64
	drops         uint32
}

// New creates voice slot index for ticks of sampleCount frames.
func New(index, sampleCount int) *Voice {
	v := &Voice{
		index:       index,
		state:       StateStopped,
		destination: update.UnusedMixID,
		src:         newSource(),
		gain:        dsp.NewGain(sampleCount),
	}
	for c := range v.scratch {
		v.scratch[c] = make([]float64, sampleCount)
	}
	return v
}

// Index returns the voice slot index.
func (v *Voice) Index() int { return v.index }

// Acquired reports whether the guest holds the voice.
func (v *Voice) Acquired() bool { return v.acquired }

// State returns the playback state.
func (v *Voice) State() PlaybackState { return v.state }

// Valid reports whether the voice parameters passed validation.
func (v *Voice) Valid() bool { return v.valid }

// Mapped reports whether every queued buffer lies in attached memory.
func (v *Voice) Mapped() bool { return v.mapped }

// Destination returns the destination mix id.
func (v *Voice) Destination() int32 { return v.destination }

// Queued returns the number of wave buffers waiting to play.
func (v *Voice) Queued() int { return int(v.appended - v.retired) }

// Enabled reports whether the voice contributes audio this tick.
func (v *Voice) Enabled() bool {
	return v.acquired && v.state == StateStarted && v.valid && v.mapped
}

// Out returns the voice's playback report.
func (v *Voice) Out() update.VoiceOut {
	return update.VoiceOut{
		PlayedSampleCount:     v.playedSamples,
		PlayedWaveBufferCount: v.retired,
		VoiceDropCount:        v.drops,
	}
}

func (v *Voice) reset() {
	v.appended = 0
	v.retired = 0
	v.lastEOS = false
	v.playedSamples = 0
	v.drops = 0
	v.mapped = false
	v.src.reset()
	v.rs.reset()
	for k := range v.biquads {
		for c := range v.biquads[k] {
			v.biquads[k][c].Reset()
		}
	}
}

func (v *Voice) release() {
	v.reset()
	v.acquired = false
	v.valid = false
	v.state = StateStopped
}

// Apply takes the guest's description of the voice for this update. The
// returned error describes the first problem found; the voice is left in a
// consistent state either way.
func (v *Voice) Apply(in *update.VoiceIn, info revision.Info) error {
	if !in.Acquired {
		if v.acquired {
			v.release()
		}
		return nil
	}

	first := in.FirstUpdate || !v.acquired
	if first {
		v.reset()
	}
	v.acquired = true

	v.format = SampleFormat(in.SampleFormat)
	v.sampleRate = in.SampleRate
	v.pitch = float64(in.Pitch)
	v.channels = int(in.ChannelCount)
	v.destination = in.DestinationMixID
	v.resources = in.ChannelResourceIDs
	v.volume = dsp.ClampUnit(in.Volume, MaxVolume)
	if first {
		v.prevVolume = v.volume
	}
	v.coeffsAddress = in.AdpcmCoeffsAddress
	v.coeffsSize = in.AdpcmCoeffsSize
	v.applyBiquads(in.Biquads)

	err := v.validate(in, info)
	v.valid = err == nil
	if v.pitch > MaxPitch {
		v.pitch = MaxPitch
	}

	if qerr := v.appendWaveBuffers(in); qerr != nil && err == nil {
		err = qerr
	}

	switch PlaybackState(in.PlaybackState) {
	case StateStopped:
		if v.state != StateStopped {
			v.flush()
		}
		v.state = StateStopped
	case StateStarted, StatePaused:
		v.state = PlaybackState(in.PlaybackState)
	}

	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Voice.Apply",
			"voice":    v.index,
			"format":   v.format.String(),
			"channels": v.channels,
			"error":    err.Error(),
		}).Warn("Voice update rejected")
	}
	return err
}

func (v *Voice) validate(in *update.VoiceIn, info revision.Info) error {
	if !v.format.Supported(info) {
		return fmt.Errorf("%w: %s at %s", ErrUnsupportedFormat, v.format, info)
	}
	if v.channels < 1 || v.channels > maxChannels {
		return fmt.Errorf("%w: %d", ErrInvalidChannelCount, v.channels)
	}
	if v.format == FormatAdpcm && v.channels != 1 {
		return fmt.Errorf("%w: ADPCM voices are mono, got %d channels", ErrInvalidChannelCount, v.channels)
	}
	if math.IsNaN(v.pitch) || math.IsInf(v.pitch, 0) || v.pitch <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidPitch, in.Pitch)
	}
	if v.sampleRate == 0 {
		return ErrInvalidSampleRate
	}
	if in.PlaybackState > uint8(StatePaused) {
		return fmt.Errorf("%w: %d", ErrInvalidPlaybackState, in.PlaybackState)
	}
	return nil
}

func (v *Voice) applyBiquads(in [2]update.BiquadFilterIn) {
	for k := range in {
		coeffs := dsp.NewQ14Section(in[k].B, in[k].A)
		if in[k].Enable && !v.biquadEnable[k] {
			for c := range v.biquads[k] {
				v.biquads[k][c].Reset()
			}
		}
		for c := range v.biquads[k] {
			v.biquads[k][c].SetCoefficients(coeffs)
		}
		v.biquadEnable[k] = in[k].Enable
	}
}

// appendWaveBuffers copies the slots the guest appended since the last
// update. The queue holds at most queueSize buffers; if the guest reuses a
// slot that is still queued the oldest buffers are retired.
func (v *Voice) appendWaveBuffers(in *update.VoiceIn) error {
	if in.AppendedWaveBufferCount < v.appended {
		return fmt.Errorf("%w: %d after %d", ErrWaveBufferSequence, in.AppendedWaveBufferCount, v.appended)
	}

	added := in.AppendedWaveBufferCount - v.appended
	var err error
	if over := int(v.appended-v.retired) + int(added) - queueSize; over > 0 {
		err = fmt.Errorf("%w: %d buffers past capacity", ErrWaveBufferOverflow, over)
		drop := min(over, v.Queued())
		for range drop {
			v.retire()
		}
		// the rest were never queued
		skip := uint32(over - drop)
		v.retired += skip
		v.appended += skip
		added = in.AppendedWaveBufferCount - v.appended
	}

	for range added {
		slot := v.appended % queueSize
		v.queue[slot] = in.WaveBuffers[slot]
		v.appended++
	}
	return err
}

// retire drops the head buffer and counts it as played.
func (v *Voice) retire() {
	v.lastEOS = v.queue[v.retired%queueSize].EndOfStream
	v.retired++
	v.src.reset()
}

// flush retires every queued buffer.
func (v *Voice) flush() {
	for v.appended != v.retired {
		v.retire()
	}
	v.rs.reset()
}

// UpdateMapping re-checks that every queued buffer, and the ADPCM
// coefficients, lie inside attached memory pools, and loads the coefficients.
// It returns the new mapped state.
func (v *Voice) UpdateMapping(pools *memory.Table, mem interfaces.GuestMemory) bool {
	v.mapped = v.checkMapping(pools, mem)
	return v.mapped
}

func (v *Voice) checkMapping(pools *memory.Table, mem interfaces.GuestMemory) bool {
	if !v.acquired || !v.valid {
		return false
	}

	if v.format == FormatAdpcm {
		if v.coeffsSize < adpcmCoeffsSize || !pools.Contains(v.coeffsAddress, adpcmCoeffsSize) {
			return false
		}
		var raw [adpcmCoeffsSize]byte
		if err := mem.ReadAt(raw[:], v.coeffsAddress); err != nil {
			return false
		}
		for i := range v.coeffs {
			v.coeffs[i] = int16(uint16(raw[i*2]) | uint16(raw[i*2+1])<<8)
		}
	}

	for i := v.retired; i != v.appended; i++ {
		wb := &v.queue[i%queueSize]
		if wb.EndOffset <= wb.StartOffset {
			continue
		}
		need := v.format.span(wb.EndOffset, v.channels)
		if need > wb.Size || !pools.Contains(wb.Address, need) {
			logrus.WithFields(logrus.Fields{
				"function": "Voice.UpdateMapping",
				"voice":    v.index,
				"address":  fmt.Sprintf("%#x", wb.Address),
				"size":     fmt.Sprintf("%#x", wb.Size),
			}).Debug("Wave buffer not mapped by an attached pool")
			return false
		}
	}
	return true
}

// fetch hands out the next source frame, advancing through the queue as
// buffers run out. Looping buffers rewind instead of retiring.
func (v *Voice) fetch(mem interfaces.GuestMemory, frame []float64, loopContext bool) bool {
	for {
		if v.src.take(frame) {
			return true
		}
		if v.appended == v.retired {
			return false
		}

		head := &v.queue[v.retired%queueSize]
		if !v.src.started {
			v.src.started = true
			v.src.offset = head.StartOffset
			if v.format == FormatAdpcm {
				v.src.loadContext(mem, head.ContextAddress, head.ContextSize)
			}
		}

		if v.src.offset >= head.EndOffset {
			if head.Loop && head.EndOffset > head.StartOffset {
				v.src.offset = head.StartOffset
				if v.format == FormatAdpcm && loopContext {
					v.src.loadContext(mem, head.ContextAddress, head.ContextSize)
				}
				continue
			}
			v.retire()
			continue
		}

		if err := v.src.fill(mem, v.format, v.channels, head.Address, head.EndOffset, &v.coeffs); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Voice.fetch",
				"voice":    v.index,
				"error":    err.Error(),
			}).Warn("Wave buffer read failed, silencing voice")
			v.mapped = false
			return false
		}
	}
}

// Mix renders one tick and accumulates it into buses, the mix buffers of the
// voice's destination mix. resources are the renderer's voice channel
// resources, indexed by the ids the voice names per channel.
func (v *Voice) Mix(mem interfaces.GuestMemory, buses [][]float64, resources []ChannelResource, rendererRate uint32, info revision.Info, voiceDrop bool) {
	if !v.Enabled() {
		return
	}

	// with no buses the tick still plays, into nothing
	frames := len(v.scratch[0])
	if len(buses) > 0 {
		frames = len(buses[0])
	}
	out := v.scratch[:v.channels]
	for c := range out {
		out[c] = out[c][:frames]
	}

	ratio := float64(v.sampleRate) * v.pitch / float64(rendererRate)
	loopContext := info.Supports(revision.CapAdpcmLoopContext)
	consumed, starved := v.rs.render(out, frames, ratio, func(frame []float64) bool {
		return v.fetch(mem, frame, loopContext)
	})
	v.playedSamples += uint64(consumed)
	if starved && voiceDrop && !v.lastEOS {
		v.drops++
	}

	for k := range v.biquads {
		if !v.biquadEnable[k] {
			continue
		}
		for c := range out {
			v.biquads[k][c].ProcessBlock(out[c])
		}
	}

	for c := range out {
		v.gain.Ramp(out[c], v.prevVolume, v.volume)
	}
	v.prevVolume = v.volume

	for c := range out {
		v.accumulate(buses, out[c], c, resources)
	}
}

// accumulate routes one channel into the destination buses. With a channel
// resource in use its mix volumes apply; otherwise mono feeds the first two
// buses and channel c feeds bus c.
func (v *Voice) accumulate(buses [][]float64, samples []float64, channel int, resources []ChannelResource) {
	if id := v.resources[channel]; int(id) < len(resources) && resources[id].InUse {
		for j := range buses {
			if j >= len(resources[id].MixVolumes) {
				break
			}
			v.gain.Accumulate(buses[j], samples, resources[id].MixVolumes[j])
		}
		return
	}

	if v.channels == 1 {
		for j := 0; j < min(2, len(buses)); j++ {
			v.gain.Accumulate(buses[j], samples, 1)
		}
		return
	}
	if channel < len(buses) {
		v.gain.Accumulate(buses[channel], samples, 1)
	}
}
