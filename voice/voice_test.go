package voice

import (
	"encoding/binary"
	"testing"

	"github.com/opd-ai/audren/memory"
	"github.com/opd-ai/audren/revision"
	"github.com/opd-ai/audren/update"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testBase = 0x4000
	testSize = 0x4000
	testRate = 48000
)

func mustInfo(t *testing.T, version int) revision.Info {
	t.Helper()
	info, err := revision.New(revision.Magic(version))
	require.NoError(t, err)
	return info
}

func attachedPools(t *testing.T) *memory.Table {
	t.Helper()
	pools := memory.NewTable(1)
	_, err := pools.Apply(0, update.MemoryPoolIn{Address: testBase, Size: testSize, State: uint32(memory.StateRequestAttach)})
	require.NoError(t, err)
	return pools
}

func pcmMemory(t *testing.T, samples ...int16) *memory.Flat {
	t.Helper()
	mem := memory.NewFlat(testBase, testSize)
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	require.NoError(t, mem.WriteAt(data, testBase))
	return mem
}

func constant(v int16, n int) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func monoIn(frames uint32) update.VoiceIn {
	in := update.VoiceIn{
		FirstUpdate:             true,
		Acquired:                true,
		PlaybackState:           uint8(StateStarted),
		SampleFormat:            uint8(FormatPcmInt16),
		SampleRate:              testRate,
		ChannelCount:            1,
		Pitch:                   1,
		Volume:                  1,
		AppendedWaveBufferCount: 1,
		DestinationMixID:        update.UnusedMixID,
	}
	in.WaveBuffers[0] = update.WaveBufferIn{Address: testBase, Size: uint64(frames) * 2, EndOffset: frames}
	return in
}

func buses(n, frames int) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, frames)
	}
	return out
}

func TestDecodeAdpcmKnownFrame(t *testing.T) {
	var coeffs Coefficients
	coeffs[2] = 2048 // predictor 1: h1 * 1.0

	tests := []struct {
		name  string
		frame []byte
		want  []float64
	}{
		{
			name:  "predictor 0 scale 4",
			frame: []byte{0x02, 0x12, 0xF0, 0, 0, 0, 0, 0},
			want:  []float64{4, 8, -4, 0},
		},
		{
			name:  "predictor 1 accumulates history",
			frame: []byte{0x10, 0x11, 0x11, 0, 0, 0, 0, 0},
			want:  []float64{1, 2, 3, 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var state AdpcmState
			got := make([]float64, len(tt.want))
			DecodeAdpcm(got, tt.frame, 0, len(got), &coeffs, &state)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, int16(tt.want[len(tt.want)-1]), state.History[0])
		})
	}
}

func TestResamplerRatioTwoHalvesConsumption(t *testing.T) {
	for _, tt := range []struct {
		ratio float64
		want  int
	}{
		{1, 100},
		{2, 200},
		{0.5, 50},
	} {
		var r resampler
		n := 0.0
		out := buses(1, 100)
		consumed, starved := r.render(out, 100, tt.ratio, func(f []float64) bool {
			f[0] = n
			n++
			return true
		})
		assert.Equal(t, tt.want, consumed, "ratio %v", tt.ratio)
		assert.False(t, starved)
		if tt.ratio == 2 {
			assert.Equal(t, 20.0, out[0][10])
		}
	}
}

func TestResamplerStarvation(t *testing.T) {
	var r resampler
	left := 10
	out := buses(1, 20)
	consumed, starved := r.render(out, 20, 1, func(f []float64) bool {
		if left == 0 {
			return false
		}
		f[0] = 7
		left--
		return true
	})

	assert.True(t, starved)
	assert.Equal(t, 10, consumed)
	for i := 0; i < 10; i++ {
		assert.Equal(t, 7.0, out[0][i])
	}
	for i := 10; i < 20; i++ {
		assert.Zero(t, out[0][i])
	}

	_, starved = r.render(out, 20, 1, func([]float64) bool { return false })
	assert.False(t, starved, "a voice that never had data is not starved")
}

func TestApplyValidation(t *testing.T) {
	rev4 := mustInfo(t, 4)
	rev5 := mustInfo(t, 5)

	tests := []struct {
		name   string
		info   revision.Info
		modify func(*update.VoiceIn)
		want   error
	}{
		{"pcm16", rev4, func(*update.VoiceIn) {}, nil},
		{"pcm float before REV5", rev4, func(in *update.VoiceIn) { in.SampleFormat = uint8(FormatPcmFloat) }, ErrUnsupportedFormat},
		{"pcm float on REV5", rev5, func(in *update.VoiceIn) { in.SampleFormat = uint8(FormatPcmFloat) }, nil},
		{"pcm8", rev5, func(in *update.VoiceIn) { in.SampleFormat = uint8(FormatPcmInt8) }, ErrUnsupportedFormat},
		{"stereo adpcm", rev5, func(in *update.VoiceIn) {
			in.SampleFormat = uint8(FormatAdpcm)
			in.ChannelCount = 2
		}, ErrInvalidChannelCount},
		{"seven channels", rev5, func(in *update.VoiceIn) { in.ChannelCount = 7 }, ErrInvalidChannelCount},
		{"zero pitch", rev5, func(in *update.VoiceIn) { in.Pitch = 0 }, ErrInvalidPitch},
		{"zero rate", rev5, func(in *update.VoiceIn) { in.SampleRate = 0 }, ErrInvalidSampleRate},
		{"unknown state", rev5, func(in *update.VoiceIn) { in.PlaybackState = 9 }, ErrInvalidPlaybackState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New(0, 16)
			in := monoIn(16)
			tt.modify(&in)
			err := v.Apply(&in, tt.info)
			if tt.want == nil {
				assert.NoError(t, err)
				assert.True(t, v.Valid())
			} else {
				assert.ErrorIs(t, err, tt.want)
				assert.False(t, v.Valid())
			}
			assert.True(t, v.Acquired())
		})
	}
}

func TestWaveBufferQueueOverflow(t *testing.T) {
	v := New(0, 16)
	in := monoIn(16)
	in.AppendedWaveBufferCount = 5

	err := v.Apply(&in, mustInfo(t, 5))
	assert.ErrorIs(t, err, ErrWaveBufferOverflow)
	assert.Equal(t, 4, v.Queued())

	in.FirstUpdate = false
	in.AppendedWaveBufferCount = 3
	assert.ErrorIs(t, v.Apply(&in, mustInfo(t, 5)), ErrWaveBufferSequence)
}

func TestWaveBufferCountJumpIsBounded(t *testing.T) {
	v := New(0, 16)
	in := monoIn(16)
	in.AppendedWaveBufferCount = 0xFFFFFFF0

	err := v.Apply(&in, mustInfo(t, 5))
	assert.ErrorIs(t, err, ErrWaveBufferOverflow)
	assert.Equal(t, 4, v.Queued())
	assert.Equal(t, uint32(0xFFFFFFEC), v.Out().PlayedWaveBufferCount)

	in.FirstUpdate = false
	assert.NoError(t, v.Apply(&in, mustInfo(t, 5)))
	assert.Equal(t, 4, v.Queued())
}

func TestHugePitchIsClamped(t *testing.T) {
	for _, tt := range []struct {
		name  string
		pitch float32
		rate  uint32
		step  uint64
	}{
		{"pitch", 1e30, testRate, MaxPitch},
		{"sample rate", 1, 0xFFFFFFFF, maxStep},
	} {
		t.Run(tt.name, func(t *testing.T) {
			const frames = 32
			mem := pcmMemory(t, 1, 2, 3, 4)
			info := mustInfo(t, 5)

			v := New(0, frames)
			in := monoIn(4)
			in.Pitch = tt.pitch
			in.SampleRate = tt.rate
			in.WaveBuffers[0].Loop = true
			require.NoError(t, v.Apply(&in, info))
			require.True(t, v.UpdateMapping(attachedPools(t), mem))

			v.Mix(mem, buses(2, frames), nil, testRate, info, false)
			assert.Equal(t, tt.step*frames, v.Out().PlayedSampleCount)
		})
	}
}

func TestStopFlushesQueueOnce(t *testing.T) {
	v := New(0, 16)
	in := monoIn(16)
	in.AppendedWaveBufferCount = 2
	require.NoError(t, v.Apply(&in, mustInfo(t, 5)))
	assert.Equal(t, 2, v.Queued())

	in.FirstUpdate = false
	in.PlaybackState = uint8(StateStopped)
	require.NoError(t, v.Apply(&in, mustInfo(t, 5)))
	assert.Zero(t, v.Queued())
	assert.Equal(t, uint32(2), v.Out().PlayedWaveBufferCount)

	in.AppendedWaveBufferCount = 3
	require.NoError(t, v.Apply(&in, mustInfo(t, 5)))
	assert.Equal(t, 1, v.Queued(), "a stopped voice keeps buffers appended while stopped")
}

func TestReleaseClearsVoice(t *testing.T) {
	v := New(0, 16)
	in := monoIn(16)
	require.NoError(t, v.Apply(&in, mustInfo(t, 5)))

	in.Acquired = false
	require.NoError(t, v.Apply(&in, mustInfo(t, 5)))
	assert.False(t, v.Acquired())
	assert.Zero(t, v.Queued())
	assert.False(t, v.Enabled())
}

func TestMixConstantMono(t *testing.T) {
	const frames = 32
	mem := pcmMemory(t, constant(500, 256)...)
	info := mustInfo(t, 5)

	v := New(0, frames)
	in := monoIn(256)
	require.NoError(t, v.Apply(&in, info))
	require.True(t, v.UpdateMapping(attachedPools(t), mem))
	require.True(t, v.Enabled())

	out := buses(2, frames)
	v.Mix(mem, out, nil, testRate, info, false)
	for c := range out {
		for i := range out[c] {
			require.Equal(t, 500.0, out[c][i])
		}
	}
	assert.Equal(t, uint64(frames), v.Out().PlayedSampleCount)
}

func TestMixPitchDoublesConsumption(t *testing.T) {
	const frames = 32
	mem := pcmMemory(t, constant(500, 256)...)
	info := mustInfo(t, 5)

	v := New(0, frames)
	in := monoIn(256)
	in.Pitch = 2
	require.NoError(t, v.Apply(&in, info))
	require.True(t, v.UpdateMapping(attachedPools(t), mem))

	v.Mix(mem, buses(2, frames), nil, testRate, info, false)
	assert.Equal(t, uint64(2*frames), v.Out().PlayedSampleCount)
}

func TestMixWithoutBusesStillPlays(t *testing.T) {
	const frames = 16
	mem := pcmMemory(t, constant(500, 64)...)
	info := mustInfo(t, 5)

	v := New(0, frames)
	in := monoIn(64)
	require.NoError(t, v.Apply(&in, info))
	require.True(t, v.UpdateMapping(attachedPools(t), mem))

	v.Mix(mem, nil, nil, testRate, info, false)
	assert.Equal(t, uint64(frames), v.Out().PlayedSampleCount)
}

func TestMixChannelResourceVolumes(t *testing.T) {
	const frames = 8
	mem := pcmMemory(t, constant(100, 64)...)
	info := mustInfo(t, 5)

	v := New(0, frames)
	in := monoIn(64)
	require.NoError(t, v.Apply(&in, info))
	require.True(t, v.UpdateMapping(attachedPools(t), mem))

	resources := make([]ChannelResource, 1)
	resources[0].Apply(&update.VoiceChannelResourceIn{InUse: true, MixVolumes: [24]float32{0.5, 0, 2}})

	out := buses(3, frames)
	v.Mix(mem, out, resources, testRate, info, false)
	assert.Equal(t, 50.0, out[0][0])
	assert.Zero(t, out[1][0])
	assert.Equal(t, 200.0, out[2][0])
}

func TestUnmappedVoiceIsSilent(t *testing.T) {
	mem := pcmMemory(t, constant(500, 64)...)
	v := New(0, 8)
	in := monoIn(64)
	require.NoError(t, v.Apply(&in, mustInfo(t, 5)))

	assert.False(t, v.UpdateMapping(memory.NewTable(1), mem))
	assert.False(t, v.Enabled())

	out := buses(2, 8)
	v.Mix(mem, out, nil, testRate, mustInfo(t, 5), false)
	assert.Zero(t, out[0][0])
}

func TestLoopBufferRewinds(t *testing.T) {
	mem := pcmMemory(t, 1, 2, 3, 4)
	info := mustInfo(t, 5)

	v := New(0, 16)
	in := monoIn(4)
	in.WaveBuffers[0].Loop = true
	require.NoError(t, v.Apply(&in, info))
	require.True(t, v.UpdateMapping(attachedPools(t), mem))

	out := buses(1, 16)
	v.Mix(mem, out, nil, testRate, info, true)
	assert.Equal(t, []float64{1, 2, 3, 4, 1, 2, 3, 4, 1, 2, 3, 4, 1, 2, 3, 4}, out[0])
	assert.Zero(t, v.Out().PlayedWaveBufferCount)
	assert.Zero(t, v.Out().VoiceDropCount)
}

func TestVoiceDropCounting(t *testing.T) {
	for _, tt := range []struct {
		name      string
		eos       bool
		voiceDrop bool
		want      uint32
	}{
		{"drop enabled", false, true, 1},
		{"end of stream", true, true, 0},
		{"drop disabled", false, false, 0},
	} {
		t.Run(tt.name, func(t *testing.T) {
			mem := pcmMemory(t, constant(10, 8)...)
			info := mustInfo(t, 5)

			v := New(0, 16)
			in := monoIn(8)
			in.WaveBuffers[0].EndOfStream = tt.eos
			require.NoError(t, v.Apply(&in, info))
			require.True(t, v.UpdateMapping(attachedPools(t), mem))

			v.Mix(mem, buses(2, 16), nil, testRate, info, tt.voiceDrop)
			assert.Equal(t, tt.want, v.Out().VoiceDropCount)
			assert.Equal(t, uint32(1), v.Out().PlayedWaveBufferCount)
		})
	}
}

func TestPausedVoiceHoldsPosition(t *testing.T) {
	mem := pcmMemory(t, constant(10, 64)...)
	info := mustInfo(t, 5)

	v := New(0, 8)
	in := monoIn(64)
	in.PlaybackState = uint8(StatePaused)
	require.NoError(t, v.Apply(&in, info))
	require.True(t, v.UpdateMapping(attachedPools(t), mem))

	assert.False(t, v.Enabled())
	assert.Equal(t, 1, v.Queued())
	assert.Zero(t, v.Out().PlayedSampleCount)
}
