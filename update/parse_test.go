package update

import (
	"encoding/binary"
	"testing"

	"github.com/opd-ai/audren/revision"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLayout = Layout{
	MemoryPools:         6,
	VoiceResources:      1,
	Voices:              1,
	Effects:             2,
	Mixes:               2,
	Sinks:               1,
	PerformanceManagers: 1,
}

func mustInfo(t *testing.T, version int) revision.Info {
	t.Helper()
	info, err := revision.New(revision.Magic(version))
	require.NoError(t, err)
	return info
}

func fullUpdate() *Update {
	voice := VoiceIn{
		ID:                      7,
		FirstUpdate:             true,
		Acquired:                true,
		PlaybackState:           0,
		SampleFormat:            2,
		SampleRate:              48000,
		ChannelCount:            2,
		Pitch:                   1.5,
		Volume:                  0.25,
		AppendedWaveBufferCount: 3,
		AdpcmCoeffsAddress:      0x1000,
		AdpcmCoeffsSize:         0x20,
		DestinationMixID:        1,
		ChannelResourceIDs:      [6]uint32{0, 1, 2, 3, 4, 5},
	}
	voice.Biquads[1] = BiquadFilterIn{Enable: true, B: [3]int16{1, -2, 3}, A: [2]int16{-4, 5}}
	voice.WaveBuffers[2] = WaveBufferIn{
		Address:        0x2000,
		Size:           0x400,
		StartOffset:    4,
		EndOffset:      100,
		Loop:           true,
		EndOfStream:    true,
		ContextAddress: 0x3000,
		ContextSize:    0x40,
	}

	mix := MixIn{Volume: 0.5, InUse: true, MixID: 1, DestinationMixID: UnusedMixID, BufferCount: 2, BufferOffset: 2}
	mix.MixBufferVolume[1][23] = 0.75

	effect := EffectIn{Type: 3, IsNew: true, Enabled: true, MixID: 1, ProcessingOrder: 9}
	effect.Params[0x9F] = 0xAA

	sink := SinkIn{Type: 1, InUse: true, InputCount: 2, Inputs: [6]uint8{0, 1}}
	copy(sink.DeviceName[:], "MainAudioOut")

	resource := VoiceChannelResourceIn{ID: 0, InUse: true}
	resource.MixVolumes[23] = 0.125

	return &Update{
		Behavior:       &BehaviorIn{UserRevision: revision.Magic(5), Flags: 1},
		MemoryPools:    make([]MemoryPoolIn, 6),
		VoiceResources: []VoiceChannelResourceIn{resource},
		Voices:         []VoiceIn{voice},
		Effects:        []EffectIn{effect, {}},
		Mixes:          []MixIn{{Volume: 1, InUse: true, BufferCount: 2, DestinationMixID: UnusedMixID}, mix},
		Sinks:          []SinkIn{sink},
		Performance:    []PerformanceIn{{TargetNodeID: 42}},
	}
}

func TestParseRoundTrip(t *testing.T) {
	info := mustInfo(t, 5)
	want := fullUpdate()
	want.MemoryPools[3] = MemoryPoolIn{Address: 0x40, Size: 0x80, State: 4}
	want.ElapsedFrameCount = true

	got, err := Parse(want.Marshal(info.Magic()), testLayout, info)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestParseAbsentSections(t *testing.T) {
	info := mustInfo(t, 1)
	u := &Update{Voices: make([]VoiceIn, 1)}

	got, err := Parse(u.Marshal(info.Magic()), testLayout, info)
	require.NoError(t, err)
	assert.Nil(t, got.Behavior)
	assert.Nil(t, got.MemoryPools)
	assert.Nil(t, got.Effects)
	assert.Len(t, got.Voices, 1)
	assert.False(t, got.ElapsedFrameCount)
}

func TestParseHeaderFailures(t *testing.T) {
	info := mustInfo(t, 5)
	blob := fullUpdate().Marshal(info.Magic())

	t.Run("short blob", func(t *testing.T) {
		_, err := Parse(blob[:HeaderSize-1], testLayout, info)
		assert.ErrorIs(t, err, ErrSizeMismatch)
	})

	t.Run("revision mismatch", func(t *testing.T) {
		_, err := Parse(blob, testLayout, mustInfo(t, 4))
		assert.ErrorIs(t, err, ErrRevisionMismatch)
	})

	t.Run("sections smaller than total", func(t *testing.T) {
		bad := append([]byte(nil), blob...)
		bad = append(bad, make([]byte, 0x10)...)
		binary.LittleEndian.PutUint32(bad[0x3C:], uint32(len(bad)))
		_, err := Parse(bad, testLayout, info)
		assert.ErrorIs(t, err, ErrSizeMismatch)
	})

	t.Run("blob shorter than total", func(t *testing.T) {
		_, err := Parse(blob[:len(blob)-1], testLayout, info)
		assert.ErrorIs(t, err, ErrSizeMismatch)
	})
}

func TestParseSectionSizes(t *testing.T) {
	info := mustInfo(t, 5)

	t.Run("voice count differs from layout", func(t *testing.T) {
		u := &Update{Voices: make([]VoiceIn, 2)}
		_, err := Parse(u.Marshal(info.Magic()), testLayout, info)
		assert.ErrorIs(t, err, ErrSectionSize)
	})

	t.Run("partial pool section", func(t *testing.T) {
		u := &Update{MemoryPools: make([]MemoryPoolIn, 5)}
		_, err := Parse(u.Marshal(info.Magic()), testLayout, info)
		assert.ErrorIs(t, err, ErrSectionSize)
	})

	t.Run("elapsed frame count before REV5", func(t *testing.T) {
		rev4 := mustInfo(t, 4)
		u := &Update{ElapsedFrameCount: true}
		_, err := Parse(u.Marshal(rev4.Magic()), testLayout, rev4)
		assert.ErrorIs(t, err, ErrSectionSize)
	})
}

func TestVoiceInOffsets(t *testing.T) {
	v := fullUpdate().Voices[0]
	b := make([]byte, VoiceInSize)
	v.Put(b)

	assert.Equal(t, uint32(7), binary.LittleEndian.Uint32(b[0x00:]))
	assert.Equal(t, byte(2), b[0x0B])
	assert.Equal(t, uint32(48000), binary.LittleEndian.Uint32(b[0x0C:]))
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(b[0x3C:]))
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(b[0x58:]))
	assert.Equal(t, uint64(0x2000), binary.LittleEndian.Uint64(b[0x60+2*WaveBufferSize:]))
	assert.Equal(t, uint32(5), binary.LittleEndian.Uint32(b[0x140+5*4:]))
	assert.Equal(t, uint16(0xFFFC), binary.LittleEndian.Uint16(b[0x24+BiquadFilterSize+0x8:]))
}

func TestHeaderSectionTotal(t *testing.T) {
	h := Header{BehaviorSize: 0x10, VoiceSize: VoiceInSize, ElapsedFrameCountSize: 0x10}
	assert.Equal(t, uint64(HeaderSize+0x10+VoiceInSize+0x10), h.SectionTotal())
}
