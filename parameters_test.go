package audren

import (
	"testing"

	"github.com/opd-ai/audren/revision"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validParams() AudioRendererParameters {
	return AudioRendererParameters{
		SampleRate:              SampleRate48k,
		SampleCount:             240,
		MixBufferCount:          6,
		SubMixCount:             2,
		VoiceCount:              4,
		SinkCount:               1,
		EffectCount:             2,
		PerformanceManagerCount: 1,
		VoiceDropEnable:         true,
		Revision:                revision.Magic(5),
	}
}

func TestParseParametersRoundTrip(t *testing.T) {
	p := validParams()
	p.SplitterCount = 3
	p.SplitterDestinationDataCount = 9

	got, err := ParseParameters(p.Marshal())
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestParseParametersShortBlock(t *testing.T) {
	_, err := ParseParameters(make([]byte, ParametersSize-1))
	assert.ErrorIs(t, err, ErrInvalidParameters)
}

func TestParametersValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*AudioRendererParameters)
		ok     bool
	}{
		{"valid", func(*AudioRendererParameters) {}, true},
		{"32k", func(p *AudioRendererParameters) { p.SampleRate = SampleRate32k }, true},
		{"unsupported rate", func(p *AudioRendererParameters) { p.SampleRate = 44100 }, false},
		{"zero sample count", func(p *AudioRendererParameters) { p.SampleCount = 0 }, false},
		{"sample count too large", func(p *AudioRendererParameters) { p.SampleCount = 1025 }, false},
		{"single mix buffer", func(p *AudioRendererParameters) { p.MixBufferCount = 1 }, false},
		{"too many mix buffers", func(p *AudioRendererParameters) { p.MixBufferCount = 25 }, false},
		{"too many voices", func(p *AudioRendererParameters) { p.VoiceCount = 1025 }, false},
		{"too many effects", func(p *AudioRendererParameters) { p.EffectCount = 257 }, false},
		{"too many sinks", func(p *AudioRendererParameters) { p.SinkCount = 17 }, false},
		{"bad revision", func(p *AudioRendererParameters) { p.Revision = 0x12345678 }, false},
		{"splitters on REV1", func(p *AudioRendererParameters) {
			p.Revision = revision.Magic(1)
			p.SplitterCount = 1
		}, false},
		{"splitters on REV2", func(p *AudioRendererParameters) {
			p.Revision = revision.Magic(2)
			p.SplitterCount = 1
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParams()
			tt.modify(&p)
			_, err := p.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidParameters)
			}
		})
	}
}

func TestParametersDerivedCounts(t *testing.T) {
	p := validParams()
	assert.Equal(t, 2+4*4, p.MemoryPoolCount())
	assert.Equal(t, 3, p.MixCount())

	layout := p.Layout()
	assert.Equal(t, 18, layout.MemoryPools)
	assert.Equal(t, 4, layout.Voices)
	assert.Equal(t, 4, layout.VoiceResources)
	assert.Equal(t, 3, layout.Mixes)
	assert.Equal(t, 1, layout.PerformanceManagers)
}
