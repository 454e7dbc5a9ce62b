package audren

import (
	"encoding/binary"
	"fmt"

	"github.com/opd-ai/audren/limits"
	"github.com/opd-ai/audren/revision"
	"github.com/opd-ai/audren/update"
)

// ParametersSize is the wire size of AudioRendererParameters.
const ParametersSize = 0x34

// Supported output sample rates.
const (
	SampleRate32k = 32000
	SampleRate48k = 48000
)

// AudioRendererParameters fixes a renderer's configuration for its lifetime.
type AudioRendererParameters struct {
	SampleRate                   uint32
	SampleCount                  uint32
	MixBufferCount               uint32
	SubMixCount                  uint32
	VoiceCount                   uint32
	SinkCount                    uint32
	EffectCount                  uint32
	PerformanceManagerCount      uint32
	VoiceDropEnable              bool
	SplitterCount                uint32
	SplitterDestinationDataCount uint32
	Revision                     uint32
}

// ParseParameters decodes the guest's 0x34 byte parameter block. It does not
// validate the values; NewAudioRenderer does.
func ParseParameters(data []byte) (AudioRendererParameters, error) {
	if len(data) < ParametersSize {
		return AudioRendererParameters{}, fmt.Errorf("%w: parameter block is %d bytes, need %d", ErrInvalidParameters, len(data), ParametersSize)
	}
	return AudioRendererParameters{
		SampleRate:                   binary.LittleEndian.Uint32(data[0x00:]),
		SampleCount:                  binary.LittleEndian.Uint32(data[0x04:]),
		MixBufferCount:               binary.LittleEndian.Uint32(data[0x08:]),
		SubMixCount:                  binary.LittleEndian.Uint32(data[0x0C:]),
		VoiceCount:                   binary.LittleEndian.Uint32(data[0x10:]),
		SinkCount:                    binary.LittleEndian.Uint32(data[0x14:]),
		EffectCount:                  binary.LittleEndian.Uint32(data[0x18:]),
		PerformanceManagerCount:      binary.LittleEndian.Uint32(data[0x1C:]),
		VoiceDropEnable:              data[0x20] != 0,
		SplitterCount:                binary.LittleEndian.Uint32(data[0x24:]),
		SplitterDestinationDataCount: binary.LittleEndian.Uint32(data[0x28:]),
		Revision:                     binary.LittleEndian.Uint32(data[0x30:]),
	}, nil
}

// Marshal encodes the parameters as the guest submits them.
func (p *AudioRendererParameters) Marshal() []byte {
	data := make([]byte, ParametersSize)
	binary.LittleEndian.PutUint32(data[0x00:], p.SampleRate)
	binary.LittleEndian.PutUint32(data[0x04:], p.SampleCount)
	binary.LittleEndian.PutUint32(data[0x08:], p.MixBufferCount)
	binary.LittleEndian.PutUint32(data[0x0C:], p.SubMixCount)
	binary.LittleEndian.PutUint32(data[0x10:], p.VoiceCount)
	binary.LittleEndian.PutUint32(data[0x14:], p.SinkCount)
	binary.LittleEndian.PutUint32(data[0x18:], p.EffectCount)
	binary.LittleEndian.PutUint32(data[0x1C:], p.PerformanceManagerCount)
	if p.VoiceDropEnable {
		data[0x20] = 1
	}
	binary.LittleEndian.PutUint32(data[0x24:], p.SplitterCount)
	binary.LittleEndian.PutUint32(data[0x28:], p.SplitterDestinationDataCount)
	binary.LittleEndian.PutUint32(data[0x30:], p.Revision)
	return data
}

// Validate checks every field against the renderer limits and returns the
// revision info on success.
func (p *AudioRendererParameters) Validate() (revision.Info, error) {
	info, err := revision.New(p.Revision)
	if err != nil {
		return revision.Info{}, fmt.Errorf("%w: %w", ErrInvalidParameters, err)
	}

	if p.SampleRate != SampleRate32k && p.SampleRate != SampleRate48k {
		return info, fmt.Errorf("%w: sample rate %d", ErrInvalidParameters, p.SampleRate)
	}
	if p.SampleCount == 0 {
		return info, fmt.Errorf("%w: sample count is zero", ErrInvalidParameters)
	}
	if p.MixBufferCount < limits.ChannelCount {
		return info, fmt.Errorf("%w: %d mix buffers, final mix needs %d", ErrInvalidParameters, p.MixBufferCount, limits.ChannelCount)
	}

	checks := []struct {
		name  string
		count uint32
		max   uint32
	}{
		{"sample count", p.SampleCount, limits.MaxSampleCount},
		{"mix buffer count", p.MixBufferCount, limits.MaxMixBuffers},
		{"sub-mix count", p.SubMixCount, limits.MaxSubMixes},
		{"voice count", p.VoiceCount, limits.MaxVoices},
		{"sink count", p.SinkCount, limits.MaxSinks},
		{"effect count", p.EffectCount, limits.MaxEffects},
		{"performance manager count", p.PerformanceManagerCount, limits.MaxPerformanceManagers},
	}
	for _, c := range checks {
		if err := limits.ValidateCount(c.name, c.count, c.max); err != nil {
			return info, fmt.Errorf("%w: %w", ErrInvalidParameters, err)
		}
	}

	if p.SplitterCount > 0 && !info.Supports(revision.CapSplitter) {
		return info, fmt.Errorf("%w: splitters need %s, renderer is %s", ErrInvalidParameters, revision.CapSplitter, info)
	}
	return info, nil
}

// MemoryPoolCount returns the number of pools the guest may use.
func (p *AudioRendererParameters) MemoryPoolCount() int {
	return int(p.EffectCount) + int(p.VoiceCount)*limits.MaxWaveBuffers
}

// MixCount returns the number of mixes including the final mix.
func (p *AudioRendererParameters) MixCount() int {
	return int(p.SubMixCount) + 1
}

// Layout returns the per-section entity counts of update blobs.
func (p *AudioRendererParameters) Layout() update.Layout {
	return update.Layout{
		MemoryPools:         p.MemoryPoolCount(),
		VoiceResources:      int(p.VoiceCount),
		Voices:              int(p.VoiceCount),
		Effects:             int(p.EffectCount),
		Mixes:               p.MixCount(),
		Sinks:               int(p.SinkCount),
		PerformanceManagers: int(p.PerformanceManagerCount),
	}
}
