package voice

import (
	"github.com/opd-ai/audren/internal/dsp"
	"github.com/opd-ai/audren/limits"
	"github.com/opd-ai/audren/update"
)

// MaxMixVolume clamps channel resource mix volumes.
const MaxMixVolume = 128.0

// ChannelResource holds the gains from one voice channel to each mix buffer
// of the destination mix.
type ChannelResource struct {
	InUse      bool
	MixVolumes [limits.MaxMixBuffers]float64
}

// Apply takes the guest's channel resource record.
func (r *ChannelResource) Apply(in *update.VoiceChannelResourceIn) {
	r.InUse = in.InUse
	for i, v := range in.MixVolumes {
		r.MixVolumes[i] = dsp.ClampUnit(v, MaxMixVolume)
	}
}
