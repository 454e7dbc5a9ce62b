package mix

import (
	"errors"
	"fmt"

	"github.com/opd-ai/audren/internal/dsp"
	"github.com/opd-ai/audren/limits"
	"github.com/opd-ai/audren/update"
)

// FinalMixID is the id of the mix that feeds the sinks.
const FinalMixID = 0

// MaxVolume clamps mix volumes and matrix gains.
const MaxVolume = 128.0

// ErrInvalidBufferRange indicates a mix whose buffers fall outside the
// renderer's mix buffers.
var ErrInvalidBufferRange = errors.New("mix buffer range out of bounds")

// Mix is a sub-mix bus, or the final mix for id 0. It owns the contiguous
// range [BufferOffset, BufferOffset+BufferCount) of the renderer's mix buffers.
type Mix struct {
	id           int
	InUse        bool
	Volume       float64
	SampleRate   uint32
	BufferOffset int
	BufferCount  int
	Destination  int32
	Matrix       [limits.MaxMixBuffers][limits.MaxMixBuffers]float64
}

// New creates mix id. The final mix starts in use with unity volume on the
// first two mix buffers; sub-mixes start unused.
func New(id, mixBufferCount int) *Mix {
	m := &Mix{id: id, Destination: update.UnusedMixID}
	if id == FinalMixID {
		m.InUse = true
		m.Volume = 1
		m.BufferCount = min(limits.ChannelCount, mixBufferCount)
	}
	return m
}

// ID returns the mix id.
func (m *Mix) ID() int { return m.id }

// Apply takes the guest's record. A range that does not fit the mix buffers
// takes the mix out of use.
func (m *Mix) Apply(in *update.MixIn, mixBufferCount int) error {
	offset, count := int(in.BufferOffset), int(in.BufferCount)
	if offset+count > mixBufferCount || count > limits.MaxMixBuffers {
		m.InUse = false
		return fmt.Errorf("%w: mix %d buffers [%d,%d) of %d", ErrInvalidBufferRange, m.id, offset, offset+count, mixBufferCount)
	}

	m.InUse = in.InUse
	m.Volume = dsp.ClampUnit(in.Volume, MaxVolume)
	m.SampleRate = in.SampleRate
	m.BufferOffset = offset
	m.BufferCount = count
	m.Destination = in.DestinationMixID
	for i := range m.Matrix {
		for j := range m.Matrix[i] {
			m.Matrix[i][j] = dsp.ClampUnit(in.MixBufferVolume[i][j], MaxVolume)
		}
	}
	return nil
}

// Buses returns the mix's buffers out of the renderer's mix buffers.
func (m *Mix) Buses(all [][]float64) [][]float64 {
	if m.BufferOffset+m.BufferCount > len(all) {
		return nil
	}
	return all[m.BufferOffset : m.BufferOffset+m.BufferCount]
}

// RouteTarget returns the mix this sub-mix feeds. Routing only flows toward
// lower ids; anything else lands on the final mix.
func (m *Mix) RouteTarget(mixes []*Mix) *Mix {
	d := int(m.Destination)
	if d > FinalMixID && d < m.id && d < len(mixes) && mixes[d].InUse {
		return mixes[d]
	}
	return mixes[FinalMixID]
}

// RouteInto adds this mix's buffers into dst through the volume matrix,
// scaled by the mix volume. Row i is the source buffer, column j the
// destination buffer.
func (m *Mix) RouteInto(all [][]float64, dst *Mix, gain *dsp.Gain) {
	src := m.Buses(all)
	out := dst.Buses(all)
	for i := range src {
		for j := range out {
			gain.Accumulate(out[j], src[i], m.Volume*m.Matrix[i][j])
		}
	}
}
