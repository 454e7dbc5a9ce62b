package update

import (
	"encoding/binary"
	"math"

	"github.com/opd-ai/audren/limits"
)

// Input record sizes.
const (
	BehaviorInSize           = 0x10
	MemoryPoolInSize         = 0x20
	VoiceChannelResourceSize = 0x70
	VoiceInSize              = 0x170
	WaveBufferSize           = 0x38
	BiquadFilterSize         = 0xC
	EffectInSize             = 0xC0
	EffectParameterSize      = 0xA0
	MixInSize                = 0x930
	SinkInSize               = 0x140
	PerformanceInSize        = 0x10
	ElapsedFrameCountSize    = 0x10
)

// SinkNameSize is the length of the device name field of a sink record.
const SinkNameSize = 0x100

// UnusedMixID marks a voice or mix with no destination mix.
const UnusedMixID int32 = -1

// BehaviorIn carries renderer-wide flags from the guest.
type BehaviorIn struct {
	UserRevision uint32
	Flags        uint64
}

// MemoryPoolIn requests a pool state change for one guest memory range.
type MemoryPoolIn struct {
	Address uint64
	Size    uint64
	State   uint32
}

// VoiceChannelResourceIn holds the per-channel mix volumes of a voice.
type VoiceChannelResourceIn struct {
	ID         uint32
	MixVolumes [limits.MaxMixBuffers]float32
	InUse      bool
}

// BiquadFilterIn is a voice biquad with Q14 fixed point coefficients.
type BiquadFilterIn struct {
	Enable bool
	B      [3]int16
	A      [2]int16
}

// WaveBufferIn describes one block of sample data in guest memory.
// StartOffset and EndOffset count samples per channel.
type WaveBufferIn struct {
	Address        uint64
	Size           uint64
	StartOffset    uint32
	EndOffset      uint32
	Loop           bool
	EndOfStream    bool
	ContextAddress uint64
	ContextSize    uint64
}

// VoiceIn is the guest's complete description of one voice for this update.
type VoiceIn struct {
	ID                      uint32
	NodeID                  uint32
	FirstUpdate             bool
	Acquired                bool
	PlaybackState           uint8
	SampleFormat            uint8
	SampleRate              uint32
	Priority                uint32
	SortingOrder            uint32
	ChannelCount            uint32
	Pitch                   float32
	Volume                  float32
	Biquads                 [2]BiquadFilterIn
	AppendedWaveBufferCount uint32
	BaseWaveBufferIndex     uint32
	Flags                   uint32
	AdpcmCoeffsAddress      uint64
	AdpcmCoeffsSize         uint64
	DestinationMixID        int32
	SplitterID              uint32
	WaveBuffers             [limits.MaxWaveBuffers]WaveBufferIn
	ChannelResourceIDs      [limits.MaxVoiceChannels]uint32
}

// EffectIn describes one effect. Params is decoded according to Type.
type EffectIn struct {
	Type            uint8
	IsNew           bool
	Enabled         bool
	MixID           int32
	BufferAddress   uint64
	BufferSize      uint64
	ProcessingOrder uint32
	Params          [EffectParameterSize]byte
}

// MixIn describes one mix. Mix 0 is the final mix.
type MixIn struct {
	Volume                float32
	SampleRate            uint32
	BufferCount           uint32
	InUse                 bool
	MixID                 int32
	EffectCount           uint32
	NodeID                uint32
	DestinationMixID      int32
	DestinationSplitterID uint32
	BufferOffset          uint32
	MixBufferVolume       [limits.MaxMixBuffers][limits.MaxMixBuffers]float32
}

// SinkIn describes one output sink.
type SinkIn struct {
	Type       uint8
	InUse      bool
	NodeID     uint32
	DeviceName [SinkNameSize]byte
	InputCount uint32
	Inputs     [limits.MaxVoiceChannels]uint8
}

// PerformanceIn selects the node a performance manager reports on.
type PerformanceIn struct {
	TargetNodeID uint32
}

func putBool(b []byte, v bool) {
	if v {
		b[0] = 1
	} else {
		b[0] = 0
	}
}

func getFloat(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func putFloat(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}

// DecodeBehaviorIn decodes a BehaviorInSize record.
func DecodeBehaviorIn(b []byte) BehaviorIn {
	return BehaviorIn{
		UserRevision: binary.LittleEndian.Uint32(b[0x0:]),
		Flags:        binary.LittleEndian.Uint64(b[0x8:]),
	}
}

// Put encodes the record into b[:BehaviorInSize].
func (r *BehaviorIn) Put(b []byte) {
	clear(b[:BehaviorInSize])
	binary.LittleEndian.PutUint32(b[0x0:], r.UserRevision)
	binary.LittleEndian.PutUint64(b[0x8:], r.Flags)
}

// DecodeMemoryPoolIn decodes a MemoryPoolInSize record.
func DecodeMemoryPoolIn(b []byte) MemoryPoolIn {
	return MemoryPoolIn{
		Address: binary.LittleEndian.Uint64(b[0x00:]),
		Size:    binary.LittleEndian.Uint64(b[0x08:]),
		State:   binary.LittleEndian.Uint32(b[0x10:]),
	}
}

// Put encodes the record into b[:MemoryPoolInSize].
func (r *MemoryPoolIn) Put(b []byte) {
	clear(b[:MemoryPoolInSize])
	binary.LittleEndian.PutUint64(b[0x00:], r.Address)
	binary.LittleEndian.PutUint64(b[0x08:], r.Size)
	binary.LittleEndian.PutUint32(b[0x10:], r.State)
}

// DecodeVoiceChannelResource decodes a VoiceChannelResourceSize record.
func DecodeVoiceChannelResource(b []byte) VoiceChannelResourceIn {
	r := VoiceChannelResourceIn{
		ID:    binary.LittleEndian.Uint32(b[0x00:]),
		InUse: b[0x64] != 0,
	}
	for i := range r.MixVolumes {
		r.MixVolumes[i] = getFloat(b[0x04+i*4:])
	}
	return r
}

// Put encodes the record into b[:VoiceChannelResourceSize].
func (r *VoiceChannelResourceIn) Put(b []byte) {
	clear(b[:VoiceChannelResourceSize])
	binary.LittleEndian.PutUint32(b[0x00:], r.ID)
	for i, v := range r.MixVolumes {
		putFloat(b[0x04+i*4:], v)
	}
	putBool(b[0x64:], r.InUse)
}

func decodeBiquad(b []byte) BiquadFilterIn {
	return BiquadFilterIn{
		Enable: b[0] != 0,
		B: [3]int16{
			int16(binary.LittleEndian.Uint16(b[0x2:])),
			int16(binary.LittleEndian.Uint16(b[0x4:])),
			int16(binary.LittleEndian.Uint16(b[0x6:])),
		},
		A: [2]int16{
			int16(binary.LittleEndian.Uint16(b[0x8:])),
			int16(binary.LittleEndian.Uint16(b[0xA:])),
		},
	}
}

func (r *BiquadFilterIn) put(b []byte) {
	putBool(b, r.Enable)
	binary.LittleEndian.PutUint16(b[0x2:], uint16(r.B[0]))
	binary.LittleEndian.PutUint16(b[0x4:], uint16(r.B[1]))
	binary.LittleEndian.PutUint16(b[0x6:], uint16(r.B[2]))
	binary.LittleEndian.PutUint16(b[0x8:], uint16(r.A[0]))
	binary.LittleEndian.PutUint16(b[0xA:], uint16(r.A[1]))
}

func decodeWaveBuffer(b []byte) WaveBufferIn {
	return WaveBufferIn{
		Address:        binary.LittleEndian.Uint64(b[0x00:]),
		Size:           binary.LittleEndian.Uint64(b[0x08:]),
		StartOffset:    binary.LittleEndian.Uint32(b[0x10:]),
		EndOffset:      binary.LittleEndian.Uint32(b[0x14:]),
		Loop:           b[0x18] != 0,
		EndOfStream:    b[0x19] != 0,
		ContextAddress: binary.LittleEndian.Uint64(b[0x20:]),
		ContextSize:    binary.LittleEndian.Uint64(b[0x28:]),
	}
}

func (r *WaveBufferIn) put(b []byte) {
	binary.LittleEndian.PutUint64(b[0x00:], r.Address)
	binary.LittleEndian.PutUint64(b[0x08:], r.Size)
	binary.LittleEndian.PutUint32(b[0x10:], r.StartOffset)
	binary.LittleEndian.PutUint32(b[0x14:], r.EndOffset)
	putBool(b[0x18:], r.Loop)
	putBool(b[0x19:], r.EndOfStream)
	binary.LittleEndian.PutUint64(b[0x20:], r.ContextAddress)
	binary.LittleEndian.PutUint64(b[0x28:], r.ContextSize)
}

// DecodeVoiceIn decodes a VoiceInSize record.
func DecodeVoiceIn(b []byte) VoiceIn {
	r := VoiceIn{
		ID:                      binary.LittleEndian.Uint32(b[0x00:]),
		NodeID:                  binary.LittleEndian.Uint32(b[0x04:]),
		FirstUpdate:             b[0x08] != 0,
		Acquired:                b[0x09] != 0,
		PlaybackState:           b[0x0A],
		SampleFormat:            b[0x0B],
		SampleRate:              binary.LittleEndian.Uint32(b[0x0C:]),
		Priority:                binary.LittleEndian.Uint32(b[0x10:]),
		SortingOrder:            binary.LittleEndian.Uint32(b[0x14:]),
		ChannelCount:            binary.LittleEndian.Uint32(b[0x18:]),
		Pitch:                   getFloat(b[0x1C:]),
		Volume:                  getFloat(b[0x20:]),
		AppendedWaveBufferCount: binary.LittleEndian.Uint32(b[0x3C:]),
		BaseWaveBufferIndex:     binary.LittleEndian.Uint32(b[0x40:]),
		Flags:                   binary.LittleEndian.Uint32(b[0x44:]),
		AdpcmCoeffsAddress:      binary.LittleEndian.Uint64(b[0x48:]),
		AdpcmCoeffsSize:         binary.LittleEndian.Uint64(b[0x50:]),
		DestinationMixID:        int32(binary.LittleEndian.Uint32(b[0x58:])),
		SplitterID:              binary.LittleEndian.Uint32(b[0x5C:]),
	}
	for i := range r.Biquads {
		r.Biquads[i] = decodeBiquad(b[0x24+i*BiquadFilterSize:])
	}
	for i := range r.WaveBuffers {
		r.WaveBuffers[i] = decodeWaveBuffer(b[0x60+i*WaveBufferSize:])
	}
	for i := range r.ChannelResourceIDs {
		r.ChannelResourceIDs[i] = binary.LittleEndian.Uint32(b[0x140+i*4:])
	}
	return r
}

// Put encodes the record into b[:VoiceInSize].
func (r *VoiceIn) Put(b []byte) {
	clear(b[:VoiceInSize])
	binary.LittleEndian.PutUint32(b[0x00:], r.ID)
	binary.LittleEndian.PutUint32(b[0x04:], r.NodeID)
	putBool(b[0x08:], r.FirstUpdate)
	putBool(b[0x09:], r.Acquired)
	b[0x0A] = r.PlaybackState
	b[0x0B] = r.SampleFormat
	binary.LittleEndian.PutUint32(b[0x0C:], r.SampleRate)
	binary.LittleEndian.PutUint32(b[0x10:], r.Priority)
	binary.LittleEndian.PutUint32(b[0x14:], r.SortingOrder)
	binary.LittleEndian.PutUint32(b[0x18:], r.ChannelCount)
	putFloat(b[0x1C:], r.Pitch)
	putFloat(b[0x20:], r.Volume)
	for i := range r.Biquads {
		r.Biquads[i].put(b[0x24+i*BiquadFilterSize:])
	}
	binary.LittleEndian.PutUint32(b[0x3C:], r.AppendedWaveBufferCount)
	binary.LittleEndian.PutUint32(b[0x40:], r.BaseWaveBufferIndex)
	binary.LittleEndian.PutUint32(b[0x44:], r.Flags)
	binary.LittleEndian.PutUint64(b[0x48:], r.AdpcmCoeffsAddress)
	binary.LittleEndian.PutUint64(b[0x50:], r.AdpcmCoeffsSize)
	binary.LittleEndian.PutUint32(b[0x58:], uint32(r.DestinationMixID))
	binary.LittleEndian.PutUint32(b[0x5C:], r.SplitterID)
	for i := range r.WaveBuffers {
		r.WaveBuffers[i].put(b[0x60+i*WaveBufferSize:])
	}
	for i, id := range r.ChannelResourceIDs {
		binary.LittleEndian.PutUint32(b[0x140+i*4:], id)
	}
}

// DecodeEffectIn decodes an EffectInSize record.
func DecodeEffectIn(b []byte) EffectIn {
	r := EffectIn{
		Type:            b[0x00],
		IsNew:           b[0x01] != 0,
		Enabled:         b[0x02] != 0,
		MixID:           int32(binary.LittleEndian.Uint32(b[0x04:])),
		BufferAddress:   binary.LittleEndian.Uint64(b[0x08:]),
		BufferSize:      binary.LittleEndian.Uint64(b[0x10:]),
		ProcessingOrder: binary.LittleEndian.Uint32(b[0x18:]),
	}
	copy(r.Params[:], b[0x20:0x20+EffectParameterSize])
	return r
}

// Put encodes the record into b[:EffectInSize].
func (r *EffectIn) Put(b []byte) {
	clear(b[:EffectInSize])
	b[0x00] = r.Type
	putBool(b[0x01:], r.IsNew)
	putBool(b[0x02:], r.Enabled)
	binary.LittleEndian.PutUint32(b[0x04:], uint32(r.MixID))
	binary.LittleEndian.PutUint64(b[0x08:], r.BufferAddress)
	binary.LittleEndian.PutUint64(b[0x10:], r.BufferSize)
	binary.LittleEndian.PutUint32(b[0x18:], r.ProcessingOrder)
	copy(b[0x20:], r.Params[:])
}

// DecodeMixIn decodes a MixInSize record.
func DecodeMixIn(b []byte) MixIn {
	r := MixIn{
		Volume:                getFloat(b[0x00:]),
		SampleRate:            binary.LittleEndian.Uint32(b[0x04:]),
		BufferCount:           binary.LittleEndian.Uint32(b[0x08:]),
		InUse:                 b[0x0C] != 0,
		MixID:                 int32(binary.LittleEndian.Uint32(b[0x10:])),
		EffectCount:           binary.LittleEndian.Uint32(b[0x14:]),
		NodeID:                binary.LittleEndian.Uint32(b[0x18:]),
		DestinationMixID:      int32(binary.LittleEndian.Uint32(b[0x20:])),
		DestinationSplitterID: binary.LittleEndian.Uint32(b[0x24:]),
		BufferOffset:          binary.LittleEndian.Uint32(b[0x28:]),
	}
	off := 0x30
	for i := range r.MixBufferVolume {
		for j := range r.MixBufferVolume[i] {
			r.MixBufferVolume[i][j] = getFloat(b[off:])
			off += 4
		}
	}
	return r
}

// Put encodes the record into b[:MixInSize].
func (r *MixIn) Put(b []byte) {
	clear(b[:MixInSize])
	putFloat(b[0x00:], r.Volume)
	binary.LittleEndian.PutUint32(b[0x04:], r.SampleRate)
	binary.LittleEndian.PutUint32(b[0x08:], r.BufferCount)
	putBool(b[0x0C:], r.InUse)
	binary.LittleEndian.PutUint32(b[0x10:], uint32(r.MixID))
	binary.LittleEndian.PutUint32(b[0x14:], r.EffectCount)
	binary.LittleEndian.PutUint32(b[0x18:], r.NodeID)
	binary.LittleEndian.PutUint32(b[0x20:], uint32(r.DestinationMixID))
	binary.LittleEndian.PutUint32(b[0x24:], r.DestinationSplitterID)
	binary.LittleEndian.PutUint32(b[0x28:], r.BufferOffset)
	off := 0x30
	for i := range r.MixBufferVolume {
		for j := range r.MixBufferVolume[i] {
			putFloat(b[off:], r.MixBufferVolume[i][j])
			off += 4
		}
	}
}

// DecodeSinkIn decodes a SinkInSize record.
func DecodeSinkIn(b []byte) SinkIn {
	r := SinkIn{
		Type:       b[0x00],
		InUse:      b[0x01] != 0,
		NodeID:     binary.LittleEndian.Uint32(b[0x04:]),
		InputCount: binary.LittleEndian.Uint32(b[0x110:]),
	}
	copy(r.DeviceName[:], b[0x10:0x110])
	copy(r.Inputs[:], b[0x114:0x114+limits.MaxVoiceChannels])
	return r
}

// Put encodes the record into b[:SinkInSize].
func (r *SinkIn) Put(b []byte) {
	clear(b[:SinkInSize])
	b[0x00] = r.Type
	putBool(b[0x01:], r.InUse)
	binary.LittleEndian.PutUint32(b[0x04:], r.NodeID)
	copy(b[0x10:0x110], r.DeviceName[:])
	binary.LittleEndian.PutUint32(b[0x110:], r.InputCount)
	copy(b[0x114:], r.Inputs[:])
}

// DecodePerformanceIn decodes a PerformanceInSize record.
func DecodePerformanceIn(b []byte) PerformanceIn {
	return PerformanceIn{TargetNodeID: binary.LittleEndian.Uint32(b[0x0:])}
}

// Put encodes the record into b[:PerformanceInSize].
func (r *PerformanceIn) Put(b []byte) {
	clear(b[:PerformanceInSize])
	binary.LittleEndian.PutUint32(b[0x0:], r.TargetNodeID)
}
