package update

import (
	"encoding/binary"
	"fmt"

	"github.com/opd-ai/audren/limits"
	"github.com/opd-ai/audren/revision"
)

// Output record sizes.
const (
	MemoryPoolOutSize        = 0x10
	VoiceOutSize             = 0x10
	EffectOutSize            = 0x10
	SinkOutSize              = 0x20
	PerformanceOutSize       = 0x10
	BehaviorOutSize          = 0xB0
	ErrorInfoSize            = 0x10
	ElapsedFrameCountOutSize = 0x10
)

// VoiceOut reports playback progress for one voice.
type VoiceOut struct {
	PlayedSampleCount     uint64
	PlayedWaveBufferCount uint32
	VoiceDropCount        uint32
}

// SinkOut reports circular buffer sink progress.
type SinkOut struct {
	LastWrittenOffset uint32
}

// PerformanceOut reports how many history entries a performance manager holds.
type PerformanceOut struct {
	HistorySize uint32
}

// ErrorInfo is one per-entity failure reported back to the guest.
type ErrorInfo struct {
	Result uint32
	Extra  uint64
}

// Output is the renderer's response to one update.
type Output struct {
	MemoryPools       []uint32
	Voices            []VoiceOut
	Effects           []uint8
	Sinks             []SinkOut
	Performance       []PerformanceOut
	ErrorInfos        []ErrorInfo
	ElapsedFrameCount uint64
}

// Writer encodes responses for one renderer revision.
type Writer struct {
	info revision.Info
}

// NewWriter returns a Writer for the given revision.
func NewWriter(info revision.Info) *Writer {
	return &Writer{info: info}
}

// Size returns the response size for the given entity counts.
func (w *Writer) Size(layout Layout) int {
	size := HeaderSize +
		layout.MemoryPools*MemoryPoolOutSize +
		layout.Voices*VoiceOutSize +
		layout.Effects*EffectOutSize +
		layout.Sinks*SinkOutSize +
		layout.PerformanceManagers*PerformanceOutSize +
		BehaviorOutSize
	if w.info.Supports(revision.CapElapsedFrameCount) {
		size += ElapsedFrameCountOutSize
	}
	return size
}

// Write encodes out. At most limits.MaxErrorInfos error infos are written;
// the count field saturates at that capacity.
func (w *Writer) Write(out *Output) []byte {
	poolSize := len(out.MemoryPools) * MemoryPoolOutSize
	voiceSize := len(out.Voices) * VoiceOutSize
	effectSize := len(out.Effects) * EffectOutSize
	sinkSize := len(out.Sinks) * SinkOutSize
	perfSize := len(out.Performance) * PerformanceOutSize
	elapsedSize := 0
	if w.info.Supports(revision.CapElapsedFrameCount) {
		elapsedSize = ElapsedFrameCountOutSize
	}
	total := HeaderSize + poolSize + voiceSize + effectSize + sinkSize + perfSize + BehaviorOutSize + elapsedSize

	data := make([]byte, total)
	header := Header{
		Revision:               w.info.Magic(),
		BehaviorSize:           BehaviorOutSize,
		MemoryPoolSize:         uint32(poolSize),
		VoiceSize:              uint32(voiceSize),
		EffectSize:             uint32(effectSize),
		SinkSize:               uint32(sinkSize),
		PerformanceManagerSize: uint32(perfSize),
		ElapsedFrameCountSize:  uint32(elapsedSize),
		TotalSize:              uint32(total),
	}
	header.Put(data)

	off := HeaderSize
	for _, state := range out.MemoryPools {
		binary.LittleEndian.PutUint32(data[off:], state)
		off += MemoryPoolOutSize
	}
	for _, v := range out.Voices {
		binary.LittleEndian.PutUint64(data[off:], v.PlayedSampleCount)
		binary.LittleEndian.PutUint32(data[off+0x8:], v.PlayedWaveBufferCount)
		binary.LittleEndian.PutUint32(data[off+0xC:], v.VoiceDropCount)
		off += VoiceOutSize
	}
	for _, state := range out.Effects {
		data[off] = state
		off += EffectOutSize
	}
	for _, s := range out.Sinks {
		binary.LittleEndian.PutUint32(data[off:], s.LastWrittenOffset)
		off += SinkOutSize
	}
	for _, p := range out.Performance {
		binary.LittleEndian.PutUint32(data[off:], p.HistorySize)
		off += PerformanceOutSize
	}

	infos := out.ErrorInfos[:min(len(out.ErrorInfos), limits.MaxErrorInfos)]
	for i, e := range infos {
		binary.LittleEndian.PutUint32(data[off+i*ErrorInfoSize:], e.Result)
		binary.LittleEndian.PutUint64(data[off+i*ErrorInfoSize+0x8:], e.Extra)
	}
	binary.LittleEndian.PutUint32(data[off+limits.MaxErrorInfos*ErrorInfoSize:], uint32(len(infos)))
	off += BehaviorOutSize

	if elapsedSize != 0 {
		binary.LittleEndian.PutUint64(data[off:], out.ElapsedFrameCount)
	}
	return data
}

// ParseOutput decodes a response produced by Writer.Write.
func ParseOutput(data []byte) (*Output, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	poolSize := int(h.MemoryPoolSize)
	voiceSize := int(h.VoiceSize)
	effectSize := int(h.EffectSize)
	sinkSize := int(h.SinkSize)
	perfSize := int(h.PerformanceManagerSize)
	behaviorSize := int(h.BehaviorSize)
	elapsedSize := int(h.ElapsedFrameCountSize)

	if h.SectionTotal() != uint64(h.TotalSize) || uint64(len(data)) < uint64(h.TotalSize) {
		return nil, fmt.Errorf("%w: response sections do not add up to %d", ErrSizeMismatch, h.TotalSize)
	}
	if behaviorSize != BehaviorOutSize {
		return nil, fmt.Errorf("%w: behavior section is %d bytes", ErrSectionSize, behaviorSize)
	}

	out := &Output{}
	off := HeaderSize
	for range poolSize / MemoryPoolOutSize {
		out.MemoryPools = append(out.MemoryPools, binary.LittleEndian.Uint32(data[off:]))
		off += MemoryPoolOutSize
	}
	for range voiceSize / VoiceOutSize {
		out.Voices = append(out.Voices, VoiceOut{
			PlayedSampleCount:     binary.LittleEndian.Uint64(data[off:]),
			PlayedWaveBufferCount: binary.LittleEndian.Uint32(data[off+0x8:]),
			VoiceDropCount:        binary.LittleEndian.Uint32(data[off+0xC:]),
		})
		off += VoiceOutSize
	}
	for range effectSize / EffectOutSize {
		out.Effects = append(out.Effects, data[off])
		off += EffectOutSize
	}
	for range sinkSize / SinkOutSize {
		out.Sinks = append(out.Sinks, SinkOut{LastWrittenOffset: binary.LittleEndian.Uint32(data[off:])})
		off += SinkOutSize
	}
	for range perfSize / PerformanceOutSize {
		out.Performance = append(out.Performance, PerformanceOut{HistorySize: binary.LittleEndian.Uint32(data[off:])})
		off += PerformanceOutSize
	}

	count := min(int(binary.LittleEndian.Uint32(data[off+limits.MaxErrorInfos*ErrorInfoSize:])), limits.MaxErrorInfos)
	for i := range count {
		out.ErrorInfos = append(out.ErrorInfos, ErrorInfo{
			Result: binary.LittleEndian.Uint32(data[off+i*ErrorInfoSize:]),
			Extra:  binary.LittleEndian.Uint64(data[off+i*ErrorInfoSize+0x8:]),
		})
	}
	off += BehaviorOutSize

	if elapsedSize >= 8 {
		out.ElapsedFrameCount = binary.LittleEndian.Uint64(data[off:])
	}
	return out, nil
}
