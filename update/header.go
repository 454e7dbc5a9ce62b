package update

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the size of the update and response headers.
const HeaderSize = 0x40

// Header is the input header that precedes the update sections.
type Header struct {
	Revision               uint32
	BehaviorSize           uint32
	MemoryPoolSize         uint32
	VoiceSize              uint32
	VoiceResourceSize      uint32
	EffectSize             uint32
	MixSize                uint32
	SinkSize               uint32
	PerformanceManagerSize uint32
	ElapsedFrameCountSize  uint32
	TotalSize              uint32
}

// SectionTotal returns the header size plus every declared section size.
func (h *Header) SectionTotal() uint64 {
	return HeaderSize +
		uint64(h.BehaviorSize) +
		uint64(h.MemoryPoolSize) +
		uint64(h.VoiceSize) +
		uint64(h.VoiceResourceSize) +
		uint64(h.EffectSize) +
		uint64(h.MixSize) +
		uint64(h.SinkSize) +
		uint64(h.PerformanceManagerSize) +
		uint64(h.ElapsedFrameCountSize)
}

// ParseHeader decodes the first HeaderSize bytes of an update blob.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: blob is %d bytes, header needs %d", ErrSizeMismatch, len(data), HeaderSize)
	}

	return Header{
		Revision:               binary.LittleEndian.Uint32(data[0x00:]),
		BehaviorSize:           binary.LittleEndian.Uint32(data[0x04:]),
		MemoryPoolSize:         binary.LittleEndian.Uint32(data[0x08:]),
		VoiceSize:              binary.LittleEndian.Uint32(data[0x0C:]),
		VoiceResourceSize:      binary.LittleEndian.Uint32(data[0x10:]),
		EffectSize:             binary.LittleEndian.Uint32(data[0x14:]),
		MixSize:                binary.LittleEndian.Uint32(data[0x18:]),
		SinkSize:               binary.LittleEndian.Uint32(data[0x1C:]),
		PerformanceManagerSize: binary.LittleEndian.Uint32(data[0x20:]),
		ElapsedFrameCountSize:  binary.LittleEndian.Uint32(data[0x28:]),
		TotalSize:              binary.LittleEndian.Uint32(data[0x3C:]),
	}, nil
}

// Put encodes the header into data[:HeaderSize].
func (h *Header) Put(data []byte) {
	clear(data[:HeaderSize])
	binary.LittleEndian.PutUint32(data[0x00:], h.Revision)
	binary.LittleEndian.PutUint32(data[0x04:], h.BehaviorSize)
	binary.LittleEndian.PutUint32(data[0x08:], h.MemoryPoolSize)
	binary.LittleEndian.PutUint32(data[0x0C:], h.VoiceSize)
	binary.LittleEndian.PutUint32(data[0x10:], h.VoiceResourceSize)
	binary.LittleEndian.PutUint32(data[0x14:], h.EffectSize)
	binary.LittleEndian.PutUint32(data[0x18:], h.MixSize)
	binary.LittleEndian.PutUint32(data[0x1C:], h.SinkSize)
	binary.LittleEndian.PutUint32(data[0x20:], h.PerformanceManagerSize)
	binary.LittleEndian.PutUint32(data[0x28:], h.ElapsedFrameCountSize)
	binary.LittleEndian.PutUint32(data[0x3C:], h.TotalSize)
}
