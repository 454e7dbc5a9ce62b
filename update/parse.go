package update

import (
	"fmt"

	"github.com/opd-ai/audren/revision"
	"github.com/sirupsen/logrus"
)

// Layout holds the entity counts a renderer was created with. Every present
// section must hold exactly one record per entity.
type Layout struct {
	MemoryPools         int
	VoiceResources      int
	Voices              int
	Effects             int
	Mixes               int
	Sinks               int
	PerformanceManagers int
}

// Update is a fully decoded update blob. A nil slice or pointer means the
// guest omitted that section and the matching entities stay as they are.
type Update struct {
	Behavior          *BehaviorIn
	MemoryPools       []MemoryPoolIn
	VoiceResources    []VoiceChannelResourceIn
	Voices            []VoiceIn
	Effects           []EffectIn
	Mixes             []MixIn
	Sinks             []SinkIn
	Performance       []PerformanceIn
	ElapsedFrameCount bool
}

type section struct {
	name   string
	size   uint32
	record int
	count  int
}

func (s section) check() error {
	if s.size == 0 {
		return nil
	}
	want := uint64(s.record) * uint64(s.count)
	if uint64(s.size) != want {
		return fmt.Errorf("%w: %s section is %d bytes, expected 0 or %d", ErrSectionSize, s.name, s.size, want)
	}
	return nil
}

// Parse validates an update blob against the renderer's revision and layout
// and decodes every present section. Nothing is returned unless the whole
// blob is well formed, so callers can apply the result without partial
// failure.
func Parse(data []byte, layout Layout, info revision.Info) (*Update, error) {
	hdr, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}

	if hdr.Revision != info.Magic() {
		logrus.WithFields(logrus.Fields{
			"function": "Parse",
			"got":      fmt.Sprintf("%#08x", hdr.Revision),
			"want":     info.String(),
		}).Debug("Update revision mismatch")
		return nil, fmt.Errorf("%w: got %#08x, renderer is %s", ErrRevisionMismatch, hdr.Revision, info)
	}

	if total := hdr.SectionTotal(); total != uint64(hdr.TotalSize) {
		return nil, fmt.Errorf("%w: sections sum to %d bytes, header says %d", ErrSizeMismatch, total, hdr.TotalSize)
	}
	if uint64(len(data)) < uint64(hdr.TotalSize) {
		return nil, fmt.Errorf("%w: blob is %d bytes, header says %d", ErrSizeMismatch, len(data), hdr.TotalSize)
	}

	// fixed encounter order
	sections := []section{
		{"behavior", hdr.BehaviorSize, BehaviorInSize, 1},
		{"memory pool", hdr.MemoryPoolSize, MemoryPoolInSize, layout.MemoryPools},
		{"voice resource", hdr.VoiceResourceSize, VoiceChannelResourceSize, layout.VoiceResources},
		{"voice", hdr.VoiceSize, VoiceInSize, layout.Voices},
		{"effect", hdr.EffectSize, EffectInSize, layout.Effects},
		{"mix", hdr.MixSize, MixInSize, layout.Mixes},
		{"sink", hdr.SinkSize, SinkInSize, layout.Sinks},
		{"performance", hdr.PerformanceManagerSize, PerformanceInSize, layout.PerformanceManagers},
		{"elapsed frame count", hdr.ElapsedFrameCountSize, ElapsedFrameCountSize, 1},
	}
	for _, s := range sections {
		if err := s.check(); err != nil {
			return nil, err
		}
	}
	if hdr.ElapsedFrameCountSize != 0 && !info.Supports(revision.CapElapsedFrameCount) {
		return nil, fmt.Errorf("%w: elapsed frame count section needs %s", ErrSectionSize, revision.CapElapsedFrameCount)
	}

	u := &Update{}
	off := HeaderSize
	next := func(size uint32) []byte {
		b := data[off : off+int(size)]
		off += int(size)
		return b
	}

	if b := next(hdr.BehaviorSize); len(b) > 0 {
		behavior := DecodeBehaviorIn(b)
		u.Behavior = &behavior
	}
	u.MemoryPools = decodeAll(next(hdr.MemoryPoolSize), MemoryPoolInSize, DecodeMemoryPoolIn)
	u.VoiceResources = decodeAll(next(hdr.VoiceResourceSize), VoiceChannelResourceSize, DecodeVoiceChannelResource)
	u.Voices = decodeAll(next(hdr.VoiceSize), VoiceInSize, DecodeVoiceIn)
	u.Effects = decodeAll(next(hdr.EffectSize), EffectInSize, DecodeEffectIn)
	u.Mixes = decodeAll(next(hdr.MixSize), MixInSize, DecodeMixIn)
	u.Sinks = decodeAll(next(hdr.SinkSize), SinkInSize, DecodeSinkIn)
	u.Performance = decodeAll(next(hdr.PerformanceManagerSize), PerformanceInSize, DecodePerformanceIn)
	u.ElapsedFrameCount = len(next(hdr.ElapsedFrameCountSize)) > 0

	logrus.WithFields(logrus.Fields{
		"function":    "Parse",
		"total_size":  hdr.TotalSize,
		"pools":       len(u.MemoryPools),
		"voices":      len(u.Voices),
		"effects":     len(u.Effects),
		"mixes":       len(u.Mixes),
		"sinks":       len(u.Sinks),
		"performance": len(u.Performance),
	}).Debug("Decoded update")

	return u, nil
}

func decodeAll[T any](b []byte, size int, decode func([]byte) T) []T {
	if len(b) == 0 {
		return nil
	}
	out := make([]T, len(b)/size)
	for i := range out {
		out[i] = decode(b[i*size:])
	}
	return out
}

// Marshal encodes the update as a guest would submit it for the given
// revision. Nil sections are written as absent.
func (u *Update) Marshal(magic uint32) []byte {
	hdr := Header{
		Revision:               magic,
		MemoryPoolSize:         uint32(len(u.MemoryPools) * MemoryPoolInSize),
		VoiceResourceSize:      uint32(len(u.VoiceResources) * VoiceChannelResourceSize),
		VoiceSize:              uint32(len(u.Voices) * VoiceInSize),
		EffectSize:             uint32(len(u.Effects) * EffectInSize),
		MixSize:                uint32(len(u.Mixes) * MixInSize),
		SinkSize:               uint32(len(u.Sinks) * SinkInSize),
		PerformanceManagerSize: uint32(len(u.Performance) * PerformanceInSize),
	}
	if u.Behavior != nil {
		hdr.BehaviorSize = BehaviorInSize
	}
	if u.ElapsedFrameCount {
		hdr.ElapsedFrameCountSize = ElapsedFrameCountSize
	}
	hdr.TotalSize = uint32(hdr.SectionTotal())

	data := make([]byte, hdr.TotalSize)
	hdr.Put(data)
	off := HeaderSize

	if u.Behavior != nil {
		u.Behavior.Put(data[off:])
		off += BehaviorInSize
	}
	for i := range u.MemoryPools {
		u.MemoryPools[i].Put(data[off:])
		off += MemoryPoolInSize
	}
	for i := range u.VoiceResources {
		u.VoiceResources[i].Put(data[off:])
		off += VoiceChannelResourceSize
	}
	for i := range u.Voices {
		u.Voices[i].Put(data[off:])
		off += VoiceInSize
	}
	for i := range u.Effects {
		u.Effects[i].Put(data[off:])
		off += EffectInSize
	}
	for i := range u.Mixes {
		u.Mixes[i].Put(data[off:])
		off += MixInSize
	}
	for i := range u.Sinks {
		u.Sinks[i].Put(data[off:])
		off += SinkInSize
	}
	for i := range u.Performance {
		u.Performance[i].Put(data[off:])
		off += PerformanceInSize
	}
	return data
}
