package voice

import (
	"encoding/binary"
	"math"

	"github.com/opd-ai/audren/interfaces"
)

// DSP-ADPCM frame geometry: one header byte then 14 four-bit samples.
const (
	adpcmFrameSize       = 8
	adpcmSamplesPerFrame = 14
	adpcmCoeffCount      = 16
	adpcmCoeffsSize      = adpcmCoeffCount * 2
	adpcmContextSize     = 6
)

// chunkFrames bounds how many frames are decoded per guest memory read.
const chunkFrames = 64

// AdpcmState is the decoder history carried between samples.
type AdpcmState struct {
	History [2]int16
}

// Coefficients are the eight predictor pairs of a DSP-ADPCM stream.
type Coefficients [adpcmCoeffCount]int16

// DecodeAdpcm decodes count samples starting at sample index first. data must
// begin at the frame holding sample first.
func DecodeAdpcm(dst []float64, data []byte, first uint32, count int, coeffs *Coefficients, state *AdpcmState) {
	h1, h2 := int32(state.History[0]), int32(state.History[1])
	base := first / adpcmSamplesPerFrame

	for i := range count {
		s := first + uint32(i)
		frame := int(s/adpcmSamplesPerFrame-base) * adpcmFrameSize
		header := data[frame]
		predictor := int(header>>4) & 7
		scale := int32(1) << (header & 0xF)

		idx := int(s % adpcmSamplesPerFrame)
		b := data[frame+1+idx/2]
		var nibble int32
		if idx%2 == 0 {
			nibble = int32(int8(b)) >> 4
		} else {
			nibble = int32(int8(b<<4)) >> 4
		}

		c1 := int32(coeffs[predictor*2])
		c2 := int32(coeffs[predictor*2+1])
		v := ((nibble*scale)<<11 + 1024 + c1*h1 + c2*h2) >> 11
		v = max(math.MinInt16, min(math.MaxInt16, v))

		h2, h1 = h1, v
		dst[i] = float64(v)
	}

	state.History[0], state.History[1] = int16(h1), int16(h2)
}

// decodePcm16 converts interleaved little-endian int16 samples.
func decodePcm16(dst []float64, data []byte) {
	for i := range dst {
		dst[i] = float64(int16(binary.LittleEndian.Uint16(data[i*2:])))
	}
}

// decodePcmFloat converts interleaved float32 samples to the int16 scale.
func decodePcmFloat(dst []float64, data []byte) {
	for i := range dst {
		f := float64(math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:])))
		if math.IsNaN(f) || math.IsInf(f, 0) {
			f = 0
		}
		dst[i] = f * math.MaxInt16
	}
}

// source streams decoded frames out of the voice's head wave buffer.
type source struct {
	offset  uint32
	started bool
	adpcm   AdpcmState
	chunk   []float64
	pos     int
	n       int
	raw     []byte
}

func newSource() source {
	return source{
		chunk: make([]float64, chunkFrames*maxChannels),
		raw:   make([]byte, chunkFrames*maxChannels*4),
	}
}

func (s *source) reset() {
	s.offset = 0
	s.started = false
	s.adpcm = AdpcmState{}
	s.pos = 0
	s.n = 0
}

// flushChunk drops decoded frames that were not handed out yet.
func (s *source) flushChunk() {
	s.pos = 0
	s.n = 0
}

// fill decodes up to chunkFrames frames of the buffer at address starting at
// the current offset and ending before end.
func (s *source) fill(mem interfaces.GuestMemory, format SampleFormat, channels int, address uint64, end uint32, coeffs *Coefficients) error {
	n := min(chunkFrames, int(end-s.offset))
	samples := s.chunk[:n*channels]

	switch format {
	case FormatPcmInt16:
		raw := s.raw[:n*channels*2]
		if err := mem.ReadAt(raw, address+uint64(s.offset)*uint64(channels)*2); err != nil {
			return err
		}
		decodePcm16(samples, raw)

	case FormatPcmFloat:
		raw := s.raw[:n*channels*4]
		if err := mem.ReadAt(raw, address+uint64(s.offset)*uint64(channels)*4); err != nil {
			return err
		}
		decodePcmFloat(samples, raw)

	case FormatAdpcm:
		first := s.offset / adpcmSamplesPerFrame
		last := (s.offset + uint32(n) - 1) / adpcmSamplesPerFrame
		raw := s.raw[:(last-first+1)*adpcmFrameSize]
		if err := mem.ReadAt(raw, address+uint64(first)*adpcmFrameSize); err != nil {
			return err
		}
		DecodeAdpcm(samples, raw, s.offset, n, coeffs, &s.adpcm)
	}

	s.offset += uint32(n)
	s.pos = 0
	s.n = n
	return nil
}

// take copies the next decoded frame into frame.
func (s *source) take(frame []float64) bool {
	if s.pos >= s.n {
		return false
	}
	channels := len(frame)
	copy(frame, s.chunk[s.pos*channels:(s.pos+1)*channels])
	s.pos++
	return true
}

// loadContext reads a {predictor/scale, history0, history1} ADPCM context.
func (s *source) loadContext(mem interfaces.GuestMemory, address, size uint64) {
	if address == 0 || size < adpcmContextSize {
		return
	}
	var ctx [adpcmContextSize]byte
	if err := mem.ReadAt(ctx[:], address); err != nil {
		return
	}
	s.adpcm.History[0] = int16(binary.LittleEndian.Uint16(ctx[2:]))
	s.adpcm.History[1] = int16(binary.LittleEndian.Uint16(ctx[4:]))
}
