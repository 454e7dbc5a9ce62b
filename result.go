package audren

import (
	"errors"

	"github.com/opd-ai/audren/effect"
	"github.com/opd-ai/audren/memory"
	"github.com/opd-ai/audren/mix"
	"github.com/opd-ai/audren/voice"
)

// Result codes reported in the behavior error infos. A result packs the
// audio module number with a description shifted by resultDescriptionShift.
const (
	resultModule           = 153
	resultDescriptionShift = 9
)

// Result is a guest visible result code.
type Result uint32

func makeResult(description uint32) Result {
	return Result(resultModule | description<<resultDescriptionShift)
}

var (
	ResultInvalidUpdateInfo    = makeResult(41)
	ResultInvalidAddressInfo   = makeResult(42)
	ResultUnsupportedOperation = makeResult(513)
)

// Module returns the module number.
func (r Result) Module() uint32 { return uint32(r) & (1<<resultDescriptionShift - 1) }

// Description returns the description number.
func (r Result) Description() uint32 { return uint32(r) >> resultDescriptionShift }

// resultFor classifies a per-entity failure.
func resultFor(err error) Result {
	switch {
	case errors.Is(err, memory.ErrInvalidAddress):
		return ResultInvalidAddressInfo
	case errors.Is(err, voice.ErrUnsupportedFormat),
		errors.Is(err, voice.ErrInvalidChannelCount),
		errors.Is(err, voice.ErrInvalidPitch),
		errors.Is(err, voice.ErrInvalidSampleRate),
		errors.Is(err, effect.ErrUnsupportedType):
		return ResultUnsupportedOperation
	case errors.Is(err, voice.ErrWaveBufferOverflow),
		errors.Is(err, voice.ErrWaveBufferSequence),
		errors.Is(err, voice.ErrInvalidPlaybackState),
		errors.Is(err, effect.ErrInvalidParameters),
		errors.Is(err, mix.ErrInvalidBufferRange),
		errors.Is(err, mix.ErrInvalidSink):
		return ResultInvalidUpdateInfo
	}
	return ResultInvalidUpdateInfo
}
