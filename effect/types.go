package effect

import (
	"errors"
	"fmt"

	"github.com/opd-ai/audren/revision"
)

// Type is the guest's effect type code.
type Type uint8

const (
	TypeInvalid Type = iota
	TypeBufferMixer
	TypeAux
	TypeDelay
	TypeReverb
	TypeReverb3d
	TypeBiquadFilter
	TypeLimiter
	TypeCaptureBuffer
	TypeCompressor
)

var typeNames = [...]string{
	TypeInvalid:       "Invalid",
	TypeBufferMixer:   "BufferMixer",
	TypeAux:           "Aux",
	TypeDelay:         "Delay",
	TypeReverb:        "Reverb",
	TypeReverb3d:      "Reverb3d",
	TypeBiquadFilter:  "BiquadFilter",
	TypeLimiter:       "Limiter",
	TypeCaptureBuffer: "CaptureBuffer",
	TypeCompressor:    "Compressor",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// Supported reports whether the renderer can run the type at this revision.
// Invalid is supported in the sense that it is a valid empty slot.
func (t Type) Supported(info revision.Info) bool {
	switch t {
	case TypeInvalid, TypeBufferMixer, TypeAux, TypeDelay, TypeReverb, TypeReverb3d:
		return true
	case TypeBiquadFilter:
		return info.Supports(revision.CapBiquadFilterEffect)
	}
	return false
}

// OutState is the effect state reported back to the guest.
type OutState uint8

const (
	OutStateEnabled  OutState = 3
	OutStateDisabled OutState = 4
)

// ErrUnsupportedType indicates an effect type the renderer cannot run.
var ErrUnsupportedType = errors.New("unsupported effect type")

// ErrInvalidParameters indicates a parameter block a stage rejected.
var ErrInvalidParameters = errors.New("invalid effect parameters")
