// Package revision decodes the audio renderer protocol revision magic and
// derives the set of features the guest may use with it.
package revision

import (
	"errors"
	"fmt"
)

// Rev0Magic is the little-endian encoding of "REV0". Revision n is encoded
// as Rev0Magic + n<<24, i.e. the ASCII digit replaces the last byte.
const Rev0Magic uint32 = 'R' | 'E'<<8 | 'V'<<16 | '0'<<24

const (
	// MinVersion is the oldest protocol revision accepted.
	MinVersion = 1
	// MaxVersion is the newest protocol revision accepted.
	MaxVersion = 8
)

// ErrUnsupportedRevision indicates a revision magic that is malformed or out
// of the supported range.
var ErrUnsupportedRevision = errors.New("unsupported renderer revision")

// Capability is a single revision-gated protocol feature.
type Capability uint32

const (
	// CapSplitter enables splitter routing nodes.
	CapSplitter Capability = 1 << iota
	// CapAdpcmLoopContext makes looping ADPCM buffers reload their loop context.
	CapAdpcmLoopContext
	// CapLongPreDelay extends the reverb pre-delay range.
	CapLongPreDelay
	// CapPerformanceMetricsV2 selects the second performance entry format.
	CapPerformanceMetricsV2
	// CapBiquadFilterEffect enables the biquad filter effect type.
	CapBiquadFilterEffect
	// CapSplitterBugFix fixes destination ordering in splitters.
	CapSplitterBugFix
	// CapVariadicCommandBuffer allows command buffers sized from the parameters.
	CapVariadicCommandBuffer
	// CapElapsedFrameCount adds the elapsed frame count section.
	CapElapsedFrameCount
	// CapPcmFloat allows 32-bit float PCM voices.
	CapPcmFloat
)

// minVersion maps each capability to the first revision that carries it.
var minVersion = map[Capability]int{
	CapSplitter:              2,
	CapAdpcmLoopContext:      2,
	CapLongPreDelay:          3,
	CapPerformanceMetricsV2:  4,
	CapBiquadFilterEffect:    4,
	CapSplitterBugFix:        5,
	CapVariadicCommandBuffer: 5,
	CapElapsedFrameCount:     5,
	CapPcmFloat:              5,
}

var capNames = map[Capability]string{
	CapSplitter:              "splitter",
	CapAdpcmLoopContext:      "adpcm-loop-context",
	CapLongPreDelay:          "long-pre-delay",
	CapPerformanceMetricsV2:  "performance-metrics-v2",
	CapBiquadFilterEffect:    "biquad-filter-effect",
	CapSplitterBugFix:        "splitter-bug-fix",
	CapVariadicCommandBuffer: "variadic-command-buffer",
	CapElapsedFrameCount:     "elapsed-frame-count",
	CapPcmFloat:              "pcm-float",
}

// String returns the capability name.
func (c Capability) String() string {
	if name, ok := capNames[c]; ok {
		return name
	}
	return fmt.Sprintf("capability(0x%x)", uint32(c))
}

// Info describes the features of one protocol revision. It is derived once
// at renderer construction and consulted before decoding revision-specific
// data.
type Info struct {
	magic   uint32
	version int
	caps    Capability
}

// Magic returns the revision magic for version n.
func Magic(n int) uint32 {
	return Rev0Magic + uint32(n)<<24
}

// Version extracts the revision number from a revision magic.
func Version(magic uint32) (int, error) {
	if magic&0x00FFFFFF != Rev0Magic&0x00FFFFFF || magic < Rev0Magic {
		return 0, fmt.Errorf("%w: bad magic 0x%08x", ErrUnsupportedRevision, magic)
	}
	return int((magic - Rev0Magic) >> 24), nil
}

// New builds the capability set for a revision magic.
func New(magic uint32) (Info, error) {
	v, err := Version(magic)
	if err != nil {
		return Info{}, err
	}
	if v < MinVersion || v > MaxVersion {
		return Info{}, fmt.Errorf("%w: REV%d (supported REV%d..REV%d)", ErrUnsupportedRevision, v, MinVersion, MaxVersion)
	}

	var caps Capability
	for c, first := range minVersion {
		if v >= first {
			caps |= c
		}
	}
	return Info{magic: magic, version: v, caps: caps}, nil
}

// Magic returns the raw revision magic.
func (i Info) Magic() uint32 { return i.magic }

// Version returns the revision number.
func (i Info) Version() int { return i.version }

// Supports reports whether every capability in c is available.
func (i Info) Supports(c Capability) bool {
	return i.caps&c == c
}

// Capabilities returns the full capability bitset.
func (i Info) Capabilities() Capability { return i.caps }

// String returns the revision in its ASCII form, e.g. "REV5".
func (i Info) String() string {
	return fmt.Sprintf("REV%d", i.version)
}
