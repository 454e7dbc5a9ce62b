package effect

import (
	"encoding/binary"
	"fmt"

	"github.com/opd-ai/audren/limits"
)

// AuxParams describes an aux send/return pair.
//
// Layout: Input u8[24] @0x00, Output u8[24] @0x18, MixBufferCount u32 @0x30.
type AuxParams struct {
	Input          [limits.MaxMixBuffers]uint8
	Output         [limits.MaxMixBuffers]uint8
	MixBufferCount uint32
}

// Put encodes the parameter block.
func (p *AuxParams) Put(b []byte) {
	copy(b[0x00:], p.Input[:])
	copy(b[0x18:], p.Output[:])
	binary.LittleEndian.PutUint32(b[0x30:], p.MixBufferCount)
}

// Aux returns each send buffer unchanged on its return buffer. Guest side
// processing of the send data is not modelled.
type Aux struct {
	input   [limits.MaxMixBuffers]uint8
	output  [limits.MaxMixBuffers]uint8
	count   int
	scratch [][]float64
}

// Configure implements Stage.Configure
func (a *Aux) Configure(params []byte) error {
	count := binary.LittleEndian.Uint32(params[0x30:])
	if count > limits.MaxMixBuffers {
		return fmt.Errorf("%w: aux buffer count %d", ErrInvalidParameters, count)
	}
	copy(a.input[:], params[0x00:0x18])
	copy(a.output[:], params[0x18:0x30])
	a.count = int(count)
	return nil
}

// Process implements Stage.Process
func (a *Aux) Process(buses [][]float64) {
	if len(a.scratch) < a.count {
		a.scratch = make([][]float64, a.count)
	}
	// snapshot every send before writing any return
	for i := range a.count {
		if !validBus(buses, a.input[i]) {
			continue
		}
		src := buses[a.input[i]]
		a.scratch[i] = append(a.scratch[i][:0], src...)
	}
	for i := range a.count {
		if !validBus(buses, a.input[i]) || !validBus(buses, a.output[i]) {
			continue
		}
		copy(buses[a.output[i]], a.scratch[i])
	}
}

// Reset implements Stage.Reset
func (a *Aux) Reset() {}

// GetName implements Stage.GetName
func (a *Aux) GetName() string { return "Aux" }
