// Package limits provides centralized capacity constants and validation
// functions for the audio renderer. This package ensures consistent bounds
// enforcement across the update parser, the entity tables and the mixer.
//
// # Alignment
//
// Every guest buffer handed to the renderer (memory pools, wave buffers) must
// start and end on a BufferAlignment (0x40) boundary. ValidateRange checks a
// range for emptiness, wraparound and alignment:
//
//	if err := limits.ValidateRange(address, size); err != nil {
//	    // pool stays Invalid
//	}
//
// # Capacities
//
// The renderer sizes its entity vectors exactly once from the renderer
// parameters. The Max* constants bound those parameters so a malformed
// parameter block cannot request unbounded allocations:
//
//	err := limits.ValidateCount("voiceCount", params.VoiceCount, limits.MaxVoices)
//
// # Error Types
//
//   - ErrEmptyRange: zero address or zero size
//   - ErrRangeOverflow: address + size wraps
//   - ErrMisaligned: address or size not aligned to BufferAlignment
//   - ErrCountExceeded: a count above its limit
package limits
