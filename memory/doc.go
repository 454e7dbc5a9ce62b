// Package memory tracks the guest memory pools an audio renderer may read
// wave buffers and coefficients from.
//
// Each pool moves through a small state machine driven by the guest:
//
//	Invalid ──RequestAttach(valid)──▶ Attached ──RequestDetach──▶ Detached
//	   ▲                                 │  ▲                        │
//	   └──RequestAttach(invalid)─────────┘  └────RequestAttach───────┘
//
// A valid range is non-empty, 0x40 aligned in both address and size, and does
// not overflow. Voices only mix data that Table.Contains reports as mapped.
package memory
