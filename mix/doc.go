// Package mix holds the renderer's sub-mix and sink entities.
//
// Mix buffers are a flat array of float64 accumulators, one per channel
// slot. Each Mix owns a contiguous range of them; mix 0 is the final mix.
// Sub-mixes route into a lower numbered mix, or the final mix, through a
// 24x24 volume matrix, so processing mixes in descending id visits every
// source before its destination.
//
// Sinks map output channels onto final mix buffers. Only the first device
// sink in use drives the host track.
package mix
