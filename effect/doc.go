// Package effect implements the renderer's effect slots and the DSP stages
// behind them.
//
// An Effect holds the guest's configuration for one slot: type, enable flag,
// target mix and processing order. The signal work is done by a Stage, a
// small interface with one implementation per supported type:
//
//	Type          Stage         Notes
//	BufferMixer   BufferMixer   scaled copies between mix buffers
//	Aux           Aux           send buffers looped back to return buffers
//	Delay         Delay         feedback delay with low pass damping
//	Reverb        Reverb        comb/allpass network with pre-delay
//	Reverb3d      Reverb        same network, positional data ignored
//	BiquadFilter  Biquad        Q14 biquad per channel, REV4 and later
//
// Limiter, CaptureBuffer and Compressor are rejected with ErrUnsupportedType
// and reported disabled.
//
// Stages work in place on the target mix's buffers. Parameter blocks name
// buffers relative to that mix; indices outside it are skipped.
package effect
