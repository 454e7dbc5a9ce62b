// Package dsp holds the small signal processing kernels shared by voices,
// effects and the final mix: a biquad section, gain ramps and int16
// saturation. Block operations go through algo-vecmath.
package dsp
