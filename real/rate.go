package real

import "math"

// convertRate linearly resamples interleaved frames from one rate to
// another. The last input frame is held past the end of the buffer.
func convertRate(samples []int16, channels int, from, to uint32) []int16 {
	if from == to || channels <= 0 || len(samples) < channels {
		return samples
	}

	inFrames := len(samples) / channels
	outFrames := int(uint64(inFrames) * uint64(to) / uint64(from))
	out := make([]int16, outFrames*channels)
	step := float64(from) / float64(to)

	for i := range outFrames {
		pos := float64(i) * step
		j := int(pos)
		frac := pos - float64(j)
		next := min(j+1, inFrames-1)
		for c := range channels {
			a := float64(samples[j*channels+c])
			b := float64(samples[next*channels+c])
			out[i*channels+c] = int16(math.Round(a + (b-a)*frac))
		}
	}
	return out
}
