package voice

// resampler converts a voice's source rate to the renderer rate by linear
// interpolation between the current and next source frame. Its state carries
// across ticks so consecutive outputs join without discontinuity.
// maxStep bounds the source frames consumed per output frame, whatever the
// voice's rate and pitch.
const maxStep = 64

type resampler struct {
	cur, next           [maxChannels]float64
	curValid, nextValid bool
	pos                 float64
}

func (r *resampler) reset() {
	*r = resampler{}
}

// render writes frames output frames into out[c][:frames]. ratio is source
// frames consumed per output frame. fetch supplies the next source frame and
// returns false when the source is dry.
//
// consumed counts source frames fully played. starved is set when the source
// ran dry after the tick had already produced audio; the rest of the tick is
// silence and the next call primes again.
func (r *resampler) render(out [][]float64, frames int, ratio float64, fetch func([]float64) bool) (consumed int, starved bool) {
	channels := len(out)
	ratio = min(ratio, maxStep)

	if !r.curValid {
		r.pos = 0
		r.curValid = fetch(r.cur[:channels])
		r.nextValid = r.curValid && fetch(r.next[:channels])
	}
	hadData := r.curValid

	for i := range frames {
		if !r.curValid {
			for c := range out {
				out[c][i] = 0
			}
			starved = hadData
			continue
		}

		for c := range out {
			if r.nextValid {
				out[c][i] = r.cur[c] + (r.next[c]-r.cur[c])*r.pos
			} else {
				out[c][i] = r.cur[c]
			}
		}

		r.pos += ratio
		for r.pos >= 1 && r.curValid {
			r.pos--
			consumed++
			r.cur = r.next
			r.curValid = r.nextValid
			if r.curValid {
				r.nextValid = fetch(r.next[:channels])
			}
		}
	}

	if !r.curValid {
		r.pos = 0
	}
	return consumed, starved
}
