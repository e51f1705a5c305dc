package pipeline

import "math"

// RollingMean is a trailing mean over the last window observations. It
// reports a value as soon as one observation is in the window. NaN
// observations occupy a slot but are left out of the mean.
type RollingMean struct {
	window int
	buf    []float64
	next   int
	filled int
	sum    float64
	count  int
}

// NewRollingMean returns an accumulator over window observations.
// A window below 1 is treated as 1.
func NewRollingMean(window int) *RollingMean {
	if window < 1 {
		window = 1
	}
	return &RollingMean{window: window, buf: make([]float64, window)}
}

// Add pushes v and returns the mean of the current window, or NaN when the
// window holds no valid observation.
func (r *RollingMean) Add(v float64) float64 {
	if r.filled == r.window {
		old := r.buf[r.next]
		if !math.IsNaN(old) {
			r.sum -= old
			r.count--
		}
	} else {
		r.filled++
	}
	r.buf[r.next] = v
	r.next = (r.next + 1) % r.window
	if !math.IsNaN(v) {
		r.sum += v
		r.count++
	}

	if r.count == 0 {
		return math.NaN()
	}
	return r.sum / float64(r.count)
}

// Rolling applies a fresh RollingMean to a series.
func Rolling(series []float64, window int) []float64 {
	rm := NewRollingMean(window)
	out := make([]float64, len(series))
	for i, v := range series {
		out[i] = rm.Add(v)
	}
	return out
}
