package circulardb

import "math"

// interpolator evaluates a linear interpolation over a time-ordered series
// of records. It is built once per follower database during aggregation
// and then evaluated once per driver timestamp.
type interpolator struct {
	times  []int64
	values []float64
}

// newInterpolator builds an interpolator from recs, which must already be
// in ascending time order (as cooked records are). It returns an error if
// fewer than two records are available, since a single point cannot define
// a line.
func newInterpolator(recs []Record) (*interpolator, error) {
	if len(recs) < 2 {
		return nil, ErrInterpDriver
	}

	times := make([]int64, len(recs))
	values := make([]float64, len(recs))

	for i, r := range recs {
		times[i] = r.Time
		values[i] = r.Value
	}

	return &interpolator{times: times, values: values}, nil
}

// at evaluates the interpolant at t. It returns ok=false if t falls outside
// the series' domain, or if the interpolated result is not a finite,
// normal float (NaN, Inf, or subnormal): aggregation treats all of these as
// "this follower does not contribute at this timestamp" rather than as an
// error.
func (p *interpolator) at(t int64) (float64, bool) {
	n := len(p.times)

	if t < p.times[0] || t > p.times[n-1] {
		return 0, false
	}

	// binary search for the bracketing interval
	lo, hi := 0, n-1

	for hi-lo > 1 {
		mid := (lo + hi) / 2

		if p.times[mid] <= t {
			lo = mid
		} else {
			hi = mid
		}
	}

	t0, t1 := p.times[lo], p.times[hi]
	v0, v1 := p.values[lo], p.values[hi]

	if t0 == t1 {
		return v0, isUsable(v0)
	}

	frac := float64(t-t0) / float64(t1-t0)
	v := v0 + frac*(v1-v0)

	return v, isUsable(v)
}

// isUsable reports whether v is a value aggregation should trust: finite
// and not a subnormal artifact of interpolating across a gap.
func isUsable(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}

	if v != 0 && math.Abs(v) < 0x1p-1022 { // smallest normal float64
		return false
	}

	return true
}
