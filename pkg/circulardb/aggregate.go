package circulardb

// AggregateFunc selects how follower values are combined at each of the
// driver's timestamps.
type AggregateFunc int

const (
	AggSum AggregateFunc = iota
	AggAverage
	AggMin
	AggMax
)

// FollowerError pairs a follower's index and path with the error that
// prevented it from contributing.
type FollowerError struct {
	Index int
	Path  string
	Err   error
}

// Aggregate combines a driver database with zero or more follower
// databases: the driver supplies the timestamps (its own cooked read,
// under req), and at each of those timestamps every follower is evaluated
// by linear interpolation between its own cooked records. This lets
// databases with independent, non-aligned sample times be combined.
//
// A follower that cannot be read, or that has fewer than two cooked
// records, is skipped rather than failing the whole aggregation; its error
// is reported in the returned skip list. A follower whose interpolated
// value at a given timestamp falls outside its domain, or evaluates to a
// non-finite or subnormal result, simply does not contribute at that one
// timestamp.
//
// The returned Range is computed over the driver's own cooked slab, not
// over the combined result: this matches the original aggregator, which
// reports the driver's range statistics alongside the merged records.
func Aggregate(driver *Handle, followers []*Handle, req Request, fn AggregateFunc) ([]Record, Range, []FollowerError, error) {
	// Driver and followers are always read cooked, whatever req.Cooked says.
	req.Cooked = true

	driverRecs, driverRange, err := driver.ReadRecords(req)
	if err != nil {
		return nil, Range{}, nil, err
	}

	if len(driverRecs) < 2 {
		return nil, Range{}, nil, ErrInterpDriver
	}

	interps := make([]*interpolator, 0, len(followers))
	var skipped []FollowerError

	for i, f := range followers {
		recs, _, err := f.ReadRecords(req)
		if err != nil {
			skipped = append(skipped, FollowerError{Index: i, Path: f.path, Err: err})

			continue
		}

		interp, err := newInterpolator(recs)
		if err != nil {
			skipped = append(skipped, FollowerError{Index: i, Path: f.path, Err: ErrInterpFollower})

			continue
		}

		interps = append(interps, interp)
	}

	out := make([]Record, 0, len(driverRecs))

	for _, dr := range driverRecs {
		values := make([]float64, 0, len(interps)+1)
		values = append(values, dr.Value)

		for _, interp := range interps {
			if v, ok := interp.at(dr.Time); ok {
				values = append(values, v)
			}
		}

		out = append(out, Record{Time: dr.Time, Value: combine(fn, values)})
	}

	return out, driverRange, skipped, nil
}

func combine(fn AggregateFunc, values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	switch fn {
	case AggSum:
		sum := 0.0
		for _, v := range values {
			sum += v
		}

		return sum
	case AggMin:
		m := values[0]
		for _, v := range values[1:] {
			if v < m {
				m = v
			}
		}

		return m
	case AggMax:
		m := values[0]
		for _, v := range values[1:] {
			if v > m {
				m = v
			}
		}

		return m
	case AggAverage:
		sum := 0.0
		for _, v := range values {
			sum += v
		}

		return sum / float64(len(values))
	default:
		return 0
	}
}
