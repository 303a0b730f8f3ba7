package circulardb

// rawRead resolves a Request against the ring buffer and returns the
// matching live records in time order, before any cooking. It mirrors
// cdb_read_records from the original implementation:
//
//   - start > 0 && end > 0 && end < start is rejected.
//   - On an uncooked read, a negative Count with Start == 0 is a fast
//     path: the last -Count records, regardless of End.
//   - Otherwise the time range [Start, End] is located via binary search
//     and every live record in that logical range is returned.
//
// The final count-based trim is the cooking pipeline's last step (see
// cook and trimByCountSigned): it only applies to a cooked read, not to
// this raw, pre-cook slice.
func (hd *Handle) rawRead(req Request) ([]Record, error) {
	if hd.h.numRecords == 0 {
		return nil, ErrNoRecords
	}

	if req.Start > 0 && req.End > 0 && req.End < req.Start {
		return nil, ErrTimeRange
	}

	var recs []Record
	var err error

	switch {
	case req.Count < 0 && req.Start == 0 && !req.Cooked:
		recs, err = hd.lastNRecords(-req.Count)
	default:
		recs, err = hd.recordsInRange(req.Start, req.End)
	}

	return recs, err
}

// lastNRecords returns the n most recent live records, in time order.
func (hd *Handle) lastNRecords(n int64) ([]Record, error) {
	total := int64(hd.h.numRecords)
	if n > total {
		n = total
	}

	start := total - n

	return hd.recordsFromLogical(start, total-1)
}

// recordsInRange returns every live record whose time falls in [start, end]
// (0 meaning unbounded on that side).
func (hd *Handle) recordsInRange(start, end int64) ([]Record, error) {
	total := int64(hd.h.numRecords)

	lo := int64(0)

	if start != 0 {
		n, err := hd.logicalForTime(start)
		if err != nil {
			return nil, err
		}

		lo = n
	}

	hi := total - 1

	if end != 0 {
		n, err := hd.logicalForTime(end)
		if err != nil {
			return nil, err
		}

		// logicalForTime finds the first index whose time is >= end; if it
		// overshot (its time is strictly past end), the true upper bound is
		// one index earlier.
		t, err := hd.timeForLogical(n)
		if err != nil {
			return nil, err
		}

		if t > end {
			n--
		}

		hi = n
	}

	return hd.recordsFromLogical(lo, hi)
}

// recordsFromLogical gathers every record with logical index in [lo, hi],
// copying them in order exactly as cdb_read_records does (a straight
// contiguous/wrapping copy, no per-record filtering). A record tombstoned by
// DiscardRange keeps its Time and is returned like any other; it is only
// excluded later, from statistics, by its NaN Value.
func (hd *Handle) recordsFromLogical(lo, hi int64) ([]Record, error) {
	if lo < 0 {
		lo = 0
	}

	if hi >= int64(hd.h.numRecords) {
		hi = int64(hd.h.numRecords) - 1
	}

	if hi < lo {
		return nil, nil
	}

	out := make([]Record, 0, hi-lo+1)

	for n := lo; n <= hi; n++ {
		rec, err := hd.readRecordAt(n)
		if err != nil {
			return nil, err
		}

		out = append(out, rec)
	}

	return out, nil
}

func abs64(n int64) int64 {
	if n < 0 {
		return -n
	}

	return n
}

// ReadRecords resolves req and returns the matching records (cooked, if
// req.Cooked) along with a summary Range.
func (hd *Handle) ReadRecords(req Request) ([]Record, Range, error) {
	raw, err := hd.rawRead(req)
	if err != nil {
		return nil, Range{}, err
	}

	recs := raw

	if req.Cooked {
		cooked, err := hd.cook(raw, req)
		if err != nil {
			return nil, Range{}, err
		}

		recs = cooked
	}

	return recs, summarize(recs), nil
}

// summarize computes the lightweight Range summary returned alongside a
// read; full descriptive statistics are available via ComputeStatistics.
// NaN-valued (discarded or gated) records contribute their Time to
// Start/End but are excluded from Count/Min/Max/Average, the same as full
// statistics.
func summarize(recs []Record) Range {
	var rng Range

	if len(recs) == 0 {
		return rng
	}

	rng.Start = recs[0].Time
	rng.End = recs[len(recs)-1].Time
	sum := 0.0
	valid := 0
	first := true

	for _, r := range recs {
		if !isFiniteVal(r.Value) {
			continue
		}

		sum += r.Value
		valid++

		if first || r.Value < rng.Min {
			rng.Min = r.Value
		}

		if first || r.Value > rng.Max {
			rng.Max = r.Value
		}

		first = false
	}

	rng.Count = int64(valid)

	if valid > 0 {
		rng.Average = sum / float64(valid)
	}

	return rng
}
